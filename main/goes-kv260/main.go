// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// This is the fan controller machine for the Xilinx Kria KV260 starter kit.
package main

func main() { Goes.Main() }

// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package lang provides text in alternative languages.
//
// The language precedence is the Lang variable, the "LANG" environment
// variable, then a configurable default, en_US.UTF-8 unless rebuilt with,
//
//	-X github.com/platinasystems/goes-kv260/lang.Default=fr_FR.UTF-8
package lang

import "os"

const (
	DeDE = "de_DE.UTF-8"
	EnGB = "en_GB.UTF-8"
	EnUS = "en_US.UTF-8"
	EsES = "es_ES.UTF-8"
	FrFR = "fr_FR.UTF-8"
	ItIT = "it_IT.UTF-8"
	JaJP = "ja_JP.UTF-8"
	KoKR = "ko_KR.UTF-8"
	PtBR = "pt_BR.UTF-8"
	RuRU = "ru_RU.UTF-8"
	ZhCN = "zh_CN.UTF-8"
	ZhTW = "zh_TW.UTF-8"
)

var (
	Default = EnUS

	// Lang, if set, overrides the process environment.
	Lang string
)

type Alt map[string]string

// If available, this returns text in the preferred language.
func (m Alt) String() string {
	lang := Lang
	if len(lang) == 0 {
		lang = os.Getenv("LANG")
	}
	for _, l := range []string{lang, Default, EnUS} {
		if s, found := m[l]; found {
			return s
		}
	}
	return ""
}

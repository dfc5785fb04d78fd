// Copyright © 2018-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package sshd

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io/ioutil"
	"os"

	"github.com/platinasystems/log"
	gossh "golang.org/x/crypto/ssh"
)

const hostKeyBits = 4096

// makeId generates the sshd host key pair under /etc/goes/sshd. Existing
// keys are kept unless override is set.
func makeId(override bool) error {
	for _, mk := range []struct {
		dn   string
		mode os.FileMode
	}{
		{"/etc/goes", 0555},
		{keyDir, 0600},
	} {
		if _, err := os.Stat(mk.dn); os.IsNotExist(err) {
			if err = os.Mkdir(mk.dn, mk.mode); err != nil {
				return err
			}
		}
	}

	pubFile := hostKeyFile + ".pub"
	if !override {
		if _, err := os.Stat(hostKeyFile); err == nil {
			if _, err = os.Stat(pubFile); err == nil {
				return nil
			}
		}
	}

	priv, err := rsa.GenerateKey(rand.Reader, hostKeyBits)
	if err != nil {
		return err
	}
	if err = priv.Validate(); err != nil {
		return err
	}

	pub, err := gossh.NewPublicKey(&priv.PublicKey)
	if err != nil {
		return err
	}

	err = ioutil.WriteFile(hostKeyFile, pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	}), 0600)
	if err != nil {
		return err
	}

	err = ioutil.WriteFile(pubFile, gossh.MarshalAuthorizedKey(pub), 0600)
	if err != nil {
		return err
	}
	log.Print("daemon", "info", "generated host key ", hostKeyFile)
	return nil
}

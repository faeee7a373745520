// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import (
	"fmt"

	"go.mozilla.org/pkcs7"
)

// VerifyXtraManifest checks an Xtra package manifest's Authenticode-style
// PKCS#7 signature and returns the signed manifest bytes once verified.
// Xtra packages are occasionally shipped signed the same way a Windows PE
// carries an embedded certificate table; this is the one place the
// interpreter touches signed data, reusing pkcs7.Parse/Verify the way the
// original PE analyzer's certificate-directory reader does, rather than
// hand-rolling ASN.1 parsing for a rarely-hit path.
func VerifyXtraManifest(signed []byte) ([]byte, error) {
	p7, err := pkcs7.Parse(signed)
	if err != nil {
		return nil, fmt.Errorf("vm: parsing xtra manifest signature: %w", err)
	}
	if err := p7.Verify(); err != nil {
		return nil, fmt.Errorf("vm: xtra manifest signature does not verify: %w", err)
	}
	return p7.Content, nil
}

// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import "testing"

func TestVerifyXtraManifestRejectsGarbage(t *testing.T) {
	if _, err := VerifyXtraManifest([]byte("not a pkcs7 blob")); err == nil {
		t.Error("VerifyXtraManifest should reject non-PKCS7 bytes")
	}
}

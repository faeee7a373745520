// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package config

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// NormalizeDirVersion turns the container's human-banded director_version
// (e.g. 1150 for "11.5") into the "vMAJOR.MINOR.0" form golang.org/x/mod/semver
// expects, so feature gates can compare movies across format eras with a
// real semver comparator instead of raw integer thresholds.
func NormalizeDirVersion(dirVersion uint16) string {
	major := dirVersion / 100
	minor := (dirVersion % 100) / 10
	return fmt.Sprintf("v%d.%d.0", major, minor)
}

// AtLeast reports whether a movie's director_version meets or exceeds
// minVersion (itself in "vMAJOR.MINOR.0" form), gating features the way
// the original player's version checks (e.g. "only run the Xtra bridge on
// Director >= 11.5") do, without hand-rolling integer-tuple comparison.
func AtLeast(dirVersion uint16, minVersion string) bool {
	if !semver.IsValid(minVersion) {
		return false
	}
	return semver.Compare(NormalizeDirVersion(dirVersion), semver.Canonical(minVersion)) >= 0
}

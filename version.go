// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// ClassFileVersion is a (major, minor) pair, totally ordered by major then
// minor (spec.md §3).
type ClassFileVersion struct {
	Major uint16
	Minor uint16
}

// Named points of interest, spec.md §3 and §6.
var (
	Java1  = ClassFileVersion{Major: 45, Minor: 3}
	Java2  = ClassFileVersion{Major: 46}
	Java3  = ClassFileVersion{Major: 47}
	Java4  = ClassFileVersion{Major: 48}
	Java5  = ClassFileVersion{Major: 49}
	Java6  = ClassFileVersion{Major: 50}
	Java7  = ClassFileVersion{Major: 51}
	Java8  = ClassFileVersion{Major: 52}
	Java9  = ClassFileVersion{Major: 53}
	Java10 = ClassFileVersion{Major: 54}
)

// semverString maps a class-file version to the "vMAJOR.MINOR.0" form
// golang.org/x/mod/semver compares. Ordering class-file versions is exactly
// the kind of dotted-pair comparison semver.Compare already implements
// correctly (leading zeros, numeric rather than lexical ordering); reusing
// it avoids a hand-rolled (major, minor) comparator.
func (v ClassFileVersion) semverString() string {
	return fmt.Sprintf("v%d.%d.0", v.Major, v.Minor)
}

// Compare returns -1, 0, or +1 as v is less than, equal to, or greater than
// other.
func (v ClassFileVersion) Compare(other ClassFileVersion) int {
	return semver.Compare(v.semverString(), other.semverString())
}

// Before reports whether v orders strictly before other.
func (v ClassFileVersion) Before(other ClassFileVersion) bool {
	return v.Compare(other) < 0
}

// AtLeast reports whether v orders at or after other.
func (v ClassFileVersion) AtLeast(other ClassFileVersion) bool {
	return v.Compare(other) >= 0
}

// InRange reports whether v falls within [first, last]. A zero-value last
// (Major 0) means "no upper bound".
func (v ClassFileVersion) InRange(first, last ClassFileVersion) bool {
	if v.Before(first) {
		return false
	}
	if last.Major == 0 {
		return true
	}
	return v.Compare(last) <= 0
}

func (v ClassFileVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

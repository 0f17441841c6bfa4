package models

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Version is a "major.minor.patch" release version.
// Versions are totally ordered, component by component.
type Version struct {
	Major int32
	Minor int32
	Patch int32
}

// NewVersion builds a Version from its components.
func NewVersion(major, minor, patch int32) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// ParseVersion parses the "major.minor.patch" form. Each component must be
// a 32-bit integer and there must be exactly three of them.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, &ParseError{Kind: VersionParseFail, Input: s}
	}

	var ints [3]int32
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 32)
		if err != nil {
			return Version{}, &ParseError{Kind: VersionParseFail, Input: s}
		}
		ints[i] = int32(n)
	}

	return Version{Major: ints[0], Minor: ints[1], Patch: ints[2]}, nil
}

// String returns the dotted form, e.g. "1.0.9".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal to,
// or after o.
func (v Version) Compare(o Version) int {
	if c := cmp.Compare(v.Major, o.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, o.Minor); c != 0 {
		return c
	}
	return cmp.Compare(v.Patch, o.Patch)
}

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

// MarshalText encodes the version in its dotted form. JSON, YAML and TOON
// encoders all go through it, so a Version is always a string on disk.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText decodes the dotted form.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// LatestVersion returns the greatest version of the set.
// The boolean is false when versions is empty.
func LatestVersion(versions []Version) (Version, bool) {
	if len(versions) == 0 {
		return Version{}, false
	}
	latest := versions[0]
	for _, v := range versions[1:] {
		if latest.Less(v) {
			latest = v
		}
	}
	return latest, true
}

// SortVersions sorts versions in ascending order, in place.
func SortVersions(versions []Version) {
	slices.SortFunc(versions, Version.Compare)
}

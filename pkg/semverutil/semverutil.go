package semverutil

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Release types accepted by Inc. These mirror the npm semver increment
// keywords.
const (
	ReleaseMajor      = "major"
	ReleaseMinor      = "minor"
	ReleasePatch      = "patch"
	ReleasePremajor   = "premajor"
	ReleasePreminor   = "preminor"
	ReleasePrepatch   = "prepatch"
	ReleasePrerelease = "prerelease"
)

// IsReleaseType reports whether s is one of the recognized increment keywords.
func IsReleaseType(s string) bool {
	switch s {
	case ReleaseMajor, ReleaseMinor, ReleasePatch,
		ReleasePremajor, ReleasePreminor, ReleasePrepatch, ReleasePrerelease:
		return true
	}
	return false
}

// IsPrereleaseType reports whether the increment keyword produces a
// prerelease version.
func IsPrereleaseType(s string) bool {
	switch s {
	case ReleasePremajor, ReleasePreminor, ReleasePrepatch, ReleasePrerelease:
		return true
	}
	return false
}

// Parse parses a semver string, tolerating a leading "v".
func Parse(raw string) (*semver.Version, error) {
	v, err := semver.NewVersion(strings.TrimPrefix(raw, "v"))
	if err != nil {
		return nil, fmt.Errorf("parse version %q: %w", raw, err)
	}
	return v, nil
}

// PrereleaseID returns the leading prerelease identifier of v, or "" when v
// has no prerelease or the leading identifier is purely numeric.
func PrereleaseID(v *semver.Version) string {
	pre := v.Prerelease()
	if pre == "" {
		return ""
	}
	id := strings.SplitN(pre, ".", 2)[0]
	if _, err := strconv.Atoi(id); err == nil {
		return ""
	}
	return id
}

// Inc computes the next version for the given release type. For prerelease
// types, preid seeds the prerelease identifier ("alpha" produces "-alpha.0").
// A bare "prerelease" on a version that already carries a prerelease bumps
// its trailing numeric component instead of restarting at zero.
func Inc(current *semver.Version, releaseType, preid string) (*semver.Version, error) {
	switch releaseType {
	case ReleaseMajor:
		v := current.IncMajor()
		return &v, nil
	case ReleaseMinor:
		v := current.IncMinor()
		return &v, nil
	case ReleasePatch:
		v := current.IncPatch()
		return &v, nil
	case ReleasePremajor:
		v := current.IncMajor()
		return withPrerelease(v, preid+".0")
	case ReleasePreminor:
		v := current.IncMinor()
		return withPrerelease(v, preid+".0")
	case ReleasePrepatch:
		v := current.IncPatch()
		return withPrerelease(v, preid+".0")
	case ReleasePrerelease:
		if current.Prerelease() == "" {
			v := current.IncPatch()
			return withPrerelease(v, preid+".0")
		}
		return continuePrerelease(current, preid)
	default:
		return nil, fmt.Errorf("unknown release type %q", releaseType)
	}
}

func withPrerelease(v semver.Version, pre string) (*semver.Version, error) {
	out, err := v.SetPrerelease(pre)
	if err != nil {
		return nil, fmt.Errorf("set prerelease %q: %w", pre, err)
	}
	return &out, nil
}

// continuePrerelease bumps the trailing numeric identifier of an existing
// prerelease. Switching preid restarts the sequence at zero.
func continuePrerelease(current *semver.Version, preid string) (*semver.Version, error) {
	if preid != "" && PrereleaseID(current) != preid {
		base := semver.New(current.Major(), current.Minor(), current.Patch(), "", "")
		return withPrerelease(*base, preid+".0")
	}

	parts := strings.Split(current.Prerelease(), ".")
	last := parts[len(parts)-1]
	if n, err := strconv.Atoi(last); err == nil {
		parts[len(parts)-1] = strconv.Itoa(n + 1)
	} else {
		parts = append(parts, "0")
	}
	return withPrerelease(*current, strings.Join(parts, "."))
}

// IsBreaking reports whether going from old to next changes the leftmost
// nonzero version component. Under 1.0.0 a minor bump is breaking, and under
// 0.1.0 any bump is.
func IsBreaking(old, next *semver.Version) bool {
	switch {
	case next.Major() != old.Major():
		return true
	case old.Major() == 0 && next.Minor() != old.Minor():
		return true
	case old.Major() == 0 && old.Minor() == 0 && next.Patch() != old.Patch():
		return true
	}
	return false
}

// Max returns the greater of a and b.
func Max(a, b *semver.Version) *semver.Version {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.GreaterThan(a) {
		return b
	}
	return a
}

// Package semver provides the compact semantic version model used by relforge:
// numeric MAJOR.MINOR.PATCH values, component selectors, and the bit-flag
// component set that drives missing-field insertion in manifest rewrites.
package semver

import (
	"fmt"
	"strconv"
	"strings"
)

// Component selects one of the three semantic version components.
type Component int

const (
	Major Component = iota
	Minor
	Patch
)

// String returns the lowercase name of the component.
func (c Component) String() string {
	switch c {
	case Major:
		return "major"
	case Minor:
		return "minor"
	case Patch:
		return "patch"
	default:
		return "unknown"
	}
}

// ParseComponent parses a component name as accepted on the command line.
func ParseComponent(s string) (Component, error) {
	switch s {
	case "major":
		return Major, nil
	case "minor":
		return Minor, nil
	case "patch":
		return Patch, nil
	default:
		return 0, fmt.Errorf("invalid component: %s (must be major, minor, or patch)", s)
	}
}

// Components lists all components in canonical order (major, minor, patch).
func Components() []Component {
	return []Component{Major, Minor, Patch}
}

// SemVer is a compact semantic version. It is an immutable value type;
// Bump returns a fresh value and never mutates the receiver.
type SemVer struct {
	Major uint16
	Minor uint16
	Patch uint16
}

// New creates a semantic version from its three components.
func New(major, minor, patch uint16) SemVer {
	return SemVer{Major: major, Minor: minor, Patch: patch}
}

// Bump returns the next version for the given component. Bumping a component
// resets all lower-order components to zero.
func (v SemVer) Bump(c Component) SemVer {
	switch c {
	case Major:
		return New(v.Major+1, 0, 0)
	case Minor:
		return New(v.Major, v.Minor+1, 0)
	default:
		return New(v.Major, v.Minor, v.Patch+1)
	}
}

// ComponentValue returns the numeric value of the given component.
func (v SemVer) ComponentValue(c Component) uint16 {
	switch c {
	case Major:
		return v.Major
	case Minor:
		return v.Minor
	default:
		return v.Patch
	}
}

// String formats the version as "MAJOR.MINOR.PATCH".
func (v SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare orders versions lexicographically by (major, minor, patch).
// It returns -1, 0, or 1.
func (v SemVer) Compare(other SemVer) int {
	if v.Major != other.Major {
		if v.Major < other.Major {
			return -1
		}
		return 1
	}
	if v.Minor != other.Minor {
		if v.Minor < other.Minor {
			return -1
		}
		return 1
	}
	if v.Patch != other.Patch {
		if v.Patch < other.Patch {
			return -1
		}
		return 1
	}
	return 0
}

// Less reports whether v precedes other in version order.
func (v SemVer) Less(other SemVer) bool {
	return v.Compare(other) < 0
}

// ComponentCountError reports a version string that did not split into
// exactly three components.
type ComponentCountError struct {
	Count int
}

func (e *ComponentCountError) Error() string {
	return fmt.Sprintf("expected 3 version components, got %d", e.Count)
}

// ComponentValueError reports a version component that failed numeric
// conversion. It wraps the underlying strconv error.
type ComponentValueError struct {
	Part string
	Err  error
}

func (e *ComponentValueError) Error() string {
	return fmt.Sprintf("invalid version component %q: %v", e.Part, e.Err)
}

func (e *ComponentValueError) Unwrap() error {
	return e.Err
}

// Parse parses a "MAJOR.MINOR.PATCH" string. Exactly three numeric components
// are required; each must fit in 16 bits. Numeric failures are reported before
// count failures, matching the split-then-convert parse order.
func Parse(s string) (SemVer, error) {
	parts := strings.Split(s, ".")
	values := make([]uint16, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseUint(part, 10, 16)
		if err != nil {
			return SemVer{}, &ComponentValueError{Part: part, Err: err}
		}
		values = append(values, uint16(n))
	}
	if len(values) != 3 {
		return SemVer{}, &ComponentCountError{Count: len(values)}
	}
	return New(values[0], values[1], values[2]), nil
}

// Package versions parses and bumps the three-component image versions dimg
// tags builds with.
package versions

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Seed is the version given to an image the first time it is built, and the
// version a malformed stored value is reset to.
const Seed = "0.0.1"

// ErrInvalidVersion is returned for anything that is not exactly
// MAJOR.MINOR.PATCH with non-negative integer components.
var ErrInvalidVersion = errors.New("invalid version")

// Parse accepts exactly three dot-separated non-negative integers.
// Pre-release and build metadata are rejected.
func Parse(v string) (*semver.Version, error) {
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: %q has %d components, want 3", ErrInvalidVersion, v, len(parts))
	}

	nums := [3]uint64{}
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q component %d is not a number", ErrInvalidVersion, v, i+1)
		}
		nums[i] = n
	}

	return semver.New(nums[0], nums[1], nums[2], "", ""), nil
}

// NextPatch increments the patch component, leaving major and minor as they
// are. Major and minor are never bumped automatically.
func NextPatch(v string) (string, error) {
	parsed, err := Parse(v)
	if err != nil {
		return "", err
	}
	next := parsed.IncPatch()
	return next.String(), nil
}

// Less reports whether a sorts before b. Malformed versions sort first.
func Less(a, b string) bool {
	va, errA := Parse(a)
	vb, errB := Parse(b)
	switch {
	case errA != nil && errB != nil:
		return a < b
	case errA != nil:
		return true
	case errB != nil:
		return false
	}
	return va.LessThan(vb)
}

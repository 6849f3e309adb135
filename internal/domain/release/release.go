package release

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Branch identifies the release channel a firmware build targets.
type Branch string

// Release channels in decreasing order of stability.
const (
	// BranchStable marks releases built from an exact builder tag for
	// general consumption.
	BranchStable Branch = "stable"
	// BranchTesting marks release candidates. They are versioned the same
	// way as stable releases.
	BranchTesting Branch = "testing"
	// BranchExperimental marks snapshot builds whose version is
	// date-stamped instead of derived from a tag.
	BranchExperimental Branch = "experimental"
)

// ErrUnknownBranch is returned when a branch name does not match any known
// release channel.
var ErrUnknownBranch = errors.New("unknown branch")

// ParseBranch maps a command-line branch name onto a release channel.
func ParseBranch(name string) (Branch, error) {
	switch branch := Branch(name); branch {
	case BranchStable, BranchTesting, BranchExperimental:
		return branch, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBranch, name)
	}
}

// String returns the channel name as forwarded to the build tool.
func (b Branch) String() string {
	return string(b)
}

// IsExperimental reports whether the channel uses date-stamped versions.
func (b Branch) IsExperimental() bool {
	return b == BranchExperimental
}

// Identifier is the version string embedded in built firmware images and
// signed manifests, rendered as <base>+mwu<suffix>.
type Identifier struct {
	// Base is the upstream builder version the release derives from.
	Base string
	// Suffix distinguishes repeated builds of the same base version.
	Suffix string
}

// String renders the identifier in its canonical <base>+mwu<suffix> form.
func (id Identifier) String() string {
	return id.Base + "+mwu" + id.Suffix
}

// FromTag derives the identifier for a stable or testing release from the
// exact tag the builder checkout sits on. A leading "v" is stripped, so tag
// v2020.1 with counter 1 yields 2020.1+mwu1.
func FromTag(tag string, counter int) Identifier {
	return Identifier{
		Base:   strings.TrimPrefix(strings.TrimSpace(tag), "v"),
		Suffix: strconv.Itoa(counter),
	}
}

// Experimental derives the identifier for a snapshot build. The base comes
// from configuration rather than a tag, and the suffix embeds the build date
// plus a zero-padded two-digit counter, so rebuilds on the same day sort in
// upgrade order.
func Experimental(base string, day time.Time, counter int) Identifier {
	return Identifier{
		Base:   base,
		Suffix: fmt.Sprintf("~exp%s%02d", day.Format("20060102"), counter),
	}
}

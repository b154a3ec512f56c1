package names

import (
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/samber/lo"
)

// SuffixSet is an ordered list of case-insensitive ASCII suffix literals.
type SuffixSet []string

// DefaultSuffixes is the suffix set of the closed collection taxonomy.
var DefaultSuffixes = SuffixSet{"btc", "unisat", "sats", "x"}

// Normalize lowercases every suffix and drops duplicates, keeping the first occurrence.
// An empty set is returned as is; callers pick their own default.
func (s SuffixSet) Normalize() SuffixSet {
	if len(s) == 0 {
		return SuffixSet{}
	}
	return lo.Uniq(lo.Map(s, func(suffix string, _ int) string {
		return strings.ToLower(suffix)
	}))
}

// Validate checks that every suffix is a non-empty printable ASCII literal without spaces.
// Underscores are rejected as they separate the parts of a collection key.
func (s SuffixSet) Validate() error {
	for i, suffix := range s {
		if suffix == "" {
			return errors.Wrapf(errs.InvalidArgument, "suffix #%d is empty", i)
		}
		for _, r := range suffix {
			if r > unicode.MaxASCII || !unicode.IsPrint(r) || r == ' ' {
				return errors.Wrapf(errs.InvalidArgument, "suffix %q must be printable ascii without spaces", suffix)
			}
			if r == '_' {
				return errors.Wrapf(errs.InvalidArgument, "suffix %q must not contain underscores", suffix)
			}
		}
	}
	return nil
}

// Contains reports whether the normalized set contains the suffix.
func (s SuffixSet) Contains(suffix string) bool {
	return lo.Contains(s.Normalize(), strings.ToLower(suffix))
}

// String returns the space separated suffixes. It is stable for a normalized set
// and is used as the cache key and persisted fingerprint of a suffix configuration.
func (s SuffixSet) String() string {
	return strings.Join(s, " ")
}

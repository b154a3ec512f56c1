package btcname

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/names"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/registrar"
	"github.com/samber/lo"
)

var defaultModes = []string{registrar.ModeBTCDomain}

// NewModes builds the registration modes enabled by configuration.
func NewModes(modeNames []string, suffixes []string) ([]registrar.Mode, error) {
	modeNames = lo.Map(modeNames, func(item string, _ int) string { return strings.ToLower(strings.TrimSpace(item)) })
	modeNames = lo.Filter(modeNames, func(item string, _ int) bool { return item != "" })
	modeNames = lo.Uniq(modeNames)
	if len(modeNames) == 0 {
		modeNames = defaultModes
	}

	modes := make([]registrar.Mode, 0, len(modeNames))
	for _, name := range modeNames {
		switch name {
		case registrar.ModeBTCDomain:
			modes = append(modes, registrar.ClosedTaxonomyMode())
		case registrar.ModeBTCName:
			mode, err := registrar.ConfigurableMode(names.SuffixSet(suffixes))
			if err != nil {
				return nil, errors.WithStack(err)
			}
			modes = append(modes, mode)
		default:
			return nil, errors.Wrapf(errs.Unsupported, "%q registration mode is not supported", name)
		}
	}
	return modes, nil
}

// modesFingerprint identifies a set of modes regardless of their configured order.
func modesFingerprint(modes []registrar.Mode) string {
	fingerprints := lo.Map(modes, func(mode registrar.Mode, _ int) string { return mode.Fingerprint() })
	slices.Sort(fingerprints)
	return strings.Join(fingerprints, ";")
}

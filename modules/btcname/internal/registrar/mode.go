package registrar

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/collections"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/names"
)

// Key namespaces. Keys are persisted, both layouts are permanent.
const (
	// ClosedTaxonomyNamespace keys are "BTC_DOMAIN_<suffix>_<localpart>".
	ClosedTaxonomyNamespace = "BTC_DOMAIN"
	// ConfigurableNamespace keys are "BTC_NAME_<localpart>_<suffix>".
	ConfigurableNamespace = "BTC_NAME"
)

const (
	ModeBTCDomain = "btc_domain"
	ModeBTCName   = "btc_name"
)

// Mode parameterizes the registration pipeline.
type Mode struct {
	Name    string
	Grammar *names.Grammar
	Key     func(name names.Name) string
}

// ClosedTaxonomyMode registers the default suffixes with one collection kind per suffix.
func ClosedTaxonomyMode() Mode {
	return Mode{
		Name:    ModeBTCDomain,
		Grammar: names.MustGrammar(names.DefaultSuffixes, names.ResolveBySuffix),
		Key: func(name names.Name) string {
			return ClosedTaxonomyNamespace + "_" + name.Suffix + "_" + name.Localpart
		},
	}
}

// ConfigurableMode registers the given suffixes as collections.BtcName. An empty set selects "btc".
func ConfigurableMode(suffixes names.SuffixSet) (Mode, error) {
	if len(suffixes) == 0 {
		suffixes = names.SuffixSet{"btc"}
	}
	grammar, err := names.NewGrammar(suffixes, names.ResolveFixed(collections.BtcName))
	if err != nil {
		return Mode{}, errors.Wrap(err, "invalid suffixes")
	}
	return Mode{
		Name:    ModeBTCName,
		Grammar: grammar,
		Key: func(name names.Name) string {
			return ConfigurableNamespace + "_" + name.Localpart + "_" + name.Suffix
		},
	}, nil
}

// Fingerprint identifies the mode and its suffix set.
func (m Mode) Fingerprint() string {
	return m.Name + "=" + m.Grammar.Suffixes().String()
}

// Package names implements the grammar of dot-suffixed name claims, such as "jack.btc".
package names

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/collections"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrNotText           = errors.Wrap(errs.InvalidArgument, "content is not valid utf-8")
	ErrNoMatch           = errors.Wrap(errs.InvalidArgument, "content does not end with a configured suffix")
	ErrInvalidLocalpart  = errors.Wrap(errs.InvalidArgument, "localpart contains a dot, space or newline")
	ErrStructuredPayload = errors.Wrap(errs.InvalidArgument, "localpart is a json payload")
	ErrUnresolvedKind    = errors.Wrap(errs.InvalidArgument, "no collection kind for suffix")
)

const forbiddenInLocalparts = ". \n"

// Nesting limit of structured payloads. A document reaching it is not a payload.
const maxPayloadDepth = 128

// Name is a parsed and normalized name claim.
type Name struct {
	Localpart string
	Suffix    string
	Kind      collections.Kind
}

func (n Name) String() string {
	return n.Localpart + "." + n.Suffix
}

// KindResolver maps a matched suffix to the collection kind of the name.
type KindResolver func(suffix string) (collections.Kind, error)

// ResolveBySuffix resolves one kind per suffix of the closed taxonomy.
func ResolveBySuffix(suffix string) (collections.Kind, error) {
	kind, err := collections.KindFromSuffix(suffix)
	return kind, errors.WithStack(err)
}

// ResolveFixed resolves every suffix to the same kind.
func ResolveFixed(kind collections.Kind) KindResolver {
	return func(string) (collections.Kind, error) {
		return kind, nil
	}
}

// Grammar parses name claims for one suffix set.
// It is safe for concurrent use.
type Grammar struct {
	suffixes SuffixSet
	matcher  *regexp.Regexp
	resolve  KindResolver
}

// compiled matchers keyed by normalized suffix set
var matchers sync.Map

// NewGrammar returns a grammar matching the given suffixes. An empty set selects DefaultSuffixes.
func NewGrammar(suffixes SuffixSet, resolve KindResolver) (*Grammar, error) {
	if resolve == nil {
		return nil, errors.Wrap(errs.InvalidArgument, "kind resolver is required")
	}
	if len(suffixes) == 0 {
		suffixes = DefaultSuffixes
	}
	suffixes = suffixes.Normalize()
	if err := suffixes.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}
	return &Grammar{
		suffixes: suffixes,
		matcher:  matcherOf(suffixes),
		resolve:  resolve,
	}, nil
}

// MustGrammar is like NewGrammar but panics on error.
func MustGrammar(suffixes SuffixSet, resolve KindResolver) *Grammar {
	g, err := NewGrammar(suffixes, resolve)
	if err != nil {
		panic(err)
	}
	return g
}

func matcherOf(suffixes SuffixSet) *regexp.Regexp {
	key := suffixes.String()
	if m, ok := matchers.Load(key); ok {
		return m.(*regexp.Regexp)
	}
	quoted := make([]string, 0, len(suffixes))
	for _, suffix := range suffixes {
		quoted = append(quoted, regexp.QuoteMeta(suffix))
	}
	// greedy prefix, the match binds to the last ".suffix"
	m := regexp.MustCompile(`(?s)^(.+)\.(` + strings.Join(quoted, "|") + `)$`)
	actual, _ := matchers.LoadOrStore(key, m)
	return actual.(*regexp.Regexp)
}

// Suffixes returns the normalized suffix set of the grammar.
func (g *Grammar) Suffixes() SuffixSet {
	return append(SuffixSet(nil), g.suffixes...)
}

// Parse parses raw inscription content into a normalized name.
func (g *Grammar) Parse(content []byte) (Name, error) {
	if !utf8.Valid(content) {
		return Name{}, errors.WithStack(ErrNotText)
	}
	// Caser is stateful, one per call.
	lowered := cases.Lower(language.Und).String(string(content))

	match := g.matcher.FindStringSubmatch(lowered)
	if match == nil {
		return Name{}, errors.WithStack(ErrNoMatch)
	}
	localpart, suffix := match[1], match[2]

	if strings.ContainsAny(localpart, forbiddenInLocalparts) {
		return Name{}, errors.Wrapf(ErrInvalidLocalpart, "localpart %q", localpart)
	}
	if isStructuredPayload(localpart) {
		return Name{}, errors.WithStack(ErrStructuredPayload)
	}

	kind, err := g.resolve(suffix)
	if err != nil {
		return Name{}, errors.Wrap(errors.Mark(err, ErrUnresolvedKind), "can't resolve collection kind")
	}
	return Name{
		Localpart: localpart,
		Suffix:    suffix,
		Kind:      kind,
	}, nil
}

// Parse parses content against the closed taxonomy with the given suffixes.
func Parse(content []byte, suffixes SuffixSet) (Name, error) {
	g, err := NewGrammar(suffixes, ResolveBySuffix)
	if err != nil {
		return Name{}, errors.WithStack(err)
	}
	return g.Parse(content)
}

// isStructuredPayload reports whether a localpart containing "{" decodes as a JSON document.
// encoding/json alone is more lenient than the payload decoders in use on chain: it replaces
// unpaired surrogate escapes and allows deeper nesting, so both are checked on top of decoding.
func isStructuredPayload(localpart string) bool {
	if !strings.Contains(localpart, "{") {
		return false
	}
	var v any
	if err := json.Unmarshal([]byte(localpart), &v); err != nil {
		return false
	}
	return isStrictJSON(localpart)
}

// isStrictJSON scans a valid JSON text for nesting at or beyond maxPayloadDepth
// and for \u escapes that are not paired surrogates.
func isStrictJSON(s string) bool {
	var (
		depth    int
		inString bool
		// previous escape in the string was a high surrogate
		highSurrogate bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inString {
			switch c {
			case '{', '[':
				depth++
				if depth >= maxPayloadDepth {
					return false
				}
			case '}', ']':
				depth--
			case '"':
				inString = true
			}
			continue
		}

		if c != '\\' {
			if highSurrogate {
				return false
			}
			if c == '"' {
				inString = false
			}
			continue
		}
		i++
		if s[i] != 'u' {
			if highSurrogate {
				return false
			}
			continue
		}
		r, err := strconv.ParseUint(s[i+1:i+5], 16, 16)
		if err != nil {
			return false
		}
		i += 4
		switch {
		case r >= 0xd800 && r < 0xdc00:
			if highSurrogate {
				return false
			}
			highSurrogate = true
		case r >= 0xdc00 && r < 0xe000:
			if !highSurrogate {
				return false
			}
			highSurrogate = false
		default:
			if highSurrogate {
				return false
			}
		}
	}
	return true
}

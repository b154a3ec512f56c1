package btcname

import (
	"github.com/cockroachdb/errors"
)

// ParseResult is the claim a content makes in one registration mode.
type ParseResult struct {
	Mode string
	Name string
	Kind string
	Key  string
	Err  error // nil if the content is a valid name in this mode
}

// ParseContent parses the content with the grammars of the given modes without touching storage.
func ParseContent(modeNames []string, suffixes []string, content []byte) ([]ParseResult, error) {
	modes, err := NewModes(modeNames, suffixes)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	results := make([]ParseResult, 0, len(modes))
	for _, mode := range modes {
		name, err := mode.Grammar.Parse(content)
		if err != nil {
			results = append(results, ParseResult{Mode: mode.Name, Err: err})
			continue
		}
		results = append(results, ParseResult{
			Mode: mode.Name,
			Name: name.String(),
			Kind: name.Kind.String(),
			Key:  mode.Key(name),
		})
	}
	return results, nil
}

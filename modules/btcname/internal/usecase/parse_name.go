package usecase

import (
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/names"
)

// ParsedName is the result of parsing a content with the grammar of one mode.
type ParsedName struct {
	Mode string
	Name names.Name
	Key  string
	Err  error // nil if the content is a valid name in this mode
}

// ParseName parses the content with the grammar of every enabled mode.
func (u *Usecase) ParseName(content []byte) []ParsedName {
	results := make([]ParsedName, 0, len(u.modes))
	for _, mode := range u.modes {
		name, err := mode.Grammar.Parse(content)
		if err != nil {
			results = append(results, ParsedName{Mode: mode.Name, Err: err})
			continue
		}
		results = append(results, ParsedName{
			Mode: mode.Name,
			Name: name,
			Key:  mode.Key(name),
		})
	}
	return results
}

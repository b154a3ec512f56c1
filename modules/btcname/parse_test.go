package btcname

import (
	"testing"

	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/registrar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContent(t *testing.T) {
	results, err := ParseContent([]string{"btc_domain", "btc_name"}, []string{"ord"}, []byte("Jack.ORD"))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, registrar.ModeBTCDomain, results[0].Mode)
	assert.ErrorIs(t, results[0].Err, errs.InvalidArgument)

	assert.Equal(t, ParseResult{
		Mode: registrar.ModeBTCName,
		Name: "jack.ord",
		Kind: "btc_name",
		Key:  "BTC_NAME_jack_ord",
	}, results[1])

	_, err = ParseContent([]string{"unknown"}, nil, []byte("jack.btc"))
	assert.ErrorIs(t, err, errs.Unsupported)
}

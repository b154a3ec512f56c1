package collections

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindEncoding(t *testing.T) {
	// persisted values, never change these
	expected := map[Kind]string{
		BitMap:     "bitmap",
		BRC20:      "brc20",
		BtcName:    "btc_name",
		UnisatName: "unisat_name",
		SatsName:   "sats_name",
		XName:      "x_name",
	}
	for kind, encoding := range expected {
		t.Run(encoding, func(t *testing.T) {
			assert.Equal(t, encoding, kind.String())

			parsed, err := ParseKind(encoding)
			require.NoError(t, err)
			assert.Equal(t, kind, parsed)
		})
	}
	assert.Len(t, All(), len(expected))
}

func TestKindEncodingsAreUnique(t *testing.T) {
	seen := make(map[string]Kind)
	for _, kind := range All() {
		prev, ok := seen[kind.String()]
		assert.Falsef(t, ok, "%v and %v share encoding %q", prev, kind, kind.String())
		seen[kind.String()] = kind
	}
}

func TestParseKindUnknown(t *testing.T) {
	for _, s := range []string{"", "BTC_NAME", "btcname", "ens_name"} {
		_, err := ParseKind(s)
		assert.ErrorIs(t, err, ErrUnknownKind)
		assert.True(t, errors.Is(err, errs.InvalidArgument))
	}
}

func TestKindFromSuffix(t *testing.T) {
	tests := []struct {
		suffix   string
		expected Kind
		err      bool
	}{
		{suffix: "btc", expected: BtcName},
		{suffix: "unisat", expected: UnisatName},
		{suffix: "sats", expected: SatsName},
		{suffix: "x", expected: XName},
		{suffix: "BTC", err: true},
		{suffix: "bitmap", err: true},
		{suffix: "", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.suffix, func(t *testing.T) {
			kind, err := KindFromSuffix(tt.suffix)
			if tt.err {
				assert.ErrorIs(t, err, ErrUnknownKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, kind)
		})
	}
}

func TestKindText(t *testing.T) {
	data, err := json.Marshal(map[string]Kind{"kind": SatsName})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"sats_name"}`, string(data))

	var decoded map[string]Kind
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, SatsName, decoded["kind"])

	_, err = json.Marshal(KindUnknown)
	assert.Error(t, err)
	assert.Error(t, json.Unmarshal([]byte(`"nope"`), new(Kind)))
}

package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gaze-network/btcname-indexer/common"
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/collections"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/entity"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/repository/postgres/gen"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexedBlockMapping(t *testing.T) {
	block := &entity.IndexedBlock{
		Height:              840000,
		Hash:                chainhash.Hash{1, 2, 3},
		PrevHash:            chainhash.Hash{4, 5, 6},
		EventHash:           []byte{0xde, 0xad},
		CumulativeEventHash: []byte{0xbe, 0xef},
		Registrations:       3,
	}

	params := mapIndexedBlockTypeToParams(block)
	assert.Equal(t, int32(840000), params.Height)
	assert.Equal(t, "dead", params.EventHash)
	assert.Equal(t, "beef", params.CumulativeEventHash)

	result, err := mapIndexedBlockModelToType(gen.BtcnameIndexedBlock(params))
	require.NoError(t, err)
	assert.Equal(t, *block, result)

	t.Run("invalid hash", func(t *testing.T) {
		model := gen.BtcnameIndexedBlock(params)
		model.Hash = strings.Repeat("z", 64)
		_, err := mapIndexedBlockModelToType(model)
		assert.Error(t, err)
	})
	t.Run("invalid event hash", func(t *testing.T) {
		model := gen.BtcnameIndexedBlock(params)
		model.EventHash = "xyz"
		_, err := mapIndexedBlockModelToType(model)
		assert.Error(t, err)
	})
}

func TestCollectionModelToType(t *testing.T) {
	id := types.NewInscriptionId(chainhash.Hash{9}, 2)

	result, err := mapCollectionModelToType(gen.BtcnameCollection{
		Key:           "BTC_DOMAIN_btc_alice",
		InscriptionID: id.String(),
		BlockHeight:   100,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.Collection{Key: "BTC_DOMAIN_btc_alice", InscriptionId: id, BlockHeight: 100}, result)

	_, err = mapCollectionModelToType(gen.BtcnameCollection{InscriptionID: "not-an-id"})
	assert.Error(t, err)
}

func TestInscriptionAttributeModelToType(t *testing.T) {
	id := types.NewInscriptionId(chainhash.Hash{7}, 0)

	result, err := mapInscriptionAttributeModelToType(gen.BtcnameInscriptionAttribute{
		InscriptionID: id.String(),
		Kind:          collections.SatsName.String(),
		BlockHeight:   5,
	})
	require.NoError(t, err)
	assert.Equal(t, collections.SatsName, result.Kind)
	assert.Equal(t, id, result.InscriptionId)
	assert.Equal(t, int64(5), result.BlockHeight)

	_, err = mapInscriptionAttributeModelToType(gen.BtcnameInscriptionAttribute{
		InscriptionID: id.String(),
		Kind:          "ens_name",
	})
	assert.Error(t, err)
}

func TestIndexerStateMapping(t *testing.T) {
	createdAt := time.Date(2024, 4, 20, 0, 9, 27, 0, time.UTC)
	state := mapIndexerStateModelToType(gen.BtcnameIndexerState{
		ID:               1,
		ClientVersion:    "v0.1.0",
		DbVersion:        1,
		EventHashVersion: 1,
		Network:          "mainnet",
		Modes:            "btc_domain=btc unisat sats x",
		CreatedAt:        pgtype.Timestamp{Time: createdAt, Valid: true},
	})
	assert.Equal(t, entity.IndexerState{
		CreatedAt:        createdAt,
		ClientVersion:    "v0.1.0",
		DBVersion:        1,
		EventHashVersion: 1,
		Network:          common.NetworkMainnet,
		Modes:            "btc_domain=btc unisat sats x",
	}, state)

	params := mapIndexerStateTypeToParams(state)
	assert.Equal(t, "mainnet", params.Network)
	assert.Equal(t, state.Modes, params.Modes)
}

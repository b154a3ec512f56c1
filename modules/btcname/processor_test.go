package btcname

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gaze-network/btcname-indexer/common"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/collections"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/registrar"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = startingBlockHeader[common.NetworkMainnet]

func newTestProcessor(t *testing.T, repo *memory.Repository, modeNames []string, suffixes []string) *Processor {
	t.Helper()
	modes, err := NewModes(modeNames, suffixes)
	require.NoError(t, err)
	return NewProcessor(repo, repo, common.NetworkMainnet, modes, nil)
}

// newTestBlock builds the block at start+offset whose events carry the given contents.
// Inscription numbers follow the order of the contents.
func newTestBlock(offset int64, firstNumber int64, contents ...string) *types.InscriptionBlock {
	height := testStart.Height + offset
	prev := testStart.Hash
	if offset > 1 {
		prev = chainhash.Hash{byte(offset - 1), 0xbb}
	}
	block := &types.InscriptionBlock{
		Header: types.BlockHeader{
			Hash:      chainhash.Hash{byte(offset), 0xbb},
			Height:    height,
			PrevBlock: prev,
		},
		Operations: make(map[chainhash.Hash][]*types.InscriptionOp),
	}
	for i, content := range contents {
		tx := chainhash.Hash{byte(offset), byte(i), 0xcc}
		block.Operations[tx] = append(block.Operations[tx], &types.InscriptionOp{
			TxHash:            tx,
			InscriptionId:     types.NewInscriptionId(tx, 0),
			InscriptionNumber: firstNumber + int64(i),
			Action:            types.ActionNew,
			Inscription:       &types.Inscription{Content: []byte(content)},
		})
	}
	return block
}

func TestVerifyStates(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()

	p := newTestProcessor(t, repo, []string{"btc_domain", "btc_name"}, []string{"btc", "ord"})
	require.NoError(t, p.VerifyStates(ctx))

	state, err := repo.GetLatestIndexerState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "btc_domain=btc unisat sats x;btc_name=btc ord", state.Modes)
	assert.Equal(t, common.NetworkMainnet, state.Network)

	t.Run("same configuration in another order", func(t *testing.T) {
		p := newTestProcessor(t, repo, []string{"btc_name", "btc_domain"}, []string{"BTC", "ord"})
		assert.NoError(t, p.VerifyStates(ctx))
	})
	t.Run("changed suffixes", func(t *testing.T) {
		p := newTestProcessor(t, repo, []string{"btc_domain", "btc_name"}, []string{"btc"})
		assert.ErrorIs(t, p.VerifyStates(ctx), errs.ConflictSetting)
	})
	t.Run("changed modes", func(t *testing.T) {
		p := newTestProcessor(t, repo, []string{"btc_domain"}, nil)
		assert.ErrorIs(t, p.VerifyStates(ctx), errs.ConflictSetting)
	})
	t.Run("changed network", func(t *testing.T) {
		modes, err := NewModes([]string{"btc_domain", "btc_name"}, []string{"btc", "ord"})
		require.NoError(t, err)
		p := NewProcessor(repo, repo, common.NetworkTestnet, modes, nil)
		assert.ErrorIs(t, p.VerifyStates(ctx), errs.ConflictSetting)
	})
}

func TestNewModes(t *testing.T) {
	modes, err := NewModes(nil, nil)
	require.NoError(t, err)
	require.Len(t, modes, 1)
	assert.Equal(t, registrar.ModeBTCDomain, modes[0].Name)

	modes, err = NewModes([]string{" BTC_NAME ", "btc_name", ""}, nil)
	require.NoError(t, err)
	require.Len(t, modes, 1)
	assert.Equal(t, "btc_name=btc", modes[0].Fingerprint())

	_, err = NewModes([]string{"ens"}, nil)
	assert.ErrorIs(t, err, errs.Unsupported)

	_, err = NewModes([]string{"btc_name"}, []string{"has space"})
	assert.ErrorIs(t, err, errs.InvalidArgument)
}

func TestProcess(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	p := newTestProcessor(t, repo, nil, nil)
	require.NoError(t, p.VerifyStates(ctx))

	current, err := p.CurrentBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, testStart, current)

	blocks := []*types.InscriptionBlock{
		newTestBlock(1, 100, "alice.btc", "not a name", "bob.sats"),
		newTestBlock(2, 200),
		newTestBlock(3, 300, "ALICE.btc", "carol.x"),
	}
	require.NoError(t, p.Process(ctx, blocks))

	current, err = p.CurrentBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, blocks[2].Header, current)

	first, err := repo.GetIndexedBlockByHeight(ctx, testStart.Height+1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.Registrations)
	assert.Equal(t, first.EventHash, first.CumulativeEventHash)

	empty, err := repo.GetIndexedBlockByHeight(ctx, testStart.Height+2)
	require.NoError(t, err)
	assert.Zero(t, empty.Registrations)
	emptyHash := sha256.Sum256([]byte{})
	assert.Equal(t, emptyHash[:], empty.EventHash)
	chained := sha256.Sum256([]byte(hex.EncodeToString(first.CumulativeEventHash) + hex.EncodeToString(emptyHash[:])))
	assert.Equal(t, chained[:], empty.CumulativeEventHash)

	third, err := repo.GetIndexedBlockByHeight(ctx, testStart.Height+3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), third.Registrations, "alice.btc is already claimed")

	alice := blocks[0].Operations[chainhash.Hash{1, 0, 0xcc}][0]
	id, err := repo.GetCollectionInscriptionId(ctx, "BTC_DOMAIN_btc_alice")
	require.NoError(t, err)
	assert.Equal(t, alice.InscriptionId, id)

	header, err := p.GetIndexedBlock(ctx, testStart.Height+2)
	require.NoError(t, err)
	assert.Equal(t, blocks[1].Header.Hash, header.Hash)

	header, err = p.GetIndexedBlock(ctx, testStart.Height)
	require.NoError(t, err)
	assert.Equal(t, testStart, header)
}

func TestProcessEventHashDeterministic(t *testing.T) {
	ctx := context.Background()

	hashes := make([][]byte, 0, 2)
	for i := 0; i < 2; i++ {
		repo := memory.NewRepository()
		p := newTestProcessor(t, repo, []string{"btc_domain", "btc_name"}, nil)
		require.NoError(t, p.Process(ctx, []*types.InscriptionBlock{
			newTestBlock(1, 1, "a.btc", "b.btc", "c.unisat", "d.btc", "e.x"),
		}))
		block, err := repo.GetIndexedBlockByHeight(ctx, testStart.Height+1)
		require.NoError(t, err)
		assert.Equal(t, int64(8), block.Registrations)
		hashes = append(hashes, block.EventHash)
	}
	assert.Equal(t, hashes[0], hashes[1])
}

func TestProcessBothModes(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	p := newTestProcessor(t, repo, []string{"btc_domain", "btc_name"}, []string{"btc", "ord"})

	require.NoError(t, p.Process(ctx, []*types.InscriptionBlock{
		newTestBlock(1, 1, "alice.btc", "bob.ord"),
	}))

	keys := []string{"BTC_DOMAIN_btc_alice", "BTC_NAME_alice_btc", "BTC_NAME_bob_ord"}
	found, err := repo.GetCollectionsByKeys(ctx, keys)
	require.NoError(t, err)
	assert.Len(t, found, 3)

	bob := newTestBlock(1, 1, "alice.btc", "bob.ord").Operations[chainhash.Hash{1, 1, 0xcc}][0]
	attrs, err := repo.GetInscriptionAttributes(ctx, bob.InscriptionId)
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, collections.BtcName, attrs[0].Kind)
}

func TestProcessMissingPreviousBlock(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	p := newTestProcessor(t, repo, nil, nil)

	err := p.Process(ctx, []*types.InscriptionBlock{newTestBlock(5, 1, "alice.btc")})
	assert.ErrorIs(t, err, errs.NotFound)

	// the failed block is rolled back
	_, err = repo.GetCollectionInscriptionId(ctx, "BTC_DOMAIN_btc_alice")
	assert.ErrorIs(t, err, errs.NotFound)
	_, err = p.btcnameDg.GetLatestBlock(ctx)
	assert.ErrorIs(t, err, errs.NotFound)
}

func TestRevertData(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	p := newTestProcessor(t, repo, nil, nil)

	require.NoError(t, p.Process(ctx, []*types.InscriptionBlock{
		newTestBlock(1, 1, "alice.btc"),
		newTestBlock(2, 2, "bob.btc"),
	}))

	var reverted []int64
	p.OnRevert(func(_ context.Context, from int64) { reverted = append(reverted, from) })
	require.NoError(t, p.RevertData(ctx, testStart.Height+2))
	assert.Equal(t, []int64{testStart.Height + 2}, reverted)

	current, err := p.CurrentBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, testStart.Height+1, current.Height)

	_, err = repo.GetCollectionInscriptionId(ctx, "BTC_DOMAIN_btc_alice")
	assert.NoError(t, err)
	_, err = repo.GetCollectionInscriptionId(ctx, "BTC_DOMAIN_btc_bob")
	assert.ErrorIs(t, err, errs.NotFound)

	// the reverted name is claimable again on the new branch
	replacement := newTestBlock(2, 3, "bob.btc")
	replacement.Header.Hash = chainhash.Hash{2, 0xdd}
	require.NoError(t, p.Process(ctx, []*types.InscriptionBlock{replacement}))

	id, err := repo.GetCollectionInscriptionId(ctx, "BTC_DOMAIN_btc_bob")
	require.NoError(t, err)
	assert.Equal(t, replacement.Operations[chainhash.Hash{2, 0, 0xcc}][0].InscriptionId, id)
}

func TestShutdown(t *testing.T) {
	called := 0
	p := NewProcessor(nil, nil, common.NetworkMainnet, nil, []func(context.Context) error{
		func(context.Context) error { called++; return nil },
		func(context.Context) error { called++; return errs.Closed },
	})
	err := p.Shutdown(context.Background())
	assert.ErrorIs(t, err, errs.Closed)
	assert.Equal(t, 2, called)
}

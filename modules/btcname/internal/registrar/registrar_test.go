package registrar

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/collections"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/names"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txHash(b byte) chainhash.Hash {
	return chainhash.Hash{b}
}

func newOp(tx byte, index uint32, number int64, content string) *types.InscriptionOp {
	return &types.InscriptionOp{
		TxHash:            txHash(tx),
		InscriptionId:     types.NewInscriptionId(txHash(tx), index),
		InscriptionNumber: number,
		Action:            types.ActionNew,
		Inscription:       &types.Inscription{Content: []byte(content), ContentType: "text/plain;charset=utf-8"},
	}
}

func groupByTx(ops ...*types.InscriptionOp) map[chainhash.Hash][]*types.InscriptionOp {
	result := make(map[chainhash.Hash][]*types.InscriptionOp)
	for _, op := range ops {
		result[op.TxHash] = append(result[op.TxHash], op)
	}
	return result
}

func TestIndexSingleClaim(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	r := New(ClosedTaxonomyMode(), repo)

	op := newOp(1, 0, 10, "jack.btc")
	count, err := r.Index(ctx, 800000, groupByTx(op))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	id, err := repo.GetCollectionInscriptionId(ctx, "BTC_DOMAIN_btc_jack")
	require.NoError(t, err)
	assert.Equal(t, op.InscriptionId, id)

	attrs, err := repo.GetInscriptionAttributes(ctx, op.InscriptionId)
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, collections.BtcName, attrs[0].Kind)
	assert.Equal(t, int64(800000), attrs[0].BlockHeight)
}

func TestIndexLowestNumberWins(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	r := New(ClosedTaxonomyMode(), repo)

	// listed in the opposite order of their numbers and in separate transactions
	later := newOp(1, 0, 11, "JACK.BTC")
	earlier := newOp(2, 0, 10, "jack.btc")
	count, err := r.Index(ctx, 800000, groupByTx(later, earlier))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	id, err := repo.GetCollectionInscriptionId(ctx, "BTC_DOMAIN_btc_jack")
	require.NoError(t, err)
	assert.Equal(t, earlier.InscriptionId, id)

	attrs, err := repo.GetInscriptionAttributes(ctx, later.InscriptionId)
	require.NoError(t, err)
	assert.Empty(t, attrs)
}

func TestIndexSkipsIneligible(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	r := New(ClosedTaxonomyMode(), repo)

	cursed := newOp(1, 0, -1, "jack.btc")
	transfer := newOp(2, 0, 5, "alice.btc")
	transfer.Action = types.ActionTransfer
	invalid := newOp(3, 0, 6, "hi.jack.btc")
	empty := newOp(4, 0, 7, "")
	empty.Inscription = nil

	count, err := r.Index(ctx, 800000, groupByTx(cursed, transfer, invalid, empty))
	require.NoError(t, err)
	assert.Zero(t, count)

	for _, key := range []string{"BTC_DOMAIN_btc_jack", "BTC_DOMAIN_btc_alice", "BTC_DOMAIN_btc_hi.jack"} {
		_, err := repo.GetCollectionInscriptionId(ctx, key)
		assert.ErrorIs(t, err, errs.NotFound, key)
	}
}

func TestIndexCursedDoesNotBlockBlessed(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	r := New(ClosedTaxonomyMode(), repo)

	cursed := newOp(1, 0, -5, "jack.btc")
	blessed := newOp(2, 0, 1000, "jack.btc")
	count, err := r.Index(ctx, 800000, groupByTx(cursed, blessed))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	id, err := repo.GetCollectionInscriptionId(ctx, "BTC_DOMAIN_btc_jack")
	require.NoError(t, err)
	assert.Equal(t, blessed.InscriptionId, id)
}

func TestIndexAlreadyBoundAcrossBatches(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	r := New(ClosedTaxonomyMode(), repo)

	first := newOp(1, 0, 10, "jack.btc")
	count, err := r.Index(ctx, 800000, groupByTx(first))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	// replaying the batch or a lower number in a later block does not rebind
	second := newOp(2, 0, 3, "jack.btc")
	count, err = r.Index(ctx, 800001, groupByTx(first, second))
	require.NoError(t, err)
	assert.Zero(t, count)

	id, err := repo.GetCollectionInscriptionId(ctx, "BTC_DOMAIN_btc_jack")
	require.NoError(t, err)
	assert.Equal(t, first.InscriptionId, id)
}

func TestIndexPerSuffixKinds(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	r := New(ClosedTaxonomyMode(), repo)

	ops := []*types.InscriptionOp{
		newOp(1, 0, 1, "abcdef.btc"),
		newOp(1, 1, 2, "abcdef.unisat"),
		newOp(1, 2, 3, "abcdef.sats"),
		newOp(1, 3, 4, "abcdef.x"),
	}
	registrations, err := r.Register(ctx, 800000, groupByTx(ops...))
	require.NoError(t, err)
	assert.Equal(t, []Registration{
		{Key: "BTC_DOMAIN_btc_abcdef", Name: "abcdef.btc", Kind: collections.BtcName, InscriptionId: ops[0].InscriptionId, Number: 1},
		{Key: "BTC_DOMAIN_unisat_abcdef", Name: "abcdef.unisat", Kind: collections.UnisatName, InscriptionId: ops[1].InscriptionId, Number: 2},
		{Key: "BTC_DOMAIN_sats_abcdef", Name: "abcdef.sats", Kind: collections.SatsName, InscriptionId: ops[2].InscriptionId, Number: 3},
		{Key: "BTC_DOMAIN_x_abcdef", Name: "abcdef.x", Kind: collections.XName, InscriptionId: ops[3].InscriptionId, Number: 4},
	}, registrations)
}

func TestIndexConfigurableMode(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	mode, err := ConfigurableMode(names.SuffixSet{"BTC", "ord"})
	require.NoError(t, err)
	r := New(mode, repo)

	ops := []*types.InscriptionOp{
		newOp(1, 0, 1, "jack.btc"),
		newOp(1, 1, 2, "jack.ORD"),
		newOp(1, 2, 3, "jack.sats"),
	}
	registrations, err := r.Register(ctx, 800000, groupByTx(ops...))
	require.NoError(t, err)
	assert.Equal(t, []Registration{
		{Key: "BTC_NAME_jack_btc", Name: "jack.btc", Kind: collections.BtcName, InscriptionId: ops[0].InscriptionId, Number: 1},
		{Key: "BTC_NAME_jack_ord", Name: "jack.ord", Kind: collections.BtcName, InscriptionId: ops[1].InscriptionId, Number: 2},
	}, registrations)
}

func TestModesDoNotCollide(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	configurable, err := ConfigurableMode(nil)
	require.NoError(t, err)

	op := newOp(1, 0, 1, "jack.btc")
	for _, mode := range []Mode{ClosedTaxonomyMode(), configurable} {
		count, err := New(mode, repo).Index(ctx, 800000, groupByTx(op))
		require.NoError(t, err)
		assert.Equal(t, uint64(1), count, mode.Name)
	}

	found, err := repo.GetCollectionsByKeys(ctx, []string{"BTC_DOMAIN_btc_jack", "BTC_NAME_jack_btc"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestConfigurableModeDefaults(t *testing.T) {
	mode, err := ConfigurableMode(nil)
	require.NoError(t, err)
	assert.Equal(t, names.SuffixSet{"btc"}, mode.Grammar.Suffixes())
	assert.Equal(t, "btc_name=btc", mode.Fingerprint())
	assert.Equal(t, "btc_domain=btc unisat sats x", ClosedTaxonomyMode().Fingerprint())

	_, err = ConfigurableMode(names.SuffixSet{"b tc"})
	assert.ErrorIs(t, err, errs.InvalidArgument)

	// "a_b.c" and "a.b_c" would share a key
	_, err = ConfigurableMode(names.SuffixSet{"c", "b_c"})
	assert.ErrorIs(t, err, errs.InvalidArgument)
}

func TestIndexEmptyBatch(t *testing.T) {
	r := New(ClosedTaxonomyMode(), memory.NewRepository())
	count, err := r.Index(context.Background(), 800000, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
}

package indexer

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/internal/subscription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testInput struct {
	header types.BlockHeader
}

func (t testInput) BlockHeader() types.BlockHeader { return t.header }

// testChain builds headers [0, n) on the given branch. Branches share the headers below forkAt.
func testChain(n int64, branch byte, forkAt int64) []types.BlockHeader {
	headers := make([]types.BlockHeader, 0, n)
	for h := int64(0); h < n; h++ {
		b := byte(0)
		if h >= forkAt {
			b = branch
		}
		header := types.BlockHeader{Height: h, Hash: chainhash.Hash{byte(h), b}}
		if h > 0 {
			header.PrevBlock = headers[h-1].Hash
		}
		headers = append(headers, header)
	}
	return headers
}

type fakeProcessor struct {
	indexed    map[int64]types.BlockHeader
	revertedAt int64
}

func (p *fakeProcessor) Name() string { return "fake" }

func (p *fakeProcessor) Process(_ context.Context, inputs []testInput) error {
	for _, input := range inputs {
		p.indexed[input.header.Height] = input.header
	}
	return nil
}

func (p *fakeProcessor) CurrentBlock(context.Context) (types.BlockHeader, error) {
	return types.BlockHeader{}, errors.WithStack(errs.NotFound)
}

func (p *fakeProcessor) GetIndexedBlock(_ context.Context, height int64) (types.BlockHeader, error) {
	header, ok := p.indexed[height]
	if !ok {
		return types.BlockHeader{}, errors.WithStack(errs.NotFound)
	}
	return header, nil
}

func (p *fakeProcessor) RevertData(_ context.Context, from int64) error {
	p.revertedAt = from
	for h := range p.indexed {
		if h >= from {
			delete(p.indexed, h)
		}
	}
	return nil
}

func (p *fakeProcessor) VerifyStates(context.Context) error { return nil }

func (p *fakeProcessor) Shutdown(context.Context) error { return nil }

type fakeDatasource struct {
	headers []types.BlockHeader
}

func (d *fakeDatasource) Name() string { return "fake" }

func (d *fakeDatasource) Fetch(context.Context, int64, int64) ([]testInput, error) {
	return nil, errors.WithStack(errs.Unsupported)
}

func (d *fakeDatasource) FetchAsync(context.Context, int64, int64, chan<- []testInput) (*subscription.ClientSubscription[[]testInput], error) {
	return nil, errors.WithStack(errs.Unsupported)
}

func (d *fakeDatasource) GetBlockHeader(_ context.Context, height int64) (types.BlockHeader, error) {
	if height < 0 || height >= int64(len(d.headers)) {
		return types.BlockHeader{}, errors.WithStack(errs.NotFound)
	}
	return d.headers[height], nil
}

func toInputs(headers []types.BlockHeader) []testInput {
	inputs := make([]testInput, 0, len(headers))
	for _, header := range headers {
		inputs = append(inputs, testInput{header: header})
	}
	return inputs
}

func newTestIndexer(headers []types.BlockHeader) (*Indexer[testInput], *fakeProcessor) {
	processor := &fakeProcessor{indexed: make(map[int64]types.BlockHeader), revertedAt: -1}
	i := New[testInput](processor, &fakeDatasource{headers: headers})
	i.currentBlock = types.BlockHeader{Height: -1}
	return i, processor
}

func TestProcessInputs(t *testing.T) {
	ctx := context.Background()
	chain := testChain(6, 0, 6)
	i, processor := newTestIndexer(chain)

	next, err := i.processInputs(ctx, toInputs(chain[:3]))
	require.NoError(t, err)
	assert.True(t, next)
	assert.Equal(t, chain[2], i.currentBlock)

	next, err = i.processInputs(ctx, toInputs(chain[3:]))
	require.NoError(t, err)
	assert.True(t, next)
	assert.Equal(t, chain[5], i.currentBlock)
	assert.Len(t, processor.indexed, 6)
}

func TestProcessInputsReorg(t *testing.T) {
	ctx := context.Background()
	old := testChain(6, 0, 6)
	i, processor := newTestIndexer(old)
	_, err := i.processInputs(ctx, toInputs(old))
	require.NoError(t, err)

	// the remote chain forked at height 4
	remote := testChain(7, 1, 4)
	i.Datasource = &fakeDatasource{headers: remote}

	next, err := i.processInputs(ctx, toInputs(remote[6:]))
	require.NoError(t, err)
	assert.False(t, next)
	assert.Equal(t, int64(4), processor.revertedAt)
	assert.Equal(t, remote[3], i.currentBlock)
	assert.Len(t, processor.indexed, 4)

	// next round continues on the new branch
	next, err = i.processInputs(ctx, toInputs(remote[4:]))
	require.NoError(t, err)
	assert.True(t, next)
	assert.Equal(t, remote[6], i.currentBlock)
}

func TestProcessInputsReorgWithoutForkPoint(t *testing.T) {
	ctx := context.Background()
	old := testChain(3, 0, 3)
	i, _ := newTestIndexer(old)
	_, err := i.processInputs(ctx, toInputs(old))
	require.NoError(t, err)

	remote := testChain(4, 1, 0)
	i.Datasource = &fakeDatasource{headers: remote}
	_, err = i.processInputs(ctx, toInputs(remote[3:]))
	assert.ErrorIs(t, err, errs.SomethingWentWrong)
}

func TestIsContinuous(t *testing.T) {
	chain := testChain(4, 0, 4)

	ok, err := isContinuous(toInputs(chain))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = isContinuous(toInputs([]types.BlockHeader{chain[0], chain[2]}))
	assert.False(t, ok)
	assert.ErrorIs(t, err, errs.InternalError)

	other := testChain(4, 1, 1)
	ok, err = isContinuous(toInputs([]types.BlockHeader{chain[0], chain[1], other[2]}))
	require.NoError(t, err)
	assert.False(t, ok, "hash mismatch within a batch")
}

package indexer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/core/datasources"
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/internal/metrics"
	"github.com/gaze-network/btcname-indexer/pkg/logger"
	"github.com/gaze-network/btcname-indexer/pkg/logger/slogx"
)

const (
	maxReorgLookBack = 1000

	// DefaultPollingInterval is the default polling interval for the indexer polling worker
	DefaultPollingInterval = 15 * time.Second
)

var _ IndexerWorker = (*Indexer[*types.InscriptionBlock])(nil)

// Indexer generic indexer for fetching and processing data
type Indexer[T Input] struct {
	Processor       Processor[T]
	Datasource      datasources.Datasource[T]
	PollingInterval time.Duration
	currentBlock    types.BlockHeader

	quitOnce sync.Once
	quit     chan struct{}
	done     chan struct{}
}

// New create new generic indexer
func New[T Input](processor Processor[T], datasource datasources.Datasource[T]) *Indexer[T] {
	return &Indexer[T]{
		Processor:       processor,
		Datasource:      datasource,
		PollingInterval: DefaultPollingInterval,

		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (i *Indexer[T]) Shutdown() error {
	return i.ShutdownWithContext(context.Background())
}

func (i *Indexer[T]) ShutdownWithTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return i.ShutdownWithContext(ctx)
}

func (i *Indexer[T]) ShutdownWithContext(ctx context.Context) (err error) {
	i.quitOnce.Do(func() {
		close(i.quit)
		select {
		case <-i.done:
		case <-time.After(180 * time.Second):
			err = errors.Wrap(errs.Timeout, "indexer shutdown timeout")
		case <-ctx.Done():
			err = errors.Wrap(ctx.Err(), "indexer shutdown context canceled")
		}
	})
	return
}

func (i *Indexer[T]) Run(ctx context.Context) (err error) {
	defer close(i.done)

	ctx = logger.WithContext(ctx,
		slog.String("package", "indexer"),
		slog.String("processor", i.Processor.Name()),
		slog.String("datasource", i.Datasource.Name()),
	)

	if err := i.Processor.VerifyStates(ctx); err != nil {
		return errors.Wrap(err, "can't verify processor states")
	}

	i.currentBlock, err = i.Processor.CurrentBlock(ctx)
	if err != nil {
		if !errors.Is(err, errs.NotFound) {
			return errors.Wrap(err, "can't init state, failed to get indexer current block")
		}
		// -1 starts from genesis block
		i.currentBlock = types.BlockHeader{Height: -1}
	}
	logger.InfoContext(ctx, "Indexer initialized", slogx.Int64("current_block", i.currentBlock.Height))

	ticker := time.NewTicker(i.PollingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-i.quit:
			logger.InfoContext(ctx, "Got quit signal, stopping indexer")
			if err := i.Processor.Shutdown(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to shutdown processor", slogx.Error(err))
				return errors.Wrap(err, "processor shutdown failed")
			}
			return nil
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := i.process(ctx); err != nil {
				logger.ErrorContext(ctx, "Indexer failed while processing", slogx.Error(err))
				return errors.Wrap(err, "process failed")
			}
			logger.DebugContext(ctx, "Waiting for next polling interval")
		}
	}
}

// process runs one polling round: it consumes batches from the datasource
// until the datasource is drained or a reorg ends the round.
func (i *Indexer[T]) process(ctx context.Context) (err error) {
	from := i.currentBlock.Height + 1

	logger.InfoContext(ctx, "Start fetching input data", slog.Int64("from", from))
	ch := make(chan []T)
	subscription, err := i.Datasource.FetchAsync(ctx, from, -1, ch)
	if err != nil {
		return errors.Wrap(err, "failed to fetch input data")
	}
	defer subscription.Unsubscribe()

	for {
		select {
		case <-i.quit:
			return nil
		case inputs := <-ch:
			if len(inputs) == 0 {
				continue
			}
			next, err := i.processInputs(ctx, inputs)
			if err != nil {
				return errors.WithStack(err)
			}
			if !next {
				// end current round, the next round fetches again from the new current block
				return nil
			}
		case <-subscription.Done():
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "context done")
			}
			if err := subscription.PendingErr(); err != nil {
				return errors.Wrap(err, "got error while fetch async")
			}
			return nil
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		case err := <-subscription.Err():
			if err != nil {
				return errors.Wrap(err, "got error while fetch async")
			}
		}
	}
}

// processInputs validates and processes one batch. It returns false when the
// current round must end because the chain reorganized.
func (i *Indexer[T]) processInputs(ctx context.Context, inputs []T) (bool, error) {
	startAt := time.Now()
	firstHeader := inputs[0].BlockHeader()
	ctx = logger.WithContext(ctx,
		slogx.Int64("from", firstHeader.Height),
		slogx.Int64("to", inputs[len(inputs)-1].BlockHeader().Height),
	)

	// nothing indexed yet, the datasource decides the first block
	if i.currentBlock.Height >= 0 && !firstHeader.PrevBlock.IsEqual(&i.currentBlock.Hash) {
		logger.WarnContext(ctx, "Detected chain reorganization. Searching for fork point...",
			slogx.String("event", "reorg_detected"),
			slogx.Stringer("current_hash", i.currentBlock.Hash),
			slogx.Stringer("expected_hash", firstHeader.PrevBlock),
		)
		if err := i.revertToForkPoint(ctx); err != nil {
			return false, errors.WithStack(err)
		}
		return false, nil
	}

	if ok, err := isContinuous(inputs); !ok {
		if err != nil {
			return false, errors.WithStack(err)
		}
		logger.WarnContext(ctx, "Chain Reorganization occurred in the middle of batch fetching inputs, need to try to fetch again")
		return false, nil
	}

	ctx = logger.WithContext(ctx, slog.Int("total_inputs", len(inputs)))
	logger.InfoContext(ctx, "Processing inputs")
	if err := i.Processor.Process(ctx, inputs); err != nil {
		return false, errors.WithStack(err)
	}

	i.currentBlock = inputs[len(inputs)-1].BlockHeader()
	metrics.CurrentBlockHeight.WithLabelValues(i.Processor.Name()).Set(float64(i.currentBlock.Height))

	logger.InfoContext(ctx, "Processed inputs successfully",
		slogx.String("event", "processed_inputs"),
		slogx.Int64("current_block", i.currentBlock.Height),
		slogx.Duration("duration", time.Since(startAt)),
	)
	return true, nil
}

// revertToForkPoint walks back from the current block until the indexed and remote
// hashes agree, then reverts every indexed block above that height.
func (i *Indexer[T]) revertToForkPoint(ctx context.Context) error {
	start := time.Now()
	forkPoint, err := i.findForkPoint(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	logger.InfoContext(ctx, "Found reorg fork point, starting to revert data...",
		slogx.String("event", "reorg_forkpoint"),
		slogx.Int64("since", forkPoint.Height+1),
		slogx.Int64("total_blocks", i.currentBlock.Height-forkPoint.Height),
		slogx.Duration("search_duration", time.Since(start)),
	)

	start = time.Now()
	if err := i.Processor.RevertData(ctx, forkPoint.Height+1); err != nil {
		return errors.Wrap(err, "failed to revert data")
	}

	i.currentBlock = forkPoint
	metrics.ReorgsTotal.WithLabelValues(i.Processor.Name()).Inc()
	logger.InfoContext(ctx, "Fixing chain reorganization completed",
		slogx.Int64("current_block", i.currentBlock.Height),
		slogx.Duration("duration", time.Since(start)),
	)
	return nil
}

func (i *Indexer[T]) findForkPoint(ctx context.Context) (types.BlockHeader, error) {
	targetHeight := i.currentBlock.Height - 1
	for n := 0; n < maxReorgLookBack && targetHeight >= 0; n++ {
		indexedHeader, err := i.Processor.GetIndexedBlock(ctx, targetHeight)
		if err != nil {
			return types.BlockHeader{}, errors.Wrapf(err, "failed to get indexed block, height: %d", targetHeight)
		}

		remoteHeader, err := i.Datasource.GetBlockHeader(ctx, targetHeight)
		if err != nil {
			return types.BlockHeader{}, errors.Wrapf(err, "failed to get remote block header, height: %d", targetHeight)
		}

		if indexedHeader.Hash.IsEqual(&remoteHeader.Hash) {
			return remoteHeader, nil
		}
		targetHeight--
	}
	return types.BlockHeader{}, errors.Wrap(errs.SomethingWentWrong, "reorg look back limit reached")
}

// isContinuous reports whether every input links to its predecessor.
// A height gap is an error, a hash mismatch is a reorg during fetching.
func isContinuous[T Input](inputs []T) (bool, error) {
	for i := 1; i < len(inputs); i++ {
		header := inputs[i].BlockHeader()
		prevHeader := inputs[i-1].BlockHeader()
		if header.Height != prevHeader.Height+1 {
			return false, errors.Wrapf(errs.InternalError, "input is not continuous, input[%d] height: %d, input[%d] height: %d", i-1, prevHeader.Height, i, header.Height)
		}
		if !header.PrevBlock.IsEqual(&prevHeader.Hash) {
			return false, nil
		}
	}
	return true, nil
}

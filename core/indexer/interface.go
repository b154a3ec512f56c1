package indexer

import (
	"context"
	"time"

	"github.com/gaze-network/btcname-indexer/core/types"
)

type Input interface {
	BlockHeader() types.BlockHeader
}

// Processor consumes continuous batches of inputs and owns the indexed state.
type Processor[T Input] interface {
	Name() string

	// Process processes the inputs in order. Inputs are guaranteed to be continuous.
	Process(ctx context.Context, inputs []T) error

	// CurrentBlock returns the latest indexed block, or errs.NotFound if nothing has been indexed yet.
	CurrentBlock(ctx context.Context) (types.BlockHeader, error)

	// GetIndexedBlock returns the indexed block header at the given height.
	GetIndexedBlock(ctx context.Context, height int64) (types.BlockHeader, error)

	// RevertData reverts all indexed data from the given height (inclusive).
	RevertData(ctx context.Context, from int64) error

	// VerifyStates checks that the stored state is compatible with the running configuration.
	VerifyStates(ctx context.Context) error

	Shutdown(ctx context.Context) error
}

type IndexerWorker interface {
	Run(ctx context.Context) error
	Shutdown() error
	ShutdownWithTimeout(timeout time.Duration) error
}

package datasources

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/internal/subscription"
)

// Datasource is an interface for indexer data sources.
type Datasource[T any] interface {
	Name() string
	Fetch(ctx context.Context, from, to int64) ([]T, error)
	FetchAsync(ctx context.Context, from, to int64, ch chan<- []T) (*subscription.ClientSubscription[[]T], error)
	GetBlockHeader(ctx context.Context, height int64) (types.BlockHeader, error)
}

// InscriptionDatasource is a Datasource of per-block inscription events.
type InscriptionDatasource = Datasource[*types.InscriptionBlock]

// fetch collects every batch of FetchAsync until the subscription is done.
func fetch[T any](ctx context.Context, d Datasource[T], from, to int64) ([]T, error) {
	ch := make(chan []T)
	subscription, err := d.FetchAsync(ctx, from, to, ch)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer subscription.Unsubscribe()

	results := make([]T, 0)
	for {
		select {
		case b, ok := <-ch:
			if !ok {
				return results, nil
			}
			results = append(results, b...)
		case <-subscription.Done():
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrap(err, "context done")
			}
			if err := subscription.PendingErr(); err != nil {
				return nil, errors.Wrap(err, "got error while fetch async")
			}
			return results, nil
		case err := <-subscription.Err():
			if err != nil {
				return nil, errors.Wrap(err, "got error while fetch async")
			}
			return results, nil
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "context done")
		}
	}
}

// prepareRange clamps the requested range to [0, latest].
//
//   - from: block height to start fetching, if -1, it will start from genesis block
//   - to: block height to stop fetching, if -1, it will fetch until the latest block
func prepareRange(fromHeight, toHeight, latestHeight int64) (start, end int64, skip bool) {
	start = fromHeight
	end = toHeight

	// set start to genesis block height
	if start < 0 {
		start = 0
	}

	// set end to latest block height if
	// - end is -1
	// - end is greater that latest block height
	if end < 0 || end > latestHeight {
		end = latestHeight
	}

	// if start is greater than end, skip this round
	if start > end {
		return -1, -1, true
	}

	return start, end, false
}

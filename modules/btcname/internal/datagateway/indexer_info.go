package datagateway

import (
	"context"

	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/entity"
)

type IndexerInfoDataGateway interface {
	GetLatestIndexerState(ctx context.Context) (entity.IndexerState, error)
	CreateIndexerState(ctx context.Context, state entity.IndexerState) error
}

package datagateway

import (
	"context"

	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/collections"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/entity"
)

type BTCNameDataGateway interface {
	BTCNameReaderDataGateway
	BTCNameWriterDataGateway

	// BeginBTCNameTx returns a new BTCNameDataGateway with transaction enabled. All write operations performed in this datagateway must be committed to persist changes.
	BeginBTCNameTx(ctx context.Context) (BTCNameDataGatewayWithTx, error)
}

type BTCNameDataGatewayWithTx interface {
	BTCNameDataGateway
	Tx
}

// RegistryDataGateway is the storage capability of the registration pipeline.
type RegistryDataGateway interface {
	// GetCollectionInscriptionId returns the inscription bound to the key, or errs.NotFound.
	GetCollectionInscriptionId(ctx context.Context, key string) (types.InscriptionId, error)
	// SetInscriptionByCollectionKey binds an unbound key. Binding a bound key returns errs.Duplicate.
	SetInscriptionByCollectionKey(ctx context.Context, key string, id types.InscriptionId, blockHeight int64) error
	// AddInscriptionAttribute tags the inscription with the kind. Adding an existing tag is a no-op.
	AddInscriptionAttribute(ctx context.Context, id types.InscriptionId, kind collections.Kind, blockHeight int64) error
}

type BTCNameReaderDataGateway interface {
	GetLatestBlock(ctx context.Context) (types.BlockHeader, error)
	GetIndexedBlockByHeight(ctx context.Context, height int64) (*entity.IndexedBlock, error)
	GetCollectionInscriptionId(ctx context.Context, key string) (types.InscriptionId, error)
	GetCollectionsByKeys(ctx context.Context, keys []string) (map[string]*entity.Collection, error)
	GetInscriptionAttributes(ctx context.Context, id types.InscriptionId) ([]*entity.InscriptionAttribute, error)
}

type BTCNameWriterDataGateway interface {
	SetInscriptionByCollectionKey(ctx context.Context, key string, id types.InscriptionId, blockHeight int64) error
	AddInscriptionAttribute(ctx context.Context, id types.InscriptionId, kind collections.Kind, blockHeight int64) error
	CreateIndexedBlock(ctx context.Context, block *entity.IndexedBlock) error

	DeleteIndexedBlocksSinceHeight(ctx context.Context, height int64) error
	DeleteCollectionsSinceHeight(ctx context.Context, height int64) error
	DeleteInscriptionAttributesSinceHeight(ctx context.Context, height int64) error
}

var _ RegistryDataGateway = (BTCNameDataGateway)(nil)

package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/collections"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/datagateway"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/entity"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/repository/postgres/gen"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ datagateway.BTCNameDataGateway = (*Repository)(nil)

const pgErrUniqueViolation = "23505"

func (r *Repository) GetLatestBlock(ctx context.Context) (types.BlockHeader, error) {
	model, err := r.queries.GetLatestIndexedBlock(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.BlockHeader{}, errors.WithStack(errs.NotFound)
		}
		return types.BlockHeader{}, errors.Wrap(err, "error during query")
	}
	block, err := mapIndexedBlockModelToType(model)
	if err != nil {
		return types.BlockHeader{}, errors.Wrap(err, "failed to parse indexed block model")
	}
	return types.BlockHeader{
		Hash:      block.Hash,
		Height:    block.Height,
		PrevBlock: block.PrevHash,
	}, nil
}

func (r *Repository) GetIndexedBlockByHeight(ctx context.Context, height int64) (*entity.IndexedBlock, error) {
	model, err := r.queries.GetIndexedBlockByHeight(ctx, int32(height))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.WithStack(errs.NotFound)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	block, err := mapIndexedBlockModelToType(model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse indexed block model")
	}
	return &block, nil
}

func (r *Repository) GetCollectionInscriptionId(ctx context.Context, key string) (types.InscriptionId, error) {
	model, err := r.queries.GetCollectionByKey(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.InscriptionId{}, errors.WithStack(errs.NotFound)
		}
		return types.InscriptionId{}, errors.Wrap(err, "error during query")
	}
	id, err := types.NewInscriptionIdFromString(model.InscriptionID)
	if err != nil {
		return types.InscriptionId{}, errors.Wrap(err, "failed to parse inscription id")
	}
	return id, nil
}

func (r *Repository) GetCollectionsByKeys(ctx context.Context, keys []string) (map[string]*entity.Collection, error) {
	models, err := r.queries.GetCollectionsByKeys(ctx, keys)
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	result := make(map[string]*entity.Collection, len(models))
	for _, model := range models {
		collection, err := mapCollectionModelToType(model)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse collection model")
		}
		result[collection.Key] = &collection
	}
	return result, nil
}

func (r *Repository) GetInscriptionAttributes(ctx context.Context, id types.InscriptionId) ([]*entity.InscriptionAttribute, error) {
	models, err := r.queries.GetInscriptionAttributes(ctx, id.String())
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	result := make([]*entity.InscriptionAttribute, 0, len(models))
	for _, model := range models {
		attr, err := mapInscriptionAttributeModelToType(model)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse inscription attribute model")
		}
		result = append(result, &attr)
	}
	return result, nil
}

func (r *Repository) SetInscriptionByCollectionKey(ctx context.Context, key string, id types.InscriptionId, blockHeight int64) error {
	if err := r.queries.CreateCollection(ctx, gen.CreateCollectionParams{
		Key:           key,
		InscriptionID: id.String(),
		BlockHeight:   int32(blockHeight),
	}); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return errors.Wrapf(errs.Duplicate, "collection key %q is already bound", key)
		}
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) AddInscriptionAttribute(ctx context.Context, id types.InscriptionId, kind collections.Kind, blockHeight int64) error {
	if err := r.queries.CreateInscriptionAttribute(ctx, gen.CreateInscriptionAttributeParams{
		InscriptionID: id.String(),
		Kind:          kind.String(),
		BlockHeight:   int32(blockHeight),
	}); err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) CreateIndexedBlock(ctx context.Context, block *entity.IndexedBlock) error {
	if err := r.queries.CreateIndexedBlock(ctx, mapIndexedBlockTypeToParams(block)); err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) DeleteIndexedBlocksSinceHeight(ctx context.Context, height int64) error {
	if err := r.queries.DeleteIndexedBlocksSinceHeight(ctx, int32(height)); err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) DeleteCollectionsSinceHeight(ctx context.Context, height int64) error {
	if err := r.queries.DeleteCollectionsSinceHeight(ctx, int32(height)); err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) DeleteInscriptionAttributesSinceHeight(ctx context.Context, height int64) error {
	if err := r.queries.DeleteInscriptionAttributesSinceHeight(ctx, int32(height)); err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

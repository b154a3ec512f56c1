package memory

import (
	"context"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/collections"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/entity"
	"github.com/samber/lo"
)

func (r *Repository) GetLatestBlock(ctx context.Context) (types.BlockHeader, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if len(r.store.blocks) == 0 {
		return types.BlockHeader{}, errors.WithStack(errs.NotFound)
	}
	latest := slices.Max(lo.Keys(r.store.blocks))
	block := r.store.blocks[latest]
	return types.BlockHeader{
		Hash:      block.Hash,
		Height:    block.Height,
		PrevBlock: block.PrevHash,
	}, nil
}

func (r *Repository) GetIndexedBlockByHeight(ctx context.Context, height int64) (*entity.IndexedBlock, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	block, ok := r.store.blocks[height]
	if !ok {
		return nil, errors.WithStack(errs.NotFound)
	}
	clone := *block
	return &clone, nil
}

func (r *Repository) GetCollectionInscriptionId(ctx context.Context, key string) (types.InscriptionId, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	collection, ok := r.store.collections[key]
	if !ok {
		return types.InscriptionId{}, errors.WithStack(errs.NotFound)
	}
	return collection.InscriptionId, nil
}

func (r *Repository) GetCollectionsByKeys(ctx context.Context, keys []string) (map[string]*entity.Collection, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make(map[string]*entity.Collection, len(keys))
	for _, key := range keys {
		if collection, ok := r.store.collections[key]; ok {
			clone := *collection
			result[key] = &clone
		}
	}
	return result, nil
}

func (r *Repository) GetInscriptionAttributes(ctx context.Context, id types.InscriptionId) ([]*entity.InscriptionAttribute, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	kinds := r.store.attributes[id]
	result := make([]*entity.InscriptionAttribute, 0, len(kinds))
	for kind, height := range kinds {
		result = append(result, &entity.InscriptionAttribute{
			InscriptionId: id,
			Kind:          kind,
			BlockHeight:   height,
		})
	}
	slices.SortFunc(result, func(a, b *entity.InscriptionAttribute) int {
		return int(a.Kind) - int(b.Kind)
	})
	return result, nil
}

func (r *Repository) SetInscriptionByCollectionKey(ctx context.Context, key string, id types.InscriptionId, blockHeight int64) error {
	return r.write(func() (func(), error) {
		if _, ok := r.store.collections[key]; ok {
			return nil, errors.Wrapf(errs.Duplicate, "collection key %q is already bound", key)
		}
		r.store.collections[key] = &entity.Collection{
			Key:           key,
			InscriptionId: id,
			BlockHeight:   blockHeight,
		}
		return func() { delete(r.store.collections, key) }, nil
	})
}

func (r *Repository) AddInscriptionAttribute(ctx context.Context, id types.InscriptionId, kind collections.Kind, blockHeight int64) error {
	return r.write(func() (func(), error) {
		kinds, ok := r.store.attributes[id]
		if !ok {
			kinds = make(map[collections.Kind]int64)
			r.store.attributes[id] = kinds
		}
		if _, ok := kinds[kind]; ok {
			return nil, nil
		}
		kinds[kind] = blockHeight
		return func() {
			delete(kinds, kind)
			if len(kinds) == 0 {
				delete(r.store.attributes, id)
			}
		}, nil
	})
}

func (r *Repository) CreateIndexedBlock(ctx context.Context, block *entity.IndexedBlock) error {
	return r.write(func() (func(), error) {
		if _, ok := r.store.blocks[block.Height]; ok {
			return nil, errors.Wrapf(errs.Duplicate, "block %d is already indexed", block.Height)
		}
		clone := *block
		r.store.blocks[block.Height] = &clone
		return func() { delete(r.store.blocks, block.Height) }, nil
	})
}

func (r *Repository) DeleteIndexedBlocksSinceHeight(ctx context.Context, height int64) error {
	return r.write(func() (func(), error) {
		deleted := lo.PickBy(r.store.blocks, func(h int64, _ *entity.IndexedBlock) bool { return h >= height })
		for h := range deleted {
			delete(r.store.blocks, h)
		}
		return func() {
			for h, block := range deleted {
				r.store.blocks[h] = block
			}
		}, nil
	})
}

func (r *Repository) DeleteCollectionsSinceHeight(ctx context.Context, height int64) error {
	return r.write(func() (func(), error) {
		deleted := lo.PickBy(r.store.collections, func(_ string, c *entity.Collection) bool { return c.BlockHeight >= height })
		for key := range deleted {
			delete(r.store.collections, key)
		}
		return func() {
			for key, collection := range deleted {
				r.store.collections[key] = collection
			}
		}, nil
	})
}

func (r *Repository) DeleteInscriptionAttributesSinceHeight(ctx context.Context, height int64) error {
	return r.write(func() (func(), error) {
		deleted := make([]*entity.InscriptionAttribute, 0)
		for id, kinds := range r.store.attributes {
			for kind, h := range kinds {
				if h < height {
					continue
				}
				deleted = append(deleted, &entity.InscriptionAttribute{InscriptionId: id, Kind: kind, BlockHeight: h})
				delete(kinds, kind)
			}
			if len(kinds) == 0 {
				delete(r.store.attributes, id)
			}
		}
		return func() {
			for _, attr := range deleted {
				kinds, ok := r.store.attributes[attr.InscriptionId]
				if !ok {
					kinds = make(map[collections.Kind]int64)
					r.store.attributes[attr.InscriptionId] = kinds
				}
				kinds[attr.Kind] = attr.BlockHeight
			}
		}, nil
	})
}

func (r *Repository) GetLatestIndexerState(ctx context.Context) (entity.IndexerState, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if len(r.store.indexerStates) == 0 {
		return entity.IndexerState{}, errors.WithStack(errs.NotFound)
	}
	return r.store.indexerStates[len(r.store.indexerStates)-1], nil
}

func (r *Repository) CreateIndexerState(ctx context.Context, state entity.IndexerState) error {
	return r.write(func() (func(), error) {
		if state.CreatedAt.IsZero() {
			state.CreatedAt = time.Now().UTC()
		}
		r.store.indexerStates = append(r.store.indexerStates, state)
		n := len(r.store.indexerStates)
		return func() { r.store.indexerStates = r.store.indexerStates[:n-1] }, nil
	})
}

// Package memory is an in-process implementation of the btcname data gateways.
// Writes of a transaction are applied in place and undone on rollback; one
// transaction runs at a time.
package memory

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/collections"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/datagateway"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/entity"
)

var (
	_ datagateway.BTCNameDataGateway     = (*Repository)(nil)
	_ datagateway.IndexerInfoDataGateway = (*Repository)(nil)
)

type store struct {
	mu     sync.RWMutex
	writer sync.Mutex

	indexerStates []entity.IndexerState
	blocks        map[int64]*entity.IndexedBlock
	collections   map[string]*entity.Collection
	attributes    map[types.InscriptionId]map[collections.Kind]int64
}

type journal struct {
	undo []func()
	done bool
}

type Repository struct {
	store *store
	tx    *journal
}

func NewRepository() *Repository {
	return &Repository{
		store: &store{
			blocks:      make(map[int64]*entity.IndexedBlock),
			collections: make(map[string]*entity.Collection),
			attributes:  make(map[types.InscriptionId]map[collections.Kind]int64),
		},
	}
}

var ErrTxClosed = errors.New("transaction is already closed")

// BeginBTCNameTx blocks until no other transaction is running.
func (r *Repository) BeginBTCNameTx(ctx context.Context) (datagateway.BTCNameDataGatewayWithTx, error) {
	if r.tx != nil {
		return nil, errors.New("nested transactions are not supported")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	r.store.writer.Lock()
	return &Repository{
		store: r.store,
		tx:    &journal{},
	}, nil
}

func (r *Repository) Commit(context.Context) error {
	if r.tx == nil || r.tx.done {
		return nil
	}
	r.tx.done = true
	r.tx.undo = nil
	r.store.writer.Unlock()
	return nil
}

func (r *Repository) Rollback(context.Context) error {
	if r.tx == nil || r.tx.done {
		return nil
	}
	r.store.mu.Lock()
	for i := len(r.tx.undo) - 1; i >= 0; i-- {
		r.tx.undo[i]()
	}
	r.store.mu.Unlock()
	r.tx.done = true
	r.tx.undo = nil
	r.store.writer.Unlock()
	return nil
}

// write runs fn under the store lock. fn returns the undo of its change, or nil.
func (r *Repository) write(fn func() (func(), error)) error {
	if r.tx != nil && r.tx.done {
		return errors.WithStack(ErrTxClosed)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	undo, err := fn()
	if err != nil {
		return errors.WithStack(err)
	}
	if r.tx != nil && undo != nil {
		r.tx.undo = append(r.tx.undo, undo)
	}
	return nil
}

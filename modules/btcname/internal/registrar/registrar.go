// Package registrar binds name claims of newly created inscriptions to collection keys,
// first come first served by inscription number.
package registrar

import (
	"bytes"
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/internal/metrics"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/collections"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/datagateway"
	"github.com/gaze-network/btcname-indexer/pkg/logger"
	"github.com/gaze-network/btcname-indexer/pkg/logger/slogx"
)

// Registration is a name bound by the pipeline.
type Registration struct {
	Key           string
	Name          string
	Kind          collections.Kind
	InscriptionId types.InscriptionId
	Number        int64
}

type Registrar struct {
	mode Mode
	dg   datagateway.RegistryDataGateway
}

func New(mode Mode, dg datagateway.RegistryDataGateway) *Registrar {
	return &Registrar{
		mode: mode,
		dg:   dg,
	}
}

func (r *Registrar) Mode() Mode {
	return r.mode
}

// Index registers the name claims of a batch and returns the number of names registered.
func (r *Registrar) Index(ctx context.Context, blockHeight int64, opsByTx map[chainhash.Hash][]*types.InscriptionOp) (uint64, error) {
	registrations, err := r.Register(ctx, blockHeight, opsByTx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return uint64(len(registrations)), nil
}

// Register registers the name claims of a batch and returns the registrations in commit order.
// Any backend error aborts the batch; the caller owns the transaction.
func (r *Registrar) Register(ctx context.Context, blockHeight int64, opsByTx map[chainhash.Hash][]*types.InscriptionOp) ([]Registration, error) {
	ctx = logger.WithContext(ctx, slog.String("mode", r.mode.Name))

	candidates := eligibleOps(opsByTx)
	if skipped := countOps(opsByTx) - len(candidates); skipped > 0 {
		metrics.ClaimsSkipped.WithLabelValues(r.mode.Name, metrics.SkipReasonNotEligible).Add(float64(skipped))
	}

	registrations := make([]Registration, 0)
	for _, op := range candidates {
		name, err := r.mode.Grammar.Parse(op.Content())
		if err != nil {
			metrics.ClaimsSkipped.WithLabelValues(r.mode.Name, metrics.SkipReasonInvalid).Inc()
			continue
		}

		key := r.mode.Key(name)
		_, err = r.dg.GetCollectionInscriptionId(ctx, key)
		if err == nil {
			metrics.ClaimsSkipped.WithLabelValues(r.mode.Name, metrics.SkipReasonDuplicate).Inc()
			continue
		}
		if !errors.Is(err, errs.NotFound) {
			return nil, errors.Wrapf(err, "failed to get collection inscription, key: %s", key)
		}

		logger.InfoContext(ctx, "Found valid name",
			slogx.String("name", name.String()),
			slogx.String("key", key),
			slogx.Stringer("inscription_id", op.InscriptionId),
			slogx.Int64("inscription_number", op.InscriptionNumber),
		)
		if err := r.dg.SetInscriptionByCollectionKey(ctx, key, op.InscriptionId, blockHeight); err != nil {
			return nil, errors.Wrapf(err, "failed to set inscription by collection key, key: %s", key)
		}
		if err := r.dg.AddInscriptionAttribute(ctx, op.InscriptionId, name.Kind, blockHeight); err != nil {
			return nil, errors.Wrapf(err, "failed to add inscription attribute, inscription: %s", op.InscriptionId)
		}
		metrics.NamesRegistered.WithLabelValues(r.mode.Name, name.Kind.String()).Inc()

		registrations = append(registrations, Registration{
			Key:           key,
			Name:          name.String(),
			Kind:          name.Kind,
			InscriptionId: op.InscriptionId,
			Number:        op.InscriptionNumber,
		})
	}
	return registrations, nil
}

// eligibleOps returns the blessed creation events of the batch in ascending inscription number.
// The order does not depend on the map iteration order.
func eligibleOps(opsByTx map[chainhash.Hash][]*types.InscriptionOp) []*types.InscriptionOp {
	ops := make([]*types.InscriptionOp, 0)
	for _, txOps := range opsByTx {
		for _, op := range txOps {
			if op == nil || op.Action != types.ActionNew || op.IsCursed() {
				continue
			}
			ops = append(ops, op)
		}
	}
	slices.SortFunc(ops, compareOps)
	return ops
}

// compareOps orders by inscription number. Numbers are unique in valid input,
// the inscription id breaks ties otherwise.
func compareOps(a, b *types.InscriptionOp) int {
	if c := cmp.Compare(a.InscriptionNumber, b.InscriptionNumber); c != 0 {
		return c
	}
	if c := bytes.Compare(a.InscriptionId.TxHash[:], b.InscriptionId.TxHash[:]); c != 0 {
		return c
	}
	return cmp.Compare(a.InscriptionId.Index, b.InscriptionId.Index)
}

func countOps(opsByTx map[chainhash.Hash][]*types.InscriptionOp) int {
	n := 0
	for _, ops := range opsByTx {
		n += len(ops)
	}
	return n
}

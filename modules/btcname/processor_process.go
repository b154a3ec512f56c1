package btcname

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/internal/metrics"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/entity"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/registrar"
	"github.com/gaze-network/btcname-indexer/pkg/logger"
	"github.com/gaze-network/btcname-indexer/pkg/logger/slogx"
)

// Process implements indexer.Processor.
func (p *Processor) Process(ctx context.Context, blocks []*types.InscriptionBlock) error {
	for _, block := range blocks {
		ctx := logger.WithContext(ctx, slogx.Int64("height", block.Header.Height))
		logger.DebugContext(ctx, "Processing new block", slogx.Int("operations", block.CountOperations()))

		start := time.Now()
		registrations, err := p.processBlock(ctx, block)
		if err != nil {
			return errors.Wrapf(err, "failed to process block %d", block.Header.Height)
		}
		metrics.BlocksProcessed.WithLabelValues(p.Name()).Inc()
		metrics.BlockProcessLatency.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

		if registrations > 0 {
			logger.InfoContext(ctx, "Registered names", slogx.Int("registrations", registrations))
		}
		logger.DebugContext(ctx, "Inserted new block")
	}
	return nil
}

// processBlock runs every enabled mode over the block in one transaction.
func (p *Processor) processBlock(ctx context.Context, block *types.InscriptionBlock) (int, error) {
	btcnameDgTx, err := p.btcnameDg.BeginBTCNameTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err := btcnameDgTx.Rollback(ctx); err != nil {
			logger.WarnContext(ctx, "failed to rollback transaction",
				slogx.Error(err),
				slogx.String("event", "rollback_btcname_insertion"),
			)
		}
	}()

	events := make([]string, 0)
	for _, mode := range p.modes {
		registrations, err := registrar.New(mode, btcnameDgTx).Register(ctx, block.Header.Height, block.Operations)
		if err != nil {
			return 0, errors.Wrapf(err, "failed to register names of mode %s", mode.Name)
		}
		for _, registration := range registrations {
			events = append(events, getEventRegisterString(mode.Name, registration))
		}
	}

	// calculate event hash
	eventHash := sha256.Sum256([]byte(strings.Join(events, eventHashSeparator)))
	prevIndexedBlock, err := btcnameDgTx.GetIndexedBlockByHeight(ctx, block.Header.Height-1)
	if err != nil && errors.Is(err, errs.NotFound) && block.Header.Height-1 == startingBlockHeader[p.network].Height {
		prevIndexedBlock = &entity.IndexedBlock{
			Height:              startingBlockHeader[p.network].Height,
			Hash:                startingBlockHeader[p.network].Hash,
			EventHash:           []byte{},
			CumulativeEventHash: []byte{},
		}
		err = nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to get previous indexed block")
	}
	var cumulativeEventHash [32]byte
	if len(prevIndexedBlock.CumulativeEventHash) == 0 {
		cumulativeEventHash = eventHash
	} else {
		cumulativeEventHash = sha256.Sum256([]byte(hex.EncodeToString(prevIndexedBlock.CumulativeEventHash) + hex.EncodeToString(eventHash[:])))
	}

	if err := btcnameDgTx.CreateIndexedBlock(ctx, &entity.IndexedBlock{
		Height:              block.Header.Height,
		Hash:                block.Header.Hash,
		PrevHash:            block.Header.PrevBlock,
		EventHash:           eventHash[:],
		CumulativeEventHash: cumulativeEventHash[:],
		Registrations:       int64(len(events)),
	}); err != nil {
		return 0, errors.Wrap(err, "failed to create indexed block")
	}

	if err := btcnameDgTx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, "failed to commit transaction")
	}
	return len(events), nil
}

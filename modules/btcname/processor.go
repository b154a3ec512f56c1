package btcname

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/core/indexer"
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/datagateway"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/entity"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/registrar"
	"github.com/gaze-network/btcname-indexer/pkg/logger"
	"github.com/gaze-network/btcname-indexer/pkg/logger/slogx"
)

// Make sure to implement the Processor interface
var _ indexer.Processor[*types.InscriptionBlock] = (*Processor)(nil)

type Processor struct {
	btcnameDg     datagateway.BTCNameDataGateway
	indexerInfoDg datagateway.IndexerInfoDataGateway
	network       common.Network
	modes         []registrar.Mode
	cleanupFuncs  []func(context.Context) error

	// called after a successful revert with its starting height
	revertHooks []func(ctx context.Context, from int64)
}

func NewProcessor(btcnameDg datagateway.BTCNameDataGateway, indexerInfoDg datagateway.IndexerInfoDataGateway, network common.Network, modes []registrar.Mode, cleanupFuncs []func(context.Context) error) *Processor {
	return &Processor{
		btcnameDg:     btcnameDg,
		indexerInfoDg: indexerInfoDg,
		network:       network,
		modes:         modes,
		cleanupFuncs:  cleanupFuncs,
	}
}

// VerifyStates implements indexer.Processor.
func (p *Processor) VerifyStates(ctx context.Context) error {
	if _, ok := startingBlockHeader[p.network]; !ok {
		return errors.Wrapf(errs.Unsupported, "%q network is not supported", p.network)
	}
	if len(p.modes) == 0 {
		return errors.Wrap(errs.InvalidArgument, "no registration mode enabled")
	}
	modes := modesFingerprint(p.modes)

	indexerState, err := p.indexerInfoDg.GetLatestIndexerState(ctx)
	if err != nil && !errors.Is(err, errs.NotFound) {
		return errors.Wrap(err, "failed to get latest indexer state")
	}
	// if not found, create indexer state
	if errors.Is(err, errs.NotFound) {
		if err := p.indexerInfoDg.CreateIndexerState(ctx, entity.IndexerState{
			ClientVersion:    ClientVersion,
			DBVersion:        DBVersion,
			EventHashVersion: EventHashVersion,
			Network:          p.network,
			Modes:            modes,
		}); err != nil {
			return errors.Wrap(err, "failed to set indexer state")
		}
		return nil
	}

	if indexerState.DBVersion != DBVersion {
		return errors.Wrapf(errs.ConflictSetting, "db version mismatch: current version is %d. Please upgrade to version %d", indexerState.DBVersion, DBVersion)
	}
	if indexerState.EventHashVersion != EventHashVersion {
		return errors.Wrapf(errs.ConflictSetting, "event version mismatch: current version is %d. Please reset btcname's db first.", indexerState.EventHashVersion)
	}
	if indexerState.Network != p.network {
		return errors.Wrapf(errs.ConflictSetting, "network mismatch: latest indexed network is %q, configured network is %q. If you want to change the network, please reset the database", indexerState.Network, p.network)
	}
	if indexerState.Modes != modes {
		return errors.Wrapf(errs.ConflictSetting, "registration modes mismatch: latest indexed modes are %q, configured modes are %q. If you want to change modes or suffixes, please reset the database", indexerState.Modes, modes)
	}
	return nil
}

// CurrentBlock implements indexer.Processor.
func (p *Processor) CurrentBlock(ctx context.Context) (types.BlockHeader, error) {
	blockHeader, err := p.btcnameDg.GetLatestBlock(ctx)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return startingBlockHeader[p.network], nil
		}
		return types.BlockHeader{}, errors.Wrap(err, "failed to get latest block")
	}
	return blockHeader, nil
}

// GetIndexedBlock implements indexer.Processor.
func (p *Processor) GetIndexedBlock(ctx context.Context, height int64) (types.BlockHeader, error) {
	block, err := p.btcnameDg.GetIndexedBlockByHeight(ctx, height)
	if err != nil {
		if errors.Is(err, errs.NotFound) && height == startingBlockHeader[p.network].Height {
			return startingBlockHeader[p.network], nil
		}
		return types.BlockHeader{}, errors.Wrap(err, "failed to get indexed block")
	}
	return types.BlockHeader{
		Height:    block.Height,
		Hash:      block.Hash,
		PrevBlock: block.PrevHash,
	}, nil
}

// Name implements indexer.Processor.
func (p *Processor) Name() string {
	return "btcname"
}

// RevertData implements indexer.Processor.
func (p *Processor) RevertData(ctx context.Context, from int64) error {
	btcnameDgTx, err := p.btcnameDg.BeginBTCNameTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err := btcnameDgTx.Rollback(ctx); err != nil {
			logger.WarnContext(ctx, "failed to rollback transaction",
				slogx.Error(err),
				slogx.String("event", "rollback_btcname_revert"),
			)
		}
	}()

	if err := btcnameDgTx.DeleteIndexedBlocksSinceHeight(ctx, from); err != nil {
		return errors.Wrap(err, "failed to delete indexed blocks")
	}
	if err := btcnameDgTx.DeleteCollectionsSinceHeight(ctx, from); err != nil {
		return errors.Wrap(err, "failed to delete collections")
	}
	if err := btcnameDgTx.DeleteInscriptionAttributesSinceHeight(ctx, from); err != nil {
		return errors.Wrap(err, "failed to delete inscription attributes")
	}

	if err := btcnameDgTx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	for _, hook := range p.revertHooks {
		hook(ctx, from)
	}
	return nil
}

// OnRevert registers a hook that runs after reverted data is committed.
// Hooks must be registered before the processor runs.
func (p *Processor) OnRevert(hook func(ctx context.Context, from int64)) {
	p.revertHooks = append(p.revertHooks, hook)
}

func (p *Processor) Shutdown(ctx context.Context) error {
	var errs []error
	for _, cleanup := range p.cleanupFuncs {
		if err := cleanup(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.WithStack(errors.Join(errs...))
}

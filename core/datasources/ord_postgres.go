package datasources

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/internal/postgres"
	"github.com/gaze-network/btcname-indexer/internal/subscription"
	"github.com/gaze-network/btcname-indexer/pkg/logger"
	"github.com/gaze-network/btcname-indexer/pkg/logger/slogx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	cstream "github.com/planxnx/concurrent-stream"
	"github.com/samber/lo"
)

const (
	ordPostgresChunkSize   = 100
	ordPostgresConcurrency = 8
)

const (
	ordGetLatestBlock = `SELECT height, hash, prev_hash, timestamp FROM ord_blocks ORDER BY height DESC LIMIT 1`

	ordGetBlockByHeight = `SELECT height, hash, prev_hash, timestamp FROM ord_blocks WHERE height = $1`

	ordGetBlocksByHeightRange = `SELECT height, hash, prev_hash, timestamp FROM ord_blocks WHERE height >= $1 AND height <= $2 ORDER BY height`

	ordGetInscriptionOpsByHeightRange = `SELECT block_height, tx_hash, inscription_id, inscription_number, action, content, content_type, content_encoding, metaprotocol
FROM ord_inscription_ops WHERE block_height >= $1 AND block_height <= $2 ORDER BY block_height, tx_index, inscription_id`
)

// Make sure to implement the Datasource interface
var _ InscriptionDatasource = (*OrdPostgresDatasource)(nil)

// OrdPostgresDatasource reads inscription events from the database of an ordinals indexer.
//
// Expected upstream tables:
//
//	ord_blocks(height, hash, prev_hash, timestamp)
//	ord_inscription_ops(block_height, tx_hash, tx_index, inscription_id, inscription_number,
//	                    action, content, content_type, content_encoding, metaprotocol)
type OrdPostgresDatasource struct {
	db postgres.Queryable
}

func NewOrdPostgres(db postgres.Queryable) *OrdPostgresDatasource {
	return &OrdPostgresDatasource{
		db: db,
	}
}

func (OrdPostgresDatasource) Name() string {
	return "ord_postgres"
}

// Fetch reads inscription blocks in [from, to].
func (d *OrdPostgresDatasource) Fetch(ctx context.Context, from, to int64) ([]*types.InscriptionBlock, error) {
	blocks, err := fetch[*types.InscriptionBlock](ctx, d, from, to)
	return blocks, errors.WithStack(err)
}

// FetchAsync reads inscription blocks in [from, to] asynchronously (non-blocking).
// Chunks are queried in parallel and delivered in height order.
func (d *OrdPostgresDatasource) FetchAsync(ctx context.Context, from, to int64, ch chan<- []*types.InscriptionBlock) (*subscription.ClientSubscription[[]*types.InscriptionBlock], error) {
	ctx = logger.WithContext(ctx,
		slogx.String("package", "datasources"),
		slogx.String("datasource", d.Name()),
	)

	latest, err := d.getLatestBlock(ctx)
	if err != nil && !errors.Is(err, errs.NotFound) {
		return nil, errors.Wrap(err, "failed to get latest block")
	}
	if errors.Is(err, errs.NotFound) {
		latest.Height = -1
	}
	from, to, skip := prepareRange(from, to, latest.Height)

	subscription := subscription.NewSubscription(ch)
	if skip {
		if err := subscription.UnsubscribeWithContext(ctx); err != nil {
			return nil, errors.Wrap(err, "failed to unsubscribe")
		}
		return subscription.Client(), nil
	}

	// Create parallel stream
	out := make(chan []*types.InscriptionBlock)
	stream := cstream.NewStream(ctx, ordPostgresConcurrency, out)

	// Wait for stream to finish and close out channel
	go func() {
		defer close(out)
		_ = stream.Wait()
	}()

	// Fan-out blocks to subscription channel
	go func() {
		defer subscription.Finish()
		for {
			select {
			case data, ok := <-out:
				// stream closed
				if !ok {
					return
				}

				// empty blocks
				if len(data) == 0 {
					continue
				}

				if err := subscription.Send(ctx, data); err != nil {
					if errors.Is(err, errs.Closed) {
						return
					}
					logger.ErrorContext(ctx, "Failed while dispatch inscription blocks",
						slogx.Error(err),
						slogx.Int64("start", data[0].Header.Height),
						slogx.Int64("end", data[len(data)-1].Header.Height),
					)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Parallel fetch blocks until complete all block heights
	// or subscription is done.
	go func() {
		defer stream.Close()
		done := subscription.Done()
		chunks := lo.Chunk(lo.RangeFrom(from, int(to-from+1)), ordPostgresChunkSize)
		for _, chunk := range chunks {
			chunk := chunk
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			default:
				stream.Go(func() []*types.InscriptionBlock {
					fromHeight, toHeight := chunk[0], chunk[len(chunk)-1]
					blocks, err := d.getInscriptionBlocks(ctx, fromHeight, toHeight)
					if err != nil {
						logger.ErrorContext(ctx, "Failed to get inscription blocks",
							slogx.Error(err),
							slogx.Int64("from_height", fromHeight),
							slogx.Int64("to_height", toHeight),
						)
						if err := subscription.SendError(ctx, errors.Wrapf(err, "failed to get inscription blocks: from_height: %d, to_height: %d", fromHeight, toHeight)); err != nil {
							logger.WarnContext(ctx, "Failed to send datasource error to subscription client", slogx.Error(err))
						}
						return nil
					}
					return blocks
				})
			}
		}
	}()

	return subscription.Client(), nil
}

func (d *OrdPostgresDatasource) GetBlockHeader(ctx context.Context, height int64) (types.BlockHeader, error) {
	rows, err := d.db.Query(ctx, ordGetBlockByHeight, height)
	if err != nil {
		return types.BlockHeader{}, errors.Wrap(err, "error during query")
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[ordBlockRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.BlockHeader{}, errors.Wrapf(errs.NotFound, "block %d", height)
		}
		return types.BlockHeader{}, errors.Wrap(err, "failed to scan block")
	}
	header, err := row.toBlockHeader()
	return header, errors.WithStack(err)
}

func (d *OrdPostgresDatasource) getLatestBlock(ctx context.Context) (types.BlockHeader, error) {
	rows, err := d.db.Query(ctx, ordGetLatestBlock)
	if err != nil {
		return types.BlockHeader{}, errors.Wrap(err, "error during query")
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[ordBlockRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.BlockHeader{}, errors.WithStack(errs.NotFound)
		}
		return types.BlockHeader{}, errors.Wrap(err, "failed to scan block")
	}
	header, err := row.toBlockHeader()
	return header, errors.WithStack(err)
}

func (d *OrdPostgresDatasource) getInscriptionBlocks(ctx context.Context, from, to int64) ([]*types.InscriptionBlock, error) {
	rows, err := d.db.Query(ctx, ordGetBlocksByHeightRange, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "error during query blocks")
	}
	blockRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[ordBlockRow])
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan blocks")
	}

	rows, err = d.db.Query(ctx, ordGetInscriptionOpsByHeightRange, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "error during query inscription ops")
	}
	opRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[ordInscriptionOpRow])
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan inscription ops")
	}

	blocks, err := groupOrdRows(blockRows, opRows)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if int64(len(blocks)) != to-from+1 {
		return nil, errors.Wrapf(errs.InternalError, "missing blocks in range %d-%d, got %d blocks", from, to, len(blocks))
	}
	return blocks, nil
}

type ordBlockRow struct {
	Height    int64     `db:"height"`
	Hash      string    `db:"hash"`
	PrevHash  string    `db:"prev_hash"`
	Timestamp time.Time `db:"timestamp"`
}

func (r ordBlockRow) toBlockHeader() (types.BlockHeader, error) {
	hash, err := chainhash.NewHashFromStr(r.Hash)
	if err != nil {
		return types.BlockHeader{}, errors.Wrap(err, "can't convert hash")
	}
	prevHash, err := chainhash.NewHashFromStr(r.PrevHash)
	if err != nil {
		return types.BlockHeader{}, errors.Wrap(err, "can't convert previous block hash")
	}
	return types.BlockHeader{
		Hash:      *hash,
		Height:    r.Height,
		PrevBlock: *prevHash,
		Timestamp: r.Timestamp.UTC(),
	}, nil
}

type ordInscriptionOpRow struct {
	BlockHeight       int64       `db:"block_height"`
	TxHash            string      `db:"tx_hash"`
	InscriptionId     string      `db:"inscription_id"`
	InscriptionNumber int64       `db:"inscription_number"`
	Action            string      `db:"action"`
	Content           []byte      `db:"content"`
	ContentType       pgtype.Text `db:"content_type"`
	ContentEncoding   pgtype.Text `db:"content_encoding"`
	Metaprotocol      pgtype.Text `db:"metaprotocol"`
}

func (r ordInscriptionOpRow) toInscriptionOp() (*types.InscriptionOp, error) {
	txHash, err := chainhash.NewHashFromStr(r.TxHash)
	if err != nil {
		return nil, errors.Wrap(err, "can't convert tx hash")
	}
	id, err := types.NewInscriptionIdFromString(r.InscriptionId)
	if err != nil {
		return nil, errors.Wrap(err, "can't convert inscription id")
	}
	action, err := types.ParseAction(r.Action)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	op := &types.InscriptionOp{
		TxHash:            *txHash,
		InscriptionId:     id,
		InscriptionNumber: r.InscriptionNumber,
		Action:            action,
	}
	if action == types.ActionNew {
		op.Inscription = &types.Inscription{
			Content:         r.Content,
			ContentType:     r.ContentType.String,
			ContentEncoding: r.ContentEncoding.String,
			Metaprotocol:    r.Metaprotocol.String,
		}
	}
	return op, nil
}

// groupOrdRows builds one InscriptionBlock per block row, in height order.
func groupOrdRows(blockRows []ordBlockRow, opRows []ordInscriptionOpRow) ([]*types.InscriptionBlock, error) {
	blocks := make([]*types.InscriptionBlock, 0, len(blockRows))
	byHeight := make(map[int64]*types.InscriptionBlock, len(blockRows))
	for _, row := range blockRows {
		header, err := row.toBlockHeader()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid block %d", row.Height)
		}
		block := &types.InscriptionBlock{
			Header:     header,
			Operations: make(map[chainhash.Hash][]*types.InscriptionOp),
		}
		blocks = append(blocks, block)
		byHeight[header.Height] = block
	}

	for _, row := range opRows {
		block, ok := byHeight[row.BlockHeight]
		if !ok {
			return nil, errors.Wrapf(errs.InternalError, "inscription %s references unknown block %d", row.InscriptionId, row.BlockHeight)
		}
		op, err := row.toInscriptionOp()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid inscription op %s", row.InscriptionId)
		}
		block.Operations[op.TxHash] = append(block.Operations[op.TxHash], op)
	}
	return blocks, nil
}

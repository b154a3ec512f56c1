package datasources

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/internal/subscription"
	"github.com/gaze-network/btcname-indexer/pkg/logger"
	"github.com/gaze-network/btcname-indexer/pkg/logger/slogx"
	"github.com/gaze-network/btcname-indexer/pkg/parquetutils"
	"golang.org/x/sync/errgroup"
)

const (
	defaultS3ParquetConcurrency = 8
	defaultS3ParquetRegion      = "us-east-1"
)

type S3ParquetConfig struct {
	Bucket       string `mapstructure:"bucket"`
	Prefix       string `mapstructure:"prefix"`         // Objects are read from `<prefix>/<height>.parquet`
	Region       string `mapstructure:"region"`         // Default is us-east-1
	Endpoint     string `mapstructure:"endpoint"`       // Custom endpoint for S3 compatible storages
	UsePathStyle bool   `mapstructure:"use_path_style"` // Required by most S3 compatible storages
	Anonymous    bool   `mapstructure:"anonymous"`      // Use anonymous credentials for public buckets
	Concurrency  int    `mapstructure:"concurrency"`    // Parallel downloads. Default is 8
}

// Make sure to implement the Datasource interface
var _ InscriptionDatasource = (*S3ParquetDatasource)(nil)

// S3ParquetDatasource reads archived inscription events from per-block parquet files.
// Every row of a file carries the block header. A block without events is archived
// as a single row with an empty inscription id.
type S3ParquetDatasource struct {
	s3Client    *s3.Client
	bucket      string
	prefix      string
	concurrency int
}

func NewS3Parquet(ctx context.Context, conf S3ParquetConfig) (*S3ParquetDatasource, error) {
	if conf.Bucket == "" {
		return nil, errors.Wrap(errs.InvalidArgument, "s3 bucket is required")
	}
	sdkConfig, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(utils.Default(conf.Region, defaultS3ParquetRegion)))
	if err != nil {
		return nil, errors.Wrap(err, "can't load aws user config")
	}

	s3client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
		}
		o.UsePathStyle = conf.UsePathStyle
		if conf.Anonymous {
			o.Credentials = aws.AnonymousCredentials{}
		}
	})

	return &S3ParquetDatasource{
		s3Client:    s3client,
		bucket:      conf.Bucket,
		prefix:      strings.Trim(conf.Prefix, "/"),
		concurrency: max(utils.Default(conf.Concurrency, defaultS3ParquetConcurrency), 1),
	}, nil
}

func (S3ParquetDatasource) Name() string {
	return "s3_parquet"
}

func (d *S3ParquetDatasource) Fetch(ctx context.Context, from, to int64) ([]*types.InscriptionBlock, error) {
	blocks, err := fetch[*types.InscriptionBlock](ctx, d, from, to)
	return blocks, errors.WithStack(err)
}

// FetchAsync downloads archived blocks from `from` until `to` or until the first missing archive,
// whichever comes first.
func (d *S3ParquetDatasource) FetchAsync(ctx context.Context, from, to int64, ch chan<- []*types.InscriptionBlock) (*subscription.ClientSubscription[[]*types.InscriptionBlock], error) {
	ctx = logger.WithContext(ctx,
		slogx.String("package", "datasources"),
		slogx.String("datasource", d.Name()),
	)

	if from < 0 {
		from = 0
	}
	subscription := subscription.NewSubscription(ch)
	if to >= 0 && from > to {
		if err := subscription.UnsubscribeWithContext(ctx); err != nil {
			return nil, errors.Wrap(err, "failed to unsubscribe")
		}
		return subscription.Client(), nil
	}

	go func() {
		defer subscription.Finish()
		done := subscription.Done()
		for height := from; to < 0 || height <= to; height += int64(d.concurrency) {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			default:
			}

			end := height + int64(d.concurrency) - 1
			if to >= 0 && end > to {
				end = to
			}
			blocks, reachedEnd, err := d.downloadBlocks(ctx, height, end)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to download inscription blocks from s3",
					slogx.Error(err),
					slogx.Int64("from_height", height),
					slogx.Int64("to_height", end),
				)
				if err := subscription.SendError(ctx, errors.WithStack(err)); err != nil {
					logger.WarnContext(ctx, "Failed to send datasource error to subscription client", slogx.Error(err))
				}
				return
			}

			if len(blocks) > 0 {
				if err := subscription.Send(ctx, blocks); err != nil {
					if errors.Is(err, errs.Closed) {
						return
					}
					logger.WarnContext(ctx, "Failed to send inscription blocks to subscription client",
						slogx.Int64("start", blocks[0].Header.Height),
						slogx.Int64("end", blocks[len(blocks)-1].Header.Height),
						slogx.Error(err),
					)
				}
			}

			// reach the end of archived data
			if reachedEnd {
				return
			}
		}
	}()

	return subscription.Client(), nil
}

func (d *S3ParquetDatasource) GetBlockHeader(ctx context.Context, height int64) (types.BlockHeader, error) {
	block, err := d.downloadBlock(ctx, height)
	if err != nil {
		return types.BlockHeader{}, errors.WithStack(err)
	}
	return block.Header, nil
}

// downloadBlocks downloads [from, to] in parallel. The result is the continuous prefix of
// available archives; reachedEnd reports whether an archive was missing.
func (d *S3ParquetDatasource) downloadBlocks(ctx context.Context, from, to int64) (blocks []*types.InscriptionBlock, reachedEnd bool, err error) {
	results := make([]*types.InscriptionBlock, to-from+1)
	group, gctx := errgroup.WithContext(ctx)
	for height := from; height <= to; height++ {
		height := height
		group.Go(func() error {
			block, err := d.downloadBlock(gctx, height)
			if err != nil {
				if errors.Is(err, errs.NotFound) {
					return nil
				}
				return errors.WithStack(err)
			}
			results[height-from] = block
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, false, errors.WithStack(err)
	}

	blocks = make([]*types.InscriptionBlock, 0, len(results))
	for _, block := range results {
		if block == nil {
			return blocks, true, nil
		}
		blocks = append(blocks, block)
	}
	return blocks, false, nil
}

func (d *S3ParquetDatasource) downloadBlock(ctx context.Context, height int64) (*types.InscriptionBlock, error) {
	data, err := d.downloadFile(ctx, d.objectKey(height))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	block, err := decodeParquetBlock(data, height)
	if err != nil {
		return nil, errors.Wrapf(err, "can't decode archive of block %d", height)
	}
	return block, nil
}

func (d *S3ParquetDatasource) objectKey(height int64) string {
	key := strconv.FormatInt(height, 10) + ".parquet"
	if d.prefix == "" {
		return key
	}
	return d.prefix + "/" + key
}

func (d *S3ParquetDatasource) downloadFile(ctx context.Context, key string) ([]byte, error) {
	downloader := manager.NewDownloader(d.s3Client, func(d *manager.Downloader) {
		d.Concurrency = 4
		d.PartSize = 10 * 1024 * 1024
	})

	buffer := manager.NewWriteAtBuffer([]byte{})
	numBytes, err := downloader.Download(ctx, buffer, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, errors.Wrapf(errs.NotFound, "object %q not found", key)
		}
		return nil, errors.Wrapf(err, "failed to download file for bucket %q and key %q", d.bucket, key)
	}

	if numBytes < 1 {
		return nil, errors.Wrap(errs.NotFound, "got empty file")
	}

	return buffer.Bytes(), nil
}

// parquetInscriptionRecord is one row of a block archive.
type parquetInscriptionRecord struct {
	BlockHeight       int64  `parquet:"name=block_height, type=INT64"`
	BlockHash         string `parquet:"name=block_hash, type=BYTE_ARRAY, convertedtype=UTF8"`
	PrevBlockHash     string `parquet:"name=prev_block_hash, type=BYTE_ARRAY, convertedtype=UTF8"`
	BlockTime         int64  `parquet:"name=block_time, type=INT64"` // unix seconds
	TxHash            string `parquet:"name=tx_hash, type=BYTE_ARRAY, convertedtype=UTF8"`
	InscriptionId     string `parquet:"name=inscription_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	InscriptionNumber int64  `parquet:"name=inscription_number, type=INT64"`
	Action            string `parquet:"name=action, type=BYTE_ARRAY, convertedtype=UTF8"`
	Content           string `parquet:"name=content, type=BYTE_ARRAY"`
	ContentType       string `parquet:"name=content_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	ContentEncoding   string `parquet:"name=content_encoding, type=BYTE_ARRAY, convertedtype=UTF8"`
	Metaprotocol      string `parquet:"name=metaprotocol, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func decodeParquetBlock(data []byte, height int64) (*types.InscriptionBlock, error) {
	records, err := parquetutils.ReadAll[parquetInscriptionRecord](parquetutils.NewBufferFile(data))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(records) == 0 {
		return nil, errors.Wrap(errs.InternalError, "archive has no rows")
	}

	first := records[0]
	if first.BlockHeight != height {
		return nil, errors.Wrapf(errs.InternalError, "archive height mismatch: expected %d, got %d", height, first.BlockHeight)
	}
	hash, err := chainhash.NewHashFromStr(first.BlockHash)
	if err != nil {
		return nil, errors.Wrap(err, "can't convert hash")
	}
	prevHash, err := chainhash.NewHashFromStr(first.PrevBlockHash)
	if err != nil {
		return nil, errors.Wrap(err, "can't convert previous block hash")
	}

	block := &types.InscriptionBlock{
		Header: types.BlockHeader{
			Hash:      *hash,
			Height:    first.BlockHeight,
			PrevBlock: *prevHash,
			Timestamp: time.Unix(first.BlockTime, 0).UTC(),
		},
		Operations: make(map[chainhash.Hash][]*types.InscriptionOp),
	}
	for _, record := range records {
		// header-only row
		if record.InscriptionId == "" {
			continue
		}
		op, err := record.toInscriptionOp()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid inscription op %s", record.InscriptionId)
		}
		block.Operations[op.TxHash] = append(block.Operations[op.TxHash], op)
	}
	return block, nil
}

func (r parquetInscriptionRecord) toInscriptionOp() (*types.InscriptionOp, error) {
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
			Content:         []byte(r.Content),
			ContentType:     r.ContentType,
			ContentEncoding: r.ContentEncoding,
			Metaprotocol:    r.Metaprotocol,
		}
	}
	return op, nil
}

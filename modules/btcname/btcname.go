package btcname

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/core/datasources"
	"github.com/gaze-network/btcname-indexer/core/indexer"
	"github.com/gaze-network/btcname-indexer/internal/config"
	"github.com/gaze-network/btcname-indexer/internal/postgres"
	"github.com/gaze-network/btcname-indexer/modules/btcname/api/httphandler"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/datagateway"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/repository/memory"
	btcnamepostgres "github.com/gaze-network/btcname-indexer/modules/btcname/internal/repository/postgres"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/usecase"
	"github.com/gaze-network/btcname-indexer/pkg/logger"
	"github.com/gaze-network/btcname-indexer/pkg/logger/slogx"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/do/v2"
	"github.com/samber/lo"
)

func New(injector do.Injector) (indexer.IndexerWorker, error) {
	ctx := do.MustInvoke[context.Context](injector)
	conf := do.MustInvoke[config.Config](injector)

	cleanupFuncs := make([]func(context.Context) error, 0)
	var btcnameDg datagateway.BTCNameDataGateway
	var indexerInfoDg datagateway.IndexerInfoDataGateway
	switch strings.ToLower(conf.Modules.BTCName.Database) {
	case "postgresql", "postgres", "pg":
		pg, err := postgres.NewPool(ctx, conf.Modules.BTCName.Postgres)
		if err != nil {
			if errors.Is(err, errs.InvalidArgument) {
				return nil, errors.Wrap(err, "Invalid Postgres configuration for indexer")
			}
			return nil, errors.Wrap(err, "can't create Postgres connection pool")
		}
		cleanupFuncs = append(cleanupFuncs, func(ctx context.Context) error {
			pg.Close()
			return nil
		})
		btcnameRepo := btcnamepostgres.NewRepository(pg)
		btcnameDg = btcnameRepo
		indexerInfoDg = btcnameRepo
	case "memory":
		logger.WarnContext(ctx, "Using in-memory database, indexed data will be lost on shutdown")
		btcnameRepo := memory.NewRepository()
		btcnameDg = btcnameRepo
		indexerInfoDg = btcnameRepo
	default:
		return nil, errors.Wrapf(errs.Unsupported, "%q database for indexer is not supported", conf.Modules.BTCName.Database)
	}

	var inscriptionDatasource datasources.InscriptionDatasource
	switch strings.ToLower(conf.Modules.BTCName.Datasource) {
	case "ord-postgres":
		pg, err := postgres.NewPool(ctx, conf.Modules.BTCName.OrdPostgres)
		if err != nil {
			if errors.Is(err, errs.InvalidArgument) {
				return nil, errors.Wrap(err, "Invalid Postgres configuration for datasource")
			}
			return nil, errors.Wrap(err, "can't create Postgres connection pool for datasource")
		}
		cleanupFuncs = append(cleanupFuncs, func(ctx context.Context) error {
			pg.Close()
			return nil
		})
		inscriptionDatasource = datasources.NewOrdPostgres(pg)
	case "s3-parquet":
		s3Datasource, err := datasources.NewS3Parquet(ctx, conf.Modules.BTCName.S3)
		if err != nil {
			return nil, errors.Wrap(err, "can't create S3 datasource")
		}
		inscriptionDatasource = s3Datasource
	default:
		return nil, errors.Wrapf(errs.Unsupported, "%q datasource is not supported", conf.Modules.BTCName.Datasource)
	}

	modes, err := NewModes(conf.Modules.BTCName.Modes, conf.Modules.BTCName.Suffixes)
	if err != nil {
		return nil, errors.Wrap(err, "invalid registration modes")
	}

	processor := NewProcessor(btcnameDg, indexerInfoDg, conf.Network, modes, cleanupFuncs)
	if err := processor.VerifyStates(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	logger.InfoContext(ctx, "Verified indexer states",
		slogx.String("modes", modesFingerprint(modes)),
		slogx.String("datasource", inscriptionDatasource.Name()),
	)

	// Mount API
	apiHandlers := lo.Uniq(conf.Modules.BTCName.APIHandlers)
	for _, handler := range apiHandlers {
		switch handler {
		case "http":
			httpServer := do.MustInvoke[*fiber.App](injector)
			uc := usecase.New(btcnameDg, modes, conf.Modules.BTCName.NameCacheTTL)
			processor.OnRevert(func(context.Context, int64) { uc.FlushNameCache() })
			httpHandler := httphandler.New(conf.Network, uc)
			if err := httpHandler.Mount(httpServer); err != nil {
				return nil, errors.Wrap(err, "can't mount API")
			}
			logger.InfoContext(ctx, "Mounted HTTP handler")
		default:
			return nil, errors.Wrapf(errs.Unsupported, "%q API handler is not supported", handler)
		}
	}

	indexer := indexer.New(processor, inscriptionDatasource)
	if conf.Modules.BTCName.PollingInterval > 0 {
		indexer.PollingInterval = conf.Modules.BTCName.PollingInterval
	}
	return indexer, nil
}

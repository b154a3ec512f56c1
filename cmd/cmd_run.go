package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/core/indexer"
	"github.com/gaze-network/btcname-indexer/internal/config"
	"github.com/gaze-network/btcname-indexer/modules/btcname"
	"github.com/gaze-network/btcname-indexer/pkg/automaxprocs"
	"github.com/gaze-network/btcname-indexer/pkg/errorhandler"
	"github.com/gaze-network/btcname-indexer/pkg/logger"
	"github.com/gaze-network/btcname-indexer/pkg/logger/slogx"
	"github.com/gaze-network/btcname-indexer/pkg/middleware/requestcontext"
	"github.com/gaze-network/btcname-indexer/pkg/middleware/requestlogger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do/v2"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// Register Modules
var Modules = do.Package(
	do.LazyNamed(common.ModuleBTCName.String(), btcname.New),
)

func NewRunCommand() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start gaze-btcname service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := automaxprocs.Init(); err != nil {
				logger.Error("Failed to set GOMAXPROCS", slogx.Error(err))
			}
			return runHandler(cmd, args)
		},
	}

	// Add local flags
	flags := runCmd.Flags()
	flags.Bool("api-only", false, "Run only API server")
	flags.String("modules", common.ModuleBTCName.String(), "Enable specific modules to run. E.g. `btcname`")
	flags.Int("port", 8080, "HTTP server port")

	// Bind flags to configuration
	config.BindPFlag("api_only", flags.Lookup("api-only"))
	config.BindPFlag("enable_modules", flags.Lookup("modules"))
	config.BindPFlag("http_server.port", flags.Lookup("port"))

	return runCmd
}

const (
	shutdownTimeout = 60 * time.Second
)

func runHandler(cmd *cobra.Command, _ []string) error {
	conf := config.Load()

	// Validate inputs and configurations
	if !conf.Network.IsSupported() {
		return errors.Wrapf(errs.Unsupported, "%q network is not supported", conf.Network.String())
	}
	modules := enabledModules(conf.EnableModules)
	if len(modules) == 0 {
		return errors.Wrap(errs.InvalidArgument, "no module enabled")
	}

	// Initialize application process context
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	injector := do.New(Modules)
	do.ProvideValue(injector, conf)
	do.ProvideValue(injector, ctx)
	do.Provide(injector, func(i do.Injector) (*fiber.App, error) {
		return newHTTPServer(do.MustInvoke[config.Config](i)), nil
	})

	// Initialize worker context to separate worker's lifecycle from main process
	ctxWorker, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	ctxWorker = logger.WithContext(ctxWorker, slogx.Stringer("network", conf.Network))

	for _, module := range modules {
		worker, err := do.InvokeNamed[indexer.IndexerWorker](injector, module)
		if err != nil {
			if errors.Is(err, do.ErrServiceNotFound) {
				return errors.Wrapf(errs.Unsupported, "Module %q is not supported", module)
			}
			return errors.Wrapf(err, "can't init module %q", module)
		}
		if conf.APIOnly {
			continue
		}

		ctx := logger.WithContext(ctxWorker, slogx.String("module", module))
		go func() {
			// stop main process if indexer stopped
			defer stop()

			logger.InfoContext(ctx, "Starting BTC name indexer")
			if err := worker.Run(ctx); err != nil {
				logger.PanicContext(ctx, "Something went wrong, error during running indexer", slogx.Error(err))
			}
		}()
	}

	// Run API server
	httpServer := do.MustInvoke[*fiber.App](injector)
	go func() {
		// stop main process if API stopped
		defer stop()

		logger.InfoContext(ctx, "Started HTTP server", slog.Int("port", conf.HTTPServer.Port))
		if err := httpServer.Listen(fmt.Sprintf(":%d", conf.HTTPServer.Port)); err != nil {
			logger.PanicContext(ctx, "Something went wrong, error during running HTTP server", slogx.Error(err))
		}
	}()

	// Stop application if worker context is done
	go func() {
		<-ctxWorker.Done()
		defer stop()

		logger.InfoContext(ctx, "Indexer worker is stopped. Stopping application...")
	}()

	logger.InfoContext(ctxWorker, "Gaze BTC name indexer started", slog.Any("modules", modules), slog.Bool("api_only", conf.APIOnly))

	// Wait for interrupt signal to gracefully stop the server
	<-ctx.Done()

	// Force shutdown if timeout exceeded or got signal again
	go func() {
		defer os.Exit(1)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		select {
		case <-ctx.Done():
			logger.FatalContext(ctx, "Received exit signal again. Force shutdown...")
		case <-time.After(shutdownTimeout + 15*time.Second):
			logger.FatalContext(ctx, "Shutdown timeout exceeded. Force shutdown...")
		}
	}()

	if err := injector.Shutdown(); err != nil {
		logger.PanicContext(ctx, "Failed while gracefully shutting down", slogx.Error(err))
	}

	return nil
}

// enabledModules normalizes the configured module names. A single entry may hold a comma separated list.
func enabledModules(names []string) []string {
	modules := lo.FlatMap(names, func(item string, _ int) []string { return strings.Split(item, ",") })
	modules = lo.Map(modules, func(item string, _ int) string { return strings.ToLower(strings.TrimSpace(item)) })
	modules = lo.Filter(modules, func(item string, _ int) bool { return item != "" })
	return lo.Uniq(modules)
}

func newHTTPServer(conf config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Gaze BTC Name Indexer",
		ErrorHandler: errorhandler.NewHTTPErrorHandler(),
	})
	app.
		Use(favicon.New()).
		Use(cors.New()).
		Use(requestid.New()).
		Use(requestcontext.New(
			requestcontext.WithRequestId(),
		)).
		Use(requestlogger.New(conf.HTTPServer.Logger)).
		Use(fiberrecover.New(fiberrecover.Config{
			EnableStackTrace: true,
			StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
				buf := make([]byte, 1024) // bufLen = 1024
				buf = buf[:runtime.Stack(buf, false)]
				logger.ErrorContext(c.UserContext(), "Something went wrong, panic in http handler", slogx.Any("panic", e), slog.String("stacktrace", string(buf)))
			},
		})).
		Use(compress.New(compress.Config{
			Level: compress.LevelDefault,
		}))

	// Health check
	app.Get("/", func(c *fiber.Ctx) error {
		return errors.WithStack(c.SendStatus(http.StatusOK))
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return app
}

package automaxprocs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/pkg/logger"
	"github.com/gaze-network/btcname-indexer/pkg/logger/slogx"
	"go.uber.org/automaxprocs/maxprocs"
)

// initialMaxProcs is the value of GOMAXPROCS before Init.
var initialMaxProcs = Current()

// Init sets GOMAXPROCS to match the Linux container CPU quota (if any).
// It is a no-op on non-Linux systems and without a configured CPU quota.
func Init() error {
	logger := logger.With(
		slogx.String("package", "automaxprocs"),
		slogx.String("event", "set_gomaxprocs"),
		slogx.Int("prev_maxprocs", initialMaxProcs),
	)

	setMaxProcLogger := func(format string, v ...any) {
		fields := make([]slog.Attr, 0, 1)

		// maxprocs.Set passes the new GOMAXPROCS value as the first argument.
		if val, ok := utils.Optional(v); ok {
			// GOMAXPROCS from the environment always wins.
			if _, exists := os.LookupEnv("GOMAXPROCS"); exists {
				val = Current()
			}
			if setmaxprocs, ok := val.(int); ok {
				fields = append(fields, slogx.Int("set_maxprocs", setmaxprocs))
			}
		}

		logger.LogAttrs(context.Background(), slog.LevelInfo, fmt.Sprintf(format, v...), fields...)
	}

	if _, err := maxprocs.Set(maxprocs.Logger(setMaxProcLogger), maxprocs.Min(1)); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Current returns the current value of GOMAXPROCS.
func Current() int {
	return runtime.GOMAXPROCS(0)
}

package logger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors/errbase"
	"github.com/gaze-network/btcname-indexer/pkg/logger/slogx"
	"github.com/gaze-network/btcname-indexer/pkg/logger/stacktrace"
)

// middlewareErrorStackTrace adds the verbose error message and the stack trace
// of errors created by cockroachdb/errors to the record.
func middlewareErrorStackTrace() middleware {
	return func(next handleFunc) handleFunc {
		return func(ctx context.Context, rec slog.Record) error {
			var extra []slog.Attr
			rec.Attrs(func(attr slog.Attr) bool {
				if attr.Key != slogx.ErrorKey && attr.Key != "err" {
					return true
				}
				err, ok := attr.Value.Any().(error)
				if !ok || err == nil {
					return true
				}
				extra = append(extra, slog.String(ErrorVerboseKey, fmt.Sprintf("%+v", err)))
				if x, ok := err.(errbase.StackTraceProvider); ok {
					trace := stacktrace.StackTrace(x.StackTrace())
					extra = append(extra, slog.Any(ErrorStackTraceKey, trace.TraceFramesStrings()))
				}
				return false
			})
			rec.AddAttrs(extra...)

			return next(ctx, rec)
		}
	}
}

func errorAttrReplacer(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) == 0 && attr.Key == slogx.ErrorKey {
		if err, ok := attr.Value.Any().(error); ok && err != nil {
			return slog.String(attr.Key, err.Error())
		}
	}
	return attr
}

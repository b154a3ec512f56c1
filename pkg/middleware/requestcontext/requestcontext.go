package requestcontext

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common"
	"github.com/gaze-network/btcname-indexer/pkg/logger"
	"github.com/gaze-network/btcname-indexer/pkg/logger/slogx"
	"github.com/gofiber/fiber/v2"
)

type Option func(ctx context.Context, c *fiber.Ctx) (context.Context, error)

// New attaches request-scoped values to the user context of each request.
func New(opts ...Option) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var err error
		ctx := c.UserContext()
		for i, opt := range opts {
			ctx, err = opt(ctx, c)
			if err != nil {
				rErr := requestcontextError{}
				if errors.As(err, &rErr) {
					return errors.WithStack(c.Status(rErr.status).JSON(common.HttpResponse[any]{Error: &rErr.message}))
				}

				logger.ErrorContext(ctx, "failed to extract request context",
					slogx.Error(err),
					slog.String("event", "requestcontext/error"),
					slog.Int("optionIndex", i),
				)
				message := "internal server error"
				return errors.WithStack(c.Status(http.StatusInternalServerError).JSON(common.HttpResponse[any]{Error: &message}))
			}
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

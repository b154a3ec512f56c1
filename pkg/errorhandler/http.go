package errorhandler

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/pkg/logger"
	"github.com/gaze-network/btcname-indexer/pkg/logger/slogx"
	"github.com/gofiber/fiber/v2"
)

func NewHTTPErrorHandler() func(ctx *fiber.Ctx, err error) error {
	return func(ctx *fiber.Ctx, err error) error {
		if e := new(errs.PublicError); errors.As(err, &e) {
			status := http.StatusBadRequest
			if errors.Is(err, errs.NotFound) {
				status = http.StatusNotFound
			}
			return errors.WithStack(ctx.Status(status).JSON(errorResponse(e.Message())))
		}
		if e := new(fiber.Error); errors.As(err, &e) {
			return errors.WithStack(ctx.Status(e.Code).JSON(errorResponse(e.Error())))
		}

		logger.ErrorContext(ctx.UserContext(), "Something went wrong, unhandled api error",
			slogx.String("event", "api_unhandled_error"),
			slogx.Error(err),
		)

		return errors.WithStack(ctx.Status(http.StatusInternalServerError).JSON(errorResponse("Internal Server Error")))
	}
}

func errorResponse(message string) common.HttpResponse[any] {
	return common.HttpResponse[any]{Error: &message}
}

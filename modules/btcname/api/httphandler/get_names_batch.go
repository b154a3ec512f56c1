package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

type getNamesBatchRequest struct {
	Names []string `json:"names"`
}

const getNamesBatchMaxQueries = 100

func (r *getNamesBatchRequest) Validate() error {
	var errList []error
	if len(r.Names) == 0 {
		errList = append(errList, errors.New("names cannot be empty"))
	}
	if len(r.Names) > getNamesBatchMaxQueries {
		errList = append(errList, errors.Errorf("cannot query more than %d names", getNamesBatchMaxQueries))
	}
	for i, name := range r.Names {
		if name == "" {
			errList = append(errList, errors.Errorf("names[%d]: name cannot be empty", i))
		}
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type getNamesBatchResult struct {
	// List is in request order. Unregistered or invalid names have an empty list.
	List []*getNameResult `json:"list"`
}

type getNamesBatchResponse = common.HttpResponse[getNamesBatchResult]

func (h *HttpHandler) GetNamesBatch(ctx *fiber.Ctx) (err error) {
	var req getNamesBatchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	results := make([]*getNameResult, len(req.Names))
	eg, ectx := errgroup.WithContext(ctx.UserContext())
	for i, name := range req.Names {
		i := i
		name := name
		eg.Go(func() error {
			result, err := h.resolveName(ectx, name)
			if err != nil {
				if errors.Is(err, errs.NotFound) || errors.Is(err, errs.InvalidArgument) {
					results[i] = &getNameResult{Name: name, List: []nameRecord{}}
					return nil
				}
				return errors.Wrapf(err, "error during resolveName for query %d", i)
			}
			results[i] = result
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return errors.WithStack(err)
	}

	resp := getNamesBatchResponse{
		Result: &getNamesBatchResult{
			List: results,
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}

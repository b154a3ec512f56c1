package httphandler

import (
	"context"
	"net/url"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

type getNameRequest struct {
	Name string `params:"name"`
}

func (r *getNameRequest) Validate() error {
	var errList []error
	name, err := url.PathUnescape(r.Name)
	if err != nil {
		return errs.WithPublicMessage(err, "validation error")
	}
	r.Name = name
	if r.Name == "" {
		errList = append(errList, errors.New("name cannot be empty"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type nameRecord struct {
	Mode          string `json:"mode"`
	Key           string `json:"key"`
	Localpart     string `json:"localpart"`
	Suffix        string `json:"suffix"`
	Kind          string `json:"kind"`
	InscriptionId string `json:"inscriptionId"`
	BlockHeight   int64  `json:"blockHeight"`
}

type getNameResult struct {
	Name string       `json:"name"`
	List []nameRecord `json:"list"`
}

type getNameResponse = common.HttpResponse[getNameResult]

func (h *HttpHandler) GetName(ctx *fiber.Ctx) (err error) {
	var req getNameRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.resolveName(ctx.UserContext(), req.Name)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := getNameResponse{
		Result: result,
	}

	return errors.WithStack(ctx.JSON(resp))
}

func (h *HttpHandler) resolveName(ctx context.Context, name string) (*getNameResult, error) {
	resolutions, err := h.usecase.ResolveName(ctx, name)
	if err != nil {
		if errors.Is(err, errs.InvalidArgument) {
			return nil, errs.WithPublicMessage(err, "invalid name")
		}
		if errors.Is(err, errs.NotFound) {
			return nil, errs.WithPublicMessage(err, "name not found")
		}
		return nil, errors.Wrap(err, "error during ResolveName")
	}

	return &getNameResult{
		Name: name,
		List: lo.Map(resolutions, func(r *usecase.Resolution, _ int) nameRecord {
			return nameRecord{
				Mode:          r.Mode,
				Key:           r.Collection.Key,
				Localpart:     r.Name.Localpart,
				Suffix:        r.Name.Suffix,
				Kind:          r.Name.Kind.String(),
				InscriptionId: r.Collection.InscriptionId.String(),
				BlockHeight:   r.Collection.BlockHeight,
			}
		}),
	}, nil
}

package httphandler

import (
	"net/url"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

type getInscriptionCollectionsRequest struct {
	Id string `params:"id"`
}

func (r *getInscriptionCollectionsRequest) Validate() (types.InscriptionId, error) {
	id, err := url.PathUnescape(r.Id)
	if err != nil {
		return types.InscriptionId{}, errs.WithPublicMessage(err, "validation error")
	}
	inscriptionId, err := types.NewInscriptionIdFromString(id)
	if err != nil {
		return types.InscriptionId{}, errs.WithPublicMessage(errors.Errorf("id '%s' is not a valid inscription id", id), "validation error")
	}
	return inscriptionId, nil
}

type inscriptionCollection struct {
	Kind        string `json:"kind"`
	BlockHeight int64  `json:"blockHeight"`
}

type getInscriptionCollectionsResult struct {
	InscriptionId string                  `json:"inscriptionId"`
	List          []inscriptionCollection `json:"list"`
}

type getInscriptionCollectionsResponse = common.HttpResponse[getInscriptionCollectionsResult]

func (h *HttpHandler) GetInscriptionCollections(ctx *fiber.Ctx) (err error) {
	var req getInscriptionCollectionsRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	id, err := req.Validate()
	if err != nil {
		return errors.WithStack(err)
	}

	attrs, err := h.usecase.GetInscriptionCollections(ctx.UserContext(), id)
	if err != nil {
		return errors.Wrap(err, "error during GetInscriptionCollections")
	}

	resp := getInscriptionCollectionsResponse{
		Result: &getInscriptionCollectionsResult{
			InscriptionId: id.String(),
			List: lo.Map(attrs, func(attr *entity.InscriptionAttribute, _ int) inscriptionCollection {
				return inscriptionCollection{
					Kind:        attr.Kind.String(),
					BlockHeight: attr.BlockHeight,
				}
			}),
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}

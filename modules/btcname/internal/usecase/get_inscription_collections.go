package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/entity"
)

// GetInscriptionCollections returns the collection kinds attached to the inscription.
func (u *Usecase) GetInscriptionCollections(ctx context.Context, id types.InscriptionId) ([]*entity.InscriptionAttribute, error) {
	attrs, err := u.btcnameDg.GetInscriptionAttributes(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get inscription attributes")
	}
	return attrs, nil
}

package entity

import (
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/collections"
)

// Collection binds a collection key to the inscription that first claimed it.
type Collection struct {
	Key           string
	InscriptionId types.InscriptionId
	BlockHeight   int64
}

type InscriptionAttribute struct {
	InscriptionId types.InscriptionId
	Kind          collections.Kind
	BlockHeight   int64
}

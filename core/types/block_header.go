package types

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

type BlockHeader struct {
	Hash      chainhash.Hash
	Height    int64
	PrevBlock chainhash.Hash
	Timestamp time.Time
}

package entity

import (
	"time"

	"github.com/gaze-network/btcname-indexer/common"
)

type IndexerState struct {
	CreatedAt        time.Time
	ClientVersion    string
	DBVersion        int32
	EventHashVersion int32
	Network          common.Network

	// Modes is the fingerprint of the enabled registration modes and their suffix sets.
	// Changing it against existing data would change past registrations.
	Modes string
}

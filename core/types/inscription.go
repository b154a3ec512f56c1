package types

import (
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common/errs"
)

// Action is what happened to an inscription in a transaction.
type Action uint8

const (
	// ActionNew is the creation (reveal) of an inscription.
	ActionNew Action = iota + 1
	// ActionTransfer is a movement of an existing inscription.
	ActionTransfer
)

func (a Action) String() string {
	switch a {
	case ActionNew:
		return "new"
	case ActionTransfer:
		return "transfer"
	}
	return "unknown"
}

// ParseAction parses the text form of an Action.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(s) {
	case "new", "inscribe":
		return ActionNew, nil
	case "transfer":
		return ActionTransfer, nil
	}
	return 0, errors.Wrapf(errs.InvalidArgument, "unknown inscription action %q", s)
}

// Inscription is the revealed payload of an inscription.
type Inscription struct {
	Content         []byte
	ContentType     string
	ContentEncoding string
	Metaprotocol    string
}

// InscriptionOp is an inscription event emitted by the ordinals indexer.
// InscriptionNumber is negative for cursed inscriptions.
type InscriptionOp struct {
	TxHash            chainhash.Hash
	InscriptionId     InscriptionId
	InscriptionNumber int64
	Action            Action

	// Inscription is set for ActionNew only.
	Inscription *Inscription
}

// IsCursed reports whether the inscription was assigned a negative number.
func (op *InscriptionOp) IsCursed() bool {
	return op.InscriptionNumber < 0
}

// Content returns the body of a newly created inscription, or nil.
func (op *InscriptionOp) Content() []byte {
	if op.Action != ActionNew || op.Inscription == nil {
		return nil
	}
	return op.Inscription.Content
}

// InscriptionBlock is the set of inscription events of one block, grouped by
// transaction hash. The grouping carries no ordering guarantees.
type InscriptionBlock struct {
	Header     BlockHeader
	Operations map[chainhash.Hash][]*InscriptionOp
}

func (b *InscriptionBlock) BlockHeader() BlockHeader {
	return b.Header
}

// CountOperations returns the number of events in the block.
func (b *InscriptionBlock) CountOperations() int {
	n := 0
	for _, ops := range b.Operations {
		n += len(ops)
	}
	return n
}

package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
)

// InscriptionId is the id of an inscription: the hash of the reveal transaction
// and the index of the inscription within it, formatted as "<txid>i<index>".
type InscriptionId struct {
	TxHash chainhash.Hash
	Index  uint32
}

func (i InscriptionId) String() string {
	return fmt.Sprintf("%si%d", i.TxHash.String(), i.Index)
}

func NewInscriptionId(txHash chainhash.Hash, index uint32) InscriptionId {
	return InscriptionId{
		TxHash: txHash,
		Index:  index,
	}
}

var ErrInscriptionIdInvalidSeparator = errors.New("invalid inscription id: must contain exactly one separator")

func NewInscriptionIdFromString(s string) (InscriptionId, error) {
	parts := strings.SplitN(s, "i", 2)
	if len(parts) != 2 {
		return InscriptionId{}, errors.WithStack(ErrInscriptionIdInvalidSeparator)
	}
	txHash, err := chainhash.NewHashFromStr(parts[0])
	if err != nil {
		return InscriptionId{}, errors.Wrap(err, "invalid inscription id: cannot parse txHash")
	}
	index, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return InscriptionId{}, errors.Wrap(err, "invalid inscription id: cannot parse index")
	}
	return InscriptionId{
		TxHash: *txHash,
		Index:  uint32(index),
	}, nil
}

// MarshalText implements encoding.TextMarshaler
func (i InscriptionId) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (i *InscriptionId) UnmarshalText(data []byte) error {
	parsed, err := NewInscriptionIdFromString(string(data))
	if err != nil {
		return errors.WithStack(err)
	}
	*i = parsed
	return nil
}

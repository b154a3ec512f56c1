// Package collections defines the classification tags attached to inscriptions.
//
// The string encoding of every Kind is persisted. Encodings must never be
// changed or reused; new kinds get new encodings.
package collections

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common/errs"
)

type Kind uint8

const (
	KindUnknown Kind = iota
	BitMap
	BRC20
	BtcName
	UnisatName
	SatsName
	XName
)

var kindEncodings = map[Kind]string{
	BitMap:     "bitmap",
	BRC20:      "brc20",
	BtcName:    "btc_name",
	UnisatName: "unisat_name",
	SatsName:   "sats_name",
	XName:      "x_name",
}

var kindsByEncoding = func() map[string]Kind {
	m := make(map[string]Kind, len(kindEncodings))
	for k, v := range kindEncodings {
		m[v] = k
	}
	return m
}()

// suffix -> kind of the closed taxonomy
var kindsBySuffix = map[string]Kind{
	"btc":    BtcName,
	"unisat": UnisatName,
	"sats":   SatsName,
	"x":      XName,
}

var ErrUnknownKind = errors.Wrap(errs.InvalidArgument, "unknown collection kind")

// All returns every known kind.
func All() []Kind {
	return []Kind{BitMap, BRC20, BtcName, UnisatName, SatsName, XName}
}

func (k Kind) String() string {
	if s, ok := kindEncodings[k]; ok {
		return s
	}
	return "unknown"
}

func (k Kind) IsValid() bool {
	_, ok := kindEncodings[k]
	return ok
}

// ParseKind returns the kind of a persisted encoding.
func ParseKind(s string) (Kind, error) {
	k, ok := kindsByEncoding[s]
	if !ok {
		return KindUnknown, errors.Wrapf(ErrUnknownKind, "encoding %q", s)
	}
	return k, nil
}

// KindFromSuffix resolves the kind of a lowercased name suffix.
func KindFromSuffix(suffix string) (Kind, error) {
	k, ok := kindsBySuffix[suffix]
	if !ok {
		return KindUnknown, errors.Wrapf(ErrUnknownKind, "no collection for suffix %q", suffix)
	}
	return k, nil
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	if !k.IsValid() {
		return nil, errors.WithStack(ErrUnknownKind)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(data []byte) error {
	parsed, err := ParseKind(string(data))
	if err != nil {
		return errors.WithStack(err)
	}
	*k = parsed
	return nil
}

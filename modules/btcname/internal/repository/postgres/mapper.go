package postgres

import (
	"encoding/hex"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common"
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/collections"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/entity"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/repository/postgres/gen"
)

func mapIndexerStateModelToType(src gen.BtcnameIndexerState) entity.IndexerState {
	var createdAt time.Time
	if src.CreatedAt.Valid {
		createdAt = src.CreatedAt.Time.UTC()
	}
	return entity.IndexerState{
		CreatedAt:        createdAt,
		ClientVersion:    src.ClientVersion,
		DBVersion:        src.DbVersion,
		EventHashVersion: src.EventHashVersion,
		Network:          common.Network(src.Network),
		Modes:            src.Modes,
	}
}

func mapIndexerStateTypeToParams(src entity.IndexerState) gen.CreateIndexerStateParams {
	return gen.CreateIndexerStateParams{
		ClientVersion:    src.ClientVersion,
		DbVersion:        src.DBVersion,
		EventHashVersion: src.EventHashVersion,
		Network:          string(src.Network),
		Modes:            src.Modes,
	}
}

func mapIndexedBlockModelToType(src gen.BtcnameIndexedBlock) (entity.IndexedBlock, error) {
	hash, err := chainhash.NewHashFromStr(src.Hash)
	if err != nil {
		return entity.IndexedBlock{}, errors.Wrap(err, "invalid block hash")
	}
	prevHash, err := chainhash.NewHashFromStr(src.PrevHash)
	if err != nil {
		return entity.IndexedBlock{}, errors.Wrap(err, "invalid prev block hash")
	}
	eventHash, err := hex.DecodeString(src.EventHash)
	if err != nil {
		return entity.IndexedBlock{}, errors.Wrap(err, "invalid event hash")
	}
	cumulativeEventHash, err := hex.DecodeString(src.CumulativeEventHash)
	if err != nil {
		return entity.IndexedBlock{}, errors.Wrap(err, "invalid cumulative event hash")
	}
	return entity.IndexedBlock{
		Height:              int64(src.Height),
		Hash:                *hash,
		PrevHash:            *prevHash,
		EventHash:           eventHash,
		CumulativeEventHash: cumulativeEventHash,
		Registrations:       int64(src.Registrations),
	}, nil
}

func mapIndexedBlockTypeToParams(src *entity.IndexedBlock) gen.CreateIndexedBlockParams {
	return gen.CreateIndexedBlockParams{
		Height:              int32(src.Height),
		Hash:                src.Hash.String(),
		PrevHash:            src.PrevHash.String(),
		EventHash:           hex.EncodeToString(src.EventHash),
		CumulativeEventHash: hex.EncodeToString(src.CumulativeEventHash),
		Registrations:       int32(src.Registrations),
	}
}

func mapCollectionModelToType(src gen.BtcnameCollection) (entity.Collection, error) {
	id, err := types.NewInscriptionIdFromString(src.InscriptionID)
	if err != nil {
		return entity.Collection{}, errors.Wrap(err, "invalid inscription id")
	}
	return entity.Collection{
		Key:           src.Key,
		InscriptionId: id,
		BlockHeight:   int64(src.BlockHeight),
	}, nil
}

func mapInscriptionAttributeModelToType(src gen.BtcnameInscriptionAttribute) (entity.InscriptionAttribute, error) {
	id, err := types.NewInscriptionIdFromString(src.InscriptionID)
	if err != nil {
		return entity.InscriptionAttribute{}, errors.Wrap(err, "invalid inscription id")
	}
	kind, err := collections.ParseKind(src.Kind)
	if err != nil {
		return entity.InscriptionAttribute{}, errors.Wrap(err, "invalid collection kind")
	}
	return entity.InscriptionAttribute{
		InscriptionId: id,
		Kind:          kind,
		BlockHeight:   int64(src.BlockHeight),
	}, nil
}

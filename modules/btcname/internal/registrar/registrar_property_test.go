package registrar

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/repository/memory"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var claimContents = []string{
	"jack.btc", "JACK.BTC", "Jack.btc", "jack.sats", "alice.x", "alice.unisat",
	"hi.jack.btc", " jack.btc", "jack.btc\n", "abc.bitmap", `{"a":1}.btc`, "比特币.btc", "",
}

type claim struct {
	tx      byte
	index   uint32
	number  int64
	content string
	action  types.Action
}

func drawClaims(t *rapid.T) []claim {
	n := rapid.IntRange(0, 24).Draw(t, "n")
	numbers := rapid.Permutation(lo.Range(n)).Draw(t, "numbers")
	claims := make([]claim, 0, n)
	for i := 0; i < n; i++ {
		number := int64(numbers[i])
		if rapid.Bool().Draw(t, "cursed") {
			number = -number - 1
		}
		action := types.ActionNew
		if rapid.IntRange(0, 4).Draw(t, "action") == 0 {
			action = types.ActionTransfer
		}
		claims = append(claims, claim{
			tx:      byte(rapid.IntRange(0, 5).Draw(t, "tx")),
			index:   uint32(i),
			number:  number,
			content: rapid.SampledFrom(claimContents).Draw(t, "content"),
			action:  action,
		})
	}
	return claims
}

func buildBatch(claims []claim) map[chainhash.Hash][]*types.InscriptionOp {
	batch := make(map[chainhash.Hash][]*types.InscriptionOp)
	for _, c := range claims {
		op := newOp(c.tx, c.index, c.number, c.content)
		op.Action = c.action
		batch[op.TxHash] = append(batch[op.TxHash], op)
	}
	return batch
}

func snapshot(t require.TestingT, repo *memory.Repository, keys []string) map[string]types.InscriptionId {
	found, err := repo.GetCollectionsByKeys(context.Background(), keys)
	require.NoError(t, err)
	result := make(map[string]types.InscriptionId, len(found))
	for key, c := range found {
		result[key] = c.InscriptionId
	}
	return result
}

func TestIndexOrderIndependence(t *testing.T) {
	keys := []string{
		"BTC_DOMAIN_btc_jack", "BTC_DOMAIN_sats_jack", "BTC_DOMAIN_x_alice",
		"BTC_DOMAIN_unisat_alice", "BTC_DOMAIN_btc_比特币",
	}
	rapid.Check(t, func(t *rapid.T) {
		claims := drawClaims(t)
		shuffled := rapid.Permutation(claims).Draw(t, "shuffled")

		original := buildBatch(claims)

		// the same ops, listed in different orders
		results := make([]map[string]types.InscriptionId, 0, 3)
		counts := make([]uint64, 0, 3)
		for _, batch := range []map[chainhash.Hash][]*types.InscriptionOp{original, reversed(original), buildBatch(shuffled)} {
			repo := memory.NewRepository()
			count, err := New(ClosedTaxonomyMode(), repo).Index(context.Background(), 800000, batch)
			require.NoError(t, err)
			results = append(results, snapshot(t, repo, keys))
			counts = append(counts, count)
		}

		for i := 1; i < len(results); i++ {
			assert.Equal(t, results[0], results[i])
			assert.Equal(t, counts[0], counts[i])
		}
		assert.Equal(t, counts[0], uint64(len(results[0])))
	})
}

// reversed returns the batch with every transaction's ops in reverse order.
func reversed(batch map[chainhash.Hash][]*types.InscriptionOp) map[chainhash.Hash][]*types.InscriptionOp {
	result := make(map[chainhash.Hash][]*types.InscriptionOp, len(batch))
	for hash, ops := range batch {
		rev := make([]*types.InscriptionOp, len(ops))
		for i, op := range ops {
			rev[len(ops)-1-i] = op
		}
		result[hash] = rev
	}
	return result
}

func TestIndexWinnerHasLowestNumber(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		claims := drawClaims(t)
		batch := buildBatch(claims)
		repo := memory.NewRepository()
		mode := ClosedTaxonomyMode()
		_, err := New(mode, repo).Index(context.Background(), 800000, batch)
		require.NoError(t, err)

		winners := make(map[string]*types.InscriptionOp)
		for _, ops := range batch {
			for _, op := range ops {
				if op.Action != types.ActionNew || op.IsCursed() {
					continue
				}
				name, err := mode.Grammar.Parse(op.Content())
				if err != nil {
					continue
				}
				key := mode.Key(name)
				if w, ok := winners[key]; !ok || op.InscriptionNumber < w.InscriptionNumber {
					winners[key] = op
				}
			}
		}

		for key, winner := range winners {
			id, err := repo.GetCollectionInscriptionId(context.Background(), key)
			require.NoError(t, err)
			assert.Equal(t, winner.InscriptionId, id, key)
		}
		for _, key := range []string{"BTC_DOMAIN_btc_hi.jack", "BTC_DOMAIN_bitmap_abc"} {
			_, err := repo.GetCollectionInscriptionId(context.Background(), key)
			assert.True(t, errors.Is(err, errs.NotFound))
		}
	})
}

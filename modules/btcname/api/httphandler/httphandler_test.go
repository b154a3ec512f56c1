package httphandler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gaze-network/btcname-indexer/common"
	"github.com/gaze-network/btcname-indexer/core/types"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/entity"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/names"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/registrar"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/repository/memory"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/usecase"
	"github.com/gaze-network/btcname-indexer/pkg/errorhandler"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aliceId = types.NewInscriptionId(chainhash.Hash{0xaa}, 0)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx := context.Background()
	repo := memory.NewRepository()

	configurable, err := registrar.ConfigurableMode(names.SuffixSet{"btc", "ord"})
	require.NoError(t, err)
	modes := []registrar.Mode{registrar.ClosedTaxonomyMode(), configurable}

	tx, err := repo.BeginBTCNameTx(ctx)
	require.NoError(t, err)
	ops := map[chainhash.Hash][]*types.InscriptionOp{
		aliceId.TxHash: {{
			TxHash:            aliceId.TxHash,
			InscriptionId:     aliceId,
			InscriptionNumber: 10,
			Action:            types.ActionNew,
			Inscription:       &types.Inscription{Content: []byte("alice.btc")},
		}},
	}
	for _, mode := range modes {
		_, err := registrar.New(mode, tx).Index(ctx, 800000, ops)
		require.NoError(t, err)
	}
	require.NoError(t, tx.CreateIndexedBlock(ctx, &entity.IndexedBlock{
		Height:              800000,
		Hash:                chainhash.Hash{0x80},
		EventHash:           []byte{1},
		CumulativeEventHash: []byte{1},
	}))
	require.NoError(t, tx.Commit(ctx))

	app := fiber.New(fiber.Config{
		ErrorHandler: errorhandler.NewHTTPErrorHandler(),
	})
	require.NoError(t, New(common.NetworkMainnet, usecase.New(repo, modes, 0)).Mount(app))
	return app
}

func doRequest[T any](t *testing.T, app *fiber.App, method, path, body string) (int, common.HttpResponse[T]) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result common.HttpResponse[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return resp.StatusCode, result
}

func TestGetName(t *testing.T) {
	app := newTestApp(t)

	status, resp := doRequest[getNameResult](t, app, http.MethodGet, "/v1/btcname/names/Alice.btc", "")
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, resp.Result)
	require.Len(t, resp.Result.List, 2)
	assert.Equal(t, nameRecord{
		Mode:          registrar.ModeBTCDomain,
		Key:           "BTC_DOMAIN_btc_alice",
		Localpart:     "alice",
		Suffix:        "btc",
		Kind:          "btc_name",
		InscriptionId: aliceId.String(),
		BlockHeight:   800000,
	}, resp.Result.List[0])
	assert.Equal(t, "BTC_NAME_alice_btc", resp.Result.List[1].Key)

	status, resp = doRequest[getNameResult](t, app, http.MethodGet, "/v1/btcname/names/bob.btc", "")
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "name not found", *resp.Error)

	status, _ = doRequest[getNameResult](t, app, http.MethodGet, "/v1/btcname/names/nosuffix", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetNamesBatch(t *testing.T) {
	app := newTestApp(t)

	status, resp := doRequest[getNamesBatchResult](t, app, http.MethodPost, "/v1/btcname/names/batch", `{"names":["bob.ord","alice.btc","invalid"]}`)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, resp.Result.List, 3)
	assert.Empty(t, resp.Result.List[0].List)
	assert.Len(t, resp.Result.List[1].List, 2)
	assert.Equal(t, "invalid", resp.Result.List[2].Name)
	assert.Empty(t, resp.Result.List[2].List)

	status, _ = doRequest[getNamesBatchResult](t, app, http.MethodPost, "/v1/btcname/names/batch", `{"names":[]}`)
	assert.Equal(t, http.StatusBadRequest, status)

	tooMany := `{"names":["a.btc"` + strings.Repeat(`,"a.btc"`, getNamesBatchMaxQueries) + `]}`
	status, _ = doRequest[getNamesBatchResult](t, app, http.MethodPost, "/v1/btcname/names/batch", tooMany)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetInscriptionCollections(t *testing.T) {
	app := newTestApp(t)

	status, resp := doRequest[getInscriptionCollectionsResult](t, app, http.MethodGet, "/v1/btcname/inscriptions/"+aliceId.String()+"/collections", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, aliceId.String(), resp.Result.InscriptionId)
	assert.Equal(t, []inscriptionCollection{{Kind: "btc_name", BlockHeight: 800000}}, resp.Result.List)

	status, _ = doRequest[getInscriptionCollectionsResult](t, app, http.MethodGet, "/v1/btcname/inscriptions/not-an-id/collections", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPostParse(t *testing.T) {
	app := newTestApp(t)

	status, resp := doRequest[postParseResult](t, app, http.MethodPost, "/v1/btcname/parse", `{"content":"Satoshi.ORD"}`)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, resp.Result.List, 2)
	assert.False(t, resp.Result.List[0].Valid)
	assert.NotNil(t, resp.Result.List[0].Error)
	assert.Equal(t, parseResult{
		Mode:      registrar.ModeBTCName,
		Valid:     true,
		Key:       "BTC_NAME_satoshi_ord",
		Localpart: "satoshi",
		Suffix:    "ord",
		Kind:      "btc_name",
	}, resp.Result.List[1])

	// "\xff.btc"
	status, resp = doRequest[postParseResult](t, app, http.MethodPost, "/v1/btcname/parse", `{"contentBase64":"/y5idGM="}`)
	require.Equal(t, http.StatusOK, status)
	for _, result := range resp.Result.List {
		assert.False(t, result.Valid)
	}

	status, _ = doRequest[postParseResult](t, app, http.MethodPost, "/v1/btcname/parse", `{"contentBase64":"!!"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetCurrentBlock(t *testing.T) {
	app := newTestApp(t)

	status, resp := doRequest[getCurrentBlockResult](t, app, http.MethodGet, "/v1/btcname/block", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(800000), resp.Result.Height)
	assert.Equal(t, chainhash.Hash{0x80}.String(), resp.Result.Hash)
}

package cmd

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := NewVersionCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--module", "btcname"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "v0.1.0\n", out.String())

	cmd = NewVersionCommand()
	cmd.SetArgs([]string{"--module", "runes"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	assert.ErrorIs(t, cmd.Execute(), errs.Unsupported)
}

func TestParseCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := NewParseCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"Alice.btc", "--modes", "btc_domain,btc_name"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "btc_domain\talice.btc\tbtc_name\tBTC_DOMAIN_btc_alice\n"+
		"btc_name\talice.btc\tbtc_name\tBTC_NAME_alice_btc\n", out.String())
}

func TestEnabledModules(t *testing.T) {
	assert.Equal(t, []string{"btcname"}, enabledModules([]string{" BTCName ", "btcname,", ""}))
	assert.Equal(t, []string{"btcname", "runes"}, enabledModules([]string{"btcname,runes"}))
	assert.Empty(t, enabledModules(nil))
}

func TestHTTPServer(t *testing.T) {
	app := newHTTPServer(config.Config{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/v1/unknown", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

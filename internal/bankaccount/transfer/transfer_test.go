package transfer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashout/internal/platform/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_NilWithoutGateway(t *testing.T) {
	c := New(config.MicroDepositConfig{}, testLogger())
	assert.Nil(t, c)
}

func TestSendMicroDeposit(t *testing.T) {
	var got transferBody
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/transfers", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(config.MicroDepositConfig{
		GatewayURL: srv.URL,
		APIKey:     "gw-key",
		Timeout:    2 * time.Second,
	}, testLogger())
	require.NotNil(t, c)

	err := c.SendMicroDeposit(context.Background(), "088", "110-123-456789", "campaignpay")
	require.NoError(t, err)

	assert.Equal(t, "Bearer gw-key", auth)
	assert.Equal(t, "088", got.BankCode)
	assert.Equal(t, "110-123-456789", got.AccountNumber)
	assert.Equal(t, int64(1), got.Amount)
	assert.Equal(t, "campaignpay", got.DepositorName)
}

func TestSendMicroDeposit_GatewayRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(config.MicroDepositConfig{GatewayURL: srv.URL, Timeout: 2 * time.Second}, testLogger())
	err := c.SendMicroDeposit(context.Background(), "088", "110-123-456789", "campaignpay")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

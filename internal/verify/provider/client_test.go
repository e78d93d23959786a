package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashout/internal/platform/config"
	"cashout/internal/platform/logger"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(config.TrustProviderConfig{
		BaseURL:      srv.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		CountryCode:  "ko",
		Timeout:      2 * time.Second,
	}, logger.New())
	return c, srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestAcquireCredential(t *testing.T) {
	t.Run("success requires gateway code 1200", func(t *testing.T) {
		c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, tokenPath, r.URL.Path)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

			wantBasic := "Basic " + base64.StdEncoding.EncodeToString([]byte("client-id:client-secret"))
			assert.Equal(t, wantBasic, r.Header.Get("Authorization"))

			writeJSON(w, map[string]any{
				"dataHeader": map[string]any{"GW_RSLT_CD": "1200"},
				"dataBody":   map[string]any{"access_token": "cred-123", "expires_in": 3600},
			})
		}))

		cred, err := c.AcquireCredential(context.Background())
		require.NoError(t, err)
		assert.Equal(t, Credential("cred-123"), cred)
	})

	t.Run("gateway rejection is typed and not retryable", func(t *testing.T) {
		c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"dataHeader": map[string]any{"GW_RSLT_CD": "1300", "GW_RSLT_MSG": "invalid client"},
			})
		}))

		_, err := c.AcquireCredential(context.Background())
		var ge *GatewayError
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, LayerGateway, ge.Layer)
		assert.Equal(t, "1300", ge.Code)
		assert.False(t, ge.Retryable())
	})

	t.Run("transport failure is retryable", func(t *testing.T) {
		c, srv := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		_, err := c.AcquireCredential(context.Background())
		var ge *GatewayError
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, LayerTransport, ge.Layer)
		assert.True(t, ge.Retryable())
	})
}

func TestAuthorizationHeader(t *testing.T) {
	c := New(config.TrustProviderConfig{ClientID: "client-id"}, logger.New())

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	got := c.authorization("cred-123")
	want := "bearer " + base64.StdEncoding.EncodeToString(
		[]byte(fmt.Sprintf("cred-123:%d:client-id", fixed.Unix())))
	assert.Equal(t, want, got)

	// Freshness: a header built a second later must differ.
	c.now = func() time.Time { return fixed.Add(time.Second) }
	assert.NotEqual(t, got, c.authorization("cred-123"))
}

func TestIssueCryptoSession(t *testing.T) {
	t.Run("returns session on layered success", func(t *testing.T) {
		c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, cryptoSessionPath, r.URL.Path)

			var envelope struct {
				DataHeader struct {
					CountryCode string `json:"CNTY_CD"`
				} `json:"dataHeader"`
				DataBody struct {
					RequestDatetime string `json:"req_dtim"`
					RequestID       string `json:"req_no"`
					EncMode         string `json:"enc_mode"`
				} `json:"dataBody"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&envelope))
			assert.Equal(t, "ko", envelope.DataHeader.CountryCode)
			assert.Equal(t, "20260101123045", envelope.DataBody.RequestDatetime)

			writeJSON(w, map[string]any{
				"dataHeader": map[string]any{"GW_RSLT_CD": "1200"},
				"dataBody": map[string]any{
					"rsp_cd":           "P000",
					"token_version_id": "tv-1",
					"token_val":        "tok-val",
					"period":           3600,
				},
			})
		}))

		session, err := c.IssueCryptoSession(context.Background(), "cred", CryptoSessionRequest{
			RequestDatetime: "20260101123045",
			RequestID:       "req-1",
			EncMode:         "1",
		})
		require.NoError(t, err)
		assert.Equal(t, "tv-1", session.TokenVersionID)
		assert.Equal(t, "tok-val", session.TokenValue)
		assert.Equal(t, "20260101123045", session.RequestDatetime)
	})

	t.Run("business rejection short-circuits", func(t *testing.T) {
		c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"dataHeader": map[string]any{"GW_RSLT_CD": "1200"},
				"dataBody":   map[string]any{"rsp_cd": "P999"},
			})
		}))

		_, err := c.IssueCryptoSession(context.Background(), "cred", CryptoSessionRequest{})
		var ge *GatewayError
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, LayerBusiness, ge.Layer)
		assert.Equal(t, "P999", ge.Code)
	})
}

func TestSubmitVerification_ReturnsDomainCode(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, verificationPath, r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("Authorization"))
		writeJSON(w, map[string]any{
			"dataHeader": map[string]any{"GW_RSLT_CD": "1200"},
			"dataBody":   map[string]any{"rsp_cd": "P000", "result_cd": "2"},
		})
	}))

	code, err := c.SubmitVerification(context.Background(), "cred", VerificationRequest{
		TokenVersionID: "tv-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "2", code)
}

func TestCheckAccountHolder(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, accountHolderPath, r.URL.Path)
		writeJSON(w, map[string]any{
			"dataHeader": map[string]any{"GW_RSLT_CD": "1200"},
			"dataBody":   map[string]any{"rsp_cd": "P000", "result_cd": "0000"},
		})
	}))

	code, err := c.CheckAccountHolder(context.Background(), "cred", AccountHolderRequest{
		RequestID:     "req-2",
		BankCode:      "004",
		AccountNumber: "12345678901234",
		HolderName:    "홍길동",
	})
	require.NoError(t, err)
	assert.Equal(t, HolderConfirmed, code)
}

func TestGatewayError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := transportError("provider unreachable", cause)
	assert.ErrorIs(t, err, cause)
}

// Package provider implements the HTTP client for the external identity
// trust provider: credential acquisition, per-call bearer headers with a
// freshness timestamp, and the crypto-session, real-name, and account-holder
// endpoints with their three-layer response interpretation.
package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cashout/internal/platform/config"
)

const (
	tokenPath         = "/digital/niceid/oauth/oauth/token"
	cryptoSessionPath = "/digital/niceid/api/v1.0/common/crypto/token"
	verificationPath  = "/digital/niceid/api/v1.0/name/national/check"
	accountHolderPath = "/digital/niceid/api/v1.0/bank/account/holder"
)

// Credential is the ephemeral bearer value issued by the provider. It is
// re-acquired per orchestration run and never persisted; freshness of the
// derived header is checked provider-side at seconds granularity.
type Credential string

// Client talks to the trust provider. Credentials come from an explicitly
// constructed config so test and prod credential sets can coexist.
type Client struct {
	cfg    config.TrustProviderConfig
	http   *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// New builds a provider client from the given configuration.
func New(cfg config.TrustProviderConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
		now:    time.Now,
	}
}

// AcquireCredential performs the client-credentials grant against the
// provider's OAuth endpoint. Success is defined solely by the gateway result
// code; no retry happens here, the caller decides.
func (c *Client) AcquireCredential(ctx context.Context) (Credential, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", "default")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", transportError("build token request", err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ClientID + ":" + c.cfg.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", transportError("token endpoint unreachable", err)
	}
	defer resp.Body.Close()

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", transportError("decode token response", err)
	}
	if body.DataHeader.GatewayResultCode != gatewaySuccess {
		return "", gatewayError(body.DataHeader.GatewayResultCode, body.DataHeader.GatewayResultMessage)
	}
	if body.DataBody.AccessToken == "" {
		return "", gatewayError(body.DataHeader.GatewayResultCode, "token response carries no access token")
	}
	return Credential(body.DataBody.AccessToken), nil
}

// authorization builds the per-call bearer value. It embeds the current unix
// timestamp, so it must be built immediately before the call it signs and
// never cached.
func (c *Client) authorization(cred Credential) string {
	raw := fmt.Sprintf("%s:%d:%s", cred, c.now().Unix(), c.cfg.ClientID)
	return "bearer " + base64.StdEncoding.EncodeToString([]byte(raw))
}

// IssueCryptoSession requests a crypto session for one verification attempt.
func (c *Client) IssueCryptoSession(ctx context.Context, cred Credential, req CryptoSessionRequest) (*CryptoSession, error) {
	var out cryptoSessionResponse
	err := c.post(ctx, cred, cryptoSessionPath, cryptoSessionBody{
		RequestDatetime: req.RequestDatetime,
		RequestID:       req.RequestID,
		EncMode:         req.EncMode,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.DataBody.ResponseCode != businessSuccess {
		return nil, businessError(out.DataBody.ResponseCode, "crypto session refused")
	}
	return &CryptoSession{
		RequestDatetime: req.RequestDatetime,
		RequestID:       req.RequestID,
		TokenVersionID:  out.DataBody.TokenVersionID,
		TokenValue:      out.DataBody.TokenValue,
		ValidityPeriod:  out.DataBody.ValidityPeriod,
	}, nil
}

// SubmitVerification sends the encrypted identity fields plus integrity
// value and returns the raw domain result code once the transport, gateway,
// and business layers have all passed.
func (c *Client) SubmitVerification(ctx context.Context, cred Credential, req VerificationRequest) (string, error) {
	var out verificationResponse
	err := c.post(ctx, cred, verificationPath, verificationBody{
		TokenVersionID: req.TokenVersionID,
		EncryptedID:    req.EncryptedID,
		EncryptedName:  req.EncryptedName,
		IntegrityValue: req.IntegrityValue,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.DataBody.ResponseCode != businessSuccess {
		return "", businessError(out.DataBody.ResponseCode, "verification refused")
	}
	return out.DataBody.ResultCode, nil
}

// CheckAccountHolder submits the direct account/holder-name match and
// returns the raw domain result code (HolderConfirmed on success).
func (c *Client) CheckAccountHolder(ctx context.Context, cred Credential, req AccountHolderRequest) (string, error) {
	var out accountHolderResponse
	err := c.post(ctx, cred, accountHolderPath, accountHolderBody{
		RequestID:     req.RequestID,
		BankCode:      req.BankCode,
		AccountNumber: req.AccountNumber,
		HolderName:    req.HolderName,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.DataBody.ResponseCode != businessSuccess {
		return "", businessError(out.DataBody.ResponseCode, "account holder check refused")
	}
	return out.DataBody.ResultCode, nil
}

// post wraps one authenticated provider call: fresh bearer header, JSON
// envelope, transport and gateway layer checks. Business and domain layers
// are interpreted by the per-operation callers.
func (c *Client) post(ctx context.Context, cred Credential, path string, body any, out any) error {
	envelope := struct {
		DataHeader requestHeader `json:"dataHeader"`
		DataBody   any           `json:"dataBody"`
	}{
		DataHeader: requestHeader{CountryCode: c.cfg.CountryCode},
		DataBody:   body,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return transportError("encode request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return transportError("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authorization(cred))

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError("provider unreachable", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return transportError("decode provider response", err)
	}

	header := extractHeader(out)
	if header.GatewayResultCode != gatewaySuccess {
		c.logger.WarnContext(ctx, "trust provider gateway rejection",
			"path", path,
			"gw_rslt_cd", header.GatewayResultCode,
		)
		return gatewayError(header.GatewayResultCode, header.GatewayResultMessage)
	}
	return nil
}

func extractHeader(out any) responseHeader {
	switch v := out.(type) {
	case *cryptoSessionResponse:
		return v.DataHeader
	case *verificationResponse:
		return v.DataHeader
	case *accountHolderResponse:
		return v.DataHeader
	default:
		return responseHeader{}
	}
}

package provider

// Wire envelope for every trust-provider call. The provider layers three
// result codes: the gateway code on dataHeader, the business response code
// on dataBody, and an operation-specific domain code inside the body.
const (
	// gatewaySuccess is the dataHeader.GW_RSLT_CD value meaning the gateway
	// accepted and routed the call.
	gatewaySuccess = "1200"
	// businessSuccess is the dataBody.rsp_cd value meaning the provider
	// processed the business operation.
	businessSuccess = "P000"

	// HolderConfirmed is the domain code meaning account ownership checked out.
	HolderConfirmed = "0000"
)

type requestHeader struct {
	CountryCode string `json:"CNTY_CD"`
}

type responseHeader struct {
	GatewayResultCode    string `json:"GW_RSLT_CD"`
	GatewayResultMessage string `json:"GW_RSLT_MSG"`
}

// tokenResponse is the OAuth credential issue response.
type tokenResponse struct {
	DataHeader responseHeader `json:"dataHeader"`
	DataBody   struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
		Scope       string `json:"scope"`
	} `json:"dataBody"`
}

// CryptoSessionRequest carries the inputs of the token-issue step. The
// datetime and request id must be freshly generated per attempt.
type CryptoSessionRequest struct {
	RequestDatetime string
	RequestID       string
	EncMode         string
}

type cryptoSessionBody struct {
	RequestDatetime string `json:"req_dtim"`
	RequestID       string `json:"req_no"`
	EncMode         string `json:"enc_mode"`
}

// CryptoSession is the provider-issued session for one verification attempt.
// It lives only for that attempt and is never persisted.
type CryptoSession struct {
	RequestDatetime string
	RequestID       string
	TokenVersionID  string
	TokenValue      string
	ValidityPeriod  int64
}

type cryptoSessionResponse struct {
	DataHeader responseHeader `json:"dataHeader"`
	DataBody   struct {
		ResponseCode   string `json:"rsp_cd"`
		ResultCode     string `json:"result_cd"`
		SiteCode       string `json:"site_code"`
		TokenVersionID string `json:"token_version_id"`
		TokenValue     string `json:"token_val"`
		ValidityPeriod int64  `json:"period"`
	} `json:"dataBody"`
}

// VerificationRequest carries the ciphertexts and integrity value of the
// real-name check.
type VerificationRequest struct {
	TokenVersionID string
	EncryptedID    string
	EncryptedName  string
	IntegrityValue string
}

type verificationBody struct {
	TokenVersionID string `json:"token_version_id"`
	EncryptedID    string `json:"enc_jumin_id"`
	EncryptedName  string `json:"enc_name"`
	IntegrityValue string `json:"integrity_value"`
}

type verificationResponse struct {
	DataHeader responseHeader `json:"dataHeader"`
	DataBody   struct {
		ResponseCode string `json:"rsp_cd"`
		ResultCode   string `json:"result_cd"`
	} `json:"dataBody"`
}

// AccountHolderRequest carries the direct bank-ownership check inputs.
type AccountHolderRequest struct {
	RequestID     string
	BankCode      string
	AccountNumber string
	HolderName    string
}

type accountHolderBody struct {
	RequestID     string `json:"req_no"`
	BankCode      string `json:"bank_cd"`
	AccountNumber string `json:"acct_no"`
	HolderName    string `json:"acct_nm"`
}

type accountHolderResponse struct {
	DataHeader responseHeader `json:"dataHeader"`
	DataBody   struct {
		ResponseCode string `json:"rsp_cd"`
		ResultCode   string `json:"result_cd"`
	} `json:"dataBody"`
}

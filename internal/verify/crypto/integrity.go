package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	dErrors "cashout/pkg/domain-errors"
)

// IntegrityValue computes the keyed digest binding the two ciphertexts to a
// session token, base64 encoded. The provider recomputes it server-side to
// detect tampering or a mismatched session.
func IntegrityValue(tokenVersionID, encryptedID, encryptedName string, m *Material) (string, error) {
	if m == nil || len(m.MacKey) == 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "mac key is required")
	}
	payload := strings.TrimSpace(tokenVersionID) + strings.TrimSpace(encryptedID) + strings.TrimSpace(encryptedName)
	mac := hmac.New(sha256.New, m.MacKey)
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

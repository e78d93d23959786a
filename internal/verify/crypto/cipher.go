package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"

	"golang.org/x/text/encoding/korean"

	dErrors "cashout/pkg/domain-errors"
)

// EncryptField encrypts one plaintext under AES-CBC with PKCS#7 padding and
// returns the base64 ciphertext. The cipher variant follows the key length
// (16 bytes = AES-128, 32 = AES-256). Deterministic for identical inputs;
// the provider decrypts server-side, so no decrypt path exists here.
func EncryptField(plaintext []byte, m *Material) (string, error) {
	if m == nil || len(m.Key) == 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "key material is required")
	}
	block, err := aes.NewCipher(m.Key)
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "init cipher", err)
	}
	if len(m.IV) != block.BlockSize() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "iv length must match cipher block size")
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, m.IV).CryptBlocks(out, padded)
	return base64.StdEncoding.EncodeToString(out), nil
}

// EncryptName re-encodes a legal name into the provider's required legacy
// text encoding (EUC-KR) before encrypting it.
func EncryptName(name string, m *Material) (string, error) {
	encoded, err := korean.EUCKR.NewEncoder().Bytes([]byte(name))
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInvalidInput, "name is not representable in the provider encoding", err)
	}
	return EncryptField(encoded, m)
}

// EncryptIDNumber encrypts a national identification number. The value is
// ASCII digits, so no re-encoding happens.
func EncryptIDNumber(idNumber string, m *Material) (string, error) {
	return EncryptField([]byte(idNumber), m)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

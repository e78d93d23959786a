package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cashout/pkg/domain-errors"
)

const (
	testDatetime = "20260101123045"
	testReqID    = "REQ1234567890"
	testToken    = "dGVzdC10b2tlbi12YWx1ZQ=="
)

func TestDerive_Deterministic(t *testing.T) {
	first, err := Derive(testDatetime, testReqID, testToken, StrengthStandard)
	require.NoError(t, err)
	second, err := Derive(testDatetime, testReqID, testToken, StrengthStandard)
	require.NoError(t, err)

	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, first.IV, second.IV)
	assert.Equal(t, first.MacKey, second.MacKey)
}

func TestDerive_KeySizes(t *testing.T) {
	standard, err := Derive(testDatetime, testReqID, testToken, StrengthStandard)
	require.NoError(t, err)
	assert.Len(t, standard.Key, 16)
	assert.Len(t, standard.IV, 16)
	assert.Len(t, standard.MacKey, 32)

	strong, err := Derive(testDatetime, testReqID, testToken, StrengthStrong)
	require.NoError(t, err)
	assert.Len(t, strong.Key, 32)

	// Same digest backs both strengths; the standard key is its prefix.
	assert.Equal(t, standard.Key, strong.Key[:16])
}

func TestDerive_TrimsInputs(t *testing.T) {
	trimmed, err := Derive(testDatetime, testReqID, testToken, StrengthStandard)
	require.NoError(t, err)
	padded, err := Derive(" "+testDatetime+" ", "\t"+testReqID, testToken+"\n", StrengthStandard)
	require.NoError(t, err)
	assert.Equal(t, trimmed.Key, padded.Key)
}

func TestDerive_RejectsEmptyInputs(t *testing.T) {
	for _, tc := range []struct{ dtim, reqID, token string }{
		{"", testReqID, testToken},
		{testDatetime, "", testToken},
		{testDatetime, testReqID, ""},
		{"   ", testReqID, testToken},
	} {
		_, err := Derive(tc.dtim, tc.reqID, tc.token, StrengthStandard)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}

func TestDerive_UnknownStrength(t *testing.T) {
	_, err := Derive(testDatetime, testReqID, testToken, Strength("medium"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestMaterial_Zero(t *testing.T) {
	m, err := Derive(testDatetime, testReqID, testToken, StrengthStrong)
	require.NoError(t, err)
	m.Zero()
	assert.Nil(t, m.Key)
	assert.Nil(t, m.IV)
	assert.Nil(t, m.MacKey)
}

func TestEncryptField_Deterministic(t *testing.T) {
	m, err := Derive(testDatetime, testReqID, testToken, StrengthStandard)
	require.NoError(t, err)

	first, err := EncryptField([]byte("9001011234567"), m)
	require.NoError(t, err)
	second, err := EncryptField([]byte("9001011234567"), m)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEncryptField_EmptyAndNonASCII(t *testing.T) {
	m, err := Derive(testDatetime, testReqID, testToken, StrengthStrong)
	require.NoError(t, err)

	empty, err := EncryptField(nil, m)
	require.NoError(t, err)
	// PKCS#7 pads the empty plaintext to a full block.
	assert.NotEmpty(t, empty)

	_, err = EncryptField([]byte("ünïcode — 文"), m)
	require.NoError(t, err)
}

func TestEncryptName_LegacyEncoding(t *testing.T) {
	m, err := Derive(testDatetime, testReqID, testToken, StrengthStandard)
	require.NoError(t, err)

	hangul, err := EncryptName("홍길동", m)
	require.NoError(t, err)

	// Encrypting the raw UTF-8 bytes must differ: the provider expects EUC-KR.
	utf8, err := EncryptField([]byte("홍길동"), m)
	require.NoError(t, err)
	assert.NotEqual(t, hangul, utf8)

	// ASCII names are unchanged by the re-encoding.
	ascii, err := EncryptName("Hong Gil Dong", m)
	require.NoError(t, err)
	asciiRaw, err := EncryptField([]byte("Hong Gil Dong"), m)
	require.NoError(t, err)
	assert.Equal(t, ascii, asciiRaw)
}

func TestIntegrityValue_SensitiveToEveryInput(t *testing.T) {
	m, err := Derive(testDatetime, testReqID, testToken, StrengthStandard)
	require.NoError(t, err)

	base, err := IntegrityValue("tv1", "encid", "encname", m)
	require.NoError(t, err)

	changedToken, err := IntegrityValue("tv2", "encid", "encname", m)
	require.NoError(t, err)
	changedID, err := IntegrityValue("tv1", "encid2", "encname", m)
	require.NoError(t, err)
	changedName, err := IntegrityValue("tv1", "encid", "encname2", m)
	require.NoError(t, err)

	assert.NotEqual(t, base, changedToken)
	assert.NotEqual(t, base, changedID)
	assert.NotEqual(t, base, changedName)
}

func TestIntegrityValue_TrimsInputs(t *testing.T) {
	m, err := Derive(testDatetime, testReqID, testToken, StrengthStandard)
	require.NoError(t, err)

	a, err := IntegrityValue("tv1", "encid", "encname", m)
	require.NoError(t, err)
	b, err := IntegrityValue(" tv1 ", "encid\n", "\tencname", m)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

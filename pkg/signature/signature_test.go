package signature

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"

	selferrors "github.com/flanksource/selfupdate/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildKeyBlob(t *testing.T, keyID [8]byte, pub ed25519.PublicKey) string {
	t.Helper()
	raw := make([]byte, 0, keyLen)
	raw = append(raw, 'E', 'd')
	raw = append(raw, keyID[:]...)
	raw = append(raw, pub...)
	return base64.StdEncoding.EncodeToString(raw)
}

func buildSigText(t *testing.T, keyID [8]byte, sig []byte) string {
	t.Helper()
	raw := make([]byte, 0, blobLen)
	raw = append(raw, 'E', 'd')
	raw = append(raw, keyID[:]...)
	raw = append(raw, sig...)
	b64 := base64.StdEncoding.EncodeToString(raw)
	return "untrusted comment: signature\n" + b64 + "\ntrusted comment: extra\n" + base64.StdEncoding.EncodeToString([]byte("ignored")) + "\n"
}

func TestVerifier_ValidSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	keyID := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	artifact := []byte("the artifact bytes")
	sig := ed25519.Sign(priv, artifact)

	v, err := NewVerifier(buildKeyBlob(t, keyID, pub), buildSigText(t, keyID, sig))
	require.NoError(t, err)

	n, err := v.Write(artifact)
	require.NoError(t, err)
	assert.Equal(t, len(artifact), n)

	require.NoError(t, v.Verify())
}

func TestVerifier_MutatedArtifactFails(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	keyID := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	artifact := []byte("the artifact bytes")
	sig := ed25519.Sign(priv, artifact)

	v, err := NewVerifier(buildKeyBlob(t, keyID, pub), buildSigText(t, keyID, sig))
	require.NoError(t, err)

	_, err = v.Write([]byte("the ARTIFACT bytes"))
	require.NoError(t, err)

	err = v.Verify()
	require.Error(t, err)
	assert.True(t, selferrors.Is(err, selferrors.SignatureInvalid))
}

func TestNewVerifier_KeyMismatch(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	sigKeyID := [8]byte{1, 1, 1, 1, 1, 1, 1, 1}
	pubKeyID := [8]byte{2, 2, 2, 2, 2, 2, 2, 2}
	artifact := []byte("data")
	sig := ed25519.Sign(priv, artifact)

	_, err = NewVerifier(buildKeyBlob(t, pubKeyID, pub), buildSigText(t, sigKeyID, sig))
	require.Error(t, err)
	assert.True(t, selferrors.Is(err, selferrors.KeyMismatch))
}

func TestParseSignature_MalformedBase64(t *testing.T) {
	_, err := ParseSignature("untrusted comment: x\nnot-valid-base64!!!\n")
	require.Error(t, err)
	assert.True(t, selferrors.Is(err, selferrors.MalformedSignature))
}

func TestParseSignature_WrongAlgorithm(t *testing.T) {
	raw := make([]byte, blobLen)
	raw[0], raw[1] = 'E', 'D' // prehashed variant, not supported per spec
	text := base64.StdEncoding.EncodeToString(raw)
	_, err := ParseSignature(text)
	require.Error(t, err)
	assert.True(t, selferrors.Is(err, selferrors.MalformedSignature))
}

func TestParsePublicKey_BadLength(t *testing.T) {
	_, err := ParsePublicKey(base64.StdEncoding.EncodeToString([]byte("too short")))
	require.Error(t, err)
	assert.True(t, selferrors.Is(err, selferrors.Config))
}

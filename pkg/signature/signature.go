// Package signature implements a minisign-legacy-compatible, streaming
// Ed25519 verifier for downloaded artifacts.
package signature

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"strings"

	selferrors "github.com/flanksource/selfupdate/pkg/errors"
)

const (
	blobLen   = 74 // 2 (algo) + 8 (key id) + 64 (signature)
	keyLen    = 42 // 2 (algo) + 8 (key id) + 32 (public key)
	algoEd    = "Ed"
)

// Blob is the decoded binary payload of a minisign-legacy signature
// line: [signature_algorithm(2) | key_id(8) | signature(64)].
type Blob struct {
	Algo      [2]byte
	KeyID     [8]byte
	Signature [64]byte
}

// PublicKey is the decoded binary payload of the base64 pubkey in
// Configuration: [signature_algorithm(2) | key_id(8) | public_key(32)].
type PublicKey struct {
	Algo  [2]byte
	KeyID [8]byte
	Key   ed25519.PublicKey
}

// ParseSignature decodes the textual .sig content. Blank lines and
// comment lines (starting with "#" or "untrusted comment:") are
// skipped; the first remaining line is decoded as the base64 artifact
// signature. Any later lines (such as a trusted comment and its global
// signature) are neither required nor checked.
func ParseSignature(text string) (Blob, error) {
	var b64Lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "untrusted comment:") {
			continue
		}
		b64Lines = append(b64Lines, line)
	}
	if len(b64Lines) < 1 {
		return Blob{}, selferrors.New(selferrors.MalformedSignature, "signature file has no base64 data")
	}

	raw, err := base64.StdEncoding.DecodeString(b64Lines[0])
	if err != nil {
		return Blob{}, selferrors.Wrap(selferrors.MalformedSignature, "signature line is not valid base64", err)
	}
	if len(raw) != blobLen {
		return Blob{}, selferrors.New(selferrors.MalformedSignature, "signature blob has unexpected length")
	}

	var b Blob
	copy(b.Algo[:], raw[0:2])
	copy(b.KeyID[:], raw[2:10])
	copy(b.Signature[:], raw[10:74])

	if string(b.Algo[:]) != algoEd {
		return Blob{}, selferrors.New(selferrors.MalformedSignature, "unsupported signature algorithm (expected pure Ed25519 'Ed')")
	}

	return b, nil
}

// ParsePublicKey decodes the base64 public key string from
// Configuration.
func ParsePublicKey(b64 string) (PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return PublicKey{}, selferrors.Wrap(selferrors.Config, "public key is not valid base64", err)
	}
	if len(raw) != keyLen {
		return PublicKey{}, selferrors.New(selferrors.Config, "public key blob has unexpected length")
	}

	var pk PublicKey
	copy(pk.Algo[:], raw[0:2])
	copy(pk.KeyID[:], raw[2:10])
	pk.Key = append(ed25519.PublicKey(nil), raw[10:42]...)

	if string(pk.Algo[:]) != algoEd {
		return PublicKey{}, selferrors.New(selferrors.Config, "unsupported public key algorithm (expected pure Ed25519 'Ed')")
	}

	return pk, nil
}

// Verifier accumulates artifact bytes written to it (the fetcher
// streams the response body straight into it) and verifies them
// against a minisign signature once the artifact has been fully
// received. Pure Ed25519 signs the whole message rather than a digest,
// so the bytes must be held until Verify is called; that buffer is
// also the copy handed on to the installer via Bytes, so the artifact
// is read from the network once and held in memory once.
type Verifier struct {
	pub PublicKey
	sig Blob
	buf bytes.Buffer
}

// NewVerifier decodes the public key and signature and confirms their
// key ids match before any artifact bytes are read, so a KeyMismatch is
// reported before any network I/O for the artifact itself begins.
func NewVerifier(pubkeyB64, sigText string) (*Verifier, error) {
	pub, err := ParsePublicKey(pubkeyB64)
	if err != nil {
		return nil, err
	}
	sig, err := ParseSignature(sigText)
	if err != nil {
		return nil, err
	}
	if sig.KeyID != pub.KeyID {
		return nil, selferrors.New(selferrors.KeyMismatch, "signature key id does not match configured public key")
	}
	return &Verifier{pub: pub, sig: sig}, nil
}

// Write implements io.Writer, accumulating artifact bytes as they are
// streamed from the network.
func (v *Verifier) Write(p []byte) (int, error) {
	return v.buf.Write(p)
}

// Verify checks the accumulated bytes against the signature. Call this
// only after the full artifact has been written.
func (v *Verifier) Verify() error {
	if !ed25519.Verify(v.pub.Key, v.buf.Bytes(), v.sig.Signature[:]) {
		return selferrors.New(selferrors.SignatureInvalid, "artifact signature verification failed")
	}
	return nil
}

// Bytes returns the accumulated artifact bytes, valid after Verify
// succeeds.
func (v *Verifier) Bytes() []byte {
	return v.buf.Bytes()
}

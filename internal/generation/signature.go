package generation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/phrazzld/montage-api/internal/domain"
)

const signaturePrefix = "sha256="

// SignatureVerifier checks webhook signatures. With an empty secret it only
// requires the signature to be present.
type SignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier creates a verifier for secret.
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Enforcing reports whether signatures are checked against the body.
func (v *SignatureVerifier) Enforcing() bool {
	return len(v.secret) > 0
}

// Verify checks signature against body. It returns domain.ErrMissingSignature
// for an empty signature and domain.ErrInvalidSignature on mismatch.
func (v *SignatureVerifier) Verify(signature string, body []byte) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return domain.ErrMissingSignature
	}
	if !v.Enforcing() {
		return nil
	}

	got, err := hex.DecodeString(strings.TrimPrefix(signature, signaturePrefix))
	if err != nil {
		return domain.ErrInvalidSignature
	}
	if !hmac.Equal(got, v.sum(body)) {
		return domain.ErrInvalidSignature
	}
	return nil
}

// Sign returns the header value a provider would send for body.
func (v *SignatureVerifier) Sign(body []byte) string {
	return signaturePrefix + hex.EncodeToString(v.sum(body))
}

func (v *SignatureVerifier) sum(body []byte) []byte {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return mac.Sum(nil)
}

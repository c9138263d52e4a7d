package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/montage-api/internal/domain"
)

func TestSignatureVerifier(t *testing.T) {
	t.Parallel()

	body := []byte(`{"id":"task-1","status":"RUNNING","progress":0.4}`)
	v := NewSignatureVerifier("whsec_test")
	valid := v.Sign(body)

	tests := []struct {
		name      string
		verifier  *SignatureVerifier
		signature string
		body      []byte
		expected  error
	}{
		{"valid_prefixed", v, valid, body, nil},
		{"valid_bare_hex", v, valid[len("sha256="):], body, nil},
		{"missing", v, "", body, domain.ErrMissingSignature},
		{"whitespace_only", v, "   ", body, domain.ErrMissingSignature},
		{"tampered_body", v, valid, []byte(`{"id":"task-1","status":"SUCCEEDED"}`), domain.ErrInvalidSignature},
		{"not_hex", v, "sha256=zzzz", body, domain.ErrInvalidSignature},
		{"wrong_secret", NewSignatureVerifier("other"), valid, body, domain.ErrInvalidSignature},
		{"presence_only", NewSignatureVerifier(""), "anything", body, nil},
		{"presence_only_missing", NewSignatureVerifier(""), "", body, domain.ErrMissingSignature},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.verifier.Verify(tc.signature, tc.body)
			if tc.expected == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.expected)
			assert.ErrorIs(t, err, domain.ErrAuth)
		})
	}

	assert.True(t, v.Enforcing())
	assert.False(t, NewSignatureVerifier("").Enforcing())
}

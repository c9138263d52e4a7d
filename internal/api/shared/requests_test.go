package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	var v struct {
		ID string `json:"id"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"id":"abc","unknown":1}`))
	require.NoError(t, DecodeJSON(req, &v))
	assert.Equal(t, "abc", v.ID)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	assert.True(t, errors.Is(DecodeJSON(req, &v), ErrEmptyBody))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"id":`))
	err := DecodeJSON(req, &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON body")
}

func TestReadBody_Limit(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ok":true}`))
	body, err := ReadBody(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(body))

	big := strings.Repeat("a", MaxBodyBytes+1)
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	_, err = ReadBody(httptest.NewRecorder(), req)
	assert.Error(t, err)
}

package tts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAPIClient_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "voice not found", http.StatusNotFound)
	}))
	defer server.Close()

	c := newAPIClient(server.URL, zap.NewNop())
	body, err := c.get(context.Background(), "/voices/x")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Contains(t, string(body), "voice not found")
	assert.Contains(t, err.Error(), "404")
}

func TestAPIClient_Validate(t *testing.T) {
	assert.NoError(t, newAPIClient("http://localhost:5000/", zap.NewNop()).validate())
	assert.Error(t, newAPIClient("localhost:5000", zap.NewNop()).validate())
	assert.Error(t, newAPIClient("", zap.NewNop()).validate())
}

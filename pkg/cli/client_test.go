package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_TrailingSlash(t *testing.T) {
	c := NewClient("http://localhost:8080/")
	assert.Equal(t, "http://localhost:8080", c.BaseURL)
}

func TestNewClient_SetsTimeout(t *testing.T) {
	c := NewClient("http://localhost:8080")
	require.NotNil(t, c.HTTPClient)
	assert.Equal(t, 60*time.Second, c.HTTPClient.Timeout)
}

func TestClient_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":`))
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL).Prices(context.Background(), 7)
	require.ErrorContains(t, err, "decode response")
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(srv.URL).Prices(ctx, 7)
	require.ErrorIs(t, err, context.Canceled)
}

func TestAPIError_EmptyBody(t *testing.T) {
	err := apiError(http.StatusInternalServerError, nil)
	assert.Equal(t, "API error (HTTP 500): Internal Server Error", err.Error())
}

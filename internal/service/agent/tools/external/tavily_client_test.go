package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavilyClient_DefaultsMaxResults(t *testing.T) {
	var got tavilyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	resp, err := NewTavilyClientWithConfig("k", server.URL, time.Second).Search(context.Background(), "q", SearchOptions{})

	require.NoError(t, err)
	assert.Equal(t, 5, got.MaxResults)
	assert.Empty(t, resp.Results)
}

func TestTavilyClient_NotConfigured(t *testing.T) {
	_, err := NewTavilyClient("").Search(context.Background(), "q", SearchOptions{})

	assert.ErrorIs(t, err, ErrSearchNotConfigured)
}

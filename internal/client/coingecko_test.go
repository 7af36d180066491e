package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSOLtoUSDRate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "solana", r.URL.Query().Get("ids"))
		_, _ = w.Write([]byte(`{"solana":{"usd":142.57}}`))
	}))
	defer srv.Close()

	rate, err := NewCoinGeckoClient(srv.URL).GetSOLtoUSDRate(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 142.57, rate, 1e-9)
}

func TestGetSOLtoUSDRateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"bad status", http.StatusTooManyRequests, `{}`, "status 429"},
		{"bad body", http.StatusOK, `{"solana":`, "failed to decode rate"},
		{"missing quote", http.StatusOK, `{}`, "no SOL/USD quote"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewCoinGeckoClient(srv.URL).GetSOLtoUSDRate(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

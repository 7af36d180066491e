package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexZinkM/belpy-mint/internal/handler"
	"github.com/AlexZinkM/belpy-mint/internal/mint"
	"github.com/AlexZinkM/belpy-mint/internal/mintconfig"
	"github.com/AlexZinkM/belpy-mint/internal/model"
	"github.com/AlexZinkM/belpy-mint/internal/nft"
	"github.com/AlexZinkM/belpy-mint/internal/wallet"
)

type staticSource struct{}

func (staticSource) Fetch(context.Context) (mintconfig.Snapshot, error) {
	return mintconfig.Snapshot{"collectionName": "BELPY"}, nil
}

type emptySource struct{}

func (emptySource) ListNFTs(context.Context, string) ([]model.NftItem, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) http.Handler {
	session := wallet.NewManager(wallet.Config{
		Store: wallet.NewFileStore(filepath.Join(t.TempDir(), "session.json")),
	})
	cfg := mintconfig.NewService(staticSource{}, nil)
	flow := mint.NewFlow(&mint.SimulatedMinter{}, cfg, nil)
	nfts := nft.NewService(nft.Config{Source: emptySource{}})

	return SetupRouter(Handlers{
		Config:  handler.NewConfigHandler(cfg, nil),
		NFTs:    handler.NewNftHandler(nfts, nil, nil),
		Session: handler.NewSessionHandler(session, nil),
		Mint:    handler.NewMintHandler(flow, session, nil),
	})
}

func TestRoutes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		status int
		body   string
	}{
		{http.MethodGet, "/api/config", http.StatusOK, `"success":true`},
		{http.MethodGet, "/api/nfts/Wal1etAddrXYZ", http.StatusOK, `"nfts":[]`},
		{http.MethodGet, "/api/nfts/", http.StatusBadRequest, `"success":false`},
		{http.MethodGet, "/api/session", http.StatusOK, `"isConnected":false`},
		{http.MethodPost, "/api/session/disconnect", http.StatusOK, `"isConnected":false`},
		{http.MethodGet, "/api/session/qr", http.StatusNotFound, "no wallet connected"},
		{http.MethodGet, "/api/mint", http.StatusOK, `"state":"idle"`},
		{http.MethodPost, "/api/mint/cancel", http.StatusOK, `"state":"idle"`},
		{http.MethodPost, "/api/config", http.StatusMethodNotAllowed, "Method not allowed"},
		{http.MethodGet, "/api/unknown", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			require.Equal(t, tt.status, rec.Code)
			assert.True(t, strings.Contains(rec.Body.String(), tt.body), rec.Body.String())
		})
	}
}

func TestSwaggerDoc(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/nfts/{address}")
}

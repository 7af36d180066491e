package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/AlexZinkM/belpy-mint/internal/logging"
	"github.com/AlexZinkM/belpy-mint/internal/model"
	"github.com/AlexZinkM/belpy-mint/internal/nft"
)

// NftLister looks up the NFTs of an address.
type NftLister interface {
	GetUserNfts(ctx context.Context, address string) nft.Result
	Refresh(ctx context.Context, address string) nft.Result
}

// NftHandler serves the NFT gallery of a wallet
type NftHandler struct {
	nfts     NftLister
	validate func(string) error
	logger   *zap.Logger
}

// NewNftHandler creates a new NftHandler. validate rejects malformed addresses.
func NewNftHandler(nfts NftLister, validate func(string) error, logger *zap.Logger) *NftHandler {
	return &NftHandler{nfts: nfts, validate: validate, logger: logging.OrNop(logger)}
}

// ListNFTs handles GET /api/nfts/{address}
// @Summary      List NFTs owned by a wallet
// @Description  Returns the collection NFTs held by address. Cached results may be stale for up to the cache timeout; pass refresh=true to bypass the cache.
// @Tags         nfts
// @Produce      json
// @Param        address  path      string  true   "Wallet address"
// @Param        refresh  query     bool    false  "Bypass the cache"
// @Success      200      {object}  model.NftListResponse
// @Failure      400      {object}  model.NftListResponse
// @Failure      500      {object}  model.NftListResponse
// @Router       /api/nfts/{address} [get]
func (h *NftHandler) ListNFTs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	address := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/nfts"), "/"))
	if address == "" || strings.Contains(address, "/") {
		writeJSON(w, http.StatusBadRequest, model.NftListResponse{Success: false, NFTs: []model.NftRecord{}})
		return
	}
	if h.validate != nil {
		if err := h.validate(address); err != nil {
			h.logger.Debug("rejected nft lookup", zap.String("address", address), zap.Error(err))
			writeJSON(w, http.StatusBadRequest, model.NftListResponse{Success: false, NFTs: []model.NftRecord{}})
			return
		}
	}

	var res nft.Result
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		res = h.nfts.Refresh(r.Context(), address)
	} else {
		res = h.nfts.GetUserNfts(r.Context(), address)
	}

	if !res.Success {
		writeJSON(w, http.StatusInternalServerError, model.NftListResponse{Success: false, NFTs: []model.NftRecord{}})
		return
	}
	writeJSON(w, http.StatusOK, model.NftListResponse{Success: true, NFTs: res.NFTs})
}

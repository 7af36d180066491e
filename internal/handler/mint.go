package handler

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/AlexZinkM/belpy-mint/internal/logging"
	"github.com/AlexZinkM/belpy-mint/internal/mint"
	"github.com/AlexZinkM/belpy-mint/internal/mintconfig"
	"github.com/AlexZinkM/belpy-mint/internal/model"
	"github.com/AlexZinkM/belpy-mint/internal/wallet"
)

// MintFlow is the mint state machine as seen by the HTTP layer.
type MintFlow interface {
	Confirm(ctx context.Context) error
	Cancel() error
	Submit(req mint.Request) (uint64, error)
	Status() mint.Status
}

// WalletSigner exposes the connected wallet to the mint handler.
type WalletSigner interface {
	Account() (string, wallet.Provider)
}

// MintHandler drives the mint flow
type MintHandler struct {
	flow    MintFlow
	session WalletSigner
	logger  *zap.Logger
}

// NewMintHandler creates a new MintHandler
func NewMintHandler(flow MintFlow, session WalletSigner, logger *zap.Logger) *MintHandler {
	return &MintHandler{flow: flow, session: session, logger: logging.OrNop(logger)}
}

// GetStatus handles GET /api/mint
// @Summary      Mint status
// @Description  Returns the mint state and, once finished, its outcome
// @Tags         mint
// @Produce      json
// @Success      200  {object}  mint.Status
// @Router       /api/mint [get]
func (h *MintHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, h.flow.Status())
}

// Confirm handles POST /api/mint/confirm
// @Summary      Open the mint confirmation
// @Description  Starts a new mint cycle. Requires the mint configuration.
// @Tags         mint
// @Produce      json
// @Success      200  {object}  mint.Status
// @Failure      409  {object}  model.ErrorResponse
// @Failure      502  {object}  model.ErrorResponse
// @Router       /api/mint/confirm [post]
func (h *MintHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if err := h.flow.Confirm(r.Context()); err != nil {
		h.writeMintError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.flow.Status())
}

// Cancel handles POST /api/mint/cancel
// @Summary      Cancel or close the mint dialog
// @Description  Returns to idle. Rejected while a mint is in progress.
// @Tags         mint
// @Produce      json
// @Success      200  {object}  mint.Status
// @Failure      409  {object}  model.ErrorResponse
// @Router       /api/mint/cancel [post]
func (h *MintHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if err := h.flow.Cancel(); err != nil {
		h.writeMintError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.flow.Status())
}

// Submit handles POST /api/mint/submit
// @Summary      Submit the mint
// @Description  Mints for the connected wallet. Poll GET /api/mint for the outcome.
// @Tags         mint
// @Produce      json
// @Success      202  {object}  model.MintSubmitResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /api/mint/submit [post]
func (h *MintHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	owner, p := h.session.Account()
	req := mint.Request{Owner: owner}
	if p != nil {
		req.Signer = p
	}

	attempt, err := h.flow.Submit(req)
	if err != nil {
		h.writeMintError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, model.MintSubmitResponse{Attempt: attempt, State: h.flow.Status().State})
}

func (h *MintHandler) writeMintError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mint.ErrMintInProgress):
		writeError(w, http.StatusConflict, err.Error(), "MINT_IN_PROGRESS")
	case errors.Is(err, mint.ErrNotConfirming):
		writeError(w, http.StatusConflict, err.Error(), "MINT_NOT_CONFIRMED")
	case errors.Is(err, mint.ErrWalletRequired):
		writeError(w, http.StatusConflict, err.Error(), "WALLET_REQUIRED")
	case errors.Is(err, mintconfig.ErrConfigFetchFailed):
		h.logger.Warn("mint blocked by config", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error(), "CONFIG_FETCH_FAILED")
	default:
		h.logger.Error("mint action failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error(), "")
	}
}

package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/AlexZinkM/belpy-mint/internal/logging"
	"github.com/AlexZinkM/belpy-mint/internal/model"
	"github.com/AlexZinkM/belpy-mint/internal/wallet"
)

const qrSize = 256

// Session is the wallet session as seen by the HTTP layer.
type Session interface {
	Snapshot() wallet.Snapshot
	Connect(ctx context.Context, t wallet.Type) (string, error)
	Disconnect(ctx context.Context) error
	RefreshBalance(ctx context.Context) error
}

// SessionHandler exposes the wallet session read model and actions
type SessionHandler struct {
	session Session
	logger  *zap.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(session Session, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{session: session, logger: logging.OrNop(logger)}
}

// GetSession handles GET /api/session
// @Summary      Get wallet session
// @Description  Returns the session read model. Never blocks on network calls.
// @Tags         session
// @Produce      json
// @Success      200  {object}  wallet.Snapshot
// @Router       /api/session [get]
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// Connect handles POST /api/session/connect
// @Summary      Connect wallet
// @Description  Connects the wallet provider of the given type
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        request  body      model.ConnectRequest  true  "Wallet type"
// @Success      200      {object}  wallet.Snapshot
// @Failure      400      {object}  model.ErrorResponse
// @Failure      403      {object}  model.ErrorResponse
// @Failure      404      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Failure      502      {object}  model.ErrorResponse
// @Router       /api/session/connect [post]
func (h *SessionHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req model.ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	if strings.TrimSpace(req.Type) == "" {
		writeError(w, http.StatusBadRequest, "type is required", "")
		return
	}

	t, ok := wallet.ParseType(req.Type)
	if !ok {
		t = wallet.Type(req.Type)
	}
	if _, err := h.session.Connect(r.Context(), t); err != nil {
		status, code := sessionStatus(err)
		writeError(w, status, err.Error(), code)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// Disconnect handles POST /api/session/disconnect
// @Summary      Disconnect wallet
// @Description  Ends the session. Always succeeds unless a connect is in progress.
// @Tags         session
// @Produce      json
// @Success      200  {object}  wallet.Snapshot
// @Failure      409  {object}  model.ErrorResponse
// @Router       /api/session/disconnect [post]
func (h *SessionHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if err := h.session.Disconnect(r.Context()); err != nil {
		status, code := sessionStatus(err)
		writeError(w, status, err.Error(), code)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// RefreshBalance handles POST /api/session/balance
// @Summary      Refresh wallet balance
// @Description  Reloads the balance of the connected address. No-op when nothing is connected.
// @Tags         session
// @Produce      json
// @Success      200  {object}  wallet.Snapshot
// @Failure      502  {object}  model.ErrorResponse
// @Router       /api/session/balance [post]
func (h *SessionHandler) RefreshBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if err := h.session.RefreshBalance(r.Context()); err != nil {
		h.logger.Warn("balance refresh failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to refresh balance", "")
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// QRCode handles GET /api/session/qr
// @Summary      Connected address as QR code
// @Description  Returns a PNG QR code of the connected wallet address
// @Tags         session
// @Produce      png
// @Success      200
// @Failure      404  {object}  model.ErrorResponse
// @Router       /api/session/qr [get]
func (h *SessionHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	snap := h.session.Snapshot()
	if !snap.IsConnected {
		writeError(w, http.StatusNotFound, "no wallet connected", "")
		return
	}

	png, err := qrcode.Encode(snap.Address, qrcode.Medium, qrSize)
	if err != nil {
		h.logger.Error("failed to generate QR code", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate QR code", "")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

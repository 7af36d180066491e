package api

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/AlexZinkM/belpy-mint/docs"
	"github.com/AlexZinkM/belpy-mint/internal/handler"
	"github.com/AlexZinkM/belpy-mint/internal/logging"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Config  *handler.ConfigHandler
	NFTs    *handler.NftHandler
	Session *handler.SessionHandler
	Mint    *handler.MintHandler
	Logger  *zap.Logger
}

// SetupRouter sets up router with handlers
func SetupRouter(h Handlers) http.Handler {
	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Mint configuration
	mux.HandleFunc("/api/config", h.Config.GetConfig)

	// NFT gallery
	mux.HandleFunc("/api/nfts/", h.NFTs.ListNFTs)

	// Wallet session
	mux.HandleFunc("/api/session", h.Session.GetSession)
	mux.HandleFunc("/api/session/connect", h.Session.Connect)
	mux.HandleFunc("/api/session/disconnect", h.Session.Disconnect)
	mux.HandleFunc("/api/session/balance", h.Session.RefreshBalance)
	mux.HandleFunc("/api/session/qr", h.Session.QRCode)

	// Mint flow
	mux.HandleFunc("/api/mint", h.Mint.GetStatus)
	mux.HandleFunc("/api/mint/confirm", h.Mint.Confirm)
	mux.HandleFunc("/api/mint/cancel", h.Mint.Cancel)
	mux.HandleFunc("/api/mint/submit", h.Mint.Submit)

	return logRequests(logging.OrNop(h.Logger), mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

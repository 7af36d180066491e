package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/AlexZinkM/belpy-mint/internal/logging"
	"github.com/AlexZinkM/belpy-mint/internal/mintconfig"
)

// ConfigGetter supplies the mint configuration.
type ConfigGetter interface {
	Get(ctx context.Context) (mintconfig.Snapshot, error)
}

// ConfigHandler serves the candy machine configuration
type ConfigHandler struct {
	config ConfigGetter
	logger *zap.Logger
}

// NewConfigHandler creates a new ConfigHandler
func NewConfigHandler(config ConfigGetter, logger *zap.Logger) *ConfigHandler {
	return &ConfigHandler{config: config, logger: logging.OrNop(logger)}
}

// GetConfig handles GET /api/config
// @Summary      Get mint configuration
// @Description  Returns the candy machine parameters, fetched once per process
// @Tags         config
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]interface{}
// @Router       /api/config [get]
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	snap, err := h.config.Get(r.Context())
	if err != nil {
		h.logger.Error("config unavailable", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]any{"success": false, "error": err.Error()})
		return
	}

	resp := make(map[string]any, len(snap)+1)
	for k, v := range snap {
		resp[k] = v
	}
	resp["success"] = true
	writeJSON(w, http.StatusOK, resp)
}

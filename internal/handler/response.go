package handler

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/AlexZinkM/belpy-mint/internal/model"
	"github.com/AlexZinkM/belpy-mint/internal/wallet"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg, Code: code})
}

func methodNotAllowed(w http.ResponseWriter, method string) {
	http.Error(w, "Method not allowed. Should be "+method, http.StatusMethodNotAllowed)
}

// sessionStatus maps a session error kind to an HTTP status
func sessionStatus(err error) (int, string) {
	var se *wallet.SessionError
	if !errors.As(err, &se) {
		return http.StatusInternalServerError, string(wallet.KindProviderError)
	}
	switch se.Kind {
	case wallet.KindWalletUnavailable:
		return http.StatusNotFound, string(se.Kind)
	case wallet.KindUserRejected:
		return http.StatusForbidden, string(se.Kind)
	case wallet.KindSessionBusy, wallet.KindAlreadyConnected:
		return http.StatusConflict, string(se.Kind)
	default:
		return http.StatusBadGateway, string(se.Kind)
	}
}

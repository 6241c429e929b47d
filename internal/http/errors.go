package http

import (
	"encoding/json"
	"net/http"
)

// APIError es el error que ve el cliente. Los fallos de provider nunca
// filtran texto interno: siempre un mensaje genérico.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (e APIError) WithDetail(msg string) APIError {
	e.Message = msg
	return e
}

var (
	ErrBadRequest       = APIError{Status: http.StatusBadRequest, Code: "bad_request"}
	ErrNoSession        = APIError{Status: http.StatusUnauthorized, Code: "no_session"}
	ErrReauthRequired   = APIError{Status: http.StatusUnauthorized, Code: "reauthentication_required"}
	ErrLoginFailed      = APIError{Status: http.StatusBadGateway, Code: "login_failed", Message: "Unable to log in."}
	ErrValidationFailed = APIError{Status: http.StatusUnprocessableEntity, Code: "validation_failed"}
	ErrInternal         = APIError{Status: http.StatusInternalServerError, Code: "internal_error"}
)

// WriteError escribe un APIError como JSON.
func WriteError(w http.ResponseWriter, e APIError) {
	WriteJSON(w, e.Status, e)
}

// WriteJSON escribe un payload JSON con status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

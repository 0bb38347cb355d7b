package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/grantsuite/accessgate/internal/auth"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Responder writes errors as {"error": "..."} with the status carried by err.
// Wrapped detail is only included outside production.
type Responder struct {
	Production bool
	Logger     *zap.Logger
}

// WriteError writes err. Server-side failures are logged.
func (rs Responder) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := auth.HTTPStatus(err)
	if status >= http.StatusInternalServerError && rs.Logger != nil {
		rs.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	WriteJSON(w, status, ErrorBody{Error: auth.PublicMessage(err, rs.Production)})
}

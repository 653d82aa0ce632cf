package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	errors "github.com/licensepro/backend/internal"
	"github.com/licensepro/backend/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.L()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Error("http error", "status", status, "message", message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errorResp := map[string]interface{}{
		"code":    status,
		"message": message,
	}

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		h.Logger.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes a typed application error with its mapped status.
// Security errors are logged in full but answered with a generic body so
// callers learn nothing about signature internals.
func (h *BaseHandler) HandleError(w http.ResponseWriter, appErr *errors.AppError) {
	if appErr == nil {
		h.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if appErr.Type == errors.ErrorTypeSecurity {
		h.Logger.Warn("security error",
			"code", appErr.Code,
			"message", appErr.Message)
		h.WriteError(w, appErr.StatusCode, "request rejected")
		return
	}

	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// HandleServiceError maps any error from a service call to an HTTP
// response, treating unknown errors as internal.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := errors.IsAppError(err); ok {
		h.HandleError(w, appErr)
		return
	}

	h.Logger.Error("unexpected service error", "error", err)
	h.WriteError(w, http.StatusInternalServerError, "internal error")
}

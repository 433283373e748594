package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	errors "github.com/sekreterlik/sekreterlik/internal"
	"github.com/sekreterlik/sekreterlik/pkg/logger"
)

// BaseHandler is embedded by every feature handler for JSON and error rendering.
type BaseHandler struct {
	Logger *slog.Logger
}

func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &BaseHandler{Logger: lg}
}

// Log returns the request-scoped logger installed by the logging middleware,
// or the handler's own logger outside a request.
func (h *BaseHandler) Log(r *http.Request) *slog.Logger {
	if lg, ok := logger.Lookup(r.Context()); ok {
		return lg
	}
	return h.Logger
}

func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError renders {"code": status, "message": message}.
func (h *BaseHandler) WriteError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.Log(r).Error("http error", "status", status, "message", message)
	h.WriteJSON(w, status, map[string]interface{}{"code": status, "message": message})
}

// HandleServiceError renders an AppError with its own status; anything else is a 500.
// Client errors log at WARN, server errors at ERROR.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	appErr, ok := errors.IsAppError(err)
	if !ok {
		h.WriteError(w, r, http.StatusInternalServerError, msg)
		h.Log(r).Error(msg, "error", err)
		return
	}

	log := h.Log(r)
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.Error(msg, "error", err)
	} else {
		log.Warn(msg, "code", appErr.Code, "message", appErr.GetDetailedMessage())
	}
	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// DecodeJSON reads the request body into dst, rejecting unknown fields.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) *errors.AppError {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.NewValidationError("invalid request body", errors.ErrCodeInvalidJSON).WithCause(err)
	}
	return nil
}

// BearerToken returns the token of an "Authorization: Bearer" header, or "".
func BearerToken(r *http.Request) string {
	tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(tok)
}

package errors

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Response is the JSON error envelope returned to clients. The field names
// are part of the REST contract the admin and device apps consume.
type Response struct {
	Error         string `json:"error"`
	Code          Code   `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// Handler writes application errors as JSON responses.
type Handler struct {
	logger *zap.Logger
}

// NewHandler creates a new error handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{logger: logger}
}

// HandleError classifies err and writes the matching error envelope.
func (h *Handler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := As(err)
	if !ok {
		correlationID := uuid.New().String()
		h.logger.Error("unhandled error",
			zap.String("correlation_id", correlationID),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		h.write(w, http.StatusInternalServerError, Response{
			Error:         "An unexpected error occurred. Please try again later.",
			Code:          CodeInternal,
			CorrelationID: correlationID,
		})
		return
	}

	status := HTTPStatus(appErr)
	if status >= http.StatusInternalServerError {
		h.logger.Error("application error",
			zap.String("correlation_id", appErr.CorrelationID),
			zap.String("code", string(appErr.Code)),
			zap.String("path", r.URL.Path),
			zap.String("message", appErr.Message))
	} else {
		h.logger.Warn("request rejected",
			zap.String("correlation_id", appErr.CorrelationID),
			zap.String("code", string(appErr.Code)),
			zap.String("path", r.URL.Path),
			zap.String("message", appErr.Message))
	}

	h.write(w, status, Response{
		Error:         appErr.Message,
		Code:          appErr.Code,
		CorrelationID: appErr.CorrelationID,
	})
}

// WriteValidationError writes a VALIDATION_ERROR response without requiring a
// pre-built *Error.
func (h *Handler) WriteValidationError(w http.ResponseWriter, r *http.Request, message string) {
	h.HandleError(w, r, Validation(message))
}

func (h *Handler) write(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

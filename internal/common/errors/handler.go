// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorHandler normalizes errors and writes standardized HTTP error responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// errorResponse is the wire shape of an error reply.
type errorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Details   string `json:"details,omitempty"`
		Retryable bool   `json:"retryable"`
	} `json:"error"`
}

// WriteError normalizes err and writes it as a JSON error response.
func (h *ErrorHandler) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := h.normalizeError(err)

	h.logError(r, stdErr)

	var resp errorResponse
	resp.Error.Code = string(stdErr.Code)
	resp.Error.Message = stdErr.Message
	resp.Error.Details = stdErr.Details
	resp.Error.Retryable = stdErr.Retryable

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(stdErr.Code))
	_ = json.NewEncoder(w).Encode(resp)
}

// HTTPStatus maps an error code to the response status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidResponse, ErrCodeParsingError:
		// Interpretation failed on the model side, not the caller's input.
		return http.StatusBadGateway
	case ErrCodeAPIError:
		return http.StatusBadGateway
	case ErrCodeResourceNotFound, ErrCodeIndexNotFound:
		return http.StatusNotFound
	case ErrCodeProfileValidationFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeQueryTimeout, ErrCodeSearchTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if code, ok := CodeOf(err); ok {
		if se, isStd := err.(*StandardError); isStd {
			return se
		}
		return &StandardError{
			Code:      code,
			Message:   err.Error(),
			Retryable: IsRetryableErrorCode(code),
			Timestamp: time.Now().UTC(),
		}
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func (h *ErrorHandler) logError(r *http.Request, stdErr *StandardError) {
	h.logger.Error("Request failed", map[string]interface{}{
		"method":        r.Method,
		"path":          r.URL.Path,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})
}

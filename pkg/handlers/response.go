package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/apperrors"
	"github.com/ekaya-inc/askdb/pkg/services"
)

// ApiResponse is the standard envelope for successful API responses.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// failureBody is the error body for pipeline stage failures. SQL is the
// statement that was tried, when there was one.
type failureBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Stage   string `json:"stage,omitempty"`
	SQL     string `json:"sql,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	return WriteJSON(w, statusCode, failureBody{Error: errorCode, Message: message})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteServiceError maps a pipeline or repository error onto an HTTP status
// and a JSON body. Unrecognised errors are logged and reported as 500 without
// their text.
func WriteServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status, body := classifyError(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
	}
	if werr := WriteJSON(w, status, body); werr != nil {
		logger.Error("Failed to write error response", zap.Error(werr))
	}
}

func classifyError(err error) (int, failureBody) {
	var stage, sqlText string
	var pe *services.PipelineError
	if errors.As(err, &pe) {
		stage, sqlText = pe.Stage, pe.SQL
	}

	var gf *apperrors.GenerationFailure
	var ef *apperrors.ExecutionFailure

	switch {
	case errors.Is(err, services.ErrCacheMiss):
		return http.StatusNotFound, failureBody{Error: "response_not_found", Message: "No cached response with that id"}
	case errors.Is(err, services.ErrReplayEmpty):
		return http.StatusUnprocessableEntity, failureBody{Error: "no_rows", Message: err.Error(), Stage: stage, SQL: sqlText}
	case errors.As(err, &gf):
		return http.StatusUnprocessableEntity, failureBody{Error: "generation_failed", Message: gf.Reason, Stage: stage}
	case errors.As(err, &ef):
		if ef.SQL != "" {
			sqlText = ef.SQL
		}
		return http.StatusBadGateway, failureBody{Error: "execution_failed", Message: ef.Message, Stage: stage, SQL: sqlText}
	case errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest, failureBody{Error: "invalid_request", Message: err.Error()}
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, failureBody{Error: "not_found", Message: err.Error()}
	default:
		return http.StatusInternalServerError, failureBody{Error: "internal_error", Message: "Internal server error", Stage: stage}
	}
}

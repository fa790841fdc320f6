package tools

import (
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/askdb/pkg/apperrors"
	"github.com/ekaya-inc/askdb/pkg/services"
)

// ErrorResponse is a structured error returned as a tool result so the
// calling agent sees it instead of a bare protocol error.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use it for errors the caller can act on; system failures stay Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	jsonBytes, _ := json.Marshal(ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	})
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// NewPipelineErrorResult converts an actionable pipeline error into a tool
// result. It returns nil for failures the caller cannot fix.
func NewPipelineErrorResult(err error) *mcp.CallToolResult {
	var pe *services.PipelineError
	details := map[string]any{}
	if errors.As(err, &pe) {
		details["stage"] = pe.Stage
		if pe.SQL != "" {
			details["sql"] = pe.SQL
		}
	}

	var gf *apperrors.GenerationFailure
	var ef *apperrors.ExecutionFailure

	switch {
	case errors.Is(err, services.ErrCacheMiss):
		return NewErrorResult("response_not_found", "no cached response with that id")
	case errors.Is(err, services.ErrReplayEmpty):
		return NewErrorResultWithDetails("no_rows", err.Error(), details)
	case errors.As(err, &gf):
		return NewErrorResultWithDetails("generation_failed", gf.Reason, details)
	case errors.As(err, &ef):
		if ef.SQL != "" {
			details["sql"] = ef.SQL
		}
		return NewErrorResultWithDetails(executionErrorCode(ef.Cause), ef.Message, details)
	case errors.Is(err, apperrors.ErrInvalidInput):
		return NewErrorResult("invalid_parameters", err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		return NewErrorResult("project_not_found", err.Error())
	}
	return nil
}

// executionErrorCode names a PostgreSQL failure by its SQLSTATE. Other
// drivers report a generic code.
func executionErrorCode(cause error) string {
	var pgErr *pgconn.PgError
	if !errors.As(cause, &pgErr) {
		return "execution_failed"
	}

	switch pgErr.Code {
	case "42601":
		return "syntax_error"
	case "42703":
		return "undefined_column"
	case "42P01":
		return "undefined_table"
	case "22012":
		return "division_by_zero"
	case "57014":
		return "query_canceled"
	}

	if len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "22":
			return "data_exception"
		case "42":
			return "sql_error"
		}
	}
	return "execution_failed"
}

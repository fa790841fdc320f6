package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/logging"
	"github.com/ekaya-inc/askdb/pkg/services"
)

const maxQuestionBytes = 64 << 10

// AskRequest is the body of POST /api/projects/{pid}/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskHandler exposes question answering, cached replays and schema
// descriptions over HTTP.
type AskHandler struct {
	pipeline services.PipelineService
	logger   *zap.Logger
}

// NewAskHandler creates an AskHandler.
func NewAskHandler(pipeline services.PipelineService, logger *zap.Logger) *AskHandler {
	return &AskHandler{pipeline: pipeline, logger: logger.Named("ask_handler")}
}

// RegisterRoutes registers the ask handler's routes on the given mux.
func (h *AskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects/{pid}/ask", h.Ask)
	mux.HandleFunc("GET /api/projects/{pid}/responses/{rid}", h.Replay)
	mux.HandleFunc("GET /api/projects/{pid}/schema", h.Schema)
}

// Ask handles POST /api/projects/{pid}/ask.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req AskRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQuestionBytes))
	if err := dec.Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Request body must be a JSON object with a question"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "question is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.pipeline.Ask(r.Context(), projectID, req.Question)
	if err != nil {
		h.logger.Info("Ask failed",
			zap.String("project_id", projectID),
			zap.String("question", logging.TruncateString(req.Question, 200)),
			zap.String("error", logging.SanitizeError(err)))
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to encode ask response", zap.Error(err))
	}
}

// Replay handles GET /api/projects/{pid}/responses/{rid}.
func (h *AskHandler) Replay(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}
	responseID, ok := ParseResponseID(w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.pipeline.Replay(r.Context(), projectID, responseID)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to encode replay response", zap.Error(err))
	}
}

// Schema handles GET /api/projects/{pid}/schema and returns the description
// the generator sees.
func (h *AskHandler) Schema(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	schema, err := h.pipeline.Schema(r.Context(), projectID)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: schema}); err != nil {
		h.logger.Error("Failed to encode schema response", zap.Error(err))
	}
}

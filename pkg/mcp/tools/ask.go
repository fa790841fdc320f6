package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/logging"
	"github.com/ekaya-inc/askdb/pkg/models"
	"github.com/ekaya-inc/askdb/pkg/services"
)

// maxToolRows bounds the rows echoed back to the agent; the full count is
// still reported.
const maxToolRows = 100

// AskToolDeps contains the dependencies of the question tools.
type AskToolDeps struct {
	Pipeline services.PipelineService
	Logger   *zap.Logger
}

type askToolResult struct {
	ResponseID string                    `json:"response_id"`
	Answer     string                    `json:"answer"`
	Quotation  string                    `json:"quotation,omitempty"`
	SQL        string                    `json:"sql"`
	Columns    []string                  `json:"columns"`
	Rows       []map[string]models.Value `json:"rows"`
	RowCount   int                       `json:"row_count"`
	Truncated  bool                      `json:"truncated,omitempty"`
	Statistics models.Statistics         `json:"statistics"`
	Metadata   models.ResponseMetadata   `json:"metadata"`
}

// RegisterAskTools adds ask_question and replay_response.
func RegisterAskTools(s *server.MCPServer, deps *AskToolDeps) {
	registerAskQuestionTool(s, deps)
	registerReplayResponseTool(s, deps)
}

func registerAskQuestionTool(s *server.MCPServer, deps *AskToolDeps) {
	tool := mcp.NewTool(
		"ask_question",
		mcp.WithDescription(
			"Answer a natural-language question (Arabic or English) about a project's database. "+
				"Generates SQL, runs it read-only and returns the rows with a short answer and a response_id "+
				"that replay_response can re-run later.",
		),
		mcp.WithString(
			"project_id",
			mcp.Required(),
			mcp.Description("Project whose database should be queried"),
		),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("The question to answer"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, err := req.RequireString("project_id")
		if err != nil || strings.TrimSpace(projectID) == "" {
			return NewErrorResult("invalid_parameters", "project_id is required"), nil
		}
		question, err := req.RequireString("question")
		if err != nil || strings.TrimSpace(question) == "" {
			return NewErrorResult("invalid_parameters", "question is required"), nil
		}

		result, err := deps.Pipeline.Ask(ctx, strings.TrimSpace(projectID), question)
		if err != nil {
			return deps.failure("ask_question", projectID, err)
		}
		return newAskToolResult(result)
	})
}

func registerReplayResponseTool(s *server.MCPServer, deps *AskToolDeps) {
	tool := mcp.NewTool(
		"replay_response",
		mcp.WithDescription("Re-run the SQL of a previously answered question against current data. The stored answer is returned with fresh rows."),
		mcp.WithString(
			"project_id",
			mcp.Required(),
			mcp.Description("Project the response belongs to"),
		),
		mcp.WithString(
			"response_id",
			mcp.Required(),
			mcp.Description("response_id returned by ask_question"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, err := req.RequireString("project_id")
		if err != nil || strings.TrimSpace(projectID) == "" {
			return NewErrorResult("invalid_parameters", "project_id is required"), nil
		}
		responseID, err := req.RequireString("response_id")
		if err != nil || strings.TrimSpace(responseID) == "" {
			return NewErrorResult("invalid_parameters", "response_id is required"), nil
		}

		result, err := deps.Pipeline.Replay(ctx, strings.TrimSpace(projectID), strings.TrimSpace(responseID))
		if err != nil {
			return deps.failure("replay_response", projectID, err)
		}
		return newAskToolResult(result)
	})
}

func (d *AskToolDeps) failure(tool, projectID string, err error) (*mcp.CallToolResult, error) {
	if res := NewPipelineErrorResult(err); res != nil {
		d.Logger.Debug("Tool returned actionable error",
			zap.String("tool", tool),
			zap.String("project_id", projectID),
			zap.String("error", logging.SanitizeError(err)))
		return res, nil
	}
	d.Logger.Error("Tool failed",
		zap.String("tool", tool),
		zap.String("project_id", projectID),
		zap.Error(err))
	return nil, fmt.Errorf("%s failed: %w", tool, err)
}

func newAskToolResult(r *models.AskResult) (*mcp.CallToolResult, error) {
	out := askToolResult{
		ResponseID: r.ResponseID,
		Answer:     r.Answer,
		Quotation:  r.Quotation,
		SQL:        r.GeneratedSQL,
		Columns:    r.Columns,
		Rows:       r.Rows,
		RowCount:   len(r.Rows),
		Statistics: r.Statistics,
		Metadata:   r.Metadata,
	}
	if len(out.Rows) > maxToolRows {
		out.Rows = out.Rows[:maxToolRows]
		out.Truncated = true
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ResponseMetadata describes how an answer was produced.
type ResponseMetadata struct {
	SourceTables      []string  `json:"source_tables"`
	GeneratedAt       time.Time `json:"generated_at"`
	LLMModel          string    `json:"llm_model"`
	DatabaseType      string    `json:"database_type"`
	TotalRowsReturned int       `json:"total_rows_returned"`
	UsedFallback      bool      `json:"used_fallback"`
}

// CachedResponse is the durable record of one successful pipeline run.
// Question and GeneratedSQL never change once saved.
type CachedResponse struct {
	ID              uuid.UUID        `json:"id"`
	ResponseID      string           `json:"response_id"`
	ProjectID       string           `json:"project_id"`
	Question        string           `json:"question"`
	GeneratedSQL    string           `json:"llm_generated_sql"`
	QueryFilterData QueryFilterData  `json:"query_filter_data"`
	Answer          string           `json:"human_readable_answer"`
	Quotation       string           `json:"quotation"`
	Metadata        ResponseMetadata `json:"metadata"`
	CreatedAt       time.Time        `json:"create_date"`
	UpdatedAt       time.Time        `json:"update_date"`
}

// AskResult is the structured payload returned for a question or a replay.
type AskResult struct {
	ResponseID      string             `json:"response_id"`
	Question        string             `json:"question"`
	GeneratedSQL    string             `json:"llm_generated_sql"`
	QueryFilterData QueryFilterData    `json:"query_filter_data"`
	Columns         []string           `json:"columns"`
	Rows            []map[string]Value `json:"db_result"`
	Markdown        string             `json:"markdown,omitempty"`
	Statistics      Statistics         `json:"statistics"`
	Answer          string             `json:"human_readable_answer"`
	Quotation       string             `json:"quotation"`
	Metadata        ResponseMetadata   `json:"metadata"`
}

// NewResponseID returns an identifier of the form resp_20240131_154500_1a2b3c4d5e6f.
// The suffix comes from a random UUID, so identifiers created in the same
// second do not collide in practice.
func NewResponseID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return "resp_" + now.UTC().Format("20060102_150405") + "_" + suffix
}

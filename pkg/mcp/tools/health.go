package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/askdb/pkg/adapters/datasource"
)

// Health statuses reported by the health tool.
const (
	HealthOK         = "ok"
	HealthNoDialects = "no_dialects"
)

type healthResult struct {
	Status   string               `json:"status"`
	Version  string               `json:"version"`
	Dialects []dialectDescription `json:"dialects"`
}

type dialectDescription struct {
	Dialect string `json:"dialect"`
	Name    string `json:"name"`
}

// DialectLister returns the dialects projects can connect to.
type DialectLister func() []datasource.DialectInfo

// RegisterHealthTool adds a tool reporting the server version and the
// database dialects compiled into this build. A build without any dialect
// cannot answer questions and reports HealthNoDialects.
func RegisterHealthTool(s *server.MCPServer, version string, dialects DialectLister) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Reports the askdb version and which database dialects (postgres, mysql, mssql, oracle) questions can be answered against"),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := healthResult{Status: HealthOK, Version: version, Dialects: []dialectDescription{}}
		for _, info := range dialects() {
			result.Dialects = append(result.Dialects, dialectDescription{
				Dialect: info.Dialect.String(),
				Name:    info.DisplayName,
			})
		}
		if len(result.Dialects) == 0 {
			result.Status = HealthNoDialects
		}

		body, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal health result: %w", err)
		}
		return mcp.NewToolResultText(string(body)), nil
	})
}

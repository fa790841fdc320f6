package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/askdb/pkg/apperrors"
	"github.com/ekaya-inc/askdb/pkg/config"
	"github.com/ekaya-inc/askdb/pkg/models"
	"github.com/ekaya-inc/askdb/pkg/prompts"
	"github.com/ekaya-inc/askdb/pkg/services"
)

func init() {
	color.NoColor = true
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "ask", "replay", "migrate", "introspect", "version"} {
		assert.True(t, names[want], "missing %s command", want)
	}

	migrate, _, err := root.Find([]string{"migrate", "status"})
	require.NoError(t, err)
	assert.Equal(t, "status", migrate.Name())
}

func TestVersionCommand(t *testing.T) {
	version = "1.4.0"
	t.Cleanup(func() { version = "dev" })

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "askdb 1.4.0\n", out.String())
}

func TestAskCommand_RequiresProject(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"ask", "how many employees?"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project")
}

func salesTables() []models.TableSchema {
	return []models.TableSchema{{
		Name: "SALES",
		Columns: []models.TableColumn{
			{Name: "REGION", DataType: "text", Groupable: true},
			{Name: "AMOUNT", DataType: "numeric", IsRange: true},
		},
	}}
}

func TestIntrospect_WritesCatalogYAML(t *testing.T) {
	conn := &datasource.MockConnector{Tables: salesTables()}
	var out bytes.Buffer

	err := introspect(context.Background(), func(context.Context) (datasource.Connector, error) {
		return conn, nil
	}, &out, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 1, conn.CloseCalls)

	var got introspectedCatalog
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	require.Len(t, got.Tables, 1)
	assert.Equal(t, "SALES", got.Tables[0].Name)
	require.Len(t, got.Tables[0].Columns, 2)
	assert.Equal(t, "AMOUNT", got.Tables[0].Columns[1].Name)
	assert.True(t, got.Tables[0].Columns[1].IsRange)
}

type failingListConnector struct {
	datasource.MockConnector
}

func (c *failingListConnector) ListTables(ctx context.Context) ([]string, error) {
	return nil, errors.New("permission denied for schema public")
}

func TestIntrospect_ClosesOnFailure(t *testing.T) {
	conn := &failingListConnector{}
	err := introspect(context.Background(), func(context.Context) (datasource.Connector, error) {
		return conn, nil
	}, &bytes.Buffer{}, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.Equal(t, 1, conn.CloseCalls)
}

func TestIntrospect_OpenError(t *testing.T) {
	err := introspect(context.Background(), func(context.Context) (datasource.Connector, error) {
		return nil, apperrors.ErrInvalidInput
	}, &bytes.Buffer{}, zap.NewNop())
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestIntrospectOptions_Profile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
projects:
  - id: shop
    name: Shop
    connection:
      db_type: mysql
      con_string: reader:pw@tcp(localhost:3306)/shop
`), 0o600))

	p, err := introspectOptions{projectID: "shop"}.profile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "mysql", p.DBType)

	p, err = introspectOptions{dbType: "postgres", connStr: "postgres://localhost/x"}.profile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionProfile{DBType: "postgres", ConnString: "postgres://localhost/x"}, p)

	_, err = introspectOptions{}.profile(context.Background(), path)
	assert.Error(t, err)

	_, err = introspectOptions{projectID: "missing"}.profile(context.Background(), path)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPrintResult(t *testing.T) {
	r := &models.AskResult{
		ResponseID:   "resp_20261018_101500_abcdef012345",
		GeneratedSQL: `SELECT AVG("SALARY") AS average_salary FROM "EMPLOYEES"`,
		Rows:         []map[string]models.Value{{"average_salary": models.NumberValue(5000)}},
		Markdown:     "| average_salary |\n| --- |\n| 5000 |",
		Answer:       "متوسط الراتب هو 5000",
		Metadata:     models.ResponseMetadata{UsedFallback: true},
	}

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printResult(&out, r, false))
		text := out.String()
		assert.Contains(t, text, "متوسط الراتب هو 5000")
		assert.Contains(t, text, `SELECT AVG("SALARY")`)
		assert.Contains(t, text, "keyword fallback")
		assert.Contains(t, text, "Rows (1)")
		assert.Contains(t, text, "response_id: resp_20261018_101500_abcdef012345")
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printResult(&out, r, true))
		assert.True(t, strings.HasPrefix(out.String(), "{"))
		assert.Contains(t, out.String(), `"human_readable_answer": "متوسط الراتب هو 5000"`)
	})
}

func TestDescribeFailure(t *testing.T) {
	err := &services.PipelineError{
		Stage: services.StageExecution,
		SQL:   "SELECT * FROM ORDERS",
		Err:   &apperrors.ExecutionFailure{SQL: "SELECT * FROM ORDERS", Message: "no such table"},
	}
	got := describeFailure(err)
	assert.Contains(t, got.Error(), "SQL: SELECT * FROM ORDERS")
	assert.ErrorIs(t, got, err)

	plain := errors.New("boom")
	assert.Equal(t, plain, describeFailure(plain))
}

func TestDiscardResponses(t *testing.T) {
	var repo discardResponses
	require.NoError(t, repo.Save(context.Background(), &models.CachedResponse{ResponseID: "r"}))
	_, err := repo.Get(context.Background(), "p", "r")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

type routerPipeline struct{}

func (routerPipeline) Ask(ctx context.Context, projectID, question string) (*models.AskResult, error) {
	return &models.AskResult{ResponseID: "resp_1", Answer: "ok"}, nil
}

func (routerPipeline) Replay(ctx context.Context, projectID, responseID string) (*models.AskResult, error) {
	return nil, services.ErrCacheMiss
}

func (routerPipeline) Schema(ctx context.Context, projectID string) (prompts.SchemaDescription, error) {
	return prompts.SchemaDescription{}, nil
}

func TestNewRouter(t *testing.T) {
	cfg := &config.Config{Version: "test", Env: "test"}
	router := newRouter(cfg, routerPipeline{}, nil, zap.NewNop())

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/ping", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodPost, "/api/projects/sales/ask", `{"question":"total?"}`, http.StatusOK},
		{http.MethodGet, "/api/projects/sales/responses/resp_missing", "", http.StatusNotFound},
		{http.MethodGet, "/api/projects/sales/schema", "", http.StatusOK},
		{http.MethodGet, "/mcp", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

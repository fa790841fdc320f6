package datasource

import (
	"context"
	"strings"
	"sync"

	"github.com/ekaya-inc/askdb/pkg/models"
)

// MockConnector is a Connector for tests. Execute delegates to ExecuteFunc
// when set, otherwise returns Result.
type MockConnector struct {
	DialectValue Dialect
	ExecuteFunc  func(ctx context.Context, sqlText string, schemaHint []models.TableSchema, rowLimit int) (*models.ResultSet, error)
	Result       *models.ResultSet
	Tables       []models.TableSchema

	mu           sync.Mutex
	ExecutedSQL  []string
	LastRowLimit int
	CloseCalls   int
}

var _ Connector = (*MockConnector)(nil)

func (m *MockConnector) Dialect() Dialect {
	if m.DialectValue == "" {
		return DialectPostgres
	}
	return m.DialectValue
}

func (m *MockConnector) QuoteIdentifier(name string) string {
	if m.Dialect() == DialectMSSQL {
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	}
	if m.Dialect() == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (m *MockConnector) ListTables(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(m.Tables))
	for _, t := range m.Tables {
		names = append(names, t.Name)
	}
	return names, nil
}

func (m *MockConnector) ListColumns(ctx context.Context, table string) ([]models.TableColumn, error) {
	if t, ok := models.FindTable(m.Tables, table); ok {
		return t.Columns, nil
	}
	return nil, nil
}

func (m *MockConnector) ListForeignKeys(ctx context.Context, table string) ([]models.ForeignKeyColumn, error) {
	if t, ok := models.FindTable(m.Tables, table); ok {
		return t.ForeignKeys, nil
	}
	return nil, nil
}

func (m *MockConnector) Execute(ctx context.Context, sqlText string, schemaHint []models.TableSchema, rowLimit int) (*models.ResultSet, error) {
	m.mu.Lock()
	m.ExecutedSQL = append(m.ExecutedSQL, sqlText)
	m.LastRowLimit = rowLimit
	m.mu.Unlock()

	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, sqlText, schemaHint, rowLimit)
	}
	if m.Result != nil {
		return m.Result, nil
	}
	return models.NewResultSet(nil), nil
}

func (m *MockConnector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	return nil
}

// Executed returns the statements passed to Execute so far.
func (m *MockConnector) Executed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ExecutedSQL...)
}

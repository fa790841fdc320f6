package datasource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/askdb/pkg/apperrors"
	"github.com/ekaya-inc/askdb/pkg/models"
	sqlutil "github.com/ekaya-inc/askdb/pkg/sql"
)

type stubConnector struct {
	SQLConnector
	profile models.ConnectionProfile
}

func (s *stubConnector) ListTables(ctx context.Context) ([]string, error) {
	return []string{"ORDERS_0A1B2C3D"}, nil
}

func (s *stubConnector) ListColumns(ctx context.Context, table string) ([]models.TableColumn, error) {
	return []models.TableColumn{NewTableColumn("TOTAL", "NUMBER", FamilyNumeric, true, false)}, nil
}

func (s *stubConnector) ListForeignKeys(ctx context.Context, table string) ([]models.ForeignKeyColumn, error) {
	return nil, nil
}

func registerStub(t *testing.T, dialect Dialect) {
	t.Helper()
	Register(Registration{
		Info: DialectInfo{Dialect: dialect, DisplayName: "Stub"},
		Open: func(ctx context.Context, profile models.ConnectionProfile, logger *zap.Logger) (Connector, error) {
			if profile.Host == "" {
				return nil, errors.New("host is required")
			}
			return &stubConnector{
				SQLConnector: *NewSQLConnector(SQLConfig{Dialect: dialect, Quote: func(s string) string { return s }}, logger),
				profile:      profile,
			}, nil
		},
	})
	t.Cleanup(func() {
		registryMu.Lock()
		delete(registry, dialect)
		registryMu.Unlock()
	})
}

func TestResolveDialect(t *testing.T) {
	tests := map[string]Dialect{
		"postgres":   DialectPostgres,
		"PostgreSQL": DialectPostgres,
		"sqlserver":  DialectMSSQL,
		" oracle ":   DialectOracle,
		"mysql":      DialectMySQL,
		"mariadb":    DialectMySQL,
		"sqlite":     Dialect("sqlite"),
	}
	for in, want := range tests {
		assert.Equal(t, want, ResolveDialect(in), in)
	}
}

func TestOpen_UsesRegistration(t *testing.T) {
	registerStub(t, Dialect("stubdb"))

	conn, err := Open(context.Background(), models.ConnectionProfile{DBType: "STUBDB", Host: "db.local"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, Dialect("stubdb"), conn.Dialect())
	assert.True(t, IsRegistered("stubdb"))

	found := false
	for _, info := range RegisteredDialects() {
		if info.Dialect == "stubdb" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestOpen_FactoryErrorIsWrapped(t *testing.T) {
	registerStub(t, Dialect("stubdb"))

	_, err := Open(context.Background(), models.ConnectionProfile{DBType: "stubdb"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host is required")
}

func TestOpen_UnknownDialect(t *testing.T) {
	_, err := Open(context.Background(), models.ConnectionProfile{DBType: "db2"}, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.False(t, IsRegistered("db2"))
}

func TestIntrospectSchema(t *testing.T) {
	registerStub(t, Dialect("stubdb"))
	conn, err := Open(context.Background(), models.ConnectionProfile{DBType: "stubdb", Host: "h"}, zap.NewNop())
	require.NoError(t, err)

	tables, err := IntrospectSchema(context.Background(), conn)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "ORDERS_0A1B2C3D", tables[0].Name)
	require.Len(t, tables[0].Columns, 1)
	assert.True(t, tables[0].Columns[0].Supports(models.AggregationSum))
}

func TestDialect_Syntax(t *testing.T) {
	assert.Equal(t, sqlutil.Syntax{BackslashEscapes: true}, DialectMySQL.Syntax())
	assert.Equal(t, sqlutil.Syntax{DollarQuotes: true, EscapeStrings: true}, DialectPostgres.Syntax())
	assert.Equal(t, sqlutil.Syntax{}, DialectOracle.Syntax())
	assert.Equal(t, sqlutil.Syntax{}, DialectMSSQL.Syntax())
}

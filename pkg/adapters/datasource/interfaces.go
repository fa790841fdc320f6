package datasource

import (
	"context"

	"github.com/ekaya-inc/askdb/pkg/models"
	sqlutil "github.com/ekaya-inc/askdb/pkg/sql"
)

// Dialect identifies a SQL backend family.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectOracle   Dialect = "oracle"
	DialectMSSQL    Dialect = "mssql"
	DialectMySQL    Dialect = "mysql"
)

func (d Dialect) String() string { return string(d) }

// Syntax returns the string-literal rules the dialect's parser applies.
func (d Dialect) Syntax() sqlutil.Syntax {
	switch d {
	case DialectMySQL:
		return sqlutil.Syntax{BackslashEscapes: true}
	case DialectPostgres:
		return sqlutil.Syntax{DollarQuotes: true, EscapeStrings: true}
	}
	return sqlutil.Syntax{}
}

// Connector is a live handle on one project's database.
// Implementations acquire a connection per call and release it before
// returning, so a Connector holds no open connection between calls.
type Connector interface {
	// Dialect reports which SQL dialect the backend speaks.
	Dialect() Dialect

	// QuoteIdentifier quotes a table or column name in the dialect's syntax.
	QuoteIdentifier(name string) string

	// ListTables returns the user tables visible to the connection.
	ListTables(ctx context.Context) ([]string, error)

	// ListColumns returns the columns of a table with capability flags set.
	ListColumns(ctx context.Context, table string) ([]models.TableColumn, error)

	// ListForeignKeys returns single-column foreign keys declared on a table.
	ListForeignKeys(ctx context.Context, table string) ([]models.ForeignKeyColumn, error)

	// Execute runs one statement. rowLimit <= 0 fetches every row.
	// schemaHint enables per-column statistics for bare table scans.
	Execute(ctx context.Context, sqlText string, schemaHint []models.TableSchema, rowLimit int) (*models.ResultSet, error)

	// Close releases anything the connector still holds.
	Close() error
}

// IntrospectSchema builds the stored schema description for every table the
// connector can see.
func IntrospectSchema(ctx context.Context, c Connector) ([]models.TableSchema, error) {
	tables, err := c.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	schemas := make([]models.TableSchema, 0, len(tables))
	for _, name := range tables {
		cols, err := c.ListColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		fks, err := c.ListForeignKeys(ctx, name)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, models.TableSchema{
			Name:        name,
			Columns:     cols,
			ForeignKeys: fks,
		})
	}
	return schemas, nil
}

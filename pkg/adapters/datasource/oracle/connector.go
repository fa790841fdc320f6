package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/sijms/go-ora/v2" // registers the "oracle" driver
	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/askdb/pkg/models"
)

const driverName = "oracle"

// Connector provides Oracle access through go-ora and database/sql.
type Connector struct {
	*datasource.SQLConnector
	config *Config
}

// NewConnector creates an Oracle connector. No connection is made here.
func NewConnector(cfg *Config, logger *zap.Logger) *Connector {
	return newConnector(cfg, nil, logger)
}

func newConnector(cfg *Config, opener datasource.DBOpener, logger *zap.Logger) *Connector {
	return &Connector{
		SQLConnector: datasource.NewSQLConnector(datasource.SQLConfig{
			Dialect:    datasource.DialectOracle,
			DriverName: driverName,
			DSN:        cfg.DSN(),
			Quote:      quoteIdentifier,
			FamilyOf:   datasource.FamilyForType,
			Opener:     opener,
		}, logger),
		config: cfg,
	}
}

// quoteIdentifier wraps name in double quotes, doubling embedded quotes.
// Quoted Oracle names are case-sensitive, so callers pass the catalog spelling.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

const listTablesQuery = `SELECT table_name FROM user_tables ORDER BY table_name`

// listColumnsQuery marks a column unique when a single-column primary key or
// unique constraint covers it, and carries its comment as the description.
const listColumnsQuery = `
SELECT c.column_name,
       c.data_type,
       c.nullable,
       CASE WHEN EXISTS (
           SELECT 1
           FROM user_constraints uc
           JOIN user_cons_columns ucc ON ucc.constraint_name = uc.constraint_name
           WHERE uc.table_name = c.table_name
             AND uc.constraint_type IN ('P', 'U')
             AND ucc.column_name = c.column_name
             AND (SELECT COUNT(*) FROM user_cons_columns x WHERE x.constraint_name = uc.constraint_name) = 1
       ) THEN 1 ELSE 0 END AS is_unique,
       cc.comments
FROM user_tab_columns c
LEFT JOIN user_col_comments cc
       ON cc.table_name = c.table_name AND cc.column_name = c.column_name
WHERE c.table_name = :table_name
ORDER BY c.column_id`

const listForeignKeysQuery = `
SELECT acc.column_name,
       rc.table_name,
       rcc.column_name
FROM user_constraints c
JOIN user_cons_columns acc ON acc.constraint_name = c.constraint_name
JOIN user_constraints rc ON rc.constraint_name = c.r_constraint_name
JOIN user_cons_columns rcc ON rcc.constraint_name = rc.constraint_name AND rcc.position = acc.position
WHERE c.constraint_type = 'R'
  AND c.table_name = :table_name
ORDER BY acc.position`

// ListTables returns tables owned by the connected user.
func (c *Connector) ListTables(ctx context.Context) ([]string, error) {
	var tables []string
	err := c.WithDB(ctx, func(db *sql.DB) error {
		var err error
		tables, err = datasource.QueryStrings(ctx, db, listTablesQuery)
		if err != nil {
			return fmt.Errorf("query tables: %w", err)
		}
		return nil
	})
	return tables, err
}

// ListColumns returns the columns of table. Unquoted Oracle names are stored
// uppercase, so the lookup uppercases table.
func (c *Connector) ListColumns(ctx context.Context, table string) ([]models.TableColumn, error) {
	var columns []models.TableColumn
	err := c.WithDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, listColumnsQuery, sql.Named("table_name", strings.ToUpper(table)))
		if err != nil {
			return fmt.Errorf("query columns: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				name, dataType, nullable string
				unique                   int
				comment                  sql.NullString
			)
			if err := rows.Scan(&name, &dataType, &nullable, &unique, &comment); err != nil {
				return fmt.Errorf("scan column: %w", err)
			}
			col := datasource.NewTableColumn(name, dataType, datasource.FamilyForType(dataType), nullable == "Y", unique == 1)
			col.Description = strings.TrimSpace(comment.String)
			columns = append(columns, col)
		}
		return rows.Err()
	})
	return columns, err
}

// ListForeignKeys returns referential constraints declared on table.
func (c *Connector) ListForeignKeys(ctx context.Context, table string) ([]models.ForeignKeyColumn, error) {
	var fks []models.ForeignKeyColumn
	err := c.WithDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, listForeignKeysQuery, sql.Named("table_name", strings.ToUpper(table)))
		if err != nil {
			return fmt.Errorf("query foreign keys: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var fk models.ForeignKeyColumn
			if err := rows.Scan(&fk.Name, &fk.ReferencedTable, &fk.ReferencedColumn); err != nil {
				return fmt.Errorf("scan foreign key: %w", err)
			}
			fks = append(fks, fk)
		}
		return rows.Err()
	})
	return fks, err
}

var _ datasource.Connector = (*Connector)(nil)

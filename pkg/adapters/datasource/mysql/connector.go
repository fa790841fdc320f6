package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/askdb/pkg/models"
)

// Connector provides MySQL and MariaDB access through go-sql-driver/mysql.
type Connector struct {
	*datasource.SQLConnector
}

// NewConnector creates a MySQL connector. No connection is made here.
func NewConnector(cfg *gomysql.Config, logger *zap.Logger) *Connector {
	return newConnector(cfg.FormatDSN(), nil, logger)
}

func newConnector(dsn string, opener datasource.DBOpener, logger *zap.Logger) *Connector {
	return &Connector{
		SQLConnector: datasource.NewSQLConnector(datasource.SQLConfig{
			Dialect:    datasource.DialectMySQL,
			DriverName: "mysql",
			DSN:        dsn,
			Quote:      quoteIdentifier,
			FamilyOf:   familyOf,
			Opener:     opener,
		}, logger),
	}
}

// quoteIdentifier quotes a SQL identifier with backticks and escapes any
// backticks within it.
func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// familyOf maps MySQL type names. TEXT is commonly used for labels in MySQL
// schemas, so only the larger text types count as free text.
func familyOf(typeName string) datasource.TypeFamily {
	switch strings.ToUpper(typeName) {
	case "TEXT", "VARCHAR", "CHAR", "ENUM", "SET":
		return datasource.FamilyCategorical
	case "UNSIGNED INT", "UNSIGNED BIGINT", "UNSIGNED SMALLINT", "UNSIGNED TINYINT", "UNSIGNED MEDIUMINT":
		return datasource.FamilyNumeric
	case "GEOMETRY", "BIT":
		return datasource.FamilyBinary
	}
	return datasource.FamilyForType(typeName)
}

const listTablesQuery = `
	SELECT TABLE_NAME
	FROM information_schema.TABLES
	WHERE TABLE_SCHEMA = DATABASE()
	  AND TABLE_TYPE = 'BASE TABLE'
	ORDER BY TABLE_NAME
`

// listColumnsQuery treats a PRI column as unique only when the primary key
// has a single column.
const listColumnsQuery = `
	SELECT
		c.COLUMN_NAME,
		c.DATA_TYPE,
		c.IS_NULLABLE,
		CASE
			WHEN c.COLUMN_KEY = 'UNI' THEN 1
			WHEN c.COLUMN_KEY = 'PRI' AND (
				SELECT COUNT(*) FROM information_schema.KEY_COLUMN_USAGE k
				WHERE k.TABLE_SCHEMA = c.TABLE_SCHEMA
				  AND k.TABLE_NAME = c.TABLE_NAME
				  AND k.CONSTRAINT_NAME = 'PRIMARY'
			) = 1 THEN 1
			ELSE 0
		END AS IS_UNIQUE,
		c.COLUMN_COMMENT
	FROM information_schema.COLUMNS c
	WHERE c.TABLE_SCHEMA = DATABASE() AND c.TABLE_NAME = ?
	ORDER BY c.ORDINAL_POSITION
`

const listForeignKeysQuery = `
	SELECT COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
	FROM information_schema.KEY_COLUMN_USAGE
	WHERE TABLE_SCHEMA = DATABASE()
	  AND TABLE_NAME = ?
	  AND REFERENCED_TABLE_NAME IS NOT NULL
	ORDER BY ORDINAL_POSITION
`

// ListTables returns base tables of the connected database.
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

// ListColumns returns the columns of table with comments as descriptions.
func (c *Connector) ListColumns(ctx context.Context, table string) ([]models.TableColumn, error) {
	var columns []models.TableColumn
	err := c.WithDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, listColumnsQuery, table)
		if err != nil {
			return fmt.Errorf("query columns: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				name, dataType, nullable, comment string
				unique                            int
			)
			if err := rows.Scan(&name, &dataType, &nullable, &unique, &comment); err != nil {
				return fmt.Errorf("scan column: %w", err)
			}
			col := datasource.NewTableColumn(name, dataType, familyOf(dataType), nullable == "YES", unique == 1)
			col.Description = comment
			columns = append(columns, col)
		}
		return rows.Err()
	})
	return columns, err
}

// ListForeignKeys returns foreign keys declared on table.
func (c *Connector) ListForeignKeys(ctx context.Context, table string) ([]models.ForeignKeyColumn, error) {
	var fks []models.ForeignKeyColumn
	err := c.WithDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, listForeignKeysQuery, table)
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

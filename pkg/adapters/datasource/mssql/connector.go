package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"         // SQL Server driver
	_ "github.com/microsoft/go-mssqldb/azuread" // Azure AD support
	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/askdb/pkg/models"
)

// Connector provides SQL Server connectivity with SQL or Azure AD service
// principal authentication.
type Connector struct {
	*datasource.SQLConnector
	config *Config
}

// NewConnector creates a SQL Server connector. No connection is made here.
func NewConnector(cfg *Config, logger *zap.Logger) *Connector {
	return newConnector(cfg, nil, logger)
}

func newConnector(cfg *Config, opener datasource.DBOpener, logger *zap.Logger) *Connector {
	return &Connector{
		SQLConnector: datasource.NewSQLConnector(datasource.SQLConfig{
			Dialect:     datasource.DialectMSSQL,
			DriverName:  cfg.DriverName(),
			DSN:         cfg.DSN(),
			Quote:       quoteName,
			FamilyOf:    familyOf,
			ConvertHook: convertHook,
			Opener:      opener,
		}, logger),
		config: cfg,
	}
}

const listTablesQuery = `
	SELECT TABLE_NAME
	FROM INFORMATION_SCHEMA.TABLES
	WHERE TABLE_TYPE = 'BASE TABLE'
	  AND TABLE_SCHEMA = @schema
	ORDER BY TABLE_NAME
`

// listColumnsQuery flags single-column unique indexes (primary keys included)
// and reads MS_Description extended properties as column descriptions.
const listColumnsQuery = `
	SELECT
		c.COLUMN_NAME,
		c.DATA_TYPE,
		c.IS_NULLABLE,
		CASE WHEN EXISTS (
			SELECT 1
			FROM sys.indexes i
			JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
			JOIN sys.columns sc ON sc.object_id = ic.object_id AND sc.column_id = ic.column_id
			WHERE i.object_id = OBJECT_ID(QUOTENAME(c.TABLE_SCHEMA) + '.' + QUOTENAME(c.TABLE_NAME))
			  AND i.is_unique = 1
			  AND sc.name = c.COLUMN_NAME
			  AND (SELECT COUNT(*) FROM sys.index_columns x
			       WHERE x.object_id = i.object_id AND x.index_id = i.index_id AND x.is_included_column = 0) = 1
		) THEN 1 ELSE 0 END AS IS_UNIQUE,
		CAST(ep.value AS NVARCHAR(4000)) AS DESCRIPTION
	FROM INFORMATION_SCHEMA.COLUMNS c
	LEFT JOIN sys.extended_properties ep
		ON ep.major_id = OBJECT_ID(QUOTENAME(c.TABLE_SCHEMA) + '.' + QUOTENAME(c.TABLE_NAME))
		AND ep.minor_id = COLUMNPROPERTY(OBJECT_ID(QUOTENAME(c.TABLE_SCHEMA) + '.' + QUOTENAME(c.TABLE_NAME)), c.COLUMN_NAME, 'ColumnId')
		AND ep.name = 'MS_Description'
	WHERE c.TABLE_SCHEMA = @schema AND c.TABLE_NAME = @table
	ORDER BY c.ORDINAL_POSITION
`

const listForeignKeysQuery = `
	SELECT pc.name, rt.name, rc.name
	FROM sys.foreign_key_columns fkc
	JOIN sys.tables pt ON pt.object_id = fkc.parent_object_id
	JOIN sys.schemas ps ON ps.schema_id = pt.schema_id
	JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
	JOIN sys.tables rt ON rt.object_id = fkc.referenced_object_id
	JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
	WHERE ps.name = @schema AND pt.name = @table
	ORDER BY fkc.constraint_column_id
`

// ListTables returns base tables in the configured schema.
func (c *Connector) ListTables(ctx context.Context) ([]string, error) {
	var tables []string
	err := c.WithDB(ctx, func(db *sql.DB) error {
		var err error
		tables, err = datasource.QueryStrings(ctx, db, listTablesQuery, sql.Named("schema", c.config.Schema))
		if err != nil {
			return fmt.Errorf("query tables: %w", err)
		}
		return nil
	})
	return tables, err
}

// ListColumns returns the columns of table, which may be schema-qualified.
func (c *Connector) ListColumns(ctx context.Context, table string) ([]models.TableColumn, error) {
	schema, name := parseSchemaTable(table, c.config.Schema)

	var columns []models.TableColumn
	err := c.WithDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, listColumnsQuery, sql.Named("schema", schema), sql.Named("table", name))
		if err != nil {
			return fmt.Errorf("query columns: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				colName, dataType, nullable string
				unique                      int
				description                 sql.NullString
			)
			if err := rows.Scan(&colName, &dataType, &nullable, &unique, &description); err != nil {
				return fmt.Errorf("scan column: %w", err)
			}
			col := datasource.NewTableColumn(colName, dataType, familyOf(dataType), nullable == "YES", unique == 1)
			col.Description = description.String
			columns = append(columns, col)
		}
		return rows.Err()
	})
	return columns, err
}

// ListForeignKeys returns foreign keys declared on table.
func (c *Connector) ListForeignKeys(ctx context.Context, table string) ([]models.ForeignKeyColumn, error) {
	schema, name := parseSchemaTable(table, c.config.Schema)

	var fks []models.ForeignKeyColumn
	err := c.WithDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, listForeignKeysQuery, sql.Named("schema", schema), sql.Named("table", name))
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

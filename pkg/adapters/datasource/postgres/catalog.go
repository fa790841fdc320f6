package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/askdb/pkg/models"
)

const listTablesQuery = `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_schema = $1
	  AND table_type = 'BASE TABLE'
	ORDER BY table_name
`

// listColumnsQuery flags a column unique when a single-column primary key or
// unique index covers it. pg_index catches unique indexes that were never
// declared as constraints.
const listColumnsQuery = `
	SELECT
		c.column_name,
		c.data_type,
		c.is_nullable = 'YES' AS is_nullable,
		COALESCE(uq.is_unique, false) AS is_unique
	FROM information_schema.columns c
	LEFT JOIN (
		SELECT DISTINCT a.attname AS column_name, true AS is_unique
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE (ix.indisunique OR ix.indisprimary)
		  AND n.nspname = $1
		  AND t.relname = $2
		  AND array_length(ix.indkey, 1) = 1
	) uq ON c.column_name = uq.column_name
	WHERE c.table_schema = $1 AND c.table_name = $2
	ORDER BY c.ordinal_position
`

const listForeignKeysQuery = `
	SELECT
		kcu.column_name,
		ccu.table_name AS referenced_table,
		ccu.column_name AS referenced_column
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
	JOIN information_schema.constraint_column_usage ccu
		ON tc.constraint_name = ccu.constraint_name
		AND tc.table_schema = ccu.table_schema
	WHERE tc.constraint_type = 'FOREIGN KEY'
	  AND tc.table_schema = $1
	  AND tc.table_name = $2
	ORDER BY kcu.ordinal_position
`

// ListTables returns base tables in the configured schema.
func (c *Connector) ListTables(ctx context.Context) ([]string, error) {
	var tables []string
	err := c.withConn(ctx, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, listTablesQuery, c.config.Schema)
		if err != nil {
			return fmt.Errorf("query tables: %w", err)
		}
		tables, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("scan tables: %w", err)
		}
		return nil
	})
	return tables, err
}

// ListColumns returns the columns of a table in ordinal order.
func (c *Connector) ListColumns(ctx context.Context, table string) ([]models.TableColumn, error) {
	var columns []models.TableColumn
	err := c.withConn(ctx, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, listColumnsQuery, c.config.Schema, table)
		if err != nil {
			return fmt.Errorf("query columns: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var name, dataType string
			var nullable, unique bool
			if err := rows.Scan(&name, &dataType, &nullable, &unique); err != nil {
				return fmt.Errorf("scan column: %w", err)
			}
			columns = append(columns, datasource.NewTableColumn(name, dataType, familyOf(dataType), nullable, unique))
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate columns: %w", err)
		}
		return nil
	})
	return columns, err
}

// ListForeignKeys returns foreign keys declared on table.
func (c *Connector) ListForeignKeys(ctx context.Context, table string) ([]models.ForeignKeyColumn, error) {
	var fks []models.ForeignKeyColumn
	err := c.withConn(ctx, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, listForeignKeysQuery, c.config.Schema, table)
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
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate foreign keys: %w", err)
		}
		return nil
	})
	return fks, err
}

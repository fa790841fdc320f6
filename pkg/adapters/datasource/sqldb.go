package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/models"
)

// DBOpener opens a database/sql handle. Tests substitute sqlmock here.
type DBOpener func(driverName, dsn string) (*sql.DB, error)

// SQLConfig configures a SQLConnector for one database/sql driver.
type SQLConfig struct {
	Dialect    Dialect
	DriverName string
	DSN        string
	Quote      func(name string) string
	// FamilyOf maps a driver's DatabaseTypeName to a type family.
	FamilyOf func(typeName string) TypeFamily
	// ConvertHook, when set, gets first look at every cell and reports
	// whether it handled the value.
	ConvertHook func(typeName string, raw any) (models.Value, bool)
	Opener      DBOpener
}

// SQLConnector implements the execution half of Connector for drivers behind
// database/sql. Dialect packages embed it and add catalog introspection.
type SQLConnector struct {
	cfg    SQLConfig
	logger *zap.Logger
}

// NewSQLConnector creates a connector that opens a fresh handle per call.
func NewSQLConnector(cfg SQLConfig, logger *zap.Logger) *SQLConnector {
	if cfg.Opener == nil {
		cfg.Opener = sql.Open
	}
	if cfg.FamilyOf == nil {
		cfg.FamilyOf = FamilyForType
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLConnector{
		cfg:    cfg,
		logger: logger.Named(string(cfg.Dialect)),
	}
}

func (c *SQLConnector) Dialect() Dialect { return c.cfg.Dialect }

func (c *SQLConnector) QuoteIdentifier(name string) string { return c.cfg.Quote(name) }

// Logger returns the connector's named logger.
func (c *SQLConnector) Logger() *zap.Logger { return c.logger }

// WithDB opens a single-connection handle, runs fn and closes the handle on
// every path. A panic inside fn is returned as an error.
func (c *SQLConnector) WithDB(ctx context.Context, fn func(db *sql.DB) error) (err error) {
	db, err := c.cfg.Opener(c.cfg.DriverName, c.cfg.DSN)
	if err != nil {
		return fmt.Errorf("open %s connection: %w", c.cfg.Dialect, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(0)

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Recovered panic in database call", zap.Any("panic", r))
			err = fmt.Errorf("%s driver panic: %v", c.cfg.Dialect, r)
		}
		if closeErr := db.Close(); closeErr != nil {
			c.logger.Warn("Failed to close connection", zap.Error(closeErr))
		}
	}()

	return fn(db)
}

// Execute runs sqlText and returns at most rowLimit rows (all rows when
// rowLimit <= 0). A bare scan of a hinted table also gets column statistics.
func (c *SQLConnector) Execute(ctx context.Context, sqlText string, schemaHint []models.TableSchema, rowLimit int) (*models.ResultSet, error) {
	start := time.Now()
	var rs *models.ResultSet

	err := c.WithDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, sqlText)
		if err != nil {
			return err
		}
		rs, err = c.scanRows(rows, rowLimit)
		if err != nil {
			return err
		}

		if table, ok := MatchBareScan(sqlText, schemaHint); ok {
			CollectStatistics(ctx, table, rs, c.cfg.Quote, dbQuerier{db: db}, c.logger)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rs.Markdown = rs.RenderMarkdown()
	c.logger.Debug("Executed statement",
		zap.Int("rows", len(rs.Rows)),
		zap.Duration("elapsed", time.Since(start)))
	return rs, nil
}

// Close is a no-op; handles are released after every call.
func (c *SQLConnector) Close() error { return nil }

// scanRows reads rows into a ResultSet, stopping after limit rows when
// limit > 0. rows is always closed.
func (c *SQLConnector) scanRows(rows *sql.Rows, limit int) (*models.ResultSet, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	typeNames := make([]string, len(columns))
	families := make([]TypeFamily, len(columns))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, ct := range types {
			typeNames[i] = ct.DatabaseTypeName()
			families[i] = c.cfg.FamilyOf(typeNames[i])
		}
	}

	rs := models.NewResultSet(columns)
	raw := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range raw {
		dest[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		values := make([]models.Value, len(columns))
		for i, v := range raw {
			values[i] = c.convert(typeNames[i], families[i], v)
		}
		if err := rs.AddRow(values); err != nil {
			return nil, err
		}
		if limit > 0 && len(rs.Rows) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return rs, nil
}

func (c *SQLConnector) convert(typeName string, family TypeFamily, raw any) models.Value {
	if c.cfg.ConvertHook != nil {
		if v, ok := c.cfg.ConvertHook(typeName, raw); ok {
			return v
		}
	}
	return ConvertTypedValue(raw, family)
}

// QueryStrings runs a catalog query returning one string column.
func QueryStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type dbQuerier struct {
	db *sql.DB
}

func (q dbQuerier) QueryScalar(ctx context.Context, query string, args ...any) (any, error) {
	var v any
	if err := q.db.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		return nil, err
	}
	return v, nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/askdb/pkg/logging"
	"github.com/ekaya-inc/askdb/pkg/models"
)

// Connector provides PostgreSQL access through pgx. Every call dials its own
// connection and closes it before returning.
type Connector struct {
	config *Config
	logger *zap.Logger
}

// NewConnector creates a PostgreSQL connector. No connection is made here.
func NewConnector(cfg *Config, logger *zap.Logger) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{
		config: cfg,
		logger: logger.Named("postgres"),
	}
}

func (c *Connector) Dialect() datasource.Dialect { return datasource.DialectPostgres }

// QuoteIdentifier safely quotes a SQL identifier using PostgreSQL's
// double-quote rules.
func (c *Connector) QuoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// Close is a no-op; connections never outlive a call.
func (c *Connector) Close() error { return nil }

func (c *Connector) withConn(ctx context.Context, fn func(conn *pgx.Conn) error) (err error) {
	conn, err := pgx.Connect(ctx, c.config.ConnectionString())
	if err != nil {
		return fmt.Errorf("connect to postgres: %s", logging.SanitizeError(err))
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Recovered panic in postgres call", zap.Any("panic", r))
			err = fmt.Errorf("postgres driver panic: %v", r)
		}
		if closeErr := conn.Close(context.Background()); closeErr != nil {
			c.logger.Warn("Failed to close postgres connection", zap.Error(closeErr))
		}
	}()
	return fn(conn)
}

// Execute runs sqlText and collects at most rowLimit rows (all when <= 0).
func (c *Connector) Execute(ctx context.Context, sqlText string, schemaHint []models.TableSchema, rowLimit int) (*models.ResultSet, error) {
	start := time.Now()
	var rs *models.ResultSet

	err := c.withConn(ctx, func(conn *pgx.Conn) error {
		var err error
		rs, err = collectRows(ctx, conn, sqlText, rowLimit)
		if err != nil {
			return err
		}
		if table, ok := datasource.MatchBareScan(sqlText, schemaHint); ok {
			datasource.CollectStatistics(ctx, table, rs, c.QuoteIdentifier, connQuerier{conn: conn}, c.logger)
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

func collectRows(ctx context.Context, conn *pgx.Conn, sqlText string, limit int) (*models.ResultSet, error) {
	rows, err := conn.Query(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	families := make([]datasource.TypeFamily, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
		families[i] = familyOf(typeNameFromOID(fd.DataTypeOID))
	}

	rs := models.NewResultSet(columns)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		row := make([]models.Value, len(values))
		for i, v := range values {
			row[i] = convertValue(v, families[i])
		}
		if err := rs.AddRow(row); err != nil {
			return nil, err
		}
		if limit > 0 && len(rs.Rows) >= limit {
			break
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return rs, nil
}

type connQuerier struct {
	conn *pgx.Conn
}

func (q connQuerier) QueryScalar(ctx context.Context, query string, args ...any) (any, error) {
	var v any
	if err := q.conn.QueryRow(ctx, query, args...).Scan(&v); err != nil {
		return nil, err
	}
	return unwrapNumeric(v), nil
}

var _ datasource.Connector = (*Connector)(nil)

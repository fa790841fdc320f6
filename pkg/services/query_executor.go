package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/askdb/pkg/apperrors"
	"github.com/ekaya-inc/askdb/pkg/logging"
	"github.com/ekaya-inc/askdb/pkg/metrics"
	"github.com/ekaya-inc/askdb/pkg/models"
	"github.com/ekaya-inc/askdb/pkg/workers"
)

// QueryExecutor runs one statement against a project database.
type QueryExecutor interface {
	// Execute normalizes sqlText and runs it once through conn. Every error is
	// an *apperrors.ExecutionFailure carrying the statement that was tried.
	Execute(ctx context.Context, conn datasource.Connector, sqlText string, schema []models.TableSchema) (*models.ResultSet, error)
}

type queryExecutor struct {
	pool     *workers.Pool
	rowLimit int
	logger   *zap.Logger
}

// NewQueryExecutor creates an executor whose database calls run on pool.
// rowLimit <= 0 reads every row.
func NewQueryExecutor(pool *workers.Pool, rowLimit int, logger *zap.Logger) QueryExecutor {
	return &queryExecutor{
		pool:     pool,
		rowLimit: rowLimit,
		logger:   logger.Named("query_executor"),
	}
}

func (e *queryExecutor) Execute(ctx context.Context, conn datasource.Connector, sqlText string, schema []models.TableSchema) (*models.ResultSet, error) {
	normalized, err := conn.Dialect().Syntax().NormalizeForExecution(sqlText)
	if err != nil {
		return nil, &apperrors.ExecutionFailure{SQL: sqlText, Message: err.Error(), Cause: err}
	}

	dialect := conn.Dialect().String()
	start := time.Now()
	rs, err := workers.Submit(ctx, e.pool, func(ctx context.Context) (*models.ResultSet, error) {
		return conn.Execute(ctx, normalized, schema, e.rowLimit)
	})
	elapsed := time.Since(start)
	metrics.ObserveExecution(dialect, elapsed, err != nil)

	if err != nil {
		msg := logging.SanitizeExecutionError(err)
		e.logger.Error("Query execution failed",
			zap.String("dialect", dialect),
			zap.String("sql", logging.SanitizeQuery(normalized)),
			zap.Duration("elapsed", elapsed),
			zap.String("error", msg))
		return nil, &apperrors.ExecutionFailure{SQL: normalized, Message: msg, Cause: err}
	}

	for i, row := range rs.Rows {
		if len(row) != len(rs.Columns) {
			err := fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(rs.Columns))
			return nil, &apperrors.ExecutionFailure{SQL: normalized, Message: err.Error(), Cause: err}
		}
	}
	if rs.Markdown == "" {
		rs.Markdown = rs.RenderMarkdown()
	}

	e.logger.Debug("Query executed",
		zap.String("dialect", dialect),
		zap.Int("rows", len(rs.Rows)),
		zap.Duration("elapsed", elapsed))

	return rs, nil
}

package datasource

import (
	"context"
	"regexp"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/logging"
	"github.com/ekaya-inc/askdb/pkg/models"
)

// bareScanPattern matches SELECT * FROM <table> with nothing after the table
// name except an optional semicolon. The table may be quoted with double
// quotes, brackets or backticks.
var bareScanPattern = regexp.MustCompile("(?is)^\\s*SELECT\\s+\\*\\s+FROM\\s+" +
	"(?:\"([^\"]+)\"|\\[([^\\]]+)\\]|`([^`]+)`|([A-Za-z_][A-Za-z0-9_$#]*))" +
	"\\s*;?\\s*$")

// MatchBareScan reports the schema table a bare SELECT * FROM statement reads,
// matched case-insensitively against tables.
func MatchBareScan(sqlText string, tables []models.TableSchema) (models.TableSchema, bool) {
	m := bareScanPattern.FindStringSubmatch(sqlText)
	if m == nil {
		return models.TableSchema{}, false
	}
	name := ""
	for _, g := range m[1:] {
		if g != "" {
			name = g
			break
		}
	}
	return models.FindTable(tables, name)
}

// ScalarQuerier runs a query returning a single value.
type ScalarQuerier interface {
	QueryScalar(ctx context.Context, query string, args ...any) (any, error)
}

// CollectStatistics fills rs.Statistics for a bare scan of table using one
// aggregate query per statistic: MIN and MAX for range columns, AVG and SUM
// where the column permits them. A failing query is logged and skipped.
func CollectStatistics(ctx context.Context, table models.TableSchema, rs *models.ResultSet, quote func(string) string, q ScalarQuerier, logger *zap.Logger) {
	for _, colName := range rs.Columns {
		col, ok := table.Column(colName)
		if !ok {
			continue
		}
		family := FamilyTemporal
		if col.Supports(models.AggregationSum) || col.Supports(models.AggregationAvg) {
			family = FamilyNumeric
		}

		var stats models.ColumnStatistics
		fetch := func(op models.AggregationOp) *models.Value {
			query, args, err := aggregateQuery(op, quote(table.Name), quote(col.Name)).ToSql()
			if err != nil {
				logger.Warn("Failed to build statistics query",
					zap.String("table", table.Name),
					zap.String("column", col.Name),
					zap.Error(err))
				return nil
			}
			raw, err := q.QueryScalar(ctx, query, args...)
			if err != nil {
				logger.Warn("Statistics query failed",
					zap.String("table", table.Name),
					zap.String("column", col.Name),
					zap.String("aggregate", string(op)),
					zap.String("error", logging.SanitizeError(err)))
				return nil
			}
			v := ConvertTypedValue(raw, family)
			return &v
		}

		if col.IsRange {
			stats.Min = fetch(models.AggregationMin)
			stats.Max = fetch(models.AggregationMax)
		}
		if col.Supports(models.AggregationAvg) {
			stats.Avg = fetch(models.AggregationAvg)
		}
		if col.Supports(models.AggregationSum) {
			stats.Sum = fetch(models.AggregationSum)
		}

		if stats.Min == nil && stats.Max == nil && stats.Avg == nil && stats.Sum == nil {
			continue
		}
		rs.SetStatistics(colName, stats)
	}
}

// aggregateQuery builds SELECT op(column) FROM table from already quoted names.
func aggregateQuery(op models.AggregationOp, table, column string) sq.SelectBuilder {
	return sq.Select().
		Column(sq.Expr(string(op) + "(" + column + ")")).
		From(table)
}

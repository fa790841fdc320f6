package services

import "github.com/ekaya-inc/askdb/pkg/models"

// NoDataNote is recorded in AdditionalStats when a query returns no rows.
const NoDataNote = "No data returned from query"

// ComputeStatistics summarizes query output. A column is numeric when its
// value in the first row is a number; every other column is a category.
// Category figures are filled only when the query grouped its rows and at
// least one category column exists: the first category column names each
// row and the first numeric column supplies its value.
func ComputeStatistics(rows []map[string]models.Value, columns []string, filter models.QueryFilterData) models.Statistics {
	if len(rows) == 0 {
		zero := 0
		var zeroTotal float64
		return models.Statistics{
			TotalRows:       0,
			TotalCategories: &zero,
			GrandTotal:      &zeroTotal,
			AdditionalStats: map[string]any{"note": NoDataNote},
		}
	}

	first := rows[0]
	numericCols := make([]string, 0, len(columns))
	categoryCols := make([]string, 0, len(columns))
	for _, col := range columns {
		if v, ok := first[col]; ok && v.IsNumber() {
			numericCols = append(numericCols, col)
		} else {
			categoryCols = append(categoryCols, col)
		}
	}

	stats := models.Statistics{
		TotalRows: len(rows),
		AdditionalStats: map[string]any{
			"numeric_columns":  numericCols,
			"category_columns": categoryCols,
			"sample_row":       first,
		},
	}

	if len(filter.GroupBy) == 0 || len(categoryCols) == 0 {
		return stats
	}

	categories := len(rows)
	stats.TotalCategories = &categories
	if len(numericCols) == 0 {
		return stats
	}

	categoryCol, valueCol := categoryCols[0], numericCols[0]
	var grand float64
	highest, lowest := 0, 0
	for i, row := range rows {
		v := numberOrZero(row[valueCol])
		grand += v
		// Ties keep the first row as highest and the last row as lowest.
		if v > numberOrZero(rows[highest][valueCol]) {
			highest = i
		}
		if v <= numberOrZero(rows[lowest][valueCol]) {
			lowest = i
		}
	}

	avg := grand / float64(categories)
	stats.GrandTotal = &grand
	stats.AveragePerCategory = &avg
	stats.HighestCategory = categoryOf(rows[highest], categoryCol, valueCol)
	stats.LowestCategory = categoryOf(rows[lowest], categoryCol, valueCol)
	return stats
}

func numberOrZero(v models.Value) float64 {
	if v.IsNumber() {
		return v.Num
	}
	return 0
}

func categoryOf(row map[string]models.Value, categoryCol, valueCol string) *models.CategoryValue {
	name := "Unknown"
	if v, ok := row[categoryCol]; ok {
		name = v.String()
	}
	return &models.CategoryValue{Name: name, Value: numberOrZero(row[valueCol])}
}

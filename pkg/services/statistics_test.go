package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/askdb/pkg/models"
)

func regionRow(region string, total float64) map[string]models.Value {
	return map[string]models.Value{
		"REGION": models.StringValue(region),
		"TOTAL":  models.NumberValue(total),
	}
}

func TestComputeStatistics_Empty(t *testing.T) {
	stats := ComputeStatistics(nil, []string{"REGION", "TOTAL"}, models.QueryFilterData{GroupBy: []string{"REGION"}})

	assert.Equal(t, 0, stats.TotalRows)
	require.NotNil(t, stats.TotalCategories)
	assert.Equal(t, 0, *stats.TotalCategories)
	require.NotNil(t, stats.GrandTotal)
	assert.Equal(t, 0.0, *stats.GrandTotal)
	assert.Nil(t, stats.HighestCategory)
	assert.Equal(t, NoDataNote, stats.AdditionalStats["note"])
}

func TestComputeStatistics_GroupedRows(t *testing.T) {
	rows := []map[string]models.Value{
		regionRow("north", 1500),
		regionRow("south", 900),
		regionRow("east", 2100),
		regionRow("west", 600),
	}

	stats := ComputeStatistics(rows, []string{"REGION", "TOTAL"}, models.QueryFilterData{GroupBy: []string{"REGION"}})

	assert.Equal(t, 4, stats.TotalRows)
	require.NotNil(t, stats.TotalCategories)
	assert.Equal(t, 4, *stats.TotalCategories)
	require.NotNil(t, stats.GrandTotal)
	assert.InDelta(t, 5100.0, *stats.GrandTotal, 1e-9)
	assert.Equal(t, &models.CategoryValue{Name: "east", Value: 2100}, stats.HighestCategory)
	assert.Equal(t, &models.CategoryValue{Name: "west", Value: 600}, stats.LowestCategory)
	require.NotNil(t, stats.AveragePerCategory)
	assert.InDelta(t, 1275.0, *stats.AveragePerCategory, 1e-9)

	assert.Equal(t, []string{"TOTAL"}, stats.AdditionalStats["numeric_columns"])
	assert.Equal(t, []string{"REGION"}, stats.AdditionalStats["category_columns"])
	assert.Equal(t, rows[0], stats.AdditionalStats["sample_row"])
}

func TestComputeStatistics_Ties(t *testing.T) {
	rows := []map[string]models.Value{
		regionRow("a", 10),
		regionRow("b", 5),
		regionRow("c", 10),
		regionRow("d", 5),
	}

	stats := ComputeStatistics(rows, []string{"REGION", "TOTAL"}, models.QueryFilterData{GroupBy: []string{"REGION"}})

	assert.Equal(t, "a", stats.HighestCategory.Name)
	assert.Equal(t, "d", stats.LowestCategory.Name)
}

func TestComputeStatistics_WithoutGroupBy(t *testing.T) {
	rows := []map[string]models.Value{regionRow("north", 1500)}

	stats := ComputeStatistics(rows, []string{"REGION", "TOTAL"}, models.QueryFilterData{})

	assert.Equal(t, 1, stats.TotalRows)
	assert.Nil(t, stats.TotalCategories)
	assert.Nil(t, stats.GrandTotal)
	assert.Nil(t, stats.AveragePerCategory)
	assert.Equal(t, []string{"TOTAL"}, stats.AdditionalStats["numeric_columns"])
}

func TestComputeStatistics_GroupedWithoutNumericColumn(t *testing.T) {
	rows := []map[string]models.Value{
		{"REGION": models.StringValue("north")},
		{"REGION": models.StringValue("south")},
	}

	stats := ComputeStatistics(rows, []string{"REGION"}, models.QueryFilterData{GroupBy: []string{"REGION"}})

	require.NotNil(t, stats.TotalCategories)
	assert.Equal(t, 2, *stats.TotalCategories)
	assert.Nil(t, stats.GrandTotal)
	assert.Nil(t, stats.HighestCategory)
}

func TestComputeStatistics_NullFirstRowIsCategory(t *testing.T) {
	rows := []map[string]models.Value{
		{"REGION": models.StringValue("north"), "TOTAL": models.NullValue()},
		{"REGION": models.StringValue("south"), "TOTAL": models.NumberValue(3)},
	}

	stats := ComputeStatistics(rows, []string{"REGION", "TOTAL"}, models.QueryFilterData{GroupBy: []string{"REGION"}})

	assert.Equal(t, []string{"REGION", "TOTAL"}, stats.AdditionalStats["category_columns"])
	assert.Nil(t, stats.GrandTotal)
}

package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/askdb/pkg/apperrors"
	"github.com/ekaya-inc/askdb/pkg/models"
)

func sampleTables() []models.TableSchema {
	return []models.TableSchema{
		{
			Name: "EMPLOYEES_1A2B3C4D",
			Columns: []models.TableColumn{
				{Name: "SALARY", DataType: "NUMBER", Description: "الراتب الشهري"},
				{Name: "JOB_TITLE", DataType: "VARCHAR2"},
				{Name: "AGE", DataType: "NUMBER"},
			},
		},
		{
			Name: "DEPARTMENTS_0000ABCD",
			Columns: []models.TableColumn{
				{Name: "NAME", DataType: "VARCHAR2", Description: "department name"},
			},
		},
	}
}

func TestDescribeSchema_PreservesOrder(t *testing.T) {
	desc, err := DescribeSchema(sampleTables())
	require.NoError(t, err)

	assert.Equal(t, []string{"EMPLOYEES_1A2B3C4D", "DEPARTMENTS_0000ABCD"}, desc.TableNames())
	require.Len(t, desc.Tables[0].Columns, 3)
	assert.Equal(t, "SALARY", desc.Tables[0].Columns[0].Name)
	assert.Equal(t, "JOB_TITLE", desc.Tables[0].Columns[1].Name)
	assert.Equal(t, "AGE", desc.Tables[0].Columns[2].Name)
	assert.Equal(t, "الراتب الشهري", desc.Tables[0].Columns[0].Description)
}

func TestDescribeSchema_JSONIsStable(t *testing.T) {
	first, err := DescribeSchema(sampleTables())
	require.NoError(t, err)
	second, err := DescribeSchema(sampleTables())
	require.NoError(t, err)

	a, err := first.JSON()
	require.NoError(t, err)
	b, err := second.JSON()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	expected := `{
  "EMPLOYEES_1A2B3C4D": [
    {
      "name": "SALARY",
      "data_type": "NUMBER",
      "description": "الراتب الشهري"
    },
    {
      "name": "JOB_TITLE",
      "data_type": "VARCHAR2"
    },
    {
      "name": "AGE",
      "data_type": "NUMBER"
    }
  ],
  "DEPARTMENTS_0000ABCD": [
    {
      "name": "NAME",
      "data_type": "VARCHAR2",
      "description": "department name"
    }
  ]
}`
	assert.Equal(t, expected, a)
}

func TestDescribeSchema_Empty(t *testing.T) {
	desc, err := DescribeSchema(nil)
	require.NoError(t, err)
	out, err := desc.JSON()
	require.NoError(t, err)
	assert.Equal(t, "{}", out)
}

func TestDescribeSchema_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		tables []models.TableSchema
	}{
		{
			name:   "missing table name",
			tables: []models.TableSchema{{Columns: []models.TableColumn{{Name: "A"}}}},
		},
		{
			name: "duplicate column",
			tables: []models.TableSchema{{
				Name:    "T",
				Columns: []models.TableColumn{{Name: "A"}, {Name: "a"}},
			}},
		},
		{
			name:   "duplicate table",
			tables: []models.TableSchema{{Name: "T"}, {Name: "T"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DescribeSchema(tt.tables)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

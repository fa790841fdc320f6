package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/apperrors"
	"github.com/ekaya-inc/askdb/pkg/config"
	"github.com/ekaya-inc/askdb/pkg/models"
)

func doubleQuote(name string) string { return `"` + name + `"` }

func employeeTables() []models.TableSchema {
	return []models.TableSchema{
		{
			Name: "EMPLOYEES_1A2B3C4D",
			Columns: []models.TableColumn{
				{Name: "EMP_ID", DataType: "NUMBER", Description: "معرف الموظف"},
				{Name: "JOB_TITLE", DataType: "VARCHAR2", Description: "المسمى الوظيفي"},
				{Name: "MONTHLY_PAY", DataType: "NUMBER", Description: "الراتب الشهري"},
			},
		},
		{
			Name:    "DEPARTMENTS_5E6F7A8B",
			Columns: []models.TableColumn{{Name: "SALARY_BAND", DataType: "NUMBER"}},
		},
	}
}

func TestFallbackBuilder_Build(t *testing.T) {
	b := NewFallbackBuilder(config.FallbackConfig{}, zap.NewNop())

	tests := []struct {
		name     string
		question string
		want     string
	}{
		{
			name:     "arabic average with department filter",
			question: "ما هو متوسط الراتب في قسم الموارد البشرية؟",
			want:     `SELECT AVG("MONTHLY_PAY") AS average_salary FROM "EMPLOYEES_1A2B3C4D" WHERE "JOB_TITLE" LIKE '%الموارد البشرية%'`,
		},
		{
			name:     "arabic total",
			question: "ما مجموع الرواتب؟",
			want:     `SELECT SUM("MONTHLY_PAY") AS total_salaries FROM "EMPLOYEES_1A2B3C4D"`,
		},
		{
			name:     "arabic count",
			question: "كم عدد الموظفين؟",
			want:     `SELECT COUNT(*) AS record_count FROM "EMPLOYEES_1A2B3C4D"`,
		},
		{
			name:     "english keywords are case-insensitive",
			question: "What is the Average pay?",
			want:     `SELECT AVG("MONTHLY_PAY") AS average_salary FROM "EMPLOYEES_1A2B3C4D"`,
		},
		{
			name:     "english count phrase",
			question: "How many employees do we have?",
			want:     `SELECT COUNT(*) AS record_count FROM "EMPLOYEES_1A2B3C4D"`,
		},
		{
			name:     "english department question gets no arabic filter",
			question: "What is the total payroll for the HR department?",
			want:     `SELECT SUM("MONTHLY_PAY") AS total_salaries FROM "EMPLOYEES_1A2B3C4D"`,
		},
		{
			name:     "average wins over count",
			question: "average salary and count of staff",
			want:     `SELECT AVG("MONTHLY_PAY") AS average_salary FROM "EMPLOYEES_1A2B3C4D"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Build(tt.question, employeeTables(), doubleQuote)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFallbackBuilder_NoMatch(t *testing.T) {
	b := NewFallbackBuilder(config.FallbackConfig{}, zap.NewNop())

	questions := []string{
		"show me the newest hires",
		"Which country do our customers live in?",
		"Show me a summary of consumers by region",
		"List the discounted products",
		"Which accounts were opened this year?",
		"How manyfold did revenue grow?",
	}

	for _, q := range questions {
		t.Run(q, func(t *testing.T) {
			got, err := b.Build(q, employeeTables(), doubleQuote)
			assert.ErrorIs(t, err, apperrors.ErrNoFallback)
			assert.Empty(t, got)
		})
	}
}

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		words []string
		want  bool
	}{
		{"latin whole word", "the SUM of pay", []string{"sum"}, true},
		{"latin inside word", "summary", []string{"sum"}, false},
		{"latin phrase", "how  many rows", []string{"how many"}, true},
		{"latin phrase split by other words", "how the many", []string{"how many"}, false},
		{"identifier segments", "JOB_TITLE", []string{"job"}, true},
		{"accented latin", "Quelle est la moyenne générale", []string{"générale"}, true},
		{"arabic stem as substring", "المسمى الوظيفي", []string{"وظيف"}, true},
		{"blank entries ignored", "anything", []string{"", "  "}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesAny(tt.text, tt.words))
		})
	}
}

func TestFallbackBuilder_AverageNeedsAmountColumn(t *testing.T) {
	b := NewFallbackBuilder(config.FallbackConfig{}, zap.NewNop())
	tables := []models.TableSchema{{
		Name:    "ORDERS",
		Columns: []models.TableColumn{{Name: "STATUS", DataType: "VARCHAR"}},
	}}

	_, err := b.Build("متوسط", tables, doubleQuote)
	assert.ErrorIs(t, err, apperrors.ErrNoFallback)

	// Count does not need one.
	got, err := b.Build("عدد الطلبات", tables, doubleQuote)
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) AS record_count FROM "ORDERS"`, got)
}

func TestFallbackBuilder_Disabled(t *testing.T) {
	b := NewFallbackBuilder(config.FallbackConfig{Disabled: true}, zap.NewNop())

	_, err := b.Build("عدد", employeeTables(), doubleQuote)
	assert.ErrorIs(t, err, apperrors.ErrNoFallback)
}

func TestFallbackBuilder_NoTables(t *testing.T) {
	b := NewFallbackBuilder(config.FallbackConfig{}, zap.NewNop())

	_, err := b.Build("عدد", nil, doubleQuote)
	assert.ErrorIs(t, err, apperrors.ErrNoFallback)
}

func TestFallbackBuilder_CustomVocabularyEscapesValue(t *testing.T) {
	b := NewFallbackBuilder(config.FallbackConfig{
		CountWords:      []string{"combien"},
		DepartmentWords: []string{"service"},
		JobKeywords:     []string{"job"},
		DepartmentValue: "O'Brien",
		CountAlias:      "n",
	}, zap.NewNop())

	got, err := b.Build("combien dans le service", employeeTables(), doubleQuote)
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) AS n FROM "EMPLOYEES_1A2B3C4D" WHERE "JOB_TITLE" LIKE '%O''Brien%'`, got)
}

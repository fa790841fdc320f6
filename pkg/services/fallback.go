package services

import (
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/apperrors"
	"github.com/ekaya-inc/askdb/pkg/config"
	"github.com/ekaya-inc/askdb/pkg/models"
	sqlutil "github.com/ekaya-inc/askdb/pkg/sql"
)

// FallbackBuilder produces a canned aggregate query when the model could not.
type FallbackBuilder interface {
	Build(question string, tables []models.TableSchema, quote sqlutil.QuoteFunc) (string, error)
}

type fallbackBuilder struct {
	vocab  config.FallbackConfig
	logger *zap.Logger
}

// NewFallbackBuilder creates a keyword-driven builder. Empty vocabulary lists
// are filled with the built-in defaults.
func NewFallbackBuilder(vocab config.FallbackConfig, logger *zap.Logger) FallbackBuilder {
	return &fallbackBuilder{
		vocab:  vocab.WithDefaults(),
		logger: logger.Named("fallback"),
	}
}

// Build inspects only the first table. Average is checked before total and
// total before count; average and total need an amount column. A question
// that matches nothing returns apperrors.ErrNoFallback.
func (b *fallbackBuilder) Build(question string, tables []models.TableSchema, quote sqlutil.QuoteFunc) (string, error) {
	if b.vocab.Disabled || len(tables) == 0 || strings.TrimSpace(question) == "" {
		return "", apperrors.ErrNoFallback
	}

	table := tables[0]
	amountCol := findColumn(table, b.vocab.AmountKeywords)
	jobCol := findColumn(table, b.vocab.JobKeywords)

	var selectList string
	switch {
	case matchesAny(question, b.vocab.AverageWords) && amountCol != "":
		selectList = fmt.Sprintf("AVG(%s) AS %s", quote(amountCol), b.vocab.AverageAlias)
	case matchesAny(question, b.vocab.TotalWords) && amountCol != "":
		selectList = fmt.Sprintf("SUM(%s) AS %s", quote(amountCol), b.vocab.TotalAlias)
	case matchesAny(question, b.vocab.CountWords):
		selectList = fmt.Sprintf("COUNT(*) AS %s", b.vocab.CountAlias)
	default:
		return "", apperrors.ErrNoFallback
	}

	query := fmt.Sprintf("SELECT %s FROM %s", selectList, quote(table.Name))
	if jobCol != "" && matchesAny(question, b.vocab.DepartmentWords) {
		pattern := "%" + strings.ReplaceAll(b.vocab.DepartmentValue, "'", "''") + "%"
		query += fmt.Sprintf(" WHERE %s LIKE '%s'", quote(jobCol), pattern)
	}

	b.logger.Info("Using fallback SQL",
		zap.String("table", table.Name),
		zap.String("sql", query))
	return query, nil
}

// findColumn returns the first column whose description or name contains
// one of the keywords.
func findColumn(table models.TableSchema, keywords []string) string {
	for _, col := range table.Columns {
		if matchesAny(col.Description, keywords) || matchesAny(col.Name, keywords) {
			return col.Name
		}
	}
	return ""
}

// matchesAny reports whether text contains one of words, ignoring case.
// Latin-script entries must match whole words, and a multi-word entry must
// match consecutive words, so "sum" does not fire inside "summary". Entries in
// other scripts match as substrings so Arabic stems such as "وظيف" still hit
// their inflected forms.
func matchesAny(text string, words []string) bool {
	lower := strings.ToLower(text)
	var tokens []string
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if !isLatinScript(w) {
			if strings.Contains(lower, w) {
				return true
			}
			continue
		}
		if tokens == nil {
			tokens = splitWords(lower)
		}
		if containsRun(tokens, splitWords(w)) {
			return true
		}
	}
	return false
}

// splitWords breaks text on anything that is not a letter or digit, so
// identifiers like JOB_TITLE yield "job" and "title".
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func isLatinScript(word string) bool {
	for _, r := range word {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return false
		}
	}
	return true
}

func containsRun(tokens, run []string) bool {
	if len(run) == 0 {
		return false
	}
	for i := 0; i+len(run) <= len(tokens); i++ {
		match := true
		for j, w := range run {
			if tokens[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// Package sql provides lexical SQL utilities for generated statements:
// validation, cleanup, identifier quoting, table-name correction and
// metadata extraction. None of it is a full parser.
package sql

import (
	"errors"
	"strings"
)

var (
	// ErrMultipleStatements indicates the query contains multiple SQL statements.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")

	// ErrEmptyStatement indicates nothing executable remained after cleanup.
	ErrEmptyStatement = errors.New("empty SQL statement")
)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// ValidationResult contains the normalized SQL and any validation errors.
type ValidationResult struct {
	NormalizedSQL string
	Error         error
}

// ValidateAndNormalize validates using standard SQL string rules.
func ValidateAndNormalize(sqlQuery string) ValidationResult {
	return Syntax{}.ValidateAndNormalize(sqlQuery)
}

// ValidateAndNormalize strips trailing semicolons and rejects input that still
// contains a statement separator outside literals, quoted identifiers and comments.
func (syn Syntax) ValidateAndNormalize(sqlQuery string) ValidationResult {
	sqlQuery = strings.TrimSpace(sqlQuery)
	if sqlQuery == "" {
		return ValidationResult{NormalizedSQL: sqlQuery}
	}

	normalized := stripTrailingSemicolons(sqlQuery)

	for _, tok := range syn.Tokenize(normalized) {
		if tok.Kind == TokenPunct && tok.Text == ";" {
			return ValidationResult{Error: ErrMultipleStatements}
		}
	}

	return ValidationResult{NormalizedSQL: normalized}
}

// NormalizeForExecution normalizes using standard SQL string rules.
func NormalizeForExecution(sqlQuery string) (string, error) {
	return Syntax{}.NormalizeForExecution(sqlQuery)
}

// NormalizeForExecution prepares stored or generated SQL for a driver:
// comments are removed, line breaks between tokens become spaces and trailing
// terminators are stripped. Multiple statements are rejected.
func (syn Syntax) NormalizeForExecution(sqlQuery string) (string, error) {
	var b strings.Builder
	for _, tok := range syn.Tokenize(sqlQuery) {
		switch tok.Kind {
		case TokenComment:
			b.WriteByte(' ')
		case TokenWhitespace:
			b.WriteString(lineBreaks.Replace(tok.Text))
		default:
			b.WriteString(tok.Text)
		}
	}

	result := syn.ValidateAndNormalize(b.String())
	if result.Error != nil {
		return "", result.Error
	}
	if result.NormalizedSQL == "" {
		return "", ErrEmptyStatement
	}
	return result.NormalizedSQL, nil
}

// stripTrailingSemicolons removes trailing semicolons and surrounding whitespace.
func stripTrailingSemicolons(sqlQuery string) string {
	for {
		trimmed := strings.TrimRight(sqlQuery, " \t\n\r")
		if !strings.HasSuffix(trimmed, ";") {
			return trimmed
		}
		sqlQuery = strings.TrimSuffix(trimmed, ";")
	}
}

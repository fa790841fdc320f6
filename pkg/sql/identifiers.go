package sql

import (
	"strings"

	"github.com/ekaya-inc/askdb/pkg/models"
)

// QuoteFunc quotes one identifier in a dialect's syntax.
type QuoteFunc func(name string) string

// QuoteIdentifiers quotes identifiers using standard SQL string rules.
func QuoteIdentifiers(sqlText string, tables []models.TableSchema, quote QuoteFunc) string {
	return Syntax{}.QuoteIdentifiers(sqlText, tables, quote)
}

// QuoteIdentifiers quotes every bare occurrence of a known table or column
// name. Matching is whole-word and case-insensitive; the replacement uses the
// name as spelled in the schema. Words inside literals, comments or already
// quoted identifiers are left alone, as are words used as function names
// (immediately followed by an opening parenthesis).
func (syn Syntax) QuoteIdentifiers(sqlText string, tables []models.TableSchema, quote QuoteFunc) string {
	known := knownIdentifiers(tables)
	if len(known) == 0 {
		return sqlText
	}

	tokens := syn.Tokenize(sqlText)
	changed := false
	for i, tok := range tokens {
		if tok.Kind != TokenWord {
			continue
		}
		canonical, ok := known[strings.ToUpper(tok.Text)]
		if !ok {
			continue
		}
		if next := nextSignificant(tokens, i+1); next >= 0 && tokens[next].Text == "(" {
			continue
		}
		tokens[i] = Token{Kind: TokenQuotedIdent, Text: quote(canonical), Depth: tok.Depth}
		changed = true
	}

	if !changed {
		return sqlText
	}
	return Join(tokens)
}

// knownIdentifiers maps uppercased names to their schema spelling. Table names
// take precedence over column names.
func knownIdentifiers(tables []models.TableSchema) map[string]string {
	known := make(map[string]string)
	for _, t := range tables {
		if t.Name != "" {
			known[strings.ToUpper(t.Name)] = t.Name
		}
	}
	for _, t := range tables {
		for _, c := range t.Columns {
			key := strings.ToUpper(c.Name)
			if _, exists := known[key]; !exists && c.Name != "" {
				known[key] = c.Name
			}
		}
	}
	return known
}

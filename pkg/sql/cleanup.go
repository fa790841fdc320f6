package sql

import (
	"errors"
	"regexp"
	"strings"
)

// ErrUnrecognizedStatement indicates generated text does not start with a
// statement verb this system executes.
var ErrUnrecognizedStatement = errors.New("unrecognized SQL statement")

var (
	fencedBlockPattern   = regexp.MustCompile("(?is)```(?:[a-z]+[ \\t]*\\r?\\n|[ \\t]*\\r?\\n?)(.*?)```")
	leadingFencePattern  = regexp.MustCompile("(?i)^```(sql)?")
	trailingFencePattern = regexp.MustCompile("```$")
	danglingUnionPattern = regexp.MustCompile(`(?i)\s+UNION(\s+ALL)?\s*;?\s*$`)
)

// RecognizedVerbs are the statement verbs generated SQL may start with.
var RecognizedVerbs = []string{"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "WITH"}

// StripCodeFences removes markdown code fences around model output. When the
// text contains a complete fenced block, the first block's content is used.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fencedBlockPattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	s = leadingFencePattern.ReplaceAllString(s, "")
	s = trailingFencePattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// TrimDanglingUnion removes a trailing UNION or UNION ALL left behind when
// model output was truncated.
func TrimDanglingUnion(s string) string {
	return strings.TrimSpace(danglingUnionPattern.ReplaceAllString(s, ""))
}

// KeepFirstStatement applies the standard-SQL KeepFirstStatement.
func KeepFirstStatement(s string) string {
	return Syntax{}.KeepFirstStatement(s)
}

// KeepFirstStatement keeps only the text before the second top-level SELECT
// keyword. SELECTs nested in parentheses, literals, quoted identifiers or
// comments do not count. Input with fewer than two top-level SELECTs is
// returned trimmed.
func (syn Syntax) KeepFirstStatement(s string) string {
	tokens := syn.Tokenize(s)
	seen := 0
	for i, tok := range tokens {
		if tok.Depth == 0 && tok.IsKeyword("SELECT") {
			seen++
			if seen == 2 {
				return TrimDanglingUnion(Join(tokens[:i]))
			}
		}
	}
	return strings.TrimSpace(s)
}

// LeadingVerb returns the uppercased first word of the statement, skipping
// leading whitespace and comments.
func LeadingVerb(s string) string {
	return Syntax{}.leadingVerb(s)
}

func (syn Syntax) leadingVerb(s string) string {
	tokens := syn.Tokenize(s)
	i := nextSignificant(tokens, 0)
	if i < 0 || tokens[i].Kind != TokenWord {
		return ""
	}
	return tokens[i].Upper()
}

// HasRecognizedVerb reports whether the statement starts with one of RecognizedVerbs.
func HasRecognizedVerb(s string) bool {
	return Syntax{}.hasRecognizedVerb(s)
}

func (syn Syntax) hasRecognizedVerb(s string) bool {
	verb := syn.leadingVerb(s)
	for _, v := range RecognizedVerbs {
		if verb == v {
			return true
		}
	}
	return false
}

// CleanGeneratedSQL cleans model output using standard SQL string rules.
func CleanGeneratedSQL(raw string) (string, error) {
	return Syntax{}.CleanGeneratedSQL(raw)
}

// CleanGeneratedSQL turns raw model output into a single candidate statement:
// code fences are stripped, a dangling UNION is removed, extra top-level
// SELECTs are dropped and the statement verb is checked.
func (syn Syntax) CleanGeneratedSQL(raw string) (string, error) {
	cleaned := StripCodeFences(raw)
	cleaned = TrimDanglingUnion(cleaned)
	cleaned = syn.KeepFirstStatement(cleaned)

	if cleaned == "" {
		return "", ErrEmptyStatement
	}
	if !syn.hasRecognizedVerb(cleaned) {
		return "", ErrUnrecognizedStatement
	}
	return cleaned, nil
}

package sql

import (
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes a string literal that libinjection flagged.
type InjectionCheckResult struct {
	Literal     string // literal content with quotes removed
	Fingerprint string // libinjection fingerprint of the detected pattern
}

// CheckValueForInjection runs libinjection over a single value. Only string
// values are checked; other types cannot carry an injection payload.
func CheckValueForInjection(value any) *InjectionCheckResult {
	strValue, ok := value.(string)
	if !ok {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(strValue)
	if !isSQLi {
		return nil
	}
	return &InjectionCheckResult{Literal: strValue, Fingerprint: string(fingerprint)}
}

// CheckLiterals screens literals using standard SQL string rules.
func CheckLiterals(sqlText string) []*InjectionCheckResult {
	return Syntax{}.CheckLiterals(sqlText)
}

// CheckLiterals screens every string literal in a statement.
// Model output should only ever put plain data inside literals, so a literal
// that itself parses as an injection payload is reported.
//
// Example:
//
//	results := CheckLiterals("SELECT * FROM t WHERE name = ''' OR ''1''=''1'")
//	// len(results) == 1
func (syn Syntax) CheckLiterals(sqlText string) []*InjectionCheckResult {
	var results []*InjectionCheckResult
	for _, tok := range syn.Tokenize(sqlText) {
		if tok.Kind != TokenString {
			continue
		}
		if result := CheckValueForInjection(syn.literalContent(tok.Text)); result != nil {
			results = append(results, result)
		}
	}
	return results
}

// literalContent strips the delimiters of a string token and resolves its
// escapes.
func (syn Syntax) literalContent(literal string) string {
	if tag := dollarTag(literal); syn.DollarQuotes && tag != "" {
		return strings.TrimSuffix(strings.TrimPrefix(literal, tag), tag)
	}

	backslash := syn.BackslashEscapes
	if syn.EscapeStrings && (strings.HasPrefix(literal, "E'") || strings.HasPrefix(literal, "e'")) {
		literal = literal[1:]
		backslash = true
	}
	body := strings.TrimPrefix(literal, "'")
	body = strings.TrimSuffix(body, "'")
	if !backslash {
		return strings.ReplaceAll(body, "''", "'")
	}

	var b strings.Builder
	for i := 0; i < len(body); i++ {
		switch {
		case body[i] == '\\' && i+1 < len(body):
			i++
		case body[i] == '\'' && i+1 < len(body) && body[i+1] == '\'':
			i++
		}
		b.WriteByte(body[i])
	}
	return b.String()
}

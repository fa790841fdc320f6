package sql

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ekaya-inc/askdb/pkg/models"
)

// aggregateFunctions are the calls recorded as metrics, in report order.
var aggregateFunctions = []string{"SUM", "COUNT", "AVG", "MAX", "MIN"}

// clauseTerminators end a GROUP BY or WHERE clause at the same depth.
var clauseTerminators = map[string]struct{}{
	"GROUP":  {},
	"ORDER":  {},
	"HAVING": {},
	"LIMIT":  {},
	"FETCH":  {},
	"OFFSET": {},
	"UNION":  {},
	"WINDOW": {},
}

var (
	currentDatePattern = regexp.MustCompile(`(?i)\b(SYSDATE|CURRENT_DATE|CURRENT_TIMESTAMP|SYSTIMESTAMP|GETDATE|NOW)\b`)
	dateShiftPattern   = regexp.MustCompile(`(?i)\b(ADD_MONTHS|INTERVAL|DATEADD|DATE_SUB)\b`)

	// tried in order; the first match gives the month count
	monthCountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bADD_MONTHS\s*\([^,]*,\s*-\s*(\d+)`),
		regexp.MustCompile(`(?i)\bINTERVAL\s*'?\s*(\d+)`),
		regexp.MustCompile(`-\s*(\d+)`),
	}
)

// ExtractQueryMetadata recovers advisory metadata from SQL text: GROUP BY
// columns, aggregate calls, a coarse relative time window and the raw WHERE
// clause. Group-by names are reported in the spelling used by columns when
// one matches case-insensitively. Unrecognized SQL yields empty metadata.
func ExtractQueryMetadata(sqlText string, columns []string) models.QueryFilterData {
	tokens := Tokenize(sqlText)

	var data models.QueryFilterData
	data.GroupBy = extractGroupBy(tokens, columns)
	data.Metrics = extractMetrics(tokens)
	data.TimePeriod = extractTimePeriod(sqlText)
	if where := extractWhere(tokens); where != "" {
		data.Filters = map[string]string{"where_clause": where}
	}
	return data
}

func extractGroupBy(tokens []Token, columns []string) []string {
	start, depth := -1, 0
	for i, tok := range tokens {
		if !tok.IsKeyword("GROUP") {
			continue
		}
		if j := nextSignificant(tokens, i+1); j >= 0 && tokens[j].IsKeyword("BY") {
			start, depth = j+1, tok.Depth
			break
		}
	}
	if start < 0 {
		return nil
	}

	var items [][]Token
	var current []Token
	for _, tok := range tokens[start:] {
		if tok.Depth < depth {
			break
		}
		if tok.Depth == depth {
			if _, stop := clauseTerminators[tok.Upper()]; stop && tok.Kind == TokenWord {
				break
			}
			if tok.Kind == TokenPunct && tok.Text == "," {
				items = append(items, current)
				current = nil
				continue
			}
		}
		current = append(current, tok)
	}
	items = append(items, current)

	byUpper := make(map[string]string, len(columns))
	for _, c := range columns {
		byUpper[strings.ToUpper(c)] = c
	}

	var groupBy []string
	for _, item := range items {
		name := lastSegment(item)
		if name == "" {
			continue
		}
		if canonical, ok := byUpper[strings.ToUpper(name)]; ok {
			name = canonical
		}
		groupBy = append(groupBy, name)
	}
	return groupBy
}

// lastSegment returns the final identifier of a qualified name, or the
// trimmed expression text when the item is not a plain name.
func lastSegment(item []Token) string {
	var significant []Token
	for _, tok := range item {
		if tok.Kind != TokenWhitespace && tok.Kind != TokenComment {
			significant = append(significant, tok)
		}
	}
	if len(significant) == 0 {
		return ""
	}
	for i, tok := range significant {
		isName := tok.Kind == TokenWord || tok.Kind == TokenQuotedIdent
		if i%2 == 0 && !isName {
			return strings.TrimSpace(Join(item))
		}
		if i%2 == 1 && tok.Text != "." {
			return strings.TrimSpace(Join(item))
		}
	}
	return significant[len(significant)-1].IdentifierName()
}

func extractMetrics(tokens []Token) []string {
	var metrics []string
	seen := make(map[string]struct{})
	for _, fn := range aggregateFunctions {
		for i, tok := range tokens {
			if !tok.IsKeyword(fn) {
				continue
			}
			open := nextSignificant(tokens, i+1)
			if open < 0 || tokens[open].Text != "(" {
				continue
			}
			arg := callArgument(tokens, open)
			if arg == "" {
				continue
			}
			metric := fmt.Sprintf("%s(%s)", fn, arg)
			if _, dup := seen[metric]; dup {
				continue
			}
			seen[metric] = struct{}{}
			metrics = append(metrics, metric)
		}
	}
	return metrics
}

// callArgument returns the text between the parenthesis at tokens[open] and
// its match. A plain qualified column is reduced to its last segment.
func callArgument(tokens []Token, open int) string {
	depth := tokens[open].Depth
	var inner []Token
	for _, tok := range tokens[open+1:] {
		if tok.Text == ")" && tok.Kind == TokenPunct && tok.Depth == depth {
			break
		}
		inner = append(inner, tok)
	}
	arg := lastSegment(inner)
	return strings.Join(strings.Fields(arg), " ")
}

func extractTimePeriod(sqlText string) *string {
	if !currentDatePattern.MatchString(sqlText) || !dateShiftPattern.MatchString(sqlText) {
		return nil
	}
	for _, p := range monthCountPatterns {
		if m := p.FindStringSubmatch(sqlText); m != nil {
			period := fmt.Sprintf("last_%s_months", m[1])
			return &period
		}
	}
	return nil
}

func extractWhere(tokens []Token) string {
	start, depth := -1, 0
	for i, tok := range tokens {
		if tok.IsKeyword("WHERE") && tok.Depth == 0 {
			start, depth = i+1, tok.Depth
			break
		}
	}
	if start < 0 {
		return ""
	}

	end := len(tokens)
	for i := start; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Depth < depth {
			end = i
			break
		}
		if tok.Depth == depth && tok.Kind == TokenWord {
			if _, stop := clauseTerminators[tok.Upper()]; stop {
				end = i
				break
			}
		}
	}
	return strings.TrimSpace(Join(tokens[start:end]))
}

// ExtractTableNames returns the tables referenced after FROM and JOIN,
// deduplicated case-insensitively and sorted. Qualified names are reduced to
// the table segment. FROM inside a function call such as EXTRACT(MONTH FROM d)
// or TRIM(BOTH ' ' FROM s) is not a table reference.
func ExtractTableNames(sqlText string) []string {
	tokens := Tokenize(sqlText)
	seen := make(map[string]struct{})
	var names []string

	for i, tok := range tokens {
		if !tok.IsKeyword("JOIN") && !(tok.IsKeyword("FROM") && !insideCallArguments(tokens, i)) {
			continue
		}
		j := nextSignificant(tokens, i+1)
		if j < 0 || (tokens[j].Kind != TokenWord && tokens[j].Kind != TokenQuotedIdent) {
			continue
		}
		for j+2 < len(tokens) && tokens[j+1].Text == "." &&
			(tokens[j+2].Kind == TokenWord || tokens[j+2].Kind == TokenQuotedIdent) {
			j += 2
		}
		name := tokens[j].IdentifierName()
		key := strings.ToUpper(name)
		if _, dup := seen[key]; dup || name == "" {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// insideCallArguments reports whether tokens[i] sits directly inside a
// parenthesized group that does not open a subquery. A FROM at depth zero or
// right inside "(SELECT ..." or "(WITH ..." belongs to a query.
func insideCallArguments(tokens []Token, i int) bool {
	depth := tokens[i].Depth
	if depth == 0 {
		return false
	}
	for j := i - 1; j >= 0; j-- {
		if tokens[j].Kind == TokenPunct && tokens[j].Text == "(" && tokens[j].Depth == depth-1 {
			first := nextSignificant(tokens, j+1)
			if first < 0 {
				return true
			}
			return !tokens[first].IsKeyword("SELECT") && !tokens[first].IsKeyword("WITH")
		}
	}
	return false
}

package sql

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"
)

// hashSuffixPattern matches the uniqueness suffix appended to physical table names.
var hashSuffixPattern = regexp.MustCompile(`(?i)_[0-9a-f]{8}$`)

// tableReferenceKeywords precede a table reference in the positions the
// corrector rewrites.
var tableReferenceKeywords = map[string]struct{}{
	"FROM":   {},
	"JOIN":   {},
	"UPDATE": {},
	"INTO":   {},
}

// BaseTableName strips a trailing _xxxxxxxx hash suffix from a physical table
// name. The second result reports whether a suffix was present.
func BaseTableName(physical string) (string, bool) {
	loc := hashSuffixPattern.FindStringIndex(physical)
	if loc == nil || loc[0] == 0 {
		return physical, false
	}
	return physical[:loc[0]], true
}

// TableCorrector rewrites generic table names produced by a model (the name
// without its hash suffix) into the physical names known from the schema.
type TableCorrector struct {
	mappings map[string]string // uppercased generic name -> physical name
	quote    QuoteFunc
}

// NewTableCorrector builds a corrector for the given physical table names.
//
// A generic name is only mapped when it is unambiguous: it must not equal an
// existing physical name and must not be shared by two physical tables.
// Singular and plural forms of each generic name are mapped under the same rules.
func NewTableCorrector(physicalNames []string, quote QuoteFunc) *TableCorrector {
	physical := make(map[string]struct{}, len(physicalNames))
	for _, name := range physicalNames {
		physical[strings.ToUpper(name)] = struct{}{}
	}

	candidates := make(map[string][]string)
	addCandidate := func(alias, target string) {
		key := strings.ToUpper(alias)
		if key == "" {
			return
		}
		if _, isPhysical := physical[key]; isPhysical {
			return
		}
		for _, existing := range candidates[key] {
			if existing == target {
				return
			}
		}
		candidates[key] = append(candidates[key], target)
	}

	bases := make(map[string]string)
	for _, name := range physicalNames {
		base, ok := BaseTableName(name)
		if !ok {
			continue
		}
		addCandidate(base, name)
		bases[strings.ToUpper(base)] = name
	}
	for base, name := range bases {
		if len(candidates[base]) != 1 {
			continue
		}
		for _, alias := range []string{inflection.Singular(base), inflection.Plural(base)} {
			if strings.ToUpper(alias) == base {
				continue
			}
			if _, isBase := bases[strings.ToUpper(alias)]; isBase {
				continue
			}
			addCandidate(alias, name)
		}
	}

	mappings := make(map[string]string, len(candidates))
	for alias, targets := range candidates {
		if len(targets) == 1 {
			mappings[alias] = targets[0]
		}
	}

	return &TableCorrector{mappings: mappings, quote: quote}
}

// Mappings returns the generic-to-physical map, keyed by uppercased generic name.
func (c *TableCorrector) Mappings() map[string]string {
	out := make(map[string]string, len(c.mappings))
	for k, v := range c.mappings {
		out[k] = v
	}
	return out
}

// Correct rewrites table references that follow FROM, JOIN, UPDATE or INTO
// and name a generic table, bare or quoted, into the quoted physical name.
// The second result reports whether anything changed. Running Correct on its
// own output changes nothing further.
func (c *TableCorrector) Correct(sqlText string) (string, bool) {
	if len(c.mappings) == 0 {
		return sqlText, false
	}

	tokens := Tokenize(sqlText)
	changed := false
	for i, tok := range tokens {
		if tok.Kind != TokenWord {
			continue
		}
		if _, ok := tableReferenceKeywords[tok.Upper()]; !ok {
			continue
		}
		j := nextSignificant(tokens, i+1)
		if j < 0 || (tokens[j].Kind != TokenWord && tokens[j].Kind != TokenQuotedIdent) {
			continue
		}
		if j+1 < len(tokens) && tokens[j+1].Text == "." {
			// schema-qualified reference; the name is a schema, not a table
			continue
		}
		physical, ok := c.mappings[strings.ToUpper(tokens[j].IdentifierName())]
		if !ok {
			continue
		}
		tokens[j] = Token{Kind: TokenQuotedIdent, Text: c.quote(physical), Depth: tokens[j].Depth}
		changed = true
	}

	if !changed {
		return sqlText, false
	}
	return Join(tokens), true
}

// GenericNames lists the mapped generic names in sorted order.
func (c *TableCorrector) GenericNames() []string {
	names := make([]string, 0, len(c.mappings))
	for k := range c.mappings {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

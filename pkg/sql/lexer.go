package sql

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind classifies a lexical token.
type TokenKind int

const (
	TokenWord TokenKind = iota
	TokenQuotedIdent
	TokenString
	TokenWhitespace
	TokenComment
	TokenPunct
)

// Token is a slice of SQL text. Concatenating the Text of every token
// reproduces the input exactly.
type Token struct {
	Kind  TokenKind
	Text  string
	Depth int // parenthesis depth at the start of the token
}

// Upper returns the token text uppercased, for keyword comparison.
func (t Token) Upper() string {
	return strings.ToUpper(t.Text)
}

// IsKeyword reports whether the token is the bare word kw (case-insensitive).
func (t Token) IsKeyword(kw string) bool {
	return t.Kind == TokenWord && strings.EqualFold(t.Text, kw)
}

// IdentifierName returns the identifier a word or quoted identifier refers to,
// with delimiters removed and doubled delimiters collapsed.
func (t Token) IdentifierName() string {
	switch t.Kind {
	case TokenWord:
		return t.Text
	case TokenQuotedIdent:
		if len(t.Text) < 2 {
			return t.Text
		}
		open, body := t.Text[0], t.Text[1:]
		closing := closingDelimiter(open)
		body = strings.TrimSuffix(body, string(closing))
		return strings.ReplaceAll(body, string([]byte{closing, closing}), string(closing))
	}
	return ""
}

func closingDelimiter(open byte) byte {
	if open == '[' {
		return ']'
	}
	return open
}

// Syntax selects the string-literal rules of a dialect. The zero value is
// standard SQL, where a quote is escaped only by doubling it.
type Syntax struct {
	// BackslashEscapes makes a backslash escape the next character inside
	// single-quoted strings, as MySQL does by default.
	BackslashEscapes bool
	// DollarQuotes recognizes Postgres $$...$$ and $tag$...$tag$ strings.
	DollarQuotes bool
	// EscapeStrings recognizes Postgres E'...' strings, which take backslash
	// escapes even when BackslashEscapes is off.
	EscapeStrings bool
}

// Tokenize splits SQL text into tokens using standard SQL string rules.
func Tokenize(s string) []Token {
	return Syntax{}.Tokenize(s)
}

// Tokenize splits SQL text into tokens. It understands single-quoted strings,
// identifiers quoted with double quotes, brackets or backticks, line and block
// comments, and tracks parenthesis depth. It never fails: unterminated
// constructs extend to the end of the input.
func (syn Syntax) Tokenize(s string) []Token {
	var tokens []Token
	depth := 0
	i := 0

	for i < len(s) {
		start := i
		r, size := utf8.DecodeRuneInString(s[i:])
		kind := TokenPunct
		tokDepth := depth

		switch {
		case unicode.IsSpace(r):
			kind = TokenWhitespace
			for i < len(s) {
				r, size = utf8.DecodeRuneInString(s[i:])
				if !unicode.IsSpace(r) {
					break
				}
				i += size
			}
		case r == '-' && strings.HasPrefix(s[i:], "--"):
			kind = TokenComment
			if nl := strings.IndexByte(s[i:], '\n'); nl >= 0 {
				i += nl
			} else {
				i = len(s)
			}
		case r == '/' && strings.HasPrefix(s[i:], "/*"):
			kind = TokenComment
			if end := strings.Index(s[i+2:], "*/"); end >= 0 {
				i += end + 4
			} else {
				i = len(s)
			}
		case r == '\'':
			kind = TokenString
			i = scanDelimited(s, i, '\'', syn.BackslashEscapes)
		case syn.EscapeStrings && (r == 'E' || r == 'e') && strings.HasPrefix(s[i+1:], "'"):
			kind = TokenString
			i = scanDelimited(s, i+1, '\'', true)
		case syn.DollarQuotes && r == '$' && dollarTag(s[i:]) != "":
			kind = TokenString
			tag := dollarTag(s[i:])
			if end := strings.Index(s[i+len(tag):], tag); end >= 0 {
				i += len(tag) + end + len(tag)
			} else {
				i = len(s)
			}
		case r == '"' || r == '`' || r == '[':
			kind = TokenQuotedIdent
			i = scanDelimited(s, i, closingDelimiter(byte(r)), false)
		case isWordRune(r):
			kind = TokenWord
			for i < len(s) {
				r, size = utf8.DecodeRuneInString(s[i:])
				if !isWordRune(r) {
					break
				}
				i += size
			}
		default:
			i += size
			switch r {
			case '(':
				depth++
			case ')':
				if depth > 0 {
					depth--
				}
				tokDepth = depth
			}
		}

		tokens = append(tokens, Token{Kind: kind, Text: s[start:i], Depth: tokDepth})
	}

	return tokens
}

// scanDelimited returns the index just past a delimited run starting at
// s[start], treating a doubled closing delimiter as an escape. With
// backslash set, a backslash also escapes the following byte.
func scanDelimited(s string, start int, closing byte, backslash bool) int {
	i := start + 1
	for i < len(s) {
		if backslash && s[i] == '\\' {
			i += 2
			continue
		}
		if s[i] == closing {
			if i+1 < len(s) && s[i+1] == closing {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(s)
}

// dollarTag returns the opening delimiter of a dollar-quoted string at the
// start of s ("$$" or "$name$"), or "" when s does not start with one.
// Positional parameters such as $1 are not tags.
func dollarTag(s string) string {
	if !strings.HasPrefix(s, "$") {
		return ""
	}
	for i, r := range s[1:] {
		switch {
		case r == '$':
			return s[:i+2]
		case r == '_' || unicode.IsLetter(r):
		case unicode.IsDigit(r) && i > 0:
		default:
			return ""
		}
	}
	return ""
}

func isWordRune(r rune) bool {
	return r == '_' || r == '$' || r == '#' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Join concatenates token text.
func Join(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// nextSignificant returns the index of the first token at or after i that is
// neither whitespace nor a comment, or -1.
func nextSignificant(tokens []Token, i int) int {
	for ; i < len(tokens); i++ {
		if tokens[i].Kind != TokenWhitespace && tokens[i].Kind != TokenComment {
			return i
		}
	}
	return -1
}

package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"SELECT 1",
		"SELECT \"a\"\"b\", [c]]d], `e` FROM t -- trailing",
		"SELECT 'it''s' /* block */ FROM (SELECT 1) x",
		"SELECT 'unterminated",
		"SELECT رقم FROM جدول",
	}
	for _, in := range inputs {
		assert.Equal(t, in, Join(Tokenize(in)))
	}
}

func TestTokenize_Kinds(t *testing.T) {
	tokens := Tokenize(`SELECT "Name", 'x;y' -- c` + "\n" + `FROM t`)

	var kinds []TokenKind
	var texts []string
	for _, tok := range tokens {
		if tok.Kind == TokenWhitespace {
			continue
		}
		kinds = append(kinds, tok.Kind)
		texts = append(texts, tok.Text)
	}

	assert.Equal(t, []TokenKind{
		TokenWord, TokenQuotedIdent, TokenPunct, TokenString, TokenComment, TokenWord, TokenWord,
	}, kinds)
	assert.Equal(t, []string{"SELECT", `"Name"`, ",", "'x;y'", "-- c", "FROM", "t"}, texts)
}

func TestTokenize_Depth(t *testing.T) {
	tokens := Tokenize("a (b (c)) d")

	depths := map[string]int{}
	for _, tok := range tokens {
		if tok.Kind == TokenWord {
			depths[tok.Text] = tok.Depth
		}
	}
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2, "d": 0}, depths)

	// parentheses carry the depth outside them
	var parens []int
	for _, tok := range tokens {
		if tok.Text == "(" || tok.Text == ")" {
			parens = append(parens, tok.Depth)
		}
	}
	assert.Equal(t, []int{0, 1, 1, 0}, parens)
}

func TestToken_IdentifierName(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{`"CUSTOMERS"`, "CUSTOMERS"},
		{`"a""b"`, `a"b`},
		{"[order]", "order"},
		{"[a]]b]", "a]b"},
		{"`name`", "name"},
	}
	for _, tt := range tests {
		tokens := Tokenize(tt.text)
		require.Len(t, tokens, 1, tt.text)
		assert.Equal(t, TokenQuotedIdent, tokens[0].Kind)
		assert.Equal(t, tt.expected, tokens[0].IdentifierName())
	}

	word := Tokenize("plain")[0]
	assert.Equal(t, "plain", word.IdentifierName())
}

func significantTexts(tokens []Token) ([]TokenKind, []string) {
	var kinds []TokenKind
	var texts []string
	for _, tok := range tokens {
		if tok.Kind == TokenWhitespace {
			continue
		}
		kinds = append(kinds, tok.Kind)
		texts = append(texts, tok.Text)
	}
	return kinds, texts
}

func TestSyntax_Tokenize(t *testing.T) {
	mysql := Syntax{BackslashEscapes: true}
	postgres := Syntax{DollarQuotes: true, EscapeStrings: true}

	t.Run("backslash escaped quote", func(t *testing.T) {
		kinds, texts := significantTexts(mysql.Tokenize(`SELECT 'it\'s' FROM t`))
		assert.Equal(t, []TokenKind{TokenWord, TokenString, TokenWord, TokenWord}, kinds)
		assert.Equal(t, []string{"SELECT", `'it\'s'`, "FROM", "t"}, texts)
	})

	t.Run("standard rules treat backslash as data", func(t *testing.T) {
		_, texts := significantTexts(Tokenize(`SELECT 'C:\' FROM t`))
		assert.Equal(t, []string{"SELECT", `'C:\'`, "FROM", "t"}, texts)
	})

	t.Run("dollar quoted strings", func(t *testing.T) {
		kinds, texts := significantTexts(postgres.Tokenize(`SELECT $$a;b$$, $tag$x$$y$tag$, $1 FROM t`))
		assert.Equal(t, []string{"SELECT", "$$a;b$$", ",", "$tag$x$$y$tag$", ",", "$1", "FROM", "t"}, texts)
		assert.Equal(t, TokenString, kinds[1])
		assert.Equal(t, TokenString, kinds[3])
		assert.Equal(t, TokenWord, kinds[5])
	})

	t.Run("escape string prefix", func(t *testing.T) {
		kinds, texts := significantTexts(postgres.Tokenize(`SELECT E'it\'s' AS x`))
		assert.Equal(t, []string{"SELECT", `E'it\'s'`, "AS", "x"}, texts)
		assert.Equal(t, TokenString, kinds[1])
	})

	t.Run("round trip", func(t *testing.T) {
		for _, in := range []string{`SELECT 'a\'b`, `SELECT $$unterminated`, `SELECT $x$ (1) $x$`} {
			assert.Equal(t, in, Join(mysql.Tokenize(in)))
			assert.Equal(t, in, Join(postgres.Tokenize(in)))
		}
	})

	t.Run("parentheses inside dollar body do not change depth", func(t *testing.T) {
		tokens := postgres.Tokenize(`SELECT $$(($$ FROM t`)
		for _, tok := range tokens {
			assert.Equal(t, 0, tok.Depth, tok.Text)
		}
	})
}

package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []Kind {
	ks := make([]Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestLexSimpleAssignment(t *testing.T) {
	toks, err := Lex("x = 1\n")
	require.NoError(t, err)
	assert.Equal(t, []Kind{IDENT, OPERATOR, INT, NEWLINE, EOF}, kinds(toks))
}

func TestLexIndentDedent(t *testing.T) {
	src := "if x:\n  y = 1\nz = 2\n"
	toks, err := Lex(src)
	require.NoError(t, err)
	assert.Contains(t, kinds(toks), INDENT)
	assert.Contains(t, kinds(toks), DEDENT)
}

func TestLexTabIsFatal(t *testing.T) {
	_, err := Lex("if x:\n\ty = 1\n")
	require.Error(t, err)
	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
}

func TestLexOddIndentIsFatal(t *testing.T) {
	_, err := Lex("if x:\n   y = 1\n")
	require.Error(t, err)
}

func TestLexUnterminatedString(t *testing.T) {
	_, err := Lex(`x = "hello`)
	require.Error(t, err)
}

func TestLexStringEscapes(t *testing.T) {
	toks, err := Lex(`x = "a\nb\t\"c\\"` + "\n")
	require.NoError(t, err)
	var found bool
	for _, tok := range toks {
		if tok.Kind == STRING {
			found = true
			assert.Equal(t, `"a\nb\t\"c\\"`, tok.Lexeme)
		}
	}
	assert.True(t, found)
}

func TestLexCommentEmitsNoTokens(t *testing.T) {
	toks, err := Lex("-- a comment\nx = 1\n")
	require.NoError(t, err)
	assert.Equal(t, []Kind{IDENT, OPERATOR, INT, NEWLINE, EOF}, kinds(toks))
}

func TestLexBracketsSuppressNewline(t *testing.T) {
	src := "x = [1,\n2,\n3]\n"
	toks, err := Lex(src)
	require.NoError(t, err)
	newlines := 0
	for _, k := range kinds(toks) {
		if k == NEWLINE {
			newlines++
		}
	}
	assert.Equal(t, 1, newlines)
}

func TestLexKeywords(t *testing.T) {
	toks, err := Lex("contract foo(n):\n")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(toks), 2)
	assert.Equal(t, KEYWORD, toks[0].Kind)
	assert.Equal(t, IDENT, toks[1].Kind)
}

func TestLexSourceTooLarge(t *testing.T) {
	big := make([]byte, maxSourceBytes+1)
	for i := range big {
		big[i] = 'a'
	}
	_, err := Lex(string(big))
	require.Error(t, err)
}

func TestLexFloatAndInt(t *testing.T) {
	toks, err := Lex("x = 1.5\ny = 2\n")
	require.NoError(t, err)
	var sawFloat, sawInt bool
	for _, tok := range toks {
		if tok.Kind == FLOAT && tok.Lexeme == "1.5" {
			sawFloat = true
		}
		if tok.Kind == INT && tok.Lexeme == "2" {
			sawInt = true
		}
	}
	assert.True(t, sawFloat)
	assert.True(t, sawInt)
}

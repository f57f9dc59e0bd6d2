package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonaskivi/rae-sub000/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestTokenizeKeywordsAndIdents(t *testing.T) {
	toks, _, err := Tokenize("t.rae", []byte("func main() { ret }"))
	require.NoError(t, err)
	assert.Equal(t, []token.Kind{
		token.KwFunc, token.Ident, token.LParen, token.RParen,
		token.LBrace, token.KwRet, token.RBrace, token.EOF,
	}, kinds(toks))
}

func TestIntegerLeadingZeroIsError(t *testing.T) {
	_, _, err := Tokenize("t.rae", []byte("042"))
	require.Error(t, err)
}

func TestFloatPromotion(t *testing.T) {
	toks, _, err := Tokenize("t.rae", []byte("7.0 7 7."))
	require.NoError(t, err)
	require.Len(t, toks, 5) // 7.0, 7, 7, ., EOF  ('.' not followed by digit stays Dot)
	assert.Equal(t, token.Float, toks[0].Kind)
	assert.Equal(t, "7.0", toks[0].Lexeme)
	assert.Equal(t, token.Integer, toks[1].Kind)
	assert.Equal(t, token.Integer, toks[2].Kind)
	assert.Equal(t, token.Dot, toks[3].Kind)
}

func TestLineColumnTrackingAcrossNewlines(t *testing.T) {
	toks, _, err := Tokenize("t.rae", []byte("a\nbb\r\nccc"))
	require.NoError(t, err)
	require.Len(t, toks, 4)
	assert.Equal(t, token.Pos{Line: 1, Col: 1}, toks[0].Pos)
	assert.Equal(t, token.Pos{Line: 2, Col: 1}, toks[1].Pos)
	assert.Equal(t, token.Pos{Line: 3, Col: 1}, toks[2].Pos)
}

func TestPlainStringWithEscapes(t *testing.T) {
	toks, _, err := Tokenize("t.rae", []byte(`"hi\n\u{41}"`))
	require.NoError(t, err)
	require.Equal(t, token.String, toks[0].Kind)
	assert.Equal(t, "hi\nA", toks[0].Lexeme)
}

func TestInterpolatedString(t *testing.T) {
	// "a{x}b{y}c"
	toks, _, err := Tokenize("t.rae", []byte(`"a{x}b{y}c"`))
	require.NoError(t, err)
	assert.Equal(t, []token.Kind{
		token.StringStart, token.Ident, token.StringMid, token.Ident, token.StringEnd, token.EOF,
	}, kinds(toks))
	assert.Equal(t, "a", toks[0].Lexeme)
	assert.Equal(t, "x", toks[1].Lexeme)
	assert.Equal(t, "b", toks[2].Lexeme)
	assert.Equal(t, "y", toks[3].Lexeme)
	assert.Equal(t, "c", toks[4].Lexeme)
}

func TestInterpolatedStringWithNestedBraceExpr(t *testing.T) {
	// "x{(a: 1)}y" — the object literal's braces would be parens here, but
	// exercise a nested block-looking expression using braces directly:
	// "x{ {1} }y" is not valid source-language syntax on its own, so instead
	// verify that a bare nested brace pair inside the interpolation is
	// tracked by depth rather than ending the interpolation early.
	toks, _, err := Tokenize("t.rae", []byte(`"x{ {} }y"`))
	require.NoError(t, err)
	assert.Equal(t, []token.Kind{
		token.StringStart, token.LBrace, token.RBrace, token.StringEnd, token.EOF,
	}, kinds(toks))
}

func TestRawString(t *testing.T) {
	toks, _, err := Tokenize("t.rae", []byte(`r#"a"b"#`))
	require.NoError(t, err)
	require.Equal(t, token.RawString, toks[0].Kind)
	assert.Equal(t, `a"b`, toks[0].Lexeme)
}

func TestCharLiteral(t *testing.T) {
	toks, _, err := Tokenize("t.rae", []byte(`'a' '\n' '\u{42}'`))
	require.NoError(t, err)
	assert.Equal(t, "a", toks[0].Lexeme)
	assert.Equal(t, "\n", toks[1].Lexeme)
	assert.Equal(t, "B", toks[2].Lexeme)
}

func TestBlockCommentNesting(t *testing.T) {
	l := New("t.rae", []byte("#[ outer #[ inner ]# still outer ]# ok"))
	tok, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, token.Ident, tok.Kind)
	assert.Equal(t, "ok", tok.Lexeme)
	require.Len(t, l.Comments(), 1)
	assert.True(t, l.Comments()[0].Block)
}

func TestLineComment(t *testing.T) {
	l := New("t.rae", []byte("a # trailing\nb"))
	t1, _ := l.Next()
	t2, _ := l.Next()
	assert.Equal(t, "a", t1.Lexeme)
	assert.Equal(t, "b", t2.Lexeme)
	require.Len(t, l.Comments(), 1)
	assert.False(t, l.Comments()[0].Block)
}

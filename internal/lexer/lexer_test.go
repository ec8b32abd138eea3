package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GouruRK/compilation/internal/lexer"
)

func kinds(toks []lexer.Token) []lexer.Kind {
	out := make([]lexer.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeKeywordsAndIdent(t *testing.T) {
	toks := lexer.New("int main ( ) { return 0 ; }").Tokenize()
	got := kinds(toks)
	want := []lexer.Kind{
		lexer.KwInt, lexer.Ident, lexer.LParen, lexer.RParen, lexer.LBrace,
		lexer.KwReturn, lexer.Num, lexer.Semicolon, lexer.RBrace, lexer.EOF,
	}
	require.Equal(t, want, got)
}

func TestTokenizeTwoCharOperators(t *testing.T) {
	toks := lexer.New("a == b != c && d || !e").Tokenize()
	got := kinds(toks)
	assert.Contains(t, got, lexer.Eq)
	assert.Contains(t, got, lexer.Neq)
	assert.Contains(t, got, lexer.AndAnd)
	assert.Contains(t, got, lexer.OrOr)
	assert.Contains(t, got, lexer.Bang)
}

func TestTokenizeSkipsLineAndBlockComments(t *testing.T) {
	toks := lexer.New("1 // trailing\n/* block */ 2").Tokenize()
	got := kinds(toks)
	require.Equal(t, []lexer.Kind{lexer.Num, lexer.Num, lexer.EOF}, got)
	assert.Equal(t, int64(1), toks[0].NumVal)
	assert.Equal(t, int64(2), toks[1].NumVal)
}

func TestTokenizeCharacterEscapes(t *testing.T) {
	toks := lexer.New(`'a' '\n' '\0'`).Tokenize()
	require.Len(t, toks, 4) // 3 chars + EOF
	assert.Equal(t, int64('a'), toks[0].NumVal)
	assert.Equal(t, int64('\n'), toks[1].NumVal)
	assert.Equal(t, int64(0), toks[2].NumVal)
}

func TestTokenizeUnknownEscapeRecordsError(t *testing.T) {
	l := lexer.New(`'\q'`)
	l.Tokenize()
	assert.NotEmpty(t, l.Errors())
}

func TestTokenizeTracksLineAndColumn(t *testing.T) {
	toks := lexer.New("a\nb").Tokenize()
	require.Len(t, toks, 3)
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 2, toks[1].Line)
	assert.Equal(t, 1, toks[1].Col)
}

func TestTokenizeOverlongIdentRecordsError(t *testing.T) {
	long := make([]byte, lexer.MaxIdentLen+1)
	for i := range long {
		long[i] = 'a'
	}
	l := lexer.New(string(long))
	l.Tokenize()
	assert.NotEmpty(t, l.Errors())
}

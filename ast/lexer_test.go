// Copyright (c) 2024 The Falcon Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []Token) []TokenKind {
	ks := make([]TokenKind, len(tokens))
	for i, t := range tokens {
		ks[i] = t.Kind
	}
	return ks
}

func TestTokenizeKeywordsAndPunctuation(t *testing.T) {
	tokens, err := Tokenize("int main(void) { return 0; }")
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{
		KW_INT, TK_IDENT, TK_LPAREN, KW_VOID, TK_RPAREN,
		TK_LBRACE, KW_RETURN, LIT_INT, TK_SEMICOLON, TK_RBRACE, TK_EOF,
	}, kinds(tokens))
}

func TestTokenizeSkipsCommentsAndDirectives(t *testing.T) {
	tokens, err := Tokenize("// comment\n# 1 \"foo.c\"\n/* block\ncomment */ int x;")
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{KW_INT, TK_IDENT, TK_SEMICOLON, TK_EOF}, kinds(tokens))
}

func TestTokenizeLongSuffix(t *testing.T) {
	tokens, err := Tokenize("42l 42L 42")
	require.NoError(t, err)
	require.Len(t, tokens, 4)
	assert.Equal(t, LIT_LONG, tokens[0].Kind)
	assert.Equal(t, LIT_LONG, tokens[1].Kind)
	assert.Equal(t, LIT_INT, tokens[2].Kind)
}

func TestTokenizeLiteralTooBigForIntBecomesLong(t *testing.T) {
	tokens, err := Tokenize("3000000000")
	require.NoError(t, err)
	assert.Equal(t, LIT_LONG, tokens[0].Kind)
}

func TestTokenizeLiteralOverflow(t *testing.T) {
	_, err := Tokenize("99999999999999999999")
	require.Error(t, err)
	var lexErr *LexError
	assert.ErrorAs(t, err, &lexErr)
}

func TestTokenizeSuffixedLiteralOverflow(t *testing.T) {
	// Between int64 max (9223372036854775807) and uint64 max
	// (18446744073709551615) — strconv.ParseUint accepts it, but it still
	// doesn't fit a 64-bit long and must be rejected here, not deferred to
	// the parser's later ParseInt check.
	_, err := Tokenize("9999999999999999999L")
	require.Error(t, err)
	var lexErr *LexError
	assert.ErrorAs(t, err, &lexErr)
}

func TestTokenizeDecrementIsTokenizedButInert(t *testing.T) {
	tokens, err := Tokenize("x--y")
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{TK_IDENT, TK_DECREMENT, TK_IDENT, TK_EOF}, kinds(tokens))
}

func TestTokenizeCompoundAssignment(t *testing.T) {
	tokens, err := Tokenize("x += 1; y -= 2; z *= 3; w /= 4; v %= 5;")
	require.NoError(t, err)
	var ops []TokenKind
	for _, tk := range tokens {
		switch tk.Kind {
		case TK_PLUS_ASSIGN, TK_MINUS_ASSIGN, TK_TIMES_ASSIGN, TK_DIV_ASSIGN, TK_MOD_ASSIGN:
			ops = append(ops, tk.Kind)
		}
	}
	assert.Equal(t, []TokenKind{TK_PLUS_ASSIGN, TK_MINUS_ASSIGN, TK_TIMES_ASSIGN, TK_DIV_ASSIGN, TK_MOD_ASSIGN}, ops)
}

func TestTokenizeInvalidCharacter(t *testing.T) {
	_, err := Tokenize("int x = 1 & 2;")
	require.Error(t, err)
}

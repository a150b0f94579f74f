package egraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLex(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "atom",
			input: "x",
			expected: []Token{
				{Type: TokenAtom, Value: "x", Line: 1, Col: 1},
				{Type: TokenEOF, Line: 1, Col: 2},
			},
		},
		{
			name:  "list",
			input: "(+ 1 -2)",
			expected: []Token{
				{Type: TokenLParen, Value: "(", Line: 1, Col: 1},
				{Type: TokenAtom, Value: "+", Line: 1, Col: 2},
				{Type: TokenAtom, Value: "1", Line: 1, Col: 4},
				{Type: TokenAtom, Value: "-2", Line: 1, Col: 6},
				{Type: TokenRParen, Value: ")", Line: 1, Col: 8},
				{Type: TokenEOF, Line: 1, Col: 9},
			},
		},
		{
			name:  "non-ascii atoms",
			input: "(à Å\u00a0)",
			expected: []Token{
				{Type: TokenLParen, Value: "(", Line: 1, Col: 1},
				{Type: TokenAtom, Value: "à", Line: 1, Col: 2},
				{Type: TokenAtom, Value: "Å\u00a0", Line: 1, Col: 5},
				{Type: TokenRParen, Value: ")", Line: 1, Col: 9},
				{Type: TokenEOF, Line: 1, Col: 10},
			},
		},
		{
			name:  "comment and newline",
			input: "(+ 1 ; note\n x)",
			expected: []Token{
				{Type: TokenLParen, Value: "(", Line: 1, Col: 1},
				{Type: TokenAtom, Value: "+", Line: 1, Col: 2},
				{Type: TokenAtom, Value: "1", Line: 1, Col: 4},
				{Type: TokenAtom, Value: "x", Line: 2, Col: 2},
				{Type: TokenRParen, Value: ")", Line: 2, Col: 3},
				{Type: TokenEOF, Line: 2, Col: 4},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tokens, err := Lex(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tokens)
		})
	}
}

func TestLexRejectsControlCharacters(t *testing.T) {
	t.Parallel()
	_, err := Lex("(+ 1\x00 2)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1 col 5")
}

func TestParseExprErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		input  string
		target error
		msg    string
	}{
		{name: "empty", input: "  ; nothing\n", target: ErrEmptyInput},
		{name: "missing close", input: "(+ 1 2", target: ErrUnbalanced},
		{name: "stray close", input: ")", target: ErrUnbalanced},
		{name: "extra close", input: "(+ 1 2))", target: ErrUnbalanced},
		{name: "trailing expression", input: "(+ 1 2) 3", msg: "after expression"},
		{name: "empty list", input: "()", msg: "must start with an operator"},
		{name: "symbol without arguments", input: "(x)", target: ErrNoArguments, msg: "line 1 col 1: (x)"},
		{name: "literal without arguments", input: "(+ 1 (5))", target: ErrNoArguments, msg: "line 1 col 6"},
		{name: "node parser error", input: "(+ 1 2 3)", msg: "too many arguments"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseExpr[arith](tt.input, parseArith)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestExprString(t *testing.T) {
	t.Parallel()
	for _, src := range []string{
		"x",
		"(+ x 1)",
		"(+ x (* y 2))",
		"(f (f (f z)))",
	} {
		expr := mustExpr(t, src)
		assert.Equal(t, src, expr.String())
	}

	spaced := mustExpr(t, "(+\n  x\n  (* y 2))")
	assert.Equal(t, "(+ x (* y 2))", spaced.String())
	assert.Equal(t, 5, spaced.Len())
	assert.Equal(t, "+", spaced.Nodes()[spaced.Root()].op)
}

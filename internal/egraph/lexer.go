package egraph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyInput is returned when a term or pattern has no tokens.
	ErrEmptyInput = errors.New("empty input")
	// ErrUnbalanced is returned for a missing or stray parenthesis.
	ErrUnbalanced = errors.New("unbalanced parentheses")
	// ErrNoArguments is returned for a list with an operator and nothing
	// else, such as (x). Childless terms are written as bare atoms.
	ErrNoArguments = errors.New("list has no arguments")
)

// TokenType defines the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLParen
	TokenRParen
	TokenAtom
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenLParen:
		return "LParen"
	case TokenRParen:
		return "RParen"
	case TokenAtom:
		return "Atom"
	default:
		return "Unknown"
	}
}

// Token represents a lexical token of an s-expression.
type Token struct {
	Type  TokenType
	Value string
	Line  int
	Col   int
}

// Lex splits an s-expression into tokens. A ';' starts a comment that runs
// to the end of the line.
func Lex(input string) ([]Token, error) {
	var tokens []Token
	var atom strings.Builder

	line, col := 1, 1
	atomLine, atomCol := 0, 0

	flushAtom := func() {
		if atom.Len() > 0 {
			tokens = append(tokens, Token{Type: TokenAtom, Value: atom.String(), Line: atomLine, Col: atomCol})
			atom.Reset()
		}
	}

	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case c == ';':
			flushAtom()
			for i < len(input) && input[i] != '\n' {
				i++
			}
			line++
			col = 1
			continue
		case c == '(':
			flushAtom()
			tokens = append(tokens, Token{Type: TokenLParen, Value: "(", Line: line, Col: col})
		case c == ')':
			flushAtom()
			tokens = append(tokens, Token{Type: TokenRParen, Value: ")", Line: line, Col: col})
		case isWhitespace(c):
			flushAtom()
		case c < 0x20 || c == 0x7f:
			return nil, fmt.Errorf("line %d col %d: unexpected control character %q", line, col, c)
		default:
			if atom.Len() == 0 {
				atomLine, atomCol = line, col
			}
			atom.WriteByte(c)
		}

		if c == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	flushAtom()

	tokens = append(tokens, Token{Type: TokenEOF, Line: line, Col: col})
	return tokens, nil
}

// isWhitespace only accepts ASCII spaces; bytes of multi-byte UTF-8
// sequences belong to atoms.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// sexp is a parsed s-expression: either an atom or a list with an atom head.
type sexp struct {
	atom string
	list []sexp
	line int
	col  int
}

func (s sexp) isAtom() bool {
	return s.list == nil
}

// parseSexp parses exactly one s-expression from src.
func parseSexp(src string) (sexp, error) {
	tokens, err := Lex(src)
	if err != nil {
		return sexp{}, err
	}
	if tokens[0].Type == TokenEOF {
		return sexp{}, ErrEmptyInput
	}

	p := &sexpParser{tokens: tokens}
	s, err := p.parse()
	if err != nil {
		return sexp{}, err
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		if tok.Type == TokenRParen {
			return sexp{}, fmt.Errorf("line %d col %d: %w", tok.Line, tok.Col, ErrUnbalanced)
		}
		return sexp{}, fmt.Errorf("line %d col %d: unexpected %q after expression", tok.Line, tok.Col, tok.Value)
	}
	return s, nil
}

type sexpParser struct {
	tokens []Token
	pos    int
}

func (p *sexpParser) peek() Token {
	return p.tokens[p.pos]
}

func (p *sexpParser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *sexpParser) parse() (sexp, error) {
	tok := p.next()
	switch tok.Type {
	case TokenAtom:
		return sexp{atom: tok.Value, line: tok.Line, col: tok.Col}, nil
	case TokenLParen:
		head := p.next()
		if head.Type != TokenAtom {
			if head.Type == TokenEOF {
				return sexp{}, fmt.Errorf("line %d col %d: %w", head.Line, head.Col, ErrUnbalanced)
			}
			return sexp{}, fmt.Errorf("line %d col %d: list must start with an operator", head.Line, head.Col)
		}
		s := sexp{atom: head.Value, list: []sexp{}, line: tok.Line, col: tok.Col}
		for {
			switch p.peek().Type {
			case TokenRParen:
				p.next()
				if len(s.list) == 0 {
					return sexp{}, fmt.Errorf("line %d col %d: (%s): %w", tok.Line, tok.Col, s.atom, ErrNoArguments)
				}
				return s, nil
			case TokenEOF:
				eof := p.peek()
				return sexp{}, fmt.Errorf("line %d col %d: %w", eof.Line, eof.Col, ErrUnbalanced)
			}
			child, err := p.parse()
			if err != nil {
				return sexp{}, err
			}
			s.list = append(s.list, child)
		}
	case TokenRParen:
		return sexp{}, fmt.Errorf("line %d col %d: %w", tok.Line, tok.Col, ErrUnbalanced)
	default:
		return sexp{}, fmt.Errorf("line %d col %d: %w", tok.Line, tok.Col, ErrEmptyInput)
	}
}

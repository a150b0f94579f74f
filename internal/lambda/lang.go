package lambda

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gnolang/lambsat/internal/egraph"
)

// Op is the operator of a node.
type Op uint8

const (
	OpBool Op = iota
	OpNum
	OpVar
	OpAdd
	OpEq
	OpApp
	OpLam
	OpLet
	OpFix
	OpIf
	OpSymbol
)

var opNames = [...]string{
	OpBool:   "bool",
	OpNum:    "num",
	OpVar:    "var",
	OpAdd:    "+",
	OpEq:     "=",
	OpApp:    "app",
	OpLam:    "lam",
	OpLet:    "let",
	OpFix:    "fix",
	OpIf:     "if",
	OpSymbol: "symbol",
}

var opArity = [...]int{
	OpBool:   0,
	OpNum:    0,
	OpVar:    1,
	OpAdd:    2,
	OpEq:     2,
	OpApp:    2,
	OpLam:    2,
	OpLet:    3,
	OpFix:    2,
	OpIf:     3,
	OpSymbol: 0,
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "?"
}

// Arity returns the number of child classes a node of this operator has.
func (op Op) Arity() int {
	return opArity[op]
}

// Node is one term node. Only the payload field matching Op is set, and only
// the first Op.Arity() entries of Args are used, so value equality is node
// identity.
type Node struct {
	Op   Op
	Bool bool
	Num  int32
	Sym  string
	Args [3]egraph.Id
}

type (
	EGraph  = egraph.EGraph[Node, Data]
	Expr    = egraph.Expr[Node]
	Pattern = egraph.Pattern[Node, Data]
	Rewrite = egraph.Rewrite[Node, Data]
	Runner  = egraph.Runner[Node, Data]
)

func Bool(b bool) Node     { return Node{Op: OpBool, Bool: b} }
func Num(n int32) Node     { return Node{Op: OpNum, Num: n} }
func Symbol(s string) Node { return Node{Op: OpSymbol, Sym: s} }

func Var(v egraph.Id) Node          { return Node{Op: OpVar, Args: [3]egraph.Id{v}} }
func Add(a, b egraph.Id) Node       { return Node{Op: OpAdd, Args: [3]egraph.Id{a, b}} }
func Eq(a, b egraph.Id) Node        { return Node{Op: OpEq, Args: [3]egraph.Id{a, b}} }
func App(f, x egraph.Id) Node       { return Node{Op: OpApp, Args: [3]egraph.Id{f, x}} }
func Lam(v, body egraph.Id) Node    { return Node{Op: OpLam, Args: [3]egraph.Id{v, body}} }
func Let(v, e, body egraph.Id) Node { return Node{Op: OpLet, Args: [3]egraph.Id{v, e, body}} }
func Fix(v, body egraph.Id) Node    { return Node{Op: OpFix, Args: [3]egraph.Id{v, body}} }
func If(c, t, e egraph.Id) Node     { return Node{Op: OpIf, Args: [3]egraph.Id{c, t, e}} }

// Children returns the child classes, each exactly once, in positional
// order.
func (n Node) Children() []egraph.Id {
	return n.Args[:n.Op.Arity()]
}

func (n Node) MapChildren(f func(egraph.Id) egraph.Id) Node {
	for i := 0; i < n.Op.Arity(); i++ {
		n.Args[i] = f(n.Args[i])
	}
	return n
}

func (n Node) Matches(other Node) bool {
	return n.Op == other.Op && n.Bool == other.Bool && n.Num == other.Num && n.Sym == other.Sym
}

func (n Node) num() (int32, bool) {
	if n.Op != OpNum {
		return 0, false
	}
	return n.Num, true
}

func (n Node) String() string {
	switch n.Op {
	case OpBool:
		return strconv.FormatBool(n.Bool)
	case OpNum:
		return strconv.FormatInt(int64(n.Num), 10)
	case OpSymbol:
		return n.Sym
	default:
		return n.Op.String()
	}
}

var (
	ErrArity          = errors.New("wrong number of arguments")
	ErrUnknownOp      = errors.New("unknown operator")
	ErrReservedSymbol = errors.New("reserved symbol")
)

var opsByName = map[string]Op{
	"var": OpVar,
	"+":   OpAdd,
	"=":   OpEq,
	"app": OpApp,
	"lam": OpLam,
	"let": OpLet,
	"fix": OpFix,
	"if":  OpIf,
}

// ParseNode builds a node from an s-expression operator and its children.
// Childless atoms are booleans, i32 literals or symbols.
func ParseNode(op string, children []egraph.Id) (Node, error) {
	if len(children) == 0 {
		switch op {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		if n, err := strconv.ParseInt(op, 10, 32); err == nil {
			return Num(int32(n)), nil
		}
		if o, ok := opsByName[op]; ok {
			return Node{}, fmt.Errorf("%s: %w: want %d, got 0", o, ErrArity, o.Arity())
		}
		return Symbol(op), nil
	}

	o, ok := opsByName[op]
	if !ok {
		return Node{}, fmt.Errorf("%q: %w", op, ErrUnknownOp)
	}
	if len(children) != o.Arity() {
		return Node{}, fmt.Errorf("%s: %w: want %d, got %d", o, ErrArity, o.Arity(), len(children))
	}
	n := Node{Op: o}
	copy(n.Args[:], children)
	return n, nil
}

// ParseExpr parses a program. Symbols of the form _<digits> are reserved
// for binders minted during rewriting and are rejected.
func ParseExpr(src string) (*Expr, error) {
	expr, err := egraph.ParseExpr[Node](src, ParseNode)
	if err != nil {
		return nil, err
	}
	for _, n := range expr.Nodes() {
		if n.Op == OpSymbol && IsFreshSymbol(n.Sym) {
			return nil, fmt.Errorf("%q: %w", n.Sym, ErrReservedSymbol)
		}
	}
	return expr, nil
}

// MustParseExpr is ParseExpr that panics on malformed input. It is meant
// for built-in programs.
func MustParseExpr(src string) *Expr {
	expr, err := ParseExpr(src)
	if err != nil {
		panic(err)
	}
	return expr
}

// ParsePattern parses a pattern over the term language.
func ParsePattern(src string) (*Pattern, error) {
	return egraph.ParsePattern[Node, Data](src, ParseNode)
}

// MustParsePattern is ParsePattern that panics on malformed input.
func MustParsePattern(src string) *Pattern {
	p, err := ParsePattern(src)
	if err != nil {
		panic(err)
	}
	return p
}

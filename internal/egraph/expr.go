package egraph

import (
	"fmt"
	"strings"
)

// NodeParser builds a node from an operator atom and the ids of its
// already-built children. It rejects unknown operators and wrong arities.
type NodeParser[L any] func(op string, children []Id) (L, error)

// Expr is a term stored as a flat slice of nodes. Child ids index earlier
// entries of the same slice and the last entry is the root.
type Expr[L Language[L]] struct {
	nodes []L
}

// Add appends n and returns its index.
func (e *Expr[L]) Add(n L) Id {
	e.nodes = append(e.nodes, n)
	return Id(len(e.nodes) - 1)
}

// Nodes returns the nodes in insertion order.
func (e *Expr[L]) Nodes() []L {
	return e.nodes
}

// Root returns the index of the root node.
func (e *Expr[L]) Root() Id {
	return Id(len(e.nodes) - 1)
}

// Len returns the number of nodes.
func (e *Expr[L]) Len() int {
	return len(e.nodes)
}

func (e *Expr[L]) String() string {
	if len(e.nodes) == 0 {
		return "()"
	}
	var sb strings.Builder
	e.write(&sb, e.Root())
	return sb.String()
}

func (e *Expr[L]) write(sb *strings.Builder, id Id) {
	n := e.nodes[id]
	children := n.Children()
	if len(children) == 0 {
		sb.WriteString(n.String())
		return
	}
	sb.WriteByte('(')
	sb.WriteString(n.String())
	for _, c := range children {
		sb.WriteByte(' ')
		e.write(sb, c)
	}
	sb.WriteByte(')')
}

// ParseExpr parses an s-expression into an Expr using parse for each node.
func ParseExpr[L Language[L]](src string, parse NodeParser[L]) (*Expr[L], error) {
	s, err := parseSexp(src)
	if err != nil {
		return nil, err
	}
	expr := &Expr[L]{}
	if _, err := buildExpr(expr, s, parse); err != nil {
		return nil, err
	}
	return expr, nil
}

func buildExpr[L Language[L]](expr *Expr[L], s sexp, parse NodeParser[L]) (Id, error) {
	children := make([]Id, 0, len(s.list))
	for _, c := range s.list {
		id, err := buildExpr(expr, c, parse)
		if err != nil {
			return 0, err
		}
		children = append(children, id)
	}
	n, err := parse(s.atom, children)
	if err != nil {
		return 0, fmt.Errorf("line %d col %d: %w", s.line, s.col, err)
	}
	return expr.Add(n), nil
}

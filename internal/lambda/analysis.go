package lambda

import (
	"sort"

	"github.com/gnolang/lambsat/internal/egraph"
)

// Data is what the analysis knows about a class.
type Data struct {
	// Free holds the symbol classes occurring free in the class.
	Free map[egraph.Id]struct{}
	// Constant is the literal the class equals, if known. Once set it is
	// never replaced.
	Constant *Node
}

// HasFree reports whether the symbol class v occurs free.
func (d Data) HasFree(v egraph.Id) bool {
	_, ok := d.Free[v]
	return ok
}

// FreeVars returns the free symbol classes in ascending order.
func (d Data) FreeVars() []egraph.Id {
	out := make([]egraph.Id, 0, len(d.Free))
	for v := range d.Free {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Analysis tracks free variables and folds constants.
type Analysis struct{}

var _ egraph.Analysis[Node, Data] = Analysis{}

// NewEGraph returns an empty graph maintained by Analysis.
func NewEGraph() *EGraph {
	return egraph.New[Node, Data](Analysis{})
}

// NewRunner returns a saturation runner over an empty graph maintained by
// Analysis.
func NewRunner() *Runner {
	return egraph.NewRunner[Node, Data](Analysis{})
}

func (Analysis) Make(n Node, data func(egraph.Id) Data) Data {
	free := make(map[egraph.Id]struct{})
	extend := func(id egraph.Id) {
		for v := range data(id).Free {
			free[v] = struct{}{}
		}
	}

	switch n.Op {
	case OpVar:
		free[n.Args[0]] = struct{}{}
	case OpLet:
		v, bound, body := n.Args[0], n.Args[1], n.Args[2]
		extend(body)
		delete(free, v)
		extend(bound)
	case OpLam, OpFix:
		v, body := n.Args[0], n.Args[1]
		extend(body)
		delete(free, v)
	default:
		for _, c := range n.Children() {
			extend(c)
		}
	}

	return Data{Free: free, Constant: eval(n, data)}
}

// Merge keeps only the free variables both classes agree on and adopts a
// constant when to has none.
func (Analysis) Merge(to *Data, from Data) bool {
	before := len(to.Free)
	for v := range to.Free {
		if _, ok := from.Free[v]; !ok {
			delete(to.Free, v)
		}
	}
	shrunk := before != len(to.Free)

	if to.Constant == nil && from.Constant != nil {
		to.Constant = from.Constant
		return true
	}
	return shrunk
}

// Modify unions a class whose value is known with the literal for that
// value.
func (Analysis) Modify(g *EGraph, id egraph.Id) {
	c := g.Data(id).Constant
	if c == nil {
		return
	}
	g.Union(id, g.Add(*c))
}

// eval folds a node to a literal when its children's constants allow it.
func eval(n Node, data func(egraph.Id) Data) *Node {
	constant := func(id egraph.Id) *Node { return data(id).Constant }

	switch n.Op {
	case OpBool, OpNum:
		lit := n
		return &lit
	case OpAdd:
		a, b := constant(n.Args[0]), constant(n.Args[1])
		if a == nil || b == nil {
			return nil
		}
		x, ok1 := a.num()
		y, ok2 := b.num()
		if !ok1 || !ok2 {
			return nil
		}
		sum := Num(x + y)
		return &sum
	case OpEq:
		a, b := constant(n.Args[0]), constant(n.Args[1])
		if a == nil || b == nil {
			return nil
		}
		eq := Bool(*a == *b)
		return &eq
	default:
		return nil
	}
}

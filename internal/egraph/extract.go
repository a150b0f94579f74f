package egraph

import "math"

// Cost is the cost of a term. Infinite marks classes with no finite term.
type Cost = uint64

const Infinite Cost = math.MaxUint64

// CostFunction assigns a cost to a node given the costs of its children.
type CostFunction[L Language[L]] interface {
	Cost(n L, costs func(Id) Cost) Cost
}

// AstSize counts nodes.
type AstSize[L Language[L]] struct{}

func (AstSize[L]) Cost(n L, costs func(Id) Cost) Cost {
	total := Cost(1)
	for _, c := range n.Children() {
		total = saturatingAdd(total, costs(c))
	}
	return total
}

// AstDepth measures the height of the term.
type AstDepth[L Language[L]] struct{}

func (AstDepth[L]) Cost(n L, costs func(Id) Cost) Cost {
	deepest := Cost(0)
	for _, c := range n.Children() {
		deepest = max(deepest, costs(c))
	}
	return saturatingAdd(deepest, 1)
}

func saturatingAdd(a, b Cost) Cost {
	if a > Infinite-b {
		return Infinite
	}
	return a + b
}

type best[L any] struct {
	cost Cost
	node L
}

// Extractor picks the cheapest node of every class under a cost function.
type Extractor[L Language[L], D any] struct {
	g     *EGraph[L, D]
	cost  CostFunction[L]
	costs map[Id]best[L]
}

// NewExtractor computes best nodes for every class of a clean graph.
func NewExtractor[L Language[L], D any](g *EGraph[L, D], cost CostFunction[L]) *Extractor[L, D] {
	e := &Extractor[L, D]{
		g:     g,
		cost:  cost,
		costs: make(map[Id]best[L], g.NumClasses()),
	}
	e.findCosts()
	return e
}

func (e *Extractor[L, D]) classCost(id Id) Cost {
	b, ok := e.costs[e.g.Find(id)]
	if !ok {
		return Infinite
	}
	return b.cost
}

func (e *Extractor[L, D]) findCosts() {
	classes := e.g.Classes()
	for changed := true; changed; {
		changed = false
		for _, class := range classes {
			for _, n := range class.Nodes {
				c := e.cost.Cost(n, e.classCost)
				if c == Infinite {
					continue
				}
				old, ok := e.costs[class.ID]
				if !ok || c < old.cost {
					e.costs[class.ID] = best[L]{cost: c, node: n}
					changed = true
				}
			}
		}
	}
}

// FindBest returns the cheapest term of the class containing id. ok is
// false when the class has no finite term.
func (e *Extractor[L, D]) FindBest(id Id) (Cost, *Expr[L], bool) {
	id = e.g.Find(id)
	b, ok := e.costs[id]
	if !ok {
		return Infinite, nil, false
	}
	expr := &Expr[L]{}
	e.build(expr, id)
	return b.cost, expr, true
}

func (e *Extractor[L, D]) build(expr *Expr[L], id Id) Id {
	n := e.costs[e.g.Find(id)].node
	return expr.Add(n.MapChildren(func(c Id) Id { return e.build(expr, c) }))
}

package egraph

import (
	"sort"
)

// Language is the constraint every node type stored in an EGraph satisfies.
//
// A node is a plain comparable value: its operator, any literal payload and
// its child class ids. Two nodes are the same node exactly when they are
// equal as Go values, which is what lets the graph hash-cons them.
type Language[L any] interface {
	comparable

	// Children returns the child class ids in positional order.
	Children() []Id
	// MapChildren returns a copy of the node with f applied to every child.
	MapChildren(f func(Id) Id) L
	// Matches reports whether two nodes share operator, payload and arity,
	// ignoring their children. It must agree with equality of the two nodes
	// once every child is mapped to 0, which is how classes index their
	// nodes for pattern search.
	Matches(other L) bool
	// String returns the operator text used when printing s-expressions.
	String() string
}

// Analysis maintains per-class data alongside the graph.
type Analysis[L Language[L], D any] interface {
	// Make computes the data of a freshly inserted node. data returns the
	// current data of any class.
	Make(n L, data func(Id) D) D
	// Merge folds from into to and reports whether to changed.
	Merge(to *D, from D) bool
	// Modify runs after a class was created or its data changed. It may add
	// nodes and union classes.
	Modify(g *EGraph[L, D], id Id)
}

// EClass is one equivalence class of nodes.
type EClass[L Language[L], D any] struct {
	ID    Id
	Nodes []L
	Data  D

	parents []parentRef[L]
	// byShape groups Nodes by their childless form. Valid while the graph
	// is clean.
	byShape map[L][]L
}

// Len returns the number of nodes in the class.
func (c *EClass[L, D]) Len() int {
	return len(c.Nodes)
}

// parentRef records a node that uses a class as a child, and the class the
// node lives in.
type parentRef[L any] struct {
	node L
	id   Id
}

// EGraph is a hash-consed set of nodes partitioned into equivalence classes,
// kept closed under congruence by Rebuild.
//
// Between a Union and the next Rebuild the graph may hold duplicate nodes
// and stale analysis data; searching should only happen on a clean graph.
type EGraph[L Language[L], D any] struct {
	analysis Analysis[L, D]
	uf       unionFind
	memo     map[L]Id
	classes  map[Id]*EClass[L, D]

	pending         []parentRef[L]
	analysisPending []parentRef[L]

	clean bool
}

// New returns an empty graph maintaining the given analysis.
func New[L Language[L], D any](analysis Analysis[L, D]) *EGraph[L, D] {
	return &EGraph[L, D]{
		analysis: analysis,
		memo:     make(map[L]Id),
		classes:  make(map[Id]*EClass[L, D]),
		clean:    true,
	}
}

// Find returns the canonical id of the class containing id.
func (g *EGraph[L, D]) Find(id Id) Id {
	return g.uf.find(id)
}

// Class returns the class containing id.
func (g *EGraph[L, D]) Class(id Id) *EClass[L, D] {
	return g.classes[g.Find(id)]
}

// Data returns the analysis data of the class containing id.
func (g *EGraph[L, D]) Data(id Id) D {
	return g.classes[g.Find(id)].Data
}

// Classes returns all classes ordered by id.
func (g *EGraph[L, D]) Classes() []*EClass[L, D] {
	out := make([]*EClass[L, D], 0, len(g.classes))
	for _, c := range g.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NumClasses returns the number of equivalence classes.
func (g *EGraph[L, D]) NumClasses() int {
	return len(g.classes)
}

// NumNodes returns the number of nodes across all classes.
func (g *EGraph[L, D]) NumNodes() int {
	n := 0
	for _, c := range g.classes {
		n += len(c.Nodes)
	}
	return n
}

// IsClean reports whether the graph has been rebuilt since the last change.
func (g *EGraph[L, D]) IsClean() bool {
	return g.clean
}

func (g *EGraph[L, D]) canonicalize(n L) L {
	return n.MapChildren(g.Find)
}

// Lookup returns the class of n if an equal node is already present.
func (g *EGraph[L, D]) Lookup(n L) (Id, bool) {
	id, ok := g.memo[g.canonicalize(n)]
	if !ok {
		return 0, false
	}
	return g.Find(id), true
}

// LookupExpr returns the class of expr if every node of it is present.
func (g *EGraph[L, D]) LookupExpr(expr *Expr[L]) (Id, bool) {
	ids := make([]Id, len(expr.nodes))
	for i, n := range expr.nodes {
		id, ok := g.Lookup(n.MapChildren(func(c Id) Id { return ids[c] }))
		if !ok {
			return 0, false
		}
		ids[i] = id
	}
	if len(ids) == 0 {
		return 0, false
	}
	return ids[len(ids)-1], true
}

// Equivs returns the class holding both terms, or nil when either term is
// missing or they live in different classes.
func (g *EGraph[L, D]) Equivs(a, b *Expr[L]) []Id {
	ida, ok := g.LookupExpr(a)
	if !ok {
		return nil
	}
	idb, ok := g.LookupExpr(b)
	if !ok || ida != idb {
		return nil
	}
	return []Id{ida}
}

// Add inserts n, returning the id of the class that now contains it.
// Structurally equal nodes are stored once.
func (g *EGraph[L, D]) Add(n L) Id {
	n = g.canonicalize(n)
	if id, ok := g.memo[n]; ok {
		return g.Find(id)
	}

	id := g.uf.makeSet()
	class := &EClass[L, D]{
		ID:    id,
		Nodes: []L{n},
		Data:  g.analysis.Make(n, g.Data),
	}
	for _, child := range n.Children() {
		parent := g.classes[g.Find(child)]
		parent.parents = append(parent.parents, parentRef[L]{node: n, id: id})
	}
	g.classes[id] = class
	g.memo[n] = id
	g.clean = false

	g.analysis.Modify(g, id)
	return g.Find(id)
}

// AddExpr inserts every node of expr and returns the class of its root.
func (g *EGraph[L, D]) AddExpr(expr *Expr[L]) Id {
	ids := make([]Id, len(expr.nodes))
	for i, n := range expr.nodes {
		ids[i] = g.Add(n.MapChildren(func(c Id) Id { return ids[c] }))
	}
	return ids[len(ids)-1]
}

// Union merges the classes of a and b and reports whether they were
// distinct. The class with more parents survives; its data absorbs the
// other's through Analysis.Merge.
func (g *EGraph[L, D]) Union(a, b Id) bool {
	a, b = g.Find(a), g.Find(b)
	if a == b {
		return false
	}
	to, from := g.classes[a], g.classes[b]
	if len(to.parents) < len(from.parents) {
		to, from = from, to
	}

	g.uf.union(to.ID, from.ID)
	delete(g.classes, from.ID)

	// parents of the absorbed class now point at a non-canonical id
	g.pending = append(g.pending, from.parents...)
	g.analysisPending = append(g.analysisPending, from.parents...)
	if g.analysis.Merge(&to.Data, from.Data) {
		g.analysisPending = append(g.analysisPending, to.parents...)
	}

	to.Nodes = append(to.Nodes, from.Nodes...)
	to.parents = append(to.parents, from.parents...)
	g.clean = false

	g.analysis.Modify(g, to.ID)
	return true
}

// Rebuild restores congruence closure and analysis consistency after a
// batch of unions. It returns the number of unions it performed.
func (g *EGraph[L, D]) Rebuild() int {
	unions := 0
	for len(g.pending) > 0 || len(g.analysisPending) > 0 {
		for len(g.pending) > 0 {
			p := g.pending[len(g.pending)-1]
			g.pending = g.pending[:len(g.pending)-1]

			n := g.canonicalize(p.node)
			if old, ok := g.memo[n]; ok {
				if g.Union(old, p.id) {
					unions++
				}
			}
			g.memo[n] = g.Find(p.id)
		}

		for len(g.analysisPending) > 0 {
			p := g.analysisPending[len(g.analysisPending)-1]
			g.analysisPending = g.analysisPending[:len(g.analysisPending)-1]

			id := g.Find(p.id)
			class := g.classes[id]
			d := g.analysis.Make(g.canonicalize(p.node), g.Data)
			if g.analysis.Merge(&class.Data, d) {
				g.analysisPending = append(g.analysisPending, class.parents...)
				g.analysis.Modify(g, id)
			}
		}
	}

	g.rebuildClasses()
	g.clean = true
	return unions
}

// rebuildClasses canonicalizes and deduplicates the nodes and parent lists
// of every class.
func (g *EGraph[L, D]) rebuildClasses() {
	for _, class := range g.classes {
		seen := make(map[L]struct{}, len(class.Nodes))
		nodes := class.Nodes[:0]
		for _, n := range class.Nodes {
			n = g.canonicalize(n)
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			nodes = append(nodes, n)
		}
		class.Nodes = nodes

		class.byShape = make(map[L][]L)
		for _, n := range nodes {
			k := shape(n)
			class.byShape[k] = append(class.byShape[k], n)
		}

		seenParents := make(map[parentRef[L]]struct{}, len(class.parents))
		parents := class.parents[:0]
		for _, p := range class.parents {
			p = parentRef[L]{node: g.canonicalize(p.node), id: g.Find(p.id)}
			if _, dup := seenParents[p]; dup {
				continue
			}
			seenParents[p] = struct{}{}
			parents = append(parents, p)
		}
		class.parents = parents
	}
}

// shape returns n with every child replaced by 0.
func shape[L Language[L]](n L) L {
	return n.MapChildren(func(Id) Id { return 0 })
}

// candidates returns the nodes of class that can match a node of the given
// shape. Dirty graphs fall back to scanning every node.
func (g *EGraph[L, D]) candidates(class *EClass[L, D], k L) []L {
	if g.clean && class.byShape != nil {
		return class.byShape[k]
	}
	var out []L
	for _, n := range class.Nodes {
		if k.Matches(n) {
			out = append(out, n)
		}
	}
	return out
}

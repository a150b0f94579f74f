package egraph

import (
	"fmt"
)

// Applier produces the right-hand side of a rewrite for one match.
//
// A *Pattern is the fixed-replacement applier. Appliers whose result depends
// on analysis data implement the interface directly.
type Applier[L Language[L], D any] interface {
	// ApplyOne adds the replacement for subst matched at eclass and returns
	// the classes to union with eclass.
	ApplyOne(g *EGraph[L, D], eclass Id, subst Subst) []Id
	// Vars returns the variables the applier reads from the match.
	Vars() []Var
}

// Condition gates a rewrite on the current graph. Returning false is not an
// error; the match is skipped.
type Condition[L Language[L], D any] interface {
	Check(g *EGraph[L, D], eclass Id, subst Subst) bool
}

// ConditionFunc adapts a function to Condition.
type ConditionFunc[L Language[L], D any] func(g *EGraph[L, D], eclass Id, subst Subst) bool

func (f ConditionFunc[L, D]) Check(g *EGraph[L, D], eclass Id, subst Subst) bool {
	return f(g, eclass, subst)
}

// ConditionEqual holds when both patterns instantiate into the same class.
// Instantiation adds the two terms to the graph.
type ConditionEqual[L Language[L], D any] struct {
	P1, P2 *Pattern[L, D]
}

func NewConditionEqual[L Language[L], D any](p1, p2 *Pattern[L, D]) *ConditionEqual[L, D] {
	return &ConditionEqual[L, D]{P1: p1, P2: p2}
}

func (c *ConditionEqual[L, D]) Check(g *EGraph[L, D], _ Id, subst Subst) bool {
	a := c.P1.Instantiate(g, subst)
	b := c.P2.Instantiate(g, subst)
	return g.Find(a) == g.Find(b)
}

// Rewrite is a named rule: a searcher pattern, an applier and optional
// conditions that must all hold for a match to be applied.
type Rewrite[L Language[L], D any] struct {
	Name       string
	Searcher   *Pattern[L, D]
	Applier    Applier[L, D]
	Conditions []Condition[L, D]
}

// NewRewrite validates that the applier only reads variables bound by the
// searcher.
func NewRewrite[L Language[L], D any](
	name string,
	searcher *Pattern[L, D],
	applier Applier[L, D],
	conditions ...Condition[L, D],
) (*Rewrite[L, D], error) {
	bound := make(map[Var]bool, len(searcher.Vars()))
	for _, v := range searcher.Vars() {
		bound[v] = true
	}
	for _, v := range applier.Vars() {
		if !bound[v] {
			return nil, fmt.Errorf("rewrite %q: right-hand side uses unbound variable %s", name, v)
		}
	}
	for _, c := range conditions {
		eq, ok := c.(*ConditionEqual[L, D])
		if !ok {
			continue
		}
		for _, v := range append(eq.P1.Vars(), eq.P2.Vars()...) {
			if !bound[v] {
				return nil, fmt.Errorf("rewrite %q: condition uses unbound variable %s", name, v)
			}
		}
	}
	return &Rewrite[L, D]{
		Name:       name,
		Searcher:   searcher,
		Applier:    applier,
		Conditions: conditions,
	}, nil
}

// Search runs the searcher over the whole graph.
func (r *Rewrite[L, D]) Search(g *EGraph[L, D]) []SearchMatches {
	return r.Searcher.Search(g)
}

// SearchWithLimit runs the searcher, stopping after limit substitutions.
func (r *Rewrite[L, D]) SearchWithLimit(g *EGraph[L, D], limit int) []SearchMatches {
	return r.Searcher.SearchWithLimit(g, limit)
}

// Apply applies every match whose conditions hold and unions the results
// with the matched class. It returns the ids whose union changed the graph.
func (r *Rewrite[L, D]) Apply(g *EGraph[L, D], matches []SearchMatches) []Id {
	var changed []Id
	for _, m := range matches {
		for _, subst := range m.Substs {
			if !r.check(g, m.EClass, subst) {
				continue
			}
			for _, id := range r.Applier.ApplyOne(g, m.EClass, subst) {
				if g.Union(id, m.EClass) {
					changed = append(changed, id)
				}
			}
		}
	}
	return changed
}

func (r *Rewrite[L, D]) check(g *EGraph[L, D], eclass Id, subst Subst) bool {
	for _, c := range r.Conditions {
		if !c.Check(g, eclass, subst) {
			return false
		}
	}
	return true
}

func (r *Rewrite[L, D]) String() string {
	if p, ok := r.Applier.(*Pattern[L, D]); ok {
		return fmt.Sprintf("%s: %s => %s", r.Name, r.Searcher, p)
	}
	return fmt.Sprintf("%s: %s => <%T>", r.Name, r.Searcher, r.Applier)
}

package egraph

import (
	"fmt"
	"strings"
)

// patNode is one entry of a pattern: either a variable or a node whose
// children index earlier entries of the pattern.
type patNode[L Language[L]] struct {
	isVar bool
	v     Var
	node  L
	shape L
}

// Pattern is a term with holes. It searches the graph as a left-hand side
// and instantiates into it as a right-hand side.
type Pattern[L Language[L], D any] struct {
	src  string
	ast  []patNode[L]
	vars []Var
}

// SearchMatches holds every substitution under which a pattern matched one
// class.
type SearchMatches struct {
	EClass Id
	Substs []Subst
}

// ParsePattern parses an s-expression pattern. Atoms starting with '?' are
// variables; every other atom goes through parse.
func ParsePattern[L Language[L], D any](src string, parse NodeParser[L]) (*Pattern[L, D], error) {
	s, err := parseSexp(src)
	if err != nil {
		return nil, fmt.Errorf("parsing pattern %q: %w", src, err)
	}
	p := &Pattern[L, D]{src: strings.Join(strings.Fields(src), " ")}
	if _, err := p.build(s, parse); err != nil {
		return nil, fmt.Errorf("parsing pattern %q: %w", src, err)
	}
	return p, nil
}

func (p *Pattern[L, D]) build(s sexp, parse NodeParser[L]) (Id, error) {
	if s.isAtom() && IsVar(s.atom) {
		v := Var(s.atom)
		p.addVar(v)
		p.ast = append(p.ast, patNode[L]{isVar: true, v: v})
		return Id(len(p.ast) - 1), nil
	}
	if IsVar(s.atom) {
		return 0, fmt.Errorf("line %d col %d: variable %s cannot be an operator", s.line, s.col, s.atom)
	}

	children := make([]Id, 0, len(s.list))
	for _, c := range s.list {
		id, err := p.build(c, parse)
		if err != nil {
			return 0, err
		}
		children = append(children, id)
	}
	n, err := parse(s.atom, children)
	if err != nil {
		return 0, fmt.Errorf("line %d col %d: %w", s.line, s.col, err)
	}
	p.ast = append(p.ast, patNode[L]{node: n, shape: shape(n)})
	return Id(len(p.ast) - 1), nil
}

func (p *Pattern[L, D]) addVar(v Var) {
	for _, known := range p.vars {
		if known == v {
			return
		}
	}
	p.vars = append(p.vars, v)
}

func (p *Pattern[L, D]) root() Id {
	return Id(len(p.ast) - 1)
}

// Vars returns the distinct variables of the pattern in first-seen order.
func (p *Pattern[L, D]) Vars() []Var {
	return p.vars
}

func (p *Pattern[L, D]) String() string {
	return p.src
}

// Search matches the pattern against every class of a clean graph.
func (p *Pattern[L, D]) Search(g *EGraph[L, D]) []SearchMatches {
	return p.SearchWithLimit(g, -1)
}

// SearchWithLimit is Search that stops once more than limit substitutions
// were found. A negative limit means no limit.
func (p *Pattern[L, D]) SearchWithLimit(g *EGraph[L, D], limit int) []SearchMatches {
	var out []SearchMatches
	total := 0
	for _, class := range g.Classes() {
		m, ok := p.SearchClass(g, class.ID)
		if !ok {
			continue
		}
		out = append(out, m)
		total += len(m.Substs)
		if limit >= 0 && total > limit {
			break
		}
	}
	return out
}

// SearchClass matches the pattern against a single class.
func (p *Pattern[L, D]) SearchClass(g *EGraph[L, D], id Id) (SearchMatches, bool) {
	id = g.Find(id)
	substs := p.match(g, p.root(), id, Subst{})
	if len(substs) == 0 {
		return SearchMatches{}, false
	}
	return SearchMatches{EClass: id, Substs: substs}, true
}

func (p *Pattern[L, D]) match(g *EGraph[L, D], pat, eclass Id, subst Subst) []Subst {
	pn := p.ast[pat]
	if pn.isVar {
		if bound, ok := subst.Get(pn.v); ok {
			if g.Find(bound) == eclass {
				return []Subst{subst}
			}
			return nil
		}
		s := subst.Clone()
		s.Insert(pn.v, eclass)
		return []Subst{s}
	}

	var out []Subst
	for _, n := range g.candidates(g.classes[eclass], pn.shape) {
		partial := []Subst{subst}
		patKids, kids := pn.node.Children(), n.Children()
		for i := range patKids {
			var next []Subst
			for _, s := range partial {
				next = append(next, p.match(g, patKids[i], g.Find(kids[i]), s)...)
			}
			partial = next
			if len(partial) == 0 {
				break
			}
		}
		out = append(out, partial...)
	}
	return out
}

// ApplyOne instantiates the pattern under subst and returns the class of
// the result. It adds nodes but never unions.
func (p *Pattern[L, D]) ApplyOne(g *EGraph[L, D], _ Id, subst Subst) []Id {
	return []Id{p.Instantiate(g, subst)}
}

// Instantiate adds the pattern's term, with variables replaced by their
// bindings, and returns its class.
func (p *Pattern[L, D]) Instantiate(g *EGraph[L, D], subst Subst) Id {
	ids := make([]Id, len(p.ast))
	for i, pn := range p.ast {
		if pn.isVar {
			ids[i] = subst.At(pn.v)
			continue
		}
		ids[i] = g.Add(pn.node.MapChildren(func(c Id) Id { return ids[c] }))
	}
	return ids[len(ids)-1]
}

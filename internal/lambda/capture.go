package lambda

import (
	"github.com/gnolang/lambsat/internal/egraph"
)

// CaptureAvoid pushes a let under a lambda whose binder differs from the
// let's. When the lambda's binder occurs free in the substituted term the
// binder is renamed to a fresh symbol first.
//
//	(let v1 e (lam v2 body))
//	  v2 not free in e: (lam v2 (let v1 e body))
//	  v2 free in e:     (lam fresh (let v1 e (let v2 (var fresh) body)))
type CaptureAvoid struct {
	Fresh egraph.Var
	V2    egraph.Var
	E     egraph.Var

	IfNotFree *Pattern
	IfFree    *Pattern
}

var _ egraph.Applier[Node, Data] = (*CaptureAvoid)(nil)

func (ca *CaptureAvoid) ApplyOne(g *EGraph, eclass egraph.Id, subst egraph.Subst) []egraph.Id {
	e := subst.At(ca.E)
	v2 := subst.At(ca.V2)
	if !g.Data(e).HasFree(v2) {
		return ca.IfNotFree.ApplyOne(g, eclass, subst)
	}

	renamed := subst.Clone()
	renamed.Insert(ca.Fresh, g.Add(Symbol(FreshSymbol(eclass))))
	return ca.IfFree.ApplyOne(g, eclass, renamed)
}

// Vars returns the variables read from the match. Fresh is bound by the
// applier itself.
func (ca *CaptureAvoid) Vars() []egraph.Var {
	seen := map[egraph.Var]bool{ca.Fresh: true}
	var out []egraph.Var
	for _, p := range []*Pattern{ca.IfNotFree, ca.IfFree} {
		for _, v := range p.Vars() {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	for _, v := range []egraph.Var{ca.V2, ca.E} {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// FreshSymbol names the binder introduced when renaming at class id. The
// name depends only on the class, so saturating the same graph twice mints
// the same names, and ParseExpr rejects it in source programs.
func FreshSymbol(id egraph.Id) string {
	return "_" + id.String()
}

// IsFreshSymbol reports whether s has the shape produced by FreshSymbol.
func IsFreshSymbol(s string) bool {
	if len(s) < 2 || s[0] != '_' {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

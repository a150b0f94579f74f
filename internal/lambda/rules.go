package lambda

import (
	"fmt"

	"github.com/gnolang/lambsat/internal/egraph"
)

type Condition = egraph.Condition[Node, Data]

// Rules returns the rewrite rules of the language in their fixed order.
// The rules are built from literal text; a parse failure is a bug and
// panics.
func Rules() []*Rewrite {
	return []*Rewrite{
		// open term rules
		rw("if-true", "(if  true ?then ?else)", "?then"),
		rw("if-false", "(if false ?then ?else)", "?else"),
		rw("if-elim", "(if (= (var ?x) ?e) ?then ?else)", "?else",
			egraph.NewConditionEqual(
				MustParsePattern("(let ?x ?e ?then)"),
				MustParsePattern("(let ?x ?e ?else)"),
			)),
		rw("add-comm", "(+ ?a ?b)", "(+ ?b ?a)"),
		rw("add-assoc", "(+ (+ ?a ?b) ?c)", "(+ ?a (+ ?b ?c))"),
		rw("eq-comm", "(= ?a ?b)", "(= ?b ?a)"),

		// substitution rules
		rw("fix", "(fix ?v ?e)", "(let ?v (fix ?v ?e) ?e)"),
		rw("beta", "(app (lam ?v ?body) ?e)", "(let ?v ?e ?body)"),
		rw("let-app", "(let ?v ?e (app ?a ?b))", "(app (let ?v ?e ?a) (let ?v ?e ?b))"),
		rw("let-add", "(let ?v ?e (+   ?a ?b))", "(+   (let ?v ?e ?a) (let ?v ?e ?b))"),
		rw("let-eq", "(let ?v ?e (=   ?a ?b))", "(=   (let ?v ?e ?a) (let ?v ?e ?b))"),
		rw("let-const", "(let ?v ?e ?c)", "?c", isConst("?c")),
		rw("let-if",
			"(let ?v ?e (if ?cond ?then ?else))",
			"(if (let ?v ?e ?cond) (let ?v ?e ?then) (let ?v ?e ?else))"),
		rw("let-var-same", "(let ?v1 ?e (var ?v1))", "?e"),
		rw("let-var-diff", "(let ?v1 ?e (var ?v2))", "(var ?v2)",
			isNotSameVar("?v1", "?v2")),
		rw("let-lam-same", "(let ?v1 ?e (lam ?v1 ?body))", "(lam ?v1 ?body)"),
		mustRewrite(egraph.NewRewrite[Node, Data](
			"let-lam-diff",
			MustParsePattern("(let ?v1 ?e (lam ?v2 ?body))"),
			&CaptureAvoid{
				Fresh:     "?fresh",
				V2:        "?v2",
				E:         "?e",
				IfNotFree: MustParsePattern("(lam ?v2 (let ?v1 ?e ?body))"),
				IfFree:    MustParsePattern("(lam ?fresh (let ?v1 ?e (let ?v2 (var ?fresh) ?body)))"),
			},
			isNotSameVar("?v1", "?v2"),
		)),
	}
}

// RuleNames returns the names of Rules in order.
func RuleNames() []string {
	rules := Rules()
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return names
}

// NewRule builds a plain pattern-to-pattern rewrite from text.
func NewRule(name, lhs, rhs string, conditions ...Condition) (*Rewrite, error) {
	searcher, err := ParsePattern(lhs)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	applier, err := ParsePattern(rhs)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	return egraph.NewRewrite[Node, Data](name, searcher, applier, conditions...)
}

func rw(name, lhs, rhs string, conditions ...Condition) *Rewrite {
	return mustRewrite(NewRule(name, lhs, rhs, conditions...))
}

func mustRewrite(r *Rewrite, err error) *Rewrite {
	if err != nil {
		panic(err)
	}
	return r
}

// isNotSameVar holds when the two bound classes are distinct.
func isNotSameVar(v1, v2 egraph.Var) Condition {
	return egraph.ConditionFunc[Node, Data](func(g *EGraph, _ egraph.Id, subst egraph.Subst) bool {
		return g.Find(subst.At(v1)) != g.Find(subst.At(v2))
	})
}

// isConst holds when the class bound to v has a known constant.
func isConst(v egraph.Var) Condition {
	return egraph.ConditionFunc[Node, Data](func(g *EGraph, _ egraph.Id, subst egraph.Subst) bool {
		return g.Data(subst.At(v)).Constant != nil
	})
}

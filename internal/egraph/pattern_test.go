package egraph

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPattern(t *testing.T, src string) *Pattern[arith, struct{}] {
	t.Helper()
	p, err := ParsePattern[arith, struct{}](src, parseArith)
	require.NoError(t, err)
	return p
}

func mustRule(t *testing.T, name, lhs, rhs string) *Rewrite[arith, struct{}] {
	t.Helper()
	rw, err := NewRewrite[arith, struct{}](name, mustPattern(t, lhs), mustPattern(t, rhs))
	require.NoError(t, err)
	return rw
}

func TestPatternSearchNonLinear(t *testing.T) {
	t.Parallel()
	g := newTestGraph()
	same := g.AddExpr(mustExpr(t, "(+ a a)"))
	g.AddExpr(mustExpr(t, "(+ a b)"))
	g.Rebuild()

	p := mustPattern(t, "(+ ?x ?x)")
	matches := p.Search(g)
	require.Len(t, matches, 1)
	assert.Equal(t, same, matches[0].EClass)
	require.Len(t, matches[0].Substs, 1)

	a, ok := g.Lookup(leaf("a"))
	require.True(t, ok)
	assert.Equal(t, a, matches[0].Substs[0].At("?x"))
}

func TestPatternSearchSeesUnions(t *testing.T) {
	t.Parallel()
	g := newTestGraph()
	a := g.Add(leaf("a"))
	b := g.Add(leaf("b"))
	g.Add(bin("+", a, b))
	g.Union(a, b)
	g.Rebuild()

	matches := mustPattern(t, "(+ ?x ?x)").Search(g)
	assert.Len(t, matches, 1)
}

func TestPatternSearchLargeClass(t *testing.T) {
	t.Parallel()
	g := newTestGraph()
	root := g.Add(leaf("0"))
	for i := 1; i < 200; i++ {
		id := g.Add(leaf(strconv.Itoa(i)))
		if i%10 == 0 {
			id = g.Add(unary("f", id))
		}
		g.Union(root, id)
	}
	x := g.Add(leaf("x"))
	g.Union(root, g.Add(bin("*", x, x)))

	p := mustPattern(t, "(f ?a)")
	dirty := p.Search(g)
	g.Rebuild()
	clean := p.Search(g)

	require.Len(t, dirty, 1)
	require.Len(t, clean, 1)
	assert.Len(t, clean[0].Substs, 19)
	assert.Len(t, dirty[0].Substs, 19)

	mul := mustPattern(t, "(* ?a ?a)").Search(g)
	require.Len(t, mul, 1)
	assert.Equal(t, x, mul[0].Substs[0].At("?a"))
	assert.Empty(t, mustPattern(t, "(+ ?a ?b)").Search(g))
	assert.Empty(t, mustPattern(t, "(f x)").Search(g))
}

func TestPatternVars(t *testing.T) {
	t.Parallel()
	p := mustPattern(t, "(+ ?b (* ?a ?b))")
	assert.Equal(t, []Var{"?b", "?a"}, p.Vars())
	assert.Equal(t, "(+ ?b (* ?a ?b))", p.String())
}

func TestParsePatternErrors(t *testing.T) {
	t.Parallel()
	_, err := ParsePattern[arith, struct{}]("(?f 1)", parseArith)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be an operator")

	_, err = ParsePattern[arith, struct{}]("(+ ?a", parseArith)
	assert.ErrorIs(t, err, ErrUnbalanced)
}

func TestPatternInstantiate(t *testing.T) {
	t.Parallel()
	g := newTestGraph()
	x := g.Add(leaf("x"))

	var subst Subst
	subst.Insert("?a", x)
	id := mustPattern(t, "(* ?a 2)").Instantiate(g, subst)

	want, ok := g.LookupExpr(mustExpr(t, "(* x 2)"))
	require.True(t, ok)
	assert.Equal(t, want, id)
}

func TestSubst(t *testing.T) {
	t.Parallel()
	var s Subst
	s.Insert("?a", 1)
	s.Insert("?b", 2)
	s.Insert("?a", 3)

	clone := s.Clone()
	clone.Insert("?c", 4)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 3, clone.Len())
	assert.Equal(t, "{?a: 3, ?b: 2}", s.String())
	_, ok := s.Get("?c")
	assert.False(t, ok)
	assert.Panics(t, func() { s.At("?c") })
}

func TestNewRewriteRejectsUnboundVariables(t *testing.T) {
	t.Parallel()
	_, err := NewRewrite[arith, struct{}]("bad", mustPattern(t, "(+ ?a ?b)"), mustPattern(t, "(+ ?a ?c)"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "?c")

	cond := NewConditionEqual(mustPattern(t, "?z"), mustPattern(t, "1"))
	_, err = NewRewrite[arith, struct{}]("bad-cond", mustPattern(t, "(* ?a ?b)"), mustPattern(t, "?a"), cond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "condition")
}

func TestRewriteConditions(t *testing.T) {
	t.Parallel()
	g := newTestGraph()
	one := g.AddExpr(mustExpr(t, "(* x 1)"))
	two := g.AddExpr(mustExpr(t, "(* y 2)"))
	g.Rebuild()

	cond := NewConditionEqual(mustPattern(t, "?b"), mustPattern(t, "1"))
	rw, err := NewRewrite[arith, struct{}]("mul-one", mustPattern(t, "(* ?a ?b)"), mustPattern(t, "?a"), cond)
	require.NoError(t, err)

	changed := rw.Apply(g, rw.Search(g))
	g.Rebuild()
	assert.Len(t, changed, 1)

	x, _ := g.Lookup(leaf("x"))
	y, _ := g.Lookup(leaf("y"))
	assert.Equal(t, g.Find(x), g.Find(one))
	assert.NotEqual(t, g.Find(y), g.Find(two))
	assert.Equal(t, "mul-one: (* ?a ?b) => ?a", rw.String())
}

func TestConditionFunc(t *testing.T) {
	t.Parallel()
	g := newTestGraph()
	g.AddExpr(mustExpr(t, "(+ a b)"))
	g.Rebuild()

	never := ConditionFunc[arith, struct{}](func(*EGraph[arith, struct{}], Id, Subst) bool { return false })
	rw, err := NewRewrite[arith, struct{}]("comm", mustPattern(t, "(+ ?a ?b)"), mustPattern(t, "(+ ?b ?a)"), never)
	require.NoError(t, err)

	assert.Empty(t, rw.Apply(g, rw.Search(g)))
	_, ok := g.LookupExpr(mustExpr(t, "(+ b a)"))
	assert.False(t, ok)
}

package egraph

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// arith is a small test language: integer literals, symbols and the binary
// operators + and *, plus the unary f.
type arith struct {
	op   string
	kids [2]Id
	n    int
}

func (a arith) Children() []Id { return a.kids[:a.n] }

func (a arith) MapChildren(f func(Id) Id) arith {
	for i := 0; i < a.n; i++ {
		a.kids[i] = f(a.kids[i])
	}
	return a
}

func (a arith) Matches(o arith) bool { return a.op == o.op && a.n == o.n }

func (a arith) String() string { return a.op }

func parseArith(op string, kids []Id) (arith, error) {
	if len(kids) > 2 {
		return arith{}, fmt.Errorf("%s: too many arguments", op)
	}
	a := arith{op: op, n: len(kids)}
	copy(a.kids[:], kids)
	return a, nil
}

func leaf(op string) arith { return arith{op: op} }

func bin(op string, x, y Id) arith { return arith{op: op, kids: [2]Id{x, y}, n: 2} }

func unary(op string, x Id) arith { return arith{op: op, kids: [2]Id{x}, n: 1} }

// noData is an analysis that tracks nothing.
type noData struct{}

func (noData) Make(arith, func(Id) struct{}) struct{} { return struct{}{} }
func (noData) Merge(*struct{}, struct{}) bool { return false }
func (noData) Modify(*EGraph[arith, struct{}], Id) {}

// folding folds integer additions and unions a class with its literal.
type folding struct{}

func (folding) Make(n arith, data func(Id) *int) *int {
	if n.n == 0 {
		if v, err := strconv.Atoi(n.op); err == nil {
			return &v
		}
		return nil
	}
	if n.op == "+" {
		a, b := data(n.kids[0]), data(n.kids[1])
		if a != nil && b != nil {
			sum := *a + *b
			return &sum
		}
	}
	return nil
}

func (folding) Merge(to **int, from *int) bool {
	if *to == nil && from != nil {
		*to = from
		return true
	}
	return false
}

func (folding) Modify(g *EGraph[arith, *int], id Id) {
	if v := g.Data(id); v != nil {
		g.Union(id, g.Add(leaf(strconv.Itoa(*v))))
	}
}

func newTestGraph() *EGraph[arith, struct{}] {
	return New[arith, struct{}](noData{})
}

func mustExpr(t *testing.T, src string) *Expr[arith] {
	t.Helper()
	expr, err := ParseExpr[arith](src, parseArith)
	require.NoError(t, err)
	return expr
}

func TestAddDeduplicates(t *testing.T) {
	t.Parallel()
	g := newTestGraph()

	x := g.Add(leaf("x"))
	a := g.Add(bin("+", x, x))
	b := g.Add(bin("+", x, x))

	assert.Equal(t, a, b)
	assert.Equal(t, 2, g.NumNodes())
	assert.Equal(t, 2, g.NumClasses())
}

func TestUnionRestoresCongruence(t *testing.T) {
	t.Parallel()
	g := newTestGraph()

	a := g.Add(leaf("a"))
	b := g.Add(leaf("b"))
	fa := g.Add(unary("f", a))
	fb := g.Add(unary("f", b))
	require.NotEqual(t, g.Find(fa), g.Find(fb))

	assert.True(t, g.Union(a, b))
	assert.False(t, g.Union(a, b))
	assert.False(t, g.IsClean())

	unions := g.Rebuild()
	assert.Equal(t, 1, unions)
	assert.True(t, g.IsClean())
	assert.Equal(t, g.Find(fa), g.Find(fb))
	assert.Equal(t, 1, g.Class(fa).Len(), "congruent nodes should collapse")
}

func TestUnionFindCompressesPaths(t *testing.T) {
	t.Parallel()
	var uf unionFind
	ids := make([]Id, 5)
	for i := range ids {
		ids[i] = uf.makeSet()
	}
	for i := 1; i < len(ids); i++ {
		uf.union(uf.find(ids[i]), uf.find(ids[i-1]))
	}

	root := uf.find(ids[0])
	assert.Equal(t, ids[4], root)
	assert.Equal(t, root, uf.parents[ids[0]])
	assert.Len(t, uf.parents, 5)
}

func TestLookupExpr(t *testing.T) {
	t.Parallel()
	g := newTestGraph()
	root := g.AddExpr(mustExpr(t, "(+ x (* y 2))"))

	id, ok := g.LookupExpr(mustExpr(t, "(+ x (* y 2))"))
	require.True(t, ok)
	assert.Equal(t, root, id)

	_, ok = g.LookupExpr(mustExpr(t, "(+ x (* y 3))"))
	assert.False(t, ok)
}

func TestEquivs(t *testing.T) {
	t.Parallel()
	g := newTestGraph()
	a := g.AddExpr(mustExpr(t, "(+ x 0)"))
	b := g.AddExpr(mustExpr(t, "x"))
	g.AddExpr(mustExpr(t, "y"))

	assert.Nil(t, g.Equivs(mustExpr(t, "(+ x 0)"), mustExpr(t, "x")))

	g.Union(a, b)
	g.Rebuild()
	assert.Equal(t, []Id{g.Find(a)}, g.Equivs(mustExpr(t, "(+ x 0)"), mustExpr(t, "x")))
	assert.Nil(t, g.Equivs(mustExpr(t, "x"), mustExpr(t, "y")))
	assert.Nil(t, g.Equivs(mustExpr(t, "x"), mustExpr(t, "z")))
}

func TestAnalysisPropagatesThroughUnion(t *testing.T) {
	t.Parallel()
	g := New[arith, *int](folding{})

	a := g.Add(leaf("a"))
	one := g.Add(leaf("1"))
	sum := g.Add(bin("+", a, one))
	require.Nil(t, g.Data(sum))

	g.Union(a, g.Add(leaf("2")))
	g.Rebuild()

	require.NotNil(t, g.Data(sum))
	assert.Equal(t, 3, *g.Data(sum))
	three, ok := g.Lookup(leaf("3"))
	require.True(t, ok)
	assert.Equal(t, g.Find(sum), three)
}

func TestClassesAreOrdered(t *testing.T) {
	t.Parallel()
	g := newTestGraph()
	for _, s := range []string{"c", "b", "a"} {
		g.Add(leaf(s))
	}

	classes := g.Classes()
	require.Len(t, classes, 3)
	for i := 1; i < len(classes); i++ {
		assert.Less(t, classes[i-1].ID, classes[i].ID)
	}
}

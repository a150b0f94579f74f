package formatter

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/lambsat/internal/lambda"
	tt "github.com/gnolang/lambsat/internal/types"
)

func TestMain(m *testing.M) {
	SetColor(false)
	os.Exit(m.Run())
}

func TestFormatResult(t *testing.T) {
	t.Parallel()
	res := &tt.Result{
		Name:       "if.lam",
		Source:     "(if (= 1 1) 7 9)",
		Best:       "7",
		Cost:       1,
		Constant:   "7",
		StopReason: "saturated",
		Iterations: 3,
		Nodes:      1234,
		Classes:    56,
		Applied:    map[string]int{"add": 1, "if-true": 2},
		Elapsed:    1500 * time.Microsecond,
	}

	expected := `if.lam
  best:    7
  value:   7
  cost:    1
  stop:    saturated after 3 iterations
  graph:   1,234 nodes, 56 classes
  time:    1.5ms
  applied: if-true (2), add (1)
`
	assert.Equal(t, expected, FormatResult(res))
}

func TestFormatResultCached(t *testing.T) {
	t.Parallel()
	res := &tt.Result{
		Name:       "lam.lam",
		Best:       "(lam x (var x))",
		Cost:       3,
		StopReason: "iteration limit (30)",
		Iterations: 30,
		Nodes:      12000,
		Classes:    4000,
		Elapsed:    2 * time.Second,
		Cached:     true,
	}

	expected := `lam.lam (cached)
  best:    (lam x (var x))
  cost:    3
  stop:    iteration limit (30) after 30 iterations
  graph:   12,000 nodes, 4,000 classes
  time:    2s
`
	assert.Equal(t, expected, FormatResult(res))
}

func TestFormatResults(t *testing.T) {
	t.Parallel()
	a := &tt.Result{Name: "a", Best: "1", Cost: 1, StopReason: "saturated"}
	b := &tt.Result{Name: "b", Best: "2", Cost: 1, StopReason: "saturated"}

	out := FormatResults([]*tt.Result{a, b})
	assert.Equal(t, FormatResult(a)+"\n"+FormatResult(b), out)
}

func TestFormatBench(t *testing.T) {
	t.Parallel()
	res := &tt.BenchResult{
		Result: tt.Result{
			Name:       "lambda2",
			Best:       "3",
			Cost:       1,
			Constant:   "3",
			StopReason: "saturated",
			Iterations: 9,
			Nodes:      800,
			Classes:    300,
			Elapsed:    40 * time.Millisecond,
		},
		Matches:    25431,
		SearchTime: 3 * time.Millisecond,
	}

	out := FormatBench(res)
	assert.True(t, strings.HasPrefix(out, "lambda2\n"))
	assert.Contains(t, out, "  matches: 25,431 in 3ms\n")
	assert.NotContains(t, out, "applied:")
}

func TestFormatError(t *testing.T) {
	t.Parallel()
	out := FormatError("bad.lam", errors.New("unbalanced parentheses"))
	assert.Equal(t, "error: bad.lam\n  = unbalanced parentheses\n", out)
}

func TestFormatRules(t *testing.T) {
	t.Parallel()
	addZero, err := lambda.NewRule("add-zero", "(+ ?a 0)", "?a")
	require.NoError(t, err)
	eqSame, err := lambda.NewRule("eq-same", "(= ?a ?a)", "true")
	require.NoError(t, err)

	expected := "add-zero  (+ ?a 0) => ?a\n" +
		"eq-same   (= ?a ?a) => true\n"
	assert.Equal(t, expected, FormatRules([]*lambda.Rewrite{addZero, eqSame}))
}

func TestFormatBuiltinRules(t *testing.T) {
	t.Parallel()
	out := FormatRules(lambda.Rules())
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, len(lambda.RuleNames()))

	for i, name := range lambda.RuleNames() {
		assert.True(t, strings.HasPrefix(lines[i], name), lines[i])
	}
	assert.Contains(t, out, "if guarded")
	assert.Contains(t, out, " | ")
}

package lambda

// Bench is a seed program together with the rules to saturate it with and
// the patterns used to time e-matching on the saturated graph.
type Bench struct {
	Name          string
	StartExpr     *Expr
	Rules         []*Rewrite
	BenchPatterns []*Pattern
}

// benchPatterns are the left-hand sides of the rules without the two
// *-diff rules.
var benchPatterns = []string{
	"(if true ?then ?else)",
	"(if false ?then ?else)",
	"(if (= (var ?x) ?e) ?then ?else)",
	"(+ ?a ?b)",
	"(+ (+ ?a ?b) ?c)",
	"(= ?a ?b)",
	"(fix ?v ?e)",
	"(app (lam ?v ?body) ?e)",
	"(let ?v ?e (app ?a ?b))",
	"(let ?v ?e (+ ?a ?b))",
	"(let ?v ?e (= ?a ?b))",
	"(let ?v ?e ?c)",
	"(let ?v ?e (if ?cond ?then ?else))",
	"(let ?v1 ?e (var ?v1))",
	"(let ?v1 ?e (lam ?v1 ?body))",
}

// BenchPatterns parses the e-matching benchmark patterns.
func BenchPatterns() []*Pattern {
	out := make([]*Pattern, len(benchPatterns))
	for i, src := range benchPatterns {
		out[i] = MustParsePattern(src)
	}
	return out
}

// BenchMeta builds a Bench from program text. Malformed text panics.
func BenchMeta(name, src string) Bench {
	return Bench{
		Name:          name,
		StartExpr:     MustParseExpr(src),
		Rules:         Rules(),
		BenchPatterns: BenchPatterns(),
	}
}

const lambda1Src = `
(let compose (lam f (lam g (lam x (app (var f)
                                       (app (var g) (var x))))))
(let repeat (fix repeat (lam fun (lam n
    (if (= (var n) 0)
        (lam i (var i))
        (app (app (var compose) (var fun))
             (app (app (var repeat)
                       (var fun))
                  (+ (var n) -1)))))))
(let add1 (lam y (+ (var y) 1))
(app (app (var repeat)
          (var add1))
     2))))`

const lambda2Src = `
(let fib (fix fib (lam n
    (if (= (var n) 0)
        0
    (if (= (var n) 1)
        1
    (+ (app (var fib)
            (+ (var n) -1))
       (app (var fib)
            (+ (var n) -2)))))))
(app (var fib) 4))`

// Bench1 repeats add1 twice through compose.
func Bench1() Bench {
	return BenchMeta("lambda1", lambda1Src)
}

// Bench2 computes the fourth Fibonacci number.
func Bench2() Bench {
	return BenchMeta("lambda2", lambda2Src)
}

// Benches returns every seed benchmark.
func Benches() []Bench {
	return []Bench{Bench1(), Bench2()}
}

// LookupBench returns the seed benchmark with the given name.
func LookupBench(name string) (Bench, bool) {
	switch name {
	case "lambda1":
		return Bench1(), true
	case "lambda2":
		return Bench2(), true
	default:
		return Bench{}, false
	}
}

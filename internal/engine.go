package internal

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gnolang/lambsat/internal/egraph"
	"github.com/gnolang/lambsat/internal/lambda"
	tt "github.com/gnolang/lambsat/internal/types"
)

var errGoalReached = errors.New("goal reached")

// Engine simplifies programs with the enabled rewrite rules.
type Engine struct {
	config       tt.RunnerConfig
	rules        []*lambda.Rewrite
	ignoredRules map[string]bool
	cache        *Cache
	logger       *zap.Logger
}

// DefaultRunnerConfig returns the limits used when a configuration leaves
// them unset.
func DefaultRunnerConfig() tt.RunnerConfig {
	return tt.RunnerConfig{
		IterLimit:  egraph.DefaultIterLimit,
		NodeLimit:  egraph.DefaultNodeLimit,
		TimeLimit:  egraph.DefaultTimeLimit,
		Scheduler:  tt.SchedulerBackoff,
		MatchLimit: egraph.DefaultMatchLimit,
		BanLength:  egraph.DefaultBanLength,
	}
}

func withDefaults(c tt.RunnerConfig) tt.RunnerConfig {
	d := DefaultRunnerConfig()
	if c.IterLimit <= 0 {
		c.IterLimit = d.IterLimit
	}
	if c.NodeLimit <= 0 {
		c.NodeLimit = d.NodeLimit
	}
	if c.TimeLimit <= 0 {
		c.TimeLimit = d.TimeLimit
	}
	if c.Scheduler == "" {
		c.Scheduler = d.Scheduler
	}
	if c.MatchLimit <= 0 {
		c.MatchLimit = d.MatchLimit
	}
	if c.BanLength <= 0 {
		c.BanLength = d.BanLength
	}
	return c
}

// NewEngine creates an engine running the built-in rules enabled in rules
// plus the extra rules.
func NewEngine(
	config tt.RunnerConfig,
	rules map[string]tt.ConfigRule,
	extra []tt.ExtraRule,
	logger *zap.Logger,
) (*Engine, error) {
	config = withDefaults(config)
	switch config.Scheduler {
	case tt.SchedulerBackoff, tt.SchedulerSimple:
	default:
		return nil, fmt.Errorf("unknown scheduler %q", config.Scheduler)
	}

	compiled, err := CompileRules(extra)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		config:       config,
		rules:        selectRules(rules, compiled),
		ignoredRules: make(map[string]bool),
		logger:       logger,
	}, nil
}

// Config returns the effective runner configuration.
func (e *Engine) Config() tt.RunnerConfig {
	return e.config
}

// SetConfig replaces the runner configuration. Unset fields take their
// defaults.
func (e *Engine) SetConfig(config tt.RunnerConfig) {
	e.config = withDefaults(config)
}

// SetCache makes the engine reuse results for programs it has already
// simplified under the same configuration.
func (e *Engine) SetCache(c *Cache) {
	e.cache = c
}

// IgnoreRule disables a rule for later runs.
func (e *Engine) IgnoreRule(rule string) {
	e.ignoredRules[rule] = true
}

// Rule returns the enabled rule with the given name.
func (e *Engine) Rule(name string) (*lambda.Rewrite, error) {
	for _, r := range e.rules {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownRule)
}

// Rules returns the rules a run would use, in order.
func (e *Engine) Rules() []*lambda.Rewrite {
	out := make([]*lambda.Rewrite, 0, len(e.rules))
	for _, r := range e.rules {
		if !e.ignoredRules[r.Name] {
			out = append(out, r)
		}
	}
	return out
}

// fingerprint identifies everything besides the program that affects a
// result.
func (e *Engine) fingerprint() string {
	names := make([]string, 0, len(e.rules))
	for _, r := range e.Rules() {
		names = append(names, r.String())
	}
	c := e.config
	sum := md5.Sum([]byte(fmt.Sprintf("%d|%d|%s|%s|%d|%d|%s",
		c.IterLimit, c.NodeLimit, c.TimeLimit, c.Scheduler, c.MatchLimit, c.BanLength,
		strings.Join(names, ";"))))
	return fmt.Sprintf("%x", sum)
}

func (e *Engine) newRunner(name string) *lambda.Runner {
	r := lambda.NewRunner().
		WithIterLimit(e.config.IterLimit).
		WithNodeLimit(e.config.NodeLimit).
		WithTimeLimit(e.config.TimeLimit).
		WithLogger(e.logger.With(zap.String("program", name)))
	if e.config.Scheduler == tt.SchedulerSimple {
		return r.WithScheduler(egraph.SimpleScheduler[lambda.Node, lambda.Data]{})
	}
	return r.WithScheduler(egraph.NewBackoffScheduler[lambda.Node, lambda.Data](
		e.config.MatchLimit, e.config.BanLength))
}

// Run simplifies the program stored in filename.
func (e *Engine) Run(ctx context.Context, filename string) (*tt.Result, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", filename, err)
	}
	return e.Simplify(ctx, filename, string(src))
}

// Simplify saturates src and reports the smallest equivalent term found.
func (e *Engine) Simplify(ctx context.Context, name, src string) (*tt.Result, error) {
	expr, err := lambda.ParseExpr(src)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", name, err)
	}

	var key string
	if e.cache != nil {
		key = CacheKey(expr.String(), e.fingerprint())
		if res, ok := e.cache.Get(key); ok {
			res.Name = name
			res.Cached = true
			return &res, nil
		}
	}

	start := time.Now()
	r := e.newRunner(name).WithExpr(expr).Run(ctx, e.Rules())
	res := e.result(name, expr, r, time.Since(start))

	if e.cache != nil {
		if err := e.cache.Set(key, *res); err != nil {
			e.logger.Warn("Failed to cache result", zap.String("program", name), zap.Error(err))
		}
	}
	return res, nil
}

// Prove saturates src until it is equivalent to goal or a limit is hit.
func (e *Engine) Prove(ctx context.Context, name, src, goal string) (*tt.Result, error) {
	expr, err := lambda.ParseExpr(src)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", name, err)
	}
	target, err := lambda.ParseExpr(goal)
	if err != nil {
		return nil, fmt.Errorf("error parsing goal: %w", err)
	}

	start := time.Now()
	r := e.newRunner(name).
		WithExpr(expr).
		WithHook(func(r *lambda.Runner) error {
			if r.EGraph.Equivs(expr, target) != nil {
				return errGoalReached
			}
			return nil
		}).
		Run(ctx, e.Rules())

	res := e.result(name, expr, r, time.Since(start))
	res.GoalReached = r.EGraph.Equivs(expr, target) != nil
	return res, nil
}

// RunBench saturates a seed benchmark and then times e-matching its bench
// patterns against the result.
func (e *Engine) RunBench(ctx context.Context, b lambda.Bench) (*tt.BenchResult, error) {
	if b.StartExpr == nil {
		return nil, fmt.Errorf("benchmark %q has no program", b.Name)
	}

	start := time.Now()
	r := e.newRunner(b.Name).WithExpr(b.StartExpr).Run(ctx, b.Rules)
	res := &tt.BenchResult{Result: *e.result(b.Name, b.StartExpr, r, time.Since(start))}

	searchStart := time.Now()
	for _, p := range b.BenchPatterns {
		for _, m := range p.Search(r.EGraph) {
			res.Matches += len(m.Substs)
		}
	}
	res.SearchTime = time.Since(searchStart)

	e.logger.Info("Benchmark finished",
		zap.String("bench", b.Name),
		zap.Int("matches", res.Matches),
		zap.Duration("search", res.SearchTime),
	)
	return res, nil
}

func (e *Engine) result(name string, expr *lambda.Expr, r *lambda.Runner, elapsed time.Duration) *tt.Result {
	g := r.EGraph
	root := r.Roots[0]

	res := &tt.Result{
		Name:       name,
		Source:     expr.String(),
		StopReason: r.StopReason.String(),
		Iterations: len(r.Iterations),
		Nodes:      g.NumNodes(),
		Classes:    g.NumClasses(),
		Applied:    make(map[string]int),
		Elapsed:    elapsed,
	}
	for _, it := range r.Iterations {
		for rule, n := range it.Applied {
			res.Applied[rule] += n
		}
	}
	if c := g.Data(root).Constant; c != nil {
		res.Constant = c.String()
	}
	if cost, best, ok := egraph.NewExtractor(g, egraph.AstSize[lambda.Node]{}).FindBest(root); ok {
		res.Cost = cost
		res.Best = best.String()
	}
	return res
}

// AppliedRules returns the names of rules that fired, most applications
// first.
func AppliedRules(res *tt.Result) []string {
	names := make([]string, 0, len(res.Applied))
	for name := range res.Applied {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if res.Applied[names[i]] != res.Applied[names[j]] {
			return res.Applied[names[i]] > res.Applied[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

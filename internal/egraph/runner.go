package egraph

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultIterLimit = 30
	DefaultNodeLimit = 10_000
	DefaultTimeLimit = 5 * time.Second
)

// StopKind says why a run ended.
type StopKind int

const (
	Saturated StopKind = iota
	IterationLimit
	NodeLimit
	TimeLimit
	Other
)

func (k StopKind) String() string {
	switch k {
	case Saturated:
		return "Saturated"
	case IterationLimit:
		return "IterationLimit"
	case NodeLimit:
		return "NodeLimit"
	case TimeLimit:
		return "TimeLimit"
	case Other:
		return "Other"
	default:
		return "Unknown"
	}
}

// StopReason is the reason a run ended. Limit holds the limit that was hit;
// Message holds the hook error for Other.
type StopReason struct {
	Kind    StopKind
	Limit   int
	Message string
}

func (r StopReason) String() string {
	switch r.Kind {
	case Saturated:
		return "saturated"
	case IterationLimit:
		return fmt.Sprintf("iteration limit (%d)", r.Limit)
	case NodeLimit:
		return fmt.Sprintf("node limit (%d)", r.Limit)
	case TimeLimit:
		return "time limit"
	default:
		return "stopped: " + r.Message
	}
}

// Iteration records one search/apply/rebuild round.
type Iteration struct {
	Index         int
	EGraphNodes   int
	EGraphClasses int
	Applied       map[string]int
	Rebuilds      int
	SearchTime    time.Duration
	ApplyTime     time.Duration
	RebuildTime   time.Duration
}

// Hook runs before every iteration. A non-nil error stops the run with
// reason Other.
type Hook[L Language[L], D any] func(r *Runner[L, D]) error

// Runner drives equality saturation over an EGraph.
type Runner[L Language[L], D any] struct {
	EGraph     *EGraph[L, D]
	Roots      []Id
	Iterations []Iteration
	StopReason *StopReason

	iterLimit int
	nodeLimit int
	timeLimit time.Duration
	scheduler Scheduler[L, D]
	hooks     []Hook[L, D]
	logger    *zap.Logger
}

// NewRunner returns a runner over an empty graph with default limits and a
// BackoffScheduler.
func NewRunner[L Language[L], D any](analysis Analysis[L, D]) *Runner[L, D] {
	return &Runner[L, D]{
		EGraph:    New(analysis),
		iterLimit: DefaultIterLimit,
		nodeLimit: DefaultNodeLimit,
		timeLimit: DefaultTimeLimit,
		scheduler: NewBackoffScheduler[L, D](DefaultMatchLimit, DefaultBanLength),
		logger:    zap.NewNop(),
	}
}

// WithEGraph replaces the graph the runner works on.
func (r *Runner[L, D]) WithEGraph(g *EGraph[L, D]) *Runner[L, D] {
	r.EGraph = g
	return r
}

// WithExpr adds expr to the graph and records its class as a root.
func (r *Runner[L, D]) WithExpr(expr *Expr[L]) *Runner[L, D] {
	r.Roots = append(r.Roots, r.EGraph.AddExpr(expr))
	return r
}

func (r *Runner[L, D]) WithIterLimit(n int) *Runner[L, D] {
	r.iterLimit = n
	return r
}

func (r *Runner[L, D]) WithNodeLimit(n int) *Runner[L, D] {
	r.nodeLimit = n
	return r
}

func (r *Runner[L, D]) WithTimeLimit(d time.Duration) *Runner[L, D] {
	r.timeLimit = d
	return r
}

func (r *Runner[L, D]) WithScheduler(s Scheduler[L, D]) *Runner[L, D] {
	r.scheduler = s
	return r
}

func (r *Runner[L, D]) WithHook(h Hook[L, D]) *Runner[L, D] {
	r.hooks = append(r.hooks, h)
	return r
}

func (r *Runner[L, D]) WithLogger(logger *zap.Logger) *Runner[L, D] {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Run saturates the graph with rules until it is saturated, a limit is
// hit, ctx is done or a hook stops it.
func (r *Runner[L, D]) Run(ctx context.Context, rules []*Rewrite[L, D]) *Runner[L, D] {
	if r.timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeLimit)
		defer cancel()
	}

	r.EGraph.Rebuild()
	for r.StopReason == nil {
		if reason := r.runOne(ctx, rules); reason != nil {
			r.StopReason = reason
		}
	}

	r.logger.Info("saturation stopped",
		zap.String("reason", r.StopReason.String()),
		zap.Int("iterations", len(r.Iterations)),
		zap.Int("nodes", r.EGraph.NumNodes()),
		zap.Int("classes", r.EGraph.NumClasses()),
	)
	return r
}

func (r *Runner[L, D]) checkLimits(ctx context.Context) *StopReason {
	if len(r.Iterations) >= r.iterLimit {
		return &StopReason{Kind: IterationLimit, Limit: r.iterLimit}
	}
	return r.checkGrowth(ctx)
}

// checkGrowth checks the limits that can be hit in the middle of an
// iteration.
func (r *Runner[L, D]) checkGrowth(ctx context.Context) *StopReason {
	if n := r.EGraph.NumNodes(); n > r.nodeLimit {
		return &StopReason{Kind: NodeLimit, Limit: r.nodeLimit}
	}
	if ctx.Err() != nil {
		return &StopReason{Kind: TimeLimit}
	}
	return nil
}

func (r *Runner[L, D]) runOne(ctx context.Context, rules []*Rewrite[L, D]) *StopReason {
	if reason := r.checkLimits(ctx); reason != nil {
		return reason
	}
	for _, hook := range r.hooks {
		if err := hook(r); err != nil {
			return &StopReason{Kind: Other, Message: err.Error()}
		}
	}

	g := r.EGraph
	i := len(r.Iterations)
	nodesBefore, classesBefore := g.NumNodes(), g.NumClasses()
	iter := Iteration{Index: i, Applied: make(map[string]int)}

	start := time.Now()
	matches := make([][]SearchMatches, len(rules))
	for ri, rw := range rules {
		matches[ri] = r.scheduler.SearchRewrite(i, g, rw)
		if ctx.Err() != nil {
			break
		}
	}
	iter.SearchTime = time.Since(start)

	stop := r.checkGrowth(ctx)
	if stop == nil {
		start = time.Now()
		for ri, rw := range rules {
			if len(matches[ri]) == 0 {
				continue
			}
			if n := len(rw.Apply(g, matches[ri])); n > 0 {
				iter.Applied[rw.Name] += n
			}
			if stop = r.checkGrowth(ctx); stop != nil {
				break
			}
		}
		iter.ApplyTime = time.Since(start)
	}

	start = time.Now()
	iter.Rebuilds = g.Rebuild()
	iter.RebuildTime = time.Since(start)
	iter.EGraphNodes = g.NumNodes()
	iter.EGraphClasses = g.NumClasses()
	r.Iterations = append(r.Iterations, iter)

	r.logger.Debug("iteration",
		zap.Int("iteration", i),
		zap.Int("nodes", iter.EGraphNodes),
		zap.Int("classes", iter.EGraphClasses),
		zap.Int("rebuilds", iter.Rebuilds),
		zap.Any("applied", iter.Applied),
	)

	if stop != nil {
		return stop
	}

	unchanged := len(iter.Applied) == 0 &&
		iter.EGraphNodes == nodesBefore &&
		iter.EGraphClasses == classesBefore
	if unchanged && r.scheduler.CanStop(i) {
		return &StopReason{Kind: Saturated}
	}
	return nil
}

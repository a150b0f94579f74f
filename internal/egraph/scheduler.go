package egraph

// Scheduler decides which rewrites are searched in each iteration.
type Scheduler[L Language[L], D any] interface {
	// CanStop is asked when an iteration changed nothing. Returning false
	// keeps the runner going, e.g. because some rules were held back.
	CanStop(iteration int) bool
	// SearchRewrite returns the matches of rw to apply in this iteration.
	SearchRewrite(iteration int, g *EGraph[L, D], rw *Rewrite[L, D]) []SearchMatches
}

// SimpleScheduler searches every rule in every iteration.
type SimpleScheduler[L Language[L], D any] struct{}

func (SimpleScheduler[L, D]) CanStop(int) bool { return true }

func (SimpleScheduler[L, D]) SearchRewrite(_ int, g *EGraph[L, D], rw *Rewrite[L, D]) []SearchMatches {
	return rw.Search(g)
}

const (
	DefaultMatchLimit = 1000
	DefaultBanLength  = 5

	// cap on the backoff shift so limits cannot overflow
	maxBanShift = 30
)

type ruleStats struct {
	timesApplied int
	bannedUntil  int
	timesBanned  int
}

// BackoffScheduler bans a rule for a while when it matches too often.
// Both the match threshold and the ban length double each time a rule is
// banned again, which keeps explosive rules such as unrolling from starving
// the others.
type BackoffScheduler[L Language[L], D any] struct {
	matchLimit int
	banLength  int
	stats      map[string]*ruleStats
}

// NewBackoffScheduler returns a scheduler with the given initial match
// limit and ban length. Non-positive values select the defaults.
func NewBackoffScheduler[L Language[L], D any](matchLimit, banLength int) *BackoffScheduler[L, D] {
	if matchLimit <= 0 {
		matchLimit = DefaultMatchLimit
	}
	if banLength <= 0 {
		banLength = DefaultBanLength
	}
	return &BackoffScheduler[L, D]{
		matchLimit: matchLimit,
		banLength:  banLength,
		stats:      make(map[string]*ruleStats),
	}
}

func (s *BackoffScheduler[L, D]) ruleStats(name string) *ruleStats {
	st, ok := s.stats[name]
	if !ok {
		st = &ruleStats{}
		s.stats[name] = st
	}
	return st
}

func (s *BackoffScheduler[L, D]) CanStop(iteration int) bool {
	minBan := -1
	for _, st := range s.stats {
		if st.bannedUntil > iteration {
			if left := st.bannedUntil - iteration; minBan < 0 || left < minBan {
				minBan = left
			}
		}
	}
	if minBan < 0 {
		return true
	}
	// fast-forward so the earliest banned rule runs next iteration
	for _, st := range s.stats {
		if st.bannedUntil > iteration {
			st.bannedUntil -= minBan
		}
	}
	return false
}

func (s *BackoffScheduler[L, D]) SearchRewrite(iteration int, g *EGraph[L, D], rw *Rewrite[L, D]) []SearchMatches {
	st := s.ruleStats(rw.Name)
	if iteration < st.bannedUntil {
		return nil
	}

	shift := min(st.timesBanned, maxBanShift)
	threshold := s.matchLimit << shift
	matches := rw.SearchWithLimit(g, threshold)

	total := 0
	for _, m := range matches {
		total += len(m.Substs)
	}
	if total > threshold {
		st.timesBanned++
		st.bannedUntil = iteration + s.banLength<<shift
		return nil
	}
	st.timesApplied++
	return matches
}

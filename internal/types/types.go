package types

import "time"

// ConfigRule toggles one built-in rewrite rule. A rule without an entry is
// enabled.
type ConfigRule struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the rule should run.
func (r ConfigRule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// RunnerConfig bounds one saturation run.
type RunnerConfig struct {
	IterLimit  int           `yaml:"iter_limit"`
	NodeLimit  int           `yaml:"node_limit"`
	TimeLimit  time.Duration `yaml:"time_limit"`
	Scheduler  string        `yaml:"scheduler"`
	MatchLimit int           `yaml:"match_limit"`
	BanLength  int           `yaml:"ban_length"`
}

// Scheduler names accepted in RunnerConfig.
const (
	SchedulerBackoff = "backoff"
	SchedulerSimple  = "simple"
)

// ExtraRule is a user-defined pattern rewrite loaded from configuration.
type ExtraRule struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// Result is the outcome of simplifying one program.
type Result struct {
	Name        string         `json:"name"`
	Source      string         `json:"source"`
	Best        string         `json:"best"`
	Cost        uint64         `json:"cost"`
	Constant    string         `json:"constant,omitempty"`
	GoalReached bool           `json:"goal_reached,omitempty"`
	StopReason  string         `json:"stop_reason"`
	Iterations  int            `json:"iterations"`
	Nodes       int            `json:"nodes"`
	Classes     int            `json:"classes"`
	Applied     map[string]int `json:"applied"`
	Elapsed     time.Duration  `json:"elapsed"`
	Cached      bool           `json:"cached,omitempty"`
}

// BenchResult extends a Result with the cost of e-matching the benchmark
// patterns against the saturated graph.
type BenchResult struct {
	Result
	Matches    int           `json:"matches"`
	SearchTime time.Duration `json:"search_time"`
}

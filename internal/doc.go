// Package internal drives equality saturation for lambsat programs.
//
// Engine parses a program, saturates it with the enabled rewrite rules
// from package lambda under the configured limits, and extracts the
// smallest equivalent term. Results can be stored in a Cache keyed by the
// program text and the engine configuration, and a Watcher re-runs the
// engine whenever a program file is written.
//
// Usage:
//
//	engine, err := internal.NewEngine(internal.DefaultRunnerConfig(), nil, nil, logger)
//	if err != nil {
//	    // handle error
//	}
//
//	res, err := engine.Simplify(ctx, "example", "(let x 1 (+ (var x) 2))")
//	if err != nil {
//	    // handle error
//	}
//	fmt.Println(res.Best) // 3
//
// Extra pattern rules can be supplied in configuration or loaded with
// LoadRuleFile; their names must not clash with the built-in rules.
package internal

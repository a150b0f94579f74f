package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/lambsat/formatter"
	"github.com/gnolang/lambsat/internal"
	tt "github.com/gnolang/lambsat/internal/types"
	"github.com/gnolang/lambsat/simplify"
)

var (
	ignoreRules   string
	jsonOutput    bool
	outPath       string
	iterLimit     int
	nodeLimit     int
	schedulerName string
	goal          string
	cacheDir      string
)

var simplifyCmd = &cobra.Command{
	Use:   "simplify [exprs or paths...]",
	Short: "Simplify programs given inline or as .lam files",
	Long: `Saturates each program with the rewrite rules and prints the smallest
equivalent term found. Arguments naming an existing path are read from
disk; anything else is parsed as a program.
Example) lambsat simplify "(let x 1 (+ (var x) 2))" examples/`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide programs, files or directories")
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		engine, err := newEngine()
		if err != nil {
			logger.Fatal("Failed to initialize engine", zap.Error(err))
		}

		results, failed := runSimplify(ctx, os.Stdout, engine, args)
		if err := printResults(os.Stdout, results, jsonOutput, outPath); err != nil {
			logger.Error("Error printing results", zap.Error(err))
			os.Exit(1)
		}
		if failed || !goalsReached(results) {
			os.Exit(1)
		}
	},
}

func init() {
	simplifyCmd.Flags().StringVar(&ignoreRules, "ignore", "", "Comma-separated list of rules to ignore")
	simplifyCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")
	simplifyCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
	simplifyCmd.Flags().IntVar(&iterLimit, "iter-limit", 0, "Override the iteration limit")
	simplifyCmd.Flags().IntVar(&nodeLimit, "node-limit", 0, "Override the node limit")
	simplifyCmd.Flags().StringVar(&schedulerName, "scheduler", "", "Rule scheduler: backoff or simple")
	simplifyCmd.Flags().StringVar(&goal, "goal", "", "Stop as soon as each program is equivalent to this term")
	simplifyCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Reuse results stored in this directory")
}

// newEngine builds the engine from the configuration file and the
// command-line overrides.
func newEngine() (*internal.Engine, error) {
	engine, err := simplify.New(cfgFile, logger)
	if err != nil {
		return nil, err
	}

	config := engine.Config()
	if iterLimit > 0 {
		config.IterLimit = iterLimit
	}
	if nodeLimit > 0 {
		config.NodeLimit = nodeLimit
	}
	if schedulerName != "" {
		switch schedulerName {
		case tt.SchedulerBackoff, tt.SchedulerSimple:
			config.Scheduler = schedulerName
		default:
			return nil, fmt.Errorf("unknown scheduler %q", schedulerName)
		}
	}
	engine.SetConfig(config)

	for _, rule := range splitList(ignoreRules) {
		if _, err := engine.Rule(rule); err != nil {
			logger.Warn("Ignoring unknown rule", zap.String("rule", rule))
			continue
		}
		engine.IgnoreRule(rule)
	}

	if cacheDir != "" {
		cache, err := internal.NewCache(cacheDir)
		if err != nil {
			return nil, err
		}
		engine.SetCache(cache)
	}
	return engine, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// runSimplify simplifies source arguments first, then every file argument in
// one ProcessFiles call. Failures are reported to w. It returns the results
// and whether anything failed.
func runSimplify(ctx context.Context, w io.Writer, engine *internal.Engine, args []string) ([]*tt.Result, bool) {
	fileProcessor := simplify.ProcessFile
	sourceProcessor := simplify.ProcessSource
	if goal != "" {
		fileProcessor = proveFile(engine, goal)
		sourceProcessor = proveSource(engine, goal)
	}

	var (
		results []*tt.Result
		paths   []string
		failed  bool
	)
	for _, arg := range args {
		if _, err := os.Stat(arg); err == nil {
			paths = append(paths, arg)
			continue
		}

		res, err := sourceProcessor(ctx, engine, arg)
		if err != nil {
			fmt.Fprint(w, formatter.FormatError(arg, err))
			failed = true
			continue
		}
		results = append(results, res)
	}

	if len(paths) > 0 {
		res, err := simplify.ProcessFiles(ctx, logger, engine, paths, fileProcessor)
		if err != nil {
			name := strings.Join(paths, " ")
			var pathErr *simplify.PathError
			if errors.As(err, &pathErr) {
				name, err = pathErr.Path, pathErr.Err
			}
			fmt.Fprint(w, formatter.FormatError(name, err))
			failed = true
		}
		results = append(results, res...)
	}
	return results, failed
}

func proveFile(engine *internal.Engine, goal string) simplify.Processor {
	return func(ctx context.Context, _ simplify.SimplifyEngine, path string) (*tt.Result, error) {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", path, err)
		}
		return engine.Prove(ctx, path, string(src), goal)
	}
}

func proveSource(engine *internal.Engine, goal string) simplify.Processor {
	return func(ctx context.Context, _ simplify.SimplifyEngine, src string) (*tt.Result, error) {
		return engine.Prove(ctx, src, src, goal)
	}
}

func goalsReached(results []*tt.Result) bool {
	if goal == "" {
		return true
	}
	for _, res := range results {
		if !res.GoalReached {
			return false
		}
	}
	return true
}

func printResults(w io.Writer, results []*tt.Result, isJson bool, jsonPath string) error {
	if !isJson {
		_, err := fmt.Fprint(w, formatter.FormatResults(results))
		return err
	}

	d, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling results to JSON: %w", err)
	}
	if jsonPath == "" {
		_, err = fmt.Fprintln(w, string(d))
		return err
	}
	return os.WriteFile(jsonPath, d, 0o644)
}

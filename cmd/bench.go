package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/lambsat/formatter"
	"github.com/gnolang/lambsat/internal"
	"github.com/gnolang/lambsat/internal/lambda"
	tt "github.com/gnolang/lambsat/internal/types"
)

var benchJsonOutput bool

var benchCmd = &cobra.Command{
	Use:   "bench [names...]",
	Short: "Saturate the seed programs and time e-matching on the result",
	Long: `Runs the named seed benchmarks, or all of them when none are given.
Example) lambsat bench lambda1`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		engine, err := newEngine()
		if err != nil {
			logger.Fatal("Failed to initialize engine", zap.Error(err))
		}

		benches, err := selectBenches(args)
		if err != nil {
			logger.Fatal("Failed to select benchmarks", zap.Error(err))
		}

		results, err := runBenches(ctx, engine, benches, os.Stderr)
		if err != nil {
			logger.Fatal("Benchmark failed", zap.Error(err))
		}
		if err := printBenchResults(os.Stdout, results, benchJsonOutput); err != nil {
			logger.Error("Error printing results", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	benchCmd.Flags().BoolVar(&benchJsonOutput, "json", false, "Output results in JSON format")
}

func selectBenches(names []string) ([]lambda.Bench, error) {
	if len(names) == 0 {
		return lambda.Benches(), nil
	}
	benches := make([]lambda.Bench, 0, len(names))
	for _, name := range names {
		b, ok := lambda.LookupBench(name)
		if !ok {
			return nil, fmt.Errorf("unknown benchmark %q", name)
		}
		benches = append(benches, b)
	}
	return benches, nil
}

func runBenches(ctx context.Context, engine *internal.Engine, benches []lambda.Bench, progress io.Writer) ([]*tt.BenchResult, error) {
	bar := progressbar.NewOptions(len(benches),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("saturating"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	results := make([]*tt.BenchResult, 0, len(benches))
	for _, b := range benches {
		bar.Describe(b.Name)
		res, err := engine.RunBench(ctx, b)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
		_ = bar.Add(1)
	}
	return results, nil
}

func printBenchResults(w io.Writer, results []*tt.BenchResult, isJson bool) error {
	if isJson {
		d, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshalling results to JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(d))
		return err
	}
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprint(w, formatter.FormatBench(res))
	}
	return nil
}

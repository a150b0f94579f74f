package simplify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gnolang/lambsat/internal"
	"github.com/gnolang/lambsat/internal/lambda"
	tt "github.com/gnolang/lambsat/internal/types"
)

// DefaultConfigPath is the configuration file looked up when none is given.
const DefaultConfigPath = ".lambsat.yaml"

type SimplifyEngine interface {
	Run(ctx context.Context, filename string) (*tt.Result, error)
	Simplify(ctx context.Context, name, src string) (*tt.Result, error)
	IgnoreRule(rule string)
}

// Processor simplifies one input with an engine.
type Processor func(ctx context.Context, engine SimplifyEngine, input string) (*tt.Result, error)

// Config is the content of a configuration file.
type Config struct {
	Name       string                   `yaml:"name"`
	Runner     tt.RunnerConfig          `yaml:"runner"`
	Rules      map[string]tt.ConfigRule `yaml:"rules"`
	ExtraRules []tt.ExtraRule           `yaml:"extra_rules,omitempty"`
	// RuleFiles are YAML rule files, relative to the configuration file.
	RuleFiles []string `yaml:"rule_files,omitempty"`
}

// DefaultConfig lists every built-in rule as enabled.
func DefaultConfig() Config {
	rules := make(map[string]tt.ConfigRule)
	for _, name := range lambda.RuleNames() {
		enabled := true
		rules[name] = tt.ConfigRule{Enabled: &enabled}
	}
	return Config{
		Name:   "lambsat",
		Runner: internal.DefaultRunnerConfig(),
		Rules:  rules,
	}
}

// LoadConfig reads a configuration file. A missing file yields the
// default configuration.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	var config Config
	if err := yaml.NewDecoder(f).Decode(&config); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return config, nil
}

// WriteConfig stores config at path in YAML.
func WriteConfig(path string, config Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// New builds an engine from the configuration file at configPath.
func New(configPath string, logger *zap.Logger) (*internal.Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool)
	for _, name := range lambda.RuleNames() {
		known[name] = true
	}
	for name := range config.Rules {
		if !known[name] {
			logger.Warn("Ignoring unknown rule in configuration", zap.String("rule", name))
		}
	}

	extra := config.ExtraRules
	for _, file := range config.RuleFiles {
		if !filepath.IsAbs(file) {
			file = filepath.Join(filepath.Dir(configPath), file)
		}
		rules, err := internal.LoadRuleFile(file)
		if err != nil {
			return nil, err
		}
		extra = append(extra, rules...)
	}

	return internal.NewEngine(config.Runner, config.Rules, extra, logger)
}

func ProcessFile(ctx context.Context, engine SimplifyEngine, path string) (*tt.Result, error) {
	return engine.Run(ctx, path)
}

// ProcessSource simplifies a program given on the command line.
func ProcessSource(ctx context.Context, engine SimplifyEngine, src string) (*tt.Result, error) {
	return engine.Simplify(ctx, src, src)
}

// PathError reports the path that stopped ProcessFiles.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string { return e.Path + ": " + e.Err.Error() }

func (e *PathError) Unwrap() error { return e.Err }

// ProcessFiles runs ProcessPath over every path and concatenates the
// results. It stops at the first failing path and returns the results
// gathered so far with a *PathError.
func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine SimplifyEngine,
	paths []string,
	processor Processor,
) ([]*tt.Result, error) {
	var all []*tt.Result
	for _, path := range paths {
		results, err := ProcessPath(ctx, logger, engine, path, processor)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			return all, &PathError{Path: path, Err: err}
		}
		all = append(all, results...)
	}
	return all, nil
}

// ProcessPath simplifies a single program file, or every program file below
// a directory. Directory entries are processed concurrently and returned
// sorted by name; files that fail are logged and skipped.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine SimplifyEngine,
	path string,
	processor Processor,
) ([]*tt.Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		if !hasSourceExtension(path) {
			return nil, nil
		}
		res, err := processor(ctx, engine, path)
		if err != nil {
			return nil, err
		}
		return []*tt.Result{res}, nil
	}

	var files []string
	err = filepath.Walk(path, func(filePath string, fileInfo os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fileInfo.IsDir() && hasSourceExtension(filePath) {
			files = append(files, filePath)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	type outcome struct {
		res *tt.Result
		err error
	}
	outcomes := make(chan outcome, len(files))
	sem := make(chan struct{}, runtime.NumCPU())

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(path),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	started := 0
	for _, filePath := range files {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		started++
		go func(fp string) {
			defer func() { <-sem }()
			res, err := processor(ctx, engine, fp)
			if err != nil && logger != nil {
				logger.Error("Error processing file", zap.String("file", fp), zap.Error(err))
			}
			outcomes <- outcome{res, err}
			_ = bar.Add(1)
		}(filePath)
	}

	var results []*tt.Result
	for range started {
		o := <-outcomes
		if o.err == nil && o.res != nil {
			results = append(results, o.res)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, nil
}

func hasSourceExtension(path string) bool {
	return filepath.Ext(path) == internal.SourceExt
}

package internal

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gnolang/lambsat/internal/lambda"
	tt "github.com/gnolang/lambsat/internal/types"
)

// ErrUnknownRule is returned when a rule name matches neither a built-in
// nor an extra rule.
var ErrUnknownRule = errors.New("unknown rule")

type rulesFile struct {
	Rules []tt.ExtraRule `yaml:"rules"`
}

// LoadRuleFile reads extra rules from a YAML file of the form
//
//	rules:
//	  - name: add-zero
//	    pattern: "(+ ?a 0)"
//	    replacement: "?a"
func LoadRuleFile(path string) ([]tt.ExtraRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rule file %s: %w", path, err)
	}
	return f.Rules, nil
}

// CompileRules turns extra rules into rewrites. Names must be unique and
// must not shadow a built-in rule.
func CompileRules(extra []tt.ExtraRule) ([]*lambda.Rewrite, error) {
	seen := make(map[string]bool)
	for _, name := range lambda.RuleNames() {
		seen[name] = true
	}

	out := make([]*lambda.Rewrite, 0, len(extra))
	for _, r := range extra {
		if r.Name == "" {
			return nil, fmt.Errorf("extra rule %q: missing name", r.Pattern)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("extra rule %q: duplicate name", r.Name)
		}
		seen[r.Name] = true

		rw, err := lambda.NewRule(r.Name, r.Pattern, r.Replacement)
		if err != nil {
			return nil, err
		}
		out = append(out, rw)
	}
	return out, nil
}

// selectRules returns the built-in rules enabled in cfg, in their fixed
// order, followed by extra.
func selectRules(cfg map[string]tt.ConfigRule, extra []*lambda.Rewrite) []*lambda.Rewrite {
	var out []*lambda.Rewrite
	for _, r := range lambda.Rules() {
		if c, ok := cfg[r.Name]; ok && !c.IsEnabled() {
			continue
		}
		out = append(out, r)
	}
	return append(out, extra...)
}

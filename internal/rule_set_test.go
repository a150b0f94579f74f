package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/lambsat/internal/lambda"
	tt "github.com/gnolang/lambsat/internal/types"
)

func TestLoadRuleFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules:
  - name: add-zero
    pattern: "(+ ?a 0)"
    replacement: "?a"
  - name: if-same
    pattern: "(if ?c ?a ?a)"
    replacement: "?a"
`), 0o644))

	rules, err := LoadRuleFile(path)
	require.NoError(t, err)
	assert.Equal(t, []tt.ExtraRule{
		{Name: "add-zero", Pattern: "(+ ?a 0)", Replacement: "?a"},
		{Name: "if-same", Pattern: "(if ?c ?a ?a)", Replacement: "?a"},
	}, rules)
}

func TestLoadRuleFileErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := LoadRuleFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rules: {name: x"), 0o644))
	_, err = LoadRuleFile(bad)
	assert.ErrorContains(t, err, "parsing rule file")
}

func TestCompileRules(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		extra   []tt.ExtraRule
		wantErr string
	}{
		{
			name:  "valid",
			extra: []tt.ExtraRule{{Name: "add-zero", Pattern: "(+ ?a 0)", Replacement: "?a"}},
		},
		{
			name:    "missing name",
			extra:   []tt.ExtraRule{{Pattern: "(+ ?a 0)", Replacement: "?a"}},
			wantErr: "missing name",
		},
		{
			name: "duplicate",
			extra: []tt.ExtraRule{
				{Name: "x", Pattern: "(+ ?a 0)", Replacement: "?a"},
				{Name: "x", Pattern: "(+ 0 ?a)", Replacement: "?a"},
			},
			wantErr: `"x": duplicate name`,
		},
		{
			name:    "shadows builtin",
			extra:   []tt.ExtraRule{{Name: "beta", Pattern: "(+ ?a 0)", Replacement: "?a"}},
			wantErr: `"beta": duplicate name`,
		},
		{
			name:    "unbound variable",
			extra:   []tt.ExtraRule{{Name: "grow", Pattern: "(+ ?a 0)", Replacement: "?b"}},
			wantErr: "unbound variable ?b",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rules, err := CompileRules(tc.extra)
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, rules, len(tc.extra))
			assert.Equal(t, tc.extra[0].Name, rules[0].Name)
		})
	}
}

func TestSelectRules(t *testing.T) {
	t.Parallel()
	on, off := true, false
	extra, err := CompileRules([]tt.ExtraRule{{Name: "add-zero", Pattern: "(+ ?a 0)", Replacement: "?a"}})
	require.NoError(t, err)

	rules := selectRules(map[string]tt.ConfigRule{
		"beta":     {Enabled: &off},
		"eq-comm":  {Enabled: &on},
		"add-comm": {},
	}, extra)

	names := ruleNames(rules)
	assert.Len(t, names, len(lambda.RuleNames()))
	assert.NotContains(t, names, "beta")
	assert.Contains(t, names, "eq-comm")
	assert.Contains(t, names, "add-comm")
	assert.Equal(t, "add-zero", names[len(names)-1])
}

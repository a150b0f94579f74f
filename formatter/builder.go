package formatter

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/gnolang/lambsat/internal"
	"github.com/gnolang/lambsat/internal/lambda"
	tt "github.com/gnolang/lambsat/internal/types"
)

var (
	errorStyle      = color.New(color.FgRed, color.Bold)
	ruleStyle       = color.New(color.FgYellow, color.Bold)
	fileStyle       = color.New(color.FgCyan, color.Bold)
	lineStyle       = color.New(color.FgHiBlue, color.Bold)
	noteStyle       = color.New(color.FgHiBlack)
	suggestionStyle = color.New(color.FgGreen, color.Bold)
)

// UseColor reports whether output to f should be colored.
func UseColor(f *os.File, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetColor turns colored output on or off for every style.
func SetColor(enabled bool) {
	color.NoColor = !enabled
}

type resultData struct {
	Name     string
	Cached   bool
	Best     string
	Constant string
	Cost     string
	Stop     string
	Graph    string
	Elapsed  string
	Applied  string
	Matches  string
}

const resultTemplate = `{{header .Name .Cached}}
{{field "best" (best .Best)}}
{{- if .Constant}}
{{field "value" .Constant}}
{{- end}}
{{field "cost" .Cost}}
{{field "stop" .Stop}}
{{field "graph" .Graph}}
{{field "time" .Elapsed}}
{{- if .Matches}}
{{field "matches" .Matches}}
{{- end}}
{{- if .Applied}}
{{field "applied" .Applied}}
{{- end}}
`

var tmpl = template.Must(template.New("result").Funcs(template.FuncMap{
	"header": header,
	"field":  field,
	"best":   func(s string) string { return suggestionStyle.Sprint(s) },
}).Parse(resultTemplate))

func header(name string, cached bool) string {
	out := fileStyle.Sprint(name)
	if cached {
		out += " " + noteStyle.Sprint("(cached)")
	}
	return out
}

func field(label, value string) string {
	return "  " + lineStyle.Sprintf("%-8s", label+":") + " " + value
}

func newResultData(res *tt.Result) resultData {
	data := resultData{
		Name:     res.Name,
		Cached:   res.Cached,
		Best:     res.Best,
		Constant: res.Constant,
		Cost:     humanize.Comma(int64(res.Cost)),
		Stop:     fmt.Sprintf("%s after %d iterations", res.StopReason, res.Iterations),
		Graph: fmt.Sprintf("%s nodes, %s classes",
			humanize.Comma(int64(res.Nodes)), humanize.Comma(int64(res.Classes))),
		Elapsed: res.Elapsed.Round(time.Microsecond).String(),
	}

	applied := make([]string, 0, len(res.Applied))
	for _, name := range internal.AppliedRules(res) {
		applied = append(applied, fmt.Sprintf("%s (%s)", name, humanize.Comma(int64(res.Applied[name]))))
	}
	data.Applied = strings.Join(applied, ", ")
	return data
}

func render(data resultData) string {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return errorStyle.Sprintf("error formatting result: %v\n", err)
	}
	return buf.String()
}

// FormatResult renders one simplification result.
func FormatResult(res *tt.Result) string {
	return render(newResultData(res))
}

// FormatResults renders results separated by blank lines.
func FormatResults(results []*tt.Result) string {
	parts := make([]string, len(results))
	for i, res := range results {
		parts[i] = FormatResult(res)
	}
	return strings.Join(parts, "\n")
}

// FormatBench renders a benchmark result including its e-matching cost.
func FormatBench(res *tt.BenchResult) string {
	data := newResultData(&res.Result)
	data.Matches = fmt.Sprintf("%s in %s",
		humanize.Comma(int64(res.Matches)), res.SearchTime.Round(time.Microsecond))
	return render(data)
}

// FormatError renders a failure for the named program.
func FormatError(name string, err error) string {
	return errorStyle.Sprint("error: ") + fileStyle.Sprint(name) + "\n" +
		lineStyle.Sprint("  = ") + err.Error() + "\n"
}

// FormatRules lists rewrite rules one per line.
func FormatRules(rules []*lambda.Rewrite) string {
	width := 0
	for _, r := range rules {
		width = max(width, len(r.Name))
	}

	var b strings.Builder
	for _, r := range rules {
		b.WriteString(ruleStyle.Sprintf("%-*s", width, r.Name))
		fmt.Fprintf(&b, "  %s => %s", r.Searcher, applierText(r.Applier))
		if len(r.Conditions) > 0 {
			b.WriteString(noteStyle.Sprint("  if guarded"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func applierText(a any) string {
	switch a := a.(type) {
	case *lambda.Pattern:
		return a.String()
	case *lambda.CaptureAvoid:
		return fmt.Sprintf("%s | %s", a.IfNotFree, a.IfFree)
	default:
		return fmt.Sprintf("<%T>", a)
	}
}

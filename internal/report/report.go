package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/chapterlint/internal/rules"
)

// Summary aggregates verdicts across a whole run.
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Warned int `json:"warned"`
	Failed int `json:"failed"`
}

// Aggregate counts statuses over the per-file results. Results are expected
// to already be sorted by path; this function never reorders them.
func Aggregate(results []rules.Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case rules.StatusPass:
			s.Passed++
		case rules.StatusWarn:
			s.Warned++
		case rules.StatusFail:
			s.Failed++
		}
	}
	return s
}

// HasFailures reports whether any file ended in fail status.
func (s Summary) HasFailures() bool { return s.Failed > 0 }

var (
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	pathStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func statusLabel(s rules.Status) string {
	switch s {
	case rules.StatusPass:
		return passStyle.Render("PASS")
	case rules.StatusWarn:
		return warnStyle.Render("WARN")
	default:
		return failStyle.Render("FAIL")
	}
}

// RenderText writes the human-readable report: one block per file listing
// violations in rule-engine order, then the run summary.
func RenderText(w io.Writer, results []rules.Result) error {
	for _, r := range results {
		fmt.Fprintf(w, "%s  %s\n", statusLabel(r.Status), pathStyle.Render(r.Path))
		for _, v := range r.Violations {
			sev := warnStyle.Render("warn")
			if v.Severity == rules.SeverityFail {
				sev = failStyle.Render("fail")
			}
			fmt.Fprintf(w, "  %s  %s %s\n",
				sev,
				v.Rule,
				mutedStyle.Render(fmt.Sprintf("(expected %d, actual %d)", v.Expected, v.Actual)),
			)
		}
	}

	s := Aggregate(results)
	fmt.Fprintf(w, "\n%s\n", strings.TrimSpace(fmt.Sprintf(
		"%d checked: %s %d, %s %d, %s %d",
		s.Total,
		passStyle.Render("pass"), s.Passed,
		warnStyle.Render("warn"), s.Warned,
		failStyle.Render("fail"), s.Failed,
	)))
	return nil
}

// RenderJSON writes the machine-readable report: a JSON array of per-file
// results. This schema is the contract CI tooling depends on.
func RenderJSON(w io.Writer, results []rules.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if results == nil {
		results = []rules.Result{}
	}
	return enc.Encode(results)
}

package rules

import (
	"github.com/dgallion1/chapterlint/internal/extract"
)

// Severity distinguishes broken markdown from under-developed content.
type Severity string

const (
	SeverityFail Severity = "fail"
	SeverityWarn Severity = "warn"
)

// Status is the overall verdict for one chapter.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Rule names, stable for the JSON report contract.
const (
	RuleFileReadable    = "file-readable"
	RuleDetailsBalanced = "details-balanced"
	RuleCodeFenceEven   = "code-fence-even"
	RuleMinCollapsible  = "min-collapsible"
	RuleMinDiagrams     = "min-diagrams"
	RuleMinRetrieval    = "min-retrieval"
	RuleMinMistakes     = "min-mistake-patterns"
	RuleWarStoryImpact  = "war-story-impact"
)

// Violation is one rule falling short, with expected-vs-actual values.
type Violation struct {
	Rule     string   `json:"rule"`
	Expected int      `json:"expected"`
	Actual   int      `json:"actual"`
	Severity Severity `json:"severity"`
}

// Result is the conformance verdict for one chapter document.
type Result struct {
	Path       string      `json:"path"`
	Status     Status      `json:"status"`
	Violations []Violation `json:"violations"`
}

// RuleSet holds the thresholds for one run. Loaded once at startup,
// immutable afterward, safe for concurrent reads.
type RuleSet struct {
	MinCollapsible int
	MinDiagrams    int
	MinRetrieval   int
	MinMistakes    int

	// Strict promotes every warn-severity violation to fail.
	Strict bool
}

// DefaultRuleSet mirrors the book's authoring conventions: 35+ collapsible
// sections, 5+ diagrams, 15+ retrieval opportunities, 6+ mistake patterns.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		MinCollapsible: 35,
		MinDiagrams:    5,
		MinRetrieval:   15,
		MinMistakes:    6,
	}
}

// Evaluate scores one chapter's facts against the rule set. Pure and total:
// every rule always runs, no rule short-circuits another, and evaluation
// never fails — violations are data, not errors.
func Evaluate(path string, f extract.Facts, rs RuleSet) Result {
	res := Result{
		Path:       path,
		Violations: []Violation{},
	}

	warn := SeverityWarn
	if rs.Strict {
		warn = SeverityFail
	}

	// Structural integrity first: these mean the markdown itself is broken.
	if f.DetailsOpenCount != f.DetailsCloseCount {
		res.Violations = append(res.Violations, Violation{
			Rule:     RuleDetailsBalanced,
			Expected: f.DetailsOpenCount,
			Actual:   f.DetailsCloseCount,
			Severity: SeverityFail,
		})
	}
	if f.CodeFenceCount%2 != 0 {
		res.Violations = append(res.Violations, Violation{
			Rule:     RuleCodeFenceEven,
			Expected: f.CodeFenceCount - 1,
			Actual:   f.CodeFenceCount,
			Severity: SeverityFail,
		})
	}

	// Content richness: advisory unless strict.
	if f.DetailsOpenCount < rs.MinCollapsible {
		res.Violations = append(res.Violations, Violation{
			Rule:     RuleMinCollapsible,
			Expected: rs.MinCollapsible,
			Actual:   f.DetailsOpenCount,
			Severity: warn,
		})
	}
	if f.DiagramCount < rs.MinDiagrams {
		res.Violations = append(res.Violations, Violation{
			Rule:     RuleMinDiagrams,
			Expected: rs.MinDiagrams,
			Actual:   f.DiagramCount,
			Severity: warn,
		})
	}
	if f.RetrievalCount < rs.MinRetrieval {
		res.Violations = append(res.Violations, Violation{
			Rule:     RuleMinRetrieval,
			Expected: rs.MinRetrieval,
			Actual:   f.RetrievalCount,
			Severity: warn,
		})
	}
	if f.MistakeCount < rs.MinMistakes {
		res.Violations = append(res.Violations, Violation{
			Rule:     RuleMinMistakes,
			Expected: rs.MinMistakes,
			Actual:   f.MistakeCount,
			Severity: warn,
		})
	}
	if !f.WarStoryPresent {
		res.Violations = append(res.Violations, Violation{
			Rule:     RuleWarStoryImpact,
			Expected: 1,
			Actual:   0,
			Severity: warn,
		})
	}

	res.Status = statusOf(res.Violations)
	return res
}

// UnreadableResult is the synthetic fail result for a file that could not
// be read: the run continues, the failure shows up in the report.
func UnreadableResult(path string) Result {
	return Result{
		Path:   path,
		Status: StatusFail,
		Violations: []Violation{
			{Rule: RuleFileReadable, Expected: 1, Actual: 0, Severity: SeverityFail},
		},
	}
}

func statusOf(violations []Violation) Status {
	status := StatusPass
	for _, v := range violations {
		switch v.Severity {
		case SeverityFail:
			return StatusFail
		case SeverityWarn:
			status = StatusWarn
		}
	}
	return status
}

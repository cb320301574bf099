package rules

import (
	"testing"

	"github.com/dgallion1/chapterlint/internal/extract"
)

// cleanFacts satisfies every default rule.
func cleanFacts() extract.Facts {
	return extract.Facts{
		DetailsOpenCount:  40,
		DetailsCloseCount: 40,
		CodeFenceCount:    80,
		DiagramCount:      6,
		RetrievalCount:    16,
		MistakeCount:      6,
		WarStoryPresent:   true,
		WarStoryHeading:   true,
	}
}

func TestEvaluate_CleanChapter(t *testing.T) {
	res := Evaluate("05-clean.md", cleanFacts(), DefaultRuleSet())
	if res.Status != StatusPass {
		t.Errorf("expected pass, got %s", res.Status)
	}
	if len(res.Violations) != 0 {
		t.Errorf("expected no violations, got %+v", res.Violations)
	}
	if res.Violations == nil {
		t.Error("violations must be an empty slice, not nil, for JSON stability")
	}
}

func TestEvaluate_BrokenMarkdown(t *testing.T) {
	f := cleanFacts()
	f.DetailsOpenCount = 39
	f.DetailsCloseCount = 40
	f.CodeFenceCount = 81

	res := Evaluate("06-broken.md", f, DefaultRuleSet())
	if res.Status != StatusFail {
		t.Errorf("expected fail, got %s", res.Status)
	}
	if len(res.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %+v", res.Violations)
	}

	tag := res.Violations[0]
	if tag.Rule != RuleDetailsBalanced || tag.Expected != 39 || tag.Actual != 40 || tag.Severity != SeverityFail {
		t.Errorf("unexpected tag violation: %+v", tag)
	}
	fence := res.Violations[1]
	if fence.Rule != RuleCodeFenceEven || fence.Expected != 80 || fence.Actual != 81 || fence.Severity != SeverityFail {
		t.Errorf("unexpected fence violation: %+v", fence)
	}
}

func TestEvaluate_ThinContent(t *testing.T) {
	f := cleanFacts()
	f.RetrievalCount = 3
	f.WarStoryPresent = false
	f.WarStoryHeading = false

	res := Evaluate("07-thin.md", f, DefaultRuleSet())
	if res.Status != StatusWarn {
		t.Errorf("expected warn, got %s", res.Status)
	}
	if len(res.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %+v", res.Violations)
	}

	retr := res.Violations[0]
	if retr.Rule != RuleMinRetrieval || retr.Expected != 15 || retr.Actual != 3 || retr.Severity != SeverityWarn {
		t.Errorf("unexpected retrieval violation: %+v", retr)
	}
	war := res.Violations[1]
	if war.Rule != RuleWarStoryImpact || war.Expected != 1 || war.Actual != 0 {
		t.Errorf("unexpected war-story violation: %+v", war)
	}
}

func TestEvaluate_ThresholdBoundary(t *testing.T) {
	f := cleanFacts()
	f.RetrievalCount = 15
	res := Evaluate("08-x.md", f, DefaultRuleSet())
	for _, v := range res.Violations {
		if v.Rule == RuleMinRetrieval {
			t.Errorf("exactly-at-threshold must not violate: %+v", v)
		}
	}

	f.RetrievalCount = 14
	res = Evaluate("08-x.md", f, DefaultRuleSet())
	found := false
	for _, v := range res.Violations {
		if v.Rule == RuleMinRetrieval {
			found = true
			if v.Expected != 15 || v.Actual != 14 {
				t.Errorf("expected (15, 14), got (%d, %d)", v.Expected, v.Actual)
			}
		}
	}
	if !found {
		t.Error("one-below-threshold must produce a violation")
	}
}

func TestEvaluate_StrictPromotesWarnings(t *testing.T) {
	f := cleanFacts()
	f.DiagramCount = 2

	rs := DefaultRuleSet()
	res := Evaluate("09-x.md", f, rs)
	if res.Status != StatusWarn {
		t.Fatalf("expected warn without strict, got %s", res.Status)
	}

	rs.Strict = true
	res = Evaluate("09-x.md", f, rs)
	if res.Status != StatusFail {
		t.Errorf("expected fail with strict, got %s", res.Status)
	}
	if res.Violations[0].Severity != SeverityFail {
		t.Errorf("expected promoted severity, got %s", res.Violations[0].Severity)
	}
}

func TestEvaluate_StrictDoesNotInventViolations(t *testing.T) {
	rs := DefaultRuleSet()
	rs.Strict = true
	res := Evaluate("10-x.md", cleanFacts(), rs)
	if res.Status != StatusPass {
		t.Errorf("strict on a clean chapter must still pass, got %s", res.Status)
	}
}

func TestEvaluate_EmptyFileIsWarnNotFail(t *testing.T) {
	// Zero counts: structurally sound (0 == 0, 0 is even) but below every
	// richness threshold.
	res := Evaluate("11-empty.md", extract.Facts{}, DefaultRuleSet())
	if res.Status != StatusWarn {
		t.Errorf("expected warn for empty file, got %s", res.Status)
	}
	for _, v := range res.Violations {
		if v.Severity == SeverityFail {
			t.Errorf("empty file must not produce fail violations: %+v", v)
		}
	}
}

func TestEvaluate_AllRulesAlwaysRun(t *testing.T) {
	// Everything wrong at once: structural violations must not short-circuit
	// the richness rules.
	f := extract.Facts{
		DetailsOpenCount:  1,
		DetailsCloseCount: 2,
		CodeFenceCount:    3,
	}
	res := Evaluate("12-x.md", f, DefaultRuleSet())
	// 2 structural + 4 thresholds + missing war story.
	if len(res.Violations) != 7 {
		t.Errorf("expected 7 violations, got %d: %+v", len(res.Violations), res.Violations)
	}
	if res.Status != StatusFail {
		t.Errorf("expected fail, got %s", res.Status)
	}
}

func TestUnreadableResult(t *testing.T) {
	res := UnreadableResult("13-gone.md")
	if res.Status != StatusFail {
		t.Errorf("expected fail, got %s", res.Status)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(res.Violations))
	}
	v := res.Violations[0]
	if v.Rule != RuleFileReadable || v.Expected != 1 || v.Actual != 0 || v.Severity != SeverityFail {
		t.Errorf("unexpected violation: %+v", v)
	}
}

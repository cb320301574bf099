package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dgallion1/chapterlint/internal/rules"
)

func sampleResults() []rules.Result {
	return []rules.Result{
		{Path: "01-a.md", Status: rules.StatusPass, Violations: []rules.Violation{}},
		{Path: "02-b.md", Status: rules.StatusWarn, Violations: []rules.Violation{
			{Rule: rules.RuleMinRetrieval, Expected: 15, Actual: 3, Severity: rules.SeverityWarn},
		}},
		{Path: "03-c.md", Status: rules.StatusFail, Violations: []rules.Violation{
			{Rule: rules.RuleCodeFenceEven, Expected: 80, Actual: 81, Severity: rules.SeverityFail},
		}},
	}
}

func TestAggregate(t *testing.T) {
	s := Aggregate(sampleResults())
	if s.Total != 3 || s.Passed != 1 || s.Warned != 1 || s.Failed != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if !s.HasFailures() {
		t.Error("expected failures")
	}
}

func TestAggregate_Empty(t *testing.T) {
	s := Aggregate(nil)
	if s.Total != 0 || s.HasFailures() {
		t.Errorf("unexpected summary: %+v", s)
	}
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderText(&buf, sampleResults()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"01-a.md",
		"02-b.md",
		"03-c.md",
		"min-retrieval",
		"(expected 15, actual 3)",
		"code-fence-even",
		"(expected 80, actual 81)",
		"3 checked",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
}

// TestRenderJSON_SchemaStability pins the field names downstream CI depends
// on: path, status, violations[].rule/expected/actual/severity.
func TestRenderJSON_SchemaStability(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderJSON(&buf, sampleResults()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(decoded))
	}

	first := decoded[0]
	if first["path"] != "01-a.md" {
		t.Errorf("expected path field, got %v", first)
	}
	if first["status"] != "pass" {
		t.Errorf("expected status %q, got %v", "pass", first["status"])
	}
	if vs, ok := first["violations"].([]any); !ok || len(vs) != 0 {
		t.Errorf("pass entry must carry an empty violations array, got %v", first["violations"])
	}

	third := decoded[2]
	vs := third["violations"].([]any)
	v := vs[0].(map[string]any)
	if v["rule"] != "code-fence-even" || v["expected"] != float64(80) || v["actual"] != float64(81) || v["severity"] != "fail" {
		t.Errorf("unexpected violation encoding: %v", v)
	}
}

func TestRenderJSON_NilResults(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderJSON(&buf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("expected empty array, got %q", buf.String())
	}
}

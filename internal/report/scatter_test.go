package report

import (
	"bytes"
	"strings"
	"testing"
)

func TestImpactScatter(t *testing.T) {
	s := populatedStore(t)

	var buf bytes.Buffer
	if err := ImpactScatter(&buf, s); err != nil {
		t.Fatalf("scatter: %v", err)
	}
	got := buf.String()

	if !strings.Contains(got, "impact scatter") {
		t.Errorf("missing title")
	}
	if !strings.Contains(got, "●") {
		t.Errorf("missing landing points")
	}
	if !strings.Contains(got, "+") {
		t.Errorf("missing launch site marker")
	}
}

func TestImpactScatterMissingFields(t *testing.T) {
	s := apogeeOnlyStore(t)

	var buf bytes.Buffer
	if err := ImpactScatter(&buf, s); err == nil {
		t.Errorf("expected error without impact coordinates")
	}
}

package export

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ArthurJWH/rocketmc/internal/results"
)

func storedRun(t *testing.T) *results.Store {
	t.Helper()
	name := filepath.Join(t.TempDir(), "export")
	s, err := results.New(name, []string{"apogee", "x_impact"})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := s.Open(false); err != nil {
		t.Fatalf("open: %v", err)
	}
	for i := 0; i < 3; i++ {
		out := map[string]results.Value{
			"apogee":   results.Scalar(1500 + float64(i)),
			"x_impact": results.Scalar(float64(i) * 2),
		}
		if err := s.AppendInputs(map[string]results.Value{"mass": results.Scalar(12)}); err != nil {
			t.Fatalf("append inputs: %v", err)
		}
		if err := s.AppendOutputs(out); err != nil {
			t.Fatalf("append outputs: %v", err)
		}
	}
	if err := s.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return s
}

func TestCSVRoundTrip(t *testing.T) {
	s := storedRun(t)

	var buf bytes.Buffer
	if err := CSV(&buf, s); err != nil {
		t.Fatalf("csv export: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse exported csv: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(records))
	}
	wantHeader := []string{"simulation", "apogee", "x_impact"}
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], col)
		}
	}
	if records[1][1] != "1500.000000" {
		t.Errorf("first apogee = %q, want 1500.000000", records[1][1])
	}
}

func TestJSONDocument(t *testing.T) {
	s := storedRun(t)

	var buf bytes.Buffer
	if err := JSON(&buf, s); err != nil {
		t.Fatalf("json export: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("parse exported json: %v", err)
	}
	if doc.Trials != 3 {
		t.Errorf("trials = %d, want 3", doc.Trials)
	}
	if len(doc.Results["apogee"]) != 3 {
		t.Errorf("apogee samples = %d, want 3", len(doc.Results["apogee"]))
	}
	if doc.Processed["apogee"].Mean != 1501 {
		t.Errorf("apogee mean = %v, want 1501", doc.Processed["apogee"].Mean)
	}
	if !strings.Contains(doc.Name, "export") {
		t.Errorf("unexpected name %q", doc.Name)
	}
}

func TestCSVEmptyStoreFails(t *testing.T) {
	name := filepath.Join(t.TempDir(), "empty")
	s, err := results.New(name, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	var buf bytes.Buffer
	if err := CSV(&buf, s); err == nil {
		t.Errorf("expected error for empty store")
	}
}

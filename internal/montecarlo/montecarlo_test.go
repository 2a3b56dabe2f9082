package montecarlo

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/ArthurJWH/rocketmc/internal/results"
	"github.com/ArthurJWH/rocketmc/internal/stochastic"
)

func testSamplers() *stochastic.Set {
	env := stochastic.EnvironmentParams{
		Gravity:     9.81,
		AirDensity:  1.225,
		ScaleHeight: 8500,
		Elevation:   1400,
		WindEast:    stochastic.Gaussian{Mean: 2, StdDev: 1},
		WindNorth:   stochastic.Gaussian{Mean: 0, StdDev: 1},
	}
	rkt := stochastic.RocketParams{
		DryMass:        stochastic.Gaussian{Mean: 14.4, StdDev: 0.1},
		PropellantMass: stochastic.Gaussian{Mean: 5},
		Thrust:         stochastic.Gaussian{Mean: 2200, StdDev: 50},
		BurnTime:       stochastic.Gaussian{Mean: 3.9},
		DragCoeff:      stochastic.Gaussian{Mean: 0.45, StdDev: 0.02},
		Radius:         stochastic.Gaussian{Mean: 0.0635},
		ParachuteCdA:   stochastic.Gaussian{Mean: 4},
	}
	flt := stochastic.FlightParams{
		RailLength:  stochastic.Gaussian{Mean: 5.2},
		Inclination: stochastic.Gaussian{Mean: 84.7, StdDev: 1},
		Heading:     stochastic.Gaussian{Mean: 53, StdDev: 2},
	}
	return stochastic.NewSet(env, rkt, flt, 42)
}

func newTestMC(t *testing.T) *MonteCarlo {
	t.Helper()
	m, err := New(filepath.Join(t.TempDir(), "dispersion"), testSamplers(), nil)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	m.SetOutput(io.Discard)
	return m
}

// stubRunner replaces the flight simulation with a recorded, optionally
// failing trial for driver tests.
type stubRunner struct {
	mu      *sync.Mutex
	indices *[]int
	failOn  map[int]bool
}

func (s *stubRunner) RunTrial(i int) (Record, error) {
	if s.mu != nil {
		s.mu.Lock()
		*s.indices = append(*s.indices, i)
		s.mu.Unlock()
	}
	rec := Record{
		Index:  i,
		Inputs: results.ScalarMap(map[string]float64{"trial": float64(i)}),
	}
	if s.failOn[i] {
		return rec, errors.New("simulated trial failure")
	}
	rec.Outputs = results.ScalarMap(map[string]float64{"apogee": float64(i) * 10})
	return rec, nil
}

func (m *MonteCarlo) stub(s *stubRunner) {
	m.runner = s
	m.newRunner = func(worker int) trialRunner { return s }
}

func TestSequentialRunPersists(t *testing.T) {
	m := newTestMC(t)

	if err := m.Simulate(context.Background(), 3, false, false, 0); err != nil {
		t.Fatalf("simulate failed: %v", err)
	}

	s := m.Store()
	if s.NumLoadedSims() != 3 {
		t.Errorf("expected 3 loaded sims, got %d", s.NumLoadedSims())
	}
	if len(s.InputsLog()) != 3 {
		t.Errorf("expected 3 input records, got %d", len(s.InputsLog()))
	}
	if _, ok := s.ProcessedResults()["apogee"]; !ok {
		t.Error("processed results should include apogee")
	}
	for _, rec := range s.OutputsLog() {
		if len(rec) != len(s.ExportList()) {
			t.Errorf("output record has %d fields, export list has %d", len(rec), len(s.ExportList()))
		}
	}
}

func TestSequentialAppendAccumulates(t *testing.T) {
	m := newTestMC(t)

	if err := m.Simulate(context.Background(), 4, false, false, 0); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if err := m.Simulate(context.Background(), 3, true, false, 0); err != nil {
		t.Fatalf("append run failed: %v", err)
	}

	if got := m.Store().NumLoadedSims(); got != 7 {
		t.Errorf("expected 4+3=7 loaded sims, got %d", got)
	}
}

func TestSequentialFailurePersistsErrorRecord(t *testing.T) {
	m := newTestMC(t)
	m.stub(&stubRunner{failOn: map[int]bool{2: true}})

	err := m.Simulate(context.Background(), 5, false, false, 0)
	if err == nil {
		t.Fatal("expected trial failure to propagate")
	}

	s := m.Store()
	if len(s.ErrorsLog()) != 1 {
		t.Fatalf("expected 1 error record, got %d", len(s.ErrorsLog()))
	}
	if s.ErrorsLog()[0]["trial"].Scalar() != 2 {
		t.Errorf("error record should hold the failing trial's inputs: %v", s.ErrorsLog()[0])
	}

	// Prior completed trials stay durably persisted.
	if err := s.ImportOutputs(""); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if s.NumLoadedSims() != 2 {
		t.Errorf("expected 2 completed trials on disk, got %d", s.NumLoadedSims())
	}
}

func TestSequentialInterruptStopsCleanly(t *testing.T) {
	m := newTestMC(t)
	m.stub(&stubRunner{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Simulate(ctx, 10, false, false, 0); err != nil {
		t.Fatalf("interrupt should not return an error, got %v", err)
	}
	if len(m.Store().ErrorsLog()) != 1 {
		t.Errorf("expected 1 error record after interrupt, got %d", len(m.Store().ErrorsLog()))
	}
}

func TestParallelPartitionCompleteness(t *testing.T) {
	m := newTestMC(t)
	var mu sync.Mutex
	var indices []int
	m.stub(&stubRunner{mu: &mu, indices: &indices})

	if err := m.RunParallel(context.Background(), 10, 3); err != nil {
		t.Fatalf("parallel run failed: %v", err)
	}

	sort.Ints(indices)
	if len(indices) != 10 {
		t.Fatalf("expected 10 trials, got %d", len(indices))
	}
	for i, idx := range indices {
		if idx != i {
			t.Fatalf("expected index %d exactly once, got sequence %v", i, indices)
		}
	}

	_, entries, err := results.ReadGroupFile(m.Store().GroupPath())
	if err != nil {
		t.Fatalf("read group file failed: %v", err)
	}
	if len(entries) != 10 {
		t.Errorf("expected 10 sink entries, got %d", len(entries))
	}
	for i := 0; i < 10; i++ {
		entry, ok := entries[i]
		if !ok {
			t.Fatalf("sink entry for trial %d missing", i)
		}
		if entry.Inputs["trial"].Scalar() != float64(i) {
			t.Errorf("trial %d sink entry embeds wrong inputs", i)
		}
	}
}

func TestParallelWorkerFailureIsIsolatedAndReported(t *testing.T) {
	m := newTestMC(t)
	m.stub(&stubRunner{failOn: map[int]bool{1: true}})

	err := m.RunParallel(context.Background(), 9, 3)
	if err == nil {
		t.Fatal("expected aggregate error for partial failure")
	}

	// Worker 1 stops at its first trial; workers 0 and 2 finish theirs.
	_, entries, readErr := results.ReadGroupFile(m.Store().GroupPath())
	if readErr != nil {
		t.Fatalf("read group file failed: %v", readErr)
	}
	for _, i := range []int{0, 3, 6, 2, 5, 8} {
		if _, ok := entries[i]; !ok {
			t.Errorf("sibling trial %d should have completed", i)
		}
	}
	if _, ok := entries[1]; ok {
		t.Error("failing trial should not appear in the sink")
	}

	// The failing trial's inputs are durable, same as sequential mode.
	if len(m.Store().ErrorsLog()) != 1 {
		t.Errorf("expected 1 error record, got %d", len(m.Store().ErrorsLog()))
	}
}

func TestParallelEndToEnd(t *testing.T) {
	m := newTestMC(t)

	if err := m.RunParallel(context.Background(), 6, 2); err != nil {
		t.Fatalf("parallel run failed: %v", err)
	}

	_, entries, err := results.ReadGroupFile(m.Store().GroupPath())
	if err != nil {
		t.Fatalf("read group file failed: %v", err)
	}
	if len(entries) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(entries))
	}
	for i, entry := range entries {
		if entry.Outputs["apogee"].Scalar() <= 0 {
			t.Errorf("trial %d has non-positive apogee", i)
		}
	}
}

func TestProgressCallback(t *testing.T) {
	m := newTestMC(t)
	m.stub(&stubRunner{})

	var calls int
	m.SetProgress(func(done, total int) {
		calls++
		if total != 4 {
			t.Errorf("expected total 4, got %d", total)
		}
	})

	if err := m.Simulate(context.Background(), 4, false, false, 0); err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 progress calls, got %d", calls)
	}
}

func TestSimulateNegativeCount(t *testing.T) {
	m := newTestMC(t)
	if err := m.Simulate(context.Background(), -1, false, false, 0); err == nil {
		t.Error("expected error for negative count")
	}
}

func TestSimCounter(t *testing.T) {
	c := NewSimCounter()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Increment()
			}
		}()
	}
	wg.Wait()
	if c.Count() != 800 {
		t.Errorf("expected 800, got %d", c.Count())
	}
}

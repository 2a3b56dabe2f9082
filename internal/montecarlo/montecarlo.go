// Package montecarlo orchestrates dispersion analyses: it re-samples
// stochastic flight inputs, runs one deterministic trajectory simulation
// per trial, and streams every record into the durable result store.
package montecarlo

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ArthurJWH/rocketmc/internal/results"
	"github.com/ArthurJWH/rocketmc/internal/stochastic"
)

// MonteCarlo drives repeated trajectory trials against one result store.
// Sequential runs stream to the three JSON-lines logs; parallel runs go
// through the grouped sink.
type MonteCarlo struct {
	store    *results.Store
	samplers *stochastic.Set
	runner   trialRunner

	// newRunner builds an isolated runner for one parallel worker.
	newRunner func(worker int) trialRunner

	out          io.Writer
	progress     func(done, total int)
	lastPrintLen int
}

// New binds an orchestrator to <name>.{inputs,outputs,errors}.txt with the
// given providers. The export list is validated here, before any trial
// runs; nil selects the default list.
func New(name string, samplers *stochastic.Set, exportList []string) (*MonteCarlo, error) {
	store, err := results.New(name, exportList)
	if err != nil {
		return nil, err
	}

	m := &MonteCarlo{
		store:    store,
		samplers: samplers,
		runner:   NewRunner(samplers, store.ExportList()),
		out:      os.Stdout,
	}
	m.newRunner = func(worker int) trialRunner {
		return NewRunner(samplers.Derive(worker), store.ExportList())
	}
	return m, nil
}

func (m *MonteCarlo) Store() *results.Store { return m.store }

// SetProgress installs a progress callback invoked once per completed
// trial. It replaces the default in-place status line.
func (m *MonteCarlo) SetProgress(fn func(done, total int)) { m.progress = fn }

// SetOutput redirects status output, mainly for tests.
func (m *MonteCarlo) SetOutput(w io.Writer) { m.out = w }

// Simulate runs n new trials. With appendMode the records accumulate on
// the existing logs, otherwise the logs are truncated first. Parallel
// selects the worker-pool driver with the given worker count.
func (m *MonteCarlo) Simulate(ctx context.Context, n int, appendMode, parallel bool, workers int) error {
	if n < 0 {
		return fmt.Errorf("number of simulations must be non-negative, got %d", n)
	}
	if parallel {
		return m.RunParallel(ctx, n, workers)
	}
	return m.runSequential(ctx, n, appendMode)
}

// runSequential is the single-threaded driver: Idle -> Running ->
// {Completed, Aborted}. Every trial is persisted before the next one
// starts, so an abort loses at most the in-flight trial.
func (m *MonteCarlo) runSequential(ctx context.Context, n int, appendMode bool) error {
	if err := m.store.Open(appendMode); err != nil {
		return err
	}

	iteration := 0
	if appendMode {
		iteration = m.store.NumLoadedSims()
	}
	target := iteration + n

	startWall := time.Now()
	startCPU := cpuTime()
	m.reprint("Starting monte carlo analysis", "\r")

	var lastInputs map[string]results.Value

	for iteration < target {
		select {
		case <-ctx.Done():
			// Interrupted: save the most recent inputs and stop cleanly.
			m.abort(lastInputs)
			fmt.Fprintln(m.out, "Interrupted, files saved.")
			return nil
		default:
		}

		iteration++
		rec, err := m.runner.RunTrial(iteration - 1)
		lastInputs = rec.Inputs
		if err != nil {
			m.abort(lastInputs)
			return fmt.Errorf("iteration %d: %w", iteration, err)
		}

		if err := m.store.AppendInputs(rec.Inputs); err != nil {
			m.abort(nil)
			return err
		}
		if err := m.store.AppendOutputs(rec.Outputs); err != nil {
			m.abort(nil)
			return err
		}

		if m.progress != nil {
			m.progress(iteration, target)
		} else {
			avg := time.Since(startWall).Seconds() / float64(iteration)
			eta := int(float64(target-iteration) * avg)
			m.reprint(fmt.Sprintf(
				"Current iteration: %06d | Average time per iteration: %.3f s | Estimated time left: %d s",
				iteration, avg, eta), "\r")
		}
	}

	m.reprint(fmt.Sprintf(
		"Completed %d iterations. Total CPU time: %.1f s. Total wall time: %.1f s",
		iteration, (cpuTime() - startCPU).Seconds(), time.Since(startWall).Seconds()), "\n")

	// Closing and reassigning the paths reloads all three logs and
	// recomputes the aggregates.
	if err := m.store.Finalize(); err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Results saved to %s\n", m.store.OutputPath())
	return nil
}

// abort persists the most recently sampled inputs to the errors log and
// closes the files. Used for both interrupts and trial failures.
func (m *MonteCarlo) abort(lastInputs map[string]results.Value) {
	if lastInputs == nil {
		lastInputs = map[string]results.Value{}
	}
	// Best effort at this point, the primary error is already on its way up.
	_ = m.store.AppendErrors(lastInputs)
	_ = m.store.Close()
	_ = m.store.SetErrorFile(m.store.ErrorPath())
}

// reprint overwrites the previous status line in place, padding with
// spaces so a shorter message fully erases a longer one.
func (m *MonteCarlo) reprint(msg, end string) {
	if pad := m.lastPrintLen - len(msg); pad > 0 {
		msg += strings.Repeat(" ", pad)
	} else {
		m.lastPrintLen = len(msg)
	}
	fmt.Fprint(m.out, msg+end)
}

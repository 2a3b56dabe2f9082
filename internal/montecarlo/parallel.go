package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// RunParallel partitions total trial indices statically across a fixed
// worker pool: worker w owns {i : i mod workers == w}. Workers never
// contend on work assignment; the only shared state is the sink lock, the
// errors log (behind the same lock) and the progress counter. The sink
// lock is held only around the write, never across a simulation.
func (m *MonteCarlo) RunParallel(ctx context.Context, total, workers int) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > total && total > 0 {
		workers = total
	}

	sink, err := m.store.NewGroupSink()
	if err != nil {
		return err
	}
	// Trial failures are persisted to the shared errors log, same as the
	// sequential driver.
	if err := m.store.Open(true); err != nil {
		sink.Close()
		return err
	}

	fmt.Fprintf(m.out, "Starting monte carlo analysis with %d workers\n", workers)
	fmt.Fprintf(m.out, "Number of simulations: %d\n", total)

	var mu sync.Mutex
	counter := NewSimCounter()
	workerErrs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			runner := m.newRunner(w)

			for i := w; i < total; i += workers {
				select {
				case <-ctx.Done():
					workerErrs[w] = ctx.Err()
					return
				default:
				}

				rec, err := runner.RunTrial(i)
				done := counter.Increment()

				if err != nil {
					mu.Lock()
					_ = m.store.AppendErrors(rec.Inputs)
					mu.Unlock()
					workerErrs[w] = fmt.Errorf("worker %d trial %d: %w", w, i, err)
					fmt.Fprintf(m.out, "worker %d failed on trial %d: %v\n", w, i, err)
					return
				}

				mu.Lock()
				err = sink.WriteEntry(i, rec.Inputs, rec.Outputs)
				mu.Unlock()
				if err != nil {
					workerErrs[w] = fmt.Errorf("worker %d trial %d: %w", w, i, err)
					return
				}

				if m.progress != nil {
					m.progress(done, total)
				}
			}
		}(w)
	}

	wg.Wait()

	var closeErrs []error
	if err := sink.Close(); err != nil {
		closeErrs = append(closeErrs, err)
	}
	if err := m.store.Close(); err != nil {
		closeErrs = append(closeErrs, err)
	}
	if err := m.store.SetErrorFile(m.store.ErrorPath()); err != nil {
		closeErrs = append(closeErrs, err)
	}

	fmt.Fprintf(m.out, "All workers joined, %d simulations completed.\n", counter.Count())

	return errors.Join(append(workerErrs, closeErrs...)...)
}

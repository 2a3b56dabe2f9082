// Package results implements the durable side of the Monte Carlo engine:
// three append-only JSON-lines logs (inputs, outputs, errors), a grouped
// sink for parallel runs, wholesale reload, and per-field aggregation.
package results

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ArthurJWH/rocketmc/internal/stats"
)

var ErrNotOpen = errors.New("store is not open for writing")

// Estimate is the aggregated summary of one exported field.
type Estimate struct {
	Mean   float64
	StdDev float64
}

// Store owns the three ordered logs of a Monte Carlo run. Every append is a
// single self-contained JSON line, so a crash loses at most the in-flight
// line. In-memory state is rebuilt wholesale from disk through the
// Set*File path.
type Store struct {
	name       string
	exportList []string

	inputPath  string
	outputPath string
	errorPath  string

	inputsLog  []map[string]Value
	outputsLog []map[string]Value
	errorsLog  []map[string]Value

	numLoadedSims int
	results       map[string][]float64
	processed     map[string]Estimate

	inputFile  *os.File
	outputFile *os.File
	errorFile  *os.File
}

// New validates the export list and binds the store to <name>.inputs.txt,
// <name>.outputs.txt and <name>.errors.txt. Existing logs are loaded;
// a missing file means zero prior records, not a failure.
func New(name string, exportList []string) (*Store, error) {
	list, err := ResolveExportList(exportList)
	if err != nil {
		return nil, err
	}

	s := &Store{
		name:       name,
		exportList: list,
		results:    map[string][]float64{},
		processed:  map[string]Estimate{},
	}

	if err := s.ImportInputs(""); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		s.inputPath = name + ".inputs.txt"
	}
	if err := s.ImportOutputs(""); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		s.outputPath = name + ".outputs.txt"
	}
	if err := s.ImportErrors(""); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		s.errorPath = name + ".errors.txt"
	}

	return s, nil
}

func (s *Store) Name() string { return s.name }

func (s *Store) ExportList() []string {
	out := make([]string, len(s.exportList))
	copy(out, s.exportList)
	return out
}

func (s *Store) InputPath() string  { return s.inputPath }
func (s *Store) OutputPath() string { return s.outputPath }
func (s *Store) ErrorPath() string  { return s.errorPath }

func (s *Store) InputsLog() []map[string]Value  { return s.inputsLog }
func (s *Store) OutputsLog() []map[string]Value { return s.outputsLog }
func (s *Store) ErrorsLog() []map[string]Value  { return s.errorsLog }

func (s *Store) NumLoadedSims() int { return s.numLoadedSims }

// Results maps each exported field name to the ordered values observed
// across all loaded output records. Records lacking a field do not
// contribute, there is no padding.
func (s *Store) Results() map[string][]float64 { return s.results }

// ProcessedResults maps each field to its mean and population standard
// deviation over Results.
func (s *Store) ProcessedResults() map[string]Estimate { return s.processed }

// Open prepares the three log files for a run. With appendMode the files
// keep their contents and new lines are added at the end, otherwise they
// are truncated.
func (s *Store) Open(appendMode bool) error {
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	var err error
	if s.inputFile, err = os.OpenFile(s.inputPath, flags, 0644); err != nil {
		return fmt.Errorf("open inputs log: %w", err)
	}
	if s.outputFile, err = os.OpenFile(s.outputPath, flags, 0644); err != nil {
		s.Close()
		return fmt.Errorf("open outputs log: %w", err)
	}
	if s.errorFile, err = os.OpenFile(s.errorPath, flags, 0644); err != nil {
		s.Close()
		return fmt.Errorf("open errors log: %w", err)
	}
	return nil
}

// Close closes whichever log files are open. Idempotent.
func (s *Store) Close() error {
	var errs []error
	for _, f := range []**os.File{&s.inputFile, &s.outputFile, &s.errorFile} {
		if *f != nil {
			if err := (*f).Close(); err != nil {
				errs = append(errs, err)
			}
			*f = nil
		}
	}
	return errors.Join(errs...)
}

func appendLine(f *os.File, rec map[string]Value) error {
	if f == nil {
		return ErrNotOpen
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = f.Write(append(line, '\n'))
	return err
}

// AppendInputs writes one input record as a single JSON line.
func (s *Store) AppendInputs(rec map[string]Value) error {
	return appendLine(s.inputFile, rec)
}

// AppendOutputs writes one output record as a single JSON line.
func (s *Store) AppendOutputs(rec map[string]Value) error {
	return appendLine(s.outputFile, rec)
}

// AppendErrors writes one error record as a single JSON line.
func (s *Store) AppendErrors(rec map[string]Value) error {
	return appendLine(s.errorFile, rec)
}

// Finalize closes the log files and reassigns their paths, which reloads
// all three logs from disk and recomputes the aggregates.
func (s *Store) Finalize() error {
	if err := s.Close(); err != nil {
		return err
	}
	if err := s.SetInputFile(s.inputPath); err != nil {
		return err
	}
	if err := s.SetOutputFile(s.outputPath); err != nil {
		return err
	}
	return s.SetErrorFile(s.errorPath)
}

func readLog(path string) ([]map[string]Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var log []map[string]Value
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec map[string]Value
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		log = append(log, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return log, nil
}

// SetInputFile reassigns the inputs log path and reloads it wholesale.
func (s *Store) SetInputFile(path string) error {
	log, err := readLog(path)
	if err != nil {
		return err
	}
	s.inputPath = path
	s.inputsLog = log
	return nil
}

// SetOutputFile reassigns the outputs log path, reloads it wholesale, and
// recomputes NumLoadedSims, Results and ProcessedResults.
func (s *Store) SetOutputFile(path string) error {
	log, err := readLog(path)
	if err != nil {
		return err
	}
	s.outputPath = path
	s.outputsLog = log
	s.numLoadedSims = len(log)
	s.aggregate()
	return nil
}

// SetErrorFile reassigns the errors log path and reloads it wholesale.
func (s *Store) SetErrorFile(path string) error {
	log, err := readLog(path)
	if err != nil {
		return err
	}
	s.errorPath = path
	s.errorsLog = log
	return nil
}

func (s *Store) aggregate() {
	s.results = map[string][]float64{}
	for _, rec := range s.outputsLog {
		for key, v := range rec {
			if v.Kind() != KindScalar {
				continue
			}
			s.results[key] = append(s.results[key], v.Scalar())
		}
	}

	s.processed = make(map[string]Estimate, len(s.results))
	for key, values := range s.results {
		mean, sd := stats.Summary(values)
		s.processed[key] = Estimate{Mean: mean, StdDev: sd}
	}
}

func importLog(filename, fallback, suffix string, set func(string) error) error {
	filepath := filename
	if filepath == "" {
		filepath = fallback
	}

	err := set(filepath + suffix)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	// The named path may already be the full log file.
	return set(filepath)
}

// ImportInputs loads an inputs log. With an empty filename the store's own
// name is used; "<path>.inputs.txt" is tried before the raw path.
func (s *Store) ImportInputs(filename string) error {
	return importLog(filename, s.name, ".inputs.txt", s.SetInputFile)
}

// ImportOutputs loads an outputs log and recomputes the aggregates.
func (s *Store) ImportOutputs(filename string) error {
	return importLog(filename, s.name, ".outputs.txt", s.SetOutputFile)
}

// ImportErrors loads an errors log.
func (s *Store) ImportErrors(filename string) error {
	return importLog(filename, s.name, ".errors.txt", s.SetErrorFile)
}

// Import loads all three logs from the given base name.
func (s *Store) Import(filename string) error {
	if err := s.ImportOutputs(filename); err != nil {
		return err
	}
	if err := s.ImportInputs(filename); err != nil {
		return err
	}
	return s.ImportErrors(filename)
}

package results

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

var ErrMissingHeader = errors.New("group file has no header line")

// SinkHeader identifies one parallel run inside a group file.
type SinkHeader struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SinkEntry is one trial's slot in the group file: the trial index plus its
// inputs and outputs subtrees.
type SinkEntry struct {
	Index   int              `json:"index"`
	Inputs  map[string]Value `json:"inputs"`
	Outputs map[string]Value `json:"outputs"`
}

// GroupSink is the structured output sink for parallel runs: a single file
// holding a run header followed by one group per trial, keyed
// "simulation_<index>". Each group is written as one self-contained line,
// so the file stays valid if the run is killed mid-way. Writers must
// serialize access externally; the sink itself holds no lock.
type GroupSink struct {
	path   string
	file   *os.File
	header SinkHeader
}

// NewGroupSink creates (or truncates) the group file and writes the run
// header line.
func NewGroupSink(path string) (*GroupSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create group sink: %w", err)
	}

	header := SinkHeader{RunID: uuid.New().String(), CreatedAt: time.Now().UTC()}
	line, err := json.Marshal(map[string]SinkHeader{"run": header})
	if err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return nil, err
	}

	return &GroupSink{path: path, file: f, header: header}, nil
}

func (g *GroupSink) Path() string       { return g.path }
func (g *GroupSink) Header() SinkHeader { return g.header }

// WriteEntry appends one trial group. Every leaf must already be a member
// of the closed value variant; nothing else reaches the file.
func (g *GroupSink) WriteEntry(index int, inputs, outputs map[string]Value) error {
	if g.file == nil {
		return ErrNotOpen
	}

	entry := SinkEntry{Index: index, Inputs: inputs, Outputs: outputs}
	line, err := json.Marshal(map[string]SinkEntry{groupKey(index): entry})
	if err != nil {
		return err
	}
	_, err = g.file.Write(append(line, '\n'))
	return err
}

// Close closes the underlying file. Idempotent.
func (g *GroupSink) Close() error {
	if g.file == nil {
		return nil
	}
	err := g.file.Close()
	g.file = nil
	return err
}

// GroupPath is the group-file path a store's parallel runs write to.
func (s *Store) GroupPath() string { return s.name + ".groups.txt" }

// NewGroupSink opens a fresh group sink next to the store's logs.
func (s *Store) NewGroupSink() (*GroupSink, error) { return NewGroupSink(s.GroupPath()) }

func groupKey(index int) string {
	return fmt.Sprintf("simulation_%d", index)
}

// ReadGroupFile rebuilds the header and the index-keyed trial groups from a
// group file.
func ReadGroupFile(path string) (SinkHeader, map[int]SinkEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return SinkHeader{}, nil, err
	}
	defer f.Close()

	var header SinkHeader
	haveHeader := false
	entries := map[int]SinkEntry{}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if !haveHeader {
			var h map[string]SinkHeader
			if err := json.Unmarshal(line, &h); err != nil {
				return SinkHeader{}, nil, fmt.Errorf("parse header: %w", err)
			}
			run, ok := h["run"]
			if !ok {
				return SinkHeader{}, nil, ErrMissingHeader
			}
			header = run
			haveHeader = true
			continue
		}

		var group map[string]SinkEntry
		if err := json.Unmarshal(line, &group); err != nil {
			return SinkHeader{}, nil, fmt.Errorf("parse group: %w", err)
		}
		for _, entry := range group {
			entries[entry.Index] = entry
		}
	}
	if err := scanner.Err(); err != nil {
		return SinkHeader{}, nil, err
	}
	if !haveHeader {
		return SinkHeader{}, nil, ErrMissingHeader
	}

	return header, entries, nil
}

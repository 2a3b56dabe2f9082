// Package export writes stored Monte Carlo results in interchange formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/ArthurJWH/rocketmc/internal/results"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Document struct {
	Name       string                      `json:"name"`
	Trials     int                         `json:"trials"`
	ExportList []string                    `json:"export_list"`
	Results    map[string][]float64        `json:"results"`
	Processed  map[string]results.Estimate `json:"processed_results"`
}

// JSON writes the aggregated run as one indented document.
func JSON(w io.Writer, s *results.Store) error {
	doc := Document{
		Name:       s.Name(),
		Trials:     s.NumLoadedSims(),
		ExportList: s.ExportList(),
		Results:    s.Results(),
		Processed:  s.ProcessedResults(),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

// CSV writes one row per simulation with a column per aggregated field.
// Fields are sorted so the column order is stable across runs.
func CSV(w io.Writer, s *results.Store) error {
	res := s.Results()
	if len(res) == 0 {
		return fmt.Errorf("no results to export")
	}

	fields := make([]string, 0, len(res))
	for name := range res {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	cw := csv.NewWriter(w)

	header := append([]string{"simulation"}, fields...)
	if err := cw.Write(header); err != nil {
		return err
	}

	n := s.NumLoadedSims()
	for i := 0; i < n; i++ {
		row := []string{strconv.Itoa(i)}
		for _, name := range fields {
			vals := res[name]
			if i < len(vals) {
				row = append(row, strconv.FormatFloat(vals[i], 'f', 6, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

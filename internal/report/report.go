// Package report renders terminal summaries of a loaded Monte Carlo run.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/ArthurJWH/rocketmc/internal/results"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ccff"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff88"))
)

// Info writes the run summary: source files, loaded trial count and the
// mean and standard deviation of every aggregated field.
func Info(w io.Writer, s *results.Store) {
	fmt.Fprintln(w, titleStyle.Render("Monte Carlo Simulation Info"))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("output file:"), s.OutputPath())
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("loaded simulations:"), valueStyle.Render(fmt.Sprintf("%d", s.NumLoadedSims())))
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("error records:"), len(s.ErrorsLog()))
	fmt.Fprintln(w)

	processed := s.ProcessedResults()
	fields := make([]string, 0, len(processed))
	for name := range processed {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	width := 0
	for _, name := range fields {
		if len(name) > width {
			width = len(name)
		}
	}

	fmt.Fprintln(w, titleStyle.Render("Results"))
	for _, name := range fields {
		est := processed[name]
		fmt.Fprintf(w, "  %-*s  %s\n", width, name,
			valueStyle.Render(fmt.Sprintf("%12.3f ± %10.3f", est.Mean, est.StdDev)))
	}
}

// AllInfo writes the summary plus distribution histograms for apogee and
// horizontal impact distance.
func AllInfo(w io.Writer, s *results.Store) {
	Info(w, s)

	res := s.Results()
	if apogee, ok := res["apogee"]; ok && len(apogee) > 1 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("apogee distribution"))
		fmt.Fprintln(w, histogram(apogee, 30))
	}

	xs, okX := res["x_impact"]
	ys, okY := res["y_impact"]
	if okX && okY && len(xs) == len(ys) && len(xs) > 1 {
		dist := make([]float64, len(xs))
		for i := range xs {
			dist[i] = math.Hypot(xs[i], ys[i])
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("impact distance distribution"))
		fmt.Fprintln(w, histogram(dist, 30))

		fmt.Fprintln(w)
		_ = ImpactScatter(w, s)
	}
}

// histogram bins the values and plots the counts as an ascii graph.
func histogram(values []float64, bins int) string {
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		max = min + 1
	}

	counts := make([]float64, bins)
	for _, v := range values {
		bin := int(float64(bins) * (v - min) / (max - min))
		if bin >= bins {
			bin = bins - 1
		}
		counts[bin]++
	}

	return asciigraph.Plot(counts,
		asciigraph.Height(10),
		asciigraph.Width(72),
		asciigraph.Caption(fmt.Sprintf("range %.1f to %.1f, %d samples", min, max, len(values))),
	)
}

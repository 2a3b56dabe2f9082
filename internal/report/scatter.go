package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/ArthurJWH/rocketmc/internal/results"
)

const (
	scatterWidth  = 70
	scatterHeight = 20
)

// ImpactScatter draws the landing points as an ascii scatter, east on the
// x-axis and north on the y-axis, with the launch site marked at the origin.
func ImpactScatter(w io.Writer, s *results.Store) error {
	res := s.Results()
	xs, okX := res["x_impact"]
	ys, okY := res["y_impact"]
	if !okX || !okY || len(xs) == 0 || len(xs) != len(ys) {
		return fmt.Errorf("impact coordinates not available")
	}

	xMin, xMax := bounds(append([]float64{0}, xs...))
	yMin, yMax := bounds(append([]float64{0}, ys...))
	xRange := xMax - xMin
	yRange := yMax - yMin
	if xRange == 0 {
		xRange = 1
	}
	if yRange == 0 {
		yRange = 1
	}

	canvas := make([][]rune, scatterHeight)
	for i := range canvas {
		canvas[i] = make([]rune, scatterWidth)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	plot := func(x, y float64, c rune) {
		px := int(float64(scatterWidth-1) * (x - xMin) / xRange)
		py := scatterHeight - 1 - int(float64(scatterHeight-1)*(y-yMin)/yRange)
		if px >= 0 && px < scatterWidth && py >= 0 && py < scatterHeight {
			canvas[py][px] = c
		}
	}

	for i := range xs {
		plot(xs[i], ys[i], '●')
	}
	plot(0, 0, '+')

	fmt.Fprintln(w, titleStyle.Render("impact scatter (m east / m north, + launch site)"))

	fmt.Fprintf(w, "  %8.1f ┌%s┐\n", yMax, strings.Repeat("─", scatterWidth))
	for i, row := range canvas {
		if i == scatterHeight/2 {
			fmt.Fprintf(w, "  %8.1f │", (yMax+yMin)/2)
		} else {
			fmt.Fprint(w, "           │")
		}
		fmt.Fprint(w, string(row))
		fmt.Fprintln(w, "│")
	}
	fmt.Fprintf(w, "  %8.1f └%s┘\n", yMin, strings.Repeat("─", scatterWidth))
	fmt.Fprintf(w, "    %8.1f%s%8.1f\n", xMin, strings.Repeat(" ", scatterWidth-12), xMax)

	return nil
}

func bounds(vals []float64) (float64, float64) {
	min, max := vals[0], vals[0]
	for _, v := range vals {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

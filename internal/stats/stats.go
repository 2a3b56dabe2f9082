// Package stats implements the aggregate statistics used by the Monte Carlo
// engine: per-field mean and population standard deviation, and dispersion
// ellipses over 2-D scatter.
package stats

import (
	"fmt"
	"math"
)

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev is the population standard deviation.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// Summary returns mean and population standard deviation in one pass
// over the slice.
func Summary(values []float64) (mean, sd float64) {
	return Mean(values), StdDev(values)
}

// Ellipse is a dispersion ellipse fitted to a 2-D scatter, axes in the
// same units as the samples.
type Ellipse struct {
	CenterX   float64
	CenterY   float64
	SemiMajor float64
	SemiMinor float64
	Angle     float64 // radians, major axis from +x
}

// Fit computes the sigma-scaled dispersion ellipse of the given scatter
// from its sample covariance. Both slices must be non-empty and of equal
// length.
func Fit(xs, ys []float64, sigma float64) (Ellipse, error) {
	if len(xs) == 0 || len(xs) != len(ys) {
		return Ellipse{}, fmt.Errorf("scatter size mismatch: %d vs %d", len(xs), len(ys))
	}
	if sigma <= 0 {
		return Ellipse{}, fmt.Errorf("sigma must be positive, got %f", sigma)
	}

	mx, my := Mean(xs), Mean(ys)
	var sxx, syy, sxy float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	n := float64(len(xs))
	sxx, syy, sxy = sxx/n, syy/n, sxy/n

	// Closed-form eigenvalues of the 2x2 covariance matrix.
	tr := (sxx + syy) / 2
	det := math.Sqrt((sxx-syy)*(sxx-syy)/4 + sxy*sxy)
	l1 := tr + det
	l2 := tr - det
	if l2 < 0 {
		l2 = 0
	}

	return Ellipse{
		CenterX:   mx,
		CenterY:   my,
		SemiMajor: sigma * math.Sqrt(l1),
		SemiMinor: sigma * math.Sqrt(l2),
		Angle:     0.5 * math.Atan2(2*sxy, sxx-syy),
	}, nil
}

// Coordinates samples the ellipse outline as resolution (x, y) points,
// closing the polygon with a repeat of the first point.
func (e Ellipse) Coordinates(resolution int) [][2]float64 {
	if resolution < 3 {
		resolution = 3
	}
	cosA := math.Cos(e.Angle)
	sinA := math.Sin(e.Angle)

	points := make([][2]float64, 0, resolution+1)
	for i := 0; i <= resolution; i++ {
		t := 2 * math.Pi * float64(i) / float64(resolution)
		px := e.SemiMajor * math.Cos(t)
		py := e.SemiMinor * math.Sin(t)
		points = append(points, [2]float64{
			e.CenterX + px*cosA - py*sinA,
			e.CenterY + px*sinA + py*cosA,
		})
	}
	return points
}

// Package kml exports dispersion ellipses as geographic markup for map
// viewers. Ellipses are fitted in pad-relative meters and projected onto
// latitude/longitude around the launch origin.
package kml

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/ArthurJWH/rocketmc/internal/stats"
)

const metersPerDegree = 111320.0

// Options selects which ellipse families to export and how to draw them.
type Options struct {
	OriginLat  float64
	OriginLon  float64
	Type       string // "all", "impact" or "apogee"
	Resolution int
	Color      string // aabbggrr hex
}

type ring struct {
	name   string
	points [][2]float64 // lat, lon
}

// Export fits 1/2/3 sigma ellipses over the aggregated impact and apogee
// scatter and writes them as one KML document.
func Export(path string, res map[string][]float64, opts Options) error {
	switch opts.Type {
	case "all", "impact", "apogee":
	default:
		return fmt.Errorf("unknown ellipse type %q", opts.Type)
	}
	if opts.Resolution < 3 {
		opts.Resolution = 100
	}
	if len(opts.Color) != 8 {
		return fmt.Errorf("color must be 8 hex digits (aabbggrr), got %q", opts.Color)
	}

	var rings []ring
	if opts.Type == "all" || opts.Type == "impact" {
		family, err := fitFamily(res, "x_impact", "y_impact", "Impact", opts)
		if err != nil {
			return err
		}
		rings = append(rings, family...)
	}
	if opts.Type == "all" || opts.Type == "apogee" {
		family, err := fitFamily(res, "apogee_x", "apogee_y", "Apogee", opts)
		if err != nil {
			return err
		}
		rings = append(rings, family...)
	}

	return os.WriteFile(path, []byte(document(rings, opts)), 0644)
}

func fitFamily(res map[string][]float64, xKey, yKey, label string, opts Options) ([]ring, error) {
	xs, ok := res[xKey]
	if !ok {
		return nil, fmt.Errorf("results missing field %q", xKey)
	}
	ys, ok := res[yKey]
	if !ok {
		return nil, fmt.Errorf("results missing field %q", yKey)
	}

	rings := make([]ring, 0, 3)
	for sigma := 1; sigma <= 3; sigma++ {
		e, err := stats.Fit(xs, ys, float64(sigma))
		if err != nil {
			return nil, fmt.Errorf("%s ellipse: %w", strings.ToLower(label), err)
		}

		points := make([][2]float64, 0, opts.Resolution+1)
		for _, p := range e.Coordinates(opts.Resolution) {
			lat := opts.OriginLat + p[1]/metersPerDegree
			lon := opts.OriginLon + p[0]/(metersPerDegree*math.Cos(opts.OriginLat*math.Pi/180))
			points = append(points, [2]float64{lat, lon})
		}
		rings = append(rings, ring{
			name:   fmt.Sprintf("%s σ%d", label, sigma),
			points: points,
		})
	}
	return rings, nil
}

func document(rings []ring, opts Options) string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
<Document>
<name>dispersion ellipses</name>
`)

	for _, r := range rings {
		sb.WriteString("<Placemark>\n")
		fmt.Fprintf(&sb, "<name>%s</name>\n", r.name)
		fmt.Fprintf(&sb, `<Style>
<LineStyle><color>%s</color><width>3</width></LineStyle>
<PolyStyle><color>64ff0000</color></PolyStyle>
</Style>
`, opts.Color)
		sb.WriteString("<Polygon>\n<tessellate>1</tessellate>\n<outerBoundaryIs>\n<LinearRing>\n<coordinates>\n")
		for _, p := range r.points {
			// KML wants lon,lat,alt.
			fmt.Fprintf(&sb, "%.9f,%.9f,0\n", p[1], p[0])
		}
		sb.WriteString("</coordinates>\n</LinearRing>\n</outerBoundaryIs>\n</Polygon>\n</Placemark>\n")
	}

	sb.WriteString("</Document>\n</kml>\n")
	return sb.String()
}

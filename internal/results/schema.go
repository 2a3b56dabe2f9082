package results

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ArthurJWH/rocketmc/internal/flight"
)

// ErrNotExportable is returned at construction time when a requested export
// field is not in the declared schema.
var ErrNotExportable = errors.New("field can not be exported")

// Extractor pulls one named scalar out of a completed flight result.
type Extractor func(*flight.Result) float64

// exportables is the declared export schema: the serialized shape of an
// output record is exactly a subset of these keys. Runtime introspection of
// the result object is deliberately avoided.
var exportables = map[string]Extractor{
	"apogee":                    func(r *flight.Result) float64 { return r.Apogee },
	"apogee_time":               func(r *flight.Result) float64 { return r.ApogeeTime },
	"apogee_x":                  func(r *flight.Result) float64 { return r.ApogeeX },
	"apogee_y":                  func(r *flight.Result) float64 { return r.ApogeeY },
	"apogee_freestream_speed":   func(r *flight.Result) float64 { return r.ApogeeFreestreamSpeed },
	"t_final":                   func(r *flight.Result) float64 { return r.TFinal },
	"x_impact":                  func(r *flight.Result) float64 { return r.XImpact },
	"y_impact":                  func(r *flight.Result) float64 { return r.YImpact },
	"z_impact":                  func(r *flight.Result) float64 { return r.ZImpact },
	"impact_velocity":           func(r *flight.Result) float64 { return r.ImpactVelocity },
	"out_of_rail_time":          func(r *flight.Result) float64 { return r.OutOfRailTime },
	"out_of_rail_velocity":      func(r *flight.Result) float64 { return r.OutOfRailVelocity },
	"max_speed":                 func(r *flight.Result) float64 { return r.MaxSpeed },
	"max_speed_time":            func(r *flight.Result) float64 { return r.MaxSpeedTime },
	"max_acceleration":          func(r *flight.Result) float64 { return r.MaxAcceleration },
	"max_acceleration_time":     func(r *flight.Result) float64 { return r.MaxAccelerationTime },
	"max_mach_number":           func(r *flight.Result) float64 { return r.MaxMachNumber },
	"max_mach_number_time":      func(r *flight.Result) float64 { return r.MaxMachNumberTime },
	"max_dynamic_pressure":      func(r *flight.Result) float64 { return r.MaxDynamicPressure },
	"max_dynamic_pressure_time": func(r *flight.Result) float64 { return r.MaxDynamicPressureTime },
	"frontal_surface_wind":      func(r *flight.Result) float64 { return r.FrontalSurfaceWind },
	"lateral_surface_wind":      func(r *flight.Result) float64 { return r.LateralSurfaceWind },
	"inclination":               func(r *flight.Result) float64 { return r.Inclination },
	"heading":                   func(r *flight.Result) float64 { return r.Heading },
}

// DefaultExportList is used when the caller does not restrict the exported
// fields.
var DefaultExportList = []string{
	"apogee",
	"apogee_time",
	"apogee_x",
	"apogee_y",
	"t_final",
	"x_impact",
	"y_impact",
	"impact_velocity",
	"out_of_rail_time",
	"out_of_rail_velocity",
	"max_mach_number",
	"frontal_surface_wind",
	"lateral_surface_wind",
}

// Exportables lists every field the schema can export, sorted.
func Exportables() []string {
	names := make([]string, 0, len(exportables))
	for name := range exportables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveExportList validates the requested export fields against the
// schema. A nil or empty request resolves to DefaultExportList. Validation
// failures surface before any trial runs.
func ResolveExportList(requested []string) ([]string, error) {
	if len(requested) == 0 {
		out := make([]string, len(DefaultExportList))
		copy(out, DefaultExportList)
		return out, nil
	}

	seen := make(map[string]bool, len(requested))
	out := make([]string, 0, len(requested))
	for _, name := range requested {
		if _, ok := exportables[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotExportable, name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Extract builds an output record holding exactly the listed fields.
func Extract(r *flight.Result, list []string) map[string]Value {
	rec := make(map[string]Value, len(list))
	for _, name := range list {
		if fn, ok := exportables[name]; ok {
			rec[name] = Scalar(fn(r))
		}
	}
	return rec
}

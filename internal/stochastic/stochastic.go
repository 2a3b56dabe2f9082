// Package stochastic provides the randomized parameter providers driven by
// the Monte Carlo engine. Each provider draws a fresh parameter set per
// trial, builds the matching domain object, and remembers the named values
// of its most recent draw.
package stochastic

import (
	"math/rand"

	"github.com/ArthurJWH/rocketmc/internal/flight"
)

// Gaussian is a normally distributed parameter. A zero StdDev pins the
// parameter to its mean.
type Gaussian struct {
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"std_dev"`
}

func (g Gaussian) Sample(r *rand.Rand) float64 {
	if g.StdDev == 0 {
		return g.Mean
	}
	return g.Mean + g.StdDev*r.NormFloat64()
}

// EnvironmentParams holds the site constants and wind uncertainties.
type EnvironmentParams struct {
	Gravity     float64  `yaml:"gravity"`
	AirDensity  float64  `yaml:"air_density"`
	ScaleHeight float64  `yaml:"scale_height"`
	Latitude    float64  `yaml:"latitude"`
	Longitude   float64  `yaml:"longitude"`
	Elevation   float64  `yaml:"elevation"`
	WindEast    Gaussian `yaml:"wind_east"`
	WindNorth   Gaussian `yaml:"wind_north"`
}

// RocketParams holds the vehicle uncertainties.
type RocketParams struct {
	DryMass        Gaussian `yaml:"dry_mass"`
	PropellantMass Gaussian `yaml:"propellant_mass"`
	Thrust         Gaussian `yaml:"thrust"`
	BurnTime       Gaussian `yaml:"burn_time"`
	DragCoeff      Gaussian `yaml:"drag_coeff"`
	Radius         Gaussian `yaml:"radius"`
	ParachuteCdA   Gaussian `yaml:"parachute_cda"`
}

// FlightParams holds the launch geometry uncertainties and the fixed
// flight configuration.
type FlightParams struct {
	RailLength        Gaussian  `yaml:"rail_length"`
	Inclination       Gaussian  `yaml:"inclination"`
	Heading           Gaussian  `yaml:"heading"`
	TerminateOnApogee bool      `yaml:"terminate_on_apogee"`
	InitialSolution   []float64 `yaml:"initial_solution"`
}

// Environment samples wind conditions around the nominal site.
type Environment struct {
	params EnvironmentParams
	rng    *rand.Rand
	last   map[string]float64
}

func NewEnvironment(params EnvironmentParams, seed int64) *Environment {
	return &Environment{
		params: params,
		rng:    rand.New(rand.NewSource(seed)),
		last:   map[string]float64{},
	}
}

// CreateObject draws fresh wind values and returns the concrete environment.
func (e *Environment) CreateObject() flight.Environment {
	windEast := e.params.WindEast.Sample(e.rng)
	windNorth := e.params.WindNorth.Sample(e.rng)
	e.last = map[string]float64{
		"wind_east":  windEast,
		"wind_north": windNorth,
	}
	return flight.Environment{
		Gravity:     e.params.Gravity,
		AirDensity:  e.params.AirDensity,
		ScaleHeight: e.params.ScaleHeight,
		Latitude:    e.params.Latitude,
		Longitude:   e.params.Longitude,
		Elevation:   e.params.Elevation,
		WindEast:    windEast,
		WindNorth:   windNorth,
	}
}

// LastDraw returns the named values of the most recent draw.
func (e *Environment) LastDraw() map[string]float64 { return e.last }

// Rocket samples vehicle parameters around the nominal rocket.
type Rocket struct {
	params RocketParams
	rng    *rand.Rand
	last   map[string]float64
}

func NewRocket(params RocketParams, seed int64) *Rocket {
	return &Rocket{
		params: params,
		rng:    rand.New(rand.NewSource(seed)),
		last:   map[string]float64{},
	}
}

func (r *Rocket) CreateObject() flight.Rocket {
	draw := map[string]float64{
		"dry_mass":        r.params.DryMass.Sample(r.rng),
		"propellant_mass": r.params.PropellantMass.Sample(r.rng),
		"thrust":          r.params.Thrust.Sample(r.rng),
		"burn_time":       r.params.BurnTime.Sample(r.rng),
		"drag_coeff":      r.params.DragCoeff.Sample(r.rng),
		"radius":          r.params.Radius.Sample(r.rng),
		"parachute_cda":   r.params.ParachuteCdA.Sample(r.rng),
	}
	r.last = draw
	return flight.Rocket{
		DryMass:        draw["dry_mass"],
		PropellantMass: draw["propellant_mass"],
		Thrust:         draw["thrust"],
		BurnTime:       draw["burn_time"],
		DragCoeff:      draw["drag_coeff"],
		Radius:         draw["radius"],
		ParachuteCdA:   draw["parachute_cda"],
	}
}

func (r *Rocket) LastDraw() map[string]float64 { return r.last }

// Flight samples the launch geometry. Rail length, inclination and heading
// are drawn independently through their accessors; LastDraw reflects
// whichever values were drawn since the previous trial.
type Flight struct {
	params FlightParams
	rng    *rand.Rand
	last   map[string]float64
}

func NewFlight(params FlightParams, seed int64) *Flight {
	return &Flight{
		params: params,
		rng:    rand.New(rand.NewSource(seed)),
		last:   map[string]float64{},
	}
}

func (f *Flight) RailLength() float64 {
	v := f.params.RailLength.Sample(f.rng)
	f.last["rail_length"] = v
	return v
}

func (f *Flight) Inclination() float64 {
	v := f.params.Inclination.Sample(f.rng)
	f.last["inclination"] = v
	return v
}

func (f *Flight) Heading() float64 {
	v := f.params.Heading.Sample(f.rng)
	f.last["heading"] = v
	return v
}

func (f *Flight) TerminateOnApogee() bool      { return f.params.TerminateOnApogee }
func (f *Flight) InitialSolution() []float64   { return f.params.InitialSolution }
func (f *Flight) LastDraw() map[string]float64 { return f.last }

// BeginTrial resets the draw record for the next trial.
func (f *Flight) BeginTrial() { f.last = map[string]float64{} }

// Set bundles the three providers a trial needs. Providers are not safe for
// concurrent use; each worker gets its own Set via Derive.
type Set struct {
	Environment *Environment
	Rocket      *Rocket
	Flight      *Flight

	envParams EnvironmentParams
	rktParams RocketParams
	fltParams FlightParams
	seed      int64
}

func NewSet(env EnvironmentParams, rkt RocketParams, flt FlightParams, seed int64) *Set {
	return &Set{
		Environment: NewEnvironment(env, seed),
		Rocket:      NewRocket(rkt, seed+1),
		Flight:      NewFlight(flt, seed+2),
		envParams:   env,
		rktParams:   rkt,
		fltParams:   flt,
		seed:        seed,
	}
}

// Derive builds an independent Set for one worker. Offsets are spaced so
// derived sets never share a source seed with each other or the base set.
func (s *Set) Derive(worker int) *Set {
	return NewSet(s.envParams, s.rktParams, s.fltParams, s.seed+int64(worker+1)*1000)
}

// LastDraw merges the most recent draws of all three providers into one
// input record.
func (s *Set) LastDraw() map[string]float64 {
	merged := make(map[string]float64)
	for _, m := range []map[string]float64{
		s.Environment.LastDraw(),
		s.Rocket.LastDraw(),
		s.Flight.LastDraw(),
	} {
		for k, v := range m {
			merged[k] = v
		}
	}
	return merged
}

package montecarlo

import (
	"github.com/ArthurJWH/rocketmc/internal/flight"
	"github.com/ArthurJWH/rocketmc/internal/results"
	"github.com/ArthurJWH/rocketmc/internal/stochastic"
)

// Record is the unit of persistence: one trial's sampled inputs and
// extracted outputs plus the trial index.
type Record struct {
	Index   int
	Inputs  map[string]results.Value
	Outputs map[string]results.Value
}

type trialRunner interface {
	RunTrial(index int) (Record, error)
}

// Runner executes one trial: it draws a fresh parameter set from its
// providers, runs the trajectory simulation, and extracts the export
// fields. It never touches shared storage; simulation errors propagate
// unmodified with the sampled inputs attached to the returned record.
type Runner struct {
	samplers   *stochastic.Set
	exportList []string
}

func NewRunner(samplers *stochastic.Set, exportList []string) *Runner {
	return &Runner{samplers: samplers, exportList: exportList}
}

func (r *Runner) RunTrial(index int) (Record, error) {
	r.samplers.Flight.BeginTrial()

	env := r.samplers.Environment.CreateObject()
	rocket := r.samplers.Rocket.CreateObject()
	opts := flight.Options{
		RailLength:        r.samplers.Flight.RailLength(),
		Inclination:       r.samplers.Flight.Inclination(),
		Heading:           r.samplers.Flight.Heading(),
		TerminateOnApogee: r.samplers.Flight.TerminateOnApogee(),
		InitialSolution:   r.samplers.Flight.InitialSolution(),
	}

	rec := Record{
		Index:  index,
		Inputs: results.ScalarMap(r.samplers.LastDraw()),
	}

	res, err := flight.Simulate(rocket, env, opts)
	if err != nil {
		return rec, err
	}

	rec.Outputs = results.Extract(res, r.exportList)
	return rec, nil
}

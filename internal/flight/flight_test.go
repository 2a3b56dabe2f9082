package flight

import (
	"math"
	"testing"
)

func testEnvironment() Environment {
	return Environment{
		Gravity:     9.81,
		AirDensity:  1.225,
		ScaleHeight: 8500,
		Latitude:    32.99,
		Longitude:   -106.97,
		Elevation:   1400,
	}
}

func testRocket() Rocket {
	return Rocket{
		DryMass:        14.4,
		PropellantMass: 5.0,
		Thrust:         2200,
		BurnTime:       3.9,
		DragCoeff:      0.45,
		Radius:         0.0635,
		ParachuteCdA:   4.0,
	}
}

func testOptions() Options {
	return Options{
		RailLength:  5.2,
		Inclination: 84.7,
		Heading:     53.0,
	}
}

func TestSimulateFullFlight(t *testing.T) {
	res, err := Simulate(testRocket(), testEnvironment(), testOptions())
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}

	if res.Apogee <= testEnvironment().Elevation {
		t.Errorf("apogee %.1f should exceed pad elevation", res.Apogee)
	}
	if res.ApogeeTime <= 0 || res.TFinal <= res.ApogeeTime {
		t.Errorf("bad timeline: apogee %.2f, t_final %.2f", res.ApogeeTime, res.TFinal)
	}
	if res.OutOfRailTime <= 0 || res.OutOfRailVelocity <= 0 {
		t.Errorf("rail exit not recorded: t=%.3f v=%.3f", res.OutOfRailTime, res.OutOfRailVelocity)
	}
	if res.MaxSpeed < res.OutOfRailVelocity {
		t.Errorf("max speed %.2f below rail exit speed %.2f", res.MaxSpeed, res.OutOfRailVelocity)
	}
	if res.ImpactVelocity <= 0 {
		t.Error("impact velocity should be positive under parachute")
	}
}

func TestSimulateDeterministic(t *testing.T) {
	a, err := Simulate(testRocket(), testEnvironment(), testOptions())
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	b, err := Simulate(testRocket(), testEnvironment(), testOptions())
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	if *a != *b {
		t.Error("identical inputs should produce identical results")
	}
}

func TestSimulateTerminateOnApogee(t *testing.T) {
	opts := testOptions()
	opts.TerminateOnApogee = true

	res, err := Simulate(testRocket(), testEnvironment(), opts)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}

	if res.TFinal != res.ApogeeTime {
		t.Errorf("expected t_final == apogee_time, got %.2f vs %.2f", res.TFinal, res.ApogeeTime)
	}
	if res.ImpactVelocity != 0 {
		t.Errorf("expected zero impact velocity at apogee, got %.2f", res.ImpactVelocity)
	}
}

func TestSimulateWindDrift(t *testing.T) {
	env := testEnvironment()
	env.WindEast = 8.0

	res, err := Simulate(testRocket(), env, testOptions())
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}

	calm, err := Simulate(testRocket(), testEnvironment(), testOptions())
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}

	if res.XImpact <= calm.XImpact {
		t.Errorf("east wind should push impact east: %.1f vs %.1f", res.XImpact, calm.XImpact)
	}
	if res.FrontalSurfaceWind == 0 && res.LateralSurfaceWind == 0 {
		t.Error("surface wind components not recorded")
	}
}

func TestSimulateInvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		rocket Rocket
		opts   Options
	}{
		{"zero rail", testRocket(), Options{RailLength: 0, Inclination: 84, Heading: 0}},
		{"negative rail", testRocket(), Options{RailLength: -1, Inclination: 84, Heading: 0}},
		{"zero mass", Rocket{}, testOptions()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Simulate(tt.rocket, testEnvironment(), tt.opts); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestAirDensityDecays(t *testing.T) {
	env := testEnvironment()
	if airDensity(env, 0) != env.AirDensity {
		t.Error("sea level density should equal reference density")
	}
	if airDensity(env, 8500) >= airDensity(env, 0) {
		t.Error("density should decay with altitude")
	}
	ratio := airDensity(env, 8500) / airDensity(env, 0)
	if math.Abs(ratio-1/math.E) > 1e-9 {
		t.Errorf("one scale height should give 1/e, got %f", ratio)
	}
}

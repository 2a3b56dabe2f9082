package flight

import (
	"errors"
	"fmt"
	"math"
)

var ErrDiverged = errors.New("flight state diverged (NaN)")

const (
	speedOfSound = 340.29
	deg2rad      = math.Pi / 180.0
)

// Environment holds the atmospheric and site conditions for one flight.
type Environment struct {
	Gravity        float64 // m/s^2
	AirDensity     float64 // sea level, kg/m^3
	ScaleHeight    float64 // m, exponential atmosphere
	WindEast       float64 // m/s
	WindNorth      float64 // m/s
	Latitude       float64 // deg
	Longitude      float64 // deg
	Elevation      float64 // m above sea level
}

// Rocket holds the vehicle parameters for one flight.
type Rocket struct {
	DryMass        float64 // kg
	PropellantMass float64 // kg
	Thrust         float64 // N, constant while burning
	BurnTime       float64 // s
	DragCoeff      float64
	Radius         float64 // m, reference radius
	ParachuteCdA   float64 // m^2, 0 disables the parachute
}

// Options selects the launch geometry and termination behavior.
type Options struct {
	RailLength        float64 // m
	Inclination       float64 // deg from horizontal
	Heading           float64 // deg, compass
	TerminateOnApogee bool
	InitialSolution   []float64 // optional [x y z vx vy vz]
	MaxTime           float64   // s, 0 means default
	TimeStep          float64   // s, 0 means default
}

// Result carries the post-processed scalar outputs of one simulated flight.
type Result struct {
	Apogee                 float64
	ApogeeTime             float64
	ApogeeX                float64
	ApogeeY                float64
	ApogeeFreestreamSpeed  float64
	TFinal                 float64
	XImpact                float64
	YImpact                float64
	ZImpact                float64
	ImpactVelocity         float64
	OutOfRailTime          float64
	OutOfRailVelocity      float64
	MaxSpeed               float64
	MaxSpeedTime           float64
	MaxAcceleration        float64
	MaxAccelerationTime    float64
	MaxMachNumber          float64
	MaxMachNumberTime      float64
	MaxDynamicPressure     float64
	MaxDynamicPressureTime float64
	FrontalSurfaceWind     float64
	LateralSurfaceWind     float64
	Inclination            float64
	Heading                float64
}

func airDensity(env Environment, altitude float64) float64 {
	if altitude < 0 {
		altitude = 0
	}
	return env.AirDensity * math.Exp(-altitude/env.ScaleHeight)
}

// Simulate integrates a point-mass trajectory from rail exit to impact
// (or apogee, when opts.TerminateOnApogee is set) and returns the
// post-processed result. The caller owns all inputs; nothing is mutated.
func Simulate(rocket Rocket, env Environment, opts Options) (*Result, error) {
	if opts.RailLength <= 0 {
		return nil, fmt.Errorf("rail length must be positive, got %f", opts.RailLength)
	}
	dt := opts.TimeStep
	if dt <= 0 {
		dt = 0.01
	}
	maxTime := opts.MaxTime
	if maxTime <= 0 {
		maxTime = 600
	}
	if rocket.DryMass <= 0 {
		return nil, fmt.Errorf("dry mass must be positive, got %f", rocket.DryMass)
	}

	elev := opts.Inclination * deg2rad
	head := opts.Heading * deg2rad
	dirX := math.Sin(head) * math.Cos(elev)
	dirY := math.Cos(head) * math.Cos(elev)
	dirZ := math.Sin(elev)

	// State: position east/north/up relative to the pad, velocity.
	x, y, z := 0.0, 0.0, 0.0
	vx, vy, vz := 0.0, 0.0, 0.0
	if len(opts.InitialSolution) == 6 {
		x, y, z = opts.InitialSolution[0], opts.InitialSolution[1], opts.InitialSolution[2]
		vx, vy, vz = opts.InitialSolution[3], opts.InitialSolution[4], opts.InitialSolution[5]
	}

	area := math.Pi * rocket.Radius * rocket.Radius
	res := &Result{
		Inclination: opts.Inclination,
		Heading:     opts.Heading,
	}

	// Surface wind decomposed along and across the launch azimuth.
	res.FrontalSurfaceWind = env.WindEast*math.Sin(head) + env.WindNorth*math.Cos(head)
	res.LateralSurfaceWind = -env.WindEast*math.Cos(head) + env.WindNorth*math.Sin(head)

	propellant := rocket.PropellantMass
	burnRate := 0.0
	if rocket.BurnTime > 0 {
		burnRate = rocket.PropellantMass / rocket.BurnTime
	}

	onRail := true
	ascending := true
	t := 0.0

	for t < maxTime {
		mass := rocket.DryMass + propellant
		rho := airDensity(env, z+env.Elevation)

		// Velocity relative to the air.
		rvx := vx - env.WindEast
		rvy := vy - env.WindNorth
		rvz := vz
		if onRail {
			// The rail suppresses the wind's lateral influence.
			rvx, rvy, rvz = vx, vy, vz
		}
		relSpeed := math.Sqrt(rvx*rvx + rvy*rvy + rvz*rvz)

		cdA := rocket.DragCoeff * area
		if !ascending && rocket.ParachuteCdA > 0 {
			cdA = rocket.ParachuteCdA
		}
		dragMag := 0.5 * rho * cdA * relSpeed * relSpeed

		thrust := 0.0
		if t < rocket.BurnTime {
			thrust = rocket.Thrust
		}

		var ax, ay, az float64
		if onRail {
			// Motion constrained along the rail direction.
			along := thrust - dragMag - mass*env.Gravity*dirZ
			accel := along / mass
			if accel < 0 {
				accel = 0
			}
			ax, ay, az = accel*dirX, accel*dirY, accel*dirZ
		} else {
			ax, ay, az = 0, 0, -env.Gravity
			if relSpeed > 0 {
				ax -= dragMag / mass * rvx / relSpeed
				ay -= dragMag / mass * rvy / relSpeed
				az -= dragMag / mass * rvz / relSpeed
			}
			if thrust > 0 {
				speed := math.Sqrt(vx*vx + vy*vy + vz*vz)
				if speed > 0 {
					// Thrust follows the velocity vector after rail exit.
					ax += thrust / mass * vx / speed
					ay += thrust / mass * vy / speed
					az += thrust / mass * vz / speed
				} else {
					ax += thrust / mass * dirX
					ay += thrust / mass * dirY
					az += thrust / mass * dirZ
				}
			}
		}

		vx += ax * dt
		vy += ay * dt
		vz += az * dt
		x += vx * dt
		y += vy * dt
		z += vz * dt
		t += dt

		if thrust > 0 {
			propellant = math.Max(0, propellant-burnRate*dt)
		}

		if math.IsNaN(x) || math.IsNaN(z) || math.IsNaN(vz) {
			return nil, fmt.Errorf("%w at t=%.3f", ErrDiverged, t)
		}

		speed := math.Sqrt(vx*vx + vy*vy + vz*vz)
		accelMag := math.Sqrt(ax*ax + ay*ay + az*az)
		mach := speed / speedOfSound
		q := 0.5 * rho * relSpeed * relSpeed

		if speed > res.MaxSpeed {
			res.MaxSpeed, res.MaxSpeedTime = speed, t
		}
		if accelMag > res.MaxAcceleration {
			res.MaxAcceleration, res.MaxAccelerationTime = accelMag, t
		}
		if mach > res.MaxMachNumber {
			res.MaxMachNumber, res.MaxMachNumberTime = mach, t
		}
		if q > res.MaxDynamicPressure {
			res.MaxDynamicPressure, res.MaxDynamicPressureTime = q, t
		}

		if onRail && math.Sqrt(x*x+y*y+z*z) >= opts.RailLength {
			onRail = false
			res.OutOfRailTime = t
			res.OutOfRailVelocity = speed
		}

		if ascending && vz <= 0 && !onRail {
			ascending = false
			res.Apogee = z + env.Elevation
			res.ApogeeTime = t
			res.ApogeeX = x
			res.ApogeeY = y
			res.ApogeeFreestreamSpeed = relSpeed
			if opts.TerminateOnApogee {
				res.TFinal = t
				res.XImpact = x
				res.YImpact = y
				res.ZImpact = z + env.Elevation
				res.ImpactVelocity = 0
				return res, nil
			}
		}

		if !ascending && z <= 0 {
			res.TFinal = t
			res.XImpact = x
			res.YImpact = y
			res.ZImpact = env.Elevation
			res.ImpactVelocity = speed
			return res, nil
		}
	}

	return nil, fmt.Errorf("flight did not terminate within %.0f s", maxTime)
}

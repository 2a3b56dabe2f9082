package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ArthurJWH/rocketmc/internal/stochastic"
)

const (
	DefaultTrials     = 100
	DefaultResolution = 100
	DefaultColor      = "ff0000ff"
)

// Config is one mission file: the nominal vehicle and site with their
// uncertainties, plus run and export settings.
type Config struct {
	Name       string   `yaml:"name"`
	Seed       int64    `yaml:"seed"`
	Trials     int      `yaml:"trials"`
	Workers    int      `yaml:"workers"`
	ExportList []string `yaml:"export_list"`

	Environment stochastic.EnvironmentParams `yaml:"environment"`
	Rocket      stochastic.RocketParams      `yaml:"rocket"`
	Flight      stochastic.FlightParams      `yaml:"flight"`

	KML KMLConfig `yaml:"kml"`
}

// KMLConfig holds the geospatial export settings.
type KMLConfig struct {
	OriginLat  float64 `yaml:"origin_lat"`
	OriginLon  float64 `yaml:"origin_lon"`
	Type       string  `yaml:"type"`
	Resolution int     `yaml:"resolution"`
	Color      string  `yaml:"color"`
}

func Default() *Config {
	return &Config{
		Name:   "dispersion",
		Seed:   1,
		Trials: DefaultTrials,
		Environment: stochastic.EnvironmentParams{
			Gravity:     9.80665,
			AirDensity:  1.225,
			ScaleHeight: 8500,
			Latitude:    32.990254,
			Longitude:   -106.974998,
			Elevation:   1400,
			WindEast:    stochastic.Gaussian{Mean: 2, StdDev: 1.5},
			WindNorth:   stochastic.Gaussian{Mean: -1, StdDev: 1.5},
		},
		Rocket: stochastic.RocketParams{
			DryMass:        stochastic.Gaussian{Mean: 14.426, StdDev: 0.5},
			PropellantMass: stochastic.Gaussian{Mean: 5.0, StdDev: 0.05},
			Thrust:         stochastic.Gaussian{Mean: 2200, StdDev: 100},
			BurnTime:       stochastic.Gaussian{Mean: 3.9},
			DragCoeff:      stochastic.Gaussian{Mean: 0.44, StdDev: 0.02},
			Radius:         stochastic.Gaussian{Mean: 0.0635},
			ParachuteCdA:   stochastic.Gaussian{Mean: 4.0, StdDev: 0.2},
		},
		Flight: stochastic.FlightParams{
			RailLength:  stochastic.Gaussian{Mean: 5.2},
			Inclination: stochastic.Gaussian{Mean: 84.7, StdDev: 1},
			Heading:     stochastic.Gaussian{Mean: 53, StdDev: 2},
		},
		KML: KMLConfig{
			OriginLat:  32.990254,
			OriginLon:  -106.974998,
			Type:       "all",
			Resolution: DefaultResolution,
			Color:      DefaultColor,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if c.Trials < 0 {
		return fmt.Errorf("trials must be non-negative, got %d", c.Trials)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	switch c.KML.Type {
	case "all", "impact", "apogee":
	default:
		return fmt.Errorf("kml type must be all, impact or apogee, got %q", c.KML.Type)
	}
	if c.KML.Resolution < 3 {
		return fmt.Errorf("kml resolution must be at least 3, got %d", c.KML.Resolution)
	}
	return nil
}

// Samplers builds the provider set described by the mission file.
func (c *Config) Samplers() *stochastic.Set {
	return stochastic.NewSet(c.Environment, c.Rocket, c.Flight, c.Seed)
}

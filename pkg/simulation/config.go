package simulation

import (
	"fmt"
	"math"

	"github.com/df07/go-acoustic-raytracer/pkg/integrator"
	"github.com/df07/go-acoustic-raytracer/pkg/material"
)

// TraceConfig contains every parameter of a simulation run
type TraceConfig struct {
	RayLength          float64                   `json:"rayLength"`      // Maximum distance searched per bounce
	NumberOfRays       int                       `json:"numberOfRays"`   // Paths emitted per source/receiver pair
	MaxReflections     int                       `json:"maxReflections"` // Bounce budget per path
	SpeedOfSound       float64                   `json:"speedOfSound"`   // Metres per second
	InitialEnergy      float64                   `json:"initialEnergy"`
	EnergyFloor        float64                   `json:"energyFloor"`
	AbsorptionPolicy   material.AbsorptionPolicy `json:"absorptionPolicy"`
	EnergyModel        material.EnergyModel      `json:"energyModel"`
	FurnishedThreshold float64                   `json:"furnishedThreshold"`
	TreatedThreshold   float64                   `json:"treatedThreshold"`
	ClassifyRooms      bool                      `json:"classifyRooms"` // When false every pair is traced with an empty label
	Seed               int64                     `json:"seed"`
	NumWorkers         int                       `json:"numWorkers"` // 0 = use CPU count
	BatchSize          int                       `json:"batchSize"`  // Rays per worker task
}

// DefaultTraceConfig returns the standard simulation parameters
func DefaultTraceConfig() TraceConfig {
	return TraceConfig{
		RayLength:          50,
		NumberOfRays:       50,
		MaxReflections:     5,
		SpeedOfSound:       343,
		InitialEnergy:      1,
		EnergyFloor:        0.01,
		AbsorptionPolicy:   material.SingleBand,
		EnergyModel:        material.Exponential,
		FurnishedThreshold: 10,
		TreatedThreshold:   5,
		ClassifyRooms:      true,
		Seed:               42,
		NumWorkers:         0,
		BatchSize:          16,
	}
}

// ConfigurationError reports an invalid parameter found before tracing starts
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configError(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks the configuration and returns a *ConfigurationError for the first problem found
func (c TraceConfig) Validate() error {
	switch {
	case !finite(c.RayLength) || c.RayLength <= 0:
		return configError("rayLength", "must be a positive number, got %v", c.RayLength)
	case c.NumberOfRays <= 0:
		return configError("numberOfRays", "must be greater than zero, got %d", c.NumberOfRays)
	case c.MaxReflections <= 0:
		return configError("maxReflections", "must be greater than zero, got %d", c.MaxReflections)
	case !finite(c.SpeedOfSound) || c.SpeedOfSound <= 0:
		return configError("speedOfSound", "must be a positive number, got %v", c.SpeedOfSound)
	case !finite(c.InitialEnergy) || c.InitialEnergy <= 0:
		return configError("initialEnergy", "must be a positive number, got %v", c.InitialEnergy)
	case !finite(c.EnergyFloor) || c.EnergyFloor < 0:
		return configError("energyFloor", "must be zero or positive, got %v", c.EnergyFloor)
	case c.AbsorptionPolicy < material.SingleBand || c.AbsorptionPolicy > material.SixOctaveRandom:
		return configError("absorptionPolicy", "unknown policy %d", int(c.AbsorptionPolicy))
	case c.EnergyModel != material.Exponential && c.EnergyModel != material.Linear:
		return configError("energyModel", "unknown model %d", int(c.EnergyModel))
	case !finite(c.FurnishedThreshold):
		return configError("furnishedThreshold", "must be finite")
	case !finite(c.TreatedThreshold):
		return configError("treatedThreshold", "must be finite")
	case c.NumWorkers < 0:
		return configError("numWorkers", "must not be negative, got %d", c.NumWorkers)
	case c.BatchSize < 0:
		return configError("batchSize", "must not be negative, got %d", c.BatchSize)
	}
	return nil
}

// IntegratorConfig extracts the per-path parameters
func (c TraceConfig) IntegratorConfig() integrator.Config {
	return integrator.Config{
		RayLength:      c.RayLength,
		MaxReflections: c.MaxReflections,
		SpeedOfSound:   c.SpeedOfSound,
		InitialEnergy:  c.InitialEnergy,
		EnergyFloor:    c.EnergyFloor,
		Absorption:     c.AbsorptionPolicy,
		Energy:         c.EnergyModel,
	}
}

// Thresholds returns the room classification thresholds
func (c TraceConfig) Thresholds() RoomThresholds {
	return RoomThresholds{Furnished: c.FurnishedThreshold, Treated: c.TreatedThreshold}
}

package simulation

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-acoustic-raytracer/pkg/material"
)

func TestDefaultTraceConfig(t *testing.T) {
	cfg := DefaultTraceConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if cfg.RayLength != 50 || cfg.NumberOfRays != 50 || cfg.MaxReflections != 5 {
		t.Errorf("Unexpected ray defaults: %+v", cfg)
	}
	if cfg.SpeedOfSound != 343 || cfg.InitialEnergy != 1 || cfg.EnergyFloor != 0.01 {
		t.Errorf("Unexpected physical defaults: %+v", cfg)
	}
	if cfg.FurnishedThreshold != 10 || cfg.TreatedThreshold != 5 {
		t.Errorf("Unexpected threshold defaults: %+v", cfg)
	}
	if cfg.EnergyModel != material.Exponential || cfg.AbsorptionPolicy != material.SingleBand {
		t.Errorf("Unexpected model defaults: %+v", cfg)
	}
}

func TestTraceConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*TraceConfig)
		field  string
	}{
		{"Zero rays", func(c *TraceConfig) { c.NumberOfRays = 0 }, "numberOfRays"},
		{"Negative ray length", func(c *TraceConfig) { c.RayLength = -1 }, "rayLength"},
		{"Infinite ray length", func(c *TraceConfig) { c.RayLength = math.Inf(1) }, "rayLength"},
		{"Zero reflections", func(c *TraceConfig) { c.MaxReflections = 0 }, "maxReflections"},
		{"Zero speed of sound", func(c *TraceConfig) { c.SpeedOfSound = 0 }, "speedOfSound"},
		{"NaN energy", func(c *TraceConfig) { c.InitialEnergy = math.NaN() }, "initialEnergy"},
		{"Negative floor", func(c *TraceConfig) { c.EnergyFloor = -0.1 }, "energyFloor"},
		{"Unknown policy", func(c *TraceConfig) { c.AbsorptionPolicy = 7 }, "absorptionPolicy"},
		{"Unknown model", func(c *TraceConfig) { c.EnergyModel = 3 }, "energyModel"},
		{"NaN threshold", func(c *TraceConfig) { c.TreatedThreshold = math.NaN() }, "treatedThreshold"},
		{"Negative workers", func(c *TraceConfig) { c.NumWorkers = -2 }, "numWorkers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTraceConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected *ConfigurationError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, cfgErr.Field)
			}
		})
	}
}

func TestConfigurationError_Unwrap(t *testing.T) {
	inner := errors.New("bad coefficient")
	err := &ConfigurationError{Field: "materials", Reason: "catalog is inconsistent", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("Expected ConfigurationError to unwrap to its cause")
	}
	if err.Error() != "invalid materials: catalog is inconsistent: bad coefficient" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestTraceConfig_IntegratorConfig(t *testing.T) {
	cfg := DefaultTraceConfig()
	cfg.AbsorptionPolicy = material.SixOctaveRandom
	ic := cfg.IntegratorConfig()
	if ic.RayLength != cfg.RayLength || ic.MaxReflections != cfg.MaxReflections ||
		ic.EnergyFloor != cfg.EnergyFloor || ic.Absorption != material.SixOctaveRandom {
		t.Errorf("Integrator config does not mirror trace config: %+v", ic)
	}
}

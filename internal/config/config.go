package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nkarsten/flownet/internal/integrate"
	"github.com/nkarsten/flownet/internal/simerr"
)

const (
	DefaultDt            = 0.01
	DefaultDuration      = 5.0
	DefaultMinDt         = 1e-4
	DefaultMaxRetries    = 8
	DefaultCutbackFactor = 0.5
	DefaultGrowFactor    = 2.0
	DefaultMaxSteps      = 1_000_000
)

// Config is the yaml-backed run configuration.
type Config struct {
	Scenario   string `yaml:"scenario"`
	Integrator string `yaml:"integrator"`
	Strategy   string `yaml:"strategy"`

	Dt            float64 `yaml:"dt"`
	Duration      float64 `yaml:"duration"`
	MinDt         float64 `yaml:"min_dt"`
	MaxRetries    int     `yaml:"max_retries"`
	CutbackFactor float64 `yaml:"cutback_factor"`
	GrowFactor    float64 `yaml:"grow_factor"`
	MaxSteps      int     `yaml:"max_steps"`
	RecordEvery   int     `yaml:"record_every"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario:      "blowdown",
		Integrator:    "rk4",
		Strategy:      "relaxed",
		Dt:            DefaultDt,
		Duration:      DefaultDuration,
		MinDt:         DefaultMinDt,
		MaxRetries:    DefaultMaxRetries,
		CutbackFactor: DefaultCutbackFactor,
		GrowFactor:    DefaultGrowFactor,
		MaxSteps:      DefaultMaxSteps,
		RecordEvery:   1,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
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

// SimOptions converts the configuration into runner options.
func (c *Config) SimOptions() (integrate.SimOptions, error) {
	opts := integrate.SimOptions{
		Dt:            c.Dt,
		TEnd:          c.Duration,
		MaxSteps:      c.MaxSteps,
		RecordEvery:   c.RecordEvery,
		MinDt:         c.MinDt,
		MaxRetries:    c.MaxRetries,
		CutbackFactor: c.CutbackFactor,
		GrowFactor:    c.GrowFactor,
	}
	switch c.Integrator {
	case "rk4", "":
		opts.Stepper = integrate.NewRK4()
	case "euler":
		opts.Stepper = integrate.NewEuler()
	default:
		return integrate.SimOptions{}, simerr.InvalidArgf("unknown integrator %q", c.Integrator)
	}
	if err := opts.Validate(); err != nil {
		return integrate.SimOptions{}, err
	}
	return opts, nil
}

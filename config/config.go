// Package config provides configuration loading and access.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all runner configuration.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Workers    WorkersConfig    `yaml:"workers"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Effect     EffectConfig     `yaml:"effect"`
	Assets     AssetsConfig     `yaml:"assets"`

	// Derived values (computed after load, not in YAML)
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds the frame loop parameters.
type SimulationConfig struct {
	DT        float64 `yaml:"dt"`        // Seconds per frame
	Seed      int64   `yaml:"seed"`      // 0 = time-based
	Frames    int     `yaml:"frames"`    // Frames to simulate (0 = until every instance completes)
	Instances int     `yaml:"instances"` // Effect instances updated per frame
	Spacing   float64 `yaml:"spacing"`   // Distance between instances on the X axis
	Respawn   bool    `yaml:"respawn"`   // Replace completed instances
}

// WorkersConfig holds the effect worker pool parameters.
type WorkersConfig struct {
	Count             int `yaml:"count"`              // 0 = GOMAXPROCS
	ParallelThreshold int `yaml:"parallel_threshold"` // Fewer live instances update serially
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	WindowFrames        int `yaml:"window_frames"`         // Frames per stats window
	PerfCollectorWindow int `yaml:"perf_collector_window"` // Frames averaged by the perf collector
}

// EffectConfig selects the effect definition to run.
type EffectConfig struct {
	Path string `yaml:"path"` // Empty = embedded default effect
}

// AssetsConfig shapes the placeholder assets of headless runs.
type AssetsConfig struct {
	TextureSize int `yaml:"texture_size"`
	Grid        int `yaml:"grid"` // Texture sheets are split Grid x Grid
}

// DerivedConfig holds computed values.
type DerivedConfig struct {
	DT32    float32
	Workers int
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Simulation.DT <= 0 {
		return fmt.Errorf("simulation.dt must be positive, got %v", c.Simulation.DT)
	}
	if c.Simulation.Instances < 1 {
		return fmt.Errorf("simulation.instances must be at least 1, got %d", c.Simulation.Instances)
	}
	if c.Simulation.Frames == 0 && c.Simulation.Respawn {
		return fmt.Errorf("simulation.frames must be set when respawn is enabled")
	}
	if c.Workers.Count < 0 {
		return fmt.Errorf("workers.count must not be negative, got %d", c.Workers.Count)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Simulation.DT)

	c.Derived.Workers = c.Workers.Count
	if c.Derived.Workers == 0 {
		c.Derived.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Telemetry.WindowFrames < 1 {
		c.Telemetry.WindowFrames = 1
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"minesweepers/internal/ga"
	"minesweepers/internal/nn"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Sensor and actuator counts of a sweeper: bearing to the nearest mine and to
// the nearest active mine in, steering out.
const (
	NumInputs  = 2
	NumOutputs = 1
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("config: invalid")

// Config is the root configuration structure
type Config struct {
	Seed    int64       `yaml:"seed"`
	NN      NNConfig    `yaml:"nn"`
	GA      GAConfig    `yaml:"ga"`
	Drill   DrillConfig `yaml:"drill"`
	Eval    EvalConfig  `yaml:"eval"`
	Logging LogConfig   `yaml:"logging"`
}

// NNConfig defines the controller architecture
type NNConfig struct {
	HiddenLayers          int `yaml:"hidden_layers"`
	NeuronsPerHiddenLayer int `yaml:"neurons_per_hidden_layer"`
}

// GAConfig defines genetic algorithm parameters
type GAConfig struct {
	Population      int     `yaml:"population"`
	MutationRate    float64 `yaml:"mutation_rate"`
	CrossoverRate   float64 `yaml:"crossover_rate"`
	EliteThreshold  int     `yaml:"elite_threshold"`
	EliteCopies     int     `yaml:"elite_copies"`
	MaxPerturbation float64 `yaml:"max_perturbation"`
}

// DrillConfig defines the steering drill each generation is scored on
type DrillConfig struct {
	TicksPerGeneration int     `yaml:"ticks_per_generation"`
	Mines              int     `yaml:"mines"`
	ActiveMines        int     `yaml:"active_mines"`
	ToleranceDeg       float64 `yaml:"tolerance_deg"`
}

// EvalConfig defines evaluation parameters
type EvalConfig struct {
	Workers          int     `yaml:"workers"` // 0 means runtime.NumCPU
	BenchmarkEvery   int     `yaml:"benchmark_every"`
	BenchmarkSeeds   []int64 `yaml:"benchmark_seeds"`
	RobustnessLambda float64 `yaml:"robustness_lambda"`
}

// LogConfig defines logging and run output
type LogConfig struct {
	Level           string `yaml:"level"` // debug|info|warn|error
	EveryGenSummary bool   `yaml:"every_gen_summary"`
	Dir             string `yaml:"dir"`
	MetricsAddr     string `yaml:"metrics_addr"`
}

// Default returns the embedded defaults
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load reads a YAML config file over the embedded defaults. Fields missing
// from the file keep their default. An empty path yields the defaults.
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
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values no component can recover from
func (c *Config) Validate() error {
	switch {
	case c.NN.HiddenLayers > 0 && c.NN.NeuronsPerHiddenLayer <= 0:
		return fmt.Errorf("%w: nn.neurons_per_hidden_layer must be positive", ErrInvalidConfig)
	case c.Drill.TicksPerGeneration <= 0:
		return fmt.Errorf("%w: drill.ticks_per_generation must be positive", ErrInvalidConfig)
	case c.Drill.Mines <= 0 || c.Drill.ActiveMines <= 0:
		return fmt.Errorf("%w: drill needs at least one mine and one active mine", ErrInvalidConfig)
	case c.Drill.ToleranceDeg < 0 || c.Drill.ToleranceDeg > 180:
		return fmt.Errorf("%w: drill.tolerance_deg %v outside [0, 180]", ErrInvalidConfig, c.Drill.ToleranceDeg)
	case c.Eval.Workers < 0:
		return fmt.Errorf("%w: eval.workers must not be negative", ErrInvalidConfig)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if err := c.EngineParams().Validate(); err != nil {
		return fmt.Errorf("%w: ga: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Topology returns the controller shape of every sweeper
func (c *Config) Topology() nn.Topology {
	return nn.Topology{
		Inputs:                NumInputs,
		Outputs:               NumOutputs,
		HiddenLayers:          c.NN.HiddenLayers,
		NeuronsPerHiddenLayer: c.NN.NeuronsPerHiddenLayer,
	}
}

// EngineParams maps the GA section onto engine parameters
func (c *Config) EngineParams() ga.Params {
	return ga.Params{
		PopulationSize:  c.GA.Population,
		NumWeights:      c.Topology().NumWeights(),
		MutationRate:    c.GA.MutationRate,
		CrossoverRate:   c.GA.CrossoverRate,
		EliteThreshold:  c.GA.EliteThreshold,
		EliteCopies:     c.GA.EliteCopies,
		MaxPerturbation: c.GA.MaxPerturbation,
	}
}

// LogLevel parses logging.level
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Logging.Level))); err != nil {
		return 0, fmt.Errorf("%w: logging.level %q", ErrInvalidConfig, c.Logging.Level)
	}
	return level, nil
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

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minesweepers/internal/ga"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, int64(1337), cfg.Seed)
	assert.Equal(t, 30, cfg.GA.Population)
	assert.Equal(t, 0.3, cfg.GA.MaxPerturbation)
	assert.Equal(t, 2000, cfg.Drill.TicksPerGeneration)
	assert.Len(t, cfg.Eval.BenchmarkSeeds, 5)

	topo := cfg.Topology()
	assert.Equal(t, 2, topo.Inputs)
	assert.Equal(t, 1, topo.Outputs)
	assert.Equal(t, 6*3+7, topo.NumWeights())
	assert.Equal(t, topo.NumWeights(), cfg.EngineParams().NumWeights)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
seed: 7
ga:
  population: 12
  mutation_rate: 0
drill:
  mines: 3
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 12, cfg.GA.Population)
	assert.Zero(t, cfg.GA.MutationRate, "explicit zero overrides the default")
	assert.Equal(t, 0.7, cfg.GA.CrossoverRate, "unset fields keep the default")
	assert.Equal(t, 3, cfg.Drill.Mines)
	assert.Equal(t, 20, cfg.Drill.ActiveMines)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "ga: [not, a, map]"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"defaults", func(c *Config) {}, nil},
		{"odd elites", func(c *Config) { c.GA.EliteCopies = 3 }, ga.ErrInvalidEliteConfiguration},
		{"no ticks", func(c *Config) { c.Drill.TicksPerGeneration = 0 }, ErrInvalidConfig},
		{"no mines", func(c *Config) { c.Drill.Mines = 0 }, ErrInvalidConfig},
		{"wide tolerance", func(c *Config) { c.Drill.ToleranceDeg = 200 }, ErrInvalidConfig},
		{"empty hidden layer", func(c *Config) { c.NN.NeuronsPerHiddenLayer = 0 }, ErrInvalidConfig},
		{"no hidden layers", func(c *Config) { c.NN.HiddenLayers = 0; c.NN.NeuronsPerHiddenLayer = 0 }, nil},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, ErrInvalidConfig},
		{"negative workers", func(c *Config) { c.Eval.Workers = -1 }, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "debug"
	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.GA.Population = 44

	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

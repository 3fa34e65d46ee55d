package train

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minesweepers/internal/config"
	"minesweepers/internal/logging"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.GA.Population = 10
	cfg.Drill.TicksPerGeneration = 40
	cfg.Eval.Workers = 2
	cfg.Eval.BenchmarkEvery = 2
	cfg.Eval.BenchmarkSeeds = []int64{5, 6}
	return cfg
}

func newTrainer(t *testing.T, cfg *config.Config, dir string) (*Trainer, *logging.Logger) {
	t.Helper()
	logger, err := logging.NewLogger(dir, slog.New(slog.NewTextHandler(io.Discard, nil)), false)
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })

	tr, err := New(cfg, logger, logging.NewExporter())
	require.NoError(t, err)
	return tr, logger
}

func TestNewLoadsSeedPopulation(t *testing.T) {
	tr, _ := newTrainer(t, testConfig(), "")

	pop := tr.Engine().Population()
	require.Len(t, tr.Controllers(), len(pop))
	for i, c := range tr.Controllers() {
		assert.Equal(t, pop[i].Weights, c.Weights())
	}
}

func TestNewRejectsOddElites(t *testing.T) {
	cfg := testConfig()
	cfg.GA.EliteCopies = 1

	logger, err := logging.NewLogger("", slog.New(slog.NewTextHandler(io.Discard, nil)), false)
	require.NoError(t, err)
	_, err = New(cfg, logger, nil)
	assert.Error(t, err)
}

func TestStepKeepsControllersInSync(t *testing.T) {
	tr, _ := newTrainer(t, testConfig(), "")

	summary, err := tr.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Generation)
	assert.Equal(t, 1, tr.Engine().Generation())
	assert.GreaterOrEqual(t, summary.BestFitness, summary.WorstFitness)
	assert.Equal(t, summary.BestFitness, summary.BestEver)

	pop := tr.Engine().Population()
	require.Len(t, pop, 10)
	for i, c := range tr.Controllers() {
		assert.Equal(t, pop[i].Weights, c.Weights())
		assert.Zero(t, pop[i].Fitness)
	}

	best, weights := tr.BestEver()
	assert.Equal(t, summary.BestFitness, best)
	assert.Len(t, weights, tr.Controllers()[0].NumberOfWeights())
}

func TestRunWritesGenerations(t *testing.T) {
	tr, logger := newTrainer(t, testConfig(), t.TempDir())

	require.NoError(t, tr.Run(context.Background(), 4))
	assert.Equal(t, 4, tr.Engine().Generation())
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(filepath.Join(logger.Dir(), "generations.csv"))
	require.NoError(t, err)
	// header plus one row per generation
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 5)
}

func TestRunStopsOnCancel(t *testing.T) {
	tr, _ := newTrainer(t, testConfig(), "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := tr.Run(ctx, 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, tr.Engine().Generation())
}

package eval

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"minesweepers/internal/config"
	"minesweepers/internal/env"
	"minesweepers/internal/nn"
)

// Evaluator drives the drill for one generation and computes fitness
type Evaluator struct {
	cfg     *config.Config
	workers int
	log     *slog.Logger
}

// NewEvaluator creates a new evaluator
func NewEvaluator(cfg *config.Config, log *slog.Logger) *Evaluator {
	workers := cfg.Eval.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Evaluator{
		cfg:     cfg,
		workers: workers,
		log:     log,
	}
}

// Workers returns the forward-pass concurrency
func (e *Evaluator) Workers() int {
	return e.workers
}

// RunGeneration plays TicksPerGeneration ticks of the drill. Controller i
// steers sweeper i. Tallies accumulate in the drill; it is not reset here.
func (e *Evaluator) RunGeneration(ctx context.Context, drill *env.Drill, controllers []*nn.Controller) error {
	if len(controllers) != drill.Len() {
		return fmt.Errorf("eval: %d controllers for %d sweepers", len(controllers), drill.Len())
	}

	inputs := make([][]float64, len(controllers))
	outputs := make([][]float64, len(controllers))

	for tick := 0; tick < e.cfg.Drill.TicksPerGeneration; tick++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		drill.Sense()
		for i := range controllers {
			inputs[i] = drill.Inputs(i)
		}

		// each controller owns its weights, so forward passes can run side by side
		p := pool.New().WithMaxGoroutines(e.workers)
		for i, c := range controllers {
			p.Go(func() {
				outputs[i] = c.Forward(inputs[i])
			})
		}
		p.Wait()

		for i := range controllers {
			if err := drill.Steer(i, outputs[i]); err != nil {
				e.log.Warn("sweeper produced no output", "sweeper", i, "tick", tick)
			}
		}
		drill.Score()
	}
	return nil
}

// RunBenchmark evaluates weight vectors on the fixed benchmark seed suite.
// Each genome is scored alone so results do not depend on the population.
func (e *Evaluator) RunBenchmark(ctx context.Context, genomes [][]float64) ([]env.AggregatedStats, error) {
	results := make([]env.AggregatedStats, len(genomes))
	seeds := e.cfg.Eval.BenchmarkSeeds
	topo := e.cfg.Topology()

	for i, weights := range genomes {
		c := nn.New(topo, rand.New(rand.NewSource(0)))
		if err := c.PutWeights(weights); err != nil {
			return nil, fmt.Errorf("benchmark genome %d: %w", i, err)
		}

		episodes := make([]env.EpisodeStats, len(seeds))
		for j, seed := range seeds {
			drill := env.NewDrill(e.cfg.Drill, 1, seed)
			if err := e.RunGeneration(ctx, drill, []*nn.Controller{c}); err != nil {
				return nil, err
			}
			episodes[j] = drill.Stats(0, seed)
		}
		results[i] = env.Aggregate(episodes)
	}
	return results, nil
}

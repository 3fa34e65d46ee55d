// Package train runs the generational loop: score every sweeper on the drill,
// hand the fitness to the engine, evolve, and load the new weights back into
// the controllers.
package train

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"minesweepers/internal/config"
	"minesweepers/internal/env"
	"minesweepers/internal/eval"
	"minesweepers/internal/ga"
	"minesweepers/internal/logging"
	"minesweepers/internal/nn"
)

// Trainer owns one controller per sweeper and the engine evolving them.
// Controller i always runs genome i of the engine's population.
type Trainer struct {
	cfg         *config.Config
	engine      *ga.Engine
	controllers []*nn.Controller
	drill       *env.Drill
	evaluator   *eval.Evaluator
	logger      *logging.Logger
	exporter    *logging.Exporter

	bestEver        float64
	bestEverWeights []float64
}

// New builds the controllers and the engine and loads the seed population
func New(cfg *config.Config, logger *logging.Logger, exporter *logging.Exporter) (*Trainer, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))

	engine, err := ga.NewEngine(cfg.EngineParams(), rng)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	t := &Trainer{
		cfg:         cfg,
		engine:      engine,
		controllers: make([]*nn.Controller, cfg.GA.Population),
		drill:       env.NewDrill(cfg.Drill, cfg.GA.Population, cfg.Seed),
		evaluator:   eval.NewEvaluator(cfg, logger.Console()),
		logger:      logger,
		exporter:    exporter,
		bestEver:    math.Inf(-1),
	}

	for i := range t.controllers {
		t.controllers[i] = nn.New(cfg.Topology(), rng)
	}
	if err := t.load(engine.Population()); err != nil {
		return nil, err
	}
	return t, nil
}

// load injects genome i into controller i
func (t *Trainer) load(population []ga.Genome) error {
	if len(population) != len(t.controllers) {
		return fmt.Errorf("population of %d for %d controllers", len(population), len(t.controllers))
	}
	for i, g := range population {
		if err := t.controllers[i].PutWeights(g.Weights); err != nil {
			return fmt.Errorf("loading genome %d: %w", i, err)
		}
	}
	return nil
}

// Engine returns the evolution engine
func (t *Trainer) Engine() *ga.Engine {
	return t.engine
}

// Controllers returns the sweeper controllers in population order
func (t *Trainer) Controllers() []*nn.Controller {
	return t.controllers
}

// BestEver returns the highest fitness seen so far and the weights that
// scored it
func (t *Trainer) BestEver() (float64, []float64) {
	return t.bestEver, ga.CloneWeights(t.bestEverWeights)
}

// Step plays one generation, evolves the population and loads the offspring.
// It returns the summary of the generation that was scored.
func (t *Trainer) Step(ctx context.Context) (logging.GenerationSummary, error) {
	gen := t.engine.Generation()
	seed := t.cfg.Seed + int64(gen) + 1
	t.drill.Reset(seed)

	if err := t.evaluator.RunGeneration(ctx, t.drill, t.controllers); err != nil {
		return logging.GenerationSummary{}, err
	}

	episodes := make([]env.EpisodeStats, len(t.controllers))
	for i := range t.controllers {
		episodes[i] = t.drill.Stats(i, seed)
		if err := t.engine.SetFitness(i, episodes[i].Fitness); err != nil {
			return logging.GenerationSummary{}, err
		}
		if episodes[i].Fitness > t.bestEver {
			t.bestEver = episodes[i].Fitness
			t.bestEverWeights = t.controllers[i].Weights()
		}
	}

	next := t.engine.Epoch()
	if err := t.load(next); err != nil {
		return logging.GenerationSummary{}, err
	}

	summary := logging.NewGenerationSummary(gen, t.engine.Stats(), episodes, t.bestEver)
	if err := t.logger.LogGeneration(summary); err != nil {
		return summary, err
	}
	if t.exporter != nil {
		t.exporter.Observe(summary)
	}
	return summary, nil
}

// Run steps through the given number of generations, benchmarking the
// current elites every BenchmarkEvery generations. It stops early when ctx
// is cancelled.
func (t *Trainer) Run(ctx context.Context, generations int) error {
	log := t.logger.Console()
	log.Info("training",
		"run", t.logger.RunID(),
		"sweepers", len(t.controllers),
		"layers", t.controllers[0].Layers(),
		"weights", t.controllers[0].NumberOfWeights(),
		"mutation_rate", t.cfg.GA.MutationRate,
		"crossover_rate", t.cfg.GA.CrossoverRate,
	)

	for i := 0; i < generations; i++ {
		if _, err := t.Step(ctx); err != nil {
			return fmt.Errorf("generation %d: %w", t.engine.Generation(), err)
		}

		gen := t.engine.Generation()
		if every := t.cfg.Eval.BenchmarkEvery; every > 0 && gen%every == 0 {
			if err := t.benchmark(ctx, gen); err != nil {
				return err
			}
		}
	}
	return nil
}

// benchmark scores the elite genomes seeded into the current population.
// Elite copies sit at the front, one distinct genome every EliteCopies slots.
func (t *Trainer) benchmark(ctx context.Context, gen int) error {
	p := t.engine.Params()
	stride := max(p.EliteCopies, 1)

	var genomes [][]float64
	for i := 0; i < p.EliteCount() && i < t.engine.Size(); i += stride {
		g, err := t.engine.Genome(i)
		if err != nil {
			return err
		}
		genomes = append(genomes, g.Weights)
	}
	if len(genomes) == 0 {
		return nil
	}

	results, err := t.evaluator.RunBenchmark(ctx, genomes)
	if err != nil {
		return fmt.Errorf("benchmark: %w", err)
	}
	t.logger.LogBenchmark(gen, results, t.cfg.Eval.RobustnessLambda)
	return nil
}

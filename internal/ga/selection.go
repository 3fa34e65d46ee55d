package ga

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises the fitness of a population. It is derived data and only
// valid until the population changes.
type Stats struct {
	Total   float64 `json:"total_fitness"`
	Best    float64 `json:"best_fitness"`
	Worst   float64 `json:"worst_fitness"`
	Average float64 `json:"average_fitness"`
	StdDev  float64 `json:"stddev_fitness"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("total", s.Total),
		slog.Float64("best", s.Best),
		slog.Float64("worst", s.Worst),
		slog.Float64("average", s.Average),
		slog.Float64("stddev", s.StdDev),
	)
}

func (e *Engine) resetStats() {
	e.stats = Stats{Worst: math.MaxFloat64}
}

// Stats returns the statistics from the last CalculateStatistics call
func (e *Engine) Stats() Stats {
	return e.stats
}

// SortByFitness sorts the population by fitness (descending). Ties keep their
// relative order.
func (e *Engine) SortByFitness() {
	sort.SliceStable(e.population, func(i, j int) bool {
		return e.population[i].Fitness > e.population[j].Fitness
	})
}

// CalculateStatistics sorts the population and recomputes its statistics.
// Roulette selection depends on the total it leaves behind.
func (e *Engine) CalculateStatistics() Stats {
	e.SortByFitness()

	fitness := make([]float64, len(e.population))
	for i, g := range e.population {
		fitness[i] = g.Fitness
	}

	e.stats.Total = floats.Sum(fitness)
	e.stats.Best = e.population[0].Fitness
	e.stats.Worst = e.population[len(e.population)-1].Fitness
	e.stats.Average = e.stats.Total / float64(len(e.population))
	e.stats.StdDev = 0
	if len(fitness) > 1 {
		_, e.stats.StdDev = stat.MeanStdDev(fitness, nil)
	}
	return e.stats
}

// EliteSurvivors returns the top EliteThreshold genomes, each repeated
// EliteCopies times. Copies share their weight slice and have zero fitness.
// CalculateStatistics must have sorted the population first.
func (e *Engine) EliteSurvivors() []Genome {
	elites := make([]Genome, 0, e.params.EliteCount())
	for i := 0; i < e.params.EliteThreshold && i < len(e.population); i++ {
		for c := 0; c < e.params.EliteCopies; c++ {
			elites = append(elites, Genome{Weights: e.population[i].Weights})
		}
	}
	return elites
}

// RouletteSelect draws a genome with probability proportional to its fitness.
// When the running sum never reaches the slice (all fitness zero, or negative
// totals) the last genome scanned is returned.
func (e *Engine) RouletteSelect() Genome {
	slice := e.rng.Float64() * e.stats.Total

	running := 0.0
	for _, g := range e.population {
		running += g.Fitness
		if running >= slice {
			return g
		}
	}
	return e.population[len(e.population)-1]
}

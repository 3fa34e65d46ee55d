package ga

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	// ErrInvalidEliteConfiguration is returned when elitism would leave roulette
	// selection an odd remainder.
	ErrInvalidEliteConfiguration = errors.New("ga: invalid elite configuration")

	// ErrInvalidParams is returned for non-positive sizes or out-of-range rates
	ErrInvalidParams = errors.New("ga: invalid parameters")

	// ErrIndexOutOfRange is returned when a genome index is outside the population
	ErrIndexOutOfRange = errors.New("ga: genome index out of range")
)

// Genome is a candidate weight vector and its fitness
type Genome struct {
	Weights []float64
	Fitness float64
}

// Clone returns a deep copy of the genome
func (g Genome) Clone() Genome {
	return Genome{Weights: CloneWeights(g.Weights), Fitness: g.Fitness}
}

// CloneWeights makes a copy of a weight vector
func CloneWeights(src []float64) []float64 {
	dst := make([]float64, len(src))
	copy(dst, src)
	return dst
}

// RandomWeights draws n weights uniformly from [-1, 1]
func RandomWeights(n int, rng *rand.Rand) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = rng.Float64()*2 - 1
	}
	return w
}

// Params configures an Engine. PopulationSize and NumWeights are fixed for the
// engine's lifetime.
type Params struct {
	PopulationSize  int
	NumWeights      int
	MutationRate    float64
	CrossoverRate   float64
	EliteThreshold  int
	EliteCopies     int
	MaxPerturbation float64
}

// DefaultParams returns the reference tunables for the given sizes
func DefaultParams(populationSize, numWeights int) Params {
	return Params{
		PopulationSize:  populationSize,
		NumWeights:      numWeights,
		MutationRate:    0.1,
		CrossoverRate:   0.7,
		EliteThreshold:  3,
		EliteCopies:     2,
		MaxPerturbation: 0.3,
	}
}

// EliteCount is the number of survivor entries seeded into each generation
func (p Params) EliteCount() int {
	return p.EliteThreshold * p.EliteCopies
}

// Validate checks sizes, rates and the elite layout
func (p Params) Validate() error {
	if p.PopulationSize <= 0 {
		return fmt.Errorf("%w: population size %d", ErrInvalidParams, p.PopulationSize)
	}
	if p.NumWeights <= 0 {
		return fmt.Errorf("%w: weight count %d", ErrInvalidParams, p.NumWeights)
	}
	if p.MutationRate < 0 || p.MutationRate > 1 {
		return fmt.Errorf("%w: mutation rate %v outside [0, 1]", ErrInvalidParams, p.MutationRate)
	}
	if p.CrossoverRate < 0 || p.CrossoverRate > 1 {
		return fmt.Errorf("%w: crossover rate %v outside [0, 1]", ErrInvalidParams, p.CrossoverRate)
	}
	if p.MaxPerturbation < 0 {
		return fmt.Errorf("%w: max perturbation %v", ErrInvalidParams, p.MaxPerturbation)
	}
	if p.EliteThreshold < 0 || p.EliteCopies < 0 {
		return fmt.Errorf("%w: negative elite threshold or copies", ErrInvalidEliteConfiguration)
	}
	if p.EliteCount()%2 != 0 {
		return fmt.Errorf("%w: %d x %d elite copies is odd", ErrInvalidEliteConfiguration, p.EliteThreshold, p.EliteCopies)
	}
	return nil
}

// Engine owns a fixed-size population and performs generational transitions
type Engine struct {
	params     Params
	population []Genome
	stats      Stats
	generation int
	rng        *rand.Rand
}

// NewEngine seeds a random population with zero fitness
func NewEngine(params Params, rng *rand.Rand) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		params:     params,
		population: make([]Genome, params.PopulationSize),
		rng:        rng,
	}
	for i := range e.population {
		e.population[i] = Genome{Weights: RandomWeights(params.NumWeights, rng)}
	}
	e.resetStats()
	return e, nil
}

// Params returns the engine configuration
func (e *Engine) Params() Params {
	return e.params
}

// Size returns the population size
func (e *Engine) Size() int {
	return len(e.population)
}

// Generation returns the number of completed epochs
func (e *Engine) Generation() int {
	return e.generation
}

// Genome returns a deep copy of the genome at index i
func (e *Engine) Genome(i int) (Genome, error) {
	if i < 0 || i >= len(e.population) {
		return Genome{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return e.population[i].Clone(), nil
}

// Population returns deep copies of every genome in population order
func (e *Engine) Population() []Genome {
	return clonePopulation(e.population)
}

// SetFitness records the accumulated fitness for the genome at index i
func (e *Engine) SetFitness(i int, fitness float64) error {
	if i < 0 || i >= len(e.population) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	e.population[i].Fitness = fitness
	return nil
}

// Fitness returns the fitness of the genome at index i
func (e *Engine) Fitness(i int) (float64, error) {
	if i < 0 || i >= len(e.population) {
		return 0, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return e.population[i].Fitness, nil
}

// Epoch replaces the population with the next generation and returns copies
// of it. Every returned genome has zero fitness.
func (e *Engine) Epoch() []Genome {
	e.resetStats()
	e.CalculateStatistics()

	next := make([]Genome, 0, e.params.PopulationSize)
	elites := e.EliteSurvivors()
	if len(elites) > e.params.PopulationSize {
		elites = elites[:e.params.PopulationSize]
	}
	next = append(next, elites...)

	for len(next) < e.params.PopulationSize {
		mum := e.RouletteSelect()
		dad := e.RouletteSelect()

		child1, child2 := Crossover(mum.Weights, dad.Weights, e.params.MutationRate, e.rng)
		child1 = Mutate(child1, e.params.MutationRate, e.params.MaxPerturbation, e.rng)
		child2 = Mutate(child2, e.params.MutationRate, e.params.MaxPerturbation, e.rng)

		next = append(next, Genome{Weights: child1})
		if len(next) < e.params.PopulationSize {
			next = append(next, Genome{Weights: child2})
		}
	}

	e.population = next
	e.generation++
	return clonePopulation(e.population)
}

func clonePopulation(src []Genome) []Genome {
	dst := make([]Genome, len(src))
	for i, g := range src {
		dst[i] = g.Clone()
	}
	return dst
}

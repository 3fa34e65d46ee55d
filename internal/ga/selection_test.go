package ga

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func engineWithFitness(t *testing.T, fitness []float64) *Engine {
	t.Helper()
	p := DefaultParams(len(fitness), 4)
	p.EliteThreshold = 2
	p.EliteCopies = 2
	e := newTestEngine(t, p, 21)
	for i, f := range fitness {
		require.NoError(t, e.SetFitness(i, f))
	}
	return e
}

func TestCalculateStatistics(t *testing.T) {
	e := engineWithFitness(t, []float64{3, -1, 7, 0, 1})

	s := e.CalculateStatistics()
	assert.Equal(t, 10.0, s.Total)
	assert.Equal(t, 7.0, s.Best)
	assert.Equal(t, -1.0, s.Worst)
	assert.Equal(t, 2.0, s.Average)
	assert.Greater(t, s.StdDev, 0.0)
	assert.Equal(t, s, e.Stats())

	got := make([]float64, e.Size())
	for i := range got {
		f, err := e.Fitness(i)
		require.NoError(t, err)
		got[i] = f
	}
	assert.Equal(t, []float64{7, 3, 1, 0, -1}, got)
}

func TestCalculateStatisticsStableTies(t *testing.T) {
	e := engineWithFitness(t, []float64{1, 1, 1, 1})
	before := e.Population()

	s := e.CalculateStatistics()
	assert.Equal(t, 4.0, s.Total)
	assert.Equal(t, 1.0, s.Worst)
	assert.Zero(t, s.StdDev)
	assert.Equal(t, before, e.Population())
}

func TestEliteSurvivors(t *testing.T) {
	e := newTestEngine(t, DefaultParams(12, 4), 4)
	for i := 0; i < 12; i++ {
		require.NoError(t, e.SetFitness(i, float64(i)))
	}
	pop := e.Population()
	top := [][]float64{pop[11].Weights, pop[10].Weights, pop[9].Weights}

	e.CalculateStatistics()
	elites := e.EliteSurvivors()
	require.Len(t, elites, 6)

	for rank, want := range top {
		count := 0
		for _, g := range elites {
			if assert.ObjectsAreEqual(want, g.Weights) {
				count++
			}
		}
		assert.GreaterOrEqual(t, count, 2, "rank %d", rank)
	}
	for _, g := range elites {
		assert.Zero(t, g.Fitness)
	}
	assert.True(t, sameGenome(elites[0].Weights, elites[1].Weights), "copies share weights")
}

func TestRouletteSelectFollowsFitness(t *testing.T) {
	e := engineWithFitness(t, []float64{0, 0, 10, 0})
	e.CalculateStatistics()

	for i := 0; i < 50; i++ {
		assert.Equal(t, 10.0, e.RouletteSelect().Fitness)
	}
}

func TestRouletteSelectProportions(t *testing.T) {
	e := engineWithFitness(t, []float64{1, 3})
	e.CalculateStatistics()

	counts := map[float64]int{}
	for i := 0; i < 4000; i++ {
		counts[e.RouletteSelect().Fitness]++
	}
	assert.InDelta(t, 3000, counts[3], 200)
	assert.InDelta(t, 1000, counts[1], 200)
}

func TestRouletteSelectZeroTotal(t *testing.T) {
	e := engineWithFitness(t, []float64{0, 0, 0, 0})
	e.CalculateStatistics()

	for i := 0; i < 20; i++ {
		g := e.RouletteSelect()
		assert.Len(t, g.Weights, 4)
	}
}

func TestRouletteSelectFallsBackToLast(t *testing.T) {
	e := engineWithFitness(t, []float64{2, 1})
	e.CalculateStatistics()
	// a stale total larger than the real sum can never be reached
	e.stats.Total = 1e9
	e.rng = rand.New(rand.NewSource(1))

	last := e.Population()[1]
	for i := 0; i < 20; i++ {
		g := e.RouletteSelect()
		if g.Fitness != 2 {
			assert.Equal(t, last.Weights, g.Weights)
		}
	}
}

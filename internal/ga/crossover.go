package ga

import (
	"math/rand"
)

// sameGenome reports whether two weight vectors are the same slice
func sameGenome(p1, p2 []float64) bool {
	return len(p1) > 0 && len(p1) == len(p2) && &p1[0] == &p2[0]
}

// Crossover performs single-point crossover. With probability 1-rate, or when
// both parents are the same genome, the parents are returned unchanged.
// The inputs are never written to.
func Crossover(p1, p2 []float64, rate float64, rng *rand.Rand) ([]float64, []float64) {
	if rng.Float64() >= rate || sameGenome(p1, p2) {
		return p1, p2
	}
	return SinglePointCrossover(p1, p2, rng)
}

// SinglePointCrossover splices the parents at a point drawn from [0, n-1]
func SinglePointCrossover(p1, p2 []float64, rng *rand.Rand) ([]float64, []float64) {
	size := len(p1)
	point := rng.Intn(size)

	c1 := make([]float64, size)
	c2 := make([]float64, size)

	copy(c1[:point], p1[:point])
	copy(c1[point:], p2[point:])
	copy(c2[:point], p2[:point])
	copy(c2[point:], p1[point:])

	return c1, c2
}

package ga

import (
	"math/rand"
)

// Mutate returns a copy of weights where each weight, with probability rate,
// is increased by a uniform draw from [0, maxPerturbation).
// Perturbation is additive only.
func Mutate(weights []float64, rate, maxPerturbation float64, rng *rand.Rand) []float64 {
	out := make([]float64, len(weights))
	for i, w := range weights {
		if rng.Float64() < rate {
			w += rng.Float64() * maxPerturbation
		}
		out[i] = w
	}
	return out
}

package env

import (
	"gonum.org/v1/gonum/stat"
)

// EpisodeStats captures one sweeper's results over one generation
type EpisodeStats struct {
	Fitness float64 // hits minus strikes
	Hits    int     // mines swept
	Strikes int     // active mines touched
	Ticks   int     // ticks scored
	Seed    int64   // seed used for target sampling
}

// AggregatedStats holds statistics across multiple episodes
type AggregatedStats struct {
	FitnessMean float64
	FitnessStd  float64
	HitsMean    float64
	StrikesMean float64
	NumEpisodes int
}

// Aggregate computes statistics from multiple episode stats
func Aggregate(episodes []EpisodeStats) AggregatedStats {
	n := len(episodes)
	if n == 0 {
		return AggregatedStats{}
	}

	fitness := make([]float64, n)
	hits := make([]float64, n)
	strikes := make([]float64, n)
	for i, ep := range episodes {
		fitness[i] = ep.Fitness
		hits[i] = float64(ep.Hits)
		strikes[i] = float64(ep.Strikes)
	}

	agg := AggregatedStats{
		FitnessMean: stat.Mean(fitness, nil),
		HitsMean:    stat.Mean(hits, nil),
		StrikesMean: stat.Mean(strikes, nil),
		NumEpisodes: n,
	}
	if n > 1 {
		agg.FitnessStd = stat.StdDev(fitness, nil)
	}
	return agg
}

// RobustnessScore computes the ranking score: mean - lambda * std
func (a AggregatedStats) RobustnessScore(lambda float64) float64 {
	return a.FitnessMean - lambda*a.FitnessStd
}

package logging

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter publishes generation statistics as Prometheus gauges
type Exporter struct {
	registry   *prometheus.Registry
	generation prometheus.Gauge
	fitness    *prometheus.GaugeVec
	bestEver   prometheus.Gauge
}

// NewExporter registers the training gauges on a private registry
func NewExporter() *Exporter {
	x := &Exporter{
		registry: prometheus.NewRegistry(),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "minesweepers_generation",
			Help: "Number of completed epochs.",
		}),
		fitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "minesweepers_fitness",
			Help: "Fitness statistics of the last scored generation.",
		}, []string{"stat"}),
		bestEver: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "minesweepers_best_ever_fitness",
			Help: "Highest fitness seen in the run.",
		}),
	}
	x.registry.MustRegister(x.generation, x.fitness, x.bestEver)
	return x
}

// Observe updates the gauges from a generation summary
func (x *Exporter) Observe(s GenerationSummary) {
	x.generation.Set(float64(s.Generation + 1))
	x.fitness.With(prometheus.Labels{"stat": "best"}).Set(s.BestFitness)
	x.fitness.With(prometheus.Labels{"stat": "average"}).Set(s.AverageFitness)
	x.fitness.With(prometheus.Labels{"stat": "worst"}).Set(s.WorstFitness)
	x.fitness.With(prometheus.Labels{"stat": "total"}).Set(s.TotalFitness)
	x.bestEver.Set(s.BestEver)
}

// Handler serves the registry in the Prometheus text format
func (x *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(x.registry, promhttp.HandlerOpts{})
}

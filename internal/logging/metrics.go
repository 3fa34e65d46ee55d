package logging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"minesweepers/internal/env"
	"minesweepers/internal/ga"
)

// GenerationSummary holds per-generation statistics
type GenerationSummary struct {
	Generation     int     `csv:"generation" json:"generation"`
	BestFitness    float64 `csv:"best_fitness" json:"best_fitness"`
	AverageFitness float64 `csv:"average_fitness" json:"average_fitness"`
	WorstFitness   float64 `csv:"worst_fitness" json:"worst_fitness"`
	TotalFitness   float64 `csv:"total_fitness" json:"total_fitness"`
	StdDevFitness  float64 `csv:"stddev_fitness" json:"stddev_fitness"`
	MeanHits       float64 `csv:"mean_hits" json:"mean_hits"`
	MeanStrikes    float64 `csv:"mean_strikes" json:"mean_strikes"`
	BestEver       float64 `csv:"best_ever" json:"best_ever"`
}

// NewGenerationSummary combines the engine statistics of a finished
// generation with the drill results it was scored on
func NewGenerationSummary(gen int, stats ga.Stats, episodes []env.EpisodeStats, bestEver float64) GenerationSummary {
	s := GenerationSummary{
		Generation:     gen,
		BestFitness:    stats.Best,
		AverageFitness: stats.Average,
		WorstFitness:   stats.Worst,
		TotalFitness:   stats.Total,
		StdDevFitness:  stats.StdDev,
		BestEver:       bestEver,
	}
	if len(episodes) > 0 {
		hits := make([]float64, len(episodes))
		strikes := make([]float64, len(episodes))
		for i, ep := range episodes {
			hits[i] = float64(ep.Hits)
			strikes[i] = float64(ep.Strikes)
		}
		s.MeanHits = stat.Mean(hits, nil)
		s.MeanStrikes = stat.Mean(strikes, nil)
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Float64("best", s.BestFitness),
		slog.Float64("average", s.AverageFitness),
		slog.Float64("worst", s.WorstFitness),
		slog.Float64("stddev", s.StdDevFitness),
		slog.Float64("hits", s.MeanHits),
		slog.Float64("strikes", s.MeanStrikes),
		slog.Float64("best_ever", s.BestEver),
	)
}

// Logger handles all training output. A Logger with an empty directory only
// writes to the console.
type Logger struct {
	runID    string
	dir      string
	csvFile  *os.File
	jsonFile *os.File
	console  *slog.Logger
	echo     bool

	csvHeaderWritten bool
}

// NewLogger creates the run directory <dir>/<run id> and opens the
// generation logs in it. echo controls per-generation console lines.
func NewLogger(dir string, console *slog.Logger, echo bool) (*Logger, error) {
	l := &Logger{
		runID:   uuid.NewString(),
		console: console,
		echo:    echo,
	}
	if dir == "" {
		return l, nil
	}

	l.dir = filepath.Join(dir, l.runID)
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating run directory: %w", err)
	}

	var err error
	l.csvFile, err = os.Create(filepath.Join(l.dir, "generations.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating generations.csv: %w", err)
	}
	l.jsonFile, err = os.Create(filepath.Join(l.dir, "generations.jsonl"))
	if err != nil {
		l.csvFile.Close()
		return nil, fmt.Errorf("creating generations.jsonl: %w", err)
	}
	return l, nil
}

// RunID returns the unique id of this run
func (l *Logger) RunID() string {
	return l.runID
}

// Dir returns the run directory, empty when file output is disabled
func (l *Logger) Dir() string {
	return l.dir
}

// Console returns the structured console logger
func (l *Logger) Console() *slog.Logger {
	return l.console
}

// Close closes all log files
func (l *Logger) Close() error {
	var firstErr error
	for _, f := range []*os.File{l.csvFile, l.jsonFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// LogGeneration writes a generation summary to every enabled sink
func (l *Logger) LogGeneration(s GenerationSummary) error {
	if l.echo {
		l.console.Info("generation", "summary", s)
	}
	if l.csvFile == nil {
		return nil
	}

	records := []GenerationSummary{s}
	if !l.csvHeaderWritten {
		if err := gocsv.Marshal(records, l.csvFile); err != nil {
			return fmt.Errorf("writing generation csv: %w", err)
		}
		l.csvHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, l.csvFile); err != nil {
			return fmt.Errorf("writing generation csv: %w", err)
		}
	}

	line, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding generation summary: %w", err)
	}
	if _, err := l.jsonFile.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing generation jsonl: %w", err)
	}
	return nil
}

// LogBenchmark logs benchmark results
func (l *Logger) LogBenchmark(gen int, results []env.AggregatedStats, lambda float64) {
	if len(results) == 0 {
		return
	}

	means := make([]float64, len(results))
	best := results[0].RobustnessScore(lambda)
	for i, r := range results {
		means[i] = r.FitnessMean
		if score := r.RobustnessScore(lambda); score > best {
			best = score
		}
	}

	l.console.Info("benchmark",
		"generation", gen,
		"genomes", len(results),
		"mean_fitness", stat.Mean(means, nil),
		"best_robust_score", best,
	)
}

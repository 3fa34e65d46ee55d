package env

import (
	"errors"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"minesweepers/internal/config"
)

// ErrNoOutput is returned by Steer when a controller rejected its inputs
var ErrNoOutput = errors.New("env: controller produced no output")

// Bearings holds the sensor reading of a sweeper, in degrees in [-180, 180)
type Bearings struct {
	Mine   float64 // nearest mine
	Active float64 // nearest active mine
}

// Steering holds the heading chosen this tick, in degrees
type Steering struct {
	Heading float64
	Set     bool
}

// Tally counts what a sweeper ran into during the current generation
type Tally struct {
	Hits    int // mines swept
	Strikes int // active mines touched
}

// Fitness is the accumulated score: +1 per mine, -1 per active mine
func (t Tally) Fitness() float64 {
	return float64(t.Hits - t.Strikes)
}

// Drill is a headless steering drill. Each tick every sweeper is shown the
// bearings of the nearest mine and the nearest active mine and is scored on
// the heading it picks. Sweepers are entities; their slot index matches the
// population index in the engine.
type Drill struct {
	cfg config.DrillConfig

	world  *ecs.World
	mapper *ecs.Map3[Bearings, Steering, Tally]
	filter *ecs.Filter3[Bearings, Steering, Tally]

	bearingMap  *ecs.Map1[Bearings]
	steeringMap *ecs.Map1[Steering]
	tallyMap    *ecs.Map1[Tally]

	sweepers []ecs.Entity
	rng      *rand.Rand
	tick     int
}

// NewDrill creates a drill for n sweepers
func NewDrill(cfg config.DrillConfig, n int, seed int64) *Drill {
	world := ecs.NewWorld()

	d := &Drill{
		cfg:         cfg,
		world:       world,
		mapper:      ecs.NewMap3[Bearings, Steering, Tally](world),
		filter:      ecs.NewFilter3[Bearings, Steering, Tally](world),
		bearingMap:  ecs.NewMap1[Bearings](world),
		steeringMap: ecs.NewMap1[Steering](world),
		tallyMap:    ecs.NewMap1[Tally](world),
		sweepers:    make([]ecs.Entity, n),
		rng:         rand.New(rand.NewSource(seed)),
	}

	for i := range d.sweepers {
		b := Bearings{}
		s := Steering{}
		t := Tally{}
		d.sweepers[i] = d.mapper.NewEntity(&b, &s, &t)
	}
	return d
}

// Len returns the number of sweepers
func (d *Drill) Len() int {
	return len(d.sweepers)
}

// Tick returns the number of scored ticks since the last reset
func (d *Drill) Tick() int {
	return d.tick
}

// Reset clears every tally and reseeds target sampling for a new generation
func (d *Drill) Reset(seed int64) {
	d.rng = rand.New(rand.NewSource(seed))
	d.tick = 0

	query := d.filter.Query()
	for query.Next() {
		b, s, t := query.Get()
		*b = Bearings{}
		*s = Steering{}
		*t = Tally{}
	}
}

// Sense samples fresh targets and updates every sweeper's bearings.
// Sweepers are visited in slot order so a seed fully determines the run.
func (d *Drill) Sense() {
	for _, e := range d.sweepers {
		b := d.bearingMap.Get(e)
		b.Mine = d.nearest(d.cfg.Mines)
		b.Active = d.nearest(d.cfg.ActiveMines)
	}
}

// nearest samples n targets at random bearing and range and returns the
// bearing of the closest one
func (d *Drill) nearest(n int) float64 {
	best, bestRange := 0.0, math.Inf(1)
	for i := 0; i < n; i++ {
		bearing := d.rng.Float64()*360 - 180
		r := d.rng.Float64()
		if r < bestRange {
			best, bestRange = bearing, r
		}
	}
	return best
}

// Inputs returns the sensor vector of sweeper i in radians
func (d *Drill) Inputs(i int) []float64 {
	b := d.bearingMap.Get(d.sweepers[i])
	return []float64{b.Mine * math.Pi / 180, b.Active * math.Pi / 180}
}

// Steer records the heading derived from the controller outputs of sweeper i
func (d *Drill) Steer(i int, outputs []float64) error {
	s := d.steeringMap.Get(d.sweepers[i])
	if len(outputs) < config.NumOutputs {
		s.Set = false
		return ErrNoOutput
	}
	s.Heading = OutputToHeading(outputs[0])
	s.Set = true
	return nil
}

// Score compares every heading with the current bearings and updates tallies
func (d *Drill) Score() {
	query := d.filter.Query()
	for query.Next() {
		b, s, t := query.Get()
		if !s.Set {
			continue
		}
		if AngleBetween(s.Heading, b.Mine) <= d.cfg.ToleranceDeg {
			t.Hits++
		}
		if AngleBetween(s.Heading, b.Active) <= d.cfg.ToleranceDeg {
			t.Strikes++
		}
	}
	d.tick++
}

// Fitness returns the accumulated fitness of sweeper i
func (d *Drill) Fitness(i int) float64 {
	return d.tallyMap.Get(d.sweepers[i]).Fitness()
}

// Stats returns the episode statistics of sweeper i
func (d *Drill) Stats(i int, seed int64) EpisodeStats {
	t := d.tallyMap.Get(d.sweepers[i])
	return EpisodeStats{
		Fitness: t.Fitness(),
		Hits:    t.Hits,
		Strikes: t.Strikes,
		Ticks:   d.tick,
		Seed:    seed,
	}
}

// OutputToHeading maps a sigmoid output in (0, 1) to a heading in degrees
// in [-180, 180], rounded to the nearest degree
func OutputToHeading(out float64) float64 {
	return math.Round(360*out - 180)
}

// AngleBetween returns the absolute angular distance of two headings in
// degrees, in [0, 180]
func AngleBetween(a, b float64) float64 {
	diff := math.Mod(math.Abs(a-b), 360)
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}

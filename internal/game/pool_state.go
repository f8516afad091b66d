package game

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// RunState gates whether ticks advance the table.
type RunState string

const (
	StateRunning RunState = "running"
	StatePaused  RunState = "paused"
)

// ErrCorruptState is returned by Tick when a ball ends up with a non-finite
// position or velocity. The host must hard-reset; later ticks would be garbage.
var ErrCorruptState = errors.New("simulation state corrupted")

// Snapshot is a read-only copy of everything a renderer needs for one frame.
type Snapshot struct {
	Balls         []BallView    `json:"balls"`
	Pockets       []Pocket      `json:"pockets"`
	Rails         []RailSegment `json:"rails"`
	PocketedCount int           `json:"pocketed_count"`
	RunState      RunState      `json:"run_state"`
	Tick          uint64        `json:"tick"`
	Break         BreakShot     `json:"break"`
	Captures      []Capture     `json:"captures"`
	Settled       bool          `json:"settled"`
}

// Simulation owns the authoritative table state. It is not safe for concurrent
// use: the host calls every method from a single goroutine.
type Simulation struct {
	params   Params
	table    *Table
	engine   *PhysicsEngine
	rng      RandomSource
	balls    []*Ball
	pocketed int
	state    RunState
	captures []Capture
	shot     BreakShot
	ticks    uint64

	done     chan struct{}
	quitOnce sync.Once
}

// NewSimulation builds the standard table for p, validates it and racks.
func NewSimulation(p Params, rng RandomSource) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return NewSimulationWithTable(p, NewTable(p), rng)
}

// NewSimulationWithTable runs on a caller-built table. The table is validated
// with the same rules as the standard one.
func NewSimulationWithTable(p Params, table *Table, rng RandomSource) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateTable(table, p.BallRadius); err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	if err := validateLayout(p); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	if rng == nil {
		rng = DefaultRNG()
	}

	s := &Simulation{
		params: p,
		table:  table,
		engine: NewPhysicsEngine(p, table),
		rng:    rng,
		done:   make(chan struct{}),
	}
	s.Reset()
	return s, nil
}

// Reset re-racks, launches the cue ball from a fresh random kitchen position
// toward the apex, zeroes the counter and resumes.
func (s *Simulation) Reset() {
	shot := breakShot(s.params, s.rng)

	rack := StandardRack(s.params)
	balls := make([]*Ball, 0, len(rack)+1)
	balls = append(balls, &Ball{
		Number:   0,
		Kind:     KindCue,
		Position: shot.Origin,
		Velocity: FromAngle(shot.Angle, shot.Speed),
		Radius:   s.params.BallRadius,
		Alive:    true,
	})
	for i := range rack {
		b := rack[i]
		balls = append(balls, &b)
	}

	s.balls = balls
	s.shot = shot
	s.pocketed = 0
	s.captures = nil
	s.ticks = 0
	s.state = StateRunning
}

// TogglePause flips between running and paused. Nothing else changes.
func (s *Simulation) TogglePause() RunState {
	if s.state == StateRunning {
		s.state = StatePaused
	} else {
		s.state = StateRunning
	}
	return s.state
}

// Quit signals the host shell to exit. Safe to call more than once.
func (s *Simulation) Quit() {
	s.quitOnce.Do(func() { close(s.done) })
}

// Done is closed once Quit has been called.
func (s *Simulation) Done() <-chan struct{} {
	return s.done
}

func (s *Simulation) QuitRequested() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Tick advances the table by dt seconds: move, friction, ball-ball, ball-rail,
// pockets, removal, strictly in that order. It is a no-op while paused or for a
// non-positive or non-finite dt. A long dt is split into substeps so that no
// ball travels more than half a radius per pass; every substep runs the full
// order and shares the tick number.
func (s *Simulation) Tick(dt float64) ([]Event, error) {
	if s.state != StateRunning || !(dt > 0) || math.IsInf(dt, 0) {
		return nil, nil
	}

	s.ticks++
	pe := s.engine
	pe.tick = s.ticks
	pe.Events = pe.Events[:0]

	remaining := dt
	for i := 0; remaining > 0; i++ {
		h := remaining
		if i < maxSubsteps-1 {
			h = math.Min(remaining, s.substep())
		}
		remaining -= h
		s.step(h)
	}

	events := make([]Event, len(pe.Events))
	copy(events, pe.Events)

	for _, b := range s.balls {
		if !b.finite() {
			return events, fmt.Errorf("%w: ball %d at tick %d", ErrCorruptState, b.Number, s.ticks)
		}
	}
	return events, nil
}

// maxSubsteps bounds the work of a single Tick. Only a dt of hours at break
// speed reaches it; the final substep then takes the remainder.
const maxSubsteps = 4096

// substep is the longest interval in which the fastest live ball moves half a
// radius. Two balls closing head-on therefore cannot pass through each other and
// no ball can cross a cushion without being pushed back.
func (s *Simulation) substep() float64 {
	var fastest float64
	for _, b := range s.balls {
		if v := b.Velocity.Magnitude(); v > fastest && !math.IsNaN(v) && !math.IsInf(v, 0) {
			fastest = v
		}
	}
	if fastest == 0 {
		return math.Inf(1)
	}
	return 0.5 * s.params.BallRadius / fastest
}

func (s *Simulation) step(h float64) {
	pe := s.engine
	pe.moveBalls(s.balls, h)
	pe.applyFriction(s.balls, h)
	pe.resolveBallCollisions(s.balls)
	pe.resolveRailCollisions(s.balls)

	captures := pe.capturePockets(s.balls)
	s.pocketed += len(captures)
	s.captures = append(s.captures, captures...)
	s.balls = removeDead(s.balls)
}

// PlaceBall puts an extra live ball on the table, e.g. for scripted scenarios.
// A zero radius takes the configured ball radius.
func (s *Simulation) PlaceBall(b Ball) {
	if b.Radius == 0 {
		b.Radius = s.params.BallRadius
	}
	if b.Kind == "" {
		b.Kind = KindNumbered
	}
	if b.Kind == KindNumbered && b.Number == 0 {
		b.Number = s.nextFreeNumber()
	}
	b.Alive = true
	b.start = b.Position
	s.balls = append(s.balls, &b)
}

// nextFreeNumber returns the lowest ball number above zero not held by a live
// ball. Zero belongs to the cue ball.
func (s *Simulation) nextFreeNumber() int {
	used := make(map[int]bool, len(s.balls))
	for _, b := range s.balls {
		used[b.Number] = true
	}
	n := 1
	for used[n] {
		n++
	}
	return n
}

// ClearBalls removes every ball from the table without touching the counter.
func (s *Simulation) ClearBalls() {
	s.balls = nil
}

// Settled reports whether every live ball is at rest.
func (s *Simulation) Settled() bool {
	for _, b := range s.balls {
		if !b.Velocity.IsZero() {
			return false
		}
	}
	return true
}

func (s *Simulation) PocketedCount() int   { return s.pocketed }
func (s *Simulation) RunState() RunState   { return s.state }
func (s *Simulation) Table() *Table        { return s.table }
func (s *Simulation) Params() Params       { return s.params }
func (s *Simulation) TickCount() uint64    { return s.ticks }
func (s *Simulation) LastBreak() BreakShot { return s.shot }

// Balls returns copies of the live balls in rack order.
func (s *Simulation) Balls() []Ball {
	out := make([]Ball, len(s.balls))
	for i, b := range s.balls {
		out[i] = *b
	}
	return out
}

// Captures returns the captures since the last reset.
func (s *Simulation) Captures() []Capture {
	out := make([]Capture, len(s.captures))
	copy(out, s.captures)
	return out
}

// Snapshot copies the state for rendering. Table geometry slices are shared
// because the table never changes after construction.
func (s *Simulation) Snapshot() Snapshot {
	views := make([]BallView, 0, len(s.balls))
	for _, b := range s.balls {
		views = append(views, BallView{
			Number:   b.Number,
			Kind:     b.Kind,
			Position: b.Position,
			Radius:   b.Radius,
		})
	}
	return Snapshot{
		Balls:         views,
		Pockets:       s.table.Pockets,
		Rails:         s.table.Rails,
		PocketedCount: s.pocketed,
		RunState:      s.state,
		Tick:          s.ticks,
		Break:         s.shot,
		Captures:      s.Captures(),
		Settled:       s.Settled(),
	}
}

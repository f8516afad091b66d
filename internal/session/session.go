package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"

	"github.com/playmatatu/pooltable/internal/game"
	"github.com/playmatatu/pooltable/internal/journal"
	"github.com/playmatatu/pooltable/internal/models"
)

// Command is an externally injected table control.
type Command string

const (
	CommandReset       Command = "reset"
	CommandTogglePause Command = "toggle_pause"
	CommandQuit        Command = "quit"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBusy           = errors.New("command queue full")
	ErrClosed         = errors.New("session closed")
)

// ParseCommand accepts the wire names of the table commands.
func ParseCommand(s string) (Command, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reset":
		return CommandReset, nil
	case "toggle_pause", "pause":
		return CommandTogglePause, nil
	case "quit":
		return CommandQuit, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

// Recorder persists runs. *journal.Journal satisfies it.
type Recorder interface {
	StartRun(ctx context.Context, run models.Run) error
	RecordCapture(ctx context.Context, runID string, c game.Capture) error
	MarkSettled(ctx context.Context, runID string, tick uint64) error
	FinishRun(ctx context.Context, runID, reason string, pocketed int) error
}

// Publisher mirrors table state to other processes. *RedisPublisher satisfies it.
type Publisher interface {
	SaveSnapshot(ctx context.Context, tableID string, snap game.Snapshot) error
	PublishEvent(ctx context.Context, u Update) error
}

// UpdateType tags what a listener is being told.
type UpdateType string

const (
	UpdateSnapshot UpdateType = "snapshot"
	UpdateCapture  UpdateType = "capture"
	UpdateReset    UpdateType = "reset"
	UpdateState    UpdateType = "state"
	UpdateSettled  UpdateType = "settled"
	UpdateQuit     UpdateType = "quit"
)

// Update is fanned out to listeners and published to other processes.
type Update struct {
	Type     UpdateType     `json:"type"`
	TableID  string         `json:"table_id"`
	RunID    string         `json:"run_id"`
	Tick     uint64         `json:"tick"`
	Pocketed int            `json:"pocketed"`
	State    game.RunState  `json:"run_state"`
	Snapshot *game.Snapshot `json:"snapshot,omitempty"`
	Capture  *game.Capture  `json:"capture,omitempty"`
	Reason   string         `json:"reason,omitempty"`
	At       time.Time      `json:"at"`
}

// Options configures a Session. Zero values pick defaults; nil Recorder and
// Publisher disable journaling and publishing.
type Options struct {
	TableID       string
	TickRate      int
	SnapshotEvery int
	Seed          int64
	Recorder      Recorder
	Publisher     Publisher
}

// Info summarizes a session for status endpoints.
type Info struct {
	TableID   string        `json:"table_id"`
	RunID     string        `json:"run_id"`
	TickRate  int           `json:"tick_rate"`
	Tick      uint64        `json:"tick"`
	State     game.RunState `json:"run_state"`
	Pocketed  int           `json:"pocketed"`
	Settled   bool          `json:"settled"`
	Listeners int           `json:"listeners"`
	StartedAt time.Time     `json:"started_at"`
}

// Session owns one Simulation and drives it from a single goroutine. Commands
// arrive on a buffered channel and are applied between ticks; every other
// method is safe for concurrent use.
type Session struct {
	sim           *game.Simulation
	clock         *game.Clock
	tableID       string
	tickRate      int
	snapshotEvery int
	seed          int64
	recorder      Recorder
	publisher     Publisher

	commands chan Command
	closed   chan struct{}

	// loop-owned
	seenCaptures  int
	settledMarked bool
	sinceSnapshot uint64
	lastTick      uint64

	mu        sync.RWMutex
	runID     string
	startedAt time.Time
	latest    game.Snapshot

	listenersMu sync.Mutex
	listeners   map[int]chan Update
	nextID      int
}

// New wraps sim. The simulation must not be touched by the caller once Run starts.
func New(sim *game.Simulation, opts Options) *Session {
	if opts.TableID == "" {
		opts.TableID = "main"
	}
	if opts.TickRate <= 0 {
		opts.TickRate = game.DefaultTickRate
	}
	if opts.SnapshotEvery <= 0 {
		opts.SnapshotEvery = 1
	}

	s := &Session{
		sim:           sim,
		clock:         game.NewClock(opts.TickRate),
		tableID:       opts.TableID,
		tickRate:      opts.TickRate,
		snapshotEvery: opts.SnapshotEvery,
		seed:          opts.Seed,
		recorder:      opts.Recorder,
		publisher:     opts.Publisher,
		commands:      make(chan Command, 16),
		closed:        make(chan struct{}),
		listeners:     make(map[int]chan Update),
	}
	s.runID = uuid.NewV4().String()
	s.startedAt = time.Now()
	s.latest = sim.Snapshot()
	s.lastTick = sim.TickCount()
	return s
}

func (s *Session) TableID() string { return s.tableID }

func (s *Session) RunID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runID
}

// Snapshot returns the most recent table state.
func (s *Session) Snapshot() game.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Session) Info() Info {
	s.mu.RLock()
	snap := s.latest
	info := Info{
		TableID:   s.tableID,
		RunID:     s.runID,
		TickRate:  s.tickRate,
		Tick:      snap.Tick,
		State:     snap.RunState,
		Pocketed:  snap.PocketedCount,
		Settled:   snap.Settled,
		StartedAt: s.startedAt,
	}
	s.mu.RUnlock()

	s.listenersMu.Lock()
	info.Listeners = len(s.listeners)
	s.listenersMu.Unlock()
	return info
}

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} {
	return s.closed
}

// Submit queues a command for the loop goroutine.
func (s *Session) Submit(cmd Command) error {
	select {
	case <-s.closed:
		return ErrClosed
	default:
	}
	select {
	case s.commands <- cmd:
		return nil
	default:
		return ErrBusy
	}
}

// Subscribe registers a listener. Slow listeners miss updates rather than
// stall the loop. The returned func unsubscribes and closes the channel.
func (s *Session) Subscribe(buffer int) (<-chan Update, func()) {
	if buffer <= 0 {
		buffer = 32
	}
	ch := make(chan Update, buffer)

	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = ch
	s.listenersMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.listenersMu.Lock()
			if _, ok := s.listeners[id]; ok {
				delete(s.listeners, id)
				close(ch)
			}
			s.listenersMu.Unlock()
		})
	}
}

// Run drives the table until ctx is cancelled or a quit command lands. It
// returns nil on quit and ctx.Err() on cancellation.
func (s *Session) Run(ctx context.Context) error {
	defer s.closeListeners()
	defer close(s.closed)

	s.beginRun(ctx, "")
	log.Printf("[SESSION] table %s running at %d Hz (run %s)", s.tableID, s.tickRate, s.RunID())

	ticker := time.NewTicker(s.clock.Step())
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			s.endRun(context.Background(), models.EndReasonShutdown)
			log.Printf("[SESSION] table %s stopped: %v", s.tableID, ctx.Err())
			return ctx.Err()

		case <-s.sim.Done():
			s.endRun(ctx, models.EndReasonQuit)
			s.emit(s.update(UpdateQuit))
			log.Printf("[SESSION] table %s quit", s.tableID)
			return nil

		case cmd := <-s.commands:
			s.apply(ctx, cmd)

		case now := <-ticker.C:
			s.step(ctx, now.Sub(last))
			last = now
		}
	}
}

func (s *Session) apply(ctx context.Context, cmd Command) {
	log.Printf("[SESSION] table %s command %s", s.tableID, cmd)
	switch cmd {
	case CommandReset:
		s.restart(ctx, models.EndReasonReset)
	case CommandTogglePause:
		state := s.sim.TogglePause()
		s.clock.Reset()
		s.refresh()
		u := s.update(UpdateState)
		u.Snapshot = s.snapshotPtr()
		s.emit(u)
		s.publish(ctx, u)
		log.Printf("[SESSION] table %s now %s", s.tableID, state)
	case CommandQuit:
		s.sim.Quit()
	default:
		log.Printf("[SESSION] ignoring unknown command %q", cmd)
	}
}

func (s *Session) step(ctx context.Context, elapsed time.Duration) {
	_, err := s.clock.Advance(s.sim, elapsed)
	if err != nil {
		log.Printf("[SESSION] table %s run %s: %v; hard reset", s.tableID, s.RunID(), err)
		s.restart(ctx, models.EndReasonCorrupt)
		return
	}

	tick := s.sim.TickCount()
	if tick == s.lastTick {
		return
	}
	s.sinceSnapshot += tick - s.lastTick
	s.lastTick = tick
	s.refresh()

	captures := s.sim.Captures()
	if len(captures) > s.seenCaptures {
		for _, c := range captures[s.seenCaptures:] {
			s.recordCapture(ctx, c)
		}
		s.seenCaptures = len(captures)
		s.saveSnapshot(ctx)
	}

	if !s.settledMarked && s.sim.Settled() {
		s.settledMarked = true
		runID := s.RunID()
		log.Printf("[SESSION] table %s run %s settled at tick %d (pocketed=%d)", s.tableID, runID, tick, s.sim.PocketedCount())
		if s.recorder != nil {
			if err := s.recorder.MarkSettled(ctx, runID, tick); err != nil {
				log.Printf("[JOURNAL] %v", err)
			}
		}
		u := s.update(UpdateSettled)
		s.emit(u)
		s.publish(ctx, u)
	}

	if s.sinceSnapshot >= uint64(s.snapshotEvery) {
		s.sinceSnapshot = 0
		u := s.update(UpdateSnapshot)
		u.Snapshot = s.snapshotPtr()
		s.emit(u)
	}
}

func (s *Session) recordCapture(ctx context.Context, c game.Capture) {
	runID := s.RunID()
	log.Printf("[SESSION] table %s ball %d (%s) -> pocket %d at tick %d", s.tableID, c.Ball, c.Kind, c.Pocket, c.Tick)
	if s.recorder != nil {
		if err := s.recorder.RecordCapture(ctx, runID, c); err != nil {
			log.Printf("[JOURNAL] %v", err)
		}
	}
	u := s.update(UpdateCapture)
	capture := c
	u.Capture = &capture
	s.emit(u)
	s.publish(ctx, u)
}

// restart closes the current run, re-racks and opens a new run.
func (s *Session) restart(ctx context.Context, reason string) {
	s.endRun(ctx, reason)
	s.sim.Reset()
	s.clock.Reset()

	s.mu.Lock()
	s.runID = uuid.NewV4().String()
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.beginRun(ctx, reason)
}

// beginRun announces a freshly racked table; reason says why the previous run
// ended, empty on startup.
func (s *Session) beginRun(ctx context.Context, reason string) {
	s.seenCaptures = len(s.sim.Captures())
	s.settledMarked = false
	s.sinceSnapshot = 0
	s.lastTick = s.sim.TickCount()
	s.refresh()

	s.mu.RLock()
	runID, startedAt := s.runID, s.startedAt
	s.mu.RUnlock()

	if s.recorder != nil {
		run := journal.NewRun(runID, s.tableID, s.seed, s.sim.LastBreak(), startedAt)
		if err := s.recorder.StartRun(ctx, run); err != nil {
			log.Printf("[JOURNAL] %v", err)
		}
	}

	u := s.update(UpdateReset)
	u.Reason = reason
	u.Snapshot = s.snapshotPtr()
	s.emit(u)
	s.publish(ctx, u)
	s.saveSnapshot(ctx)
}

func (s *Session) endRun(ctx context.Context, reason string) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.FinishRun(ctx, s.RunID(), reason, s.sim.PocketedCount()); err != nil {
		log.Printf("[JOURNAL] %v", err)
	}
}

// refresh copies the simulation state into the shared snapshot.
func (s *Session) refresh() {
	snap := s.sim.Snapshot()
	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()
}

func (s *Session) snapshotPtr() *game.Snapshot {
	snap := s.Snapshot()
	return &snap
}

func (s *Session) update(t UpdateType) Update {
	snap := s.Snapshot()
	return Update{
		Type:     t,
		TableID:  s.tableID,
		RunID:    s.RunID(),
		Tick:     snap.Tick,
		Pocketed: snap.PocketedCount,
		State:    snap.RunState,
		At:       time.Now(),
	}
}

func (s *Session) emit(u Update) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	for id, ch := range s.listeners {
		select {
		case ch <- u:
		default:
			if u.Type != UpdateSnapshot {
				log.Printf("[SESSION] listener %d buffer full, dropped %s", id, u.Type)
			}
		}
	}
}

func (s *Session) publish(ctx context.Context, u Update) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, u); err != nil {
		log.Printf("[REDIS] publish %s for table %s failed: %v", u.Type, s.tableID, err)
	}
}

func (s *Session) saveSnapshot(ctx context.Context) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.SaveSnapshot(ctx, s.tableID, s.Snapshot()); err != nil {
		log.Printf("[REDIS] save snapshot for table %s failed: %v", s.tableID, err)
	}
}

func (s *Session) closeListeners() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	for id, ch := range s.listeners {
		close(ch)
		delete(s.listeners, id)
	}
}

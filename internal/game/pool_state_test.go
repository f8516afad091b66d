package game

import (
	"errors"
	"math"
	"testing"
	"time"
)

// sequenceRNG replays fixed draws, cycling when exhausted.
type sequenceRNG struct {
	vals []float64
	i    int
}

func (s *sequenceRNG) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func newTestSimulation(t *testing.T) *Simulation {
	t.Helper()
	sim, err := NewSimulation(DefaultParams(), NewSeededRNG(1))
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	return sim
}

func assertNoOverlap(t *testing.T, balls []Ball) {
	t.Helper()
	for i := range balls {
		for j := i + 1; j < len(balls); j++ {
			d := balls[i].Position.Distance(balls[j].Position)
			if d < balls[i].Radius+balls[j].Radius-1e-9 {
				t.Errorf("balls %d and %d overlap: distance=%.6f", balls[i].Number, balls[j].Number, d)
			}
		}
	}
}

func TestResetRacksTable(t *testing.T) {
	sim, err := NewSimulation(DefaultParams(), &sequenceRNG{vals: []float64{0.5}})
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	sim.ClearBalls()
	sim.PlaceBall(Ball{Number: 3, Position: sim.Table().Pockets[0].Center})
	if _, err := sim.Tick(testDT); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if sim.PocketedCount() != 1 {
		t.Fatalf("setup: expected one capture, got %d", sim.PocketedCount())
	}
	sim.TogglePause()

	sim.Reset()

	if sim.PocketedCount() != 0 {
		t.Errorf("counter should be zero after reset, got %d", sim.PocketedCount())
	}
	if sim.RunState() != StateRunning {
		t.Errorf("expected running after reset, got %s", sim.RunState())
	}
	if len(sim.Captures()) != 0 {
		t.Errorf("captures should be cleared, got %d", len(sim.Captures()))
	}

	balls := sim.Balls()
	if len(balls) != NumRackBalls+1 {
		t.Fatalf("expected %d balls, got %d", NumRackBalls+1, len(balls))
	}
	assertNoOverlap(t, balls)

	seen := make(map[int]bool)
	for _, b := range balls {
		seen[b.Number] = true
		if !sim.Table().Contains(b.Position) {
			t.Errorf("ball %d outside the rails at %v", b.Number, b.Position)
		}
		if b.Number != 0 && !b.Velocity.IsZero() {
			t.Errorf("racked ball %d should be at rest", b.Number)
		}
	}
	for n := 0; n <= NumRackBalls; n++ {
		if !seen[n] {
			t.Errorf("ball %d missing after reset", n)
		}
	}

	cue := balls[0]
	if !cue.IsCue() {
		t.Fatalf("first ball should be the cue ball, got %d", cue.Number)
	}
	// Draws of 0.5 put the cue ball mid-kitchen on the long axis, aimed straight
	// at the apex at the midpoint speed.
	wantX := -DefaultTableLength/2 + DefaultBallRadius + (DefaultTableLength*DefaultKitchenRatio-DefaultBallRadius)/2
	if math.Abs(cue.Position.X-wantX) > 1e-9 || cue.Position.Y != 0 {
		t.Errorf("cue at %v, want (%.3f, 0)", cue.Position, wantX)
	}
	wantSpeed := (DefaultBreakSpeedMin + DefaultBreakSpeedMax) / 2
	if math.Abs(cue.Speed()-wantSpeed) > 1e-9 || cue.Velocity.X <= 0 {
		t.Errorf("cue velocity %v, want %.1f toward the rack", cue.Velocity, wantSpeed)
	}

	for _, b := range balls {
		if b.Number == 1 && (b.Position.X != DefaultTableLength/4 || b.Position.Y != 0) {
			t.Errorf("apex ball should sit on the foot spot, got %v", b.Position)
		}
	}
}

func TestResetKeepsCueInKitchen(t *testing.T) {
	sim := newTestSimulation(t)
	kmin, kmax := kitchen(sim.Params())
	for i := 0; i < 50; i++ {
		sim.Reset()
		shot := sim.LastBreak()
		o := shot.Origin
		if o.X < kmin.X || o.X > kmax.X || o.Y < kmin.Y || o.Y > kmax.Y {
			t.Fatalf("cue origin %v outside kitchen [%v, %v]", o, kmin, kmax)
		}
		if shot.Speed < DefaultBreakSpeedMin || shot.Speed > DefaultBreakSpeedMax {
			t.Fatalf("break speed %.3f out of range", shot.Speed)
		}
		assertNoOverlap(t, sim.Balls())
	}
}

func TestFixedBreakSpeed(t *testing.T) {
	p := DefaultParams()
	p.BreakSpeedMin = 1000
	p.BreakSpeedMax = 1000
	sim, err := NewSimulation(p, NewSeededRNG(9))
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	if s := sim.Balls()[0].Speed(); math.Abs(s-1000) > 1e-9 {
		t.Errorf("expected break speed 1000, got %.6f", s)
	}
}

func TestPauseFreezesTable(t *testing.T) {
	sim := newTestSimulation(t)
	sim.Tick(testDT)

	if state := sim.TogglePause(); state != StatePaused {
		t.Fatalf("expected paused, got %s", state)
	}
	before := sim.Balls()
	ticks := sim.TickCount()

	for i := 0; i < 10; i++ {
		events, err := sim.Tick(testDT)
		if events != nil || err != nil {
			t.Fatalf("paused tick should be a no-op, got events=%v err=%v", events, err)
		}
	}

	after := sim.Balls()
	for i := range before {
		if before[i].Position != after[i].Position || before[i].Velocity != after[i].Velocity {
			t.Errorf("ball %d changed while paused", before[i].Number)
		}
	}
	if sim.TickCount() != ticks {
		t.Errorf("tick count advanced while paused")
	}

	if state := sim.TogglePause(); state != StateRunning {
		t.Fatalf("expected running, got %s", state)
	}
	sim.Tick(testDT)
	if sim.Balls()[0].Position == after[0].Position {
		t.Error("cue ball should move again after resuming")
	}
}

func TestDegenerateDTIsNoOp(t *testing.T) {
	sim := newTestSimulation(t)
	before := sim.Balls()

	for _, dt := range []float64{0, -testDT, math.NaN(), math.Inf(1), math.Inf(-1)} {
		events, err := sim.Tick(dt)
		if events != nil || err != nil {
			t.Errorf("dt=%v: expected no-op, got events=%v err=%v", dt, events, err)
		}
	}

	if sim.TickCount() != 0 {
		t.Errorf("tick count should stay zero, got %d", sim.TickCount())
	}
	if sim.Balls()[0].Position != before[0].Position {
		t.Error("cue ball moved on a degenerate tick")
	}
}

func TestSharedCounterIsMonotonic(t *testing.T) {
	sim := newTestSimulation(t)
	sim.ClearBalls()
	pockets := sim.Table().Pockets

	sim.PlaceBall(Ball{Number: 0, Kind: KindCue, Position: pockets[2].Center})
	sim.PlaceBall(Ball{Number: 8, Position: pockets[5].Center})
	sim.PlaceBall(Ball{Number: 9, Position: NewVec2(0, 0)})

	if _, err := sim.Tick(testDT); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if sim.PocketedCount() != 2 {
		t.Fatalf("expected cue and object ball to share one counter, got %d", sim.PocketedCount())
	}

	captures := sim.Captures()
	if len(captures) != 2 || captures[0].Kind != KindCue || captures[0].Pocket != 2 || captures[1].Pocket != 5 {
		t.Errorf("unexpected captures: %+v", captures)
	}
	if n := len(sim.Balls()); n != 1 {
		t.Errorf("captured balls should be removed, %d left", n)
	}

	prev := sim.PocketedCount()
	for i := 0; i < 100; i++ {
		sim.Tick(testDT)
		if sim.PocketedCount() < prev {
			t.Fatalf("counter decreased from %d to %d", prev, sim.PocketedCount())
		}
		prev = sim.PocketedCount()
	}
}

func TestCornerPocketEndToEnd(t *testing.T) {
	sim := newTestSimulation(t)
	sim.ClearBalls()

	hl, hw := DefaultTableLength/2, DefaultTableWidth/2
	sim.PlaceBall(Ball{
		Number:   11,
		Position: NewVec2(-hl+60, -hw+60),
		Velocity: NewVec2(-300, -300),
	})

	var pocketEvent *Event
	for i := 0; i < 2*DefaultTickRate && pocketEvent == nil; i++ {
		events, err := sim.Tick(testDT)
		if err != nil {
			t.Fatalf("Tick: %v", err)
		}
		for _, e := range events {
			if e.Type == EventPocket {
				ev := e
				pocketEvent = &ev
			}
			if e.Type == EventRail {
				t.Errorf("ball should drop cleanly, hit %s", sim.Table().Rails[e.Target].Name)
			}
		}
	}

	if pocketEvent == nil {
		t.Fatal("ball was never pocketed")
	}
	if pocketEvent.Ball != 11 || pocketEvent.Target != 0 {
		t.Errorf("expected ball 11 in the top-left pocket, got %+v", *pocketEvent)
	}
	if sim.PocketedCount() != 1 || len(sim.Balls()) != 0 {
		t.Errorf("expected count 1 and empty table, got %d and %d balls", sim.PocketedCount(), len(sim.Balls()))
	}
	if !sim.Settled() {
		t.Error("empty table should be settled")
	}
}

func TestDeterminism(t *testing.T) {
	run := func() ([]Ball, int) {
		sim, err := NewSimulation(DefaultParams(), NewSeededRNG(42))
		if err != nil {
			t.Fatalf("NewSimulation: %v", err)
		}
		for i := 0; i < 6*DefaultTickRate; i++ {
			if _, err := sim.Tick(testDT); err != nil {
				t.Fatalf("Tick: %v", err)
			}
		}
		return sim.Balls(), sim.PocketedCount()
	}

	balls1, count1 := run()
	balls2, count2 := run()

	if count1 != count2 || len(balls1) != len(balls2) {
		t.Fatalf("non-deterministic: counts %d/%d, balls %d/%d", count1, count2, len(balls1), len(balls2))
	}
	for i := range balls1 {
		if balls1[i].Number != balls2[i].Number || balls1[i].Position != balls2[i].Position {
			t.Errorf("non-deterministic: ball %d run1=%v run2=%v",
				balls1[i].Number, balls1[i].Position, balls2[i].Position)
		}
	}
}

func TestBreakStaysOnTable(t *testing.T) {
	p := DefaultParams()
	limitX := p.TableLength/2 + 3*p.PocketRadius
	limitY := p.TableWidth/2 + 3*p.PocketRadius

	for seed := uint64(1); seed <= 5; seed++ {
		sim, err := NewSimulation(p, NewSeededRNG(seed))
		if err != nil {
			t.Fatalf("NewSimulation: %v", err)
		}
		ballHits := 0
		for i := 0; i < 20*DefaultTickRate; i++ {
			events, err := sim.Tick(testDT)
			if err != nil {
				t.Fatalf("seed %d tick %d: %v", seed, i, err)
			}
			for _, e := range events {
				if e.Type == EventBallBall {
					ballHits++
				}
			}
			for _, b := range sim.Balls() {
				if math.Abs(b.Position.X) > limitX || math.Abs(b.Position.Y) > limitY {
					t.Fatalf("seed %d tick %d: ball %d escaped to %v", seed, i, b.Number, b.Position)
				}
			}
		}
		if ballHits < 3 {
			t.Errorf("seed %d: expected the break to scatter the rack, got %d ball hits", seed, ballHits)
		}
		if got := sim.PocketedCount() + len(sim.Balls()); got != NumRackBalls+1 {
			t.Errorf("seed %d: pocketed + live = %d, want %d", seed, got, NumRackBalls+1)
		}
	}
}

func TestCorruptStateIsReported(t *testing.T) {
	sim := newTestSimulation(t)
	sim.ClearBalls()
	sim.PlaceBall(Ball{Number: 2, Position: NewVec2(0, 0), Velocity: NewVec2(math.NaN(), 0)})

	_, err := sim.Tick(testDT)
	if !errors.Is(err, ErrCorruptState) {
		t.Fatalf("expected ErrCorruptState, got %v", err)
	}
}

func TestQuitIsIdempotent(t *testing.T) {
	sim := newTestSimulation(t)
	if sim.QuitRequested() {
		t.Fatal("quit should not be requested yet")
	}
	sim.Quit()
	sim.Quit()

	select {
	case <-sim.Done():
	default:
		t.Fatal("done channel should be closed")
	}
	if !sim.QuitRequested() {
		t.Error("quit should be requested")
	}
}

func TestSnapshot(t *testing.T) {
	sim := newTestSimulation(t)
	snap := sim.Snapshot()

	if len(snap.Balls) != NumRackBalls+1 {
		t.Errorf("expected %d balls, got %d", NumRackBalls+1, len(snap.Balls))
	}
	if len(snap.Pockets) != NumPockets {
		t.Errorf("expected %d pockets, got %d", NumPockets, len(snap.Pockets))
	}
	if len(snap.Rails) != 6+3*NumPockets {
		t.Errorf("expected %d rails, got %d", 6+3*NumPockets, len(snap.Rails))
	}
	if snap.RunState != StateRunning || snap.Settled || snap.PocketedCount != 0 {
		t.Errorf("unexpected snapshot state: %+v", snap)
	}

	snap.Balls[0].Position = NewVec2(1e6, 1e6)
	if sim.Balls()[0].Position == snap.Balls[0].Position {
		t.Error("snapshot should be a copy")
	}
}

func TestClockRunsFixedSteps(t *testing.T) {
	sim := newTestSimulation(t)
	clock := NewClock(DefaultTickRate)

	clock.Advance(sim, clock.Step()/2)
	if sim.TickCount() != 0 {
		t.Fatalf("half a step should not tick, got %d", sim.TickCount())
	}
	clock.Advance(sim, 3*clock.Step())
	if sim.TickCount() != 3 {
		t.Fatalf("expected 3 ticks, got %d", sim.TickCount())
	}

	clock.Advance(sim, 10*time.Second)
	if got := sim.TickCount(); got != 3+maxStepsPerAdvance {
		t.Errorf("catch-up should be capped, got %d ticks", got)
	}
}

func TestLongTickStaysOnTable(t *testing.T) {
	sim := newTestSimulation(t)
	sim.ClearBalls()

	hw := DefaultTableWidth / 2
	sim.PlaceBall(Ball{Number: 5, Position: NewVec2(100, hw-20), Velocity: NewVec2(0, 1200)})

	if _, err := sim.Tick(1.0 / 20); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := sim.Tick(testDT); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}

	for _, b := range sim.Balls() {
		if !sim.Table().WithinBounds(b.Position) {
			t.Errorf("ball %d left the table: at %v vel %v", b.Number, b.Position, b.Velocity)
		}
	}
	if got := sim.PocketedCount() + len(sim.Balls()); got != 1 {
		t.Errorf("pocketed + live = %d, want 1", got)
	}
	if sim.TickCount() != 6 {
		t.Errorf("substeps should not count as ticks, got %d", sim.TickCount())
	}
}

func TestLongTickDoesNotTunnelBalls(t *testing.T) {
	sim := newTestSimulation(t)
	sim.ClearBalls()
	sim.PlaceBall(Ball{Number: 1, Position: NewVec2(-30, 0), Velocity: NewVec2(2000, 0)})
	sim.PlaceBall(Ball{Number: 2, Position: NewVec2(30, 0), Velocity: NewVec2(-2000, 0)})

	events, err := sim.Tick(0.05)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}

	hits := 0
	for _, e := range events {
		if e.Type == EventBallBall {
			hits++
		}
	}
	if hits == 0 {
		t.Error("expected the balls to collide")
	}

	var x1, x2 float64
	for _, b := range sim.Balls() {
		switch b.Number {
		case 1:
			x1 = b.Position.X
		case 2:
			x2 = b.Position.X
		}
	}
	if x1 >= x2 {
		t.Errorf("balls passed through each other: ball 1 at x=%.1f, ball 2 at x=%.1f", x1, x2)
	}
	assertNoOverlap(t, sim.Balls())
}

func TestPlaceBallNumbersUnnumberedBalls(t *testing.T) {
	sim := newTestSimulation(t)
	sim.ClearBalls()
	sim.PlaceBall(Ball{Number: 0, Kind: KindCue, Position: NewVec2(-200, 0)})
	sim.PlaceBall(Ball{Number: 1, Position: NewVec2(0, 0)})
	sim.PlaceBall(Ball{Position: NewVec2(100, 0)})
	sim.PlaceBall(Ball{Kind: KindNumbered, Position: NewVec2(200, 0)})

	balls := sim.Balls()
	want := []int{0, 1, 2, 3}
	for i, b := range balls {
		if b.Number != want[i] {
			t.Errorf("ball %d: expected number %d, got %d", i, want[i], b.Number)
		}
	}
	if balls[2].Kind != KindNumbered {
		t.Errorf("expected an empty kind to become numbered, got %q", balls[2].Kind)
	}
}

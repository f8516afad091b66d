package game

import "math"

// EventType classifies what happened to a ball during a tick.
type EventType string

const (
	EventBallBall EventType = "ball"
	EventRail     EventType = "rail"
	EventPocket   EventType = "pocket"
)

// Event records a contact or capture for rule-free consumers (sound, journal).
type Event struct {
	Type   EventType `json:"type"`
	Tick   uint64    `json:"tick"`
	Ball   int       `json:"ball"`   // ball number
	Target int       `json:"target"` // ball number, rail index or pocket ID
	Speed  float64   `json:"speed"`  // impact speed
}

// PhysicsEngine advances live balls over a fixed table. It keeps no state of its
// own beyond the per-tick event log.
type PhysicsEngine struct {
	Params Params
	Table  *Table
	Events []Event
	tick   uint64
}

// NewPhysicsEngine creates a physics engine for the given table.
func NewPhysicsEngine(p Params, table *Table) *PhysicsEngine {
	return &PhysicsEngine{
		Params: p,
		Table:  table,
		Events: make([]Event, 0),
	}
}

// moveBalls advances every ball by velocity*dt and remembers where it started.
func (pe *PhysicsEngine) moveBalls(balls []*Ball, dt float64) {
	for _, ball := range balls {
		ball.start = ball.Position
		if ball.Velocity.IsZero() {
			continue
		}
		ball.Position = ball.Position.Plus(ball.Velocity.Times(dt))
	}
}

// applyFriction slows every ball without ever reversing its direction.
func (pe *PhysicsEngine) applyFriction(balls []*Ball, dt float64) {
	for _, ball := range balls {
		speed := ball.Velocity.Magnitude()
		if speed == 0 {
			continue
		}

		switch pe.Params.FrictionModel {
		case FrictionExponential:
			speed *= math.Pow(pe.Params.Damping, dt)
		default:
			speed -= pe.Params.Friction * dt
		}

		if speed <= 0 || speed < pe.Params.MinSpeed {
			ball.Velocity = Vec2{}
			continue
		}
		ball.Velocity = ball.Velocity.Normalize().Times(speed)
	}
}

// resolveBallCollisions visits every unordered pair once.
func (pe *PhysicsEngine) resolveBallCollisions(balls []*Ball) {
	for a := 0; a < len(balls); a++ {
		for b := a + 1; b < len(balls); b++ {
			pe.resolveBallBall(balls[a], balls[b])
		}
	}
}

// resolveBallBall separates two overlapping balls along their line of centers and,
// if they are closing on each other, exchanges their velocity components along that
// line. Perpendicular components are untouched.
func (pe *PhysicsEngine) resolveBallBall(ball, target *Ball) bool {
	delta := target.Position.Minus(ball.Position)
	minDist := ball.Radius + target.Radius
	distSq := delta.MagnitudeSquared()
	if distSq >= minDist*minDist {
		return false
	}

	dist := math.Sqrt(distSq)
	n := NewVec2(1, 0)
	if dist > 0 {
		n = delta.Times(1 / dist)
	}

	half := (minDist - dist) / 2
	ball.Position = ball.Position.Minus(n.Times(half))
	target.Position = target.Position.Plus(n.Times(half))

	if !checkObjectsConverging(ball.Position, target.Position, ball.Velocity, target.Velocity) {
		return true
	}

	ballNormal := ball.Velocity.Dot(n)
	targetNormal := target.Velocity.Dot(n)

	e := pe.Params.BallRestitution
	newBallNormal := targetNormal*e + ballNormal*(1-e)
	newTargetNormal := ballNormal*e + targetNormal*(1-e)

	ball.Velocity = ball.Velocity.Plus(n.Times(newBallNormal - ballNormal))
	target.Velocity = target.Velocity.Plus(n.Times(newTargetNormal - targetNormal))

	pe.Events = append(pe.Events,
		Event{Type: EventBallBall, Tick: pe.tick, Ball: ball.Number, Target: target.Number, Speed: ballNormal - targetNormal},
		Event{Type: EventBallBall, Tick: pe.tick, Ball: target.Number, Target: ball.Number, Speed: ballNormal - targetNormal},
	)
	return true
}

// resolveRailCollisions pushes balls out of rails and reflects the normal
// component of any ball moving into one.
func (pe *PhysicsEngine) resolveRailCollisions(balls []*Ball) {
	for _, ball := range balls {
		for i := range pe.Table.Rails {
			pe.resolveBallRail(ball, i)
		}
	}
}

func (pe *PhysicsEngine) resolveBallRail(ball *Ball, railIndex int) bool {
	rail := &pe.Table.Rails[railIndex]
	n, depth, ok := rail.contact(ball.Position, ball.Radius)
	if !ok {
		return false
	}

	ball.Position = ball.Position.Plus(n.Times(depth))

	normalSpeed := ball.Velocity.Dot(n)
	if normalSpeed >= 0 {
		return true
	}
	// Negate the normal component (scaled by restitution), keep the parallel one.
	ball.Velocity = ball.Velocity.Minus(n.Times((1 + pe.Params.RailRestitution) * normalSpeed))

	pe.Events = append(pe.Events, Event{
		Type:   EventRail,
		Tick:   pe.tick,
		Ball:   ball.Number,
		Target: railIndex,
		Speed:  -normalSpeed,
	})
	return true
}

package game

// Capture records a ball dropping into a pocket.
type Capture struct {
	Ball   int      `json:"ball"`
	Kind   BallKind `json:"kind"`
	Pocket int      `json:"pocket"`
	Tick   uint64   `json:"tick"`
}

// capturePockets tests every live ball against every pocket in order. A ball is
// taken by the first pocket whose circle contains its center, or whose circle its
// path crossed during this tick. Captured balls are marked dead and stopped; the
// caller removes them. Returns the captures in ball order.
func (pe *PhysicsEngine) capturePockets(balls []*Ball) []Capture {
	var captures []Capture
	for _, ball := range balls {
		if !ball.Alive {
			continue
		}
		for _, pocket := range pe.Table.Pockets {
			if !segmentTouchesCircle(ball.start, ball.Position, pocket.Center, pocket.Radius) {
				continue
			}

			speed := ball.Velocity.Magnitude()
			ball.Alive = false
			ball.Velocity = Vec2{}

			captures = append(captures, Capture{
				Ball:   ball.Number,
				Kind:   ball.Kind,
				Pocket: pocket.ID,
				Tick:   pe.tick,
			})
			pe.Events = append(pe.Events, Event{
				Type:   EventPocket,
				Tick:   pe.tick,
				Ball:   ball.Number,
				Target: pocket.ID,
				Speed:  speed,
			})
			break
		}
	}
	return captures
}

// removeDead compacts balls in place, keeping order.
func removeDead(balls []*Ball) []*Ball {
	live := balls[:0]
	for _, b := range balls {
		if b.Alive {
			live = append(live, b)
		}
	}
	for i := len(live); i < len(balls); i++ {
		balls[i] = nil
	}
	return live
}

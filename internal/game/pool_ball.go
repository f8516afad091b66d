package game

// BallKind tags the cue ball apart from the numbered balls. Both share all physics.
type BallKind string

const (
	KindCue      BallKind = "cue"
	KindNumbered BallKind = "numbered"
)

// Ball represents a single pool ball's physics state.
type Ball struct {
	Number   int      `json:"number"` // 0 = cue, 1-15 = rack numbers
	Kind     BallKind `json:"kind"`
	Position Vec2     `json:"position"`
	Velocity Vec2     `json:"velocity"`
	Radius   float64  `json:"radius"`
	Alive    bool     `json:"alive"`

	// start is the position at the beginning of the current tick, used to sweep
	// the ball's path through the pockets.
	start Vec2
}

func (b *Ball) IsCue() bool {
	return b.Kind == KindCue
}

// Speed returns the magnitude of the ball's velocity.
func (b *Ball) Speed() float64 {
	return b.Velocity.Magnitude()
}

func (b *Ball) finite() bool {
	return b.Position.IsFinite() && b.Velocity.IsFinite()
}

// BallView is the render-facing projection of a live ball.
type BallView struct {
	Number   int      `json:"number"`
	Kind     BallKind `json:"kind"`
	Position Vec2     `json:"position"`
	Radius   float64  `json:"radius"`
}

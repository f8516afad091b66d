package game

import (
	"fmt"
	"math"
)

// rackRows lists ball numbers row by row from the apex, each row ordered from -y
// to +y. The 8 sits in the middle of the third row, the 1 on the apex.
var rackRows = [][]int{
	{1},
	{15, 2},
	{10, 8, 5},
	{6, 9, 7, 4},
	{3, 13, 11, 12, 14},
}

// BreakShot records how the cue ball was launched on the last reset.
type BreakShot struct {
	Origin Vec2    `json:"origin"`
	Target Vec2    `json:"target"`
	Angle  float64 `json:"angle"` // radians
	Speed  float64 `json:"speed"`
}

// AngleDegrees is the aim angle for display.
func (b BreakShot) AngleDegrees() float64 {
	return b.Angle * 180 / math.Pi
}

// footSpot is the rack apex position.
func footSpot(p Params) Vec2 {
	return NewVec2(p.TableLength*p.FootSpotRatio-p.TableLength/2, 0)
}

// rackSpacing is the center-to-center distance between touching racked balls.
func rackSpacing(p Params) float64 {
	return 2 * p.BallRadius * (1 + p.RackGap)
}

// StandardRack returns the 15 numbered balls in the triangle with its apex on the
// foot spot, pointing at the head of the table.
func StandardRack(p Params) []Ball {
	apex := footSpot(p)
	d := rackSpacing(p)
	rowStep := d * math.Sqrt(3) / 2

	balls := make([]Ball, 0, NumRackBalls)
	for row, numbers := range rackRows {
		x := apex.X + float64(row)*rowStep
		for col, n := range numbers {
			y := (float64(col) - float64(row)/2) * d
			balls = append(balls, Ball{
				Number:   n,
				Kind:     KindNumbered,
				Position: NewVec2(x, apex.Y+y),
				Radius:   p.BallRadius,
				Alive:    true,
			})
		}
	}
	return balls
}

// kitchen returns the rectangle the cue ball may start in: the head quarter of
// the table, kept one ball radius off the rails.
func kitchen(p Params) (min, max Vec2) {
	hl, hw := p.TableLength/2, p.TableWidth/2
	r := p.BallRadius
	min = NewVec2(-hl+r, -hw+r)
	max = NewVec2(-hl+p.TableLength*p.KitchenRatio, hw-r)
	return min, max
}

// validateLayout checks that the rack fits inside the rails and that every cue
// position in the kitchen stays clear of it, so Reset can never fail.
func validateLayout(p Params) error {
	hl, hw := p.TableLength/2, p.TableWidth/2
	rack := StandardRack(p)

	minX := math.Inf(1)
	for _, b := range rack {
		if math.Abs(b.Position.X)+b.Radius > hl || math.Abs(b.Position.Y)+b.Radius > hw {
			return fmt.Errorf("%w: ball %d at (%.1f, %.1f)", ErrRackDoesNotFit, b.Number, b.Position.X, b.Position.Y)
		}
		minX = math.Min(minX, b.Position.X)
	}

	kmin, kmax := kitchen(p)
	if kmax.X < kmin.X || kmax.Y < kmin.Y {
		return fmt.Errorf("%w: empty kitchen", ErrKitchenUnavailable)
	}
	if kmax.X+2*p.BallRadius > minX {
		return fmt.Errorf("%w: kitchen reaches x=%.1f, rack starts at x=%.1f", ErrKitchenUnavailable, kmax.X, minX)
	}
	return nil
}

// breakShot draws a cue position uniformly from the kitchen and aims it at the
// rack apex with a speed drawn from the configured range.
func breakShot(p Params, rng RandomSource) BreakShot {
	kmin, kmax := kitchen(p)
	origin := NewVec2(uniform(rng, kmin.X, kmax.X), uniform(rng, kmin.Y, kmax.Y))
	target := footSpot(p)
	angle := target.Minus(origin).Angle()
	speed := uniform(rng, p.BreakSpeedMin, p.BreakSpeedMax)
	return BreakShot{Origin: origin, Target: target, Angle: angle, Speed: speed}
}

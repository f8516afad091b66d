package game

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrPocketCount        = errors.New("table must have exactly 6 pockets")
	ErrPocketTooSmall     = errors.New("pocket radius must exceed ball radius")
	ErrPocketIntrudes     = errors.New("pocket intrudes past the inner rail line")
	ErrMouthTooNarrow     = errors.New("pocket mouth cannot pass a ball")
	ErrInvalidDimensions  = errors.New("table dimensions must be positive")
	ErrRackDoesNotFit     = errors.New("rack does not fit on the table")
	ErrKitchenUnavailable = errors.New("kitchen cannot hold the cue ball clear of the rack")
)

// geometryEpsilon absorbs float error in placement checks (table units).
const geometryEpsilon = 1e-9

// RailKind distinguishes the playing cushions from the pocket channel walls.
type RailKind string

const (
	RailCushion RailKind = "cushion"
	RailJaw     RailKind = "jaw"
	RailBack    RailKind = "back"
)

// RailSegment is one straight wall. Normal is the unit normal facing the side
// balls are allowed to occupy.
type RailSegment struct {
	Name   string   `json:"name"`
	Kind   RailKind `json:"kind"`
	P1     Vec2     `json:"p1"`
	P2     Vec2     `json:"p2"`
	Normal Vec2     `json:"normal"`
	Pocket int      `json:"pocket"` // owning pocket for jaw/back walls, -1 for cushions
}

// contact returns the push-out normal and depth when a ball of the given radius
// centered at c touches the segment. Interior contacts use the signed distance so a
// ball that crossed the wall inside a single tick (up to one diameter) is recovered;
// endpoint contacts use the radial direction.
func (r RailSegment) contact(c Vec2, radius float64) (Vec2, float64, bool) {
	closest, t := closestPointOnSegment(r.P1, r.P2, c)
	if t > 0 && t < 1 {
		signed := c.Minus(r.P1).Dot(r.Normal)
		if signed >= radius || signed <= -2*radius {
			return Vec2{}, 0, false
		}
		return r.Normal, radius - signed, true
	}

	off := c.Minus(closest)
	dist := off.Magnitude()
	if dist >= radius || dist == 0 {
		return Vec2{}, 0, false
	}
	return off.Times(1 / dist), radius - dist, true
}

// Pocket is a circular capture zone.
type Pocket struct {
	ID     int     `json:"id"`
	Center Vec2    `json:"center"`
	Radius float64 `json:"radius"`
	Corner bool    `json:"corner"`
}

// Table holds the complete table geometry. It is immutable after construction.
type Table struct {
	Length  float64       `json:"length"`
	Width   float64       `json:"width"`
	Rails   []RailSegment `json:"rails"`
	Pockets []Pocket      `json:"pockets"`
}

// HalfLength and HalfWidth are the inner rail lines' distances from the center.
func (t *Table) HalfLength() float64 { return t.Length / 2 }
func (t *Table) HalfWidth() float64  { return t.Width / 2 }

// pocketMouth describes where the rail is cut for one pocket.
type pocketMouth struct {
	name   string
	ref    Vec2 // rail corner or rail midpoint
	axis   Vec2 // unit outward direction of the channel
	a, b   Vec2 // cushion ends on either side of the mouth
	corner bool
}

// NewTable builds the six-pocket table described by p: cushions between the
// pocket mouths, and a closed channel (two jaws and a back wall) outboard of every
// mouth so that a ball entering it is either captured or bounced back.
func NewTable(p Params) *Table {
	hl := p.TableLength / 2
	hw := p.TableWidth / 2
	pr := p.PocketRadius
	cm := p.CornerMouth * pr
	sm := p.SideMouth * pr
	diag := 1 / math.Sqrt2

	// Pocket order: top-left, top-side, top-right, bottom-left, bottom-side, bottom-right.
	mouths := []pocketMouth{
		{name: "top-left", ref: NewVec2(-hl, -hw), axis: NewVec2(-diag, -diag),
			a: NewVec2(-hl+cm, -hw), b: NewVec2(-hl, -hw+cm), corner: true},
		{name: "top-side", ref: NewVec2(0, -hw), axis: NewVec2(0, -1),
			a: NewVec2(-sm, -hw), b: NewVec2(sm, -hw)},
		{name: "top-right", ref: NewVec2(hl, -hw), axis: NewVec2(diag, -diag),
			a: NewVec2(hl-cm, -hw), b: NewVec2(hl, -hw+cm), corner: true},
		{name: "bottom-left", ref: NewVec2(-hl, hw), axis: NewVec2(-diag, diag),
			a: NewVec2(-hl+cm, hw), b: NewVec2(-hl, hw-cm), corner: true},
		{name: "bottom-side", ref: NewVec2(0, hw), axis: NewVec2(0, 1),
			a: NewVec2(-sm, hw), b: NewVec2(sm, hw)},
		{name: "bottom-right", ref: NewVec2(hl, hw), axis: NewVec2(diag, diag),
			a: NewVec2(hl-cm, hw), b: NewVec2(hl, hw-cm), corner: true},
	}

	cushions := []RailSegment{
		{Name: "top-left cushion", P1: NewVec2(-hl+cm, -hw), P2: NewVec2(-sm, -hw), Normal: NewVec2(0, 1)},
		{Name: "top-right cushion", P1: NewVec2(sm, -hw), P2: NewVec2(hl-cm, -hw), Normal: NewVec2(0, 1)},
		{Name: "right cushion", P1: NewVec2(hl, -hw+cm), P2: NewVec2(hl, hw-cm), Normal: NewVec2(-1, 0)},
		{Name: "bottom-right cushion", P1: NewVec2(hl-cm, hw), P2: NewVec2(sm, hw), Normal: NewVec2(0, -1)},
		{Name: "bottom-left cushion", P1: NewVec2(-sm, hw), P2: NewVec2(-hl+cm, hw), Normal: NewVec2(0, -1)},
		{Name: "left cushion", P1: NewVec2(-hl, hw-cm), P2: NewVec2(-hl, -hw+cm), Normal: NewVec2(1, 0)},
	}

	rails := make([]RailSegment, 0, len(cushions)+3*len(mouths))
	for _, c := range cushions {
		c.Kind = RailCushion
		c.Pocket = -1
		rails = append(rails, c)
	}

	pockets := make([]Pocket, 0, len(mouths))
	for id, m := range mouths {
		offset := pr + p.PocketSetback
		center := m.ref.Plus(m.axis.Times(offset))
		pockets = append(pockets, Pocket{ID: id, Center: center, Radius: pr, Corner: m.corner})

		// Jaws run along the axis from the cushion ends to one pocket radius past
		// the pocket center; the back wall closes the channel.
		reach := offset + pr
		jawEnd := func(e Vec2) Vec2 {
			along := e.Minus(m.ref).Dot(m.axis)
			return e.Plus(m.axis.Times(reach - along))
		}
		jawNormal := func(e Vec2) Vec2 {
			rel := e.Minus(m.ref)
			lateral := rel.Minus(m.axis.Times(rel.Dot(m.axis)))
			return lateral.Normalize().Invert()
		}
		endA, endB := jawEnd(m.a), jawEnd(m.b)
		rails = append(rails,
			RailSegment{Name: m.name + " jaw a", Kind: RailJaw, P1: m.a, P2: endA, Normal: jawNormal(m.a), Pocket: id},
			RailSegment{Name: m.name + " jaw b", Kind: RailJaw, P1: m.b, P2: endB, Normal: jawNormal(m.b), Pocket: id},
			RailSegment{Name: m.name + " back", Kind: RailBack, P1: endA, P2: endB, Normal: m.axis.Invert(), Pocket: id},
		)
	}

	return &Table{
		Length:  p.TableLength,
		Width:   p.TableWidth,
		Rails:   rails,
		Pockets: pockets,
	}
}

// ValidateTable enforces the construction invariants: six pockets, each larger
// than a ball, none intruding into the inner rail rectangle, and every mouth wide
// enough for a ball's full body.
func ValidateTable(t *Table, ballRadius float64) error {
	if t == nil || t.Length <= 0 || t.Width <= 0 {
		return ErrInvalidDimensions
	}
	if len(t.Pockets) != NumPockets {
		return fmt.Errorf("%w: got %d", ErrPocketCount, len(t.Pockets))
	}

	hl, hw := t.HalfLength(), t.HalfWidth()
	for _, pk := range t.Pockets {
		if pk.Radius <= ballRadius {
			return fmt.Errorf("%w: pocket %d radius %.3f <= ball radius %.3f", ErrPocketTooSmall, pk.ID, pk.Radius, ballRadius)
		}
		if intrusion := pocketIntrusion(pk, hl, hw); intrusion > geometryEpsilon*math.Max(1, pk.Radius) {
			return fmt.Errorf("%w: pocket %d by %.4f", ErrPocketIntrudes, pk.ID, intrusion)
		}
	}

	for _, r := range t.Rails {
		if r.Kind != RailBack {
			continue
		}
		// The back wall spans the channel, so its length is the mouth width.
		if r.P1.Distance(r.P2) <= 2*ballRadius {
			return fmt.Errorf("%w: %s", ErrMouthTooNarrow, r.Name)
		}
	}
	return nil
}

// pocketIntrusion returns how far a pocket circle reaches into the open inner
// rectangle; zero or negative means it stays on or outside the rail line.
func pocketIntrusion(pk Pocket, hl, hw float64) float64 {
	c := pk.Center
	inside := math.Abs(c.X) < hl && math.Abs(c.Y) < hw
	if inside {
		// Distance from the center to the nearest rail line, plus the radius.
		return pk.Radius + math.Min(hl-math.Abs(c.X), hw-math.Abs(c.Y))
	}
	closest := NewVec2(clamp(c.X, -hl, hl), clamp(c.Y, -hw, hw))
	return pk.Radius - c.Distance(closest)
}

// PocketClearance returns, for a pocket, the distance from the table center to
// the pocket's innermost point minus the distance to the inner rail line along the
// same direction. It is never negative on a valid table.
func (t *Table) PocketClearance(pk Pocket) float64 {
	dir := pk.Center.Normalize()
	rail := rayToRectangle(dir, t.HalfLength(), t.HalfWidth())
	return pk.Center.Magnitude() - pk.Radius - rail
}

// Contains reports whether c lies inside the inner rail rectangle.
func (t *Table) Contains(c Vec2) bool {
	return math.Abs(c.X) <= t.HalfLength() && math.Abs(c.Y) <= t.HalfWidth()
}

// WithinBounds reports whether c lies on the table: inside the inner rectangle
// or inside one of the pocket channels.
func (t *Table) WithinBounds(c Vec2) bool {
	if t.Contains(c) {
		return true
	}
	for _, pk := range t.Pockets {
		// The channel never reaches further than two pocket radii past its center
		// line, which bounds it comfortably.
		if c.Distance(pk.Center) <= 3*pk.Radius {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

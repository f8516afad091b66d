package game

import "math"

// Vec2 is a 2D vector in table coordinates.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Plus(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Minus(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Times(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Cross returns the z component of the 3D cross product.
func (v Vec2) Cross(o Vec2) float64 {
	return v.X*o.Y - v.Y*o.X
}

func (v Vec2) Magnitude() float64 {
	return math.Hypot(v.X, v.Y)
}

func (v Vec2) MagnitudeSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

func (v Vec2) Distance(o Vec2) float64 {
	return v.Minus(o).Magnitude()
}

func (v Vec2) Normalize() Vec2 {
	m := v.Magnitude()
	if m == 0 {
		return Vec2{}
	}
	return v.Times(1.0 / m)
}

func (v Vec2) RightNormal() Vec2 {
	return Vec2{X: v.Y, Y: -v.X}
}

func (v Vec2) LeftNormal() Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}

// Reflect mirrors v about a surface with unit normal n.
func (v Vec2) Reflect(n Vec2) Vec2 {
	return v.Minus(n.Times(2 * v.Dot(n)))
}

// Angle returns the heading of v in radians.
func (v Vec2) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

func (v Vec2) Invert() Vec2 {
	return Vec2{X: -v.X, Y: -v.Y}
}

func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// IsFinite reports whether both components are neither NaN nor infinite.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

func FromAngle(radians, length float64) Vec2 {
	return Vec2{X: length * math.Cos(radians), Y: length * math.Sin(radians)}
}

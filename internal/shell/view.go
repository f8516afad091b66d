package shell

import (
	"math"

	"github.com/playmatatu/pooltable/internal/game"
)

// View maps table coordinates onto a screen area.
type View struct {
	MinX, MinY float64
	MaxX, MaxY float64
	ScaleX     float64
	ScaleY     float64
	OffX, OffY float64
}

// Fit scales the table, pockets included, into a w x h area whose origin is at
// (offX, offY). cellAspect is the height/width ratio of one screen unit: 1 for
// pixels, about 2 for terminal cells.
func Fit(snap game.Snapshot, w, h, offX, offY, cellAspect float64) View {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	grow := func(x0, y0, x1, y1 float64) {
		minX, minY = math.Min(minX, x0), math.Min(minY, y0)
		maxX, maxY = math.Max(maxX, x1), math.Max(maxY, y1)
	}
	for _, p := range snap.Pockets {
		grow(p.Center.X-p.Radius, p.Center.Y-p.Radius, p.Center.X+p.Radius, p.Center.Y+p.Radius)
	}
	for _, r := range snap.Rails {
		grow(math.Min(r.P1.X, r.P2.X), math.Min(r.P1.Y, r.P2.Y), math.Max(r.P1.X, r.P2.X), math.Max(r.P1.Y, r.P2.Y))
	}
	if cellAspect <= 0 {
		cellAspect = 1
	}
	if math.IsInf(minX, 0) || maxX <= minX || maxY <= minY || w <= 0 || h <= 0 {
		return View{ScaleX: 1, ScaleY: 1, OffX: offX, OffY: offY}
	}

	spanX, spanY := maxX-minX, maxY-minY
	scale := math.Min(w/spanX, cellAspect*h/spanY)
	v := View{
		MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY,
		ScaleX: scale,
		ScaleY: scale / cellAspect,
	}
	v.OffX = offX + (w-spanX*v.ScaleX)/2
	v.OffY = offY + (h-spanY*v.ScaleY)/2
	return v
}

// Map converts a table point to screen coordinates.
func (v View) Map(p game.Vec2) (float64, float64) {
	return v.OffX + (p.X-v.MinX)*v.ScaleX, v.OffY + (p.Y-v.MinY)*v.ScaleY
}

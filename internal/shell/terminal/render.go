// Package terminal draws the table in a character grid with tcell and plays
// pocket and contact clicks through beep.
package terminal

import (
	"math"
	"strconv"

	"github.com/gdamore/tcell/v2"

	"github.com/playmatatu/pooltable/internal/game"
	"github.com/playmatatu/pooltable/internal/shell"
)

const hudRows = 3

var (
	styleDefault = tcell.StyleDefault
	styleCloth   = tcell.StyleDefault.Background(tcell.ColorDarkGreen)
	styleRail    = tcell.StyleDefault.Foreground(tcell.ColorSaddleBrown).Background(tcell.ColorDarkGreen)
	stylePocket  = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorDarkGreen)
	styleCue     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDarkGreen).Bold(true)
	styleHUD     = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	stylePaused  = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

// ballColors follows the usual set: solids 1-7, the 8, stripes 9-15 repeat 1-7.
var ballColors = [...]tcell.Color{
	tcell.ColorYellow, tcell.ColorBlue, tcell.ColorRed, tcell.ColorPurple,
	tcell.ColorOrange, tcell.ColorGreen, tcell.ColorMaroon,
}

func ballStyle(b game.BallView) (rune, tcell.Style) {
	if b.Kind == game.KindCue {
		return 'O', styleCue
	}
	if b.Number == 8 {
		return '8', tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	}
	color := ballColors[(b.Number-1)%len(ballColors)]
	glyph := rune(strconv.FormatInt(int64(b.Number), 16)[0])
	style := tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(color)
	if b.Number > 8 {
		style = tcell.StyleDefault.Foreground(color).Background(tcell.ColorWhite)
	}
	return glyph, style
}

// viewport rounds a shell.View onto whole cells.
type viewport struct {
	shell.View
}

// newViewport fits the table into w x h cells below the HUD. Terminal cells are
// about twice as tall as wide.
func newViewport(snap game.Snapshot, w, h int) viewport {
	return viewport{shell.Fit(snap, float64(w-1), float64(h-1), 0, hudRows, 2)}
}

func (v viewport) cell(p game.Vec2) (int, int) {
	x, y := v.Map(p)
	return int(math.Round(x)), int(math.Round(y))
}

// Renderer paints snapshots onto a tcell screen.
type Renderer struct {
	screen tcell.Screen
}

func NewRenderer(screen tcell.Screen) *Renderer {
	return &Renderer{screen: screen}
}

// Draw renders one frame.
func (r *Renderer) Draw(snap game.Snapshot) {
	s := r.screen
	s.Clear()
	w, h := s.Size()
	if w < 10 || h < hudRows+4 {
		drawText(s, 0, 0, "window too small", styleHUD)
		s.Show()
		return
	}

	v := newViewport(snap, w, h-hudRows-1)

	x0, y0 := v.cell(game.NewVec2(v.MinX, v.MinY))
	x1, y1 := v.cell(game.NewVec2(v.MaxX, v.MaxY))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			s.SetContent(x, y, ' ', nil, styleCloth)
		}
	}
	for _, rail := range snap.Rails {
		r.drawSegment(v, rail.P1, rail.P2)
	}
	for _, p := range snap.Pockets {
		x, y := v.cell(p.Center)
		s.SetContent(x, y, '●', nil, stylePocket)
	}
	for _, b := range snap.Balls {
		x, y := v.cell(b.Position)
		if y < hudRows {
			continue
		}
		glyph, style := ballStyle(b)
		s.SetContent(x, y, glyph, nil, style)
	}

	for i, line := range shell.HUD(snap) {
		style := styleHUD
		if line == "PAUSED" {
			style = stylePaused
		}
		drawText(s, 1, i, line, style)
	}
	drawText(s, 1, h-1, shell.HelpLine(), styleDefault)
	s.Show()
}

// drawSegment stamps rail cells along a wall.
func (r *Renderer) drawSegment(v viewport, a, b game.Vec2) {
	x0, y0 := v.cell(a)
	x1, y1 := v.cell(b)
	steps := max(abs(x1-x0), abs(y1-y0))
	if steps == 0 {
		r.screen.SetContent(x0, y0, '+', nil, styleRail)
		return
	}
	glyph := '─'
	if abs(y1-y0) > abs(x1-x0) {
		glyph = '│'
	} else if x1 != x0 && y1 != y0 {
		glyph = '+'
	}
	for i := 0; i <= steps; i++ {
		x := x0 + (x1-x0)*i/steps
		y := y0 + (y1-y0)*i/steps
		r.screen.SetContent(x, y, glyph, nil, styleRail)
	}
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, ch := range text {
		s.SetContent(x, y, ch, nil, style)
		x++
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

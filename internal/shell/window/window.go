// Package window renders the table in a desktop window with ebiten.
package window

import (
	"errors"
	"image/color"
	"log"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/playmatatu/pooltable/internal/game"
	"github.com/playmatatu/pooltable/internal/shell"
)

const (
	screenW   = 1000
	screenH   = 600
	hudHeight = 60
)

var (
	colorBackground = color.RGBA{0x20, 0x14, 0x0c, 0xff}
	colorCloth      = color.RGBA{0x0b, 0x6b, 0x3a, 0xff}
	colorRail       = color.RGBA{0x8b, 0x5a, 0x2b, 0xff}
	colorPocket     = color.RGBA{0x05, 0x05, 0x05, 0xff}
	colorCue        = color.RGBA{0xf5, 0xf5, 0xf0, 0xff}
	colorEight      = color.RGBA{0x10, 0x10, 0x10, 0xff}
)

var ballColors = [...]color.RGBA{
	{0xf2, 0xc1, 0x1d, 0xff}, // yellow
	{0x1d, 0x4e, 0xd8, 0xff}, // blue
	{0xd8, 0x2b, 0x2b, 0xff}, // red
	{0x6b, 0x2b, 0xa8, 0xff}, // purple
	{0xf0, 0x7d, 0x1a, 0xff}, // orange
	{0x1a, 0x8f, 0x3c, 0xff}, // green
	{0x7a, 0x1f, 0x1f, 0xff}, // maroon
}

// keys maps ebiten keys onto the shared binding names.
var keys = map[ebiten.Key]string{
	ebiten.KeyR:     "r",
	ebiten.KeyQ:     "q",
	ebiten.KeySpace: "space",
}

// Game implements ebiten.Game. ebiten calls Update at the tick rate, so each
// Update advances the table by exactly one fixed step.
type Game struct {
	sim *game.Simulation
	dt  float64
}

func NewGame(sim *game.Simulation, tickRate int) *Game {
	if tickRate <= 0 {
		tickRate = game.DefaultTickRate
	}
	return &Game{sim: sim, dt: 1 / float64(tickRate)}
}

// Run opens the window and blocks until the table quits or the window closes.
func Run(sim *game.Simulation, tickRate int) error {
	g := NewGame(sim, tickRate)
	ebiten.SetTPS(int(1/g.dt + 0.5))
	ebiten.SetWindowSize(screenW, screenH)
	ebiten.SetWindowTitle("Pool Table")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

func (g *Game) Update() error {
	for key, name := range keys {
		if !inpututil.IsKeyJustPressed(key) {
			continue
		}
		if action, ok := shell.Lookup(name); ok {
			shell.Apply(g.sim, action)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.sim.Quit()
	}
	if g.sim.QuitRequested() {
		return ebiten.Termination
	}

	if _, err := g.sim.Tick(g.dt); err != nil {
		log.Printf("[SHELL] %v; re-racking", err)
		g.sim.Reset()
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)
	snap := g.sim.Snapshot()
	w := float64(screen.Bounds().Dx())
	h := float64(screen.Bounds().Dy())
	v := shell.Fit(snap, w-40, h-hudHeight-20, 20, hudHeight, 1)

	x0, y0 := v.Map(game.NewVec2(v.MinX, v.MinY))
	x1, y1 := v.Map(game.NewVec2(v.MaxX, v.MaxY))
	vector.DrawFilledRect(screen, float32(x0), float32(y0), float32(x1-x0), float32(y1-y0), colorCloth, true)

	railWidth := float32(3)
	for _, r := range snap.Rails {
		ax, ay := v.Map(r.P1)
		bx, by := v.Map(r.P2)
		vector.StrokeLine(screen, float32(ax), float32(ay), float32(bx), float32(by), railWidth, colorRail, true)
	}
	for _, p := range snap.Pockets {
		cx, cy := v.Map(p.Center)
		vector.DrawFilledCircle(screen, float32(cx), float32(cy), float32(p.Radius*v.ScaleX), colorPocket, true)
	}
	for _, b := range snap.Balls {
		drawBall(screen, v, b)
	}

	ebitenutil.DebugPrintAt(screen, strings.Join(shell.HUD(snap), "\n"), 10, 6)
	ebitenutil.DebugPrintAt(screen, shell.HelpLine(), 10, int(h)-18)
}

func drawBall(screen *ebiten.Image, v shell.View, b game.BallView) {
	cx, cy := v.Map(b.Position)
	r := float32(b.Radius * v.ScaleX)
	x, y := float32(cx), float32(cy)

	switch {
	case b.Kind == game.KindCue:
		vector.DrawFilledCircle(screen, x, y, r, colorCue, true)
	case b.Number == 8:
		vector.DrawFilledCircle(screen, x, y, r, colorEight, true)
	case b.Number > 8:
		vector.DrawFilledCircle(screen, x, y, r, colorCue, true)
		vector.DrawFilledRect(screen, x-0.85*r, y-r/2, 1.7*r, r, ballColors[(b.Number-1)%len(ballColors)], true)
	default:
		vector.DrawFilledCircle(screen, x, y, r, ballColors[(b.Number-1)%len(ballColors)], true)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

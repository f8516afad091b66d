package terminal

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/playmatatu/pooltable/internal/game"
	"github.com/playmatatu/pooltable/internal/shell"
)

const frameInterval = 16 * time.Millisecond // ~60 FPS

// App runs one table in the terminal. Its goroutine owns the simulation.
type App struct {
	screen   tcell.Screen
	renderer *Renderer
	sound    *Sound
	sim      *game.Simulation
	clock    *game.Clock
}

// NewApp wires a screen to sim. sound may be nil.
func NewApp(screen tcell.Screen, sim *game.Simulation, tickRate int, sound *Sound) *App {
	return &App{
		screen:   screen,
		renderer: NewRenderer(screen),
		sound:    sound,
		sim:      sim,
		clock:    game.NewClock(tickRate),
	}
}

// Run draws and steps the table until quit or ctx ends.
func (a *App) Run(ctx context.Context) error {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	stop := make(chan struct{})
	defer close(stop)
	go forwardEvents(a.screen.PollEvent, eventChan, stop)

	last := time.Now()
	a.renderer.Draw(a.sim.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-a.sim.Done():
			return nil

		case ev := <-eventChan:
			a.handleEvent(ev)

		case now := <-ticker.C:
			a.step(now.Sub(last))
			last = now
			a.renderer.Draw(a.sim.Snapshot())
		}
	}
}

// forwardEvents feeds polled events to out until poll returns nil or stop is
// closed.
func forwardEvents(poll func() tcell.Event, out chan<- tcell.Event, stop <-chan struct{}) {
	for {
		ev := poll()
		if ev == nil {
			return
		}
		select {
		case out <- ev:
		case <-stop:
			return
		}
	}
}

func (a *App) step(elapsed time.Duration) {
	events, err := a.clock.Advance(a.sim, elapsed)
	if errors.Is(err, game.ErrCorruptState) {
		log.Printf("[SHELL] %v; re-racking", err)
		a.sim.Reset()
		a.clock.Reset()
		return
	}
	if a.sound != nil {
		a.sound.PlayEvents(events)
	}
}

func (a *App) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		action := keyAction(ev.Key(), ev.Rune())
		if action == shell.ActionNone {
			return
		}
		shell.Apply(a.sim, action)
		if action != shell.ActionQuit {
			a.clock.Reset()
		}
	case *tcell.EventResize:
		a.screen.Sync()
	}
}

// keyAction maps a terminal key to a table action. Esc and Ctrl-C quit too.
func keyAction(key tcell.Key, r rune) shell.Action {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return shell.ActionQuit
	case tcell.KeyRune:
		if action, ok := shell.Lookup(string(r)); ok {
			return action
		}
	}
	return shell.ActionNone
}

// Package shell holds what every front end shares: the key bindings and the
// HUD text drawn over the table.
package shell

import (
	"fmt"
	"strings"

	"github.com/playmatatu/pooltable/internal/game"
)

// Action is what a key press asks of the table.
type Action string

const (
	ActionNone        Action = ""
	ActionReset       Action = "reset"
	ActionTogglePause Action = "toggle_pause"
	ActionQuit        Action = "quit"
)

// Binding pairs a key name with its action.
type Binding struct {
	Key    string
	Action Action
	Help   string
}

// Bindings is the fixed key table used by every shell.
var Bindings = []Binding{
	{Key: "r", Action: ActionReset, Help: "reset"},
	{Key: "space", Action: ActionTogglePause, Help: "pause"},
	{Key: "q", Action: ActionQuit, Help: "quit"},
}

// Lookup maps a key name ("r", "q", "space" or " ") to its action.
func Lookup(key string) (Action, bool) {
	k := strings.ToLower(key)
	if k == " " {
		k = "space"
	}
	for _, b := range Bindings {
		if b.Key == k {
			return b.Action, true
		}
	}
	return ActionNone, false
}

// Apply runs an action directly against a simulation owned by the caller.
func Apply(sim *game.Simulation, a Action) {
	switch a {
	case ActionReset:
		sim.Reset()
	case ActionTogglePause:
		sim.TogglePause()
	case ActionQuit:
		sim.Quit()
	}
}

// HelpLine lists the bindings, e.g. "r reset  space pause  q quit".
func HelpLine() string {
	parts := make([]string, 0, len(Bindings))
	for _, b := range Bindings {
		parts = append(parts, b.Key+" "+b.Help)
	}
	return strings.Join(parts, "  ")
}

// HUD returns the overlay lines: the combined pocketed count, the break that
// opened the rack and a pause marker.
func HUD(snap game.Snapshot) []string {
	lines := []string{fmt.Sprintf("Pocketed: %d", snap.PocketedCount)}
	b := snap.Break
	lines = append(lines, fmt.Sprintf("Break: angle %.1f°  speed %.0f  cue (%.0f, %.0f)",
		b.AngleDegrees(), b.Speed, b.Origin.X, b.Origin.Y))
	if snap.RunState == game.StatePaused {
		lines = append(lines, "PAUSED")
	}
	return lines
}

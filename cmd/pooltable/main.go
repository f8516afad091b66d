package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/playmatatu/pooltable/internal/config"
	"github.com/playmatatu/pooltable/internal/game"
	"github.com/playmatatu/pooltable/internal/shell/terminal"
)

func main() {
	cfg := config.Load()

	// tcell owns the terminal; keep log output off it unless redirected.
	if path := os.Getenv("POOLTABLE_LOG"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	} else {
		log.SetOutput(io.Discard)
	}

	params, err := config.LoadParams(cfg.PhysicsConfig)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("Failed to load physics config: %v", err)
	}
	sim, err := game.NewSimulation(params, cfg.RandomSource())
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("Failed to build table: %v", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("Failed to create screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("Failed to init screen: %v", err)
	}
	defer screen.Fini()

	sound := terminal.NewSound()
	if err := sound.Initialize(); err != nil {
		log.Printf("[SHELL] audio disabled: %v", err)
	}
	defer sound.Cleanup()

	app := terminal.NewApp(screen, sim, cfg.TickRate, sound)
	if err := app.Run(context.Background()); err != nil {
		log.Printf("[SHELL] %v", err)
	}
}

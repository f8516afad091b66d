package main

import (
	"log"

	"github.com/playmatatu/pooltable/internal/config"
	"github.com/playmatatu/pooltable/internal/game"
	"github.com/playmatatu/pooltable/internal/shell/window"
)

func main() {
	cfg := config.Load()

	params, err := config.LoadParams(cfg.PhysicsConfig)
	if err != nil {
		log.Fatalf("Failed to load physics config: %v", err)
	}
	sim, err := game.NewSimulation(params, cfg.RandomSource())
	if err != nil {
		log.Fatalf("Failed to build table: %v", err)
	}

	if err := window.Run(sim, cfg.TickRate); err != nil {
		log.Fatalf("Window closed with error: %v", err)
	}
}

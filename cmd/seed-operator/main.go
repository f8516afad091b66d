package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/playmatatu/pooltable/internal/config"
	"github.com/playmatatu/pooltable/internal/database"
	"github.com/playmatatu/pooltable/internal/operators"
)

func main() {
	// Initialize configuration (loads .env when present)
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required to seed an operator")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	name := os.Getenv("OPERATOR_NAME")
	if name == "" {
		name = operators.FallbackName
		log.Printf("Using default operator name: %s", name)
	}

	token := os.Getenv("OPERATOR_TOKEN")
	if token == "" {
		token = "change-me-in-production"
		log.Printf("WARNING: Using default operator token. Set OPERATOR_TOKEN env var in production!")
	}

	displayName := os.Getenv("OPERATOR_DISPLAY_NAME")
	if displayName == "" {
		displayName = "Table Operator"
	}

	var tables []string // empty = every table
	if raw := os.Getenv("OPERATOR_TABLES"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tables = append(tables, t)
			}
		}
	}

	store := operators.NewStore(db, "")
	if err := store.Create(ctx, name, displayName, token, tables); err != nil {
		log.Fatalf("Failed to create operator account: %v", err)
	}

	log.Printf("✓ Operator account created/updated successfully")
	log.Printf("  Name: %s", name)
	log.Printf("  Display Name: %s", displayName)
	log.Printf("  Tables: %v", tables)
	log.Println("\nExchange the token for a JWT at POST /api/v1/auth/token with:")
	log.Printf("  {\"name\": %q, \"token\": %q}", name, token)
}

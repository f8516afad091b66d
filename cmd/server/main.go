package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"github.com/playmatatu/pooltable/internal/api"
	"github.com/playmatatu/pooltable/internal/config"
	"github.com/playmatatu/pooltable/internal/database"
	"github.com/playmatatu/pooltable/internal/game"
	"github.com/playmatatu/pooltable/internal/journal"
	"github.com/playmatatu/pooltable/internal/migrations"
	"github.com/playmatatu/pooltable/internal/operators"
	"github.com/playmatatu/pooltable/internal/redis"
	"github.com/playmatatu/pooltable/internal/session"
	"github.com/playmatatu/pooltable/internal/ws"
)

func main() {
	send := flag.String("send", "", "publish a command (reset, toggle_pause, quit) to the table over Redis and exit")
	flag.Parse()

	// Initialize configuration (loads .env when present)
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Redis (optional)
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		var err error
		rdb, err = redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
	}

	if *send != "" {
		err := ws.PublishCommand(ctx, rdb, ws.RemoteCommand{TableID: cfg.TableID, Command: *send, Operator: os.Getenv("USER")})
		if err != nil {
			log.Fatalf("Failed to send %s: %v", *send, err)
		}
		log.Printf("Sent %s to table %s", *send, cfg.TableID)
		return
	}

	params, err := config.LoadParams(cfg.PhysicsConfig)
	if err != nil {
		log.Fatalf("Failed to load physics config: %v", err)
	}
	sim, err := game.NewSimulation(params, cfg.RandomSource())
	if err != nil {
		log.Fatalf("Failed to build table: %v", err)
	}

	// Initialize database (optional run journal)
	opts := session.Options{
		TableID:       cfg.TableID,
		TickRate:      cfg.TickRate,
		SnapshotEvery: cfg.SnapshotEvery,
		Seed:          cfg.RandomSeed,
	}
	var j *journal.Journal
	var store *operators.Store
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if cfg.MigrateOnStart {
			log.Println("↗ Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL, migrations.DefaultDir); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}
		j = journal.New(db)
		store = operators.NewStore(db, cfg.OperatorTokenHash)
		opts.Recorder = j
	} else {
		log.Println("[JOURNAL] DATABASE_URL not set; run journal disabled")
		j = journal.New(nil)
		store = operators.NewStore(nil, cfg.OperatorTokenHash)
	}
	if rdb != nil {
		opts.Publisher = session.NewRedisPublisher(rdb)
	}

	sess := session.New(sim, opts)
	hub := ws.NewHub(sess, ws.HubOptions{JWTSecret: cfg.JWTSecret, Auditor: store})

	sessionDone := make(chan error, 1)
	go func() { sessionDone <- sess.Run(ctx) }()
	go hub.Run(ctx)
	ws.StartCommandSubscriber(ctx, rdb, sess, store)

	// Set up Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, api.Deps{
		Config:    cfg,
		Params:    params,
		Session:   sess,
		Hub:       hub,
		Journal:   j,
		Operators: store,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		log.Printf("Starting pool table server for table %s on port %s", cfg.TableID, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// A quit command or a signal ends the process.
	if err := <-sessionDone; err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[SESSION] stopped with error: %v", err)
	}
	<-hub.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	log.Println("Server stopped")
}

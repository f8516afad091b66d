package api

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/pooltable/internal/api/handlers"
	"github.com/playmatatu/pooltable/internal/config"
	"github.com/playmatatu/pooltable/internal/game"
	"github.com/playmatatu/pooltable/internal/journal"
	"github.com/playmatatu/pooltable/internal/middleware"
	"github.com/playmatatu/pooltable/internal/operators"
	"github.com/playmatatu/pooltable/internal/session"
	"github.com/playmatatu/pooltable/internal/ws"
)

// Deps are the services the HTTP surface exposes.
type Deps struct {
	Config    *config.Config
	Params    game.Params
	Session   *session.Session
	Hub       *ws.Hub
	Journal   *journal.Journal
	Operators *operators.Store
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d Deps) {
	cfg := d.Config
	router.Use(middleware.CORSMiddleware(cfg))

	if !cfg.IsProduction() {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	operatorOnly := middleware.OperatorAuth(cfg.JWTSecret, d.Session.TableID())

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(d.Session))
		v1.GET("/config", handlers.GetConfig(cfg, d.Params))

		v1.POST("/auth/token", handlers.IssueToken(d.Operators, cfg))

		// Table endpoints
		table := v1.Group("/table")
		{
			table.GET("", handlers.GetTable(d.Session))
			table.GET("/captures", handlers.GetCaptures(d.Session))
			table.GET("/runs", handlers.ListRuns(d.Journal, d.Session.TableID()))
			table.GET("/runs/:id", handlers.GetRun(d.Journal))
			table.GET("/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleTableWebSocket(d.Hub))

			table.POST("/reset", operatorOnly, handlers.TableCommand(d.Session, d.Operators, session.CommandReset))
			table.POST("/pause", operatorOnly, handlers.TableCommand(d.Session, d.Operators, session.CommandTogglePause))
			table.POST("/quit", operatorOnly, handlers.TableCommand(d.Session, d.Operators, session.CommandQuit))
			table.GET("/audit", operatorOnly, handlers.ListAudit(d.Operators, d.Session.TableID()))
		}
	}
}

package middleware

import (
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pooltable/internal/config"
)

// CORSMiddleware returns a CORS middleware configured for the environment
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	log.Printf("[CORS] Environment: %s, FrontendURL: %s", cfg.Environment, cfg.FrontendURL)

	corsConfig := cors.Config{
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin", "Content-Length", "Content-Type", "Authorization",
			"Accept", "Cache-Control", "X-Requested-With",
		},
		ExposeHeaders: []string{
			"Content-Length", "X-Table-ID", "X-Run-ID",
		},
		MaxAge: 12 * time.Hour, // Cache preflight responses
	}

	corsConfig.AllowOrigins = allowedOrigins(cfg)
	corsConfig.AllowCredentials = true
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	if cfg.IsProduction() {
		log.Printf("[CORS] Production allowed origins: %v", corsConfig.AllowOrigins)
	}

	return cors.New(corsConfig)
}

// allowedOrigins lists the dashboards that may talk to the table. Development
// accepts the local viewer dev server.
func allowedOrigins(cfg *config.Config) []string {
	var origins []string
	if !cfg.IsProduction() {
		origins = append(origins,
			"http://localhost:5173", // Vite dev server
			"http://127.0.0.1:5173",
		)
	}
	if cfg.FrontendURL != "" {
		origins = append(origins, cfg.FrontendURL)
	}
	return origins
}

// WebSocketCORSCheck validates WebSocket upgrade origins
func WebSocketCORSCheck(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only check for WebSocket upgrade requests
		if strings.ToLower(c.GetHeader("Connection")) != "upgrade" ||
			strings.ToLower(c.GetHeader("Upgrade")) != "websocket" {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		if origin == "" {
			c.JSON(400, gin.H{"error": "WebSocket origin required"})
			c.Abort()
			return
		}

		if !OriginAllowed(cfg, origin) {
			c.JSON(403, gin.H{"error": "WebSocket origin not allowed"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// OriginAllowed reports whether a websocket peer from origin may connect.
func OriginAllowed(cfg *config.Config, origin string) bool {
	if !cfg.IsProduction() {
		// Allow localhost variants in dev
		if strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:") {
			return true
		}
	}
	for _, allowed := range allowedOrigins(cfg) {
		if origin == allowed {
			return true
		}
	}
	return false
}

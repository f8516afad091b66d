package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/pooltable/internal/config"
	"github.com/playmatatu/pooltable/internal/middleware"
	"github.com/playmatatu/pooltable/internal/operators"
)

// IssueToken exchanges an operator name and token for a short-lived JWT.
func IssueToken(store *operators.Store, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name  string `json:"name" binding:"required"`
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and token required"})
			return
		}

		op, err := store.Authenticate(c.Request.Context(), strings.TrimSpace(req.Name), req.Token)
		switch {
		case errors.Is(err, operators.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		case errors.Is(err, operators.ErrNoOperators):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no operators configured"})
			return
		case err != nil:
			log.Printf("[API] operator auth failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		ttl := time.Duration(cfg.TokenTTLMinutes) * time.Minute
		signed, exp, err := middleware.IssueOperatorToken(cfg.JWTSecret, op, ttl)
		if err != nil {
			log.Printf("Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":      signed,
			"expires_at": exp.Unix(),
			"operator":   gin.H{"name": op.Name, "display_name": op.DisplayName, "tables": op.Tables},
		})
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/pooltable/internal/config"
	"github.com/playmatatu/pooltable/internal/game"
)

// GetConfig returns the values a viewer needs to interpolate and scale the table
func GetConfig(cfg *config.Config, params game.Params) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"table_id":       cfg.TableID,
			"tick_rate":      cfg.TickRate,
			"snapshot_every": cfg.SnapshotEvery,
			"physics":        params,
		})
	}
}

package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/pooltable/internal/journal"
	"github.com/playmatatu/pooltable/internal/operators"
)

// ListRuns returns the latest journaled runs of the table.
func ListRuns(j *journal.Journal, tableID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		runs, err := j.RecentRuns(c.Request.Context(), tableID, queryLimit(c, 20, 100))
		if err != nil {
			log.Printf("[API] list runs for %s failed: %v", tableID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load runs"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs, "journal": j.Enabled()})
	}
}

// GetRun returns one run and its captures.
func GetRun(j *journal.Journal) gin.HandlerFunc {
	return func(c *gin.Context) {
		run, captures, err := j.Run(c.Request.Context(), c.Param("id"))
		if errors.Is(err, journal.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		if err != nil {
			log.Printf("[API] get run %s failed: %v", c.Param("id"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"run": run, "captures": captures})
	}
}

// ListAudit returns recent operator commands for the table.
func ListAudit(store *operators.Store, tableID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := store.RecentCommands(c.Request.Context(), tableID, queryLimit(c, 50, 200))
		if err != nil {
			log.Printf("[API] audit for %s failed: %v", tableID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load audit log"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}

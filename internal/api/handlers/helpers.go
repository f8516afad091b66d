package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// queryLimit reads ?limit= clamped to [1, max], falling back to def.
func queryLimit(c *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

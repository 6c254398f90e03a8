package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Health reports liveness. ping checks the database; the field is named
// "mongodb" because deployed clients read it under that key.
func Health(ping func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := "connected"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if ping == nil || ping(ctx) != nil {
			state = "disconnected"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"message":   "AISH Backend is running",
			"mongodb":   state,
			"timestamp": time.Now().UTC().Format(isoMillis),
		})
	}
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"aish-backend/internal/apperr"

	"github.com/gin-gonic/gin"
)

// respondError writes err as {error, details?} with the status of its kind.
// fallback is the summary used for errors the services did not classify.
func respondError(c *gin.Context, err error, fallback string) {
	writeError(c, apperr.KindOf(err).HTTPStatus(), err, fallback)
}

func writeError(c *gin.Context, status int, err error, fallback string) {
	_ = c.Error(err)

	var e *apperr.Error
	if !errors.As(err, &e) {
		c.JSON(status, gin.H{"error": fallback, "details": err.Error()})
		return
	}
	body := gin.H{"error": e.Message}
	if details := e.Details(); details != "" {
		body["details"] = details
	}
	c.JSON(status, body)
}

// NotFound answers unmatched routes.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Route %s %s not found", c.Request.Method, c.Request.URL.Path)})
}

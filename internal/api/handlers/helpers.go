package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/renaiss-bot/internal/services"
)

// respondError logs err and answers with a short message instead of internals
func respondError(c *gin.Context, err error) {
	log.Printf("API: %s %s failed: %v", c.Request.Method, c.FullPath(), err)

	if errors.Is(err, services.ErrInvalidThreshold) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var storeErr *services.StoreError
	if errors.As(err, &storeErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "card database is unavailable, please try again later"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// parseLimit reads the optional "limit" query parameter. Writes a 400 and returns false when invalid.
func parseLimit(c *gin.Context, def int) (int, bool) {
	v := c.Query("limit")
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return 0, false
	}
	return n, true
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/renaiss-bot/internal/services"
)

type StatusHandler struct {
	refreshWorker *services.RefreshWorker
	cardStore     *services.CardStore
}

func NewStatusHandler(refreshWorker *services.RefreshWorker, cardStore *services.CardStore) *StatusHandler {
	return &StatusHandler{
		refreshWorker: refreshWorker,
		cardStore:     cardStore,
	}
}

// GetStatus returns the refresh worker state and the card count
func (h *StatusHandler) GetStatus(c *gin.Context) {
	count, err := h.cardStore.CountCards(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"refresh":    h.refreshWorker.GetStatus(),
		"card_count": count,
	})
}

// RefreshNow triggers a refresh outside the timer
func (h *StatusHandler) RefreshNow(c *gin.Context) {
	summary, err := h.refreshWorker.RefreshNow(c.Request.Context())
	if errors.Is(err, services.ErrRefreshInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": summary,
	})
}

package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/renaiss-bot/internal/services"
)

type CardHandler struct {
	cardService *services.CardInfoService
}

func NewCardHandler(cardService *services.CardInfoService) *CardHandler {
	return &CardHandler{
		cardService: cardService,
	}
}

// GetCardInfo looks a card up by partial, case-insensitive name
func (h *CardHandler) GetCardInfo(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'name' is required"})
		return
	}

	info, err := h.cardService.GetCardInfoByName(c.Request.Context(), name)
	if errors.Is(err, services.ErrCardNotFound) {
		suggestions, sErr := h.cardService.Suggest(c.Request.Context(), name, 5)
		if sErr != nil {
			log.Printf("Card lookup: suggestions failed for %q: %v", name, sErr)
			suggestions = []string{}
		}
		c.JSON(http.StatusNotFound, gin.H{
			"error":       "card not found",
			"suggestions": suggestions,
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

package handlers

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/renaiss-bot/internal/models"
	"github.com/codyseavey/renaiss-bot/internal/services"
)

type ArbitrageHandler struct {
	arbitrageService *services.ArbitrageService
	defaultMinProfit float64
}

func NewArbitrageHandler(arbitrageService *services.ArbitrageService, defaultMinProfit float64) *ArbitrageHandler {
	return &ArbitrageHandler{
		arbitrageService: arbitrageService,
		defaultMinProfit: defaultMinProfit,
	}
}

// FindOpportunities runs an arbitrage scan. limit truncates the ranked list for display.
func (h *ArbitrageHandler) FindOpportunities(c *gin.Context) {
	minProfit := h.defaultMinProfit
	if v := c.Query("min_profit"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_profit must be a non-negative number"})
			return
		}
		minProfit = parsed
	}

	limit, ok := parseLimit(c, 0)
	if !ok {
		return
	}

	opportunities, err := h.arbitrageService.FindOpportunities(c.Request.Context(), minProfit)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.OpportunityList{
		Opportunities: opportunities,
		Count:         len(opportunities),
		MinProfit:     minProfit,
		ScannedAt:     time.Now(),
	}
	if limit > 0 && len(resp.Opportunities) > limit {
		resp.Opportunities = resp.Opportunities[:limit]
	}

	c.JSON(http.StatusOK, resp)
}

// GetLogs returns the arbitrage audit trail, newest first
func (h *ArbitrageHandler) GetLogs(c *gin.Context) {
	limit, ok := parseLimit(c, 50)
	if !ok {
		return
	}

	logs, err := h.arbitrageService.RecentLogs(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"count": len(logs),
	})
}

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codyseavey/renaiss-bot/internal/api/handlers"
	"github.com/codyseavey/renaiss-bot/internal/metrics"
	"github.com/codyseavey/renaiss-bot/internal/services"
)

// Services groups everything the router hands to handlers
type Services struct {
	CardInfo         *services.CardInfoService
	Arbitrage        *services.ArbitrageService
	RefreshWorker    *services.RefreshWorker
	CardStore        *services.CardStore
	DefaultMinProfit float64
}

func SetupRouter(svc Services, allowedOrigins []string) *gin.Engine {
	router := gin.Default()

	config := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		config.AllowOrigins = allowedOrigins
	} else {
		config.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.AllowCredentials = false
	router.Use(cors.New(config))
	router.Use(requestMetrics())

	// Initialize handlers
	cardHandler := handlers.NewCardHandler(svc.CardInfo)
	arbitrageHandler := handlers.NewArbitrageHandler(svc.Arbitrage, svc.DefaultMinProfit)
	statusHandler := handlers.NewStatusHandler(svc.RefreshWorker, svc.CardStore)

	// API routes
	api := router.Group("/api")
	{
		cards := api.Group("/cards")
		{
			cards.GET("/info", cardHandler.GetCardInfo)
		}

		arbitrage := api.Group("/arbitrage")
		{
			arbitrage.GET("", arbitrageHandler.FindOpportunities)
			arbitrage.GET("/logs", arbitrageHandler.GetLogs)
		}

		api.POST("/refresh", statusHandler.RefreshNow)
		api.GET("/status", statusHandler.GetStatus)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}

// requestMetrics records request counts and latency by route template
func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

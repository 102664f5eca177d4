package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codyseavey/renaiss-bot/internal/api"
	"github.com/codyseavey/renaiss-bot/internal/config"
	"github.com/codyseavey/renaiss-bot/internal/database"
	"github.com/codyseavey/renaiss-bot/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize database
	db, err := database.Open(cfg.DBPath, database.ParseLogLevel(cfg.DBLogLevel))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize services
	renaissService := services.NewRenaissService(
		cfg.Renaiss.APIURL,
		cfg.Renaiss.BaseURL,
		cfg.Renaiss.Timeout,
		cfg.Renaiss.RequestsPerMinute,
	)
	cardStore := services.NewCardStore(db)
	cardInfoService := services.NewCardInfoService(renaissService, cardStore, services.CardInfoOptions{
		PageSize:  cfg.Renaiss.PageSize,
		MaxPages:  cfg.Renaiss.MaxPages,
		CacheSize: cfg.CardCacheSize,
		CacheTTL:  cfg.CardCacheTTL,
	})
	arbitrageService := services.NewArbitrageService(cardStore)
	refreshWorker := services.NewRefreshWorker(cardInfoService, cfg.MonitorInterval)

	if count, err := cardStore.CountCards(context.Background()); err == nil {
		log.Printf("Loaded card database with %d cards", count)
	}

	// Create a cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start refresh worker in background with panic recovery
	go func() {
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("PANIC in refresh worker: %v - restarting in 30 seconds", r)
					}
				}()
				refreshWorker.Start(ctx)
			}()

			select {
			case <-ctx.Done():
				return // Graceful shutdown
			case <-time.After(30 * time.Second):
				log.Println("Refresh worker restarting after panic recovery...")
			}
		}
	}()

	// Setup router
	router := api.SetupRouter(api.Services{
		CardInfo:         cardInfoService,
		Arbitrage:        arbitrageService,
		RefreshWorker:    refreshWorker,
		CardStore:        cardStore,
		DefaultMinProfit: cfg.MinProfitPercent,
	}, cfg.CORSAllowedOrigins)

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cancel the context to stop the refresh worker
	cancel()

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("Server exited")
}

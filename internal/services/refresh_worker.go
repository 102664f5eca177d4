package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrRefreshInProgress is returned by RefreshNow while another refresh is running
var ErrRefreshInProgress = errors.New("refresh already in progress")

// cardRefresher is the refresh entry point the worker drives
type cardRefresher interface {
	RefreshAllCards(ctx context.Context) (RefreshSummary, error)
}

// RefreshWorker runs the card refresh pipeline on a fixed interval
type RefreshWorker struct {
	refresher      cardRefresher
	updateInterval time.Duration

	// running serializes timer and manual refreshes
	running sync.Mutex

	mu          sync.RWMutex
	lastRun     time.Time
	nextRun     time.Time
	lastSummary *RefreshSummary
	lastError   string
	runCount    int
}

// RefreshStatus is the worker state reported by the status endpoint
type RefreshStatus struct {
	LastRunTime    time.Time       `json:"last_run_time"`
	NextRunTime    time.Time       `json:"next_run_time"`
	UpdateInterval string          `json:"update_interval"`
	RunCount       int             `json:"run_count"`
	LastSummary    *RefreshSummary `json:"last_summary,omitempty"`
	LastError      string          `json:"last_error,omitempty"`
}

func NewRefreshWorker(refresher cardRefresher, updateInterval time.Duration) *RefreshWorker {
	if updateInterval <= 0 {
		updateInterval = 5 * time.Minute
	}
	return &RefreshWorker{
		refresher:      refresher,
		updateInterval: updateInterval,
	}
}

// Start begins the background refresh loop and blocks until ctx is cancelled
func (w *RefreshWorker) Start(ctx context.Context) {
	log.Printf("Refresh worker started: will refresh cards every %v", w.updateInterval)

	// Run immediately on startup
	w.runScheduled(ctx)

	ticker := time.NewTicker(w.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Refresh worker stopping...")
			return
		case <-ticker.C:
			w.runScheduled(ctx)
		}
	}
}

func (w *RefreshWorker) runScheduled(ctx context.Context) {
	if !w.running.TryLock() {
		log.Println("Refresh worker: previous refresh still running, skipping tick")
		return
	}
	defer w.running.Unlock()

	if _, err := w.run(ctx); err != nil {
		log.Printf("Refresh worker: refresh failed: %v", err)
	}
}

// RefreshNow runs a refresh immediately unless one is already in flight
func (w *RefreshWorker) RefreshNow(ctx context.Context) (RefreshSummary, error) {
	if !w.running.TryLock() {
		return RefreshSummary{}, ErrRefreshInProgress
	}
	defer w.running.Unlock()

	return w.run(ctx)
}

func (w *RefreshWorker) run(ctx context.Context) (RefreshSummary, error) {
	summary, err := w.refresher.RefreshAllCards(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.runCount++
	w.lastRun = time.Now()
	w.nextRun = w.lastRun.Add(w.updateInterval)
	w.lastSummary = &summary
	if err != nil {
		w.lastError = err.Error()
	} else {
		w.lastError = ""
	}

	return summary, err
}

// GetStatus returns a snapshot of the worker state
func (w *RefreshWorker) GetStatus() RefreshStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return RefreshStatus{
		LastRunTime:    w.lastRun,
		NextRunTime:    w.nextRun,
		UpdateInterval: w.updateInterval.String(),
		RunCount:       w.runCount,
		LastSummary:    w.lastSummary,
		LastError:      w.lastError,
	}
}

package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthMonitor periodically samples worker and queue state, feeding
// the pool gauges and flagging saturation.
type HealthMonitor struct {
	pool     *Pool
	interval time.Duration
	logger   *zap.Logger

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
}

// HealthStatus is a point-in-time sample of the worker pool.
type HealthStatus struct {
	TotalWorkers   int
	IdleWorkers    int
	BusyWorkers    int
	StoppedWorkers int
	QueueDepth     int
	QueueCapacity  int
	Healthy        bool
	Timestamp      time.Time
}

// NewHealthMonitor creates a new health monitor.
func NewHealthMonitor(pool *Pool, interval time.Duration, logger *zap.Logger) *HealthMonitor {
	return &HealthMonitor{
		pool:     pool,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start starts the health monitor.
func (h *HealthMonitor) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

// Stop stops the health monitor.
func (h *HealthMonitor) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.stopCh)
}

func (h *HealthMonitor) run() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.sample()
		}
	}
}

// sample reads pool state, updates the gauges and logs anomalies.
func (h *HealthMonitor) sample() {
	status := h.GetStatus()

	h.logger.Info("worker pool health check",
		zap.Int("total", status.TotalWorkers),
		zap.Int("idle", status.IdleWorkers),
		zap.Int("busy", status.BusyWorkers),
		zap.Int("stopped", status.StoppedWorkers),
		zap.Int("queue_depth", status.QueueDepth),
		zap.Bool("healthy", status.Healthy))

	h.pool.metrics.RecordWorkerPoolStatus(
		status.IdleWorkers,
		status.BusyWorkers,
		status.StoppedWorkers,
	)

	if status.StoppedWorkers > 0 {
		h.logger.Warn("worker pool has stopped workers",
			zap.Int("stopped", status.StoppedWorkers),
			zap.Int("total", status.TotalWorkers))
	}

	if status.QueueDepth == status.QueueCapacity && status.IdleWorkers == 0 {
		h.logger.Warn("conversion queue saturated, requests are backing up",
			zap.Int("queue_depth", status.QueueDepth),
			zap.Int("busy", status.BusyWorkers))
	}
}

// GetStatus samples the pool. The pool counts as healthy while no
// worker has stopped and either a worker is idle or the conversion
// queue still has room.
func (h *HealthMonitor) GetStatus() *HealthStatus {
	workerStatuses := h.pool.GetStatus()

	var idle, busy, stopped int
	for _, status := range workerStatuses {
		switch status {
		case WorkerStatusIdle:
			idle++
		case WorkerStatusBusy:
			busy++
		case WorkerStatusStopped:
			stopped++
		}
	}

	depth := len(h.pool.jobs)
	capacity := cap(h.pool.jobs)

	return &HealthStatus{
		TotalWorkers:   len(workerStatuses),
		IdleWorkers:    idle,
		BusyWorkers:    busy,
		StoppedWorkers: stopped,
		QueueDepth:     depth,
		QueueCapacity:  capacity,
		Healthy:        stopped == 0 && (idle > 0 || depth < capacity),
		Timestamp:      time.Now(),
	}
}

// IsHealthy returns true if the worker pool is healthy.
func (h *HealthMonitor) IsHealthy() bool {
	return h.GetStatus().Healthy
}

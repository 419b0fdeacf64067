package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/convreg/convreg/internal/application/registry"
	"github.com/convreg/convreg/internal/ports"
	"go.uber.org/zap"
)

// RequestTopic is the topic asynchronous conversion requests arrive on.
const RequestTopic = "conversion.requests"

// Pool manages a pool of background conversion workers. The pool
// subscribes to conversion requests once and fans them out, so each
// request is converted by exactly one worker.
type Pool struct {
	size     int
	eventBus ports.EventBus
	registry *registry.Manager
	metrics  ports.MetricsCollector
	logger   *zap.Logger
	health   *HealthMonitor
	timeout  time.Duration

	jobs    chan ports.Event
	workers []*worker
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// worker represents a single conversion worker goroutine.
type worker struct {
	id      string
	pool    *Pool
	status  WorkerStatus
	mu      sync.RWMutex
	lastJob time.Time
}

// WorkerStatus represents worker status.
type WorkerStatus string

const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusBusy    WorkerStatus = "busy"
	WorkerStatusStopped WorkerStatus = "stopped"
)

// NewPool creates a new conversion worker pool.
func NewPool(
	size int,
	eventBus ports.EventBus,
	reg *registry.Manager,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	healthCheckInterval time.Duration,
	conversionTimeout time.Duration,
) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	pool := &Pool{
		size:     size,
		eventBus: eventBus,
		registry: reg,
		metrics:  metrics,
		logger:   logger,
		timeout:  conversionTimeout,
		jobs:     make(chan ports.Event, size*2),
		workers:  make([]*worker, size),
		ctx:      ctx,
		cancel:   cancel,
	}

	pool.health = NewHealthMonitor(pool, healthCheckInterval, logger)

	return pool
}

// Start starts the worker pool and subscribes to conversion requests.
func (p *Pool) Start() error {
	p.logger.Info("starting conversion worker pool", zap.Int("size", p.size))

	handler := func(ctx context.Context, event ports.Event) error {
		select {
		case p.jobs <- event:
			return nil
		case <-p.ctx.Done():
			return p.ctx.Err()
		}
	}

	if err := p.eventBus.Subscribe(p.ctx, RequestTopic, handler); err != nil {
		return fmt.Errorf("failed to subscribe to conversion requests: %w", err)
	}

	for i := 0; i < p.size; i++ {
		w := &worker{
			id:      fmt.Sprintf("worker-%d", i),
			pool:    p,
			status:  WorkerStatusIdle,
			lastJob: time.Now(),
		}
		p.workers[i] = w

		p.wg.Add(1)
		go w.run(p.ctx)
	}

	p.health.Start()

	p.logger.Info("conversion worker pool started", zap.Int("workers", p.size))
	return nil
}

// Shutdown gracefully shuts down the worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.logger.Info("shutting down conversion worker pool")

	p.health.Stop()
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("conversion worker pool shut down complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout")
	}
}

// GetStatus returns the status of all started workers.
func (p *Pool) GetStatus() map[string]WorkerStatus {
	status := make(map[string]WorkerStatus)
	for _, w := range p.workers {
		if w == nil {
			continue
		}
		w.mu.RLock()
		status[w.id] = w.status
		w.mu.RUnlock()
	}
	return status
}

// run is the main worker loop.
func (w *worker) run(ctx context.Context) {
	defer w.pool.wg.Done()

	w.pool.logger.Info("worker started", zap.String("worker_id", w.id))

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.status = WorkerStatusStopped
			w.mu.Unlock()
			w.pool.logger.Info("worker stopped", zap.String("worker_id", w.id))
			return
		case event := <-w.pool.jobs:
			w.handleConversion(ctx, event)
		}
	}
}

// handleConversion processes a single conversion request.
func (w *worker) handleConversion(ctx context.Context, event ports.Event) {
	w.mu.Lock()
	w.status = WorkerStatusBusy
	w.lastJob = time.Now()
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.status = WorkerStatusIdle
		w.mu.Unlock()
	}()

	target, ok := event.Data["target"].(string)
	if !ok || target == "" {
		w.pool.logger.Error("invalid target in conversion request",
			zap.String("worker_id", w.id),
			zap.String("event_id", event.ID))
		return
	}

	w.pool.logger.Info("converting",
		zap.String("worker_id", w.id),
		zap.String("url", event.URL),
		zap.String("target", target))

	convertCtx, cancel := context.WithTimeout(ctx, w.pool.timeout)
	defer cancel()

	start := time.Now()
	dataset, err := w.pool.registry.ConvertByURL(convertCtx, event.URL, target)
	if err != nil {
		// The registry already published the failure event; the
		// worker only logs its own view of the job.
		w.pool.logger.Error("background conversion failed",
			zap.String("worker_id", w.id),
			zap.String("url", event.URL),
			zap.String("target", target),
			zap.Error(err))
		return
	}

	w.pool.logger.Info("background conversion completed",
		zap.String("worker_id", w.id),
		zap.String("url", event.URL),
		zap.String("mime_type", dataset.MimeType()),
		zap.Duration("duration", time.Since(start)))
}

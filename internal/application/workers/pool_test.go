package workers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/convreg/convreg/internal/application/converters"
	"github.com/convreg/convreg/internal/application/registry"
	"github.com/convreg/convreg/internal/domain"
	"github.com/convreg/convreg/internal/ports"
	memoryevents "github.com/convreg/convreg/pkg/adapters/events/memory"
	memorystorage "github.com/convreg/convreg/pkg/adapters/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticResolver struct {
	mimeType string
}

func (r staticResolver) ResolveDataSet(ctx context.Context, url string) (domain.Dataset, error) {
	return domain.NewBytesDataset(url, r.mimeType, nil), nil
}

func (r staticResolver) ResolveMimeType(url string) string {
	return r.mimeType
}

type nopMetrics struct{}

func (nopMetrics) RecordURLRegistered(status string)               {}
func (nopMetrics) RecordDatasetPublished(mimeType string)          {}
func (nopMetrics) RecordReachabilityQuery(kind string)             {}
func (nopMetrics) RecordConversion(status string, d time.Duration) {}
func (nopMetrics) RecordConversionSteps(steps int)                 {}
func (nopMetrics) RecordViewInvoked(status string)                 {}
func (nopMetrics) RecordWorkerPoolStatus(idle, busy, stopped int)  {}
func (nopMetrics) SetRegisteredURLs(count int)                     {}

func newTestPool(t *testing.T, store ports.DatasetStore, bus ports.EventBus) *Pool {
	t.Helper()

	graph := converters.NewRegistry(zap.NewNop())
	require.NoError(t, graph.Register(converters.Converter{
		Name: "csv-json",
		From: []string{"text/csv"},
		To:   "application/json",
		Fn: func(ctx context.Context, src domain.Dataset) (domain.Dataset, error) {
			return domain.NewBytesDataset(src.URL(), "application/json", nil), nil
		},
	}))

	manager := registry.NewManager(store, graph, staticResolver{mimeType: "text/csv"},
		bus, nopMetrics{}, zap.NewNop())

	return NewPool(2, bus, manager, nopMetrics{}, zap.NewNop(),
		time.Minute, 10*time.Second)
}

func TestPool_ConvertsRequest(t *testing.T) {
	store := memorystorage.NewStore()
	bus := memoryevents.NewBus()
	pool := newTestPool(t, store, bus)

	ctx := context.Background()
	_, err := store.Publish(ctx, domain.NewBytesDataset("csv://data/a", "text/csv", nil))
	require.NoError(t, err)

	require.NoError(t, pool.Start())
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, pool.Shutdown(shutdownCtx))
	}()

	require.NoError(t, bus.Publish(ctx, RequestTopic, ports.Event{
		ID:   "req-1",
		Type: ports.EventTypeConversionRequested,
		URL:  "csv://data/a",
		Data: map[string]interface{}{"target": "application/json"},
	}))

	require.Eventually(t, func() bool {
		contained, err := store.Contains(ctx,
			domain.NewBytesDataset("csv://data/a", "application/json", nil))
		return err == nil && contained
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPool_IgnoresInvalidRequest(t *testing.T) {
	store := memorystorage.NewStore()
	bus := memoryevents.NewBus()
	pool := newTestPool(t, store, bus)

	ctx := context.Background()
	require.NoError(t, pool.Start())
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, pool.Shutdown(shutdownCtx))
	}()

	// Missing target: the request is dropped without crashing a worker.
	require.NoError(t, bus.Publish(ctx, RequestTopic, ports.Event{
		ID:  "req-bad",
		URL: "csv://data/a",
	}))

	time.Sleep(50 * time.Millisecond)
	assert.True(t, pool.health.IsHealthy())
}

func TestHealthStatus_QueueDepth(t *testing.T) {
	pool := newTestPool(t, memorystorage.NewStore(), memoryevents.NewBus())

	require.NoError(t, pool.Start())
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, pool.Shutdown(shutdownCtx))
	}()

	status := pool.health.GetStatus()
	assert.Equal(t, 2, status.TotalWorkers)
	assert.Equal(t, 4, status.QueueCapacity)
	assert.Zero(t, status.QueueDepth)
	assert.True(t, status.Healthy)
}

func TestHealthStatus_QueueSaturation(t *testing.T) {
	pool := newTestPool(t, memorystorage.NewStore(), memoryevents.NewBus())

	// Fill the queue before any worker starts draining it.
	for i := 0; i < cap(pool.jobs); i++ {
		pool.jobs <- ports.Event{ID: fmt.Sprintf("req-%d", i)}
	}

	status := pool.health.GetStatus()
	assert.Equal(t, status.QueueCapacity, status.QueueDepth)
	assert.False(t, status.Healthy)
}

func TestPool_StatusLifecycle(t *testing.T) {
	store := memorystorage.NewStore()
	bus := memoryevents.NewBus()
	pool := newTestPool(t, store, bus)

	require.NoError(t, pool.Start())

	status := pool.GetStatus()
	require.Len(t, status, 2)
	for _, s := range status {
		assert.Equal(t, WorkerStatusIdle, s)
	}
	assert.True(t, pool.health.IsHealthy())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(shutdownCtx))

	for _, s := range pool.GetStatus() {
		assert.Equal(t, WorkerStatusStopped, s)
	}
	assert.False(t, pool.health.IsHealthy())
}

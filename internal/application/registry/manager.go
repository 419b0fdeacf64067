package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/convreg/convreg/internal/domain"
	"github.com/convreg/convreg/internal/ports"
	"github.com/convreg/convreg/internal/viewer"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventTopic is the topic registry activity events are published on.
const EventTopic = "registry.events"

// Manager is the orchestration facade composing the dataset store and
// the converter graph.
type Manager struct {
	store    ports.DatasetStore
	graph    ports.ConverterGraph
	resolver ports.URLResolver
	eventBus ports.EventBus
	metrics  ports.MetricsCollector
	logger   *zap.Logger
}

// NewManager creates a new registry manager.
func NewManager(
	store ports.DatasetStore,
	graph ports.ConverterGraph,
	resolver ports.URLResolver,
	eventBus ports.EventBus,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		store:    store,
		graph:    graph,
		resolver: resolver,
		eventBus: eventBus,
		metrics:  metrics,
		logger:   logger,
	}
}

// RegisterURL resolves a URL and publishes the resulting dataset. A
// nil handle with a nil error reports that an equivalent dataset was
// already registered and nothing happened. No conversion is attempted.
func (m *Manager) RegisterURL(ctx context.Context, url string) (ports.Handle, error) {
	dataset, err := m.resolver.ResolveDataSet(ctx, url)
	if err != nil {
		m.metrics.RecordURLRegistered("failed")
		return nil, fmt.Errorf("failed to resolve URL: %w", err)
	}

	contained, err := m.store.Contains(ctx, dataset)
	if err != nil {
		m.metrics.RecordURLRegistered("failed")
		return nil, fmt.Errorf("failed to check containment: %w", err)
	}
	if contained {
		m.logger.Debug("URL already registered",
			zap.String("url", url),
			zap.String("mime_type", dataset.MimeType()))
		m.metrics.RecordURLRegistered("duplicate")
		return nil, nil
	}

	handle, err := m.store.Publish(ctx, dataset)
	if err != nil {
		m.metrics.RecordURLRegistered("failed")
		return nil, fmt.Errorf("failed to publish dataset: %w", err)
	}

	m.metrics.RecordURLRegistered("registered")
	m.metrics.RecordDatasetPublished(dataset.MimeType())
	m.updateURLGauge()
	m.publishEvent(ctx, ports.EventTypeURLRegistered, url, dataset.MimeType(), nil)

	m.logger.Info("URL registered",
		zap.String("url", url),
		zap.String("mime_type", dataset.MimeType()),
		zap.String("handle_id", handle.ID()))

	return handle, nil
}

// HasConversions reports whether any converter-reachable mime type
// exists beyond the URL's own resolved type. The seed comes from URL
// resolution alone, never from the store, and nothing is registered
// or converted. Safe to call on a URL that was never registered.
func (m *Manager) HasConversions(ctx context.Context, url string) (bool, error) {
	m.metrics.RecordReachabilityQuery("has_conversions")

	seed := m.resolver.ResolveMimeType(url)
	reachable := m.graph.ListTargetMimeTypes([]string{seed})
	return len(reachable) > 1, nil
}

// PossibleMimeTypesForURL returns the reachability closure seeded by
// the mime types actually registered for the URL. Empty for an
// entirely unknown URL. Pure query.
func (m *Manager) PossibleMimeTypesForURL(ctx context.Context, url string) ([]string, error) {
	m.metrics.RecordReachabilityQuery("possible_mime_types")

	seeds, err := m.store.MimeTypesForURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to list mime types: %w", err)
	}

	return m.graph.ListTargetMimeTypes(seeds), nil
}

// ViewersForURL returns the distinct viewer labels reachable for a
// URL, decoded from the viewer-encoded members of the closure.
func (m *Manager) ViewersForURL(ctx context.Context, url string) ([]string, error) {
	mimeTypes, err := m.PossibleMimeTypesForURL(ctx, url)
	if err != nil {
		return nil, err
	}

	var labels []string
	for _, mimeType := range mimeTypes {
		if label, ok := viewer.Label(mimeType); ok {
			labels = append(labels, label)
		}
	}
	return labels, nil
}

// ViewURL converts a URL to the pseudo mime type of a viewer label,
// invokes the resulting dataset's payload accessor and waits for it
// to finish.
func (m *Manager) ViewURL(ctx context.Context, url, label string) error {
	target := viewer.MimeType(label)

	dataset, err := m.ConvertByURL(ctx, url, target)
	if err != nil {
		m.metrics.RecordViewInvoked("failed")
		return err
	}

	if _, err := dataset.Payload(ctx); err != nil {
		m.metrics.RecordViewInvoked("failed")
		return fmt.Errorf("viewer %s failed: %w", label, err)
	}

	m.metrics.RecordViewInvoked("completed")
	m.publishEvent(ctx, ports.EventTypeViewCompleted, url, target, map[string]interface{}{
		"label": label,
	})

	m.logger.Info("view completed",
		zap.String("url", url),
		zap.String("label", label))

	return nil
}

// ConvertByURL drives the lazy conversion chain from the mime types
// currently registered for a URL toward the target, publishing every
// element not already contained before pulling the next one, and
// returns the last dataset produced. Intermediate publishes let later
// calls for intermediate mime types short-circuit.
//
// Concurrent calls with the same URL and target each drive their own
// chain; the store's containment check is the only duplicate defense.
func (m *Manager) ConvertByURL(ctx context.Context, url, target string) (domain.Dataset, error) {
	start := time.Now()

	sources, err := m.store.FilterByURL(ctx, url)
	if err != nil {
		m.metrics.RecordConversion("failed", time.Since(start))
		return domain.Dataset{}, fmt.Errorf("failed to list datasets: %w", err)
	}

	chain := m.graph.Convert(ctx, sources, target)

	var last domain.Dataset
	elements := 0
	for {
		dataset, ok, err := chain.Next(ctx)
		if err != nil {
			m.metrics.RecordConversion("failed", time.Since(start))
			m.publishEvent(ctx, ports.EventTypeConversionFailed, url, target, map[string]interface{}{
				"error": err.Error(),
			})
			return domain.Dataset{}, fmt.Errorf("conversion step failed: %w", err)
		}
		if !ok {
			break
		}

		// Publish before pulling the next element: a published step
		// may be exactly what the next conversion needs in the store.
		if err := m.publishConverted(ctx, dataset); err != nil {
			m.metrics.RecordConversion("failed", time.Since(start))
			return domain.Dataset{}, err
		}

		last = dataset
		elements++
	}

	if elements == 0 || last.MimeType() != target {
		m.metrics.RecordConversion("unreachable", time.Since(start))
		m.publishEvent(ctx, ports.EventTypeConversionFailed, url, target, map[string]interface{}{
			"reason": "unreachable",
		})
		m.logger.Warn("conversion target unreachable",
			zap.String("url", url),
			zap.String("target", target),
			zap.Int("chain_elements", elements))
		return domain.Dataset{}, &domain.UnreachableTargetError{URL: url, MimeType: target}
	}

	m.metrics.RecordConversion("completed", time.Since(start))
	m.metrics.RecordConversionSteps(elements)
	m.publishEvent(ctx, ports.EventTypeConversionCompleted, url, target, map[string]interface{}{
		"chain_elements": elements,
	})

	m.logger.Info("conversion completed",
		zap.String("url", url),
		zap.String("target", target),
		zap.Int("chain_elements", elements),
		zap.Duration("duration", time.Since(start)))

	return last, nil
}

// publishConverted registers a chain element unless the store already
// contains it.
func (m *Manager) publishConverted(ctx context.Context, dataset domain.Dataset) error {
	contained, err := m.store.Contains(ctx, dataset)
	if err != nil {
		return fmt.Errorf("failed to check containment: %w", err)
	}
	if contained {
		return nil
	}

	if _, err := m.store.Publish(ctx, dataset); err != nil {
		return fmt.Errorf("failed to publish dataset: %w", err)
	}

	m.metrics.RecordDatasetPublished(dataset.MimeType())
	m.updateURLGauge()
	m.publishEvent(ctx, ports.EventTypeDatasetPublished, dataset.URL(), dataset.MimeType(), nil)

	return nil
}

// urlCounter is an optional store capability backing the registered
// URL gauge.
type urlCounter interface {
	URLCount() int
}

func (m *Manager) updateURLGauge() {
	if c, ok := m.store.(urlCounter); ok {
		m.metrics.SetRegisteredURLs(c.URLCount())
	}
}

// publishEvent publishes a registry event to the event bus.
func (m *Manager) publishEvent(ctx context.Context, eventType ports.EventType, url, mimeType string, data map[string]interface{}) {
	event := ports.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		URL:       url,
		MimeType:  mimeType,
		Timestamp: time.Now(),
		Data:      data,
	}

	if err := m.eventBus.Publish(ctx, EventTopic, event); err != nil {
		m.logger.Error("failed to publish event",
			zap.String("event_type", string(eventType)),
			zap.String("url", url),
			zap.Error(err))
	}
}

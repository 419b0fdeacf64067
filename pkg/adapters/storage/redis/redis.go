package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/convreg/convreg/internal/domain"
	"github.com/convreg/convreg/internal/ports"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store implements DatasetStore using Redis. Each URL maps to a hash
// keyed by mime type; materialized payloads are snapshotted into the
// record, datasets with deferred accessors are kept as index-only
// entries whose payload cannot be rehydrated from Redis.
type Store struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// record is the stored form of a single registration.
type record struct {
	HandleID     string    `json:"handle_id"`
	MimeType     string    `json:"mime_type"`
	Payload      []byte    `json:"payload,omitempty"`
	HasPayload   bool      `json:"has_payload"`
	RegisteredAt time.Time `json:"registered_at"`
}

// NewStore creates a new Redis dataset store.
func NewStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Contains reports whether a dataset with the same URL and mime type
// is registered.
func (s *Store) Contains(ctx context.Context, dataset domain.Dataset) (bool, error) {
	ok, err := s.client.HExists(ctx, datasetKey(dataset.URL()), dataset.MimeType()).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return ok, nil
}

// Publish registers a dataset and returns a releasable handle. Only
// materialized payloads are snapshotted: invoking a deferred accessor
// here would run viewer actions and file reads at publish time, and a
// viewer action must run exactly once, when the view is invoked.
func (s *Store) Publish(ctx context.Context, dataset domain.Dataset) (ports.Handle, error) {
	rec := record{
		HandleID:     uuid.New().String(),
		MimeType:     dataset.MimeType(),
		RegisteredAt: time.Now(),
	}

	if dataset.Materialized() {
		payload, err := dataset.Bytes(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload: %w", err)
		}
		rec.Payload = payload
		rec.HasPayload = payload != nil
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	key := datasetKey(dataset.URL())
	if err := s.client.HSet(ctx, key, dataset.MimeType(), data).Err(); err != nil {
		return nil, fmt.Errorf("failed to publish dataset: %w", err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return nil, fmt.Errorf("failed to set TTL: %w", err)
		}
	}

	s.logger.Debug("dataset published",
		zap.String("url", dataset.URL()),
		zap.String("mime_type", dataset.MimeType()),
		zap.Bool("payload_snapshot", rec.HasPayload))

	return &handle{
		id:       rec.HandleID,
		store:    s,
		url:      dataset.URL(),
		mimeType: dataset.MimeType(),
	}, nil
}

// FilterByURL returns the datasets registered for a URL. Payloads are
// rehydrated lazily from Redis on access.
func (s *Store) FilterByURL(ctx context.Context, url string) ([]domain.Dataset, error) {
	fields, err := s.client.HGetAll(ctx, datasetKey(url)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	mimeTypes := make([]string, 0, len(fields))
	for mimeType := range fields {
		mimeTypes = append(mimeTypes, mimeType)
	}
	sort.Strings(mimeTypes)

	out := make([]domain.Dataset, 0, len(mimeTypes))
	for _, mimeType := range mimeTypes {
		out = append(out, s.dataset(url, mimeType))
	}
	return out, nil
}

// MimeTypesForURL returns the mime types registered for a URL, sorted.
func (s *Store) MimeTypesForURL(ctx context.Context, url string) ([]string, error) {
	mimeTypes, err := s.client.HKeys(ctx, datasetKey(url)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list mime types: %w", err)
	}
	sort.Strings(mimeTypes)
	return mimeTypes, nil
}

// dataset builds a lazily rehydrating dataset for a stored record.
func (s *Store) dataset(url, mimeType string) domain.Dataset {
	return domain.NewDataset(url, mimeType, func(ctx context.Context) (interface{}, error) {
		data, err := s.client.HGet(ctx, datasetKey(url), mimeType).Bytes()
		if err != nil {
			if err == redis.Nil {
				return nil, fmt.Errorf("dataset not found: %s (%s)", url, mimeType)
			}
			return nil, fmt.Errorf("failed to get dataset: %w", err)
		}

		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		if !rec.HasPayload {
			return nil, fmt.Errorf("no payload snapshot for %s (%s)", url, mimeType)
		}
		return rec.Payload, nil
	})
}

// remove deletes a registration if it still belongs to handleID.
func (s *Store) remove(url, mimeType, handleID string) {
	ctx := context.Background()
	key := datasetKey(url)

	data, err := s.client.HGet(ctx, key, mimeType).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Error("failed to load record for release",
				zap.String("url", url),
				zap.String("mime_type", mimeType),
				zap.Error(err))
		}
		return
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil || rec.HandleID != handleID {
		return
	}

	if err := s.client.HDel(ctx, key, mimeType).Err(); err != nil {
		s.logger.Error("failed to release registration",
			zap.String("url", url),
			zap.String("mime_type", mimeType),
			zap.Error(err))
	}
}

// handle represents a single registration in the store.
type handle struct {
	id       string
	store    *Store
	url      string
	mimeType string
	once     sync.Once
}

// ID returns the registration identifier.
func (h *handle) ID() string {
	return h.id
}

// Release revokes the registration. Safe to call any number of times.
func (h *handle) Release() {
	h.once.Do(func() {
		h.store.remove(h.url, h.mimeType, h.id)
	})
}

// datasetKey returns the Redis key for a URL's datasets.
func datasetKey(url string) string {
	return fmt.Sprintf("convreg:datasets:%s", url)
}

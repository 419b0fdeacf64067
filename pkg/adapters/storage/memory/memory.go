package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/convreg/convreg/internal/domain"
	"github.com/convreg/convreg/internal/ports"
	"github.com/google/uuid"
)

// Store implements DatasetStore using nested in-memory maps keyed by
// URL and mime type. Identity is (URL, mime type) equality.
type Store struct {
	mu       sync.RWMutex
	datasets map[string]map[string]entry
}

// entry associates a dataset with the handle that registered it, so a
// released handle only removes its own registration.
type entry struct {
	dataset  domain.Dataset
	handleID string
}

// NewStore creates a new in-memory dataset store.
func NewStore() *Store {
	return &Store{
		datasets: make(map[string]map[string]entry),
	}
}

// Contains reports whether a dataset with the same URL and mime type
// is registered.
func (s *Store) Contains(ctx context.Context, dataset domain.Dataset) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.datasets[dataset.URL()][dataset.MimeType()]
	return ok, nil
}

// Publish registers a dataset and returns a releasable handle. A
// republish of the same (URL, mime type) replaces the previous entry.
func (s *Store) Publish(ctx context.Context, dataset domain.Dataset) (ports.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byMime, ok := s.datasets[dataset.URL()]
	if !ok {
		byMime = make(map[string]entry)
		s.datasets[dataset.URL()] = byMime
	}

	id := uuid.New().String()
	byMime[dataset.MimeType()] = entry{
		dataset:  dataset,
		handleID: id,
	}

	return &handle{
		id:       id,
		store:    s,
		url:      dataset.URL(),
		mimeType: dataset.MimeType(),
	}, nil
}

// FilterByURL returns the datasets currently registered for a URL,
// ordered by mime type.
func (s *Store) FilterByURL(ctx context.Context, url string) ([]domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMime := s.datasets[url]
	if len(byMime) == 0 {
		return nil, nil
	}

	mimeTypes := make([]string, 0, len(byMime))
	for mimeType := range byMime {
		mimeTypes = append(mimeTypes, mimeType)
	}
	sort.Strings(mimeTypes)

	out := make([]domain.Dataset, 0, len(mimeTypes))
	for _, mimeType := range mimeTypes {
		out = append(out, byMime[mimeType].dataset)
	}
	return out, nil
}

// MimeTypesForURL returns the mime types currently registered for a
// URL, sorted. Empty for unknown URLs.
func (s *Store) MimeTypesForURL(ctx context.Context, url string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMime := s.datasets[url]
	if len(byMime) == 0 {
		return nil, nil
	}

	out := make([]string, 0, len(byMime))
	for mimeType := range byMime {
		out = append(out, mimeType)
	}
	sort.Strings(out)
	return out, nil
}

// URLCount returns the number of URLs with at least one registration.
func (s *Store) URLCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.datasets)
}

// remove deletes a registration if it still belongs to handleID.
func (s *Store) remove(url, mimeType, handleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byMime := s.datasets[url]
	e, ok := byMime[mimeType]
	if !ok || e.handleID != handleID {
		return
	}

	delete(byMime, mimeType)
	if len(byMime) == 0 {
		delete(s.datasets, url)
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

// Release revokes the registration. Safe to call any number of times,
// and a no-op when the dataset was independently removed or replaced.
func (h *handle) Release() {
	h.once.Do(func() {
		h.store.remove(h.url, h.mimeType, h.id)
	})
}

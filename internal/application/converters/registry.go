package converters

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/convreg/convreg/internal/domain"
	"github.com/convreg/convreg/internal/ports"
	"go.uber.org/zap"
)

// ConvertFunc applies a single conversion step to a dataset.
type ConvertFunc func(ctx context.Context, src domain.Dataset) (domain.Dataset, error)

// Converter is a capability mapping one or more source mime types to
// a target mime type.
type Converter struct {
	Name string
	From []string
	To   string
	Fn   ConvertFunc
}

// Registry holds the registered converter capabilities and implements
// reachability and chain planning over them.
type Registry struct {
	mu         sync.RWMutex
	converters []Converter
	logger     *zap.Logger
}

// NewRegistry creates an empty converter registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger: logger,
	}
}

// Register adds a converter capability. Registration order is kept;
// when several converters cover the same edge the earliest one wins
// during planning.
func (r *Registry) Register(c Converter) error {
	if err := validate(c); err != nil {
		return fmt.Errorf("invalid converter %s: %w", c.Name, err)
	}

	r.mu.Lock()
	r.converters = append(r.converters, c)
	r.mu.Unlock()

	r.logger.Info("converter registered",
		zap.String("name", c.Name),
		zap.Strings("from", c.From),
		zap.String("to", c.To))

	return nil
}

// validate checks a converter definition.
func validate(c Converter) error {
	if c.Name == "" {
		return fmt.Errorf("converter name is required")
	}
	if c.To == "" {
		return fmt.Errorf("target mime type is required")
	}
	if len(c.From) == 0 {
		return fmt.Errorf("converter must have at least one source mime type")
	}
	for _, from := range c.From {
		if from == "" {
			return fmt.Errorf("source mime type is required")
		}
		if from == c.To {
			return fmt.Errorf("source and target mime types must differ: %s", from)
		}
	}
	if c.Fn == nil {
		return fmt.Errorf("converter function is required")
	}
	return nil
}

// Converters returns a snapshot of the registered converters.
func (r *Registry) Converters() []Converter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Converter, len(r.converters))
	copy(out, r.converters)
	return out
}

// ListTargetMimeTypes computes the reachability closure of the seed
// mime types, seeds included. The result is sorted for stable output.
func (r *Registry) ListTargetMimeTypes(seeds []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reached := make(map[string]bool, len(seeds))
	queue := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		if seed == "" || reached[seed] {
			continue
		}
		reached[seed] = true
		queue = append(queue, seed)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, c := range r.converters {
			if reached[c.To] {
				continue
			}
			for _, from := range c.From {
				if from == current {
					reached[c.To] = true
					queue = append(queue, c.To)
					break
				}
			}
		}
	}

	out := make([]string, 0, len(reached))
	for mimeType := range reached {
		out = append(out, mimeType)
	}
	sort.Strings(out)
	return out
}

// Convert plans the shortest conversion path from any of the source
// datasets toward the target and returns the lazy chain over it. No
// converter runs before the chain is pulled. An unreachable target
// yields an immediately exhausted chain.
func (r *Registry) Convert(ctx context.Context, sources []domain.Dataset, target string) ports.Chain {
	// Zero-step case: the target is already among the sources.
	for _, src := range sources {
		if src.MimeType() == target {
			return &stepChain{current: src, zeroStep: true}
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	start, steps := r.plan(sources, target)
	if steps == nil {
		r.logger.Debug("target unreachable",
			zap.String("target", target),
			zap.Int("sources", len(sources)))
		return &exhaustedChain{}
	}

	return &stepChain{current: start, steps: steps}
}

// plan runs a breadth-first search over converter edges from every
// source mime type, returning the starting dataset and the converter
// sequence for the shortest path found. Caller holds the read lock.
func (r *Registry) plan(sources []domain.Dataset, target string) (domain.Dataset, []Converter) {
	type node struct {
		mimeType string
		source   domain.Dataset
		steps    []Converter
	}

	visited := make(map[string]bool, len(sources))
	queue := make([]node, 0, len(sources))
	for _, src := range sources {
		if visited[src.MimeType()] {
			continue
		}
		visited[src.MimeType()] = true
		queue = append(queue, node{mimeType: src.MimeType(), source: src})
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, c := range r.converters {
			if visited[c.To] {
				continue
			}
			for _, from := range c.From {
				if from != current.mimeType {
					continue
				}

				steps := make([]Converter, len(current.steps), len(current.steps)+1)
				copy(steps, current.steps)
				steps = append(steps, c)

				if c.To == target {
					return current.source, steps
				}

				visited[c.To] = true
				queue = append(queue, node{mimeType: c.To, source: current.source, steps: steps})
				break
			}
		}
	}

	return domain.Dataset{}, nil
}

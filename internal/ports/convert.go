package ports

import (
	"context"

	"github.com/convreg/convreg/internal/domain"
)

// Chain is a lazily produced conversion sequence. Each Next call
// performs at most one converter application; nothing runs ahead of
// the consumer. A chain is finite and not restartable.
type Chain interface {
	// Next returns the next converted dataset. The second return is
	// false once the chain is exhausted.
	Next(ctx context.Context) (domain.Dataset, bool, error)
}

// ConverterGraph owns the registered converter capabilities and the
// reachability algorithm over them.
type ConverterGraph interface {
	// ListTargetMimeTypes computes the reachability closure of the
	// seed mime types, seeds included. Pure, no mutation.
	ListTargetMimeTypes(seeds []string) []string

	// Convert produces the step-by-step chain from the given source
	// datasets toward the target mime type. On success the final
	// element has the target mime type; an unreachable target yields
	// an immediately exhausted chain.
	Convert(ctx context.Context, sources []domain.Dataset, target string) Chain
}

// URLResolver maps a raw URL to its initial dataset and mime type.
type URLResolver interface {
	// ResolveDataSet resolves a URL to a dataset with a lazy payload.
	ResolveDataSet(ctx context.Context, url string) (domain.Dataset, error)

	// ResolveMimeType sniffs the mime type of a URL without touching
	// the store. Deterministic per URL.
	ResolveMimeType(url string) string
}

package converters

import (
	"context"
	"fmt"

	"github.com/convreg/convreg/internal/domain"
)

// stepChain walks a planned conversion path one converter per pull.
// Nothing executes ahead of Next; the consumer controls pacing.
type stepChain struct {
	current  domain.Dataset
	steps    []Converter
	idx      int
	zeroStep bool
	yielded  bool
	failed   bool
}

// Next applies the next planned converter to the running dataset. For
// a zero-step chain the already-satisfying source is yielded exactly
// once so the consumer never sees an empty sequence for a satisfied
// target.
func (c *stepChain) Next(ctx context.Context) (domain.Dataset, bool, error) {
	if c.failed {
		return domain.Dataset{}, false, nil
	}

	if c.zeroStep {
		if c.yielded {
			return domain.Dataset{}, false, nil
		}
		c.yielded = true
		return c.current, true, nil
	}

	if c.idx >= len(c.steps) {
		return domain.Dataset{}, false, nil
	}

	if err := ctx.Err(); err != nil {
		c.failed = true
		return domain.Dataset{}, false, err
	}

	step := c.steps[c.idx]
	converted, err := step.Fn(ctx, c.current)
	if err != nil {
		c.failed = true
		return domain.Dataset{}, false, fmt.Errorf("converter %s failed: %w", step.Name, err)
	}

	c.idx++
	c.current = converted
	return converted, true, nil
}

// exhaustedChain is the chain for an unreachable target.
type exhaustedChain struct{}

func (c *exhaustedChain) Next(ctx context.Context) (domain.Dataset, bool, error) {
	return domain.Dataset{}, false, nil
}

package cost

import (
	"errors"
	"fmt"

	"github.com/everstacklabs/modelroute/internal/catalog"
)

// ErrInvalidUsage is returned for negative token counts.
var ErrInvalidUsage = errors.New("invalid usage")

const perMillion = 1e6

// Usage is the token usage of one request.
type Usage struct {
	Input     int64  `yaml:"input"`
	Output    int64  `yaml:"output"`
	Cached    *int64 `yaml:"cached,omitempty"`
	Reasoning *int64 `yaml:"reasoning,omitempty"`
}

// Money is an amount in USD.
type Money float64

func (m Money) String() string {
	return fmt.Sprintf("$%.6f", float64(m))
}

// Calculate returns the cost of usage against d's pricing. Local models are
// always free.
func Calculate(d *catalog.Descriptor, u Usage) (Money, error) {
	if err := u.validate(); err != nil {
		return 0, err
	}
	if d.Local {
		return 0, nil
	}

	p := d.Pricing
	total := float64(u.Input)/perMillion*p.Input +
		float64(u.Output)/perMillion*p.Output +
		float64(deref(u.Cached))/perMillion*derefPrice(p.CachedInput) +
		float64(deref(u.Reasoning))/perMillion*derefPrice(p.ReasoningOutput)

	return Money(total), nil
}

func (u Usage) validate() error {
	if u.Input < 0 {
		return fmt.Errorf("%w: input tokens %d", ErrInvalidUsage, u.Input)
	}
	if u.Output < 0 {
		return fmt.Errorf("%w: output tokens %d", ErrInvalidUsage, u.Output)
	}
	if u.Cached != nil && *u.Cached < 0 {
		return fmt.Errorf("%w: cached tokens %d", ErrInvalidUsage, *u.Cached)
	}
	if u.Reasoning != nil && *u.Reasoning < 0 {
		return fmt.Errorf("%w: reasoning tokens %d", ErrInvalidUsage, *u.Reasoning)
	}
	return nil
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefPrice(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

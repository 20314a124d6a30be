package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/everstacklabs/modelroute/internal/catalog"
)

var (
	// ErrUnresolvedIdentifier is returned for ids that are neither in the
	// catalog nor of the form <vendor>:<model-name>.
	ErrUnresolvedIdentifier = errors.New("unresolved model identifier")
	// ErrMigrationCycle is returned when a migration chain exceeds the hop limit.
	ErrMigrationCycle = errors.New("migration chain exceeds hop limit")
)

const (
	// DefaultMaxHops bounds migration chain traversal.
	DefaultMaxHops = 10
	// DefaultContextWindow is given to synthesized descriptors.
	DefaultContextWindow = 128000
	// StatusCustom marks synthesized descriptors.
	StatusCustom = "custom"
)

// Resolver maps raw identifiers to catalog descriptors.
type Resolver struct {
	cat     *catalog.Catalog
	maxHops int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxHops overrides the migration hop limit.
func WithMaxHops(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxHops = n
		}
	}
}

// New creates a resolver over cat.
func New(cat *catalog.Catalog, opts ...Option) *Resolver {
	r := &Resolver{cat: cat, maxHops: DefaultMaxHops}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolution describes how a raw id was resolved.
type Resolution struct {
	Raw         string
	Hops        []string // ids visited after Raw, in order
	Descriptor  *catalog.Descriptor
	Synthesized bool
}

// Resolve returns the descriptor for raw, following migrations and
// synthesizing a minimal descriptor for well-formed unknown ids.
func (r *Resolver) Resolve(raw string) (*catalog.Descriptor, error) {
	res, err := r.Trace(raw)
	if err != nil {
		return nil, err
	}
	return res.Descriptor, nil
}

// Trace resolves raw and reports the migration hops taken.
func (r *Resolver) Trace(raw string) (*Resolution, error) {
	id := strings.TrimSpace(raw)
	res := &Resolution{Raw: raw}

	chain := []string{id}
	for hops := 0; ; hops++ {
		m, ok := r.cat.MigrationFor(id)
		if !ok {
			break
		}
		if hops >= r.maxHops {
			return nil, fmt.Errorf("%w (%d): %s", ErrMigrationCycle, r.maxHops, strings.Join(chain, " -> "))
		}
		id = m.To
		chain = append(chain, id)
		res.Hops = append(res.Hops, id)
	}

	if d, ok := r.cat.Get(id); ok {
		res.Descriptor = d
		return res, nil
	}

	d, err := Synthesize(id)
	if err != nil {
		return nil, err
	}
	res.Descriptor = d
	res.Synthesized = true
	return res, nil
}

// Synthesize builds the minimal descriptor used for ids missing from the catalog.
func Synthesize(id string) (*catalog.Descriptor, error) {
	vendor, name, found := strings.Cut(id, ":")
	if !found || vendor == "" || name == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnresolvedIdentifier, id)
	}
	return &catalog.Descriptor{
		ID:            id,
		DisplayName:   name,
		Description:   fmt.Sprintf("Custom model %s from %s", name, vendor),
		Vendor:        catalog.Vendor(vendor),
		Status:        StatusCustom,
		ContextWindow: DefaultContextWindow,
		Capabilities:  []catalog.Capability{},
	}, nil
}

// Package engine bundles the resolver, reasoning translator, host orderer,
// cost calculator and metrics engine over one catalog snapshot. It is the
// surface the dispatch layer calls to prepare a provider request.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/everstacklabs/modelroute/internal/catalog"
	"github.com/everstacklabs/modelroute/internal/cost"
	"github.com/everstacklabs/modelroute/internal/hosts"
	"github.com/everstacklabs/modelroute/internal/metrics"
	"github.com/everstacklabs/modelroute/internal/reasoning"
	"github.com/everstacklabs/modelroute/internal/resolve"
	"github.com/everstacklabs/modelroute/internal/validate"
)

// Engine is safe for concurrent use.
type Engine struct {
	cat      *catalog.Catalog
	resolver *resolve.Resolver
	metrics  *metrics.Engine
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	maxHops int
}

// WithMaxHops overrides the migration hop limit.
func WithMaxHops(n int) Option {
	return func(o *options) { o.maxHops = n }
}

// New creates an engine over cat. It refuses a catalog with validation
// errors, since translation trusts every reasoning shape to map all three
// effort levels.
func New(cat *catalog.Catalog, opts ...Option) (*Engine, error) {
	if res := validate.ValidateCatalog(cat); res.HasErrors() {
		first := res.Errors()[0]
		slog.Error("catalog rejected", "version", cat.Version(), "errors", len(res.Errors()), "first", first.String())
		return nil, fmt.Errorf("%w: %d errors, first: %s", validate.ErrInvalidCatalog, len(res.Errors()), first)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		cat:      cat,
		resolver: resolve.New(cat, resolve.WithMaxHops(o.maxHops)),
		metrics:  metrics.New(cat),
	}, nil
}

// Catalog returns the snapshot the engine serves.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Resolve returns the descriptor for a raw identifier.
func (e *Engine) Resolve(raw string) (*catalog.Descriptor, error) {
	d, err := e.resolver.Resolve(raw)
	if err != nil {
		slog.Warn("resolve failed", "id", raw, "error", err)
		return nil, err
	}
	return d, nil
}

// Trace resolves raw and reports the migration hops taken.
func (e *Engine) Trace(raw string) (*resolve.Resolution, error) {
	res, err := e.resolver.Trace(raw)
	if err != nil {
		slog.Warn("resolve failed", "id", raw, "error", err)
		return nil, err
	}
	return res, nil
}

// Translate resolves raw and maps effort onto its reasoning control.
func (e *Engine) Translate(raw string, effort catalog.Effort) (reasoning.Params, error) {
	d, err := e.Resolve(raw)
	if err != nil {
		return reasoning.Params{}, err
	}
	p, err := reasoning.Translate(d, effort)
	if err != nil {
		slog.Warn("translate failed", "id", d.ID, "effort", effort, "error", err)
		return reasoning.Params{}, err
	}
	return p, nil
}

// Order resolves raw and returns its host order. ok is false when any host
// may serve it.
func (e *Engine) Order(raw string) (order []string, ok bool, err error) {
	d, err := e.Resolve(raw)
	if err != nil {
		return nil, false, err
	}
	order, ok = hosts.Order(d)
	return order, ok, nil
}

// Cost resolves raw and prices usage against it.
func (e *Engine) Cost(raw string, u cost.Usage) (cost.Money, error) {
	d, err := e.Resolve(raw)
	if err != nil {
		return 0, err
	}
	m, err := cost.Calculate(d, u)
	if err != nil {
		slog.Warn("cost failed", "id", d.ID, "error", err)
		return 0, err
	}
	return m, nil
}

// Metrics resolves raw and returns its computed metrics.
func (e *Engine) Metrics(raw string) (metrics.ComputedMetrics, error) {
	d, err := e.Resolve(raw)
	if err != nil {
		return metrics.ComputedMetrics{}, err
	}
	return e.metrics.Metrics(d), nil
}

// Rank orders the catalog by dim, best first.
func (e *Engine) Rank(dim metrics.Dimension) []metrics.Ranked {
	return e.metrics.Rank(dim)
}

// ModelsByProvider groups the catalog's descriptors by vendor.
func (e *Engine) ModelsByProvider() map[catalog.Vendor][]*catalog.Descriptor {
	return e.cat.ModelsByProvider()
}

// Plan is everything the dispatch layer needs to issue one request.
type Plan struct {
	Resolution *resolve.Resolution
	// Reasoning is nil when no effort was requested or the model has no
	// reasoning control.
	Reasoning *reasoning.Params
	Hosts     []string
	// AnyHost is set when the model has no host preference.
	AnyHost bool
}

// Prepare resolves raw, translates effort when one is given and orders the
// hosts. An empty effort skips translation. A non-empty effort on a model
// without reasoning control is ignored, but an invalid effort is an error.
func (e *Engine) Prepare(raw string, effort catalog.Effort) (*Plan, error) {
	res, err := e.Trace(raw)
	if err != nil {
		return nil, err
	}
	plan := &Plan{Resolution: res}

	if effort != "" {
		if !effort.Valid() {
			return nil, fmt.Errorf("%w: %q", reasoning.ErrInvalidEffort, effort)
		}
		p, err := reasoning.Translate(res.Descriptor, effort)
		switch {
		case errors.Is(err, reasoning.ErrNotReasoningCapable):
			slog.Debug("effort ignored", "id", res.Descriptor.ID, "effort", effort)
		case err != nil:
			slog.Warn("translate failed", "id", res.Descriptor.ID, "effort", effort, "error", err)
			return nil, err
		default:
			plan.Reasoning = &p
		}
	}

	order, ok := hosts.Order(res.Descriptor)
	plan.Hosts, plan.AnyHost = order, !ok

	slog.Debug("request prepared",
		"raw", raw,
		"id", res.Descriptor.ID,
		"hops", len(res.Hops),
		"synthesized", res.Synthesized,
		"hosts", len(plan.Hosts))
	return plan, nil
}

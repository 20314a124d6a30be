package metrics

import (
	"cmp"
	"slices"
	"sync"

	"github.com/everstacklabs/modelroute/internal/catalog"
)

// Engine computes metrics against one catalog snapshot. Metrics from
// different engines must not be compared with each other.
type Engine struct {
	cat   *catalog.Catalog
	cache *Cache

	distOnce sync.Once
	dist     distribution
}

// New creates an engine for cat.
func New(cat *catalog.Catalog) *Engine {
	return &Engine{cat: cat, cache: NewCache()}
}

// Metrics returns d's metrics, computing them on first request.
func (e *Engine) Metrics(d *catalog.Descriptor) ComputedMetrics {
	m := e.cache.GetOrCompute(d.ID, func() ComputedMetrics {
		return e.compute(d)
	})
	return m.clone()
}

// Scores returns d's resolved benchmark scores.
func (e *Engine) Scores(d *catalog.Descriptor) Scores {
	return e.Metrics(d).Scores
}

// Cached returns the number of memoized descriptors.
func (e *Engine) Cached() int {
	return e.cache.Len()
}

func (e *Engine) distribution() distribution {
	e.distOnce.Do(func() {
		e.dist = buildDistribution(e.cat)
	})
	return e.dist
}

func (e *Engine) compute(d *catalog.Descriptor) ComputedMetrics {
	scores := ResolveScores(d)
	speed, tokensPerSecond := Speed(d)
	costTier, avg := Cost(d)

	dist := e.distribution()
	_, member := e.cat.Get(d.ID)

	return ComputedMetrics{
		Scores:                 scores,
		SpeedTier:              speed,
		SpeedTokensPerSecond:   tokensPerSecond,
		CostTier:               costTier,
		CostPerMillionAverage:  avg,
		IntelligencePercentile: percentile(dist.intelligence, scores.Intelligence, member),
		CodingPercentile:       percentile(dist.coding, scores.Coding, member),
		ReasoningPercentile:    percentile(dist.reasoning, scores.Reasoning, member),
		HasPublishedBenchmarks: scores.Published,
	}
}

// Ranked pairs a descriptor with its metrics.
type Ranked struct {
	Descriptor *catalog.Descriptor
	Metrics    ComputedMetrics
}

// Rank orders the whole catalog best-first along dim: highest score for
// benchmark dimensions, fastest for speed, cheapest for cost. Ties are
// broken by id.
func (e *Engine) Rank(dim Dimension) []Ranked {
	all := e.cat.All()
	out := make([]Ranked, 0, len(all))
	for _, d := range all {
		out = append(out, Ranked{Descriptor: d, Metrics: e.Metrics(d)})
	}

	slices.SortStableFunc(out, func(a, b Ranked) int {
		if c := compareBy(dim, a.Metrics, b.Metrics); c != 0 {
			return c
		}
		return cmp.Compare(a.Descriptor.ID, b.Descriptor.ID)
	})
	return out
}

// compareBy returns a negative value when a ranks ahead of b.
func compareBy(dim Dimension, a, b ComputedMetrics) int {
	switch dim {
	case DimCoding:
		return cmp.Compare(b.Scores.Coding, a.Scores.Coding)
	case DimReasoning:
		return cmp.Compare(b.Scores.Reasoning, a.Scores.Reasoning)
	case DimSpeed:
		if c := cmp.Compare(b.SpeedTier.rank(), a.SpeedTier.rank()); c != 0 {
			return c
		}
		return cmp.Compare(deref(b.SpeedTokensPerSecond), deref(a.SpeedTokensPerSecond))
	case DimCost:
		return cmp.Compare(a.CostPerMillionAverage, b.CostPerMillionAverage)
	default:
		return cmp.Compare(b.Scores.Intelligence, a.Scores.Intelligence)
	}
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// ParseDimension validates a dimension name.
func ParseDimension(s string) (Dimension, bool) {
	d := Dimension(s)
	return d, slices.Contains(Dimensions, d)
}

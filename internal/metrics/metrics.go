package metrics

import (
	"math"
	"strings"

	"github.com/everstacklabs/modelroute/internal/catalog"
)

// SpeedTier is a coarse throughput class.
type SpeedTier string

const (
	SpeedUltraFast SpeedTier = "ultra-fast"
	SpeedFast      SpeedTier = "fast"
	SpeedMedium    SpeedTier = "medium"
	SpeedSlow      SpeedTier = "slow"
)

func (s SpeedTier) rank() int {
	switch s {
	case SpeedUltraFast:
		return 4
	case SpeedFast:
		return 3
	case SpeedMedium:
		return 2
	case SpeedSlow:
		return 1
	}
	return 0
}

// CostTier is a coarse price class.
type CostTier string

const (
	CostBudget   CostTier = "budget"
	CostBalanced CostTier = "balanced"
	CostPremium  CostTier = "premium"
)

// Scores are benchmark scores on a 0-100 scale.
type Scores struct {
	Intelligence float64 `yaml:"intelligence"`
	Coding       float64 `yaml:"coding"`
	Reasoning    float64 `yaml:"reasoning"`
	Published    bool    `yaml:"published"`
}

// ComputedMetrics are the derived ranking metrics of one descriptor.
// They are never persisted.
type ComputedMetrics struct {
	Scores                 Scores    `yaml:"scores"`
	SpeedTier              SpeedTier `yaml:"speed_tier"`
	SpeedTokensPerSecond   *int      `yaml:"speed_tokens_per_second,omitempty"`
	CostTier               CostTier  `yaml:"cost_tier"`
	CostPerMillionAverage  float64   `yaml:"cost_per_million_average"`
	IntelligencePercentile *int      `yaml:"intelligence_percentile,omitempty"`
	CodingPercentile       *int      `yaml:"coding_percentile,omitempty"`
	ReasoningPercentile    *int      `yaml:"reasoning_percentile,omitempty"`
	HasPublishedBenchmarks bool      `yaml:"has_published_benchmarks"`
}

func (m ComputedMetrics) clone() ComputedMetrics {
	m.SpeedTokensPerSecond = cloneInt(m.SpeedTokensPerSecond)
	m.IntelligencePercentile = cloneInt(m.IntelligencePercentile)
	m.CodingPercentile = cloneInt(m.CodingPercentile)
	m.ReasoningPercentile = cloneInt(m.ReasoningPercentile)
	return m
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ResolveScores returns d's benchmark scores: published scores when present,
// otherwise a vendor baseline scaled by a name-tier multiplier and adjusted
// for capabilities. Published scores are authoritative and skip the
// capability adjustment. Every score is clamped to [0, 100].
func ResolveScores(d *catalog.Descriptor) Scores {
	if b := d.Benchmarks; b != nil {
		return Scores{
			Intelligence: clamp(b.Intelligence),
			Coding:       clamp(b.Coding),
			Reasoning:    clamp(b.Reasoning),
			Published:    true,
		}
	}

	s := estimate(d)
	adjust(d, &s)
	s.Intelligence = clamp(s.Intelligence)
	s.Coding = clamp(s.Coding)
	s.Reasoning = clamp(s.Reasoning)
	return s
}

func estimate(d *catalog.Descriptor) Scores {
	baseline, ok := vendorBaselines[d.Vendor]
	if !ok {
		baseline = defaultBaseline
	}

	factor := 1.0
	label := strings.ToLower(d.Label())
	for _, m := range tierMultipliers {
		if strings.Contains(label, m.fragment) {
			factor = m.factor
			break
		}
	}

	intelligence := math.Round(baseline * factor)
	return Scores{
		Intelligence: intelligence,
		Coding:       math.Round(intelligence * codingFactor),
		Reasoning:    math.Round(intelligence * reasoningFactor),
	}
}

func adjust(d *catalog.Descriptor, s *Scores) {
	switch {
	case d.Has(catalog.CapExtendedThinking):
		s.Intelligence += extendedThinkingIntelligence
		s.Reasoning += extendedThinkingReasoning
	case d.Has(catalog.CapThinking):
		s.Intelligence += thinkingIntelligence
		s.Reasoning += thinkingReasoning
	}
	if d.Has(catalog.CapVision) {
		s.Intelligence = math.Min(s.Intelligence, visionIntelligenceCap)
	}
	if d.Local {
		s.Intelligence = math.Min(s.Intelligence, localIntelligenceCap)
		s.Coding = math.Min(s.Coding, localCodingCap)
	}
}

// Speed returns d's speed tier and, when published, its tokens per second.
func Speed(d *catalog.Descriptor) (SpeedTier, *int) {
	if e, ok := hostSpeeds[d.Vendor]; ok {
		return e.tier, tps(e)
	}

	label := strings.ToLower(d.Label())
	for _, ns := range nameSpeeds {
		if strings.Contains(label, ns.fragment) {
			return ns.entry.tier, tps(ns.entry)
		}
	}

	switch {
	case d.Has(catalog.CapExtendedThinking):
		return SpeedSlow, nil
	default:
		// Thinking models without a fast name, local models and everything
		// else share the safe default.
		return SpeedMedium, nil
	}
}

func tps(e speedEntry) *int {
	if e.tokensPerSecond == 0 {
		return nil
	}
	v := e.tokensPerSecond
	return &v
}

// Cost returns d's cost tier and average per-million price.
func Cost(d *catalog.Descriptor) (CostTier, float64) {
	if d.Local {
		return CostBudget, 0
	}
	avg := (d.Pricing.Input + d.Pricing.Output) / 2
	switch {
	case avg < budgetCostCeiling:
		return CostBudget, avg
	case avg < balancedCostCeiling:
		return CostBalanced, avg
	default:
		return CostPremium, avg
	}
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

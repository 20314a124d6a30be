package metrics

import (
	"math"
	"slices"
	"sort"

	"github.com/everstacklabs/modelroute/internal/catalog"
)

// Dimension names a benchmark or ranking dimension.
type Dimension string

const (
	DimIntelligence Dimension = "intelligence"
	DimCoding       Dimension = "coding"
	DimReasoning    Dimension = "reasoning"
	DimSpeed        Dimension = "speed"
	DimCost         Dimension = "cost"
)

// Dimensions lists every dimension Rank accepts.
var Dimensions = []Dimension{DimIntelligence, DimCoding, DimReasoning, DimSpeed, DimCost}

// distribution holds the sorted valid scores of a catalog snapshot.
type distribution struct {
	intelligence []float64
	coding       []float64
	reasoning    []float64
}

func buildDistribution(cat *catalog.Catalog) distribution {
	var dist distribution
	for _, d := range cat.All() {
		s := ResolveScores(d)
		dist.intelligence = appendValid(dist.intelligence, s.Intelligence)
		dist.coding = appendValid(dist.coding, s.Coding)
		dist.reasoning = appendValid(dist.reasoning, s.Reasoning)
	}
	slices.Sort(dist.intelligence)
	slices.Sort(dist.coding)
	slices.Sort(dist.reasoning)
	return dist
}

func appendValid(scores []float64, v float64) []float64 {
	if v <= 0 {
		return scores
	}
	return append(scores, v)
}

// percentile ranks score against sorted: the share of the other valid
// scores strictly below it. member reports whether score is itself part of
// sorted. Invalid scores have no percentile.
func percentile(sorted []float64, score float64, member bool) *int {
	if score <= 0 {
		return nil
	}
	others := len(sorted)
	if member {
		others--
	}
	p := 100
	if others > 0 {
		below := sort.SearchFloat64s(sorted, score)
		p = int(math.Round(100 * float64(below) / float64(others)))
		p = min(max(p, 0), 100)
	}
	return &p
}

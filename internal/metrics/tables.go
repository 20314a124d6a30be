package metrics

import "github.com/everstacklabs/modelroute/internal/catalog"

// The constants below are heuristics kept for compatibility with the
// published rankings. Treat them as data; do not tune them in code.

// defaultBaseline is the intelligence baseline for vendors missing from vendorBaselines.
const defaultBaseline = 70

var vendorBaselines = map[catalog.Vendor]float64{
	catalog.VendorOpenAI:     80,
	catalog.VendorAnthropic:  82,
	catalog.VendorGoogle:     80,
	catalog.VendorXAI:        78,
	catalog.VendorDeepSeek:   76,
	catalog.VendorQwen:       74,
	catalog.VendorMoonshot:   74,
	catalog.VendorPerplexity: 72,
	catalog.VendorMistral:    70,
	catalog.VendorMeta:       68,
	catalog.VendorOllama:     62,
}

type multiplier struct {
	fragment string
	factor   float64
}

// tierMultipliers is matched in order as substrings of the lowercased
// display name; first match wins.
var tierMultipliers = []multiplier{
	{"nano", 0.6},
	{"mini", 0.7},
	{"lite", 0.75},
	{"haiku", 0.75},
	{"small", 0.75},
	{"flash", 0.85},
	{"turbo", 0.95},
	{"sonnet", 1.1},
	{"pro", 1.2},
	{"opus", 1.25},
	{"ultra", 1.3},
}

const (
	codingFactor    = 0.9
	reasoningFactor = 0.95

	extendedThinkingIntelligence = 10
	extendedThinkingReasoning    = 15
	thinkingIntelligence         = 5
	thinkingReasoning            = 10

	visionIntelligenceCap = 85
	localIntelligenceCap  = 75
	localCodingCap        = 70
)

type speedEntry struct {
	tier            SpeedTier
	tokensPerSecond int // 0 when unpublished
}

// hostSpeeds is keyed by the vendor family serving the model.
var hostSpeeds = map[catalog.Vendor]speedEntry{
	catalog.VendorCerebras:  {SpeedUltraFast, 2000},
	catalog.VendorGroq:      {SpeedUltraFast, 500},
	catalog.VendorSambaNova: {SpeedUltraFast, 450},
	catalog.VendorFireworks: {SpeedFast, 200},
	catalog.VendorTogether:  {SpeedFast, 150},
}

type nameSpeed struct {
	fragment string
	entry    speedEntry
}

// nameSpeeds is matched like tierMultipliers.
var nameSpeeds = []nameSpeed{
	{"nano", speedEntry{SpeedFast, 0}},
	{"lite", speedEntry{SpeedFast, 0}},
	{"mini", speedEntry{SpeedFast, 0}},
	{"flash", speedEntry{SpeedFast, 0}},
	{"haiku", speedEntry{SpeedFast, 0}},
	{"instant", speedEntry{SpeedFast, 0}},
	{"turbo", speedEntry{SpeedFast, 0}},
	{"small", speedEntry{SpeedFast, 0}},
}

const (
	budgetCostCeiling   = 1.0
	balancedCostCeiling = 10.0
)

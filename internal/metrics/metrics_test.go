package metrics

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/everstacklabs/modelroute/internal/catalog"
)

var (
	gpt51 = catalog.Descriptor{
		ID:           "openai:gpt-5.1",
		DisplayName:  "GPT-5.1",
		Vendor:       catalog.VendorOpenAI,
		Pricing:      catalog.Pricing{Input: 1.25, Output: 10},
		Capabilities: []catalog.Capability{catalog.CapVision, catalog.CapThinking},
		Benchmarks:   &catalog.Benchmarks{Intelligence: 88, Coding: 86, Reasoning: 90},
	}
	haiku = catalog.Descriptor{
		ID:           "anthropic:claude-haiku-4-5",
		DisplayName:  "Claude Haiku 4.5",
		Vendor:       catalog.VendorAnthropic,
		Pricing:      catalog.Pricing{Input: 1, Output: 5},
		Capabilities: []catalog.Capability{catalog.CapVision, catalog.CapThinking},
	}
	flash = catalog.Descriptor{
		ID:           "google:gemini-2.5-flash",
		DisplayName:  "Gemini 2.5 Flash",
		Vendor:       catalog.VendorGoogle,
		Pricing:      catalog.Pricing{Input: 0.3, Output: 2.5},
		Capabilities: []catalog.Capability{catalog.CapVision, catalog.CapThinking},
	}
	llama = catalog.Descriptor{
		ID:          "ollama:llama3.2",
		DisplayName: "Llama 3.2 (local)",
		Vendor:      catalog.VendorOllama,
		Local:       true,
	}
)

func newCatalog(t *testing.T, descs ...catalog.Descriptor) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New("1.0.0", descs, nil)
	if err != nil {
		t.Fatal(err)
	}
	return cat
}

func TestResolveScores(t *testing.T) {
	tests := []struct {
		name string
		d    catalog.Descriptor
		want Scores
	}{
		{
			name: "published scores used verbatim",
			d:    gpt51,
			want: Scores{Intelligence: 88, Coding: 86, Reasoning: 90, Published: true},
		},
		{
			name: "vendor baseline, haiku tier, thinking bonus",
			d:    haiku,
			want: Scores{Intelligence: 67, Coding: 56, Reasoning: 69},
		},
		{
			name: "gemini matches the mini fragment first",
			d:    flash,
			want: Scores{Intelligence: 61, Coding: 50, Reasoning: 63},
		},
		{
			name: "gemini pro still takes the mini multiplier",
			d: catalog.Descriptor{
				ID:          "google:gemini-2.5-pro",
				DisplayName: "Gemini 2.5 Pro",
				Vendor:      catalog.VendorGoogle,
			},
			want: Scores{Intelligence: 56, Coding: 50, Reasoning: 53},
		},
		{
			name: "fragment glued to a version number",
			d: catalog.Descriptor{
				ID:          "anthropic:claude-opus4",
				DisplayName: "Claude Opus4",
				Vendor:      catalog.VendorAnthropic,
			},
			want: Scores{Intelligence: 100, Coding: 93, Reasoning: 98},
		},
		{
			name: "fragment inside a single word name",
			d:    catalog.Descriptor{ID: "openai:o4mini", Vendor: catalog.VendorOpenAI},
			want: Scores{Intelligence: 56, Coding: 50, Reasoning: 53},
		},
		{
			name: "local model",
			d:    llama,
			want: Scores{Intelligence: 62, Coding: 56, Reasoning: 59},
		},
		{
			name: "unknown vendor clamps at 100",
			d: catalog.Descriptor{
				ID:           "acme:ultra-model",
				DisplayName:  "Acme Ultra",
				Vendor:       "acme",
				Capabilities: []catalog.Capability{catalog.CapExtendedThinking},
			},
			want: Scores{Intelligence: 100, Coding: 82, Reasoning: 100},
		},
		{
			name: "vision caps intelligence",
			d: catalog.Descriptor{
				ID:           "xai:grok-4-pro",
				DisplayName:  "Grok 4 Pro",
				Vendor:       catalog.VendorXAI,
				Capabilities: []catalog.Capability{catalog.CapVision, catalog.CapExtendedThinking},
			},
			want: Scores{Intelligence: 85, Coding: 85, Reasoning: 100},
		},
		{
			name: "local caps intelligence and coding",
			d: catalog.Descriptor{
				ID:          "openai:gpt-oss-pro",
				DisplayName: "GPT OSS Pro",
				Vendor:      catalog.VendorOpenAI,
				Local:       true,
			},
			want: Scores{Intelligence: 75, Coding: 70, Reasoning: 91},
		},
		{
			name: "published scores are clamped",
			d: catalog.Descriptor{
				ID:         "test:overflow",
				Benchmarks: &catalog.Benchmarks{Intelligence: 120, Coding: -4, Reasoning: 50},
			},
			want: Scores{Intelligence: 100, Coding: 0, Reasoning: 50, Published: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveScores(&tt.d)
			if got != tt.want {
				t.Errorf("ResolveScores = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScoresClampedAcrossDefaultCatalog(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	e := New(cat)
	for _, d := range cat.All() {
		s := e.Metrics(d).Scores
		for name, v := range map[string]float64{"intelligence": s.Intelligence, "coding": s.Coding, "reasoning": s.Reasoning} {
			if v < 0 || v > 100 {
				t.Errorf("%s %s score %v outside [0,100]", d.ID, name, v)
			}
		}
		m := e.Metrics(d)
		for name, p := range map[string]*int{"intelligence": m.IntelligencePercentile, "coding": m.CodingPercentile, "reasoning": m.ReasoningPercentile} {
			if p != nil && (*p < 0 || *p > 100) {
				t.Errorf("%s %s percentile %d outside [0,100]", d.ID, name, *p)
			}
		}
	}
}

func TestSpeed(t *testing.T) {
	tests := []struct {
		name    string
		d       catalog.Descriptor
		want    SpeedTier
		wantTPS int
	}{
		{"host table", catalog.Descriptor{ID: "groq:llama-3.3-70b", Vendor: catalog.VendorGroq}, SpeedUltraFast, 500},
		{"name fragment", catalog.Descriptor{ID: "openai:gpt-5-mini", DisplayName: "GPT-5 Mini", Vendor: catalog.VendorOpenAI}, SpeedFast, 0},
		{"extended thinking", catalog.Descriptor{ID: "openai:o3", DisplayName: "o3", Capabilities: []catalog.Capability{catalog.CapThinking, catalog.CapExtendedThinking}}, SpeedSlow, 0},
		{"thinking without fast name", catalog.Descriptor{ID: "deepseek:deepseek-r1", DisplayName: "DeepSeek R1", Capabilities: []catalog.Capability{catalog.CapThinking}}, SpeedMedium, 0},
		{"fragment inside a word", catalog.Descriptor{ID: "openai:o4mini", Capabilities: []catalog.Capability{catalog.CapExtendedThinking}}, SpeedFast, 0},
		{"thinking with fast name", catalog.Descriptor{ID: "google:gemini-2.5-flash", DisplayName: "Gemini 2.5 Flash", Capabilities: []catalog.Capability{catalog.CapThinking}}, SpeedFast, 0},
		{"local", llama, SpeedMedium, 0},
		{"default", catalog.Descriptor{ID: "mistral:magistral-medium", DisplayName: "Magistral Medium"}, SpeedMedium, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, tps := Speed(&tt.d)
			if tier != tt.want {
				t.Errorf("tier = %s, want %s", tier, tt.want)
			}
			if deref(tps) != tt.wantTPS {
				t.Errorf("tokens/s = %d, want %d", deref(tps), tt.wantTPS)
			}
		})
	}
}

func TestCost(t *testing.T) {
	tests := []struct {
		name    string
		d       catalog.Descriptor
		want    CostTier
		wantAvg float64
	}{
		{"local is budget at zero", catalog.Descriptor{Local: true, Pricing: catalog.Pricing{Input: 50, Output: 50}}, CostBudget, 0},
		{"budget", catalog.Descriptor{Pricing: catalog.Pricing{Input: 0.1, Output: 0.4}}, CostBudget, 0.25},
		{"boundary at 1 is balanced", catalog.Descriptor{Pricing: catalog.Pricing{Input: 0.5, Output: 1.5}}, CostBalanced, 1},
		{"balanced", catalog.Descriptor{Pricing: catalog.Pricing{Input: 1.25, Output: 10}}, CostBalanced, 5.625},
		{"premium", catalog.Descriptor{Pricing: catalog.Pricing{Input: 15, Output: 75}}, CostPremium, 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, avg := Cost(&tt.d)
			if tier != tt.want || avg != tt.wantAvg {
				t.Errorf("Cost = %s, %v; want %s, %v", tier, avg, tt.want, tt.wantAvg)
			}
		})
	}
}

func TestPercentiles(t *testing.T) {
	zero := catalog.Descriptor{ID: "test:zero", Benchmarks: &catalog.Benchmarks{}}
	e := New(newCatalog(t, gpt51, haiku, flash, llama, zero))

	tests := []struct {
		d    catalog.Descriptor
		want int
	}{
		{gpt51, 100},
		{haiku, 67},
		{llama, 33},
		{flash, 0},
	}
	for _, tt := range tests {
		t.Run(tt.d.ID, func(t *testing.T) {
			m := e.Metrics(&tt.d)
			if m.IntelligencePercentile == nil {
				t.Fatal("missing intelligence percentile")
			}
			if *m.IntelligencePercentile != tt.want {
				t.Errorf("intelligence percentile = %d, want %d", *m.IntelligencePercentile, tt.want)
			}
		})
	}

	m := e.Metrics(&zero)
	if m.IntelligencePercentile != nil || m.CodingPercentile != nil || m.ReasoningPercentile != nil {
		t.Errorf("zero scores should have no percentile: %+v", m)
	}
	if !m.HasPublishedBenchmarks {
		t.Error("zero benchmarks are still published")
	}
}

func TestPercentileOfDescriptorOutsideCatalog(t *testing.T) {
	e := New(newCatalog(t, gpt51, haiku, flash, llama))
	custom := &catalog.Descriptor{ID: "foo:bar-9000", DisplayName: "bar-9000", Vendor: "foo"}

	m := e.Metrics(custom)
	// 70 sits above 61, 62 and 67 out of four catalog scores.
	if m.IntelligencePercentile == nil || *m.IntelligencePercentile != 75 {
		t.Errorf("intelligence percentile = %v, want 75", m.IntelligencePercentile)
	}
}

func TestPercentileSingleScore(t *testing.T) {
	e := New(newCatalog(t, haiku))
	m := e.Metrics(&haiku)
	if m.IntelligencePercentile == nil || *m.IntelligencePercentile != 100 {
		t.Errorf("single-entry percentile = %v, want 100", m.IntelligencePercentile)
	}
}

func TestMetricsMemoizedPerEngine(t *testing.T) {
	small := New(newCatalog(t, haiku, llama))
	large := New(newCatalog(t, gpt51, haiku, flash, llama))

	a := small.Metrics(&haiku)
	b := small.Metrics(&haiku)
	if *a.IntelligencePercentile != *b.IntelligencePercentile {
		t.Error("memoized metrics differ")
	}
	if small.Cached() != 1 {
		t.Errorf("Cached() = %d, want 1", small.Cached())
	}

	*a.IntelligencePercentile = -1
	if c := small.Metrics(&haiku); *c.IntelligencePercentile == -1 {
		t.Error("caller mutation leaked into the cache")
	}

	c := large.Metrics(&haiku)
	if *c.IntelligencePercentile == *b.IntelligencePercentile {
		t.Errorf("engines over different snapshots share percentiles: %d", *c.IntelligencePercentile)
	}
}

func TestCacheComputesOnce(t *testing.T) {
	cache := NewCache()
	var calls atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.GetOrCompute("openai:gpt-5.1", func() ComputedMetrics {
				calls.Add(1)
				return ComputedMetrics{SpeedTier: SpeedMedium}
			})
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("compute called %d times, want 1", calls.Load())
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestRank(t *testing.T) {
	e := New(newCatalog(t, gpt51, haiku, flash, llama))

	byIntelligence := e.Rank(DimIntelligence)
	wantIntel := []string{"openai:gpt-5.1", "anthropic:claude-haiku-4-5", "ollama:llama3.2", "google:gemini-2.5-flash"}
	for i, r := range byIntelligence {
		if r.Descriptor.ID != wantIntel[i] {
			t.Errorf("intelligence rank %d = %s, want %s", i, r.Descriptor.ID, wantIntel[i])
		}
	}

	byCost := e.Rank(DimCost)
	wantCost := []string{"ollama:llama3.2", "google:gemini-2.5-flash", "anthropic:claude-haiku-4-5", "openai:gpt-5.1"}
	for i, r := range byCost {
		if r.Descriptor.ID != wantCost[i] {
			t.Errorf("cost rank %d = %s, want %s", i, r.Descriptor.ID, wantCost[i])
		}
	}
}

func TestParseDimension(t *testing.T) {
	if _, ok := ParseDimension("coding"); !ok {
		t.Error("coding should be a valid dimension")
	}
	if _, ok := ParseDimension("vibes"); ok {
		t.Error("vibes should not be a valid dimension")
	}
}

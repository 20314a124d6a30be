package reasoning

import (
	"errors"
	"fmt"
	"strings"

	"github.com/everstacklabs/modelroute/internal/catalog"
)

var (
	// ErrNotReasoningCapable is returned when translation is requested for a
	// descriptor without a reasoning shape.
	ErrNotReasoningCapable = errors.New("model is not reasoning capable")
	// ErrInvalidEffort is returned for effort values other than low, medium and high.
	ErrInvalidEffort = errors.New("invalid effort level")
)

// Params are the provider-specific reasoning parameters for one request.
// Exactly the fields belonging to Kind are populated.
type Params struct {
	Kind catalog.ShapeKind `yaml:"kind"`

	// effort
	Effort string `yaml:"effort,omitempty"`
	// budget
	BudgetTokens int `yaml:"budget_tokens,omitempty"`
	// level
	Level           string `yaml:"level,omitempty"`
	IncludeThoughts bool   `yaml:"include_thoughts,omitempty"`
	// tag
	ExtractTag string `yaml:"extract_tag,omitempty"`
	// generic
	Parameter string `yaml:"parameter,omitempty"`
	Value     string `yaml:"value,omitempty"`
}

// Fields renders the request-body fragment the transport layer merges into
// the provider request. Tag extraction has no request-time parameter.
func (p Params) Fields() map[string]any {
	switch p.Kind {
	case catalog.KindEffort:
		return map[string]any{"reasoning_effort": p.Effort}
	case catalog.KindBudget:
		return map[string]any{"thinking": map[string]any{
			"type":          "enabled",
			"budget_tokens": p.BudgetTokens,
		}}
	case catalog.KindLevel:
		return map[string]any{"thinking_config": map[string]any{
			"thinking_level":   p.Level,
			"include_thoughts": p.IncludeThoughts,
		}}
	case catalog.KindGeneric:
		return map[string]any{p.Parameter: p.Value}
	}
	return map[string]any{}
}

// ParseEffort parses a generic effort level, case-insensitively.
func ParseEffort(s string) (catalog.Effort, error) {
	e := catalog.Effort(strings.ToLower(strings.TrimSpace(s)))
	if !e.Valid() {
		return "", fmt.Errorf("%w: %q (want low, medium or high)", ErrInvalidEffort, s)
	}
	return e, nil
}

// Translate maps a generic effort level onto d's reasoning control.
func Translate(d *catalog.Descriptor, effort catalog.Effort) (Params, error) {
	if d.ReasoningShape == nil {
		return Params{}, fmt.Errorf("%w: %s", ErrNotReasoningCapable, d.ID)
	}
	if !effort.Valid() {
		return Params{}, fmt.Errorf("%w: %q", ErrInvalidEffort, effort)
	}

	t := &translator{effort: effort}
	d.ReasoningShape.Accept(t)
	return t.params, nil
}

// translator is the ShapeVisitor behind Translate. Adding a shape to the
// catalog package fails to compile until it is handled here.
type translator struct {
	effort catalog.Effort
	params Params
}

func (t *translator) VisitEffort(s catalog.EffortMapped) {
	t.params = Params{Kind: catalog.KindEffort, Effort: s.Levels[t.effort]}
}

func (t *translator) VisitBudget(s catalog.BudgetMapped) {
	t.params = Params{Kind: catalog.KindBudget, BudgetTokens: s.Levels[t.effort]}
}

func (t *translator) VisitLevel(s catalog.LevelMapped) {
	t.params = Params{Kind: catalog.KindLevel, Level: s.Levels[t.effort], IncludeThoughts: s.IncludeThoughts}
}

func (t *translator) VisitTag(s catalog.TagExtraction) {
	t.params = Params{Kind: catalog.KindTag, ExtractTag: s.Tag}
}

func (t *translator) VisitGeneric(s catalog.GenericEffort) {
	t.params = Params{Kind: catalog.KindGeneric, Parameter: s.Parameter, Value: string(t.effort)}
}

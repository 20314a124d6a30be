package catalog

import (
	"errors"
	"fmt"
	"maps"
)

// ErrUnknownShape is returned when a reasoning block names an unknown type.
var ErrUnknownShape = errors.New("unknown reasoning shape")

// ShapeKind is the tag stored in YAML for each reasoning shape.
type ShapeKind string

const (
	KindEffort  ShapeKind = "effort"
	KindBudget  ShapeKind = "budget"
	KindLevel   ShapeKind = "level"
	KindTag     ShapeKind = "tag"
	KindGeneric ShapeKind = "generic"
)

// ReasoningShape describes how a generic effort level maps onto a backend's
// reasoning control. The set of implementations is closed: dispatch goes
// through Accept, so every ShapeVisitor must handle every variant.
type ReasoningShape interface {
	Kind() ShapeKind
	Accept(v ShapeVisitor)
	clone() ReasoningShape
}

// ShapeVisitor handles each reasoning shape variant.
type ShapeVisitor interface {
	VisitEffort(EffortMapped)
	VisitBudget(BudgetMapped)
	VisitLevel(LevelMapped)
	VisitTag(TagExtraction)
	VisitGeneric(GenericEffort)
}

// EffortMapped maps each effort to a vendor effort token.
type EffortMapped struct {
	Levels map[Effort]string
}

// BudgetMapped maps each effort to a thinking token budget.
type BudgetMapped struct {
	Levels map[Effort]int
}

// LevelMapped maps each effort to a vendor level token.
type LevelMapped struct {
	Levels          map[Effort]string
	IncludeThoughts bool
}

// TagExtraction marks backends that always reason and embed the reasoning
// inline between <Tag> and </Tag>.
type TagExtraction struct {
	Tag string
}

// GenericEffort passes the effort token through a named parameter.
type GenericEffort struct {
	Parameter string
}

func (EffortMapped) Kind() ShapeKind  { return KindEffort }
func (BudgetMapped) Kind() ShapeKind  { return KindBudget }
func (LevelMapped) Kind() ShapeKind   { return KindLevel }
func (TagExtraction) Kind() ShapeKind { return KindTag }
func (GenericEffort) Kind() ShapeKind { return KindGeneric }

func (s EffortMapped) Accept(v ShapeVisitor)  { v.VisitEffort(s) }
func (s BudgetMapped) Accept(v ShapeVisitor)  { v.VisitBudget(s) }
func (s LevelMapped) Accept(v ShapeVisitor)   { v.VisitLevel(s) }
func (s TagExtraction) Accept(v ShapeVisitor) { v.VisitTag(s) }
func (s GenericEffort) Accept(v ShapeVisitor) { v.VisitGeneric(s) }

func (s EffortMapped) clone() ReasoningShape {
	return EffortMapped{Levels: maps.Clone(s.Levels)}
}

func (s BudgetMapped) clone() ReasoningShape {
	return BudgetMapped{Levels: maps.Clone(s.Levels)}
}

func (s LevelMapped) clone() ReasoningShape {
	return LevelMapped{Levels: maps.Clone(s.Levels), IncludeThoughts: s.IncludeThoughts}
}

func (s TagExtraction) clone() ReasoningShape { return s }
func (s GenericEffort) clone() ReasoningShape { return s }

// reasoningDoc is the YAML form of a reasoning shape.
type reasoningDoc struct {
	Type            ShapeKind      `yaml:"type"`
	Levels          map[Effort]any `yaml:"levels,omitempty"`
	IncludeThoughts bool           `yaml:"include_thoughts,omitempty"`
	Tag             string         `yaml:"tag,omitempty"`
	Parameter       string         `yaml:"parameter,omitempty"`
}

func (r *reasoningDoc) shape() (ReasoningShape, error) {
	switch r.Type {
	case KindEffort:
		levels, err := r.stringLevels()
		if err != nil {
			return nil, err
		}
		return EffortMapped{Levels: levels}, nil
	case KindBudget:
		levels := make(map[Effort]int, len(r.Levels))
		for e, v := range r.Levels {
			n, ok := v.(int)
			if !ok {
				return nil, fmt.Errorf("budget for %s: expected integer, got %v", e, v)
			}
			levels[e] = n
		}
		return BudgetMapped{Levels: levels}, nil
	case KindLevel:
		levels, err := r.stringLevels()
		if err != nil {
			return nil, err
		}
		return LevelMapped{Levels: levels, IncludeThoughts: r.IncludeThoughts}, nil
	case KindTag:
		return TagExtraction{Tag: r.Tag}, nil
	case KindGeneric:
		return GenericEffort{Parameter: r.Parameter}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownShape, r.Type)
	}
}

func (r *reasoningDoc) stringLevels() (map[Effort]string, error) {
	levels := make(map[Effort]string, len(r.Levels))
	for e, v := range r.Levels {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("level for %s: expected string, got %v", e, v)
		}
		levels[e] = s
	}
	return levels, nil
}

// docBuilder turns a shape back into its YAML form.
type docBuilder struct {
	doc *reasoningDoc
}

func docFor(s ReasoningShape) *reasoningDoc {
	b := &docBuilder{}
	s.Accept(b)
	return b.doc
}

func (b *docBuilder) VisitEffort(s EffortMapped) {
	b.doc = &reasoningDoc{Type: KindEffort, Levels: anyLevels(s.Levels)}
}

func (b *docBuilder) VisitBudget(s BudgetMapped) {
	b.doc = &reasoningDoc{Type: KindBudget, Levels: anyLevels(s.Levels)}
}

func (b *docBuilder) VisitLevel(s LevelMapped) {
	b.doc = &reasoningDoc{Type: KindLevel, Levels: anyLevels(s.Levels), IncludeThoughts: s.IncludeThoughts}
}

func (b *docBuilder) VisitTag(s TagExtraction) {
	b.doc = &reasoningDoc{Type: KindTag, Tag: s.Tag}
}

func (b *docBuilder) VisitGeneric(s GenericEffort) {
	b.doc = &reasoningDoc{Type: KindGeneric, Parameter: s.Parameter}
}

func anyLevels[V string | int](in map[Effort]V) map[Effort]any {
	out := make(map[Effort]any, len(in))
	for e, v := range in {
		out[e] = v
	}
	return out
}

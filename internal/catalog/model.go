package catalog

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vendor identifies the vendor or host family that issues a backend.
type Vendor string

const (
	VendorOpenAI     Vendor = "openai"
	VendorAnthropic  Vendor = "anthropic"
	VendorGoogle     Vendor = "google"
	VendorXAI        Vendor = "xai"
	VendorDeepSeek   Vendor = "deepseek"
	VendorMistral    Vendor = "mistral"
	VendorMeta       Vendor = "meta"
	VendorQwen       Vendor = "qwen"
	VendorMoonshot   Vendor = "moonshot"
	VendorGroq       Vendor = "groq"
	VendorCerebras   Vendor = "cerebras"
	VendorSambaNova  Vendor = "sambanova"
	VendorFireworks  Vendor = "fireworks"
	VendorTogether   Vendor = "together"
	VendorPerplexity Vendor = "perplexity"
	VendorOllama     Vendor = "ollama"
)

// Capability is a feature a backend supports.
type Capability string

const (
	CapVision           Capability = "vision"
	CapFunctionCalling  Capability = "function-calling"
	CapThinking         Capability = "thinking"
	CapExtendedThinking Capability = "extended-thinking"
	CapImageGeneration  Capability = "image-generation"
)

// KnownCapabilities lists every capability the engine understands.
var KnownCapabilities = []Capability{
	CapVision,
	CapFunctionCalling,
	CapThinking,
	CapExtendedThinking,
	CapImageGeneration,
}

// Effort is the generic reasoning intent exposed to callers.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// Efforts lists the effort levels in ascending order.
var Efforts = []Effort{EffortLow, EffortMedium, EffortHigh}

// Valid reports whether e is one of low, medium or high.
func (e Effort) Valid() bool {
	switch e {
	case EffortLow, EffortMedium, EffortHigh:
		return true
	}
	return false
}

// Pricing holds per-million-token USD prices. Zero means no charge.
type Pricing struct {
	Input           float64  `yaml:"input"`
	Output          float64  `yaml:"output"`
	CachedInput     *float64 `yaml:"cached_input,omitempty"`
	ReasoningOutput *float64 `yaml:"reasoning_output,omitempty"`
}

// Benchmarks are directly published scores on a 0-100 scale.
type Benchmarks struct {
	Intelligence float64 `yaml:"intelligence"`
	Coding       float64 `yaml:"coding"`
	Reasoning    float64 `yaml:"reasoning"`
}

// Descriptor is the catalog record for one canonical model identifier.
type Descriptor struct {
	ID             string         `yaml:"id"`
	DisplayName    string         `yaml:"display_name"`
	Description    string         `yaml:"description,omitempty"`
	Vendor         Vendor         `yaml:"vendor"`
	Status         string         `yaml:"status,omitempty"`
	ContextWindow  int            `yaml:"context_window"`
	Pricing        Pricing        `yaml:"pricing"`
	Capabilities   []Capability   `yaml:"capabilities"`
	ReasoningShape ReasoningShape `yaml:"-"`
	HostPreference []string       `yaml:"host_preference,omitempty"`
	Benchmarks     *Benchmarks    `yaml:"benchmarks,omitempty"`
	Experimental   bool           `yaml:"experimental,omitempty"`
	Local          bool           `yaml:"local,omitempty"`
}

// Has reports whether the descriptor lists capability c.
func (d *Descriptor) Has(c Capability) bool {
	for _, have := range d.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// VendorPart returns the part of the id before the first ':'.
func (d *Descriptor) VendorPart() string {
	vendor, _, _ := strings.Cut(d.ID, ":")
	return vendor
}

// Name returns the part of the id after the first ':'.
func (d *Descriptor) Name() string {
	_, name, found := strings.Cut(d.ID, ":")
	if !found {
		return d.ID
	}
	return name
}

// Label returns the display name, falling back to the model name.
func (d *Descriptor) Label() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.Name()
}

// Clone returns a deep copy of d.
func (d *Descriptor) Clone() *Descriptor {
	c := *d
	c.Capabilities = append([]Capability(nil), d.Capabilities...)
	if d.HostPreference != nil {
		c.HostPreference = append([]string(nil), d.HostPreference...)
	}
	if d.Pricing.CachedInput != nil {
		v := *d.Pricing.CachedInput
		c.Pricing.CachedInput = &v
	}
	if d.Pricing.ReasoningOutput != nil {
		v := *d.Pricing.ReasoningOutput
		c.Pricing.ReasoningOutput = &v
	}
	if d.Benchmarks != nil {
		b := *d.Benchmarks
		c.Benchmarks = &b
	}
	if d.ReasoningShape != nil {
		c.ReasoningShape = d.ReasoningShape.clone()
	}
	return &c
}

// descriptorFile is the YAML shape of a descriptor including its reasoning block.
type descriptorFile struct {
	plainDescriptor `yaml:",inline"`
	Reasoning       *reasoningDoc `yaml:"reasoning,omitempty"`
}

// plainDescriptor drops the YAML methods so it can be embedded without recursion.
type plainDescriptor Descriptor

// UnmarshalYAML decodes a descriptor and its tagged reasoning block.
func (d *Descriptor) UnmarshalYAML(value *yaml.Node) error {
	var f descriptorFile
	if err := value.Decode(&f); err != nil {
		return err
	}
	*d = Descriptor(f.plainDescriptor)
	if f.Reasoning != nil {
		shape, err := f.Reasoning.shape()
		if err != nil {
			return fmt.Errorf("%s: %w", d.ID, err)
		}
		d.ReasoningShape = shape
	}
	return nil
}

// MarshalYAML encodes a descriptor with its reasoning block.
func (d Descriptor) MarshalYAML() (any, error) {
	f := descriptorFile{plainDescriptor: plainDescriptor(d)}
	if d.ReasoningShape != nil {
		f.Reasoning = docFor(d.ReasoningShape)
	}
	return f, nil
}

// Migration redirects a retired identifier to its successor.
type Migration struct {
	To     string `yaml:"to"`
	Reason string `yaml:"reason,omitempty"`
	// Capabilities records what the retired backend could do, so reviews can
	// spot redirects that silently lose a capability.
	Capabilities []Capability `yaml:"capabilities,omitempty"`
}

// Migrations maps retired identifiers to their successors.
type Migrations map[string]Migration

package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldChange records a single field change for diff reporting.
type FieldChange struct {
	Field    string
	OldValue any
	NewValue any
}

// WriteResult reports what happened when a descriptor was written.
type WriteResult struct {
	Path    string
	IsNew   bool
	Changes []FieldChange
}

// MergeWriter writes descriptor YAML files into a catalog directory. When a
// file already exists it keeps the file's key order and any keys the
// descriptor does not model, and only rewrites the known fields.
type MergeWriter struct {
	basePath string
}

// NewWriter creates a writer rooted at a catalog directory.
func NewWriter(basePath string) *MergeWriter {
	return &MergeWriter{basePath: basePath}
}

// WriteDescriptor writes d to providers/<vendor>/models/<name>.yaml.
func (w *MergeWriter) WriteDescriptor(d *Descriptor) (*WriteResult, error) {
	if err := CheckID(d.ID); err != nil {
		return nil, err
	}
	modelsDir := filepath.Join(w.basePath, "providers", string(d.Vendor), "models")
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating models dir: %w", err)
	}

	filePath := filepath.Join(modelsDir, fileName(d))
	result := &WriteResult{Path: filePath}

	existingData, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		result.IsNew = true
		return result, writeYAML(filePath, d)
	} else if err != nil {
		return nil, fmt.Errorf("reading existing file: %w", err)
	}

	var existingDoc yaml.Node
	if err := yaml.Unmarshal(existingData, &existingDoc); err != nil {
		return nil, fmt.Errorf("parsing existing YAML: %w", err)
	}
	var existing Descriptor
	if err := yaml.Unmarshal(existingData, &existing); err != nil {
		return nil, fmt.Errorf("parsing existing descriptor: %w", err)
	}

	result.Changes = CompareDescriptors(&existing, d)
	if len(result.Changes) == 0 {
		return result, nil
	}

	var updatedDoc yaml.Node
	if err := updatedDoc.Encode(d); err != nil {
		return nil, fmt.Errorf("encoding descriptor: %w", err)
	}

	out, err := yaml.Marshal(mergeNodes(&existingDoc, &updatedDoc))
	if err != nil {
		return nil, fmt.Errorf("marshaling merged YAML: %w", err)
	}
	if err := os.WriteFile(filePath, out, 0o644); err != nil {
		return nil, fmt.Errorf("writing merged file: %w", err)
	}
	return result, nil
}

// WriteCatalog writes every descriptor, the migration table and the version
// of c into the writer's directory.
func (w *MergeWriter) WriteCatalog(c *Catalog) ([]*WriteResult, error) {
	if err := os.MkdirAll(w.basePath, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog dir: %w", err)
	}

	var results []*WriteResult
	for _, d := range c.All() {
		r, err := w.WriteDescriptor(d)
		if err != nil {
			return results, fmt.Errorf("writing %s: %w", d.ID, err)
		}
		results = append(results, r)
	}

	if len(c.migrations) > 0 {
		if err := writeYAML(filepath.Join(w.basePath, "migrations.yaml"), migrationsFile{Migrations: c.migrations}); err != nil {
			return results, fmt.Errorf("writing migrations: %w", err)
		}
	}
	if err := os.WriteFile(filepath.Join(w.basePath, "version.txt"), []byte(c.version+"\n"), 0o644); err != nil {
		return results, fmt.Errorf("writing version: %w", err)
	}
	return results, nil
}

func fileName(d *Descriptor) string {
	return strings.ReplaceAll(d.Name(), "/", "_") + ".yaml"
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}

// mergeNodes overlays src mapping keys onto dst mapping, preserving dst order
// and any keys in dst not present in src.
func mergeNodes(dst, src *yaml.Node) *yaml.Node {
	if dst.Kind == yaml.DocumentNode && len(dst.Content) > 0 {
		dst = dst.Content[0]
	}
	if src.Kind == yaml.DocumentNode && len(src.Content) > 0 {
		src = src.Content[0]
	}

	if dst.Kind != yaml.MappingNode || src.Kind != yaml.MappingNode {
		return src
	}

	srcMap := make(map[string]*yaml.Node)
	for i := 0; i+1 < len(src.Content); i += 2 {
		srcMap[src.Content[i].Value] = src.Content[i+1]
	}

	seen := make(map[string]bool)
	for i := 0; i+1 < len(dst.Content); i += 2 {
		key := dst.Content[i].Value
		if srcVal, ok := srcMap[key]; ok {
			dst.Content[i+1] = srcVal
			seen[key] = true
		}
	}

	for i := 0; i+1 < len(src.Content); i += 2 {
		key := src.Content[i].Value
		if !seen[key] {
			dst.Content = append(dst.Content, src.Content[i], src.Content[i+1])
		}
	}

	return dst
}

// CompareDescriptors lists the fields that differ between old and updated.
func CompareDescriptors(old, updated *Descriptor) []FieldChange {
	var changes []FieldChange
	add := func(field string, o, n any) {
		changes = append(changes, FieldChange{field, o, n})
	}

	if old.DisplayName != updated.DisplayName {
		add("display_name", old.DisplayName, updated.DisplayName)
	}
	if old.Description != updated.Description {
		add("description", old.Description, updated.Description)
	}
	if old.Status != updated.Status {
		add("status", old.Status, updated.Status)
	}
	if old.ContextWindow != updated.ContextWindow {
		add("context_window", old.ContextWindow, updated.ContextWindow)
	}

	if old.Pricing.Input != updated.Pricing.Input {
		add("pricing.input", old.Pricing.Input, updated.Pricing.Input)
	}
	if old.Pricing.Output != updated.Pricing.Output {
		add("pricing.output", old.Pricing.Output, updated.Pricing.Output)
	}
	if o, n := optional(old.Pricing.CachedInput), optional(updated.Pricing.CachedInput); o != n {
		add("pricing.cached_input", o, n)
	}
	if o, n := optional(old.Pricing.ReasoningOutput), optional(updated.Pricing.ReasoningOutput); o != n {
		add("pricing.reasoning_output", o, n)
	}

	if capabilitiesChanged(old.Capabilities, updated.Capabilities) {
		add("capabilities", old.Capabilities, updated.Capabilities)
	}

	switch o, n := old.ReasoningShape, updated.ReasoningShape; {
	case o == nil && n == nil:
	case o == nil || n == nil || o.Kind() != n.Kind():
		add("reasoning.type", shapeKind(o), shapeKind(n))
	case !reflect.DeepEqual(o, n):
		add("reasoning", o, n)
	}

	if !slices.Equal(old.HostPreference, updated.HostPreference) {
		add("host_preference", old.HostPreference, updated.HostPreference)
	}
	if !reflect.DeepEqual(old.Benchmarks, updated.Benchmarks) {
		add("benchmarks", old.Benchmarks, updated.Benchmarks)
	}
	if old.Experimental != updated.Experimental {
		add("experimental", old.Experimental, updated.Experimental)
	}
	if old.Local != updated.Local {
		add("local", old.Local, updated.Local)
	}

	return changes
}

func optional(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func shapeKind(s ReasoningShape) ShapeKind {
	if s == nil {
		return ""
	}
	return s.Kind()
}

// capabilitiesChanged reports whether the two capability sets differ,
// ignoring order.
func capabilitiesChanged(a, b []Capability) bool {
	return !slices.Equal(capabilitySet(a), capabilitySet(b))
}

func capabilitySet(caps []Capability) []Capability {
	s := slices.Clone(caps)
	slices.Sort(s)
	return slices.Compact(s)
}

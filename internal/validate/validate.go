package validate

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/everstacklabs/modelroute/internal/catalog"
)

// ErrInvalidCatalog is returned by callers that refuse a catalog with
// validation errors.
var ErrInvalidCatalog = errors.New("catalog failed validation")

// Severity classifies validation issues.
type Severity int

const (
	SeverityError   Severity = iota // Blocks serving the catalog
	SeverityWarning                 // Reported but doesn't block
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "WARN"
	}
	return "ERROR"
}

// Issue represents a single validation problem.
type Issue struct {
	Severity Severity
	Model    string
	Field    string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s: %s", i.Severity, i.Model, i.Field, i.Message)
}

// Result holds all validation issues.
type Result struct {
	Issues []Issue
}

func (r *Result) add(sev Severity, model, field, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{sev, model, field, fmt.Sprintf(format, args...)})
}

// HasErrors returns true if there are any blocking errors.
func (r *Result) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only error-severity issues.
func (r *Result) Errors() []Issue {
	var errs []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			errs = append(errs, i)
		}
	}
	return errs
}

// Warnings returns only warning-severity issues.
func (r *Result) Warnings() []Issue {
	var warns []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityWarning {
			warns = append(warns, i)
		}
	}
	return warns
}

var validStatuses = map[string]bool{"stable": true, "beta": true, "preview": true, "deprecated": true}

// ValidateDescriptor checks a single descriptor.
func ValidateDescriptor(d *catalog.Descriptor) *Result {
	r := &Result{}
	id := d.ID

	if err := catalog.CheckID(id); err != nil {
		r.add(SeverityError, id, "id", "%v", err)
	}
	if d.DisplayName == "" {
		r.add(SeverityError, id, "display_name", "required field is empty")
	}
	if d.ContextWindow <= 0 {
		r.add(SeverityError, id, "context_window", "must be positive, got %d", d.ContextWindow)
	}
	if d.Status != "" && !validStatuses[d.Status] {
		r.add(SeverityWarning, id, "status", "unknown status %q, expected one of: stable, beta, preview, deprecated", d.Status)
	}

	checkPricing(r, d)

	for _, c := range d.Capabilities {
		if !slices.Contains(catalog.KnownCapabilities, c) {
			r.add(SeverityWarning, id, "capabilities", "unknown capability %q", c)
		}
	}

	reasons := d.Has(catalog.CapThinking) || d.Has(catalog.CapExtendedThinking)
	if reasons && d.ReasoningShape == nil {
		r.add(SeverityError, id, "reasoning", "thinking-capable model has no reasoning shape")
	}
	if d.ReasoningShape != nil {
		d.ReasoningShape.Accept(&shapeChecker{r: r, id: id})
	}

	seen := make(map[string]bool, len(d.HostPreference))
	for _, h := range d.HostPreference {
		if h == "" {
			r.add(SeverityError, id, "host_preference", "empty host name")
			continue
		}
		if seen[h] {
			r.add(SeverityError, id, "host_preference", "duplicate host %q", h)
		}
		seen[h] = true
	}

	if b := d.Benchmarks; b != nil {
		for field, v := range map[string]float64{
			"benchmarks.intelligence": b.Intelligence,
			"benchmarks.coding":       b.Coding,
			"benchmarks.reasoning":    b.Reasoning,
		} {
			if v < 0 || v > 100 {
				r.add(SeverityError, id, field, "value %v outside [0, 100]", v)
			}
		}
		if d.Experimental {
			r.add(SeverityWarning, id, "benchmarks", "experimental model has published benchmarks")
		}
	}

	return r
}

func checkPricing(r *Result, d *catalog.Descriptor) {
	p := d.Pricing
	if p.Input < 0 {
		r.add(SeverityError, d.ID, "pricing.input", "negative price %v", p.Input)
	}
	if p.Output < 0 {
		r.add(SeverityError, d.ID, "pricing.output", "negative price %v", p.Output)
	}
	if p.CachedInput != nil {
		if *p.CachedInput < 0 {
			r.add(SeverityError, d.ID, "pricing.cached_input", "negative price %v", *p.CachedInput)
		}
		if *p.CachedInput > p.Input {
			r.add(SeverityError, d.ID, "pricing.cached_input", "cached price %v exceeds input price %v", *p.CachedInput, p.Input)
		}
	}
	if p.ReasoningOutput != nil && *p.ReasoningOutput < 0 {
		r.add(SeverityError, d.ID, "pricing.reasoning_output", "negative price %v", *p.ReasoningOutput)
	}
	if d.Local && (p.Input != 0 || p.Output != 0) {
		r.add(SeverityWarning, d.ID, "pricing", "local model has non-zero pricing, which cost calculation ignores")
	}
}

// shapeChecker validates the per-effort mapping of each reasoning shape.
type shapeChecker struct {
	r  *Result
	id string
}

func (c *shapeChecker) VisitEffort(s catalog.EffortMapped) { c.tokens(s.Levels) }

func (c *shapeChecker) VisitLevel(s catalog.LevelMapped) { c.tokens(s.Levels) }

func (c *shapeChecker) VisitBudget(s catalog.BudgetMapped) {
	prev := 0
	for _, e := range catalog.Efforts {
		n, ok := s.Levels[e]
		if !ok {
			c.r.add(SeverityError, c.id, "reasoning.levels", "missing %s budget", e)
			continue
		}
		if n <= 0 {
			c.r.add(SeverityError, c.id, "reasoning.levels", "%s budget must be positive, got %d", e, n)
		}
		if n <= prev {
			c.r.add(SeverityError, c.id, "reasoning.levels", "%s budget %d does not exceed the lower level's %d", e, n, prev)
		}
		prev = max(prev, n)
	}
}

func (c *shapeChecker) VisitTag(s catalog.TagExtraction) {
	if strings.TrimSpace(s.Tag) == "" {
		c.r.add(SeverityError, c.id, "reasoning.tag", "tag name is empty")
	}
}

func (c *shapeChecker) VisitGeneric(s catalog.GenericEffort) {
	if strings.TrimSpace(s.Parameter) == "" {
		c.r.add(SeverityError, c.id, "reasoning.parameter", "parameter name is empty")
	}
}

func (c *shapeChecker) tokens(levels map[catalog.Effort]string) {
	for _, e := range catalog.Efforts {
		tok, ok := levels[e]
		switch {
		case !ok:
			c.r.add(SeverityError, c.id, "reasoning.levels", "missing %s level", e)
		case tok == "":
			c.r.add(SeverityError, c.id, "reasoning.levels", "%s level token is empty", e)
		}
	}
}

// ValidateMigrations checks the migration table against the catalog.
func ValidateMigrations(cat *catalog.Catalog) *Result {
	r := &Result{}
	migrations := cat.Migrations()

	sources := make([]string, 0, len(migrations))
	for from := range migrations {
		sources = append(sources, from)
	}
	slices.Sort(sources)

	for _, from := range sources {
		m := migrations[from]
		if err := catalog.CheckID(from); err != nil {
			r.add(SeverityError, from, "migrations", "%v", err)
		}
		if err := catalog.CheckID(m.To); err != nil {
			r.add(SeverityError, from, "migrations.to", "%v", err)
			continue
		}
		if _, live := cat.Get(from); live {
			r.add(SeverityError, from, "migrations", "source is still a live catalog id")
		}

		chain, cyclic := follow(migrations, from)
		if cyclic {
			r.add(SeverityError, from, "migrations", "migration cycle: %s", strings.Join(chain, " -> "))
			continue
		}

		final := chain[len(chain)-1]
		target, ok := cat.Get(final)
		if !ok {
			r.add(SeverityWarning, from, "migrations.to", "target %s is not in the catalog and resolves to a synthesized descriptor", final)
			continue
		}
		var lost []string
		for _, c := range m.Capabilities {
			if !target.Has(c) {
				lost = append(lost, string(c))
			}
		}
		if len(lost) > 0 {
			r.add(SeverityWarning, from, "migrations.capabilities", "target %s lacks %s", final, strings.Join(lost, ", "))
		}
	}
	return r
}

// follow walks the migration chain starting at from. It reports the ids
// visited and whether the walk revisited one.
func follow(migrations catalog.Migrations, from string) ([]string, bool) {
	chain := []string{from}
	seen := map[string]bool{from: true}
	cur := from
	for {
		m, ok := migrations[cur]
		if !ok {
			return chain, false
		}
		cur = m.To
		chain = append(chain, cur)
		if seen[cur] {
			return chain, true
		}
		seen[cur] = true
	}
}

// ValidateCatalog validates every descriptor and the migration table.
func ValidateCatalog(cat *catalog.Catalog) *Result {
	r := &Result{}
	for _, d := range cat.All() {
		r.Issues = append(r.Issues, ValidateDescriptor(d).Issues...)
	}
	r.Issues = append(r.Issues, ValidateMigrations(cat).Issues...)
	return r
}

// FormatResult formats validation results for display.
func FormatResult(r *Result) string {
	if len(r.Issues) == 0 {
		return "Validation passed: no issues found."
	}

	var b strings.Builder
	errors := r.Errors()
	warnings := r.Warnings()

	if len(errors) > 0 {
		fmt.Fprintf(&b, "Errors (%d):\n", len(errors))
		for _, e := range errors {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}

	if len(warnings) > 0 {
		fmt.Fprintf(&b, "Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Fprintf(&b, "  %s\n", w)
		}
	}

	return b.String()
}

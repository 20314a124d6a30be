// Package pipeline runs the catalog change check used before a catalog
// revision is published.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/everstacklabs/modelroute/internal/catalog"
	"github.com/everstacklabs/modelroute/internal/diff"
	"github.com/everstacklabs/modelroute/internal/source"
	"github.com/everstacklabs/modelroute/internal/validate"
)

// ExitCode constants for CLI.
const (
	ExitSuccess      = 0
	ExitChanges      = 2 // Changes detected
	ExitPolicyBlock  = 3 // Blocked by risk policy
	ExitSourceHealth = 4 // Source health failure
)

// ErrSourceHealth is returned when either catalog cannot be loaded.
var ErrSourceHealth = errors.New("catalog source unavailable")

const (
	maxChangesBeforeReview = 25
	priceDeltaThreshold    = 0.35
)

// Pipeline compares a head catalog against the base it replaces.
type Pipeline struct {
	base source.Source
	head source.Source
}

// New creates a Pipeline.
func New(base, head source.Source) *Pipeline {
	return &Pipeline{base: base, head: head}
}

// Report is the outcome of a check.
type Report struct {
	Base       string
	Head       string
	ChangeSet  *diff.ChangeSet
	Validation *validate.Result

	// Review is set when the change should get a human look before publishing.
	Review bool
	// Blocked is set when the change breaks a published contract.
	Blocked bool
	Reasons []string

	// SuggestedVersion is set when the head version was not bumped.
	SuggestedVersion string
}

// ExitCode maps the report onto the CLI exit codes.
func (r *Report) ExitCode() int {
	switch {
	case r.Blocked:
		return ExitPolicyBlock
	case r.ChangeSet.HasChanges():
		return ExitChanges
	}
	return ExitSuccess
}

// Check loads both catalogs, diffs them and applies the risk gates.
func (p *Pipeline) Check(ctx context.Context) (*Report, error) {
	base, err := p.load(ctx, p.base)
	if err != nil {
		return nil, err
	}
	head, err := p.load(ctx, p.head)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Base:       p.base.Name(),
		Head:       p.head.Name(),
		ChangeSet:  diff.Compare(base, head),
		Validation: validate.ValidateCatalog(head),
	}
	cs := report.ChangeSet

	if !cs.HasChanges() {
		slog.Info("no changes detected", "base", report.Base, "head", report.Head)
	}

	if report.Validation.HasErrors() {
		report.Blocked = true
		report.Reasons = append(report.Reasons,
			fmt.Sprintf("head catalog has %d validation errors", len(report.Validation.Errors())))
	}

	review, blocked, reasons := assessRisk(cs)
	report.Review = report.Review || review
	report.Blocked = report.Blocked || blocked
	report.Reasons = append(report.Reasons, reasons...)

	if cs.HasChanges() {
		suggested, err := checkVersion(cs)
		if err != nil {
			report.Review = true
			report.Reasons = append(report.Reasons, err.Error())
		} else if suggested != "" {
			report.Review = true
			report.SuggestedVersion = suggested
			report.Reasons = append(report.Reasons,
				fmt.Sprintf("version %s not bumped, suggest %s", cs.HeadVersion, suggested))
		}
	}

	if report.Blocked {
		slog.Warn("check blocked by policy", "head", report.Head, "reasons", len(report.Reasons))
	}
	return report, nil
}

func (p *Pipeline) load(ctx context.Context, src source.Source) (*catalog.Catalog, error) {
	cat, err := src.Load(ctx)
	if err != nil {
		slog.Error("catalog load failed", "source", src.Name(), "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceHealth, src.Name(), err)
	}
	slog.Info("catalog loaded", "source", src.Name(), "version", cat.Version(), "models", cat.Len())
	return cat, nil
}

// assessRisk evaluates the changeset against risk gates.
// Returns: (review, blocked, reasons)
func assessRisk(cs *diff.ChangeSet) (bool, bool, []string) {
	review, blocked := false, false
	var reasons []string

	// Published ids are immutable: they either stay or migrate.
	for _, m := range cs.Removed {
		blocked = true
		reasons = append(reasons, fmt.Sprintf("%s removed without a migration entry", m.ID))
	}
	for _, m := range cs.DroppedMigrations {
		blocked = true
		reasons = append(reasons, fmt.Sprintf("migration %s -> %s removed", m.From, m.Old))
	}
	for _, u := range cs.ShapeKindChanges() {
		blocked = true
		reasons = append(reasons, fmt.Sprintf("%s changed reasoning shape kind", u.ID))
	}

	if cs.TotalChanged() > maxChangesBeforeReview {
		review = true
		reasons = append(reasons, fmt.Sprintf("%d descriptors changed", cs.TotalChanged()))
	}

	for _, m := range cs.RetargetedMigrations {
		review = true
		reasons = append(reasons, fmt.Sprintf("migration %s retargeted %s -> %s", m.From, m.Old, m.New))
	}

	// Check for large price deltas
	for _, u := range cs.Updated {
		for _, c := range u.Changes {
			if c.Field != "pricing.input" && c.Field != "pricing.output" {
				continue
			}
			oldVal, okOld := c.OldValue.(float64)
			newVal, okNew := c.NewValue.(float64)
			if okOld && okNew && oldVal > 0 {
				delta := (newVal - oldVal) / oldVal
				if delta > priceDeltaThreshold || delta < -priceDeltaThreshold {
					review = true
					reasons = append(reasons, fmt.Sprintf("%s %s changed %+.0f%%", u.ID, c.Field, delta*100))
				}
			}
		}
	}

	return review, blocked, reasons
}

// checkVersion returns the suggested version when the head version does not
// exceed the base version, or "" when it does.
func checkVersion(cs *diff.ChangeSet) (string, error) {
	base, err := parseSemver(cs.BaseVersion)
	if err != nil {
		return "", err
	}
	head, err := parseSemver(cs.HeadVersion)
	if err != nil {
		return "", err
	}
	for i := range base {
		if head[i] != base[i] {
			if head[i] > base[i] {
				return "", nil
			}
			break
		}
	}
	return bumpSemver(cs.BaseVersion, len(cs.New) > 0)
}

// bumpSemver increments MINOR for new models, PATCH for updates only.
func bumpSemver(version string, hasNew bool) (string, error) {
	v, err := parseSemver(version)
	if err != nil {
		return "", err
	}
	major, minor, patch := v[0], v[1], v[2]

	if hasNew {
		minor++
		patch = 0
	} else {
		patch++
	}

	return fmt.Sprintf("%d.%d.%d", major, minor, patch), nil
}

func parseSemver(version string) ([3]int, error) {
	var v [3]int
	parts := strings.Split(strings.TrimPrefix(version, "v"), ".")
	if len(parts) != 3 {
		return v, fmt.Errorf("invalid semver: %q", version)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return v, fmt.Errorf("invalid semver: %q", version)
		}
		v[i] = n
	}
	return v, nil
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/everstacklabs/modelroute/internal/catalog"
	"github.com/everstacklabs/modelroute/internal/diff"
)

type fakeSource struct {
	name string
	cat  *catalog.Catalog
	err  error
}

func (f fakeSource) Name() string { return f.name }

func (f fakeSource) Load(context.Context) (*catalog.Catalog, error) {
	return f.cat, f.err
}

func model(id string, input float64) catalog.Descriptor {
	return catalog.Descriptor{
		ID:            id,
		DisplayName:   id,
		Vendor:        catalog.VendorOpenAI,
		ContextWindow: 128000,
		Pricing:       catalog.Pricing{Input: input, Output: input * 4},
	}
}

func snapshot(t *testing.T, version string, migrations catalog.Migrations, descs ...catalog.Descriptor) fakeSource {
	t.Helper()
	cat, err := catalog.New(version, descs, migrations)
	if err != nil {
		t.Fatal(err)
	}
	return fakeSource{name: "fake@" + version, cat: cat}
}

func TestAssessRisk_LargeChangeset(t *testing.T) {
	cs := &diff.ChangeSet{}
	// 26 new models → review
	for i := 0; i < 26; i++ {
		cs.New = append(cs.New, diff.ModelChange{ID: fmt.Sprintf("openai:m%d", i)})
	}

	review, blocked, _ := assessRisk(cs)
	if !review {
		t.Error("expected review for >25 changes")
	}
	if blocked {
		t.Error("new models should not block")
	}
}

func TestAssessRisk_NormalChangeset(t *testing.T) {
	cs := &diff.ChangeSet{
		New:     []diff.ModelChange{{ID: "openai:a"}},
		Updated: []diff.ModelUpdate{{ID: "openai:b"}},
	}

	review, blocked, reasons := assessRisk(cs)
	if review || blocked {
		t.Errorf("expected clean changeset, got review=%v blocked=%v %v", review, blocked, reasons)
	}
}

func TestAssessRisk_Blocks(t *testing.T) {
	tests := []struct {
		name string
		cs   *diff.ChangeSet
	}{
		{"removed without migration", &diff.ChangeSet{Removed: []diff.ModelChange{{ID: "openai:gpt-4"}}}},
		{"dropped migration", &diff.ChangeSet{DroppedMigrations: []diff.MigrationChange{{From: "openai:a", Old: "openai:b"}}}},
		{"shape kind change", &diff.ChangeSet{Updated: []diff.ModelUpdate{{
			ID:      "openai:o3",
			Changes: []catalog.FieldChange{{Field: "reasoning.type", OldValue: catalog.KindEffort, NewValue: catalog.KindGeneric}},
		}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, blocked, reasons := assessRisk(tt.cs)
			if !blocked {
				t.Error("expected block")
			}
			if len(reasons) != 1 {
				t.Errorf("reasons = %v", reasons)
			}
		})
	}
}

func TestAssessRisk_MigratedRemovalAllowed(t *testing.T) {
	cs := &diff.ChangeSet{MigratedRemovals: []diff.ModelChange{{ID: "openai:gpt-4"}}}
	if _, blocked, _ := assessRisk(cs); blocked {
		t.Error("removal with migration should not block")
	}
}

func TestAssessRisk_RetargetedMigration(t *testing.T) {
	cs := &diff.ChangeSet{RetargetedMigrations: []diff.MigrationChange{{From: "openai:a", Old: "openai:b", New: "openai:c"}}}
	review, blocked, _ := assessRisk(cs)
	if !review || blocked {
		t.Errorf("review=%v blocked=%v, want review only", review, blocked)
	}
}

func TestAssessRisk_PriceDelta(t *testing.T) {
	tests := []struct {
		name     string
		old, new float64
		want     bool
	}{
		{"doubled", 2.5, 5, true},
		{"halved", 10, 5, true},
		{"small increase", 2.5, 3, false},
		{"from free", 0, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := &diff.ChangeSet{
				Updated: []diff.ModelUpdate{{
					ID:      "openai:gpt-4o",
					Changes: []catalog.FieldChange{{Field: "pricing.input", OldValue: tt.old, NewValue: tt.new}},
				}},
			}
			review, _, _ := assessRisk(cs)
			if review != tt.want {
				t.Errorf("review = %v, want %v", review, tt.want)
			}
		})
	}
}

func TestBumpSemver_NewModels(t *testing.T) {
	v, err := bumpSemver("2.1.3", true)
	if err != nil {
		t.Fatal(err)
	}
	if v != "2.2.0" {
		t.Errorf("expected 2.2.0, got %s", v)
	}
}

func TestBumpSemver_UpdatesOnly(t *testing.T) {
	v, err := bumpSemver("2.1.3", false)
	if err != nil {
		t.Fatal(err)
	}
	if v != "2.1.4" {
		t.Errorf("expected 2.1.4, got %s", v)
	}
}

func TestBumpSemver_InvalidVersion(t *testing.T) {
	for _, v := range []string{"invalid", "1.2", "1.x.3", "1.-2.3"} {
		if _, err := bumpSemver(v, true); err == nil {
			t.Errorf("expected error for %q", v)
		}
	}
}

func TestBumpSemver_ZeroVersion(t *testing.T) {
	v, err := bumpSemver("0.0.0", true)
	if err != nil {
		t.Fatal(err)
	}
	if v != "0.1.0" {
		t.Errorf("expected 0.1.0, got %s", v)
	}
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		base, head string
		hasNew     bool
		want       string
	}{
		{"1.2.3", "1.3.0", true, ""},
		{"1.2.3", "2.0.0", false, ""},
		{"1.2.3", "1.2.3", true, "1.3.0"},
		{"1.2.3", "1.2.3", false, "1.2.4"},
		{"1.2.3", "1.1.9", false, "1.2.4"},
	}
	for _, tt := range tests {
		cs := &diff.ChangeSet{BaseVersion: tt.base, HeadVersion: tt.head}
		if tt.hasNew {
			cs.New = []diff.ModelChange{{ID: "openai:x"}}
		}
		got, err := checkVersion(cs)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("checkVersion(%s, %s) = %q, want %q", tt.base, tt.head, got, tt.want)
		}
	}
}

func TestCheck_NoChanges(t *testing.T) {
	src := snapshot(t, "1.0.0", nil, model("openai:gpt-4o", 2.5))

	report, err := New(src, src).Check(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if code := report.ExitCode(); code != ExitSuccess {
		t.Errorf("exit code = %d, want %d (%v)", code, ExitSuccess, report.Reasons)
	}
}

func TestCheck_Changes(t *testing.T) {
	base := snapshot(t, "1.0.0", nil, model("openai:gpt-4o", 2.5))
	head := snapshot(t, "1.1.0", nil, model("openai:gpt-4o", 2.5), model("openai:gpt-5", 1.25))

	report, err := New(base, head).Check(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if code := report.ExitCode(); code != ExitChanges {
		t.Errorf("exit code = %d, want %d (%v)", code, ExitChanges, report.Reasons)
	}
	if report.Review || report.SuggestedVersion != "" {
		t.Errorf("unexpected review: %v", report.Reasons)
	}
}

func TestCheck_UnbumpedVersion(t *testing.T) {
	base := snapshot(t, "1.0.0", nil, model("openai:gpt-4o", 2.5))
	head := snapshot(t, "1.0.0", nil, model("openai:gpt-4o", 2.5), model("openai:gpt-5", 1.25))

	report, err := New(base, head).Check(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !report.Review || report.SuggestedVersion != "1.1.0" {
		t.Errorf("review=%v suggested=%q", report.Review, report.SuggestedVersion)
	}
}

func TestCheck_RemovalBlocks(t *testing.T) {
	base := snapshot(t, "1.0.0", nil, model("openai:gpt-4o", 2.5), model("openai:gpt-4", 30))
	head := snapshot(t, "1.0.1", nil, model("openai:gpt-4o", 2.5))

	report, err := New(base, head).Check(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if code := report.ExitCode(); code != ExitPolicyBlock {
		t.Errorf("exit code = %d, want %d", code, ExitPolicyBlock)
	}
}

func TestCheck_RemovalWithMigration(t *testing.T) {
	base := snapshot(t, "1.0.0", nil, model("openai:gpt-4o", 2.5), model("openai:gpt-4", 30))
	head := snapshot(t, "1.0.1", catalog.Migrations{
		"openai:gpt-4": {To: "openai:gpt-4o", Reason: "retired"},
	}, model("openai:gpt-4o", 2.5))

	report, err := New(base, head).Check(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if code := report.ExitCode(); code != ExitChanges {
		t.Errorf("exit code = %d, want %d (%v)", code, ExitChanges, report.Reasons)
	}
}

func TestCheck_InvalidHeadBlocks(t *testing.T) {
	base := snapshot(t, "1.0.0", nil, model("openai:gpt-4o", 2.5))
	broken := model("openai:gpt-4o", 2.5)
	broken.ContextWindow = 0
	head := snapshot(t, "1.0.1", nil, broken)

	report, err := New(base, head).Check(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !report.Blocked {
		t.Error("expected block for invalid head catalog")
	}
}

func TestCheck_SourceFailure(t *testing.T) {
	base := fakeSource{name: "git:HEAD", err: errors.New("reference not found")}
	head := snapshot(t, "1.0.0", nil, model("openai:gpt-4o", 2.5))

	_, err := New(base, head).Check(context.Background())
	if !errors.Is(err, ErrSourceHealth) {
		t.Errorf("err = %v, want ErrSourceHealth", err)
	}
}

package diff

import (
	"fmt"
	"strings"
)

// RenderSummary formats a changeset as Markdown for CI logs and review.
func RenderSummary(cs *ChangeSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Catalog changes %s → %s\n\n", orNone(cs.BaseVersion), orNone(cs.HeadVersion))

	if !cs.HasChanges() {
		fmt.Fprintf(&b, "No changes (%d descriptors unchanged).\n", cs.Unchanged)
		return b.String()
	}

	if len(cs.New) > 0 {
		fmt.Fprintf(&b, "### New (%d)\n", len(cs.New))
		for _, m := range cs.New {
			fmt.Fprintf(&b, "- `%s` %s\n", m.ID, m.Descriptor.Label())
		}
		b.WriteString("\n")
	}

	if len(cs.Updated) > 0 {
		fmt.Fprintf(&b, "### Updated (%d)\n", len(cs.Updated))
		for _, u := range cs.Updated {
			fmt.Fprintf(&b, "- `%s`\n", u.ID)
			for _, c := range u.Changes {
				fmt.Fprintf(&b, "  - %s: %v → %v\n", c.Field, c.OldValue, c.NewValue)
			}
		}
		b.WriteString("\n")
	}

	if len(cs.Removed) > 0 {
		fmt.Fprintf(&b, "### Removed without migration (%d)\n", len(cs.Removed))
		for _, m := range cs.Removed {
			fmt.Fprintf(&b, "- `%s`\n", m.ID)
		}
		b.WriteString("\n")
	}

	if len(cs.MigratedRemovals) > 0 {
		fmt.Fprintf(&b, "### Retired with migration (%d)\n", len(cs.MigratedRemovals))
		for _, m := range cs.MigratedRemovals {
			fmt.Fprintf(&b, "- `%s`\n", m.ID)
		}
		b.WriteString("\n")
	}

	writeMigrations(&b, "Added migrations", cs.AddedMigrations)
	writeMigrations(&b, "Dropped migrations", cs.DroppedMigrations)
	writeMigrations(&b, "Retargeted migrations", cs.RetargetedMigrations)

	if len(cs.PossibleRenames) > 0 {
		b.WriteString("### Possible renames\n")
		b.WriteString("Suggested migrations.yaml entries:\n\n```yaml\nmigrations:\n")
		for _, r := range cs.PossibleRenames {
			fmt.Fprintf(&b, "    %s:\n        to: %s\n        reason: renamed # %s\n", r.OldID, r.NewID, r.Reason)
		}
		b.WriteString("```\n")
	}

	return b.String()
}

func writeMigrations(b *strings.Builder, title string, changes []MigrationChange) {
	if len(changes) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s (%d)\n", title, len(changes))
	for _, c := range changes {
		fmt.Fprintf(b, "- `%s`: %s → %s\n", c.From, orNone(c.Old), orNone(c.New))
	}
	b.WriteString("\n")
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

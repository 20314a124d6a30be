package diff

import (
	"math"
	"slices"
	"strings"

	"github.com/everstacklabs/modelroute/internal/catalog"
)

// Compare computes the changes from base to head.
func Compare(base, head *catalog.Catalog) *ChangeSet {
	cs := &ChangeSet{BaseVersion: base.Version(), HeadVersion: head.Version()}

	for _, d := range head.All() {
		old, exists := base.Get(d.ID)
		if !exists {
			cs.New = append(cs.New, ModelChange{ID: d.ID, Descriptor: d})
			continue
		}
		if changes := catalog.CompareDescriptors(old, d); len(changes) > 0 {
			cs.Updated = append(cs.Updated, ModelUpdate{ID: d.ID, Descriptor: d, Changes: changes})
		} else {
			cs.Unchanged++
		}
	}

	headMigrations := head.Migrations()
	var removed []ModelChange
	for _, d := range base.All() {
		if _, ok := head.Get(d.ID); ok {
			continue
		}
		mc := ModelChange{ID: d.ID, Descriptor: d}
		if _, migrated := headMigrations[d.ID]; migrated {
			cs.MigratedRemovals = append(cs.MigratedRemovals, mc)
		} else {
			removed = append(removed, mc)
		}
	}
	cs.Removed = removed
	cs.PossibleRenames = detectRenames(cs.New, removed)

	baseMigrations := base.Migrations()
	for _, from := range sortedKeys(baseMigrations) {
		old := baseMigrations[from]
		m, ok := headMigrations[from]
		switch {
		case !ok:
			cs.DroppedMigrations = append(cs.DroppedMigrations, MigrationChange{From: from, Old: old.To})
		case m.To != old.To:
			cs.RetargetedMigrations = append(cs.RetargetedMigrations, MigrationChange{From: from, Old: old.To, New: m.To})
		}
	}
	for _, from := range sortedKeys(headMigrations) {
		if _, ok := baseMigrations[from]; !ok {
			cs.AddedMigrations = append(cs.AddedMigrations, MigrationChange{From: from, New: headMigrations[from].To})
		}
	}

	return cs
}

func sortedKeys(m catalog.Migrations) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// detectRenames pairs removed ids with new ids from the same vendor that are
// either a dated snapshot of the removed name or have a similar context
// window and price.
func detectRenames(newModels, removed []ModelChange) []RenamePair {
	var renames []RenamePair

	for _, oldM := range removed {
		for _, newM := range newModels {
			o, n := oldM.Descriptor, newM.Descriptor
			if o.Vendor != n.Vendor {
				continue
			}

			if rest, ok := strings.CutPrefix(n.Name(), o.Name()+"-"); ok && looksLikeDate(rest) {
				renames = append(renames, RenamePair{OldID: oldM.ID, NewID: newM.ID, Reason: "dated snapshot of removed id"})
				continue
			}

			if o.ContextWindow > 0 && n.ContextWindow > 0 {
				ratio := float64(n.ContextWindow) / float64(o.ContextWindow)
				if math.Abs(ratio-1.0) > 0.1 {
					continue
				}
			}
			if o.Pricing.Input > 0 {
				ratio := n.Pricing.Input / o.Pricing.Input
				if math.Abs(ratio-1.0) > 0.2 {
					continue
				}
			}
			if o.ReasoningShape != nil && n.ReasoningShape == nil {
				continue
			}

			renames = append(renames, RenamePair{
				OldID:  oldM.ID,
				NewID:  newM.ID,
				Reason: "same vendor, similar context window/price",
			})
		}
	}

	return renames
}

// looksLikeDate matches YYYYMMDD, YYYY-MM-DD and MMDD suffixes.
func looksLikeDate(s string) bool {
	parts := strings.Split(s, "-")
	switch {
	case len(parts) == 1:
		return (len(s) == 4 || len(s) == 8) && isAllDigits(s)
	case len(parts) == 3:
		return len(parts[0]) == 4 && len(parts[1]) == 2 && len(parts[2]) == 2 &&
			isAllDigits(parts[0]) && isAllDigits(parts[1]) && isAllDigits(parts[2])
	}
	return false
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

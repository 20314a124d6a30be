package diff

import "github.com/everstacklabs/modelroute/internal/catalog"

// ChangeSet is the difference between a base and a head catalog snapshot.
type ChangeSet struct {
	BaseVersion string
	HeadVersion string

	New     []ModelChange
	Updated []ModelUpdate
	// Removed are base ids the head catalog neither lists nor migrates.
	Removed []ModelChange
	// MigratedRemovals are removed ids the head migration table redirects.
	MigratedRemovals []ModelChange

	AddedMigrations      []MigrationChange
	DroppedMigrations    []MigrationChange
	RetargetedMigrations []MigrationChange

	PossibleRenames []RenamePair
	Unchanged       int
}

// ModelChange represents a new or removed descriptor.
type ModelChange struct {
	ID         string
	Descriptor *catalog.Descriptor
}

// ModelUpdate represents a descriptor whose fields changed.
type ModelUpdate struct {
	ID         string
	Descriptor *catalog.Descriptor
	Changes    []catalog.FieldChange
}

// MigrationChange represents an added, dropped or retargeted migration entry.
type MigrationChange struct {
	From string
	Old  string // previous target, empty when added
	New  string // new target, empty when dropped
}

// RenamePair is a removed id that looks replaced by a new one.
type RenamePair struct {
	OldID  string
	NewID  string
	Reason string
}

// HasChanges reports whether the changeset has any modifications.
func (cs *ChangeSet) HasChanges() bool {
	return len(cs.New) > 0 || len(cs.Updated) > 0 || len(cs.Removed) > 0 ||
		len(cs.MigratedRemovals) > 0 || len(cs.AddedMigrations) > 0 ||
		len(cs.DroppedMigrations) > 0 || len(cs.RetargetedMigrations) > 0
}

// TotalChanged returns the count of new, updated and removed descriptors.
func (cs *ChangeSet) TotalChanged() int {
	return len(cs.New) + len(cs.Updated) + len(cs.Removed) + len(cs.MigratedRemovals)
}

// ShapeKindChanges returns the updates that switched reasoning shape kind.
func (cs *ChangeSet) ShapeKindChanges() []ModelUpdate {
	var out []ModelUpdate
	for _, u := range cs.Updated {
		for _, c := range u.Changes {
			if c.Field == "reasoning.type" {
				out = append(out, u)
				break
			}
		}
	}
	return out
}

package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrDuplicateID is returned when two descriptors share an id.
	ErrDuplicateID = errors.New("duplicate model id")
	// ErrMalformedID is returned for ids not of the form <vendor>:<model-name>.
	ErrMalformedID = errors.New("malformed model id")
)

// Catalog is an immutable snapshot of model descriptors and migrations.
// It is built once and never mutated afterwards.
type Catalog struct {
	version    string
	models     map[string]*Descriptor
	ids        []string
	migrations Migrations
}

// New builds a catalog snapshot. Inputs are copied.
func New(version string, descs []Descriptor, migrations Migrations) (*Catalog, error) {
	c := &Catalog{
		version:    version,
		models:     make(map[string]*Descriptor, len(descs)),
		migrations: make(Migrations, len(migrations)),
	}

	for i := range descs {
		d := descs[i].Clone()
		if err := CheckID(d.ID); err != nil {
			return nil, err
		}
		if _, dup := c.models[d.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, d.ID)
		}
		c.models[d.ID] = d
		c.ids = append(c.ids, d.ID)
	}
	slices.Sort(c.ids)

	for from, m := range migrations {
		m.Capabilities = slices.Clone(m.Capabilities)
		c.migrations[from] = m
	}

	return c, nil
}

// CheckID verifies that id has a non-empty vendor and model name.
func CheckID(id string) error {
	vendor, name, found := strings.Cut(id, ":")
	if !found || vendor == "" || name == "" {
		return fmt.Errorf("%w: %q", ErrMalformedID, id)
	}
	return nil
}

// Version returns the catalog version string.
func (c *Catalog) Version() string { return c.version }

// Len returns the number of descriptors.
func (c *Catalog) Len() int { return len(c.ids) }

// Get returns the descriptor stored under id.
func (c *Catalog) Get(id string) (*Descriptor, bool) {
	d, ok := c.models[id]
	return d, ok
}

// All returns every descriptor sorted by id. Callers must treat the
// descriptors as read-only.
func (c *Catalog) All() []*Descriptor {
	out := make([]*Descriptor, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.models[id])
	}
	return out
}

// IDs returns the sorted descriptor ids.
func (c *Catalog) IDs() []string {
	return slices.Clone(c.ids)
}

// MigrationFor returns the successor recorded for id, if any.
func (c *Catalog) MigrationFor(id string) (Migration, bool) {
	m, ok := c.migrations[id]
	return m, ok
}

// Migrations returns a copy of the migration table.
func (c *Catalog) Migrations() Migrations {
	return maps.Clone(c.migrations)
}

// ModelsByProvider groups descriptors by vendor family, each group sorted by id.
func (c *Catalog) ModelsByProvider() map[Vendor][]*Descriptor {
	groups := make(map[Vendor][]*Descriptor)
	for _, d := range c.All() {
		groups[d.Vendor] = append(groups[d.Vendor], d)
	}
	return groups
}

// Vendors returns the sorted vendor families present in the catalog.
func (c *Catalog) Vendors() []Vendor {
	return slices.Sorted(maps.Keys(c.ModelsByProvider()))
}

// migrationsFile is the YAML shape of migrations.yaml.
type migrationsFile struct {
	Migrations Migrations `yaml:"migrations"`
}

// Load reads a catalog directory from disk.
func Load(basePath string) (*Catalog, error) {
	return LoadFS(os.DirFS(basePath))
}

// LoadFS reads a catalog laid out as version.txt, migrations.yaml and
// providers/<vendor>/models/*.yaml.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	versionBytes, err := fs.ReadFile(fsys, "version.txt")
	if err != nil {
		return nil, fmt.Errorf("reading version.txt: %w", err)
	}
	version := strings.TrimSpace(string(versionBytes))

	var migrations Migrations
	data, err := fs.ReadFile(fsys, "migrations.yaml")
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// No renames yet.
	case err != nil:
		return nil, fmt.Errorf("reading migrations.yaml: %w", err)
	default:
		var mf migrationsFile
		if err := yaml.Unmarshal(data, &mf); err != nil {
			return nil, fmt.Errorf("parsing migrations.yaml: %w", err)
		}
		migrations = mf.Migrations
	}

	entries, err := fs.ReadDir(fsys, "providers")
	if err != nil {
		return nil, fmt.Errorf("reading providers dir: %w", err)
	}

	var descs []Descriptor
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		vendor := entry.Name()
		models, err := loadProvider(fsys, vendor)
		if err != nil {
			return nil, fmt.Errorf("loading provider %s: %w", vendor, err)
		}
		descs = append(descs, models...)
	}

	return New(version, descs, migrations)
}

func loadProvider(fsys fs.FS, vendor string) ([]Descriptor, error) {
	modelsDir := path.Join("providers", vendor, "models")
	modelFiles, err := fs.ReadDir(fsys, modelsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading models dir: %w", err)
	}

	var descs []Descriptor
	for _, f := range modelFiles {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}

		data, err := fs.ReadFile(fsys, path.Join(modelsDir, f.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Name(), err)
		}

		var d Descriptor
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.Name(), err)
		}
		if d.Vendor == "" {
			d.Vendor = Vendor(vendor)
		}
		descs = append(descs, d)
	}
	return descs, nil
}

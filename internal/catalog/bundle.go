package catalog

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// BundleSchemaVersion is written into every bundle.
const BundleSchemaVersion = "1.0"

// Bundle is the single-file form of a catalog, used by remote stores.
type Bundle struct {
	Version       string       `yaml:"version"`
	GeneratedAt   string       `yaml:"generated_at"`
	SchemaVersion string       `yaml:"schema_version"`
	Models        []Descriptor `yaml:"models"`
	Migrations    Migrations   `yaml:"migrations,omitempty"`
}

const bundleHeader = "# Model Catalog Bundle\n# Auto-generated - DO NOT EDIT MANUALLY\n# Run: modelroute bundle to regenerate\n\n"

// WriteBundle writes the catalog as a single YAML document.
func WriteBundle(w io.Writer, c *Catalog) error {
	b := Bundle{
		Version:       c.Version(),
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		SchemaVersion: BundleSchemaVersion,
		Migrations:    c.Migrations(),
	}
	for _, d := range c.All() {
		b.Models = append(b.Models, *d)
	}

	data, err := yaml.Marshal(&b)
	if err != nil {
		return fmt.Errorf("marshaling bundle: %w", err)
	}

	if _, err := io.WriteString(w, bundleHeader); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ParseBundle builds a catalog from a bundle document.
func ParseBundle(data []byte) (*Catalog, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing bundle: %w", err)
	}
	if b.SchemaVersion != "" && b.SchemaVersion != BundleSchemaVersion {
		return nil, fmt.Errorf("unsupported bundle schema version %q", b.SchemaVersion)
	}
	for i := range b.Models {
		if b.Models[i].Vendor == "" {
			b.Models[i].Vendor = Vendor(b.Models[i].VendorPart())
		}
	}
	return New(b.Version, b.Models, b.Migrations)
}

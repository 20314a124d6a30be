package catalog

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed data
var defaultData embed.FS

// Default loads the catalog compiled into the binary.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(defaultData, "data")
	if err != nil {
		return nil, fmt.Errorf("opening embedded catalog: %w", err)
	}
	return LoadFS(sub)
}

package hosts

import (
	"slices"

	"github.com/everstacklabs/modelroute/internal/catalog"
)

// Order returns the inference hosts to attempt for d, in order. When d has
// no host preference it returns nil, false: the dispatch layer may pick any
// available host.
func Order(d *catalog.Descriptor) ([]string, bool) {
	if d.HostPreference == nil {
		return nil, false
	}
	return slices.Clone(d.HostPreference), true
}

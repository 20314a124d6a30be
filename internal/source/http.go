package source

import (
	"context"
	"fmt"

	"github.com/everstacklabs/modelroute/internal/catalog"
	"github.com/everstacklabs/modelroute/internal/httpclient"
)

// HTTP fetches a single-file catalog bundle over HTTP.
type HTTP struct {
	URL    string
	Client *httpclient.Client
}

func (h *HTTP) Name() string { return "http:" + h.URL }

func (h *HTTP) Load(ctx context.Context) (*catalog.Catalog, error) {
	client := h.Client
	if client == nil {
		client = httpclient.New()
	}

	resp, err := client.Get(ctx, h.URL, map[string]string{"Accept": "application/yaml"})
	if err != nil {
		return nil, err
	}

	cat, err := catalog.ParseBundle(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing bundle from %s: %w", h.URL, err)
	}
	return cat, nil
}

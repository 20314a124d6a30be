// Package source loads catalog snapshots from the places a catalog can live:
// the embedded default, a directory, a remote bundle, a git revision or a
// GitHub repository.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/everstacklabs/modelroute/internal/cache"
	"github.com/everstacklabs/modelroute/internal/catalog"
	"github.com/everstacklabs/modelroute/internal/config"
	"github.com/everstacklabs/modelroute/internal/httpclient"
	"github.com/everstacklabs/modelroute/internal/validate"
)

// ErrInvalidCatalog is returned when a loaded catalog has validation errors.
var ErrInvalidCatalog = validate.ErrInvalidCatalog

// Source produces a catalog snapshot.
type Source interface {
	Name() string
	Load(ctx context.Context) (*catalog.Catalog, error)
}

// Load reads a snapshot from src and refuses it when validation reports
// errors. Warnings are logged and returned with the catalog.
func Load(ctx context.Context, src Source) (*catalog.Catalog, *validate.Result, error) {
	start := time.Now()
	cat, err := src.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading catalog from %s: %w", src.Name(), err)
	}

	res := validate.ValidateCatalog(cat)
	for _, w := range res.Warnings() {
		slog.Warn("catalog warning", "source", src.Name(), "model", w.Model, "field", w.Field, "message", w.Message)
	}
	if res.HasErrors() {
		return nil, res, fmt.Errorf("%w: %s has %d errors", ErrInvalidCatalog, src.Name(), len(res.Errors()))
	}

	slog.Info("catalog loaded",
		"source", src.Name(),
		"version", cat.Version(),
		"models", cat.Len(),
		"duration", time.Since(start))
	return cat, res, nil
}

// Embedded serves the catalog compiled into the binary.
type Embedded struct{}

func (Embedded) Name() string { return "embedded" }

func (Embedded) Load(context.Context) (*catalog.Catalog, error) {
	return catalog.Default()
}

// Dir reads a catalog directory from disk.
type Dir struct {
	Path string
}

func (d Dir) Name() string { return "dir:" + d.Path }

func (d Dir) Load(context.Context) (*catalog.Catalog, error) {
	return catalog.Load(d.Path)
}

// FromConfig builds the source selected by cfg.
func FromConfig(ctx context.Context, cfg *config.Config) (Source, error) {
	switch cfg.Catalog.Source {
	case config.SourceEmbedded:
		return Embedded{}, nil
	case config.SourceDir:
		return Dir{Path: cfg.Catalog.Path}, nil
	case config.SourceHTTP:
		client, err := newHTTPClient(cfg)
		if err != nil {
			return nil, err
		}
		return &HTTP{URL: cfg.Catalog.URL, Client: client}, nil
	case config.SourceGit:
		return OpenGit(cfg.Catalog.GitPath, cfg.Catalog.GitRef, cfg.Catalog.GitSubdir)
	case config.SourceGitHub:
		gh := cfg.Catalog.GitHub
		return NewGitHub(ctx, GitHubOptions{
			Owner:   gh.Owner,
			Repo:    gh.Repo,
			Path:    gh.Path,
			Ref:     gh.Ref,
			Token:   gh.Token,
			BaseURL: gh.BaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}

func newHTTPClient(cfg *config.Config) (*httpclient.Client, error) {
	opts := []httpclient.Option{httpclient.WithRateLimit(cfg.RateLimit)}
	if cfg.NoCache {
		return httpclient.New(append(opts, httpclient.WithNoCache())...), nil
	}

	ttl, err := cfg.TTL()
	if err != nil {
		return nil, err
	}
	fc, err := cache.New(cfg.CacheDir, ttl)
	if err != nil {
		return nil, err
	}
	return httpclient.New(append(opts, httpclient.WithCache(fc))...), nil
}

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/everstacklabs/modelroute/internal/catalog"
	"github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"
)

// GitHubOptions locates a catalog bundle in a GitHub repository.
type GitHubOptions struct {
	Owner   string
	Repo    string
	Path    string
	Ref     string
	Token   string
	BaseURL string // API base URL for GitHub Enterprise or tests
}

// GitHub fetches a catalog bundle through the GitHub contents API.
type GitHub struct {
	opts   GitHubOptions
	client *github.Client
}

// NewGitHub creates a GitHub source. An empty token uses anonymous access.
func NewGitHub(ctx context.Context, opts GitHubOptions) (*GitHub, error) {
	var hc *http.Client
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		hc = oauth2.NewClient(ctx, ts)
	}
	client := github.NewClient(hc)

	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parsing GitHub base URL: %w", err)
		}
		client.BaseURL = u
	}

	return &GitHub{opts: opts, client: client}, nil
}

func (g *GitHub) Name() string {
	return fmt.Sprintf("github:%s/%s/%s@%s", g.opts.Owner, g.opts.Repo, g.opts.Path, g.opts.Ref)
}

func (g *GitHub) Load(ctx context.Context) (*catalog.Catalog, error) {
	file, _, _, err := g.client.Repositories.GetContents(ctx, g.opts.Owner, g.opts.Repo, g.opts.Path,
		&github.RepositoryContentGetOptions{Ref: g.opts.Ref})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", g.opts.Path, err)
	}
	if file == nil {
		return nil, fmt.Errorf("%s is a directory, expected a catalog bundle", g.opts.Path)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", g.opts.Path, err)
	}

	cat, err := catalog.ParseBundle([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("parsing bundle %s: %w", g.opts.Path, err)
	}
	return cat, nil
}

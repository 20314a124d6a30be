package source

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/everstacklabs/modelroute/internal/catalog"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func commitCatalog(t *testing.T, repoDir string, wt *git.Worktree, cat *catalog.Catalog, msg string) {
	t.Helper()
	writeDir(t, filepath.Join(repoDir, "catalog"), cat)
	if _, err := wt.Add("catalog"); err != nil {
		t.Fatalf("staging: %v", err)
	}
	_, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "modelroute", Email: "catalog@everstack.dev", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("committing: %v", err)
	}
}

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}

	commitCatalog(t, dir, wt, smallCatalog(t, "1.0.0"), "catalog: initial")
	commitCatalog(t, dir, wt, smallCatalog(t, "1.1.0", catalog.Descriptor{
		ID:            "mistral:mistral-small",
		DisplayName:   "Mistral Small",
		Vendor:        catalog.VendorMistral,
		ContextWindow: 128000,
		Pricing:       catalog.Pricing{Input: 0.1, Output: 0.3},
	}), "catalog: add mistral-small")
	return dir
}

func TestGitLoadsRevisions(t *testing.T) {
	dir := initRepo(t)

	src, err := OpenGit(dir, "", "catalog")
	if err != nil {
		t.Fatal(err)
	}

	head, err := src.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if head.Version() != "1.1.0" || head.Len() != 2 {
		t.Errorf("HEAD: version %s, %d models", head.Version(), head.Len())
	}
	if d, ok := head.Get("openai:gpt-5.1"); !ok || d.ReasoningShape == nil {
		t.Error("openai:gpt-5.1 should load with its reasoning shape")
	}
	if _, ok := head.MigrationFor("openai:gpt-5"); !ok {
		t.Error("migrations.yaml not read from the tree")
	}

	prev, err := src.At("HEAD~1").Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if prev.Version() != "1.0.0" || prev.Len() != 1 {
		t.Errorf("HEAD~1: version %s, %d models", prev.Version(), prev.Len())
	}
	if src.Name() == src.At("HEAD~1").Name() {
		t.Error("revision should be part of the source name")
	}
}

func TestGitErrors(t *testing.T) {
	dir := initRepo(t)

	if _, err := OpenGit(t.TempDir(), "HEAD", "catalog"); err == nil {
		t.Error("opening a non-repository should fail")
	}

	src, err := OpenGit(dir, "no-such-branch", "catalog")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.Load(context.Background()); err == nil {
		t.Error("unknown revision should fail")
	}

	src, err = OpenGit(dir, "HEAD", "elsewhere")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.Load(context.Background()); err == nil {
		t.Error("missing catalog directory should fail")
	}
}

func TestTreeFSReportsNotExist(t *testing.T) {
	dir := initRepo(t)
	repo, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatal(err)
	}
	head, _ := repo.Head()
	commit, _ := repo.CommitObject(head.Hash())
	tree, _ := commit.Tree()

	fsys := treeFS{tree}
	if _, err := fsys.ReadFile("catalog/missing.yaml"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile error = %v, want fs.ErrNotExist", err)
	}
	entries, err := fsys.ReadDir("catalog")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	want := []string{"migrations.yaml", "providers", "version.txt"}
	if len(names) != len(want) {
		t.Fatalf("entries = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entries = %v, want %v", names, want)
		}
	}
	if !entries[1].IsDir() {
		t.Error("providers should be a directory")
	}
}

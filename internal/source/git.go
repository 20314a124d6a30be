package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/everstacklabs/modelroute/internal/catalog"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Git reads a catalog directory as it exists at a revision of a git
// repository, without touching the worktree.
type Git struct {
	repo   *git.Repository
	label  string
	Ref    string
	Subdir string
}

// OpenGit opens the repository at repoPath.
func OpenGit(repoPath, ref, subdir string) (*Git, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repo: %w", err)
	}
	return NewGit(repo, repoPath, ref, subdir), nil
}

// NewGit wraps an already opened repository.
func NewGit(repo *git.Repository, label, ref, subdir string) *Git {
	if ref == "" {
		ref = "HEAD"
	}
	return &Git{repo: repo, label: label, Ref: ref, Subdir: subdir}
}

func (g *Git) Name() string {
	return fmt.Sprintf("git:%s@%s", g.label, g.Ref)
}

// At returns a copy of g reading a different revision.
func (g *Git) At(ref string) *Git {
	c := *g
	c.Ref = ref
	return &c
}

func (g *Git) Load(context.Context) (*catalog.Catalog, error) {
	hash, err := g.repo.ResolveRevision(plumbing.Revision(g.Ref))
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", g.Ref, err)
	}
	commit, err := g.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("reading commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading tree of %s: %w", hash, err)
	}

	if sub := strings.Trim(g.Subdir, "/"); sub != "" && sub != "." {
		tree, err = tree.Tree(sub)
		if err != nil {
			return nil, fmt.Errorf("catalog directory %s at %s: %w", sub, g.Ref, err)
		}
	}

	return catalog.LoadFS(treeFS{tree})
}

// treeFS exposes a git tree as a read-only fs.FS. Directories can be listed
// with ReadDir but not opened.
type treeFS struct {
	root *object.Tree
}

func (t treeFS) Open(name string) (fs.File, error) {
	data, err := t.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return &blobFile{Reader: bytes.NewReader(data), info: entryInfo{name: path.Base(name), size: int64(len(data))}}, nil
}

func (t treeFS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	f, err := t.root.File(name)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	r, err := f.Reader()
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (t treeFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	dir := t.root
	if name != "." {
		sub, err := t.root.Tree(name)
		if err != nil {
			return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
		}
		dir = sub
	}

	entries := make([]fs.DirEntry, 0, len(dir.Entries))
	for _, e := range dir.Entries {
		entries = append(entries, entryInfo{name: e.Name, dir: e.Mode == filemode.Dir})
	}
	slices.SortFunc(entries, func(a, b fs.DirEntry) int { return strings.Compare(a.Name(), b.Name()) })
	return entries, nil
}

// entryInfo serves as both fs.DirEntry and fs.FileInfo for tree entries.
type entryInfo struct {
	name string
	dir  bool
	size int64
}

func (e entryInfo) Name() string               { return e.name }
func (e entryInfo) IsDir() bool                { return e.dir }
func (e entryInfo) Size() int64                { return e.size }
func (e entryInfo) ModTime() time.Time         { return time.Time{} }
func (e entryInfo) Sys() any                   { return nil }
func (e entryInfo) Info() (fs.FileInfo, error) { return e, nil }
func (e entryInfo) Type() fs.FileMode          { return e.Mode().Type() }

func (e entryInfo) Mode() fs.FileMode {
	if e.dir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}

type blobFile struct {
	*bytes.Reader
	info entryInfo
}

func (f *blobFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *blobFile) Close() error               { return nil }

package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// HistoryReader reads commit history and diffs from a Git repository.
type HistoryReader struct {
	repo *gogit.Repository
	opts ReadOptions
}

// NewHistoryReader opens the repository at opts.RepoPath. The repository is
// validated once, here; per-commit operations never re-check it.
func NewHistoryReader(opts ReadOptions) (*HistoryReader, error) {
	repo, err := gogit.PlainOpen(opts.RepoPath)
	if err != nil {
		return nil, &RepositoryError{Path: opts.RepoPath, Err: err}
	}
	return &HistoryReader{repo: repo, opts: opts}, nil
}

// ListCommits returns the non-merge commits whose commit date falls within
// the configured range, in the order git enumerates them (newest first).
func (r *HistoryReader) ListCommits(ctx context.Context) ([]CommitRecord, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}

	logOpts := &gogit.LogOptions{From: ref.Hash()}
	if r.opts.Since != nil {
		logOpts.Since = r.opts.Since
	}
	if r.opts.Until != nil {
		logOpts.Until = r.opts.Until
	}

	cIter, err := r.repo.Log(logOpts)
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer cIter.Close()

	var records []CommitRecord
	err = cIter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Merge commits are excluded from analysis.
		if c.NumParents() > 1 {
			return nil
		}

		records = append(records, CommitRecord{
			Hash:    c.Hash.String(),
			Author:  fmt.Sprintf("%s <%s>", c.Author.Name, c.Author.Email),
			Date:    c.Author.When.Format(gitDateLayout),
			Message: strings.TrimSpace(sanitize(c.Message)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Diff returns the unified diff of the given commit against its first
// parent. Root commits are diffed against the empty tree. Failures are
// reported as a CommitLookupError so callers can keep the run going.
func (r *HistoryReader) Diff(ctx context.Context, hash string) (CommitDiff, error) {
	c, err := r.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return CommitDiff{}, &CommitLookupError{Hash: hash, Err: err}
	}

	tree, err := c.Tree()
	if err != nil {
		return CommitDiff{}, &CommitLookupError{Hash: hash, Err: err}
	}

	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return CommitDiff{}, &CommitLookupError{Hash: hash, Err: err}
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return CommitDiff{}, &CommitLookupError{Hash: hash, Err: err}
		}
	}

	changes, err := object.DiffTreeWithOptions(ctx, parentTree, tree, object.DefaultDiffTreeOptions)
	if err != nil {
		return CommitDiff{}, &CommitLookupError{Hash: hash, Err: err}
	}

	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return CommitDiff{}, &CommitLookupError{Hash: hash, Err: err}
	}

	var files []string
	for _, fp := range patch.FilePatches() {
		from, to := fp.Files()
		switch {
		case to != nil:
			files = append(files, to.Path())
		case from != nil:
			files = append(files, from.Path())
		}
	}

	return CommitDiff{
		Text:  strings.TrimSpace(sanitize(patch.String())),
		Files: files,
	}, nil
}

// TouchesFilters reports whether any of the changed paths passes the
// configured include/exclude globs. With no filters configured every commit
// passes.
func (r *HistoryReader) TouchesFilters(files []string) bool {
	if len(r.opts.Include) == 0 && len(r.opts.Exclude) == 0 {
		return true
	}
	for _, f := range files {
		if r.matchesFilters(f) {
			return true
		}
	}
	return false
}

// matchesFilters checks if a path matches the include/exclude filters.
func (r *HistoryReader) matchesFilters(path string) bool {
	path = strings.ReplaceAll(path, "\\", "/")

	for _, pattern := range r.opts.Exclude {
		matched, _ := doublestar.Match(pattern, path)
		if matched {
			return false
		}
	}

	if len(r.opts.Include) == 0 {
		return true
	}

	for _, pattern := range r.opts.Include {
		matched, _ := doublestar.Match(pattern, path)
		if matched {
			return true
		}
	}

	return false
}

// RepoName derives a display name for the repository from the origin remote
// URL, falling back to the directory basename.
func (r *HistoryReader) RepoName() string {
	if remote, err := r.repo.Remote("origin"); err == nil {
		urls := remote.Config().URLs
		if len(urls) > 0 && urls[0] != "" {
			return nameFromRemoteURL(urls[0])
		}
	}
	abs, err := filepath.Abs(r.opts.RepoPath)
	if err != nil {
		return filepath.Base(r.opts.RepoPath)
	}
	return filepath.Base(abs)
}

// nameFromRemoteURL extracts "repo" from forms like
// https://host/user/repo.git and git@host:user/repo.git.
func nameFromRemoteURL(url string) string {
	url = strings.TrimSuffix(url, ".git")
	if idx := strings.LastIndexAny(url, "/:"); idx != -1 {
		url = url[idx+1:]
	}
	return url
}

// sanitize replaces invalid UTF-8 sequences so that binary-ish diff content
// stays representable as text.
func sanitize(s string) string {
	return strings.ToValidUTF8(s, "�")
}

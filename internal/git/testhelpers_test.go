package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// createTestRepo creates a temporary git repository for tests.
func createTestRepo(t *testing.T) (string, *gogit.Repository) {
	t.Helper()

	tmpDir := t.TempDir()
	repo, err := gogit.PlainInit(tmpDir, false)
	if err != nil {
		t.Fatalf("Failed to initialize git repo: %v", err)
	}
	return tmpDir, repo
}

// addCommit writes files and commits them with the given time, returning
// the commit hash.
func addCommit(t *testing.T, repo *gogit.Repository, message string, files map[string]string, when time.Time) plumbing.Hash {
	t.Helper()

	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}

	for name, content := range files {
		path := filepath.Join(w.Filesystem.Root(), name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
		if _, err := w.Add(name); err != nil {
			t.Fatalf("Failed to add file: %v", err)
		}
	}

	sig := &object.Signature{
		Name:  "Test Author",
		Email: "test@example.com",
		When:  when,
	}
	hash, err := w.Commit(message, &gogit.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
	return hash
}

// addMergeCommit creates a commit with two parents.
func addMergeCommit(t *testing.T, repo *gogit.Repository, message string, parents []plumbing.Hash, when time.Time) plumbing.Hash {
	t.Helper()

	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}

	sig := &object.Signature{
		Name:  "Test Author",
		Email: "test@example.com",
		When:  when,
	}
	hash, err := w.Commit(message, &gogit.CommitOptions{
		Author:            sig,
		Committer:         sig,
		Parents:           parents,
		AllowEmptyCommits: true,
	})
	if err != nil {
		t.Fatalf("Failed to create merge commit: %v", err)
	}
	return hash
}

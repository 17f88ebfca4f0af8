package git

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
)

func TestNewHistoryReader_InvalidPath(t *testing.T) {
	_, err := NewHistoryReader(ReadOptions{RepoPath: t.TempDir()})
	if err == nil {
		t.Fatal("expected error for a directory without git metadata")
	}
	var repoErr *RepositoryError
	if !errors.As(err, &repoErr) {
		t.Fatalf("expected RepositoryError, got %T: %v", err, err)
	}
}

func TestListCommits_OrderAndMetadata(t *testing.T) {
	dir, repo := createTestRepo(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	addCommit(t, repo, "first commit", map[string]string{"a.go": "package a\n"}, base)
	addCommit(t, repo, "second commit\n\nwith a body", map[string]string{"b.go": "package b\n"}, base.Add(time.Hour))

	reader, err := NewHistoryReader(ReadOptions{RepoPath: dir})
	if err != nil {
		t.Fatalf("NewHistoryReader: %v", err)
	}

	commits, err := reader.ListCommits(context.Background())
	if err != nil {
		t.Fatalf("ListCommits: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("got %d commits, expected 2", len(commits))
	}

	// Newest first, as git enumerates.
	if commits[0].Subject() != "second commit" || commits[1].Subject() != "first commit" {
		t.Errorf("unexpected order: %q, %q", commits[0].Subject(), commits[1].Subject())
	}
	if commits[0].Author != "Test Author <test@example.com>" {
		t.Errorf("Author = %q", commits[0].Author)
	}
	if commits[0].Message != "second commit\n\nwith a body" {
		t.Errorf("Message = %q", commits[0].Message)
	}
	if len(commits[0].Hash) != 40 {
		t.Errorf("Hash = %q, expected full SHA", commits[0].Hash)
	}
	if commits[0].Date == "" {
		t.Error("Date must be populated")
	}
}

func TestListCommits_ExcludesMerges(t *testing.T) {
	dir, repo := createTestRepo(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	h1 := addCommit(t, repo, "first", map[string]string{"a.go": "package a\n"}, base)
	h2 := addCommit(t, repo, "second", map[string]string{"b.go": "package b\n"}, base.Add(time.Hour))
	addMergeCommit(t, repo, "merge branches", []plumbing.Hash{h1, h2}, base.Add(2*time.Hour))

	reader, err := NewHistoryReader(ReadOptions{RepoPath: dir})
	if err != nil {
		t.Fatalf("NewHistoryReader: %v", err)
	}

	commits, err := reader.ListCommits(context.Background())
	if err != nil {
		t.Fatalf("ListCommits: %v", err)
	}
	for _, c := range commits {
		if c.Subject() == "merge branches" {
			t.Error("merge commit must be excluded")
		}
	}
}

func TestListCommits_DateRange(t *testing.T) {
	dir, repo := createTestRepo(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	addCommit(t, repo, "too old", map[string]string{"a.go": "package a\n"}, base)
	addCommit(t, repo, "in range", map[string]string{"b.go": "package b\n"}, base.AddDate(0, 1, 0))
	addCommit(t, repo, "too new", map[string]string{"c.go": "package c\n"}, base.AddDate(0, 2, 0))

	since := base.AddDate(0, 0, 15)
	until := base.AddDate(0, 1, 15)
	reader, err := NewHistoryReader(ReadOptions{RepoPath: dir, Since: &since, Until: &until})
	if err != nil {
		t.Fatalf("NewHistoryReader: %v", err)
	}

	commits, err := reader.ListCommits(context.Background())
	if err != nil {
		t.Fatalf("ListCommits: %v", err)
	}
	if len(commits) != 1 || commits[0].Subject() != "in range" {
		t.Fatalf("got %d commits (%v), expected just the in-range one", len(commits), commits)
	}
}

func TestDiff_ModifiedFile(t *testing.T) {
	dir, repo := createTestRepo(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	addCommit(t, repo, "first", map[string]string{"main.go": "package main\n"}, base)
	h := addCommit(t, repo, "second", map[string]string{"main.go": "package main\n\nfunc main() {}\n"}, base.Add(time.Hour))

	reader, err := NewHistoryReader(ReadOptions{RepoPath: dir})
	if err != nil {
		t.Fatalf("NewHistoryReader: %v", err)
	}

	diff, err := reader.Diff(context.Background(), h.String())
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if diff.Empty() {
		t.Fatal("diff must not be empty")
	}
	if !strings.Contains(diff.Text, "main.go") {
		t.Errorf("diff text missing file name:\n%s", diff.Text)
	}
	if !strings.Contains(diff.Text, "+func main() {}") {
		t.Errorf("diff text missing added line:\n%s", diff.Text)
	}
	if len(diff.Files) != 1 || diff.Files[0] != "main.go" {
		t.Errorf("Files = %v, expected [main.go]", diff.Files)
	}
}

func TestDiff_RootCommitAgainstEmptyTree(t *testing.T) {
	dir, repo := createTestRepo(t)
	h := addCommit(t, repo, "initial", map[string]string{"a.go": "package a\n"}, time.Now())

	reader, err := NewHistoryReader(ReadOptions{RepoPath: dir})
	if err != nil {
		t.Fatalf("NewHistoryReader: %v", err)
	}

	diff, err := reader.Diff(context.Background(), h.String())
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if !strings.Contains(diff.Text, "+package a") {
		t.Errorf("root commit diff missing content:\n%s", diff.Text)
	}
}

func TestDiff_UnknownHash(t *testing.T) {
	dir, repo := createTestRepo(t)
	addCommit(t, repo, "only", map[string]string{"a.go": "package a\n"}, time.Now())

	reader, err := NewHistoryReader(ReadOptions{RepoPath: dir})
	if err != nil {
		t.Fatalf("NewHistoryReader: %v", err)
	}

	_, err = reader.Diff(context.Background(), strings.Repeat("ab", 20))
	if err == nil {
		t.Fatal("expected error for unknown hash")
	}
	var lookupErr *CommitLookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("expected CommitLookupError, got %T: %v", err, err)
	}
}

func TestTouchesFilters(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		files   []string
		want    bool
	}{
		{name: "No filters", files: []string{"a.go"}, want: true},
		{name: "Include match", include: []string{"**/*.go"}, files: []string{"pkg/a.go"}, want: true},
		{name: "Include miss", include: []string{"**/*.go"}, files: []string{"README.md"}, want: false},
		{name: "Exclude all", exclude: []string{"vendor/**"}, files: []string{"vendor/x/y.go"}, want: false},
		{name: "One survivor", exclude: []string{"vendor/**"}, files: []string{"vendor/x/y.go", "main.go"}, want: true},
		{name: "No files", include: []string{"**/*.go"}, files: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &HistoryReader{opts: ReadOptions{Include: tt.include, Exclude: tt.exclude}}
			if got := r.TouchesFilters(tt.files); got != tt.want {
				t.Errorf("TouchesFilters(%v) = %v, expected %v", tt.files, got, tt.want)
			}
		})
	}
}

func TestNameFromRemoteURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/user/repo.git", "repo"},
		{"https://github.com/user/repo", "repo"},
		{"git@github.com:user/repo.git", "repo"},
		{"ssh://git@host/team/project", "project"},
	}
	for _, tt := range tests {
		if got := nameFromRemoteURL(tt.url); got != tt.want {
			t.Errorf("nameFromRemoteURL(%q) = %q, expected %q", tt.url, got, tt.want)
		}
	}
}

func TestRepoName_FallsBackToDirectory(t *testing.T) {
	dir, repo := createTestRepo(t)
	addCommit(t, repo, "only", map[string]string{"a.go": "package a\n"}, time.Now())

	reader, err := NewHistoryReader(ReadOptions{RepoPath: dir})
	if err != nil {
		t.Fatalf("NewHistoryReader: %v", err)
	}
	if name := reader.RepoName(); name == "" {
		t.Error("RepoName must not be empty")
	}
}

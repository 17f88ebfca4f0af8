package git

import "context"

// RepositoryReader defines the interface for enumerating commits and
// retrieving their diffs. This abstraction allows for easier testing and
// potential alternative implementations.
type RepositoryReader interface {
	// ListCommits enumerates the commits to analyze, in git's order.
	ListCommits(ctx context.Context) ([]CommitRecord, error)
	// Diff returns the unified diff for a single commit.
	Diff(ctx context.Context, hash string) (CommitDiff, error)
	// TouchesFilters reports whether a commit's changed paths pass the
	// configured path filters.
	TouchesFilters(files []string) bool
}

// Compile-time interface conformance check.
var _ RepositoryReader = (*HistoryReader)(nil)

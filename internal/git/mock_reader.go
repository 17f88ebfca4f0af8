package git

import "context"

// MockHistoryReader is a test double for HistoryReader. It allows tests to
// provide predefined commit data without needing a real Git repository.
type MockHistoryReader struct {
	Commits       []CommitRecord
	Diffs         map[string]CommitDiff
	DiffErrors    map[string]error
	ListError     error
	RejectFilters bool
}

// NewMockHistoryReader creates a new MockHistoryReader with the given data.
func NewMockHistoryReader(commits []CommitRecord, diffs map[string]CommitDiff) *MockHistoryReader {
	return &MockHistoryReader{Commits: commits, Diffs: diffs}
}

// ListCommits returns the predefined commits or error.
func (m *MockHistoryReader) ListCommits(_ context.Context) ([]CommitRecord, error) {
	return m.Commits, m.ListError
}

// Diff returns the predefined diff or error for a hash.
func (m *MockHistoryReader) Diff(_ context.Context, hash string) (CommitDiff, error) {
	if err, ok := m.DiffErrors[hash]; ok {
		return CommitDiff{}, err
	}
	return m.Diffs[hash], nil
}

// TouchesFilters passes unless the mock is configured to reject everything.
func (m *MockHistoryReader) TouchesFilters([]string) bool { return !m.RejectFilters }

// Compile-time interface conformance check.
var _ RepositoryReader = (*MockHistoryReader)(nil)

package git

import "time"

// gitDateLayout matches git's default log date output.
const gitDateLayout = "Mon Jan 2 15:04:05 2006 -0700"

// CommitRecord represents the metadata of a single commit, independent of
// its diff content. Immutable once read.
type CommitRecord struct {
	Hash    string
	Author  string // "Name <email>"
	Date    string // as emitted by git, not reparsed downstream
	Message string // subject plus body, if any
}

// Subject returns the first line of the commit message.
func (c CommitRecord) Subject() string {
	for i := 0; i < len(c.Message); i++ {
		if c.Message[i] == '\n' {
			return c.Message[:i]
		}
	}
	return c.Message
}

// ShortHash returns the abbreviated commit hash for display.
func (c CommitRecord) ShortHash() string {
	if len(c.Hash) > 8 {
		return c.Hash[:8]
	}
	return c.Hash
}

// CommitDiff is the unified diff of one commit against its first parent,
// together with the paths it touches.
type CommitDiff struct {
	Text  string
	Files []string
}

// Empty reports whether the diff carries no textual changes. An empty diff
// is a valid state (e.g. an empty commit) that callers must not send to the
// model.
func (d CommitDiff) Empty() bool {
	return len(d.Text) == 0
}

// ReadOptions configures the history reader.
type ReadOptions struct {
	RepoPath string
	Since    *time.Time
	Until    *time.Time
	Include  []string // Glob patterns to include
	Exclude  []string // Glob patterns to exclude
}

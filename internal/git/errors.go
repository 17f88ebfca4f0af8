package git

import "fmt"

// RepositoryError indicates the given path is not a usable Git repository.
// It is fatal: nothing can be analyzed without a repository.
type RepositoryError struct {
	Path string
	Err  error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("not a valid git repository: %s: %v", e.Path, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// CommitLookupError indicates that metadata or diff retrieval failed for a
// single commit. It is recoverable: the commit is recorded with an error
// verdict and the run continues.
type CommitLookupError struct {
	Hash string
	Err  error
}

func (e *CommitLookupError) Error() string {
	return fmt.Sprintf("commit %s: %v", e.Hash, e.Err)
}

func (e *CommitLookupError) Unwrap() error { return e.Err }

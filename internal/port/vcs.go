package port

import "context"

// VCSProvider abstracts version control operations needed for project
// acquisition.
type VCSProvider interface {
	// Clone performs a shallow clone of url into dest.
	Clone(ctx context.Context, url string, dest string) error
}

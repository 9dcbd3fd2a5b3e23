package core

import (
	"context"
	"io"
)

// FileStorage stores uploaded files and returns the path they can be found at.
type FileStorage interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	SaveText(ctx context.Context, prefix, text string) (string, error)
	// Delete removes a file previously returned by Save or SaveText. A missing file is not an error.
	Delete(ctx context.Context, path string) error
}

package storagesvc

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Iamayomi/academic-management-platform/core"
)

// DiskStorage writes files under a local directory, named by a random UUID to avoid collisions.
type DiskStorage struct {
	dir string
}

var _ core.FileStorage = (*DiskStorage)(nil)

func NewDiskStorage(dir string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating upload dir")
	}
	return &DiskStorage{dir: dir}, nil
}

// Save stores r and returns its path; the extension of filename is kept.
func (s *DiskStorage) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	return s.write(ctx, uuid.New().String()+ext, r)
}

// SaveText stores text as `<prefix>_<uuid>.txt`.
func (s *DiskStorage) SaveText(ctx context.Context, prefix, text string) (string, error) {
	return s.write(ctx, prefix+"_"+uuid.New().String()+".txt", strings.NewReader(text))
}

// Delete only removes files inside the storage directory.
func (s *DiskStorage) Delete(_ context.Context, fp string) error {
	rel, err := filepath.Rel(s.dir, filepath.FromSlash(fp))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.Errorf("%s is not a stored file", fp)
	}
	if err = os.Remove(filepath.Join(s.dir, rel)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing file")
	}
	return nil
}

func (s *DiskStorage) write(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fp := filepath.Join(s.dir, name)
	f, err := os.OpenFile(fp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(fp)
		return "", errors.Wrap(err, "writing file")
	}
	if err = f.Close(); err != nil {
		return "", errors.Wrap(err, "closing file")
	}
	return filepath.ToSlash(fp), nil
}

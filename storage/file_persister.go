package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FilePersister persists artifact data fetched from the peer. It hides
// where and how the bytes end up.
type FilePersister interface {
	Persist(ctx context.Context, path string, data io.Reader) error
}

// LocalFilePersister writes artifacts to the local disk.
type LocalFilePersister struct{}

// Persist writes data to path, creating missing parent directories and
// truncating any existing file.
func (l *LocalFilePersister) Persist(_ context.Context, path string, data io.Reader) (err error) {
	cp := filepath.Clean(path)

	if err = os.MkdirAll(filepath.Dir(cp), 0o755); err != nil {
		return fmt.Errorf("creating a local directory for %q: %w", cp, err)
	}

	f, err := os.OpenFile(cp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating a local file %q: %w", cp, err)
	}
	defer func() {
		cerr := f.Close()
		if cerr != nil && err == nil {
			err = fmt.Errorf("closing the local file %q: %w", cp, cerr)
		}
	}()

	_, err = io.Copy(f, data)

	return
}

// Package storage writes rendered audio to the output folder and
// optionally mirrors it to an S3-compatible object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxCollisions bounds the sequence suffixes tried for one file name.
const maxCollisions = 10000

// Sink persists audio under a file name and returns where it landed.
// Implementations must be safe for concurrent use.
type Sink interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// Local implements Sink on the local filesystem. A name that already
// exists is never overwritten; a numeric suffix is added instead.
type Local struct {
	root string
}

// NewLocal creates a Local sink writing under dir.
func NewLocal(dir string) *Local {
	return &Local{root: dir}
}

// Root returns the output directory.
func (l *Local) Root() string {
	return l.root
}

// Save writes data to a new file named after name and returns its path.
func (l *Local) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return "", fmt.Errorf("storage: create %s: %w", l.root, err)
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for n := 0; n < maxCollisions; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s_%d%s", stem, n, ext)
		}
		path := filepath.Join(l.root, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("storage: create %s: %w", path, err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("storage: write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("storage: write %s: %w", path, err)
		}
		return path, nil
	}
	return "", fmt.Errorf("storage: no free name for %s in %s", name, l.root)
}

var _ Sink = (*Local)(nil)

package persist

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hack-pad/hackpadfs"
)

// FileKV stores each key as one file in an FS directory. It backs the
// plain-directory storage mode; tests run it over an in-memory FS.
type FileKV struct {
	fs hackpadfs.FS
}

// NewFileKV wraps a filesystem rooted at the data directory.
func NewFileKV(fs hackpadfs.FS) *FileKV {
	return &FileKV{fs: fs}
}

// Get reads a key's file. A missing file means the key was never set.
func (f *FileKV) Get(key string) (string, bool, error) {
	content, err := hackpadfs.ReadFile(f.fs, fileName(key))
	if err != nil {
		if errors.Is(err, hackpadfs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("persist: read %q: %w", key, err)
	}
	return string(content), true, nil
}

// Set writes a key's file in full.
func (f *FileKV) Set(key, value string) error {
	if err := hackpadfs.WriteFullFile(f.fs, fileName(key), []byte(value), 0644); err != nil {
		return fmt.Errorf("persist: write %q: %w", key, err)
	}
	return nil
}

// fileName maps a key to a flat file name inside the data directory.
func fileName(key string) string {
	return strings.ReplaceAll(key, "/", "_") + ".json"
}

var _ KV = (*FileKV)(nil)

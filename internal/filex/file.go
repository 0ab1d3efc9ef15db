// Package filex provides small filesystem helpers used by file-backed links.
package filex

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/linkstash/internal/common"
)

// ReadCapped reads a local file and returns its base name and contents.
// Files larger than maxBytes are rejected with common.ErrFileTooLarge
// before any data is read.
func ReadCapped(path string, maxBytes int64) (string, []byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > maxBytes {
		return "", nil, fmt.Errorf("%s (%d bytes): %w", path, info.Size(), common.ErrFileTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", path, err)
	}
	return filepath.Base(path), data, nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dotcommander/carousel/internal/core"
)

// ErrInvalidPath is returned for paths that are absolute or would leave the
// base directory.
var ErrInvalidPath = errors.New("invalid path")

var _ core.Storage = (*FileSystem)(nil)

// FileSystem stores run artifacts, exports and assets under one base
// directory. Paths are slash-separated and relative to it.
type FileSystem struct {
	baseDir string
}

func NewFileSystem(baseDir string) *FileSystem {
	return &FileSystem{
		baseDir: filepath.Clean(baseDir),
	}
}

func (fs *FileSystem) BaseDir() string {
	return fs.baseDir
}

func (fs *FileSystem) within(full string) bool {
	return full == fs.baseDir || strings.HasPrefix(full, fs.baseDir+string(filepath.Separator))
}

func checkRelative(p string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(p))
	switch {
	case strings.Contains(cleaned, ".."):
		return "", fmt.Errorf("%w: %q contains a parent directory reference", ErrInvalidPath, p)
	case filepath.IsAbs(cleaned):
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidPath, p)
	}
	return cleaned, nil
}

// sanitizePath resolves p against the base directory.
func (fs *FileSystem) sanitizePath(p string) (string, error) {
	cleaned, err := checkRelative(p)
	if err != nil {
		return "", err
	}
	full := filepath.Join(fs.baseDir, cleaned)
	if !fs.within(full) {
		return "", fmt.Errorf("%w: %q is outside the base directory", ErrInvalidPath, p)
	}
	return full, nil
}

// Save writes data atomically: a temp file in the target directory is
// renamed over the destination, so a poller never reads half a record.
func (fs *FileSystem) Save(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := fs.sanitizePath(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Load returns the stored bytes. A missing file wraps os.ErrNotExist.
func (fs *FileSystem) Load(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := fs.sanitizePath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// List returns base-relative slash paths matching a glob pattern, sorted.
func (fs *FileSystem) List(ctx context.Context, pattern string) ([]string, error) {
	cleaned, err := checkRelative(pattern)
	if err != nil {
		return nil, err
	}

	matches, err := filepath.Glob(filepath.Join(fs.baseDir, cleaned))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", pattern, err)
	}

	var results []string
	for _, match := range matches {
		if !fs.within(match) || strings.HasPrefix(filepath.Base(match), ".tmp-") {
			continue
		}
		rel, err := filepath.Rel(fs.baseDir, match)
		if err != nil {
			continue
		}
		results = append(results, filepath.ToSlash(rel))
	}
	sort.Strings(results)
	return results, nil
}

func (fs *FileSystem) Exists(ctx context.Context, path string) bool {
	fullPath, err := fs.sanitizePath(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(fullPath)
	return err == nil
}

func (fs *FileSystem) Delete(ctx context.Context, path string) error {
	fullPath, err := fs.sanitizePath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("deleting %s: %w", path, err)
	}
	return nil
}

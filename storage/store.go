// Package storage provides file access for model inputs and CityGML outputs.
// Locations are afs URLs; plain filesystem paths are accepted as-is.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// Store reads and writes conversion files.
type Store struct {
	fs afs.Service
}

// NewStore creates a Store. A nil service falls back to afs.New().
func NewStore(fs afs.Service) *Store {
	if fs == nil {
		fs = afs.New()
	}
	return &Store{fs: fs}
}

// Join joins a base location with path elements.
func Join(base string, elements ...string) string {
	return url.Join(base, elements...)
}

// Stem returns the base name of location without its extension.
func Stem(location string) string {
	name := path.Base(strings.ReplaceAll(location, "\\", "/"))
	if ext := path.Ext(name); ext != "" {
		return strings.TrimSuffix(name, ext)
	}
	return name
}

// Exists reports whether location exists.
func (s *Store) Exists(ctx context.Context, location string) (bool, error) {
	ok, err := s.fs.Exists(ctx, location)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", location, err)
	}
	return ok, nil
}

// IsDir reports whether location exists and is a directory.
func (s *Store) IsDir(ctx context.Context, location string) (bool, error) {
	ok, err := s.Exists(ctx, location)
	if err != nil || !ok {
		return false, err
	}
	object, err := s.fs.Object(ctx, location)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", location, err)
	}
	return object.IsDir(), nil
}

// List returns the locations of regular files directly under dir whose base
// name matches pattern (doublestar syntax, matched case-insensitively).
// Results are sorted by name.
func (s *Store) List(ctx context.Context, dir, pattern string) ([]string, error) {
	isDir, err := s.IsDir(ctx, dir)
	if err != nil {
		return nil, err
	}
	if !isDir {
		exists, _ := s.Exists(ctx, dir)
		if exists {
			return nil, fmt.Errorf("%s: %w", dir, ErrNotDirectory)
		}
		return nil, fmt.Errorf("%s: %w", dir, ErrNotFound)
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid file pattern %q", pattern)
	}

	objects, err := s.fs.List(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	lowered := strings.ToLower(pattern)
	var names []string
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		ok, err := doublestar.Match(lowered, strings.ToLower(object.Name()))
		if err != nil {
			return nil, fmt.Errorf("match %q: %w", pattern, err)
		}
		if ok {
			names = append(names, object.Name())
		}
	}
	sort.Strings(names)

	locations := make([]string, 0, len(names))
	for _, name := range names {
		locations = append(locations, Join(dir, name))
	}
	return locations, nil
}

// Read returns the contents of location.
func (s *Store) Read(ctx context.Context, location string) ([]byte, error) {
	ok, err := s.Exists(ctx, location)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", location, ErrNotFound)
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return data, nil
}

// Write replaces the contents of location with data.
func (s *Store) Write(ctx context.Context, location string, data []byte) error {
	if err := s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", location, err)
	}
	return nil
}

// EnsureDir creates dir if it does not exist. Calling it on an existing
// directory is a no-op.
func (s *Store) EnsureDir(ctx context.Context, dir string) error {
	isDir, err := s.IsDir(ctx, dir)
	if err != nil {
		return err
	}
	if isDir {
		return nil
	}
	if err := s.fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

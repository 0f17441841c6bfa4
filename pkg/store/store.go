// Package store persists modeled baselines in a directory-per-version layout:
//
//	<root>/<major>.<minor>.<patch>/<name>___<project>.json
//
// Each file holds one serialized models.Baseline.
package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/panbanda/perfwatch/internal/fsutil"
	"github.com/panbanda/perfwatch/pkg/models"
	"github.com/spf13/afero"
)

// NoBaselineDataError is returned when a baseline root holds no version
// directories, or the selected version directory holds no baselines.
type NoBaselineDataError struct {
	Dir string
}

func (e *NoBaselineDataError) Error() string {
	return fmt.Sprintf("NoVersionedBaselineData: There was no versioned data in the following directory: %s\n expected structure like <baseline-dir>/<sem-ver-dir>/metric.json", e.Dir)
}

// Store reads and writes baselines under a root directory.
type Store struct {
	fs     afero.Fs
	root   string
	pretty bool
}

// Option configures a Store.
type Option func(*Store)

// WithFs sets the filesystem the store operates on. Defaults to the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(s *Store) {
		s.fs = fsys
	}
}

// WithPretty controls whether baselines are written indented.
func WithPretty(pretty bool) Option {
	return func(s *Store) {
		s.pretty = pretty
	}
}

// New creates a store rooted at root.
func New(root string, opts ...Option) *Store {
	s := &Store{
		fs:     fsutil.OS(),
		root:   root,
		pretty: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the baseline root directory.
func (s *Store) Root() string {
	return s.root
}

// VersionDir returns the directory holding baselines for v.
func (s *Store) VersionDir(v models.Version) string {
	return filepath.Join(s.root, v.String())
}

// Versions lists every version directory under the root. A directory whose
// name is not a version means the layout is corrupt and fails the call.
func (s *Store) Versions(ctx context.Context) ([]models.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names, err := fsutil.Dirs(s.fs, s.root)
	if err != nil {
		return nil, err
	}

	versions := make([]models.Version, 0, len(names))
	for _, name := range names {
		v, err := models.ParseVersion(name)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// Latest returns the greatest version under the root.
func (s *Store) Latest(ctx context.Context) (models.Version, error) {
	versions, err := s.Versions(ctx)
	if err != nil {
		return models.Version{}, err
	}
	latest, ok := models.LatestVersion(versions)
	if !ok {
		return models.Version{}, &NoBaselineDataError{Dir: s.root}
	}
	return latest, nil
}

// Load reads every baseline stored for v, ordered by file name.
// A version directory without baselines is an error: missing history must
// never read as "no regression".
func (s *Store) Load(ctx context.Context, v models.Version) ([]models.Baseline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := s.VersionDir(v)
	decoded, err := fsutil.DecodeJSONFiles[models.Baseline](s.fs, dir)
	if err != nil {
		return nil, err
	}
	if len(decoded) == 0 {
		return nil, &NoBaselineDataError{Dir: dir}
	}

	baselines := make([]models.Baseline, len(decoded))
	for i, d := range decoded {
		baselines[i] = d.Value
	}
	return baselines, nil
}

// LoadLatest resolves the latest version and loads its baselines.
func (s *Store) LoadLatest(ctx context.Context) (models.Version, []models.Baseline, error) {
	latest, err := s.Latest(ctx)
	if err != nil {
		return models.Version{}, nil, err
	}
	baselines, err := s.Load(ctx, latest)
	if err != nil {
		return models.Version{}, nil, err
	}
	return latest, baselines, nil
}

// Write persists one baseline, creating its version directory if needed.
// An existing file for the same metric is replaced.
func (s *Store) Write(ctx context.Context, b models.Baseline) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := s.VersionDir(b.Version)
	if err := fsutil.EnsureDir(s.fs, dir); err != nil {
		return "", err
	}

	path := filepath.Join(dir, b.Metric.Filename())
	if err := fsutil.WriteJSON(s.fs, path, b, s.pretty); err != nil {
		return "", err
	}
	return path, nil
}

// WriteAll persists baselines in order and stops at the first failure.
// Writes are not transactional; a failure leaves earlier files in place.
func (s *Store) WriteAll(ctx context.Context, baselines []models.Baseline) error {
	for _, b := range baselines {
		if _, err := s.Write(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

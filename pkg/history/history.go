// Package history keeps a record of every regression check so trends can be
// reviewed across runs.
package history

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/panbanda/perfwatch/internal/fsutil"
	"github.com/panbanda/perfwatch/pkg/models"
	"github.com/spf13/afero"
)

// TimestampLayout names record files; it sorts lexically in time order.
const TimestampLayout = "20060102T150405Z"

// Record is the outcome of one regression check.
type Record struct {
	Timestamp    time.Time           `json:"ts"`
	Commit       string              `json:"commit,omitempty"`
	Dirty        bool                `json:"dirty,omitempty"` // uncommitted changes at Commit
	Version      models.Version      `json:"version"`
	Fingerprint  string              `json:"fingerprint"`
	Calculations models.Calculations `json:"calculations"`
}

// Store reads and writes records in a single directory, one file per run.
type Store struct {
	fs  afero.Fs
	dir string
}

// Option configures a Store.
type Option func(*Store)

// WithFs sets the filesystem. Defaults to the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(s *Store) {
		s.fs = fsys
	}
}

// New creates a history store in dir.
func New(dir string, opts ...Option) *Store {
	s := &Store{fs: fsutil.OS(), dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the history directory.
func (s *Store) Dir() string {
	return s.dir
}

// Append writes rec to its own file, creating the directory if needed, and
// returns the file path. Records from the same second get a numeric suffix.
func (s *Store) Append(ctx context.Context, rec Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := fsutil.EnsureDir(s.fs, s.dir); err != nil {
		return "", err
	}

	stem := rec.Timestamp.UTC().Format(TimestampLayout)
	path := filepath.Join(s.dir, stem+".json")
	for i := 1; ; i++ {
		exists, err := afero.Exists(s.fs, path)
		if err != nil {
			return "", &fsutil.IOError{Kind: fsutil.ReadErr, Path: path, Err: err}
		}
		if !exists {
			break
		}
		path = filepath.Join(s.dir, fmt.Sprintf("%s-%d.json", stem, i))
	}

	if err := fsutil.WriteJSON(s.fs, path, rec, true); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads every record, oldest first. A missing directory holds no records.
func (s *Store) Load(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	exists, err := afero.DirExists(s.fs, s.dir)
	if err != nil {
		return nil, &fsutil.IOError{Kind: fsutil.ReadErr, Path: s.dir, Err: err}
	}
	if !exists {
		return nil, nil
	}

	decoded, err := fsutil.DecodeJSONFiles[Record](s.fs, s.dir)
	if err != nil {
		return nil, err
	}

	records := make([]Record, len(decoded))
	for i, d := range decoded {
		records[i] = d.Value
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records, nil
}

package store

import (
	"context"
	"encoding/hex"
	"path/filepath"

	"github.com/panbanda/perfwatch/internal/fsutil"
	"github.com/panbanda/perfwatch/pkg/models"
	"github.com/zeebo/blake3"
)

// Fingerprint returns a BLAKE3 digest of the baseline set stored for v.
// It covers every *.json file name and its bytes, in name order, so two
// roots holding the same set produce the same digest.
func (s *Store) Fingerprint(ctx context.Context, v models.Version) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	files, err := fsutil.Files(s.fs, s.VersionDir(v), ".json")
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", &NoBaselineDataError{Dir: s.VersionDir(v)}
	}

	h := blake3.New()
	for _, f := range files {
		// NUL cannot appear in a file name, so it separates name from content.
		h.Write([]byte(filepath.Base(f.Path)))
		h.Write([]byte{0})
		h.Write(f.Content)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ShortFingerprint truncates a fingerprint for display.
func ShortFingerprint(fp string) string {
	if len(fp) <= 12 {
		return fp
	}
	return fp[:12]
}

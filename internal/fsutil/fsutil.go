// Package fsutil provides the filesystem plumbing shared by the baseline
// store, the benchmark pipelines and the history store.
package fsutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"
	"unicode/utf8"

	"github.com/sourcegraph/conc/iter"
	"github.com/spf13/afero"
)

// File is the path and raw content of one file read from a directory.
type File struct {
	Path    string
	Content []byte
}

// Decoded pairs a file path with the value decoded from it.
type Decoded[T any] struct {
	Path  string
	Value T
}

// Files reads every regular file in dir whose extension is ext (e.g. ".json").
// Files are returned in lexical order of name.
func Files(fsys afero.Fs, dir, ext string) ([]File, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, &IOError{Kind: ReadErr, Path: dir, Err: err}
	}

	var files []File
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ext {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		content, err := afero.ReadFile(fsys, path)
		if err != nil {
			return nil, &IOError{Kind: BadFileContents, Path: path, Err: err}
		}
		files = append(files, File{Path: path, Content: content})
	}
	return files, nil
}

// DecodeJSONFiles reads every *.json file in dir and decodes each into T.
// Decoding runs concurrently; results keep file order and the error
// returned is the one for the first failing file.
func DecodeJSONFiles[T any](fsys afero.Fs, dir string) ([]Decoded[T], error) {
	files, err := Files(fsys, dir, ".json")
	if err != nil {
		return nil, err
	}
	return DecodeAll[T](files)
}

// DecodeAll decodes already-read files into T.
func DecodeAll[T any](files []File) ([]Decoded[T], error) {
	type result struct {
		decoded Decoded[T]
		err     error
	}

	results := iter.Map(files, func(f *File) result {
		var v T
		if err := json.Unmarshal(f.Content, &v); err != nil {
			return result{err: &JSONError{Path: f.Path, Raw: string(f.Content), Err: err}}
		}
		return result{decoded: Decoded[T]{Path: f.Path, Value: v}}
	})

	out := make([]Decoded[T], 0, len(results))
	for _, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		out = append(out, r.decoded)
	}
	return out, nil
}

// Dirs returns the names of the immediate subdirectories of dir, in lexical order.
func Dirs(fsys afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, &IOError{Kind: ReadErr, Path: dir, Err: err}
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := checkName(filepath.Join(dir, entry.Name())); err != nil {
			return nil, err
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// checkName rejects paths without a usable final element.
func checkName(path string) error {
	name := filepath.Base(path)
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return &IOError{Kind: MissingFilename, Path: path}
	}
	if !utf8.ValidString(name) {
		return &IOError{Kind: FilenameNotUnicode, Path: path}
	}
	return nil
}

// ResetDir deletes dir and everything in it, then recreates it along with
// any missing parents. A missing dir is not an error.
func ResetDir(fsys afero.Fs, dir string) error {
	if err := fsys.RemoveAll(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &IOError{Kind: CannotRecreateTempDir, Path: dir, Err: err}
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return &IOError{Kind: CannotRecreateTempDir, Path: dir, Err: err}
	}
	return nil
}

// EnsureDir creates dir if it does not exist. An existing dir is not an error.
func EnsureDir(fsys afero.Fs, dir string) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return &IOError{Kind: WriteErr, Path: dir, Err: err}
	}
	return nil
}

// Marshal encodes v as JSON, indented when pretty is set.
func Marshal(v any, pretty bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, &SerializationError{Err: err}
	}
	return data, nil
}

// WriteJSON encodes v and writes it to path, replacing any existing file.
func WriteJSON(fsys afero.Fs, path string, v any, pretty bool) error {
	data, err := Marshal(v, pretty)
	if err != nil {
		return err
	}
	if pretty && !bytes.HasSuffix(data, []byte("\n")) {
		data = append(data, '\n')
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return &IOError{Kind: WriteErr, Path: path, Err: err}
	}
	return nil
}

// OS returns the real filesystem.
func OS() afero.Fs {
	return afero.NewOsFs()
}

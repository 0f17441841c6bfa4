package bench

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/panbanda/perfwatch/internal/fsutil"
	"github.com/panbanda/perfwatch/pkg/models"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/afero"
)

// exportSchema describes the parts of a hyperfine export that perfwatch
// reads. Extra fields hyperfine adds (parameters, exit_codes, ...) are allowed.
const exportSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["results"],
  "properties": {
    "results": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["command", "mean", "stddev", "median", "user", "system", "min", "max", "times"],
        "properties": {
          "command": {"type": "string"},
          "mean":    {"type": "number"},
          "stddev":  {"type": ["number", "null"]},
          "median":  {"type": "number"},
          "user":    {"type": "number"},
          "system":  {"type": "number"},
          "min":     {"type": "number"},
          "max":     {"type": "number"},
          "times":   {"type": "array", "items": {"type": "number"}}
        }
      }
    }
  }
}`

const exportSchemaURL = "perfwatch://hyperfine-export.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(exportSchema))
		if err != nil {
			schemaErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(exportSchemaURL, doc); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(exportSchemaURL)
	})
	return schema, schemaErr
}

// DecodeExport validates and decodes one hyperfine export document.
// path is only used for error reporting.
func DecodeExport(path string, data []byte) (models.Measurements, error) {
	sch, err := compiledSchema()
	if err != nil {
		return models.Measurements{}, fmt.Errorf("compiling export schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return models.Measurements{}, &fsutil.JSONError{Path: path, Raw: string(data), Err: err}
	}
	if err := sch.Validate(inst); err != nil {
		return models.Measurements{}, &fsutil.JSONError{Path: path, Raw: string(data), Err: err}
	}

	var ms models.Measurements
	if err := json.Unmarshal(data, &ms); err != nil {
		return models.Measurements{}, &fsutil.JSONError{Path: path, Raw: string(data), Err: err}
	}
	return ms, nil
}

// Export is a decoded export and the file it was read from.
type Export = fsutil.Decoded[models.Measurements]

// ReadExports decodes every *.json export in dir, in file name order.
func ReadExports(fsys afero.Fs, dir string) ([]Export, error) {
	files, err := fsutil.Files(fsys, dir, ".json")
	if err != nil {
		return nil, err
	}

	exports := make([]Export, 0, len(files))
	for _, f := range files {
		ms, err := DecodeExport(f.Path, f.Content)
		if err != nil {
			return nil, err
		}
		exports = append(exports, Export{Path: f.Path, Value: ms})
	}
	return exports, nil
}

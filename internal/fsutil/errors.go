package fsutil

import (
	"fmt"
	"strings"
)

// IOErrorKind classifies filesystem and process failures.
type IOErrorKind string

const (
	ReadErr               IOErrorKind = "ReadErr"
	WriteErr              IOErrorKind = "WriteErr"
	MissingFilename       IOErrorKind = "MissingFilenameErr"
	FilenameNotUnicode    IOErrorKind = "FilenameNotUnicodeErr"
	BadFileContents       IOErrorKind = "BadFileContentsErr"
	CommandErr            IOErrorKind = "CommandErr"
	CannotRecreateTempDir IOErrorKind = "CannotRecreateTempDirErr"
	BadFilestem           IOErrorKind = "BadFilestemError"
	ReadIterErr           IOErrorKind = "ReadIterErr"
)

func (k IOErrorKind) String() string { return string(k) }

// IOError wraps a failed filesystem or process operation with the path it
// was operating on. Err may be nil when there is no underlying OS error.
type IOError struct {
	Kind IOErrorKind
	Path string
	Err  error
}

func (e *IOError) Error() string {
	var b strings.Builder
	switch e.Kind {
	case ReadErr:
		b.WriteString("ReadErr: The file cannot be read.")
	case WriteErr:
		b.WriteString("WriteErr: The file cannot be written to.")
	case MissingFilename:
		b.WriteString("MissingFilenameErr: The path provided does not specify a file.")
	case FilenameNotUnicode:
		b.WriteString("FilenameNotUnicodeErr: The filename is not expressible in unicode. Consider renaming the file.")
	case BadFileContents:
		b.WriteString("BadFileContentsErr: Check that the file exists and is readable.")
	case CommandErr:
		b.WriteString("CommandErr: System command failed to run.")
	case CannotRecreateTempDir:
		b.WriteString("CannotRecreateTempDirErr: attempted to delete and recreate temp dir.")
	case BadFilestem:
		b.WriteString("BadFilestemError: failed to read the filestem from path.")
	case ReadIterErr:
		b.WriteString("ReadIterErr: While traversing a directory, an error occurred.")
	default:
		b.WriteString(string(e.Kind))
	}
	if e.Path != "" {
		fmt.Fprintf(&b, "\nFilepath: %s", e.Path)
	}
	fmt.Fprintf(&b, "\nOriginating Exception: %s", describe(e.Err))
	return b.String()
}

func (e *IOError) Unwrap() error { return e.Err }

// JSONError is returned when a document cannot be decoded as expected.
// Raw holds the offending text.
type JSONError struct {
	Path string
	Raw  string
	Err  error
}

func (e *JSONError) Error() string {
	return fmt.Sprintf("BadJSONErr: JSON in file cannot be deserialized as expected.\nFilepath: %s\nRaw json: %s\nOriginating Exception: %s",
		e.Path, e.Raw, describe(e.Err))
}

func (e *JSONError) Unwrap() error { return e.Err }

// SerializationError is returned when a value cannot be encoded.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("SerializationErr: Object cannot be serialized as expected.\nOriginating Exception: %s", describe(e.Err))
}

func (e *SerializationError) Unwrap() error { return e.Err }

func describe(err error) string {
	if err == nil {
		return "None"
	}
	return err.Error()
}

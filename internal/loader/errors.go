package loader

import (
	"errors"
	"fmt"

	"github.com/phobologic/docwalker/internal/parse"
)

// ErrNotDirectory is returned when the walk root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// ErrorKind classifies a per-file failure.
type ErrorKind string

const (
	// KindIO covers unreadable, vanished and badly encoded files.
	KindIO ErrorKind = "io"
	// KindParse covers source text that is not valid Python.
	KindParse ErrorKind = "parse"
)

// FileError describes why a single file could not be processed.
type FileError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Path, e.Kind, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

func newFileError(path string, err error) *FileError {
	kind := KindIO
	var se *parse.SyntaxError
	if errors.As(err, &se) {
		kind = KindParse
	}
	return &FileError{Kind: kind, Path: path, Err: err}
}

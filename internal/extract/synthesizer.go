package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/phobologic/docwalker/internal/model"
	"github.com/phobologic/docwalker/internal/parse"
)

// ErrEncoding is returned when a source file is not valid UTF-8.
var ErrEncoding = errors.New("source is not valid UTF-8")

// Synthesizer reads, parses and renders single files. It owns a parser and
// is therefore not safe for concurrent use.
type Synthesizer struct {
	Marker string
	// ReadFile defaults to os.ReadFile. Tests may replace it.
	ReadFile func(path string) ([]byte, error)

	parser *parse.Parser
}

// NewSynthesizer returns a Synthesizer for marker. An empty marker selects
// DefaultMarker.
func NewSynthesizer(marker string) *Synthesizer {
	if marker == "" {
		marker = DefaultMarker
	}
	return &Synthesizer{
		Marker:   marker,
		ReadFile: os.ReadFile,
		parser:   parse.New(),
	}
}

// ModuleName derives the module name from a file name by removing every
// ".py" occurrence.
func ModuleName(fileName string) string {
	return strings.ReplaceAll(filepath.Base(fileName), ".py", "")
}

// ParseModule reads and parses the file at path and synthesizes its document.
// ok is false, with a nil error, when the file holds no marked function.
// Read and parse failures are returned unchanged in kind; a *parse.SyntaxError
// signals malformed source.
func (s *Synthesizer) ParseModule(ctx context.Context, moduleName, path string) (doc model.Document, ok bool, err error) {
	source, err := s.ReadFile(path)
	if err != nil {
		return model.Document{}, false, err
	}
	if !utf8.Valid(source) {
		return model.Document{}, false, fmt.Errorf("reading %s: %w", path, ErrEncoding)
	}

	mod, err := s.parser.Parse(ctx, path, source)
	if err != nil {
		return model.Document{}, false, err
	}

	doc, ok = Synthesize(mod, moduleName, filepath.Base(path), s.Marker)
	return doc, ok, nil
}

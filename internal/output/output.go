// Package output writes extracted documents in the supported formats.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/phobologic/docwalker/internal/model"
	"github.com/phobologic/docwalker/internal/toon"
)

// Write encodes docs in format and writes them to w. root names the walked
// directory in formats that carry a title.
func Write(w io.Writer, format, root string, docs []model.Document) error {
	switch format {
	case "text", "":
		return writeText(w, docs)
	case "json":
		return writeJSON(w, docs)
	case "toon":
		_, err := fmt.Fprintln(w, toon.Encode(root, docs))
		return err
	case "markdown":
		_, err := io.WriteString(w, Markdown(root, docs))
		return err
	case "html":
		return writeHTML(w, root, docs)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func writeText(w io.Writer, docs []model.Document) error {
	for i, d := range docs {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "--- %s\n%s\n", label(d), d.Text); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, docs []model.Document) error {
	if docs == nil {
		docs = []model.Document{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}

// Markdown renders one section per document with its text in a fenced block.
func Markdown(root string, docs []model.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", root)
	for _, d := range docs {
		f := fence(d.Text)
		fmt.Fprintf(&b, "\n## %s\n\n%stext\n%s\n%s\n", label(d), f, d.Text, f)
	}
	return b.String()
}

func writeHTML(w io.Writer, root string, docs []model.Document) error {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(root, docs)), &buf); err != nil {
		return fmt.Errorf("rendering html: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// fence returns a backtick fence longer than any backtick run in text.
func fence(text string) string {
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return strings.Repeat("`", max(3, longest+1))
}

func label(d model.Document) string {
	if d.Path != "" {
		return d.Path
	}
	return d.Metadata.FileName
}

// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/docwalker/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts the documents of one walk into TOON format. Documents keep
// their order; multi-line text is quoted with escaped newlines.
func Encode(root string, docs []model.Document) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(root)))

	rows := make([][]string, 0, len(docs))
	for i := range docs {
		d := &docs[i]
		rows = append(rows, []string{d.Path, d.Metadata.FileName, d.Text})
	}
	parts = append(parts, formatTabular("documents", []string{"path", "file_name", "text"}, rows))

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	switch {
	case value == "":
		return `""`
	case value != strings.TrimSpace(value), strings.ContainsAny(value, "\n\r\t"):
		return quote(value)
	}
	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}
	if looksNumeric.MatchString(value) {
		return value
	}
	if needsQuoting.MatchString(value) || strings.HasPrefix(value, "-") {
		return quote(value)
	}
	return value
}

var quoter = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func quote(value string) string {
	return `"` + quoter.Replace(value) + `"`
}

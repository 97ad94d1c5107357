// Package model defines core data structures for docwalker.
package model

// Kind indicates the syntactic variant of a declaration.
type Kind string

const (
	Module   Kind = "module"
	Class    Kind = "class"
	Function Kind = "function"
	// AsyncFunction is kept distinct from Function: only plain defs take
	// part in marker detection and rendering.
	AsyncFunction Kind = "async_function"
	// Other covers every body statement that is not a declaration.
	Other Kind = "other"
)

// Decorator is one entry of a declaration's decorator list.
type Decorator struct {
	// Expr is the decorator expression source text, without the leading "@".
	Expr string
	// Call is true when the expression is a call, e.g. name(...).
	Call bool
	// Callee is the bare identifier being called. Empty when the callee is
	// an attribute access, a subscript or any other non-name expression,
	// or when the decorator is not a call.
	Callee string
}

// Declaration is a node of the declaration tree built from one source file.
type Declaration struct {
	Kind       Kind
	Name       string // empty for Module and Other
	Decorators []Decorator
	Docstring  string // empty when absent
	Body       []*Declaration
	Line       int
}

// SourceModule is the parsed form of a single source file. It is built per
// file and discarded once the file has been rendered.
type SourceModule struct {
	Path string
	Declaration
}

// Metadata is attached to every emitted Document.
type Metadata struct {
	FileName string `json:"file_name"`
}

// Document is the textual summary produced for one qualifying source file.
type Document struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
	// Path is the discovery path of the source file, relative to the walk root.
	Path string `json:"path,omitempty"`
}

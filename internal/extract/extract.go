// Package extract selects marked declarations from a parsed module and
// renders the docstring summary document for it.
package extract

import (
	"fmt"
	"strings"

	"github.com/phobologic/docwalker/internal/model"
)

// DefaultMarker is the decorator factory that marks a function for inclusion.
const DefaultMarker = "register_tool"

// HasMarker reports whether decl is decorated with a call to the bare name
// factory, e.g. @register_tool(). Only decl's own decorators are inspected.
func HasMarker(decl *model.Declaration, factory string) bool {
	for _, d := range decl.Decorators {
		if d.Call && d.Callee == factory {
			return true
		}
	}
	return false
}

// ContainsMarker reports whether any function in container's body, or in the
// body of a class nested at any depth, carries the marker. Function bodies are
// not searched, so a marked function defined inside another function does not
// count.
func ContainsMarker(container *model.Declaration, factory string) bool {
	for _, child := range container.Body {
		switch child.Kind {
		case model.Class:
			if ContainsMarker(child, factory) {
				return true
			}
		case model.Function:
			if HasMarker(child, factory) {
				return true
			}
		}
	}
	return false
}

// Renderer renders declaration fragments for a marker factory.
type Renderer struct {
	Marker string
}

// Render returns the text fragment for decl. Marked functions render as
// "\nFunction: name\ndocstring"; classes render the newline-joined non-empty
// fragments of their direct children; everything else renders empty.
// parent names the enclosing module or class; it is carried through nested
// classes but does not change the rendered text.
func (r Renderer) Render(decl *model.Declaration, parent string) string {
	switch decl.Kind {
	case model.Function:
		if !HasMarker(decl, r.Marker) {
			return ""
		}
		return fmt.Sprintf("\nFunction: %s\n%s", decl.Name, decl.Docstring)
	case model.Class:
		return r.join(decl.Body, decl.Name)
	default:
		return ""
	}
}

func (r Renderer) join(decls []*model.Declaration, parent string) string {
	var parts []string
	for _, d := range decls {
		if s := r.Render(d, parent); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// Synthesize builds the document for a parsed module. ok is false when the
// module holds no marked function reachable through classes, in which case
// no document is produced.
func Synthesize(mod *model.SourceModule, moduleName, fileName, marker string) (doc model.Document, ok bool) {
	if !ContainsMarker(&mod.Declaration, marker) {
		return model.Document{}, false
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Module: %s \n", moduleName)
	if mod.Docstring != "" {
		fmt.Fprintf(&b, "Docstring: %s \n", mod.Docstring)
	}

	var top []*model.Declaration
	for _, d := range mod.Body {
		if d.Kind == model.Function || d.Kind == model.Class {
			top = append(top, d)
		}
	}
	b.WriteString(Renderer{Marker: marker}.join(top, moduleName))

	return model.Document{
		Text:     b.String(),
		Metadata: model.Metadata{FileName: fileName},
	}, true
}

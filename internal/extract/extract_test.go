package extract

import (
	"strings"
	"testing"

	"github.com/phobologic/docwalker/internal/model"
)

func marked(name, doc string) *model.Declaration {
	return &model.Declaration{
		Kind:       model.Function,
		Name:       name,
		Docstring:  doc,
		Decorators: []model.Decorator{{Expr: "register_tool()", Call: true, Callee: "register_tool"}},
	}
}

func plain(name string) *model.Declaration {
	return &model.Declaration{Kind: model.Function, Name: name}
}

func class(name string, body ...*model.Declaration) *model.Declaration {
	return &model.Declaration{Kind: model.Class, Name: name, Body: body}
}

func module(body ...*model.Declaration) *model.Declaration {
	return &model.Declaration{Kind: model.Module, Body: body}
}

func TestHasMarker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		decorators []model.Decorator
		want       bool
	}{
		{"none", nil, false},
		{"call match", []model.Decorator{{Call: true, Callee: "register_tool"}}, true},
		{"bare name", []model.Decorator{{Expr: "register_tool"}}, false},
		{"attribute call", []model.Decorator{{Expr: "x.register_tool()", Call: true}}, false},
		{"other callee", []model.Decorator{{Call: true, Callee: "cache"}}, false},
		{"second of many", []model.Decorator{
			{Call: true, Callee: "cache"},
			{Call: true, Callee: "register_tool"},
		}, true},
		{"case differs", []model.Decorator{{Call: true, Callee: "Register_Tool"}}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			decl := &model.Declaration{Kind: model.Function, Name: "f", Decorators: tt.decorators}
			if got := HasMarker(decl, DefaultMarker); got != tt.want {
				t.Errorf("HasMarker = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContainsMarker(t *testing.T) {
	t.Parallel()

	nestedInFunction := plain("outer")
	nestedInFunction.Body = []*model.Declaration{marked("inner", "")}

	async := marked("a", "")
	async.Kind = model.AsyncFunction

	tests := []struct {
		name      string
		container *model.Declaration
		want      bool
	}{
		{"empty body", module(), false},
		{"one marked function", module(marked("f", "")), true},
		{"unmarked only", module(plain("f"), plain("g")), false},
		{"three classes deep", module(class("A", class("B", class("C", marked("m", ""))))), true},
		{"inside nested function", module(nestedInFunction), false},
		{"async function", module(async), false},
		{"class container", class("A", plain("x"), marked("y", "")), true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ContainsMarker(tt.container, DefaultMarker); got != tt.want {
				t.Errorf("ContainsMarker = %v, want %v", got, tt.want)
			}
			if again := ContainsMarker(tt.container, DefaultMarker); again != tt.want {
				t.Errorf("second ContainsMarker = %v, want %v", again, tt.want)
			}
		})
	}
}

func TestRenderFunction(t *testing.T) {
	t.Parallel()

	r := Renderer{Marker: DefaultMarker}

	if got := r.Render(plain("g"), "mod"); got != "" {
		t.Errorf("unmarked function rendered %q", got)
	}
	if got := r.Render(marked("f", "does f"), "mod"); got != "\nFunction: f\ndoes f" {
		t.Errorf("Render = %q", got)
	}
	if got := r.Render(marked("m", ""), "C"); got != "\nFunction: m\n" {
		t.Errorf("Render without docstring = %q", got)
	}

	fn := marked("outer", "")
	fn.Body = []*model.Declaration{marked("inner", "x")}
	if got := r.Render(fn, "mod"); strings.Contains(got, "inner") {
		t.Errorf("nested function rendered: %q", got)
	}
}

func TestRenderClass(t *testing.T) {
	t.Parallel()

	r := Renderer{Marker: DefaultMarker}

	c := class("C", marked("a", "A"), plain("b"), class("D", marked("c", "")), &model.Declaration{Kind: model.Other})
	// The class's own decorators do not matter.
	c.Decorators = []model.Decorator{{Call: true, Callee: DefaultMarker}}

	want := "\nFunction: a\nA\n\nFunction: c\n"
	if got := r.Render(c, "mod"); got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}

	var parts []string
	for _, child := range c.Body {
		if s := r.Render(child, c.Name); s != "" {
			parts = append(parts, s)
		}
	}
	if got := r.Render(c, "mod"); got != strings.Join(parts, "\n") {
		t.Errorf("class render %q is not the join of child renders", got)
	}

	if got := r.Render(class("E", plain("x")), "mod"); got != "" {
		t.Errorf("class without marked children rendered %q", got)
	}
}

func TestRenderOther(t *testing.T) {
	t.Parallel()

	r := Renderer{Marker: DefaultMarker}
	for _, kind := range []model.Kind{model.Other, model.Module, model.AsyncFunction} {
		d := marked("x", "doc")
		d.Kind = kind
		if got := r.Render(d, "mod"); got != "" {
			t.Errorf("Render(%s) = %q, want empty", kind, got)
		}
	}
}

func TestRenderCustomMarker(t *testing.T) {
	t.Parallel()

	d := &model.Declaration{
		Kind:       model.Function,
		Name:       "f",
		Decorators: []model.Decorator{{Call: true, Callee: "expose"}},
	}
	if got := (Renderer{Marker: "expose"}).Render(d, "mod"); got != "\nFunction: f\n" {
		t.Errorf("Render = %q", got)
	}
	if got := (Renderer{Marker: DefaultMarker}).Render(d, "mod"); got != "" {
		t.Errorf("Render with default marker = %q", got)
	}
}

func TestRenderIgnoresParent(t *testing.T) {
	t.Parallel()

	r := Renderer{Marker: DefaultMarker}
	c := class("Outer", marked("f", "does f"), class("Inner", marked("g", "does g")))
	want := r.Render(c, "mod")
	for _, parent := range []string{"", "other", "Outer"} {
		if got := r.Render(c, parent); got != want {
			t.Errorf("Render(c, %q) = %q, want %q", parent, got, want)
		}
	}
}

func TestSynthesize(t *testing.T) {
	t.Parallel()

	mod := &model.SourceModule{
		Declaration: model.Declaration{
			Kind:      model.Module,
			Docstring: "desc",
			Body:      []*model.Declaration{marked("f", "does f"), plain("g")},
		},
	}
	doc, ok := Synthesize(mod, "mod", "mod.py", DefaultMarker)
	if !ok {
		t.Fatal("expected a document")
	}
	if want := "Module: mod \nDocstring: desc \n\nFunction: f\ndoes f"; doc.Text != want {
		t.Errorf("text = %q, want %q", doc.Text, want)
	}
	if doc.Metadata.FileName != "mod.py" {
		t.Errorf("file_name = %q", doc.Metadata.FileName)
	}

	_, ok = Synthesize(&model.SourceModule{Declaration: *module(plain("g"))}, "mod", "mod.py", DefaultMarker)
	if ok {
		t.Error("module without markers produced a document")
	}
}

func TestModuleName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"mod.py", "mod"},
		{"pkg/tools.py", "tools"},
		{"my.pylib.py", "mylib"},
	}
	for _, tt := range tests {
		if got := ModuleName(tt.in); got != tt.want {
			t.Errorf("ModuleName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

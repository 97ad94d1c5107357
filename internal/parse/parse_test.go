package parse

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/phobologic/docwalker/internal/model"
)

func mustParse(t *testing.T, source string) *model.SourceModule {
	t.Helper()
	mod, err := New().Parse(context.Background(), "test.py", []byte(source))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return mod
}

func TestParseModuleDocstring(t *testing.T) {
	t.Parallel()

	mod := mustParse(t, "\"\"\"Module summary.\"\"\"\n\nimport os\n")
	if mod.Kind != model.Module {
		t.Errorf("kind = %q, want module", mod.Kind)
	}
	if mod.Docstring != "Module summary." {
		t.Errorf("docstring = %q", mod.Docstring)
	}
	if mod.Path != "test.py" {
		t.Errorf("path = %q", mod.Path)
	}
	if len(mod.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(mod.Body))
	}
	if mod.Body[1].Kind != model.Other {
		t.Errorf("import kind = %q, want other", mod.Body[1].Kind)
	}
}

func TestParseFunction(t *testing.T) {
	t.Parallel()

	source := `@register_tool()
def hello(name: str) -> None:
    """Say hello."""
    pass
`
	mod := mustParse(t, source)
	if len(mod.Body) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(mod.Body))
	}
	fn := mod.Body[0]
	if fn.Kind != model.Function {
		t.Errorf("kind = %q, want function", fn.Kind)
	}
	if fn.Name != "hello" {
		t.Errorf("name = %q, want hello", fn.Name)
	}
	if fn.Docstring != "Say hello." {
		t.Errorf("docstring = %q", fn.Docstring)
	}
	if fn.Line != 2 {
		t.Errorf("line = %d, want 2", fn.Line)
	}
	if len(fn.Decorators) != 1 {
		t.Fatalf("expected 1 decorator, got %d", len(fn.Decorators))
	}
	d := fn.Decorators[0]
	if !d.Call || d.Callee != "register_tool" || d.Expr != "register_tool()" {
		t.Errorf("decorator = %+v", d)
	}
}

func TestParseClassBody(t *testing.T) {
	t.Parallel()

	source := `class Outer(Base):
    """Outer doc."""

    # a comment
    class Inner:
        def m(self):
            def nested():
                pass

    @staticmethod
    def s():
        pass

    x = 1
`
	mod := mustParse(t, source)
	cls := mod.Body[0]
	if cls.Kind != model.Class || cls.Name != "Outer" {
		t.Fatalf("got %s %q, want class Outer", cls.Kind, cls.Name)
	}
	if cls.Docstring != "Outer doc." {
		t.Errorf("docstring = %q", cls.Docstring)
	}

	kinds := make([]model.Kind, len(cls.Body))
	for i, d := range cls.Body {
		kinds[i] = d.Kind
	}
	want := []model.Kind{model.Other, model.Class, model.Function, model.Other}
	if len(kinds) != len(want) {
		t.Fatalf("body kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("body[%d] = %q, want %q", i, kinds[i], want[i])
		}
	}

	inner := cls.Body[1]
	m := inner.Body[0]
	if m.Name != "m" || len(m.Body) != 1 || m.Body[0].Name != "nested" {
		t.Errorf("nested function not captured: %+v", m)
	}

	s := cls.Body[2]
	if len(s.Decorators) != 1 || s.Decorators[0].Call {
		t.Errorf("bare decorator misread: %+v", s.Decorators)
	}
}

func TestParseAsyncFunction(t *testing.T) {
	t.Parallel()

	mod := mustParse(t, "@register_tool()\nasync def f():\n    pass\n")
	if mod.Body[0].Kind != model.AsyncFunction {
		t.Errorf("kind = %q, want async_function", mod.Body[0].Kind)
	}
}

func TestParseNormalizesNewlines(t *testing.T) {
	t.Parallel()

	mod := mustParse(t, "\xEF\xBB\xBF\"\"\"line one\r\n    line two\"\"\"\r\n")
	if mod.Docstring != "line one\nline two" {
		t.Errorf("docstring = %q", mod.Docstring)
	}
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	mod := mustParse(t, "")
	if len(mod.Body) != 0 || mod.Docstring != "" {
		t.Errorf("expected empty module, got %+v", mod)
	}
}

func TestParseSyntaxError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
	}{
		{"unclosed paren", "def f(:\n    pass\n"},
		{"garbage", "x = = 1\n"},
		{"missing body", "class C\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New().Parse(context.Background(), "bad.py", []byte(tt.source))
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SyntaxError, got %v", err)
			}
			if se.Path != "bad.py" || se.Line < 1 {
				t.Errorf("unexpected error fields: %+v", se)
			}
		})
	}
}

func TestParseRejectsPython2AndBadEscapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		source  string
		line    int
		wantMsg string
	}{
		{"print statement", "@register_tool()\ndef f():\n    \"\"\"d\"\"\"\n    print \"hi\"\n", 4, "Missing parentheses in call to 'print'"},
		{"exec statement", "exec \"x=1\"\n", 1, "Missing parentheses in call to 'exec'"},
		{"nested print", "if True:\n    for i in x:\n        print i\n", 3, "Missing parentheses in call to 'print'"},
		{"truncated escape in docstring", "def f():\n    \"\"\"a \\x1 b\"\"\"\n", 2, "truncated or invalid escape"},
		{"truncated escape in concatenation", "x = 'ok' '\\u12'\n", 1, "truncated or invalid escape"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New().Parse(context.Background(), "old.py", []byte(tt.source))
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SyntaxError, got %v", err)
			}
			if se.Line != tt.line || !strings.Contains(se.Msg, tt.wantMsg) {
				t.Errorf("got %+v, want line %d with %q", se, tt.line, tt.wantMsg)
			}
		})
	}
}

func TestParseAcceptsPython3Calls(t *testing.T) {
	t.Parallel()

	src := "print(\"hi\")\nexec(\"x=1\")\ny = r'\\x' + b'\\u12'\n"
	if _, err := New().Parse(context.Background(), "ok.py", []byte(src)); err != nil {
		t.Fatalf("Parse: %v", err)
	}
}

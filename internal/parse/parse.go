// Package parse builds declaration trees from source files using tree-sitter.
package parse

import (
	"bytes"
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/docwalker/internal/lang"
	"github.com/phobologic/docwalker/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SyntaxError reports source text that is not valid in the language grammar.
type SyntaxError struct {
	Path   string
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Msg)
}

// Parser converts Python source into a model.SourceModule.
// A Parser is not safe for concurrent use; give each goroutine its own.
type Parser struct {
	lang   *lang.Language
	parser *sitter.Parser
}

// New creates a Parser for Python sources.
func New() *Parser {
	l := lang.Languages["python"]
	return &Parser{lang: l, parser: l.NewParser()}
}

// Parse parses source and returns its declaration tree. path is recorded on
// the module and in errors only. Malformed input yields a *SyntaxError.
func (p *Parser) Parse(ctx context.Context, path string, source []byte) (*model.SourceModule, error) {
	source = normalize(source)

	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(path, root)
	}
	if se := checkPython3(path, root, source); se != nil {
		return nil, se
	}

	b := builder{lang: p.lang, source: source}
	mod := &model.SourceModule{
		Path: path,
		Declaration: model.Declaration{
			Kind: model.Module,
			Body: b.body(root),
			Line: 1,
		},
	}
	mod.Docstring, _ = p.lang.Docstring(root, source)
	return mod, nil
}

// normalize drops a UTF-8 byte order mark and translates CRLF and CR line
// endings to LF, as the Python tokenizer does.
func normalize(source []byte) []byte {
	source = bytes.TrimPrefix(source, utf8BOM)
	if bytes.IndexByte(source, '\r') < 0 {
		return source
	}
	source = bytes.ReplaceAll(source, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(source, []byte("\r"), []byte("\n"))
}

// syntaxError locates the first ERROR or MISSING node in document order.
func syntaxError(path string, root *sitter.Node) *SyntaxError {
	node := firstError(root)
	if node == nil {
		node = root
	}
	msg := "invalid syntax"
	if node.IsMissing() {
		msg = fmt.Sprintf("missing %q", node.Type())
	}
	return newSyntaxError(path, node, msg)
}

func newSyntaxError(path string, node *sitter.Node, msg string) *SyntaxError {
	pt := node.StartPoint()
	return &SyntaxError{
		Path:   path,
		Line:   int(pt.Row) + 1,
		Column: int(pt.Column) + 1,
		Msg:    msg,
	}
}

// python2Statements are accepted by the grammar but are syntax errors in
// Python 3.
var python2Statements = map[string]string{
	"print_statement": "Missing parentheses in call to 'print'",
	"exec_statement":  "Missing parentheses in call to 'exec'",
}

// checkPython3 finds the first construct, in document order, that the
// grammar accepts but the Python 3 compiler rejects: Python 2 print/exec
// statements and string literals with truncated \x, \u or \U escapes.
func checkPython3(path string, node *sitter.Node, source []byte) *SyntaxError {
	if msg, ok := python2Statements[node.Type()]; ok {
		return newSyntaxError(path, node, msg)
	}
	if node.Type() == "string" {
		if err := lang.CheckEscapes(lang.NodeText(node, source)); err != nil {
			return newSyntaxError(path, node, err.Error())
		}
		return nil
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		if se := checkPython3(path, child, source); se != nil {
			return se
		}
	}
	return nil
}

func firstError(node *sitter.Node) *sitter.Node {
	if node.Type() == "ERROR" || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || !child.HasError() && !child.IsMissing() {
			continue
		}
		if found := firstError(child); found != nil {
			return found
		}
	}
	return nil
}

type builder struct {
	lang   *lang.Language
	source []byte
}

func (b *builder) body(block *sitter.Node) []*model.Declaration {
	stmts := lang.NamedChildren(block)
	decls := make([]*model.Declaration, 0, len(stmts))
	for _, stmt := range stmts {
		decls = append(decls, b.statement(stmt))
	}
	return decls
}

func (b *builder) statement(node *sitter.Node) *model.Declaration {
	switch node.Type() {
	case "function_definition", "class_definition":
		return b.definition(node, nil)
	case "decorated_definition":
		var decorators []model.Decorator
		for _, child := range lang.NamedChildren(node) {
			if child.Type() == "decorator" {
				decorators = append(decorators, b.lang.Decorator(child, b.source))
			}
		}
		if def := node.ChildByFieldName("definition"); def != nil {
			return b.definition(def, decorators)
		}
	}
	return &model.Declaration{
		Kind: model.Other,
		Line: int(node.StartPoint().Row) + 1,
	}
}

func (b *builder) definition(node *sitter.Node, decorators []model.Decorator) *model.Declaration {
	decl := &model.Declaration{
		Decorators: decorators,
		Line:       int(node.StartPoint().Row) + 1,
	}
	switch {
	case node.Type() == "class_definition":
		decl.Kind = model.Class
	case lang.IsAsync(node):
		decl.Kind = model.AsyncFunction
	default:
		decl.Kind = model.Function
	}
	if name := node.ChildByFieldName("name"); name != nil {
		decl.Name = lang.NodeText(name, b.source)
	}
	if block := node.ChildByFieldName("body"); block != nil {
		decl.Docstring, _ = b.lang.Docstring(block, b.source)
		decl.Body = b.body(block)
	}
	return decl
}

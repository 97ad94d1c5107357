package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/phobologic/docwalker/internal/model"
)

func init() {
	Languages["python"] = &Language{
		Name:       "python",
		Extensions: []string{".py"},
		InitFile:   "__init__.py",
		lang:       python.GetLanguage(),
		Docstring:  pythonDocstring,
		Decorator:  pythonDecorator,
	}
}

// pythonDocstring mirrors ast.get_docstring: the first statement of the body
// must be an expression statement holding a str literal (or an implicit
// concatenation of str literals). Bytes and f-strings never count.
func pythonDocstring(body *sitter.Node, source []byte) (string, bool) {
	stmts := NamedChildren(body)
	if len(stmts) == 0 || stmts[0].Type() != "expression_statement" {
		return "", false
	}
	exprs := NamedChildren(stmts[0])
	if len(exprs) != 1 {
		return "", false
	}

	var parts []*sitter.Node
	switch expr := exprs[0]; expr.Type() {
	case "string":
		parts = []*sitter.Node{expr}
	case "concatenated_string":
		parts = NamedChildren(expr)
	default:
		return "", false
	}

	var b strings.Builder
	for _, part := range parts {
		if part.Type() != "string" {
			return "", false
		}
		value, ok := DecodeStringLiteral(NodeText(part, source))
		if !ok {
			return "", false
		}
		b.WriteString(value)
	}
	return CleanDoc(b.String()), true
}

func pythonDecorator(node *sitter.Node, source []byte) model.Decorator {
	var d model.Decorator
	exprs := NamedChildren(node)
	if len(exprs) == 0 {
		return d
	}
	expr := exprs[0]
	d.Expr = CollapseWhitespace(NodeText(expr, source))

	expr = unwrapParens(expr)
	if expr == nil || expr.Type() != "call" {
		return d
	}
	d.Call = true

	fn := unwrapParens(expr.ChildByFieldName("function"))
	if fn != nil && fn.Type() == "identifier" {
		d.Callee = NodeText(fn, source)
	}
	return d
}

// unwrapParens strips redundant parentheses, which the Python grammar keeps
// as nodes but the Python AST does not.
func unwrapParens(node *sitter.Node) *sitter.Node {
	for node != nil && node.Type() == "parenthesized_expression" {
		inner := NamedChildren(node)
		if len(inner) != 1 {
			return node
		}
		node = inner[0]
	}
	return node
}

// IsAsync reports whether a function_definition node is an "async def".
func IsAsync(funcNode *sitter.Node) bool {
	return funcNode.ChildCount() > 0 && funcNode.Child(0).Type() == "async"
}

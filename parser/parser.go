package parser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

var (
	ErrNoTree = errors.New("no syntax tree produced")
	ErrSyntax = errors.New("syntax error")
)

// Parse converts preprocessed C declarations into Typedef and Decl nodes in
// source order. Parsing is delegated to tree-sitter. Any text it has to
// recover from fails the parse with ErrSyntax, since the declarations it
// covers would otherwise be lost.
func Parse(ctx context.Context, name string, src []byte) (*File, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(c.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("parsing %s: %w", name, ErrNoTree)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(name, root, src)
	}

	b := builder{src: src}
	f := &File{Name: name}
	b.topLevel(root, f)

	return f, nil
}

func syntaxError(name string, root *sitter.Node, src []byte) error {
	n := firstError(root)
	if n == nil {
		n = root
	}

	pos := n.StartPoint()
	what := "unexpected " + strconv.Quote(snippet(n.Content(src)))
	if n.IsMissing() {
		what = "missing " + strconv.Quote(n.Type())
	}

	return fmt.Errorf("%w: %s:%d:%d: %s", ErrSyntax, name, pos.Row+1, pos.Column+1, what)
}

// firstError returns the first ERROR or MISSING node in source order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if !child.HasError() && !child.IsMissing() {
			continue
		}
		if found := firstError(child); found != nil {
			return found
		}
	}
	return nil
}

func snippet(text string) string {
	const limit = 40

	text = strings.Join(strings.Fields(text), " ")
	if len(text) > limit {
		text = text[:limit] + "..."
	}
	return text
}

type builder struct {
	src []byte
}

func (b *builder) text(n *sitter.Node) string {
	return strings.Join(strings.Fields(n.Content(b.src)), " ")
}

func (b *builder) topLevel(n *sitter.Node, f *File) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "type_definition":
			f.Decls = append(f.Decls, b.typedefs(child)...)
		case "declaration":
			f.Decls = append(f.Decls, b.declarations(child)...)
		case "preproc_if", "preproc_ifdef", "preproc_else", "preproc_elif",
			"linkage_specification", "declaration_list":
			b.topLevel(child, f)
		}
	}
}

func (b *builder) typedefs(n *sitter.Node) []Node {
	base, quals, _ := b.specifiers(n)
	if base == nil {
		return nil
	}

	var out []Node
	for _, d := range b.declarators(n) {
		typ := b.declarator(d, &TypeDecl{Quals: quals, Type: base})
		if typ == nil {
			continue
		}
		out = append(out, &Typedef{
			Name:  DeclName(typ),
			Quals: quals,
			Type:  typ,
		})
	}

	return out
}

func (b *builder) declarations(n *sitter.Node) []Node {
	var out []Node
	for _, d := range b.fieldDecls(n) {
		out = append(out, d)
	}
	return out
}

// fieldDecls converts a declaration, field_declaration or
// parameter_declaration into one Decl per declarator. A declaration without
// declarators yields a single unnamed Decl holding the bare specifier.
func (b *builder) fieldDecls(n *sitter.Node) []*Decl {
	base, quals, storage := b.specifiers(n)
	if base == nil {
		return nil
	}

	decls := b.declarators(n)
	if len(decls) == 0 {
		return []*Decl{{Quals: quals, Storage: storage, Type: base}}
	}

	var out []*Decl
	for _, d := range decls {
		typ := b.declarator(d, &TypeDecl{Quals: quals, Type: base})
		if typ == nil {
			continue
		}
		out = append(out, &Decl{
			Name:    DeclName(typ),
			Quals:   quals,
			Storage: storage,
			Type:    typ,
		})
	}

	return out
}

func (b *builder) specifiers(n *sitter.Node) (Node, []string, []string) {
	var quals, storage []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "type_qualifier":
			quals = append(quals, b.text(child))
		case "storage_class_specifier":
			storage = append(storage, b.text(child))
		}
	}

	return b.typeSpecifier(n.ChildByFieldName("type")), quals, storage
}

var notDeclarator = map[string]bool{
	"type_qualifier":          true,
	"storage_class_specifier": true,
	"attribute_specifier":     true,
	"attribute_declaration":   true,
	"ms_declspec_modifier":    true,
	"bitfield_clause":         true,
	"comment":                 true,
}

func (b *builder) declarators(n *sitter.Node) []*sitter.Node {
	typ := n.ChildByFieldName("type")

	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if notDeclarator[child.Type()] || sameNode(child, typ) {
			continue
		}
		out = append(out, child)
	}

	return out
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func (b *builder) typeSpecifier(n *sitter.Node) Node {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case "struct_specifier":
		s := &Struct{}
		if name := n.ChildByFieldName("name"); name != nil {
			s.Name = b.text(name)
		}
		s.Decls = b.members(n.ChildByFieldName("body"))
		return s

	case "union_specifier":
		u := &Union{}
		if name := n.ChildByFieldName("name"); name != nil {
			u.Name = b.text(name)
		}
		u.Decls = b.members(n.ChildByFieldName("body"))
		return u

	case "enum_specifier":
		e := &Enum{}
		if name := n.ChildByFieldName("name"); name != nil {
			e.Name = b.text(name)
		}
		e.Values = b.enumerators(n.ChildByFieldName("body"))
		return e
	}

	return &IdentifierType{Names: strings.Fields(n.Content(b.src))}
}

func (b *builder) members(body *sitter.Node) []*Decl {
	if body == nil {
		return nil
	}

	decls := []*Decl{}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() != "field_declaration" {
			continue
		}
		decls = append(decls, b.fieldDecls(child)...)
	}

	return decls
}

func (b *builder) enumerators(body *sitter.Node) []*Enumerator {
	if body == nil {
		return nil
	}

	values := []*Enumerator{}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() != "enumerator" {
			continue
		}
		name := child.ChildByFieldName("name")
		if name == nil {
			continue
		}
		e := &Enumerator{Name: b.text(name)}
		if value := child.ChildByFieldName("value"); value != nil {
			e.Value = b.expr(value)
		}
		values = append(values, e)
	}

	return values
}

// declarator wraps inner in the derived types described by n, outermost
// first, and stores the identifier on the innermost TypeDecl.
func (b *builder) declarator(n *sitter.Node, inner Node) Node {
	if n == nil {
		return inner
	}

	switch n.Type() {
	case "identifier", "type_identifier", "field_identifier", "primitive_type":
		if td := Innermost(inner); td != nil {
			td.DeclName = b.text(n)
		}
		return inner

	case "pointer_declarator", "abstract_pointer_declarator":
		ptr := &PtrDecl{Quals: b.qualifiers(n), Type: inner}
		return b.declarator(n.ChildByFieldName("declarator"), ptr)

	case "function_declarator", "abstract_function_declarator":
		fn := &FuncDecl{Args: b.params(n.ChildByFieldName("parameters")), Type: inner}
		return b.declarator(n.ChildByFieldName("declarator"), fn)

	case "array_declarator", "abstract_array_declarator":
		arr := &ArrayDecl{Type: inner}
		if size := n.ChildByFieldName("size"); size != nil {
			arr.Dim = b.expr(size)
		}
		return b.declarator(n.ChildByFieldName("declarator"), arr)

	case "init_declarator":
		return b.declarator(n.ChildByFieldName("declarator"), inner)

	case "parenthesized_declarator", "abstract_parenthesized_declarator", "attributed_declarator":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "ms_call_modifier", "attribute_declaration", "comment":
				continue
			}
			return b.declarator(child, inner)
		}
		return inner
	}

	return nil
}

func (b *builder) qualifiers(n *sitter.Node) []string {
	var quals []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "type_qualifier" {
			quals = append(quals, b.text(child))
		}
	}
	return quals
}

func (b *builder) params(n *sitter.Node) *ParamList {
	pl := &ParamList{}
	if n == nil {
		return pl
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "parameter_declaration":
			base, quals, storage := b.specifiers(child)
			if base == nil {
				continue
			}
			typ := b.declarator(child.ChildByFieldName("declarator"), &TypeDecl{Quals: quals, Type: base})
			if typ == nil {
				continue
			}
			pl.Params = append(pl.Params, &Decl{
				Name:    DeclName(typ),
				Quals:   quals,
				Storage: storage,
				Type:    typ,
			})
		case "variadic_parameter":
			pl.Variadic = true
		}
	}

	return pl
}

func (b *builder) expr(n *sitter.Node) Expr {
	switch n.Type() {
	case "identifier":
		return &ID{Name: b.text(n)}

	case "parenthesized_expression":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if child := n.NamedChild(i); child.Type() != "comment" {
				return b.expr(child)
			}
		}

	case "unary_expression":
		op, arg := n.ChildByFieldName("operator"), n.ChildByFieldName("argument")
		if op != nil && arg != nil {
			return &UnaryOp{Op: b.text(op), Expr: b.expr(arg)}
		}

	case "binary_expression":
		left, op, right := n.ChildByFieldName("left"), n.ChildByFieldName("operator"), n.ChildByFieldName("right")
		if left != nil && op != nil && right != nil {
			return &BinaryOp{Op: b.text(op), Left: b.expr(left), Right: b.expr(right)}
		}
	}

	return &Constant{Value: b.text(n)}
}

package generator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ardanlabs/cuewgen/parser"
)

var ErrUnsupportedNode = errors.New("unsupported declaration node")

// TypeSpelling is the source text of a type. Multiline is set when an
// aggregate body had to be rendered inline.
type TypeSpelling struct {
	Text      string
	Multiline bool
}

// Stringify renders the spelling of n at indent level indent.
func Stringify(n parser.Node, indent int, opts Options) (TypeSpelling, error) {
	v := NewVisitor(&Bindings{}, opts)
	v.indent = indent

	text, err := v.typeString(n)
	if err != nil {
		return TypeSpelling{}, err
	}

	return TypeSpelling{Text: text, Multiline: strings.Contains(text, "\n")}, nil
}

// typeString renders the type named by n. Array bounds and declared names
// are left to the caller, except for function types which always carry
// their name.
func (v *Visitor) typeString(n parser.Node) (string, error) {
	switch t := n.(type) {
	case *parser.PtrDecl:
		s, err := v.typeString(t.Type)
		if err != nil {
			return "", err
		}
		if _, ok := t.Type.(*parser.FuncDecl); !ok {
			s += "*"
		}
		return s, nil

	case *parser.ArrayDecl:
		return v.typeString(t.Type)

	case *parser.Struct:
		if t.Name != "" {
			return "struct " + t.Name, nil
		}
		return v.inlineAggregate("struct", t.Decls)

	case *parser.Union:
		if t.Name != "" {
			return "union " + t.Name, nil
		}
		return v.inlineAggregate("union", t.Decls)

	case *parser.Enum:
		return "enum " + t.Name, nil

	case *parser.TypeDecl:
		return v.typeString(t.Type)

	case *parser.FuncDecl:
		ret, err := v.typeString(t.Type)
		if err != nil {
			return "", err
		}
		params, err := v.params(t.Args)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s (%s *%s)(%s)", ret, v.opts.CallbackConvention, parser.DeclName(t.Type), params), nil

	case *parser.IdentifierType:
		return strings.Join(t.Names, " "), nil
	}

	return "", fmt.Errorf("%w: %T", ErrUnsupportedNode, n)
}

func (v *Visitor) inlineAggregate(keyword string, decls []*parser.Decl) (string, error) {
	v.indent++
	body, err := v.renderStruct(decls)
	v.indent--
	if err != nil {
		return "", err
	}

	return keyword + " {\n" + body + indentation(v.indent) + "}", nil
}

func (v *Visitor) params(pl *parser.ParamList) (string, error) {
	if pl == nil {
		return "", nil
	}

	parts := make([]string, 0, len(pl.Params)+1)
	for _, p := range pl.Params {
		s, err := v.declString(p)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	if pl.Variadic {
		parts = append(parts, "...")
	}

	return strings.Join(parts, ", "), nil
}

// declString renders a parameter or member declaration without the
// terminating semicolon.
func (v *Visitor) declString(d *parser.Decl) (string, error) {
	typ, err := v.typeString(d.Type)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(qualString(d.Quals))
	b.WriteString(typ)

	if td, ok := d.Type.(*parser.TypeDecl); ok {
		var decls []*parser.Decl
		switch agg := td.Type.(type) {
		case *parser.Struct:
			if agg.Name != "" {
				decls = agg.Decls
			}
		case *parser.Union:
			if agg.Name != "" {
				decls = agg.Decls
			}
		}
		if decls != nil {
			v.indent++
			body, err := v.renderStruct(decls)
			v.indent--
			if err != nil {
				return "", err
			}
			b.WriteString(" {\n" + body + indentation(v.indent) + "}")
		}
	}

	if d.Name != "" && !isFunctionPointer(d.Type) {
		b.WriteString(" " + d.Name)
	}

	dims, err := arraySuffix(d.Name, d.Type)
	if err != nil {
		return "", err
	}
	b.WriteString(dims)

	return b.String(), nil
}

// isFunctionPointer reports whether the rendered type already embeds the
// declared name.
func isFunctionPointer(n parser.Node) bool {
	switch t := n.(type) {
	case *parser.FuncDecl:
		return true
	case *parser.PtrDecl:
		_, ok := t.Type.(*parser.FuncDecl)
		return ok
	}
	return false
}

func indentation(level int) string {
	return strings.Repeat("  ", level)
}

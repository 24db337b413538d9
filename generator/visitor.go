package generator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ardanlabs/cuewgen/parser"
)

// Options controls the spelling of the generated wrangler.
type Options struct {
	// APIConvention tags the function typedefs of loaded symbols.
	APIConvention string
	// CallbackConvention tags function pointer types.
	CallbackConvention string
	// Exclude lists typedef names the template already provides.
	Exclude []string
	// SecondaryPrefix selects the symbols loaded from the secondary library.
	SecondaryPrefix string
	PrimaryFind     string
	SecondaryFind   string
}

func DefaultOptions() Options {
	return Options{
		APIConvention:      "CUDAAPI",
		CallbackConvention: "CUDA_CB",
		Exclude: []string{
			"size_t", "CUdeviceptr", "uint32_t", "uint64_t",
			"cuuint32_t", "cuuint64_t",
		},
		SecondaryPrefix: "nvrtc",
		PrimaryFind:     "CUDA_LIBRARY_FIND",
		SecondaryFind:   "NVRTC_LIBRARY_FIND",
	}
}

// Visitor walks the top-level declarations of one header and appends what it
// finds to a Bindings. Create one Visitor per header.
type Visitor struct {
	opts        Options
	exclude     map[string]bool
	out         *Bindings
	indent      int
	prevComplex bool
}

func NewVisitor(out *Bindings, opts Options) *Visitor {
	v := &Visitor{
		opts:    opts,
		exclude: make(map[string]bool),
		out:     out,
	}
	v.Exclude(opts.Exclude...)

	return v
}

// Exclude adds typedef names that must not be emitted.
func (v *Visitor) Exclude(names ...string) {
	for _, name := range names {
		v.exclude[name] = true
	}
}

func (v *Visitor) VisitFile(f *parser.File) error {
	for _, n := range f.Decls {
		if err := v.Visit(n); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	return nil
}

// Visit handles one top-level declaration. Nodes other than Decl and Typedef
// carry nothing the wrangler needs and are ignored.
func (v *Visitor) Visit(n parser.Node) error {
	switch d := n.(type) {
	case *parser.Decl:
		return v.VisitFunctionDeclaration(d)
	case *parser.Typedef:
		return v.VisitTypedef(d)
	}
	return nil
}

// VisitFunctionDeclaration records a function prototype or a pointer to
// function declaration as a loadable symbol. Declarations of any other shape
// are not part of the API surface and are skipped, as are static ones which
// no shared library exports.
func (v *Visitor) VisitFunctionDeclaration(d *parser.Decl) error {
	if slices.Contains(d.Storage, "static") {
		return nil
	}

	var fn *parser.FuncDecl
	switch t := d.Type.(type) {
	case *parser.FuncDecl:
		fn = t
	case *parser.PtrDecl:
		fn, _ = t.Type.(*parser.FuncDecl)
	}
	if fn == nil {
		return nil
	}

	var ret, name string
	switch rt := fn.Type.(type) {
	case *parser.TypeDecl:
		typ, err := v.typeString(rt.Type)
		if err != nil {
			return fmt.Errorf("return type of %s: %w", rt.DeclName, err)
		}
		name, ret = rt.DeclName, qualString(rt.Quals)+typ

	case *parser.PtrDecl:
		td := parser.Innermost(rt)
		if td == nil {
			return nil
		}
		typ, err := v.typeString(rt)
		if err != nil {
			return fmt.Errorf("return type of %s: %w", td.DeclName, err)
		}
		name, ret = td.DeclName, qualString(td.Quals)+typ

	default:
		return nil
	}

	if name == "" {
		name = d.Name
	}
	if name == "" {
		return nil
	}

	params, err := v.params(fn.Args)
	if err != nil {
		return fmt.Errorf("parameters of %s: %w", name, err)
	}

	v.out.Symbols = append(v.out.Symbols, Symbol{
		Name:    name,
		Typedef: fmt.Sprintf("typedef %s %s t%s(%s);", ret, v.opts.APIConvention, name, params),
	})

	return nil
}

// VisitTypedef renders a typedef. Struct and enum definitions are separated
// from their neighbours by a blank line. Union definitions span several lines
// too but keep to the plain typedef spacing.
func (v *Visitor) VisitTypedef(t *parser.Typedef) error {
	if v.exclude[t.Name] {
		return nil
	}

	text, multiline, err := v.typedefBody(t)
	if err != nil {
		return fmt.Errorf("typedef %s: %w", t.Name, err)
	}

	if multiline || v.prevComplex {
		text = "\ntypedef " + text + ";"
	} else {
		text = "typedef " + text + ";"
	}
	v.out.Typedefs = append(v.out.Typedefs, text)
	v.prevComplex = multiline

	return nil
}

func (v *Visitor) typedefBody(t *parser.Typedef) (string, bool, error) {
	quals := qualString(t.Quals)

	switch typ := t.Type.(type) {
	case *parser.TypeDecl:
		switch agg := typ.Type.(type) {
		case *parser.Struct:
			if agg.Decls != nil {
				return v.aggregateTypedef(quals, "struct", agg.Name, agg.Decls, t.Name)
			}
		case *parser.Union:
			if agg.Decls != nil {
				text, _, err := v.aggregateTypedef(quals, "union", agg.Name, agg.Decls, t.Name)
				return text, false, err
			}
		case *parser.Enum:
			if agg.Values != nil {
				return v.enumTypedef(quals, agg, t.Name)
			}
		}

	case *parser.PtrDecl:
		if _, ok := typ.Type.(*parser.FuncDecl); ok {
			text, err := v.typeString(typ)
			return text, false, err
		}

	case *parser.FuncDecl:
		ret, err := v.typeString(typ.Type)
		if err != nil {
			return "", false, err
		}
		params, err := v.params(typ.Args)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("%s%s %s(%s)", quals, ret, t.Name, params), false, nil
	}

	text, err := v.typeString(t.Type)
	if err != nil {
		return "", false, err
	}
	dims, err := arraySuffix("", t.Type)
	if err != nil {
		return "", false, err
	}

	return quals + text + " " + t.Name + dims, false, nil
}

func (v *Visitor) aggregateTypedef(quals, keyword, tag string, decls []*parser.Decl, name string) (string, bool, error) {
	header := keyword
	if tag != "" {
		header += " " + tag
	}

	v.indent++
	body, err := v.renderStruct(decls)
	v.indent--
	if err != nil {
		return "", false, err
	}

	return quals + header + " {\n" + body + "} " + name, true, nil
}

func (v *Visitor) enumTypedef(quals string, e *parser.Enum, name string) (string, bool, error) {
	v.indent++
	body, records, err := v.renderEnum(e)
	v.indent--
	if err != nil {
		return "", false, err
	}
	v.out.Enumerators = append(v.out.Enumerators, records...)

	header := "enum"
	if e.Name != "" {
		header += " " + e.Name
	}

	return quals + header + " {\n" + body + "} " + name, true, nil
}

func qualString(quals []string) string {
	if len(quals) == 0 {
		return ""
	}
	return strings.Join(quals, " ") + " "
}

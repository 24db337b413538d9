package generator

import (
	"fmt"
	"io/fs"
	"strings"
)

const (
	HeaderTemplate         = "cuew.template.h"
	ImplementationTemplate = "cuew.template.c"

	HeaderFile         = "cuew.h"
	ImplementationFile = "cuew.c"
)

type Generator struct {
	templates fs.FS
	errors    *ErrorTable
	assembler Assembler
	opts      Options
}

func New(templates fs.FS, errors *ErrorTable, opts Options) *Generator {
	return &Generator{
		templates: templates,
		errors:    errors,
		assembler: PlaceholderAssembler{},
		opts:      opts,
	}
}

// Generate renders both artifacts keyed by their file name.
func (g *Generator) Generate(b *Bindings) (map[string]string, error) {
	files := make(map[string]string)

	header, err := g.Header(b)
	if err != nil {
		return nil, fmt.Errorf("generating header: %w", err)
	}
	files[HeaderFile] = header

	impl, err := g.Implementation(b)
	if err != nil {
		return nil, fmt.Errorf("generating implementation: %w", err)
	}
	files[ImplementationFile] = impl

	return files, nil
}

func (g *Generator) Header(b *Bindings) (string, error) {
	tmpl, err := LoadTemplate(g.templates, HeaderTemplate)
	if err != nil {
		return "", err
	}
	return g.assembler.Assemble(tmpl, g.HeaderBlocks(b)), nil
}

func (g *Generator) Implementation(b *Bindings) (string, error) {
	tmpl, err := LoadTemplate(g.templates, ImplementationTemplate)
	if err != nil {
		return "", err
	}
	return g.assembler.Assemble(tmpl, g.ImplementationBlocks(b)), nil
}

func (g *Generator) HeaderBlocks(b *Bindings) map[string]string {
	var defines, versioned, typedefs strings.Builder
	for _, m := range b.Defines {
		defines.WriteString(m.String() + "\n")
	}
	for _, m := range b.VersionedDefines {
		versioned.WriteString(m.String() + "\n")
	}
	for _, t := range b.Typedefs {
		typedefs.WriteString(t + "\n")
	}

	return map[string]string{
		"DEFINES":           defines.String(),
		"DEFINES_V2":        versioned.String(),
		"TYPEDEFS":          typedefs.String(),
		"FUNC_TYPEDEFS":     funcTypedefs(b.Symbols),
		"FUNC_DECLARATIONS": funcDeclarations(b.Symbols),
	}
}

func (g *Generator) ImplementationBlocks(b *Bindings) map[string]string {
	primary, secondary := ClassifySymbols(b.Symbols, g.opts.SecondaryPrefix)

	return map[string]string{
		"FUNCTION_DEFINITIONS": funcDefinitions(b.Symbols),
		"CUDA_ERRORS":          g.errors.Cases(b.EnumeratorsWithPrefix(g.errors.Prefix)),
		"LIB_FIND_CUDA":        loaderBlock(g.opts.PrimaryFind, primary),
		"LIB_FIND_NVRTC":       loaderBlock(g.opts.SecondaryFind, secondary),
	}
}

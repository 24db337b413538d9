package generator

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"unicode"
)

// Assembler fills a template with rendered blocks keyed by placeholder name.
type Assembler interface {
	Assemble(tmpl string, blocks map[string]string) string
}

// PlaceholderAssembler replaces every %NAME% in the template with the block
// registered under NAME, right-trimmed. Placeholders without a block and
// blocks without a placeholder are left alone.
type PlaceholderAssembler struct{}

func (PlaceholderAssembler) Assemble(tmpl string, blocks map[string]string) string {
	names := make([]string, 0, len(blocks))
	for name := range blocks {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		pairs = append(pairs, "%"+name+"%", strings.TrimRightFunc(blocks[name], unicode.IsSpace))
	}

	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func LoadTemplate(fsys fs.FS, name string) (string, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", fmt.Errorf("reading template: %w", err)
	}
	return string(data), nil
}

package generator

import (
	"strings"

	"github.com/ardanlabs/cuewgen/parser"
)

// Symbol is one dynamically loaded entry point and its function typedef.
// A Symbol with an empty Name marks the boundary between two headers.
type Symbol struct {
	Name    string
	Typedef string
}

func (s Symbol) IsBreak() bool {
	return s.Name == ""
}

// Enumerator records an enumerator name and its rendered value expression.
type Enumerator struct {
	Name  string
	Value string
}

// Bindings accumulates everything extracted from the processed headers for
// one generation run. All lists are append-only and keep encounter order.
type Bindings struct {
	Typedefs         []string
	Symbols          []Symbol
	Defines          []parser.Macro
	VersionedDefines []parser.Macro
	Enumerators      []Enumerator

	files int
}

// BeginFile starts the contribution of the next header, separating it from
// the previous one with a blank Symbol.
func (b *Bindings) BeginFile() {
	if b.files > 0 {
		b.Symbols = append(b.Symbols, Symbol{})
	}
	b.files++
}

// EnumeratorsWithPrefix returns the enumerators whose name starts with prefix.
func (b *Bindings) EnumeratorsWithPrefix(prefix string) []Enumerator {
	var out []Enumerator
	for _, e := range b.Enumerators {
		if strings.HasPrefix(e.Name, prefix) {
			out = append(out, e)
		}
	}
	return out
}

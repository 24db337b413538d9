package generator

import (
	"fmt"
	"strings"
)

// ClassifySymbols splits symbol names between the primary and the secondary
// library loader. File breaks survive as empty names in primary only.
func ClassifySymbols(symbols []Symbol, secondaryPrefix string) (primary, secondary []string) {
	for _, s := range symbols {
		switch {
		case s.IsBreak():
			primary = append(primary, "")
		case strings.HasPrefix(s.Name, secondaryPrefix):
			secondary = append(secondary, s.Name)
		default:
			primary = append(primary, s.Name)
		}
	}
	return primary, secondary
}

// loaderBlock renders one `  MACRO(name);` line per symbol.
func loaderBlock(macro string, names []string) string {
	var b strings.Builder
	for _, name := range names {
		if name == "" {
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, "  %s(%s);\n", macro, name)
	}
	return b.String()
}

func funcTypedefs(symbols []Symbol) string {
	var b strings.Builder
	for _, s := range symbols {
		b.WriteString(s.Typedef + "\n")
	}
	return b.String()
}

func funcDeclarations(symbols []Symbol) string {
	return symbolLines(symbols, "extern t%s *%s;\n")
}

func funcDefinitions(symbols []Symbol) string {
	return symbolLines(symbols, "t%s *%s;\n")
}

func symbolLines(symbols []Symbol, format string) string {
	var b strings.Builder
	for _, s := range symbols {
		if s.IsBreak() {
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, format, s.Name, s.Name)
	}
	return b.String()
}

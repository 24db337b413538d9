package parser

import (
	"strings"
	"unicode"
)

// Macro is a #define line split on whitespace. Tokens[0] is the macro name.
type Macro struct {
	Tokens []string
}

func (m Macro) Name() string {
	if len(m.Tokens) == 0 {
		return ""
	}
	return m.Tokens[0]
}

func (m Macro) String() string {
	return "#define " + strings.Join(m.Tokens, " ")
}

// DefaultDenylist holds header guards and calling convention macros that the
// wrangler template defines itself.
var DefaultDenylist = []string{
	"__cuda_cuda_h__",
	"CUDA_CB",
	"CUDAAPI",
	"CUDAGL_H",
	"__NVRTC_H__",
}

// DefaultWrappers are the per-thread API wrappers around versioned symbols.
var DefaultWrappers = []string{
	"__CUDA_API_PTDS",
	"__CUDA_API_PTSZ",
}

const directive = "#define"

// ScanDefines returns the #define lines that start at column zero, in file
// order, skipping names in deny.
func ScanDefines(text string, deny []string) []Macro {
	skip := make(map[string]bool, len(deny))
	for _, name := range deny {
		skip[name] = true
	}

	var macros []Macro
	for _, line := range joinContinuations(text) {
		rest, ok := cutDirective(line)
		if !ok {
			continue
		}
		tokens := strings.Fields(rest)
		if len(tokens) == 0 || skip[tokens[0]] {
			continue
		}
		macros = append(macros, Macro{Tokens: tokens})
	}

	return macros
}

// ScanVersionedDefines returns the indented `#define name name_v2` aliases
// nested under conditional compilation. A replacement wrapped in one of
// wrappers is unwrapped.
func ScanVersionedDefines(text string, wrappers []string) []Macro {
	var macros []Macro
	for _, line := range splitLines(text) {
		if line == "" || !unicode.IsSpace(rune(line[0])) {
			continue
		}
		rest, ok := cutDirective(strings.TrimLeftFunc(line, unicode.IsSpace))
		if !ok {
			continue
		}

		tokens := strings.Fields(rest)
		if len(tokens) != 2 || !isVersioned(tokens[1]) {
			continue
		}
		tokens[1] = unwrap(tokens[1], wrappers)

		macros = append(macros, Macro{Tokens: tokens})
	}

	return macros
}

func isVersioned(token string) bool {
	return strings.HasSuffix(token, "_v2") || strings.HasSuffix(token, "_v2)")
}

func unwrap(token string, wrappers []string) string {
	for _, w := range wrappers {
		if inner, ok := strings.CutPrefix(token, w+"("); ok {
			return strings.TrimSuffix(inner, ")")
		}
	}
	return token
}

func cutDirective(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, directive)
	if !ok {
		return "", false
	}
	if rest != "" && !unicode.IsSpace(rune(rest[0])) {
		return "", false
	}
	return rest, true
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func joinContinuations(text string) []string {
	var out []string
	var cur strings.Builder
	for _, line := range splitLines(text) {
		if strings.HasSuffix(line, "\\") {
			cur.WriteString(strings.TrimSuffix(line, "\\"))
			cur.WriteByte(' ')
			continue
		}
		cur.WriteString(line)
		out = append(out, cur.String())
		cur.Reset()
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

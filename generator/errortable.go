package generator

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed cuda_errors.yaml
var defaultErrors []byte

const defaultErrorPrefix = "CUDA_ERROR_"

// ErrorTable maps error enumerator names to prose descriptions.
type ErrorTable struct {
	Prefix       string            `yaml:"prefix"`
	Descriptions map[string]string `yaml:"errors"`
}

// DefaultErrorTable returns the built-in CUDA driver error descriptions.
func DefaultErrorTable() (*ErrorTable, error) {
	return LoadErrorTable(bytes.NewReader(defaultErrors))
}

func LoadErrorTable(r io.Reader) (*ErrorTable, error) {
	var t ErrorTable
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decoding error table: %w", err)
	}
	if t.Prefix == "" {
		t.Prefix = defaultErrorPrefix
	}
	if t.Descriptions == nil {
		t.Descriptions = make(map[string]string)
	}
	return &t, nil
}

func LoadErrorTableFile(path string) (*ErrorTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening error table: %w", err)
	}
	defer f.Close()

	return LoadErrorTable(f)
}

// Describe returns the table entry for name, or a description derived from
// the name itself: CUDA_ERROR_OUT_OF_MEMORY reads "Out of memory".
func (t *ErrorTable) Describe(name string) string {
	if desc, ok := t.Descriptions[name]; ok {
		return desc
	}

	words := strings.ReplaceAll(strings.TrimPrefix(name, t.Prefix), "_", " ")
	if words == "" {
		return name
	}

	return words[:1] + strings.ToLower(words[1:])
}

// Cases renders one switch case per error enumerator, keeping their order.
// The result has no trailing newline.
func (t *ErrorTable) Cases(records []Enumerator) string {
	lines := make([]string, 0, len(records))
	for _, r := range records {
		if !strings.HasPrefix(r.Name, t.Prefix) {
			continue
		}
		lines = append(lines, fmt.Sprintf("    case %s: return \"%s\";", r.Name, t.Describe(r.Name)))
	}
	return strings.Join(lines, "\n")
}

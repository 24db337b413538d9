package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

var ErrPreprocessor = errors.New("unable to invoke cpp")

// Preprocessor resolves includes and conditional compilation for one header
// before it is handed to Parse.
type Preprocessor interface {
	Preprocess(ctx context.Context, path string, defines []string) (string, error)
}

// CPP runs an external C preprocessor.
type CPP struct {
	Path        string
	IncludeDirs []string
}

func (p *CPP) Preprocess(ctx context.Context, path string, defines []string) (string, error) {
	args := []string{"-I./"}
	for _, dir := range p.IncludeDirs {
		args = append(args, "-I"+dir)
	}
	for _, d := range defines {
		args = append(args, "-D"+d)
	}
	args = append(args, path)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Path, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w, make sure its path was passed correctly\noriginal error: %w", ErrPreprocessor, err)
		}

		// cpp still writes everything it could expand.
		slog.Warn("preprocessor reported errors", "path", path, "status", exitErr.ExitCode(), "stderr", strings.TrimSpace(stderr.String()))
	}

	return string(out), nil
}

// Passthrough hands the header to the parser unmodified.
type Passthrough struct{}

func (Passthrough) Preprocess(_ context.Context, path string, _ []string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// FindCPP returns the newest versioned cpp found in /usr/bin, falling back to
// plain cpp and then to cpp on PATH.
func FindCPP() (string, error) {
	const prefix = "/usr/bin"

	for major := 14; major >= 4; major-- {
		candidate := filepath.Join(prefix, "cpp-"+strconv.Itoa(major))
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	candidate := filepath.Join(prefix, "cpp")
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}

	path, err := exec.LookPath("cpp")
	if err != nil {
		return "", fmt.Errorf("%w: no preprocessor found: %w", ErrPreprocessor, err)
	}

	return path, nil
}

// FilterOrigin drops every line that the preprocessor's linemarkers attribute
// to a file other than path, along with the markers themselves. Text without
// any linemarkers is returned unchanged.
func FilterOrigin(text, path string) string {
	target := filepath.Clean(path)

	var out strings.Builder
	current := target
	seen := false

	for _, line := range strings.Split(text, "\n") {
		if file, ok := lineMarker(line); ok {
			seen = true
			current = filepath.Clean(file)
			continue
		}
		if current != target {
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}

	if !seen {
		return text
	}

	return out.String()
}

// lineMarker recognizes `# 12 "file" 1 3` and `#line 12 "file"`.
func lineMarker(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, "#")
	if !ok {
		return "", false
	}
	rest = strings.TrimPrefix(strings.TrimLeft(rest, " \t"), "line")

	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return "", false
	}
	if _, err := strconv.Atoi(fields[0]); err != nil {
		return "", false
	}

	file, err := strconv.Unquote(fields[1])
	if err != nil {
		return "", false
	}

	return file, true
}

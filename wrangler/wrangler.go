package wrangler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ardanlabs/cuewgen/generator"
	"github.com/ardanlabs/cuewgen/logutil"
	"github.com/ardanlabs/cuewgen/parser"
)

// Header describes how one CUDA header is turned into declarations.
type Header struct {
	Name string
	// Defines are passed to the preprocessor as -D flags.
	Defines []string
	// Prelude typedefs are prepended to the preprocessed text and emitted.
	Prelude []string
	// Dummies are stand-in typedefs for types the header expects from
	// elsewhere. They are prepended in name order and never emitted.
	Dummies map[string]string
}

// DefaultHeaders returns cuda.h, cudaGL.h and nvrtc.h in processing order.
func DefaultHeaders() []Header {
	return []Header{
		{Name: "cuda.h"},
		{
			Name:    "cudaGL.h",
			Defines: []string{"CUDAAPI="},
			Prelude: []string{
				"typedef long size_t;",
				"typedef unsigned int GLenum;",
				"typedef unsigned int GLuint;",
				"typedef int GLint;",
			},
			Dummies: map[string]string{
				"CUresult":           "int",
				"CUgraphicsResource": "void *",
				"CUdevice":           "void *",
				"CUcontext":          "void *",
				"CUdeviceptr":        "void *",
				"CUstream":           "void *",
			},
		},
		{Name: "nvrtc.h"},
	}
}

type Options struct {
	IncludeDir   string
	Headers      []Header
	Preprocessor parser.Preprocessor
	Generator    generator.Options
	Denylist     []string
	Wrappers     []string
}

func DefaultOptions(includeDir string, pp parser.Preprocessor) Options {
	return Options{
		IncludeDir:   includeDir,
		Headers:      DefaultHeaders(),
		Preprocessor: pp,
		Generator:    generator.DefaultOptions(),
		Denylist:     parser.DefaultDenylist,
		Wrappers:     parser.DefaultWrappers,
	}
}

type unit struct {
	file      *parser.File
	defines   []parser.Macro
	versioned []parser.Macro
}

// Build preprocesses and parses every header concurrently, then visits the
// results in header order.
func Build(ctx context.Context, opts Options) (*generator.Bindings, error) {
	units := make([]unit, len(opts.Headers))

	g, ctx := errgroup.WithContext(ctx)
	for i, h := range opts.Headers {
		g.Go(func() error {
			u, err := load(ctx, opts, h)
			if err != nil {
				return fmt.Errorf("%s: %w", h.Name, err)
			}
			units[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := &generator.Bindings{}
	for i, h := range opts.Headers {
		u := units[i]

		b.BeginFile()
		b.Defines = append(b.Defines, u.defines...)
		b.VersionedDefines = append(b.VersionedDefines, u.versioned...)

		v := generator.NewVisitor(b, opts.Generator)
		v.Exclude(dummyNames(h)...)
		if err := v.VisitFile(u.file); err != nil {
			return nil, err
		}

		slog.Debug("visited header", "header", h.Name, "typedefs", len(b.Typedefs), "symbols", len(b.Symbols))
	}

	return b, nil
}

func load(ctx context.Context, opts Options, h Header) (unit, error) {
	path := filepath.Join(opts.IncludeDir, h.Name)

	raw, err := os.ReadFile(path)
	if err != nil {
		return unit{}, fmt.Errorf("reading header: %w", err)
	}

	text, err := opts.Preprocessor.Preprocess(ctx, path, h.Defines)
	if err != nil {
		return unit{}, err
	}
	text = parser.FilterOrigin(text, path)
	logutil.Trace("preprocessed header", "header", h.Name, "bytes", len(text))

	src := prologue(h) + text
	f, err := parser.Parse(ctx, path, []byte(src))
	if err != nil {
		return unit{}, err
	}

	return unit{
		file:      f,
		defines:   parser.ScanDefines(string(raw), opts.Denylist),
		versioned: parser.ScanVersionedDefines(string(raw), opts.Wrappers),
	}, nil
}

// prologue renders the dummy typedefs followed by the prelude.
func prologue(h Header) string {
	var b strings.Builder
	for _, name := range dummyNames(h) {
		fmt.Fprintf(&b, "typedef %s %s;\n", h.Dummies[name], name)
	}
	for _, line := range h.Prelude {
		b.WriteString(line + "\n")
	}
	return b.String()
}

func dummyNames(h Header) []string {
	names := make([]string, 0, len(h.Dummies))
	for name := range h.Dummies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ardanlabs/cuewgen/envconfig"
	"github.com/ardanlabs/cuewgen/generator"
	"github.com/ardanlabs/cuewgen/logutil"
	"github.com/ardanlabs/cuewgen/parser"
	"github.com/ardanlabs/cuewgen/templates"
	"github.com/ardanlabs/cuewgen/wrangler"
)

var ErrUsage = errors.New("usage: cuewgen hdr|impl [/path/to/cuda/include]")

const (
	modeHeader         = "hdr"
	modeImplementation = "impl"
)

func validArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.RangeArgs(1, 2)(cmd, args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	switch args[0] {
	case modeHeader, modeImplementation:
		return nil
	}
	return fmt.Errorf("%w: unknown command %s", ErrUsage, args[0])
}

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cuewgen hdr|impl [/path/to/cuda/include]",
		Short: "Generate the CUDA extension wrangler",
		Long:  "Parse cuda.h, cudaGL.h and nvrtc.h and print the cuew header (hdr) or implementation (impl).",
		Args:  validArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
			slog.SetDefault(logutil.NewLogger(cmd.ErrOrStderr(), logutil.Level(envconfig.Debug)))
		},
		RunE: GenerateHandler,
	}

	rootCmd.Flags().String("cpp", envconfig.CPP, "Path to the C preprocessor (default: newest cpp found)")
	rootCmd.Flags().String("templates", envconfig.Templates, "Directory with cuew.template.h and cuew.template.c")
	rootCmd.Flags().String("errors", envconfig.Errors, "YAML file with CUDA error descriptions")
	rootCmd.Flags().Bool("no-preprocess", false, "Parse the headers without running cpp")
	rootCmd.Flags().StringP("output", "o", "", "Write the result to a file instead of stdout")

	return rootCmd
}

func GenerateHandler(cmd *cobra.Command, args []string) error {
	includeDir := envconfig.IncludeDir
	if len(args) == 2 {
		includeDir = args[1]
	}

	pp, err := preprocessor(cmd, includeDir)
	if err != nil {
		return err
	}

	tmpl, err := templateFS(cmd)
	if err != nil {
		return err
	}

	table, err := errorTable(cmd)
	if err != nil {
		return err
	}

	opts := wrangler.DefaultOptions(includeDir, pp)
	b, err := wrangler.Build(cmd.Context(), opts)
	if err != nil {
		return err
	}

	gen := generator.New(tmpl, table, opts.Generator)

	var out string
	switch args[0] {
	case modeHeader:
		out, err = gen.Header(b)
	case modeImplementation:
		out, err = gen.Implementation(b)
	}
	if err != nil {
		return err
	}

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if output != "" {
		return os.WriteFile(output, []byte(out), 0o644)
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

func preprocessor(cmd *cobra.Command, includeDir string) (parser.Preprocessor, error) {
	skip, err := cmd.Flags().GetBool("no-preprocess")
	if err != nil {
		return nil, err
	}
	if skip {
		return parser.Passthrough{}, nil
	}

	path, err := cmd.Flags().GetString("cpp")
	if err != nil {
		return nil, err
	}
	if path == "" {
		if path, err = parser.FindCPP(); err != nil {
			return nil, err
		}
	}
	slog.Debug("using preprocessor", "path", path, "include", includeDir)

	return &parser.CPP{Path: path, IncludeDirs: []string{includeDir}}, nil
}

func templateFS(cmd *cobra.Command) (fs.FS, error) {
	dir, err := cmd.Flags().GetString("templates")
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return templates.FS, nil
	}
	return os.DirFS(dir), nil
}

func errorTable(cmd *cobra.Command) (*generator.ErrorTable, error) {
	path, err := cmd.Flags().GetString("errors")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return generator.DefaultErrorTable()
	}
	return generator.LoadErrorTableFile(path)
}

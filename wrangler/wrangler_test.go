package wrangler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardanlabs/cuewgen/generator"
	"github.com/ardanlabs/cuewgen/parser"
	"github.com/ardanlabs/cuewgen/templates"
)

// fakeCPP drops directives the way cpp would, expands the IPC handle size
// and surrounds the header with linemarkers and a system header chunk.
type fakeCPP struct {
	mu      sync.Mutex
	defines map[string][]string
}

func (f *fakeCPP) Preprocess(_ context.Context, path string, defines []string) (string, error) {
	f.mu.Lock()
	if f.defines == nil {
		f.defines = make(map[string][]string)
	}
	f.defines[path] = defines
	f.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# 1 %q\n", path)
	b.WriteString("# 1 \"/usr/include/stdlib.h\" 1 3 4\ntypedef long leaked_t;\n")
	fmt.Fprintf(&b, "# 2 %q 2\n", path)
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			b.WriteString("\n")
			continue
		}
		b.WriteString(strings.ReplaceAll(line, "[CU_IPC_HANDLE_SIZE]", "[64]") + "\n")
	}

	return b.String(), nil
}

type failingCPP struct{}

func (failingCPP) Preprocess(context.Context, string, []string) (string, error) {
	return "", parser.ErrPreprocessor
}

func TestBuild(t *testing.T) {
	pp := &fakeCPP{}
	b, err := Build(context.Background(), DefaultOptions("testdata/include", pp))
	require.NoError(t, err)

	wantTypedefs := []string{
		"typedef unsigned long long CUdeviceptr_v2;",
		"typedef int CUdevice;",
		"typedef struct CUctx_st* CUcontext;",
		"typedef struct CUstream_st* CUstream;",
		"\ntypedef enum cudaError_enum {\n  CUDA_SUCCESS = 0,\n  CUDA_ERROR_INVALID_VALUE = 1,\n  CUDA_ERROR_OUT_OF_MEMORY = 2,\n  CUDA_ERROR_UNKNOWN = 999,\n} CUresult;",
		"\ntypedef struct CUipcMemHandle_st {\n  char reserved[CU_IPC_HANDLE_SIZE];\n} CUipcMemHandle;",
		"\ntypedef void (CUDA_CB *CUhostFn)(void* userData);",
		"typedef unsigned int GLenum;",
		"typedef unsigned int GLuint;",
		"typedef int GLint;",
		"\ntypedef enum CUGLDeviceList_enum {\n  CU_GL_DEVICE_LIST_ALL = 0x01,\n  CU_GL_DEVICE_LIST_CURRENT_FRAME = 0x02,\n  CU_GL_DEVICE_LIST_NEXT_FRAME = 0x03,\n} CUGLDeviceList;",
		"\ntypedef enum {\n  NVRTC_SUCCESS = 0,\n  NVRTC_ERROR_OUT_OF_MEMORY = 1,\n} nvrtcResult;",
		"\ntypedef struct _nvrtcProgram* nvrtcProgram;",
	}
	if diff := cmp.Diff(wantTypedefs, b.Typedefs); diff != "" {
		t.Errorf("typedefs mismatch (-want +got):\n%s", diff)
	}

	var names []string
	for _, s := range b.Symbols {
		names = append(names, s.Name)
	}
	wantNames := []string{
		"cuGetErrorString", "cuInit", "cuDriverGetVersion", "cuDeviceGet", "cuCtxCreate", "cuLaunchHostFunc",
		"",
		"cuGraphicsGLRegisterBuffer", "cuGLGetDevices",
		"",
		"nvrtcGetErrorString", "nvrtcVersion", "nvrtcCreateProgram",
	}
	assert.Equal(t, wantNames, names)

	assert.Equal(t, "typedef CUresult CUDAAPI tcuInit(unsigned int Flags);", b.Symbols[1].Typedef)
	assert.Equal(t, "typedef CUresult CUDAAPI tcuCtxCreate(CUcontext* pctx, unsigned int flags, CUdevice dev);", b.Symbols[4].Typedef)
	assert.Equal(t, "typedef CUresult CUDAAPI tcuLaunchHostFunc(CUstream hStream, CUhostFn fn, void* userData);", b.Symbols[5].Typedef)
	assert.Equal(t, "typedef CUresult CUDAAPI tcuGraphicsGLRegisterBuffer(CUgraphicsResource* pCudaResource, GLuint buffer, unsigned int Flags);", b.Symbols[7].Typedef)
	assert.Equal(t, "typedef const char* CUDAAPI tnvrtcGetErrorString(nvrtcResult result);", b.Symbols[10].Typedef)

	wantDefines := []parser.Macro{
		{Tokens: []string{"CUDA_VERSION", "12000"}},
		{Tokens: []string{"CU_IPC_HANDLE_SIZE", "64"}},
		{Tokens: []string{"CUDA_GL_INTEROP_VERSION", "2"}},
	}
	if diff := cmp.Diff(wantDefines, b.Defines); diff != "" {
		t.Errorf("defines mismatch (-want +got):\n%s", diff)
	}

	wantVersioned := []parser.Macro{
		{Tokens: []string{"cuCtxCreate", "cuCtxCreate_v2"}},
		{Tokens: []string{"cuMemcpyHtoD", "cuMemcpyHtoD_v2"}},
	}
	if diff := cmp.Diff(wantVersioned, b.VersionedDefines); diff != "" {
		t.Errorf("versioned defines mismatch (-want +got):\n%s", diff)
	}

	errs := b.EnumeratorsWithPrefix("CUDA_ERROR_")
	require.Len(t, errs, 3)
	assert.Equal(t, "CUDA_ERROR_OUT_OF_MEMORY", errs[1].Name)

	assert.Equal(t, []string{"CUDAAPI="}, pp.defines["testdata/include/cudaGL.h"])
	assert.Empty(t, pp.defines["testdata/include/cuda.h"])
}

func TestBuildGenerate(t *testing.T) {
	opts := DefaultOptions("testdata/include", &fakeCPP{})
	b, err := Build(context.Background(), opts)
	require.NoError(t, err)

	table, err := generator.DefaultErrorTable()
	require.NoError(t, err)

	files, err := generator.New(templates.FS, table, opts.Generator).Generate(b)
	require.NoError(t, err)

	header := files[generator.HeaderFile]
	assert.Contains(t, header, "#define CUDA_VERSION 12000\n")
	assert.Contains(t, header, "#define cuMemcpyHtoD cuMemcpyHtoD_v2\n")
	assert.Contains(t, header, "typedef int CUdevice;\n")
	assert.Contains(t, header, "extern tcuLaunchHostFunc *cuLaunchHostFunc;\n\nextern tcuGraphicsGLRegisterBuffer *cuGraphicsGLRegisterBuffer;\n")
	assert.NotContains(t, header, "leaked_t")

	impl := files[generator.ImplementationFile]
	assert.Contains(t, impl, "  CUDA_LIBRARY_FIND(cuGLGetDevices);\n")
	assert.Contains(t, impl, "  NVRTC_LIBRARY_FIND(nvrtcCreateProgram);\n")
	assert.NotContains(t, impl, "CUDA_LIBRARY_FIND(nvrtcVersion)")
	assert.Contains(t, impl, `    case CUDA_ERROR_OUT_OF_MEMORY: return "Out of memory";`)
	assert.Contains(t, impl, `    case CUDA_ERROR_INVALID_VALUE: return "Invalid value";`)
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(context.Background(), DefaultOptions("testdata/include", failingCPP{}))
	require.True(t, errors.Is(err, parser.ErrPreprocessor))

	_, err = Build(context.Background(), DefaultOptions(t.TempDir(), &fakeCPP{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading header")
}

// expandingCPP drops directives and substitutes every NAME=VALUE define
// word by word.
type expandingCPP struct{}

func (expandingCPP) Preprocess(_ context.Context, path string, defines []string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "#") {
			lines = append(lines, line)
		}
	}
	text := strings.Join(lines, "\n")

	for _, d := range defines {
		name, value, _ := strings.Cut(d, "=")
		text = regexp.MustCompile(`\b`+regexp.QuoteMeta(name)+`\b`).ReplaceAllString(text, value)
	}

	return text, nil
}

func TestBuildCallingConvention(t *testing.T) {
	dir := t.TempDir()
	src := "#define CUDAAPI\nCUresult (CUDAAPI *cuInit)(unsigned int Flags);\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cuda.h"), []byte(src), 0o644))

	t.Run("defined", func(t *testing.T) {
		opts := DefaultOptions(dir, expandingCPP{})
		opts.Headers = []Header{{Name: "cuda.h", Defines: []string{"CUDAAPI="}}}

		b, err := Build(context.Background(), opts)
		require.NoError(t, err)

		want := []generator.Symbol{{Name: "cuInit", Typedef: "typedef CUresult CUDAAPI tcuInit(unsigned int Flags);"}}
		if diff := cmp.Diff(want, b.Symbols); diff != "" {
			t.Errorf("symbols mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("undefined", func(t *testing.T) {
		opts := DefaultOptions(dir, expandingCPP{})
		opts.Headers = []Header{{Name: "cuda.h"}}

		_, err := Build(context.Background(), opts)
		require.ErrorIs(t, err, parser.ErrSyntax)
		assert.Contains(t, err.Error(), "cuda.h")
	})
}

func TestPrologue(t *testing.T) {
	h := DefaultHeaders()[1]

	want := "typedef void * CUcontext;\n" +
		"typedef void * CUdevice;\n" +
		"typedef void * CUdeviceptr;\n" +
		"typedef void * CUgraphicsResource;\n" +
		"typedef int CUresult;\n" +
		"typedef void * CUstream;\n" +
		"typedef long size_t;\n" +
		"typedef unsigned int GLenum;\n" +
		"typedef unsigned int GLuint;\n" +
		"typedef int GLint;\n"
	assert.Equal(t, want, prologue(h))
	assert.Empty(t, prologue(DefaultHeaders()[0]))
}

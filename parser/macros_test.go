package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

const header = `#ifndef __cuda_cuda_h__
#define __cuda_cuda_h__
#define CUDAAPI
#define CUDA_VERSION 12000
#define CU_LAUNCH_PARAM_END \
    ((void*)0x00)
#define CU_TRSF_READ_AS_INTEGER         0x01
#defineNOTADEFINE 1
#if defined(__CUDA_API_VERSION_INTERNAL)
    #define __CUDA_API_PTDS(api) api ## _ptds
    #define __CUDA_API_PER_THREAD_DEFAULT_STREAM
#endif
#if !defined(__CUDA_API_VERSION_INTERNAL)
    #define cuDeviceTotalMem                    cuDeviceTotalMem_v2
    #define cuMemcpyHtoD                        __CUDA_API_PTDS(cuMemcpyHtoD_v2)
    #define cuMemsetD8Async                     __CUDA_API_PTSZ(cuMemsetD8Async_v2)
    #define cuStreamGetPriority                 cuStreamGetPriority_v3
#endif
#endif
`

func TestScanDefines(t *testing.T) {
	got := ScanDefines(header, DefaultDenylist)

	want := []Macro{
		{Tokens: []string{"CUDA_VERSION", "12000"}},
		{Tokens: []string{"CU_LAUNCH_PARAM_END", "((void*)0x00)"}},
		{Tokens: []string{"CU_TRSF_READ_AS_INTEGER", "0x01"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("defines mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "#define CUDA_VERSION 12000", got[0].String())
	assert.Equal(t, "CUDA_VERSION", got[0].Name())
}

func TestScanVersionedDefines(t *testing.T) {
	got := ScanVersionedDefines(header, DefaultWrappers)

	want := []Macro{
		{Tokens: []string{"cuDeviceTotalMem", "cuDeviceTotalMem_v2"}},
		{Tokens: []string{"cuMemcpyHtoD", "cuMemcpyHtoD_v2"}},
		{Tokens: []string{"cuMemsetD8Async", "cuMemsetD8Async_v2"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("versioned defines mismatch (-want +got):\n%s", diff)
	}
}

func TestScanVersionedDefinesWrapperOnly(t *testing.T) {
	got := ScanVersionedDefines("    #define cuX __CUDA_API_PTDS(cuX_v2)\n", DefaultWrappers)
	assert.Equal(t, []Macro{{Tokens: []string{"cuX", "cuX_v2"}}}, got)

	got = ScanVersionedDefines("    #define __CUDA_API_PTDS(fname) fname ## _v2\n", DefaultWrappers)
	assert.Empty(t, got)

	got = ScanVersionedDefines("#define cuX cuX_v2\n", DefaultWrappers)
	assert.Empty(t, got)
}

func TestMacroEmpty(t *testing.T) {
	var m Macro
	assert.Empty(t, m.Name())
	assert.Equal(t, "#define ", m.String())
}

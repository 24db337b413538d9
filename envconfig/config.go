package envconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

var (
	// Set via CUEW_INCLUDE_DIR in the environment
	IncludeDir string
	// Set via CUEW_CPP in the environment
	CPP string
	// Set via CUEW_TEMPLATES in the environment
	Templates string
	// Set via CUEW_ERRORS in the environment
	Errors string
	// Set via CUEW_DEBUG in the environment
	Debug bool
)

const defaultIncludeDir = "/usr/include"

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"CUEW_INCLUDE_DIR": {"CUEW_INCLUDE_DIR", IncludeDir, "Directory holding cuda.h, cudaGL.h and nvrtc.h (default \"/usr/include\")"},
		"CUEW_CPP":         {"CUEW_CPP", CPP, "Path to the C preprocessor (default: newest cpp found)"},
		"CUEW_TEMPLATES":   {"CUEW_TEMPLATES", Templates, "Directory with cuew.template.h and cuew.template.c overriding the built-in ones"},
		"CUEW_ERRORS":      {"CUEW_ERRORS", Errors, "YAML file with CUDA error descriptions"},
		"CUEW_DEBUG":       {"CUEW_DEBUG", Debug, "Show additional debug information (e.g. CUEW_DEBUG=1)"},
	}
}

func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

func init() {
	LoadConfig()
}

func LoadConfig() {
	Debug = false
	if debug := clean("CUEW_DEBUG"); debug != "" {
		d, err := strconv.ParseBool(debug)
		if err == nil {
			Debug = d
		} else {
			Debug = true
		}
	}

	IncludeDir = clean("CUEW_INCLUDE_DIR")
	if IncludeDir == "" {
		IncludeDir = defaultIncludeDir
	}

	CPP = clean("CUEW_CPP")
	Templates = clean("CUEW_TEMPLATES")
	Errors = clean("CUEW_ERRORS")
}

// Package templates holds the C skeletons the wrangler is assembled into.
package templates

import (
	"embed"
	"io/fs"
)

//go:embed cuew
var embedded embed.FS

// FS holds cuew.template.h and cuew.template.c at its root.
var FS = mustSub(embedded, "cuew")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

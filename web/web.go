// Package web holds the templates and public assets compiled into the binary.
package web

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed views public
var files embed.FS

// Views returns the template tree. A non-empty dir overrides the embedded
// copy, which lets templates be edited without rebuilding.
func Views(dir string) fs.FS {
	return pick(dir, "views")
}

// Public returns the static asset tree, optionally overridden by dir.
func Public(dir string) fs.FS {
	return pick(dir, "public")
}

func pick(dir, embedded string) fs.FS {
	if dir != "" {
		return os.DirFS(dir)
	}
	sub, err := fs.Sub(files, embedded)
	if err != nil {
		panic(err)
	}
	return sub
}

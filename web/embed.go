// Package web bundles the page templates and the public asset tree.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var files embed.FS

// Templates returns the tree holding templates/*.html
func Templates() fs.FS {
	return files
}

// Static returns the public asset tree served at the site root. It also
// holds the 404 page, the gated admin document and the bundled catalog.
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

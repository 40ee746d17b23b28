// Package web holds the default page template and static assets compiled
// into the binary.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html static
var assets embed.FS

// Templates returns the embedded templates directory.
func Templates() fs.FS {
	sub, err := fs.Sub(assets, "templates")
	if err != nil {
		panic("web: embedded templates missing: " + err.Error())
	}
	return sub
}

// Static returns the embedded static assets directory.
func Static() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic("web: embedded static assets missing: " + err.Error())
	}
	return sub
}

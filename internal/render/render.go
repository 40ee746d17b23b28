// Package render executes the chart page template.
package render

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"sync"
)

// Page is the data bound to the page template.
type Page struct {
	Title string
	// ChartData is the JSON record array. It is inserted verbatim into a
	// script block, so it must come from encoding/json (which escapes <, >
	// and &).
	ChartData  template.JS
	Rows       int
	Source     string
	LiveReload bool
}

// Renderer parses a named template from fsys and renders it.
//
// With auto-reload enabled the template is parsed on every call, so edits
// show up on the next request. Otherwise the parsed template is cached until
// Invalidate is called.
type Renderer struct {
	fsys       fs.FS
	name       string
	autoReload bool

	mu   sync.RWMutex
	tmpl *template.Template
}

// New creates a renderer for the template file name inside fsys.
func New(fsys fs.FS, name string, autoReload bool) *Renderer {
	return &Renderer{fsys: fsys, name: name, autoReload: autoReload}
}

// Check parses the template once so startup fails fast on syntax errors.
func (r *Renderer) Check() error {
	_, err := r.parse()
	return err
}

// Render executes the template with data into w.
func (r *Renderer) Render(w io.Writer, data any) error {
	tmpl, err := r.template()
	if err != nil {
		return err
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render: execute %s: %w", r.name, err)
	}
	return nil
}

// Invalidate drops the cached template.
func (r *Renderer) Invalidate() {
	r.mu.Lock()
	r.tmpl = nil
	r.mu.Unlock()
}

func (r *Renderer) template() (*template.Template, error) {
	if r.autoReload {
		return r.parse()
	}

	r.mu.RLock()
	tmpl := r.tmpl
	r.mu.RUnlock()
	if tmpl != nil {
		return tmpl, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tmpl != nil {
		return r.tmpl, nil
	}
	tmpl, err := r.parse()
	if err != nil {
		return nil, err
	}
	r.tmpl = tmpl
	return tmpl, nil
}

func (r *Renderer) parse() (*template.Template, error) {
	tmpl, err := template.ParseFS(r.fsys, r.name)
	if err != nil {
		return nil, fmt.Errorf("render: parse %s: %w", r.name, err)
	}
	return tmpl, nil
}

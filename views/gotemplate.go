package views

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"path/filepath"
)

// GoTemplate renders templates with html/template.
type GoTemplate struct {
	root      string
	extension string
	funcs     template.FuncMap
	cache     cache[*template.Template]
}

var (
	_ Renderer = &GoTemplate{}
	_ Reloader = &GoTemplate{}
)

func NewGoTemplate(root, extension string) *GoTemplate {
	return &GoTemplate{root: root, extension: extension, funcs: template.FuncMap{}}
}

// WithFuncs adds functions that templates can call. This has to happen before the first render.
func (g *GoTemplate) WithFuncs(funcs template.FuncMap) *GoTemplate {
	for name, f := range funcs {
		g.funcs[name] = f
	}
	return g
}

// Render implements Renderer.
func (g *GoTemplate) Render(_ context.Context, w io.Writer, name string, data any) error {
	tmpl, err := g.cache.get(name, func() (*template.Template, error) {
		path, err := resolve(g.root, g.extension, name)
		if err != nil {
			return nil, err
		}
		// ParseFiles names the template after the file, so the root template has to match
		tmpl, err := template.New(filepath.Base(path)).Funcs(g.funcs).ParseFiles(path)
		if err != nil {
			return nil, fmt.Errorf("cannot parse template %q: %w", name, err)
		}
		return tmpl, nil
	})
	if err != nil {
		return err
	}

	return buffered(w, func(w io.Writer) error {
		return tmpl.Execute(w, data)
	})
}

// Reset implements Reloader.
func (g *GoTemplate) Reset() {
	g.cache.reset()
}

package views

import (
	"context"
	"fmt"
	"io"

	"github.com/cbroglie/mustache"
)

// Mustache renders logic-less mustache templates.
// Partials are looked up relative to the views root, e.g. {{> partials/header}}.
type Mustache struct {
	root      string
	extension string
	partials  *mustache.FileProvider
	cache     cache[*mustache.Template]
}

var (
	_ Renderer = &Mustache{}
	_ Reloader = &Mustache{}
)

func NewMustache(root, extension string) *Mustache {
	return &Mustache{
		root:      root,
		extension: extension,
		partials: &mustache.FileProvider{
			Paths:      []string{root},
			Extensions: []string{"." + extension},
		},
	}
}

// Render implements Renderer.
func (m *Mustache) Render(_ context.Context, w io.Writer, name string, data any) error {
	tmpl, err := m.cache.get(name, func() (*mustache.Template, error) {
		path, err := resolve(m.root, m.extension, name)
		if err != nil {
			return nil, err
		}
		tmpl, err := mustache.ParseFilePartials(path, m.partials)
		if err != nil {
			return nil, fmt.Errorf("cannot parse template %q: %w", name, err)
		}
		return tmpl, nil
	})
	if err != nil {
		return err
	}

	return buffered(w, func(w io.Writer) error {
		if data == nil {
			return tmpl.FRender(w)
		}
		return tmpl.FRender(w, data)
	})
}

// Reset implements Reloader.
func (m *Mustache) Reset() {
	m.cache.reset()
}

package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Components renders compiled templ components by name, which makes it possible to swap file
// based templates for generated ones without touching any routes.
//
// Example:
//
//	renderer := views.Components{
//		"index": func(_ any) templ.Component { return pages.Home() },
//	}
type Components map[string]func(data any) templ.Component

var _ Renderer = Components{}

// Render implements Renderer.
func (c Components) Render(ctx context.Context, w io.Writer, name string, data any) error {
	component, ok := c[name]
	if !ok {
		return fmt.Errorf("%w: no component registered for %q", ErrTemplateNotFound, name)
	}
	return buffered(w, func(w io.Writer) error {
		return component(data).Render(ctx, w)
	})
}

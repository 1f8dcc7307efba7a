// Package views binds a template engine to a file extension and a views root.
//
// Route handlers only depend on the [Renderer] interface: a template is addressed by its name
// relative to the views root, without extension, so "index" resolves to "<root>/index.html" when
// the engine is bound to the "html" extension.
package views

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/prior-it/bestiary/config"
)

var ErrTemplateNotFound = errors.New("template not found")

// A Renderer renders named templates.
// Implementations must not write anything to w when rendering fails.
type Renderer interface {
	Render(ctx context.Context, w io.Writer, name string, data any) error
}

// A Reloader can drop its cached templates so they are read from disk again on next use.
type Reloader interface {
	Reset()
}

// New creates the renderer for the engine selected in the configuration.
func New(cfg config.ViewsConfig) (Renderer, error) {
	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("cannot use views root %q: %w", cfg.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("views root %q is not a directory", cfg.Root)
	}
	switch cfg.Engine {
	case config.EngineMustache:
		return NewMustache(cfg.Root, cfg.Extension), nil
	case config.EngineGoTemplate:
		return NewGoTemplate(cfg.Root, cfg.Extension), nil
	default:
		return nil, fmt.Errorf("unknown view engine %q", cfg.Engine)
	}
}

// resolve returns the path of the template file for name, or ErrTemplateNotFound if there is none.
func resolve(root, extension, name string) (string, error) {
	if !fs.ValidPath(name) || name == "." {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	file := name
	if len(extension) > 0 {
		file += "." + strings.TrimPrefix(extension, ".")
	}
	path := filepath.Join(root, filepath.FromSlash(file))
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.Mode().IsRegular()) {
		return "", fmt.Errorf("%w: %q (looked for %s)", ErrTemplateNotFound, name, path)
	} else if err != nil {
		return "", fmt.Errorf("cannot open template %q: %w", name, err)
	}
	return path, nil
}

// buffered runs render against a buffer and only copies the result to w when it succeeded.
func buffered(w io.Writer, render func(w io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// cache holds parsed templates by name.
type cache[T any] struct {
	mu        sync.RWMutex
	templates map[string]T
}

func (c *cache[T]) get(name string, parse func() (T, error)) (T, error) {
	c.mu.RLock()
	tmpl, ok := c.templates[name]
	c.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	tmpl, err := parse()
	if err != nil {
		return tmpl, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.templates == nil {
		c.templates = make(map[string]T)
	}
	c.templates[name] = tmpl
	return tmpl, nil
}

func (c *cache[T]) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.templates)
}

package views_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/prior-it/bestiary/config"
	"github.com/prior-it/bestiary/tests"
	"github.com/prior-it/bestiary/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, renderer views.Renderer, name string, data any) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	err := renderer.Render(context.Background(), &buf, name, data)
	return buf.String(), err
}

func TestMustache(t *testing.T) {
	root := tests.WriteFiles(t, map[string]string{
		"index.html":           "<h1>Welcome to the lair</h1>",
		"greeting.html":        "{{> partials/header}}<p>Hello {{name}}</p>",
		"partials/header.html": "<header>{{title}}</header>",
		"monsters/index.html":  "{{#monsters}}<li>{{name}}</li>{{/monsters}}",
		"broken.html":          "{{#unclosed}}",
		"other.mustache":       "wrong extension",
		"directory.html/.keep": "",
	})
	renderer := views.NewMustache(root, "html")

	t.Run("ok: render template without data", func(t *testing.T) {
		out, err := render(t, renderer, "index", nil)
		require.NoError(t, err)
		assert.Equal(t, "<h1>Welcome to the lair</h1>", out)
	})

	t.Run("ok: render template with data and partials", func(t *testing.T) {
		out, err := render(t, renderer, "greeting", map[string]any{
			"title": "Bestiary",
			"name":  "<Grendel>",
		})
		require.NoError(t, err)
		assert.Equal(t, "<header>Bestiary</header><p>Hello &lt;Grendel&gt;</p>", out)
	})

	t.Run("ok: nested template names", func(t *testing.T) {
		out, err := render(t, renderer, "monsters/index", map[string]any{
			"monsters": []map[string]string{{"name": "Kraken"}, {"name": "Hydra"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "<li>Kraken</li><li>Hydra</li>", out)
	})

	t.Run("err: missing templates are not found", func(t *testing.T) {
		for _, name := range []string{"missing", "other", "directory", "../index", "/index", "", "."} {
			var buf bytes.Buffer
			err := renderer.Render(context.Background(), &buf, name, nil)
			assert.ErrorIs(t, err, views.ErrTemplateNotFound, name)
			assert.Empty(t, buf.String(), "nothing should be written for %q", name)
		}
	})

	t.Run("err: parse errors write nothing", func(t *testing.T) {
		out, err := render(t, renderer, "broken", nil)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, views.ErrTemplateNotFound)
		assert.Empty(t, out)
	})

	t.Run("ok: templates are cached until reset", func(t *testing.T) {
		path := filepath.Join(root, "cached.html")
		tests.Check(os.WriteFile(path, []byte("first"), 0o600))
		out, err := render(t, renderer, "cached", nil)
		require.NoError(t, err)
		assert.Equal(t, "first", out)

		tests.Check(os.WriteFile(path, []byte("second"), 0o600))
		out, err = render(t, renderer, "cached", nil)
		require.NoError(t, err)
		assert.Equal(t, "first", out)

		renderer.Reset()
		out, err = render(t, renderer, "cached", nil)
		require.NoError(t, err)
		assert.Equal(t, "second", out)
	})
}

func TestGoTemplate(t *testing.T) {
	root := tests.WriteFiles(t, map[string]string{
		"index.gohtml":          `<p>{{.Name}}</p>`,
		"monsters/shout.gohtml": `{{shout .}}`,
		"broken.gohtml":         `{{.Name`,
	})
	renderer := views.NewGoTemplate(root, "gohtml").WithFuncs(map[string]any{
		"shout": func(s string) string { return s + "!" },
	})

	t.Run("ok: render with escaping", func(t *testing.T) {
		out, err := render(t, renderer, "index", struct{ Name string }{"<Medusa>"})
		require.NoError(t, err)
		assert.Equal(t, "<p>&lt;Medusa&gt;</p>", out)
	})

	t.Run("ok: render with functions", func(t *testing.T) {
		out, err := render(t, renderer, "monsters/shout", "roar")
		require.NoError(t, err)
		assert.Equal(t, "roar!", out)
	})

	t.Run("err: missing template", func(t *testing.T) {
		out, err := render(t, renderer, "missing", nil)
		assert.ErrorIs(t, err, views.ErrTemplateNotFound)
		assert.Empty(t, out)
	})

	t.Run("err: execution errors write nothing", func(t *testing.T) {
		out, err := render(t, renderer, "broken", nil)
		assert.Error(t, err)
		assert.Empty(t, out)
	})
}

func TestComponents(t *testing.T) {
	renderer := views.Components{
		"index": func(data any) templ.Component {
			return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
				_, err := io.WriteString(w, "<h1>"+templ.EscapeString(data.(string))+"</h1>")
				return err
			})
		},
		"failing": func(_ any) templ.Component {
			return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
				_, _ = io.WriteString(w, "partial output")
				return assert.AnError
			})
		},
	}

	t.Run("ok: render registered component", func(t *testing.T) {
		out, err := render(t, renderer, "index", "<Cerberus>")
		require.NoError(t, err)
		assert.Equal(t, "<h1>&lt;Cerberus&gt;</h1>", out)
	})

	t.Run("err: unknown component", func(t *testing.T) {
		_, err := render(t, renderer, "missing", nil)
		assert.ErrorIs(t, err, views.ErrTemplateNotFound)
	})

	t.Run("err: failing component writes nothing", func(t *testing.T) {
		out, err := render(t, renderer, "failing", nil)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Empty(t, out)
	})
}

func TestNew(t *testing.T) {
	root := tests.WriteFiles(t, map[string]string{"index.html": "hi"})

	t.Run("ok: engines are selected by name", func(t *testing.T) {
		renderer, err := views.New(config.ViewsConfig{Root: root, Extension: "html", Engine: config.EngineMustache})
		require.NoError(t, err)
		assert.IsType(t, &views.Mustache{}, renderer)

		renderer, err = views.New(config.ViewsConfig{Root: root, Extension: "html", Engine: config.EngineGoTemplate})
		require.NoError(t, err)
		assert.IsType(t, &views.GoTemplate{}, renderer)
	})

	t.Run("err: unknown engine", func(t *testing.T) {
		_, err := views.New(config.ViewsConfig{Root: root, Extension: "html", Engine: "jade"})
		assert.ErrorContains(t, err, "unknown view engine")
	})

	t.Run("err: missing root", func(t *testing.T) {
		_, err := views.New(config.ViewsConfig{
			Root:   filepath.Join(root, "nope"),
			Engine: config.EngineMustache,
		})
		assert.Error(t, err)
	})

	t.Run("err: root is a file", func(t *testing.T) {
		_, err := views.New(config.ViewsConfig{
			Root:   filepath.Join(root, "index.html"),
			Engine: config.EngineMustache,
		})
		assert.ErrorContains(t, err, "not a directory")
	})
}

func TestWatcher(t *testing.T) {
	root := tests.WriteFiles(t, map[string]string{"index.html": "old", "partials/header.html": ""})
	changes := make(chan struct{}, 10)
	watcher, err := views.NewWatcher(root, 20*time.Millisecond, func() {
		changes <- struct{}{}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Run(ctx)

	t.Run("ok: changes are reported", func(t *testing.T) {
		tests.Check(os.WriteFile(filepath.Join(root, "index.html"), []byte("new"), 0o600))
		select {
		case <-changes:
		case <-time.After(5 * time.Second):
			t.Fatal("expected a change notification")
		}
	})

	t.Run("ok: changes in subdirectories are reported", func(t *testing.T) {
		tests.Check(os.WriteFile(filepath.Join(root, "partials", "header.html"), []byte("<header>"), 0o600))
		select {
		case <-changes:
		case <-time.After(5 * time.Second):
			t.Fatal("expected a change notification")
		}
	})

	t.Run("err: missing root", func(t *testing.T) {
		_, err := views.NewWatcher(filepath.Join(root, "missing"), time.Millisecond, func() {})
		assert.Error(t, err)
	})
}

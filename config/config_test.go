package config_test

import (
	"testing"
	"testing/fstest"

	"github.com/prior-it/bestiary/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv makes sure the host environment does not leak into the configuration under test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "APP_PORT", "APP_HOST", "APP_DEBUG", "VIEWS_ROOT", "VIEWS_ENGINE", "STATIC_ROOT",
	} {
		t.Setenv(key, "")
	}
}

func TestParsePort(t *testing.T) {
	t.Run("ok: valid ports", func(t *testing.T) {
		for value, expected := range map[string]config.Port{
			"1":      1,
			"8000":   8000,
			" 3000 ": 3000,
			"65535":  65535,
		} {
			port, err := config.ParsePort(value)
			require.NoError(t, err, value)
			assert.Equal(t, expected, port, value)
		}
	})

	t.Run("err: unusable ports", func(t *testing.T) {
		for _, value := range []string{"", "0", "-1", "65536", "abc", "80a", "8000.5"} {
			_, err := config.ParsePort(value)
			assert.ErrorIs(t, err, config.ErrInvalidPort, value)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("ok: defaults without config file or environment", func(t *testing.T) {
		clearEnv(t)
		cfg, err := config.Load(fstest.MapFS{})
		require.NoError(t, err)
		assert.Equal(t, config.DefaultPort, cfg.App.Port)
		assert.Equal(t, config.Port(8000), cfg.App.Port)
		assert.Equal(t, ":8000", cfg.Addr())
		assert.Equal(t, "web/views", cfg.Views.Root)
		assert.Equal(t, "html", cfg.Views.Extension)
		assert.Equal(t, config.EngineMustache, cfg.Views.Engine)
		assert.Equal(t, "web/public", cfg.Static.Root)
	})

	t.Run("ok: PORT selects the port", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORT", "9123")
		cfg, err := config.Load(fstest.MapFS{})
		require.NoError(t, err)
		assert.Equal(t, config.Port(9123), cfg.App.Port)
	})

	t.Run("ok: PORT wins over APP_PORT", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_PORT", "9001")
		t.Setenv("PORT", "9002")
		cfg, err := config.Load(fstest.MapFS{})
		require.NoError(t, err)
		assert.Equal(t, config.Port(9002), cfg.App.Port)
	})

	t.Run("ok: config file is overridden by the environment", func(t *testing.T) {
		clearEnv(t)
		configFS := fstest.MapFS{
			"config.toml": &fstest.MapFile{Data: []byte(`
[app]
port = 4000
host = "127.0.0.1"
name = "lair"

[views]
root = "templates"
extension = ".mustache"
`)},
		}
		cfg, err := config.Load(configFS)
		require.NoError(t, err)
		assert.Equal(t, config.Port(4000), cfg.App.Port)
		assert.Equal(t, "127.0.0.1:4000", cfg.Addr())
		assert.Equal(t, "lair", cfg.App.Name)
		assert.Equal(t, "templates", cfg.Views.Root)
		assert.Equal(t, "mustache", cfg.Views.Extension, "the leading dot should be dropped")

		t.Setenv("PORT", "4001")
		t.Setenv("VIEWS_ROOT", "other")
		cfg, err = config.Load(configFS)
		require.NoError(t, err)
		assert.Equal(t, config.Port(4001), cfg.App.Port)
		assert.Equal(t, "other", cfg.Views.Root)
	})

	t.Run("err: non-numeric PORT fails startup", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORT", "eight-thousand")
		cfg, err := config.Load(fstest.MapFS{})
		assert.Nil(t, cfg)
		assert.ErrorContains(t, err, "invalid port")
	})

	t.Run("err: PORT out of range fails startup", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORT", "70000")
		_, err := config.Load(fstest.MapFS{})
		assert.ErrorContains(t, err, "invalid port")
	})

	t.Run("err: unusable port in the config file fails startup", func(t *testing.T) {
		for _, port := range []string{"70000", "-1", "0", "80.5"} {
			clearEnv(t)
			cfg, err := config.Load(fstest.MapFS{
				"config.toml": &fstest.MapFile{Data: []byte("[app]\nport = " + port)},
			})
			assert.Nil(t, cfg, port)
			assert.ErrorContains(t, err, "invalid port", port)
		}
	})

	t.Run("ok: quoted port in the config file", func(t *testing.T) {
		clearEnv(t)
		cfg, err := config.Load(fstest.MapFS{
			"config.toml": &fstest.MapFile{Data: []byte("[app]\nport = \"8123\"")},
		})
		require.NoError(t, err)
		assert.Equal(t, config.Port(8123), cfg.App.Port)
	})

	t.Run("err: unknown view engine", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("VIEWS_ENGINE", "handlebars")
		_, err := config.Load(fstest.MapFS{})
		assert.ErrorContains(t, err, "unknown view engine")
	})

	t.Run("err: malformed config file", func(t *testing.T) {
		clearEnv(t)
		_, err := config.Load(fstest.MapFS{
			"config.toml": &fstest.MapFile{Data: []byte("[app\nport = ")},
		})
		assert.Error(t, err)
	})
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", config.LogLevel("debug").ToSlog().String())
	assert.Equal(t, "WARN", config.LogLevelWarn.ToSlog().String())
	assert.Equal(t, "INFO", config.LogLevel("nonsense").ToSlog().String())
}

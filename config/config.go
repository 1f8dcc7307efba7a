package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

func (l LogLevel) ToSlog() slog.Level {
	switch LogLevel(strings.ToUpper(string(l))) {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type LogFormat string

const (
	LogFormatPlaintext LogFormat = "plaintext"
	LogFormatJSON      LogFormat = "json"
)

type AppEnv string

const (
	AppEnvDev        AppEnv = "dev"
	AppEnvProduction AppEnv = "production"
)

// Template engines that can be bound to the views extension.
const (
	EngineMustache   = "mustache"
	EngineGoTemplate = "gotemplate"
)

// DefaultPort is used when neither PORT nor APP_PORT is set.
const DefaultPort Port = 8000

// ErrInvalidPort is returned for PORT values that cannot be listened on.
var ErrInvalidPort = errors.New("invalid port")

// Port is a TCP port number in the range 1-65535.
type Port uint16

// ParsePort parses a decimal port number. Zero and values outside of the
// 16-bit range are rejected.
func ParsePort(value string) (Port, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrInvalidPort, value, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w %q: port must be between 1 and 65535", ErrInvalidPort, value)
	}
	return Port(n), nil
}

func (p *Port) UnmarshalText(text []byte) error {
	port, err := ParsePort(string(text))
	if err != nil {
		return err
	}
	*p = port
	return nil
}

func (p Port) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

// portHookFunc decodes strings and numbers into a Port through ParsePort, so out of range values
// in config.toml are rejected instead of being truncated to 16 bits.
func portHookFunc() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(Port(0)) {
			return data, nil
		}
		switch value := data.(type) {
		case string:
			return ParsePort(value)
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			return ParsePort(fmt.Sprint(value))
		}
		return data, nil
	}
}

type Config struct {
	App    AppConfig
	Views  ViewsConfig
	Static StaticConfig
	Log    LogConfig
	Sentry SentryConfig
}

type AppConfig struct {
	Debug             bool
	Port              Port
	Host              string
	Name              string
	Env               AppEnv
	Version           string
	ShutdownTimeout   int32  // in seconds
	RequestTimeout    uint32 // in seconds
	AuthenticationKey string `mapstructure:"AUTHKEY"`
	EncryptionKey     string `mapstructure:"ENCKEY"`
}

type ViewsConfig struct {
	// Directory containing the view templates
	Root string
	// File extension the template engine is bound to, without the leading dot
	Extension string
	Engine    string
}

type StaticConfig struct {
	// Directory containing publicly served files
	Root string
}

type LogConfig struct {
	Format  LogFormat
	Level   LogLevel
	Verbose bool
}

type SentryConfig struct {
	Enabled    bool
	DSN        string
	SampleRate float64
	TracesRate float64
}

// Addr returns the address the server should listen on.
// An empty host listens on all interfaces.
func (c Config) Addr() string {
	return net.JoinHostPort(c.App.Host, c.App.Port.String())
}

func (c *Config) IsTest() bool {
	return flag.Lookup("test.v") != nil || strings.HasSuffix(os.Args[0], ".test") ||
		strings.Contains(os.Args[0], "/_test/")
}

// Validate checks the settings that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	var errs []error
	if c.App.Port == 0 {
		errs = append(errs, fmt.Errorf("%w: port must be between 1 and 65535", ErrInvalidPort))
	}
	if len(c.Views.Root) == 0 {
		errs = append(errs, errors.New("views root cannot be empty"))
	}
	if len(c.Static.Root) == 0 {
		errs = append(errs, errors.New("static root cannot be empty"))
	}
	switch c.Views.Engine {
	case EngineMustache, EngineGoTemplate:
	default:
		errs = append(errs, fmt.Errorf("unknown view engine %q", c.Views.Engine))
	}
	return errors.Join(errs...)
}

func setDefaults(reader *viper.Viper) {
	reader.SetDefault("app_port", DefaultPort.String())
	reader.SetDefault("app_host", "")
	reader.SetDefault("app_name", "bestiary")
	reader.SetDefault("app_env", string(AppEnvProduction))
	reader.SetDefault("app_version", "dev")
	reader.SetDefault("app_debug", false)
	reader.SetDefault("app_shutdowntimeout", 2)
	reader.SetDefault("app_requesttimeout", 30)
	reader.SetDefault("app_authkey", "")
	reader.SetDefault("app_enckey", "")
	reader.SetDefault("views_root", "web/views")
	reader.SetDefault("views_extension", "html")
	reader.SetDefault("views_engine", EngineMustache)
	reader.SetDefault("static_root", "web/public")
	reader.SetDefault("log_format", string(LogFormatJSON))
	reader.SetDefault("log_level", string(LogLevelInfo))
	reader.SetDefault("log_verbose", false)
	reader.SetDefault("sentry_enabled", false)
	reader.SetDefault("sentry_dsn", "")
	reader.SetDefault("sentry_samplerate", 1.0)
	reader.SetDefault("sentry_tracesrate", 0.0)
}

// Load the configuration from the specified filesystem.
// The optional config.toml in configFS overrides the built-in defaults, after which the
// environment (and any .env files) override both. PORT takes precedence over APP_PORT.
// You can specify additional .env files to load, by default this only checks for ".env" in the
// current working directory.
func Load(configFS fs.FS, dotenvFiles ...string) (*Config, error) {
	reader := viper.NewWithOptions(viper.KeyDelimiter("_"))
	reader.SetConfigType("toml")
	setDefaults(reader)

	file, err := configFS.Open("config.toml")
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("No config.toml found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("could not open config.toml: %w", err)
	default:
		defer file.Close()
		if err = reader.ReadConfig(file); err != nil {
			return nil, fmt.Errorf("could not load the app configuration: %w", err)
		}
	}

	// Environment override
	err = godotenv.Load(dotenvFiles...)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("No .env file found, continuing...")
	} else if err != nil {
		return nil, fmt.Errorf(".env file found, but could not load it: %w", err)
	}
	reader.AutomaticEnv()
	if err = reader.BindEnv("app_port", "PORT", "APP_PORT"); err != nil {
		return nil, fmt.Errorf("could not bind the port environment: %w", err)
	}

	var config Config
	if err := reader.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			portHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)); err != nil {
		return nil, fmt.Errorf("invalid config format: %w", err)
	}
	config.Views.Extension = strings.TrimPrefix(config.Views.Extension, ".")

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if config.App.Debug && !config.IsTest() {
		slog.Warn("APP_DEBUG is turned on, do not run this mode in production!")
	}

	return &config, nil
}

// Package config loads the server configuration.
//
// Sources are layered, later ones overriding earlier ones: embedded
// defaults, a YAML or JSON file (from the caller or CONFIG_PATH), a JSON
// document in CONFIG_JSON, and finally explicit overrides such as command
// line flags.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/meigma/spacache"
)

//go:embed config.default.yaml
var defaultConfig []byte

// Config is the server configuration.
type Config struct {
	// Root is the asset directory.
	Root string `key:"root"`

	// Addr is the listen address for assets.
	Addr string `key:"addr"`

	// MetricsAddr is the listen address for /metrics. Empty disables it.
	MetricsAddr string `key:"metricsAddr"`

	// Encoding names the precompression algorithm: br, gzip or zstd.
	Encoding string `key:"encoding"`

	// Workers caps concurrent file processing. Zero uses GOMAXPROCS.
	Workers int `key:"workers"`

	// MaxFiles limits the asset count. Zero uses the library default,
	// negative disables the limit.
	MaxFiles int `key:"maxFiles"`

	// CacheControl, when set, is sent with every asset.
	CacheControl string `key:"cacheControl"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `key:"shutdownTimeout"`

	Log LogConfig `key:"log"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `key:"level"`

	// Format is text or json.
	Format string `key:"format"`
}

// ConfigFormat is a file extension naming a parser.
type ConfigFormat string

var (
	JSONConfigFormat ConfigFormat = ".json"
	YAMLConfigFormat ConfigFormat = ".yaml"
	YMLConfigFormat  ConfigFormat = ".yml"

	parserMap = map[ConfigFormat]func() koanf.Parser{
		JSONConfigFormat: func() koanf.Parser { return json.Parser() },
		YAMLConfigFormat: func() koanf.Parser { return yaml.Parser() },
		YMLConfigFormat:  func() koanf.Parser { return yaml.Parser() },
	}
)

// GetConfigParser returns the parser for a format.
func GetConfigParser(format ConfigFormat) (koanf.Parser, error) {
	if fn, ok := parserMap[ConfigFormat(strings.ToLower(string(format)))]; ok {
		return fn(), nil
	}
	return nil, fmt.Errorf("no parser for config format %q", format)
}

// Load builds a Config. path may be empty, in which case CONFIG_PATH is
// consulted. overrides maps dotted keys (for example "log.level") to values
// and is applied last.
func Load(path string, overrides map[string]any) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultConfig), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load default config: %w", err)
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		parser, err := GetConfigParser(ConfigFormat(filepath.Ext(path)))
		if err != nil {
			return Config{}, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if raw := os.Getenv("CONFIG_JSON"); raw != "" {
		if err := k.Load(rawbytes.Provider([]byte(raw)), json.Parser()); err != nil {
			return Config{}, fmt.Errorf("load CONFIG_JSON: %w", err)
		}
	}

	if len(overrides) > 0 {
		raw, err := json.Parser().Marshal(nest(overrides))
		if err != nil {
			return Config{}, fmt.Errorf("encode overrides: %w", err)
		}
		if err := k.Load(rawbytes.Provider(raw), json.Parser()); err != nil {
			return Config{}, fmt.Errorf("load overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "key"}); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// nest expands dotted keys into nested maps.
func nest(flat map[string]any) map[string]any {
	tree := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, ".")
		m := tree
		for _, part := range parts[:len(parts)-1] {
			next, ok := m[part].(map[string]any)
			if !ok {
				next = make(map[string]any)
				m[part] = next
			}
			m = next
		}
		m[parts[len(parts)-1]] = value
	}
	return tree
}

// Validate checks the configuration for values the server cannot use.
func (c Config) Validate() error {
	var errs []error
	if c.Root == "" {
		errs = append(errs, errors.New("root must be set"))
	}
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must be set"))
	}
	if _, err := c.ParseEncoding(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Log.ParseLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if c.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("shutdownTimeout must not be negative"))
	}
	return errors.Join(errs...)
}

// ParseEncoding returns the configured precompression encoding.
func (c Config) ParseEncoding() (spacache.Encoding, error) {
	return spacache.ParseEncoding(c.Encoding)
}

// ParseLevel returns the configured slog level.
func (l LogConfig) ParseLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", l.Level)
	}
	return level, nil
}

// Package config loads circuitry settings from a YAML file and CIRCUITRY_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CIRCUITRY_"

// Config is the full application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
	Engine  EngineConfig  `mapstructure:"engine" yaml:"engine"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Library LibraryConfig `mapstructure:"library" yaml:"library"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

type StoreConfig struct {
	Driver string      `mapstructure:"driver" yaml:"driver" validate:"oneof=memory file redis"`
	Path   string      `mapstructure:"path" yaml:"path"`
	Format string      `mapstructure:"format" yaml:"format" validate:"oneof=json yaml"`
	Redis  RedisConfig `mapstructure:"redis" yaml:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr" validate:"omitempty,hostname_port"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db" validate:"gte=0,lte=15"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl" validate:"gte=0"`
}

type HistoryConfig struct {
	// Capacity bounds the undo stack per workspace.
	Capacity int `mapstructure:"capacity" yaml:"capacity" validate:"gte=1"`
}

type EngineConfig struct {
	// SettleLimit caps re-evaluations of one component per propagation.
	SettleLimit int `mapstructure:"settle_limit" yaml:"settle_limit" validate:"gte=1"`
}

type ServerConfig struct {
	Addr    string `mapstructure:"addr" yaml:"addr" validate:"required"`
	Metrics bool   `mapstructure:"metrics" yaml:"metrics"`
}

type LibraryConfig struct {
	// Path is a read-only loam directory of custom component documents.
	Path string `mapstructure:"path" yaml:"path"`
}

// envKeys maps environment variables (without prefix) to dotted config keys.
var envKeys = map[string]string{
	"LOG_LEVEL":            "log.level",
	"LOG_FORMAT":           "log.format",
	"STORE_DRIVER":         "store.driver",
	"STORE_PATH":           "store.path",
	"STORE_FORMAT":         "store.format",
	"STORE_REDIS_ADDR":     "store.redis.addr",
	"STORE_REDIS_PASSWORD": "store.redis.password",
	"STORE_REDIS_DB":       "store.redis.db",
	"STORE_REDIS_PREFIX":   "store.redis.prefix",
	"STORE_REDIS_TTL":      "store.redis.ttl",
	"HISTORY_CAPACITY":     "history.capacity",
	"ENGINE_SETTLE_LIMIT":  "engine.settle_limit",
	"SERVER_ADDR":          "server.addr",
	"SERVER_METRICS":       "server.metrics",
	"LIBRARY_PATH":         "library.path",
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() map[string]any {
	return map[string]any{
		"log": map[string]any{
			"level":  "info",
			"format": "text",
		},
		"store": map[string]any{
			"driver": "file",
			"path":   ".circuitry",
			"format": "json",
			"redis": map[string]any{
				"addr":   "localhost:6379",
				"db":     0,
				"prefix": "circuitry:",
				"ttl":    "0s",
			},
		},
		"history": map[string]any{"capacity": 256},
		"engine":  map[string]any{"settle_limit": 1000},
		"server":  map[string]any{"addr": ":8080", "metrics": true},
		"library": map[string]any{"path": ""},
	}
}

// Load builds a Config from the defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string, environ []string) (*Config, error) {
	raw := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		var file map[string]any
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		merge(raw, file)
	}

	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		key, known := envKeys[strings.TrimPrefix(name, EnvPrefix)]
		if !known {
			continue
		}
		set(raw, key, value)
	}

	cfg, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(raw map[string]any) (*Config, error) {
	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	switch c.Store.Driver {
	case "file":
		if c.Store.Path == "" {
			return errors.New("invalid config: store.path is required for the file driver")
		}
	case "redis":
		if c.Store.Redis.Addr == "" {
			return errors.New("invalid config: store.redis.addr is required for the redis driver")
		}
	}
	return nil
}

// merge copies src into dst, descending into nested maps.
func merge(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				merge(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}

// set assigns value at a dotted key, creating intermediate maps.
func set(m map[string]any, key, value string) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// Package config loads pdfseal settings from PDFSEAL_* environment
// variables and an optional JSON file named by PDFSEAL_CONFIG.
//
// Precedence, highest first: environment, JSON file, defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
)

const EnvPrefix = "PDFSEAL_"

// Key store backends
const (
	BackendBolt    = "bolt"
	BackendKeyring = "keyring"
	BackendMemory  = "memory"
)

// Log output formats
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

var (
	ErrInvalidBackend   = errors.New("invalid key backend")
	ErrInvalidChunkSize = errors.New("invalid chunk size")
	ErrInvalidLogFormat = errors.New("invalid log format")
)

// Config holds all pdfseal settings
type Config struct {
	// KeyBackend selects where keys are persisted: bolt, keyring or memory.
	// Env: PDFSEAL_KEY_BACKEND
	KeyBackend string `env:"KEY_BACKEND" json:"key_backend"`

	// KeyDBPath is the bbolt key database file.
	// Env: PDFSEAL_KEY_DB
	KeyDBPath string `env:"KEY_DB" json:"key_db"`

	// KeyringService is the OS keyring service name.
	// Env: PDFSEAL_KEYRING_SERVICE
	KeyringService string `env:"KEYRING_SERVICE" json:"keyring_service"`

	// Env: PDFSEAL_LOG_LEVEL
	LogLevel string `env:"LOG_LEVEL" json:"log_level"`

	// Env: PDFSEAL_LOG_FORMAT
	LogFormat string `env:"LOG_FORMAT" json:"log_format"`

	// ChunkSize is the progress reporting granularity in bytes.
	// Env: PDFSEAL_CHUNK_SIZE
	ChunkSize int `env:"CHUNK_SIZE" json:"chunk_size"`

	// Env: PDFSEAL_NO_COLOR
	NoColor bool `env:"NO_COLOR" json:"no_color"`

	// JSONFilePath names an optional JSON file merged below the environment.
	// Env: PDFSEAL_CONFIG
	JSONFilePath string `env:"CONFIG" json:"-"`
}

// Default returns the built-in settings
func Default() *Config {
	dbPath := filepath.Join(".pdfseal", "keys.db")
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, ".pdfseal", "keys.db")
	}

	return &Config{
		KeyBackend:     BackendBolt,
		KeyDBPath:      dbPath,
		KeyringService: "pdfseal",
		LogLevel:       "warn",
		LogFormat:      LogFormatConsole,
		ChunkSize:      256 * 1024,
	}
}

// Load reads the environment, then the JSON file if one is named,
// fills the remaining fields from Default and validates the result.
func Load() (*Config, error) {
	return newBuilder().
		withEnv().
		withJSON().
		withDefaults().
		build()
}

type builder struct {
	configs []*Config
	err     error
}

func newBuilder() *builder {
	return &builder{configs: make([]*Config, 0, 3)}
}

func (b *builder) build() (*Config, error) {
	if b.err != nil {
		return nil, fmt.Errorf("failed to load config: %w", b.err)
	}

	cfg := new(Config)
	for _, c := range b.configs {
		if err := mergo.Merge(cfg, c); err != nil {
			return nil, fmt.Errorf("failed to merge config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (b *builder) withEnv() *builder {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		b.err = errors.Join(b.err, fmt.Errorf("failed to parse environment: %w", err))
		return b
	}
	b.configs = append(b.configs, cfg)
	return b
}

func (b *builder) withJSON() *builder {
	var path string
	for _, c := range b.configs {
		if c.JSONFilePath != "" {
			path = c.JSONFilePath
		}
	}
	if path == "" {
		return b
	}

	cfg, err := parseJSON(path)
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	b.configs = append(b.configs, cfg)
	return b
}

func (b *builder) withDefaults() *builder {
	b.configs = append(b.configs, Default())
	return b
}

func parseJSON(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()

	cfg := &Config{}
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the merged settings
func (c *Config) Validate() error {
	switch c.KeyBackend {
	case BackendBolt:
		if c.KeyDBPath == "" {
			return fmt.Errorf("%w: bolt backend needs a key database path", ErrInvalidBackend)
		}
	case BackendKeyring, BackendMemory:
	default:
		return fmt.Errorf("%w: %q (want bolt, keyring or memory)", ErrInvalidBackend, c.KeyBackend)
	}

	if c.ChunkSize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChunkSize, c.ChunkSize)
	}

	switch c.LogFormat {
	case LogFormatConsole, LogFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.LogFormat)
	}
	return nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"tableDB/internal/logging"
)

// Config holds the settings for a tableDB host process.
type Config struct {
	// SaveDir is the directory the store keeps its tables in.
	SaveDir string `yaml:"save_dir" json:"save_dir" toml:"save_dir"`

	// Store selects the backend: "file" or "leveldb".
	Store string `yaml:"store" json:"store" toml:"store"`

	Log LogConfig `yaml:"log" json:"log" toml:"log"`

	// LoadOnStart loads every registered table when the manager starts.
	LoadOnStart bool `yaml:"load_on_start" json:"load_on_start" toml:"load_on_start"`

	// StringCapacity is the byte capacity given to new String columns that
	// do not ask for one.
	StringCapacity int `yaml:"string_capacity" json:"string_capacity" toml:"string_capacity"`
}

const (
	StoreFile    = "file"
	StoreLevelDB = "leveldb"
)

type LogConfig struct {
	Level  string `yaml:"level" json:"level" toml:"level"`
	Format string `yaml:"format" json:"format" toml:"format"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		SaveDir: "SaveData",
		Store:   StoreFile,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		LoadOnStart:    true,
		StringCapacity: 255,
	}
}

// LoadFile reads a YAML, JSON or TOML file, picked by extension, then applies
// environment overrides and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg *Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		cfg, err = parseYAML(data)
	case ".json":
		cfg, err = parseJSON(data)
	case ".toml":
		cfg, err = parseTOML(data)
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json, .toml)", ext)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadYAML parses YAML on top of the defaults and validates it. Environment
// variables are not consulted.
func LoadYAML(data []byte) (*Config, error) {
	cfg, err := parseYAML(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func parseYAML(data []byte) (*Config, error) {
	cfg := Default()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	return cfg, nil
}

func parseJSON(data []byte) (*Config, error) {
	cfg := Default()
	if len(data) > 0 {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	}
	return cfg, nil
}

func parseTOML(data []byte) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment:
//   - TABLEDB_SAVE_DIR=SaveData
//   - TABLEDB_STORE=leveldb
//   - TABLEDB_LOG_LEVEL=debug
//   - TABLEDB_LOG_FORMAT=json
//   - TABLEDB_LOAD_ON_START=false
//   - TABLEDB_STRING_CAPACITY=64
func (c *Config) ApplyEnv() error {
	if val := os.Getenv("TABLEDB_SAVE_DIR"); val != "" {
		c.SaveDir = val
	}
	if val := os.Getenv("TABLEDB_STORE"); val != "" {
		c.Store = val
	}
	if val := os.Getenv("TABLEDB_LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("TABLEDB_LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
	if val := os.Getenv("TABLEDB_LOAD_ON_START"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid TABLEDB_LOAD_ON_START: %w", err)
		}
		c.LoadOnStart = b
	}
	if val := os.Getenv("TABLEDB_STRING_CAPACITY"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid TABLEDB_STRING_CAPACITY: %w", err)
		}
		c.StringCapacity = n
	}
	return nil
}

// Validate checks the configuration for values the rest of the program
// cannot use.
func (c *Config) Validate() error {
	if c.SaveDir == "" {
		return fmt.Errorf("save_dir is required")
	}
	switch c.Store {
	case StoreFile, StoreLevelDB:
	default:
		return fmt.Errorf("store must be %s or %s, got %q", StoreFile, StoreLevelDB, c.Store)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.StringCapacity <= 0 {
		return fmt.Errorf("string_capacity must be positive, got %d", c.StringCapacity)
	}
	return nil
}

// Logger builds the logger described by the log section.
func (c *Config) Logger() (*logging.Logger, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewWriter(os.Stderr, c.Log.Format, level)
}

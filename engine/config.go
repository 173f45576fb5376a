package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for engine creation
type Config struct {
	// LogLevel is read by the CLI to build the zap logger
	// (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32 `yaml:"memory_limit_pages"`

	// Interpreter forces the wazero interpreter instead of the compiler.
	Interpreter bool `yaml:"interpreter"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() *Config {
	return &Config{LogLevel: "warn"}
}

// LoadConfig reads a YAML config file. Missing fields keep their defaults;
// unknown fields are rejected.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

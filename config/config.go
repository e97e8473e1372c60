// Package config holds the simulator's run configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"go.yaml.in/yaml/v3"

	"github.com/sarchlab/rv64sim/emu"
)

// MaxMemorySize is the largest bus Validate accepts (4GB).
const MaxMemorySize uint64 = 1 << 32

// DecodeCacheConfig configures the emulator's decoded-instruction cache.
type DecodeCacheConfig struct {
	// Enabled turns the cache on. Default: false.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Sets is the number of sets. Default: 64.
	Sets int `json:"sets" yaml:"sets"`

	// Ways is the associativity. Default: 4.
	Ways int `json:"ways" yaml:"ways"`

	// BlockSize is the bytes of code per entry, a multiple of 4.
	// Default: 64.
	BlockSize int `json:"block_size" yaml:"block_size"`
}

// Config holds the settings for one simulation run.
type Config struct {
	// MemorySize is the size of the bus in bytes. Default: 16MB.
	MemorySize uint64 `json:"memory_size" yaml:"memory_size"`

	// MaxInstructions stops the run after this many retired instructions.
	// 0 means no limit. Default: 0.
	MaxInstructions uint64 `json:"max_instructions" yaml:"max_instructions"`

	// LogLevel is a logrus level name. Default: "info".
	LogLevel string `json:"log_level" yaml:"log_level"`

	DecodeCache DecodeCacheConfig `json:"decode_cache" yaml:"decode_cache"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	dc := emu.DefaultDecodeCacheConfig()
	return &Config{
		MemorySize:      emu.DefaultMemorySize,
		MaxInstructions: 0,
		LogLevel:        logrus.InfoLevel.String(),
		DecodeCache: DecodeCacheConfig{
			Enabled:   false,
			Sets:      dc.Sets,
			Ways:      dc.Ways,
			BlockSize: dc.BlockSize,
		},
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadConfig loads a Config from a JSON or YAML file, chosen by extension.
// Fields missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON or YAML file, chosen by extension.
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration can build an emulator.
func (c *Config) Validate() error {
	if c.MemorySize == 0 {
		return fmt.Errorf("memory_size must be > 0")
	}
	if c.MemorySize > MaxMemorySize {
		return fmt.Errorf("memory_size must be <= %d", MaxMemorySize)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.DecodeCache.Enabled {
		if c.DecodeCache.Sets <= 0 {
			return fmt.Errorf("decode_cache.sets must be > 0")
		}
		if c.DecodeCache.Ways <= 0 {
			return fmt.Errorf("decode_cache.ways must be > 0")
		}
		if c.DecodeCache.BlockSize <= 0 || c.DecodeCache.BlockSize%4 != 0 {
			return fmt.Errorf("decode_cache.block_size must be a positive multiple of 4")
		}
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// EmulatorOptions translates the configuration into emulator options.
func (c *Config) EmulatorOptions() []emu.EmulatorOption {
	opts := []emu.EmulatorOption{
		emu.WithMemorySize(c.MemorySize),
		emu.WithMaxInstructions(c.MaxInstructions),
	}
	if c.DecodeCache.Enabled {
		opts = append(opts, emu.WithDecodeCache(emu.NewDecodeCache(emu.DecodeCacheConfig{
			Sets:      c.DecodeCache.Sets,
			Ways:      c.DecodeCache.Ways,
			BlockSize: c.DecodeCache.BlockSize,
		})))
	}
	return opts
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration shared by the host API and the CLI.
// It is read from mscript.yaml or mscript.toml.
type Config struct {
	VM    VMConfig    `yaml:"vm" toml:"vm"`
	Log   LogConfig   `yaml:"log" toml:"log"`
	Cache CacheConfig `yaml:"cache" toml:"cache"`
}

// VMConfig bounds the execution of a single run.
type VMConfig struct {
	// MaxCallDepth is the deepest call stack a run may build before it
	// faults with a stack overflow.
	MaxCallDepth int `yaml:"max_call_depth" toml:"max_call_depth"`

	// MaxStackSize bounds the operand stack (in values).
	MaxStackSize int `yaml:"max_stack_size" toml:"max_stack_size"`

	// MaxInstructions is an instruction budget per run. Zero means unlimited.
	MaxInstructions int64 `yaml:"max_instructions" toml:"max_instructions"`

	// RollbackOnFault restores the globals captured before a run when the
	// run faults. When false, partial mutations stay visible.
	RollbackOnFault bool `yaml:"rollback_on_fault" toml:"rollback_on_fault"`
}

// LogConfig configures commonlog.
type LogConfig struct {
	// Verbosity follows commonlog: 0 is errors only, higher is chattier.
	Verbosity int `yaml:"verbosity" toml:"verbosity"`

	// Path is an optional log file. Empty logs to stderr.
	Path string `yaml:"path,omitempty" toml:"path,omitempty"`
}

// CacheConfig configures the CLI's compiled-program cache.
type CacheConfig struct {
	// Path to the sqlite database. Empty disables caching.
	Path string `yaml:"path,omitempty" toml:"path,omitempty"`

	// MaxAge expires entries older than this, e.g. "168h". Zero keeps
	// entries forever.
	MaxAge time.Duration `yaml:"max_age,omitempty" toml:"max_age,omitempty"`
}

// Default VM limits.
const (
	DefaultMaxCallDepth = 1024
	DefaultMaxStackSize = 1024 * 1024
)

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		VM: VMConfig{
			MaxCallDepth: DefaultMaxCallDepth,
			MaxStackSize: DefaultMaxStackSize,
		},
	}
}

// Load reads a configuration file. The format is chosen by extension:
// .yaml/.yml or .toml.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	cfg, err := Parse(data, format)
	if err != nil {
		return Config{}, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes configuration data in the given format ("yaml", "yml" or
// "toml"). Unset fields keep their defaults.
func Parse(data []byte, format string) (Config, error) {
	cfg := Default()
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	case "toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", format)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the limits for consistency.
func (c Config) Validate() error {
	if c.VM.MaxCallDepth <= 0 {
		return fmt.Errorf("vm.max_call_depth must be positive, got %d", c.VM.MaxCallDepth)
	}
	if c.VM.MaxStackSize <= 0 {
		return fmt.Errorf("vm.max_stack_size must be positive, got %d", c.VM.MaxStackSize)
	}
	if c.VM.MaxInstructions < 0 {
		return fmt.Errorf("vm.max_instructions must not be negative, got %d", c.VM.MaxInstructions)
	}
	if c.Cache.MaxAge < 0 {
		return fmt.Errorf("cache.max_age must not be negative, got %s", c.Cache.MaxAge)
	}
	if c.Log.Verbosity < 0 {
		return fmt.Errorf("log.verbosity must not be negative, got %d", c.Log.Verbosity)
	}
	return nil
}

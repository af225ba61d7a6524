// Package config loads the optional ~/.config/luz/config.toml settings
// file, following the same directory-resolution pattern and TOML
// library the teacher's config package uses. The file is never
// required: a missing one yields the built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds the toolchain-wide defaults a CLI invocation falls
// back on when a flag isn't given explicitly.
type Config struct {
	Execution struct {
		MaxCycles       uint64 `toml:"max_cycles"`
		PeripheralAddr  uint32 `toml:"peripheral_addr"`
		PeripheralAlias string `toml:"peripheral_alias"` // e.g. "k0", for diagnostics only
	} `toml:"execution"`

	Debugger struct {
		HistorySize int  `toml:"history_size"`
		ShowAlias   bool `toml:"show_alias"`
	} `toml:"debugger"`

	Display struct {
		BytesPerLine  int    `toml:"bytes_per_line"`
		DisasmContext int    `toml:"disasm_context"`
		NumberFormat  string `toml:"number_format"` // hex, dec
	} `toml:"display"`
}

// DefaultConfig returns the built-in defaults, used whenever no config
// file is present.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Execution.MaxCycles = 10_000_000
	cfg.Execution.PeripheralAddr = 0xF0000
	cfg.Execution.PeripheralAlias = "k0"

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.ShowAlias = true

	cfg.Display.BytesPerLine = 16
	cfg.Display.DisasmContext = 5
	cfg.Display.NumberFormat = "hex"

	return cfg
}

// GetConfigPath returns the platform-specific config file path,
// creating its containing directory if necessary.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "luz")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "luz")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return "config.toml"
	}
	return filepath.Join(configDir, "config.toml")
}

// Load reads the default config file, falling back to DefaultConfig
// when it does not exist.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom reads config from path, falling back to DefaultConfig when
// the file does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes c to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo writes c to path as TOML.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Package config holds the persistent settings shared by the desktop
// editor, the CLI and the HTTP server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// AppConfig stores persistent application settings
type AppConfig struct {
	// Editor
	Theme    string `json:"theme"`     // "light" or "dark"
	LastFile string `json:"last_file"` // last circuit opened or saved in the editor

	// Export
	DiagramDPI  float64 `json:"diagram_dpi"`
	ReportTitle string  `json:"report_title"`

	// Server
	ListenAddr   string  `json:"listen_addr"`
	DatabasePath string  `json:"database_path"` // circuit library, empty disables it
	NATSURL      string  `json:"nats_url"`      // empty disables event publishing
	RateLimit    float64 `json:"rate_limit"`    // requests per second per client
	RateBurst    int     `json:"rate_burst"`
}

// Default returns the settings used when no config file exists.
func Default() *AppConfig {
	return &AppConfig{
		Theme:       "light",
		DiagramDPI:  144,
		ReportTitle: "Electronic Circuit Design",
		ListenAddr:  ":8080",
		RateLimit:   20,
		RateBurst:   40,
	}
}

// Validate fills zero values with defaults and rejects settings that
// cannot work.
func (c *AppConfig) Validate() error {
	def := Default()
	switch c.Theme {
	case "":
		c.Theme = def.Theme
	case "light", "dark":
	default:
		return fmt.Errorf("config: unknown theme %q", c.Theme)
	}
	if c.DiagramDPI <= 0 {
		c.DiagramDPI = def.DiagramDPI
	}
	if c.ReportTitle == "" {
		c.ReportTitle = def.ReportTitle
	}
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("config: rate_limit must not be negative, got %v", c.RateLimit)
	}
	if c.RateBurst < 1 {
		c.RateBurst = 1
	}
	return nil
}

// Dir returns the platform config directory, creating it if needed.
func Dir() (string, error) {
	var dir string
	if appData := os.Getenv("APPDATA"); appData != "" {
		// Windows: use %APPDATA%\OpenTraceCircuit
		dir = filepath.Join(appData, "OpenTraceCircuit")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		// Linux/macOS: use ~/.config/opentracecircuit
		dir = filepath.Join(home, ".config", "opentracecircuit")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadConfig loads the application configuration from the default path
// and applies environment overrides.
func LoadConfig() (*AppConfig, error) {
	path, err := Path()
	if err != nil {
		return Default(), err
	}
	return Load(path)
}

// Load reads the config at path. A missing file yields Default().
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig saves the application configuration to the default path.
func SaveConfig(cfg *AppConfig) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return Save(path, cfg)
}

// Save writes cfg to path as indented JSON.
func Save(path string, cfg *AppConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from OTC_* variables. lookup is usually
// os.LookupEnv.
func (c *AppConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"OTC_THEME":        &c.Theme,
		"OTC_LISTEN_ADDR":  &c.ListenAddr,
		"OTC_DATABASE":     &c.DatabasePath,
		"OTC_NATS_URL":     &c.NATSURL,
		"OTC_REPORT_TITLE": &c.ReportTitle,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup("OTC_RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: OTC_RATE_LIMIT: %w", err)
		}
		c.RateLimit = f
	}
	if v, ok := lookup("OTC_RATE_BURST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: OTC_RATE_BURST: %w", err)
		}
		c.RateBurst = n
	}
	if v, ok := lookup("OTC_DIAGRAM_DPI"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: OTC_DIAGRAM_DPI: %w", err)
		}
		c.DiagramDPI = f
	}
	return nil
}

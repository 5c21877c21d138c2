package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the process-level browser configuration. It covers the pieces
// that are fixed for the life of an engine instance (home URL, probe
// timeout, window geometry); the user-tweakable privacy switches live in
// the settings package.
type Config struct {
	HomeURL       string        `yaml:"homeURL" envconfig:"HOME_URL"`
	SearchEngine  string        `yaml:"searchEngine" envconfig:"SEARCH_ENGINE"`
	ProbeTimeout  time.Duration `yaml:"probeTimeout" envconfig:"PROBE_TIMEOUT"`
	DownloadDir   string        `yaml:"downloadDir" envconfig:"DOWNLOAD_DIR"`
	AllowScripting bool         `yaml:"allowScripting" envconfig:"ALLOW_SCRIPTING"`
	Window        WindowConfig  `yaml:"window"`
}

// WindowConfig holds the initial shell window geometry.
type WindowConfig struct {
	Width  int `yaml:"width" envconfig:"WINDOW_WIDTH"`
	Height int `yaml:"height" envconfig:"WINDOW_HEIGHT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HomeURL:        "https://duckduckgo.com",
		SearchEngine:   "duckduckgo",
		ProbeTimeout:   3 * time.Second,
		DownloadDir:    defaultDownloadDir(),
		AllowScripting: true,
		Window:         WindowConfig{Width: 1280, Height: 860},
	}
}

// LoadFromBytes loads configuration from YAML bytes with environment
// variable expansion, then applies FSB_* environment overrides.
func LoadFromBytes(data []byte) (Config, error) {
	c := Default()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	if err := envconfig.Process("fsb", &c); err != nil {
		return c, fmt.Errorf("env overrides: %w", err)
	}
	c.fillZero()
	return c, nil
}

// LoadFile loads configuration from a YAML file on disk.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), err
	}
	return LoadFromBytes(data)
}

// fillZero replaces zero values with defaults so a sparse YAML file
// only overrides what it names.
func (c *Config) fillZero() {
	def := Default()
	if c.HomeURL == "" {
		c.HomeURL = def.HomeURL
	}
	if c.SearchEngine == "" {
		c.SearchEngine = def.SearchEngine
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = def.ProbeTimeout
	}
	if c.DownloadDir == "" {
		c.DownloadDir = def.DownloadDir
	}
	if c.Window.Width < 400 {
		c.Window.Width = def.Window.Width
	}
	if c.Window.Height < 300 {
		c.Window.Height = def.Window.Height
	}
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(home, "Downloads")
}

// Package config loads shell settings from ~/.memscan/config.yml. A
// missing or unreadable file yields the defaults; a first run writes a
// commented template so the options are discoverable.
package config

import (
	"os"
	"os/user"
	"path"

	"gopkg.in/yaml.v2"
)

const (
	configDir  string = ".memscan"
	configFile string = "config.yml"
)

// Config defines all options available through the config file.
type Config struct {
	// DisplayLimit caps how many matches the results command prints
	// before truncating with a summary line.
	DisplayLimit int `yaml:"display-limit"`

	// WatchIntervalMillis is the default polling interval for the
	// watch command, in milliseconds.
	WatchIntervalMillis int `yaml:"watch-interval-millis"`

	// HistoryFile is where the interactive shell stores its readline
	// history. Empty disables persistent history.
	HistoryFile string `yaml:"history-file"`

	// NoColor disables ANSI colors in all output.
	NoColor bool `yaml:"no-color"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		DisplayLimit:        20,
		WatchIntervalMillis: 1000,
		HistoryFile:         filePath("history"),
	}
}

// Load populates a Config from the config.yml file, creating a default
// template on first run. Any failure falls back to the defaults.
func Load() *Config {
	cfg := Default()

	if err := os.MkdirAll(filePath(""), 0700); err != nil {
		return cfg
	}

	full := filePath(configFile)
	data, err := os.ReadFile(full)
	if err != nil {
		writeDefaultConfig(full)
		return cfg
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Default()
	}
	if cfg.DisplayLimit <= 0 {
		cfg.DisplayLimit = 20
	}
	if cfg.WatchIntervalMillis <= 0 {
		cfg.WatchIntervalMillis = 1000
	}

	return cfg
}

// Save marshals the config struct back to disk.
func Save(cfg *Config) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath(configFile), out, 0644)
}

func writeDefaultConfig(full string) {
	os.WriteFile(full, []byte(
		`# memscan configuration.

# Maximum matches printed by the results command.
# display-limit: 20

# Default polling interval for the watch command, in milliseconds.
# watch-interval-millis: 1000

# Readline history location. Empty disables persistent history.
# history-file: ~/.memscan/history

# Disable ANSI colors in all output.
# no-color: false
`), 0644)
}

// filePath resolves a file name inside the config directory.
func filePath(file string) string {
	userHomeDir := "."
	if usr, err := user.Current(); err == nil {
		userHomeDir = usr.HomeDir
	}
	return path.Join(userHomeDir, configDir, file)
}

package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names an explicit config file
	EnvConfigPath = "NETGRAPH_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "netgraph.yaml"

	appDir      = "netgraph"
	xdgFileName = "config.yaml"
)

// candidatePaths lists config locations from most to least specific. An
// unset environment variable drops its entry.
func candidatePaths() []string {
	var paths []string
	if p := os.Getenv(EnvConfigPath); p != "" {
		paths = append(paths, p)
	}
	paths = append(paths, ConfigFileName)
	if dir := userConfigDir(); dir != "" {
		paths = append(paths, filepath.Join(dir, appDir, xdgFileName))
	}
	return append(paths, filepath.Join("/etc", appDir, xdgFileName))
}

// userConfigDir is $XDG_CONFIG_HOME, else ~/.config, else empty
func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config")
	}
	return ""
}

// FindConfigPath returns the first existing file among $NETGRAPH_CONFIG,
// ./netgraph.yaml, the user config dir and /etc/netgraph. A relative hit is
// made absolute. Returns "" when none exists.
func FindConfigPath() string {
	for _, p := range candidatePaths() {
		if !isFile(p) {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}

// DefaultConfigPath is where `config init` writes when given no path
func DefaultConfigPath() string {
	if dir := userConfigDir(); dir != "" {
		return filepath.Join(dir, appDir, xdgFileName)
	}
	return ConfigFileName
}

// EnsureConfigDir creates the parent directory of configPath
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

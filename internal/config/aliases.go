// Package config provides configuration loading for habitlens: the viper
// backed settings file and the executable alias map.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Dir returns the habitlens config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/habitlens if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "habitlens"), nil
}

// AliasConfig maps executable names to package ids. The watcher consults it
// before the apps table, so a user can attribute a wrapper script or a
// renamed binary to the app it belongs to.
type AliasConfig struct {
	Aliases map[string]string
}

// Resolve returns the package id for an executable name, if aliased.
func (c *AliasConfig) Resolve(execName string) (string, bool) {
	if c == nil {
		return "", false
	}
	id, ok := c.Aliases[execName]
	return id, ok
}

// LoadAliases reads {dir}/aliases, one "exec=package.id" per line. A
// missing file yields an empty config. Malformed lines are skipped.
func LoadAliases(dir string) (*AliasConfig, error) {
	cfg := &AliasConfig{
		Aliases: make(map[string]string),
	}

	path := filepath.Join(dir, "aliases")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		execName, packageID, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		execName = strings.TrimSpace(execName)
		packageID = strings.TrimSpace(packageID)
		if execName == "" || packageID == "" {
			continue
		}

		cfg.Aliases[execName] = packageID
	}

	if err := scanner.Err(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

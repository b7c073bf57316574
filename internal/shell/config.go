// Package shell writes the shim PATH entry into the user's shell startup
// file.
package shell

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// Marker tags the block habitlens appends, so it is written only once.
const Marker = "# habitlens shims"

// ConfigFile returns the startup file for the shell named by shellPath
// (typically $SHELL) and whether it uses fish syntax.
func ConfigFile(shellPath, home string) (path string, fish bool) {
	switch filepath.Base(shellPath) {
	case "zsh":
		return filepath.Join(home, ".zshrc"), false
	case "bash":
		return filepath.Join(home, ".bashrc"), false
	case "fish":
		return filepath.Join(home, ".config", "fish", "conf.d", "habitlens.fish"), true
	default:
		return filepath.Join(home, ".profile"), false
	}
}

// pathBlock renders the lines that put dir first on PATH.
func pathBlock(dir string, fish bool) string {
	if fish {
		return fmt.Sprintf("\n%s\nfish_add_path --prepend %s\n", Marker, dir)
	}
	return fmt.Sprintf("\n%s\nexport PATH=%q:$PATH\n", Marker, dir)
}

// EnsurePathEntry makes sure dir is put on PATH by the user's shell
// startup file. It returns added=false when dir is already on PATH or the
// startup file already carries the habitlens block.
func EnsurePathEntry(dir string) (added bool, configFile string, err error) {
	for _, entry := range filepath.SplitList(os.Getenv("PATH")) {
		if entry == dir {
			return false, "", nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return false, "", fmt.Errorf("cannot determine home directory: %w", err)
	}

	configPath, fish := ConfigFile(os.Getenv("SHELL"), home)

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return false, "", fmt.Errorf("cannot create config directory %s: %w", filepath.Dir(configPath), err)
	}

	if existing, err := os.ReadFile(configPath); err == nil && bytes.Contains(existing, []byte(Marker)) {
		return false, configPath, nil
	}

	f, err := os.OpenFile(configPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return false, "", fmt.Errorf("cannot open config file %s: %w", configPath, err)
	}
	defer f.Close()

	if _, err := f.WriteString(pathBlock(dir, fish)); err != nil {
		return false, "", fmt.Errorf("cannot write to config file %s: %w", configPath, err)
	}

	return true, configPath, nil
}

package shell

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigFile(t *testing.T) {
	tests := []struct {
		shell string
		want  string
		fish  bool
	}{
		{"/bin/zsh", "/h/.zshrc", false},
		{"/usr/bin/bash", "/h/.bashrc", false},
		{"/usr/bin/fish", "/h/.config/fish/conf.d/habitlens.fish", true},
		{"/bin/dash", "/h/.profile", false},
		{"", "/h/.profile", false},
	}
	for _, tt := range tests {
		got, fish := ConfigFile(tt.shell, "/h")
		if got != tt.want || fish != tt.fish {
			t.Errorf("ConfigFile(%q) = %q, %v; want %q, %v", tt.shell, got, fish, tt.want, tt.fish)
		}
	}
}

func TestEnsurePathEntry_AlreadyOnPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATH", dir+string(filepath.ListSeparator)+"/usr/bin")

	added, configFile, err := EnsurePathEntry(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added || configFile != "" {
		t.Errorf("EnsurePathEntry() = %v, %q; want false, \"\"", added, configFile)
	}
}

func TestEnsurePathEntry_AppendsOnce(t *testing.T) {
	home := t.TempDir()
	shimDir := filepath.Join(home, ".habitlens", "bin")
	t.Setenv("HOME", home)
	t.Setenv("SHELL", "/bin/bash")
	t.Setenv("PATH", "/usr/bin:/bin")

	rc := filepath.Join(home, ".bashrc")
	if err := os.WriteFile(rc, []byte("# existing content\n"), 0644); err != nil {
		t.Fatal(err)
	}

	added, configFile, err := EnsurePathEntry(shimDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !added || configFile != rc {
		t.Fatalf("EnsurePathEntry() = %v, %q; want true, %q", added, configFile, rc)
	}

	added, _, err = EnsurePathEntry(shimDir)
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Error("second EnsurePathEntry() should not append again")
	}

	data, err := os.ReadFile(rc)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# existing content\n") {
		t.Error("existing content was not preserved")
	}
	if strings.Count(content, Marker) != 1 {
		t.Errorf("marker appears %d times, want 1", strings.Count(content, Marker))
	}
	if !strings.Contains(content, `export PATH="`+shimDir+`":$PATH`) {
		t.Errorf("export line missing from:\n%s", content)
	}
}

func TestEnsurePathEntry_Fish(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SHELL", "/usr/bin/fish")
	t.Setenv("PATH", "/usr/bin")

	added, configFile, err := EnsurePathEntry("/opt/shims")
	if err != nil {
		t.Fatal(err)
	}
	if !added {
		t.Fatal("expected added=true")
	}
	data, err := os.ReadFile(configFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "fish_add_path --prepend /opt/shims") {
		t.Errorf("fish config = %q", data)
	}
}

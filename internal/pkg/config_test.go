package pkg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "javac8.toml")
	content := `
[project]
name = "widgets"

[build]
source_roots = ["src"]
classpath = ["lib/extra.jar"]
output_dir = "build"
no_runtime = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Project.Name != "widgets" {
		t.Errorf("Project.Name = %q, want widgets", cfg.Project.Name)
	}
	if len(cfg.Build.SourceRoots) != 1 || cfg.Build.SourceRoots[0] != "src" {
		t.Errorf("Build.SourceRoots = %v", cfg.Build.SourceRoots)
	}
	if cfg.Build.OutputDir != "build" {
		t.Errorf("Build.OutputDir = %q, want build", cfg.Build.OutputDir)
	}
	if !cfg.Build.NoRuntime {
		t.Error("Build.NoRuntime = false, want true")
	}
}

func TestLoadConfig_DefaultsOutputDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "javac8.toml")
	if err := os.WriteFile(path, []byte(`[project]
name = "bare"
`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Build.OutputDir != "out" {
		t.Errorf("Build.OutputDir = %q, want default out", cfg.Build.OutputDir)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected an error for a nonexistent config file")
	}
}

func TestFindConfigFile(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "src", "main")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(root, ConfigFileName)
	if err := os.WriteFile(cfgPath, []byte("[project]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	found := FindConfigFile(sub)
	if found != cfgPath {
		t.Errorf("FindConfigFile = %q, want %q", found, cfgPath)
	}

	if got := FindConfigFile(t.TempDir()); got != "" {
		t.Errorf("FindConfigFile on an unrelated directory = %q, want empty", got)
	}
}

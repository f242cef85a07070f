// Package pkg loads this compiler's project configuration file,
// javac8.toml: source roots, classpath entries, and output settings
// a build invocation can read instead of repeating them on the command
// line every time.
package pkg

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is the project configuration file this compiler looks
// for, analogous to a build tool's project file.
const ConfigFileName = "javac8.toml"

// ProjectConfig is the decoded shape of javac8.toml.
type ProjectConfig struct {
	Project ProjectInfo `toml:"project"`
	Build   BuildConfig `toml:"build"`
}

// ProjectInfo names the project; it has no effect on compilation beyond
// documentation, mirroring a minimal project manifest.
type ProjectInfo struct {
	Name string `toml:"name"`
}

// BuildConfig holds the paths a build needs: where sources live, what
// goes on the classpath, and where class files land.
type BuildConfig struct {
	SourceRoots []string `toml:"source_roots"`
	Classpath   []string `toml:"classpath"`
	OutputDir   string   `toml:"output_dir"`
	NoRuntime   bool     `toml:"no_runtime"`
}

// LoadConfig reads and decodes a javac8.toml file at path.
func LoadConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg ProjectConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if cfg.Build.OutputDir == "" {
		cfg.Build.OutputDir = "out"
	}
	return &cfg, nil
}

// FindConfigFile walks upward from startPath looking for javac8.toml,
// returning its full path or "" if none was found.
func FindConfigFile(startPath string) string {
	info, err := os.Stat(startPath)
	if err != nil {
		return ""
	}

	dir := startPath
	if !info.IsDir() {
		dir = filepath.Dir(startPath)
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

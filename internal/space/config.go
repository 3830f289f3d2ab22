package space

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the project configuration stored in the marker file
// .flowspace/project.toml at the project root.
type Config struct {
	// Name is the human-readable project name.
	Name string `toml:"name"`

	// Workspace is the job workspace directory, relative to the project
	// root. Defaults to "workspace".
	Workspace string `toml:"workspace,omitempty"`

	// Submit configures the external submission collaborator.
	Submit SubmitConfig `toml:"submit,omitempty"`
}

// SubmitConfig describes how batches are handed to the cluster scheduler.
type SubmitConfig struct {
	// Command is invoked with the generated batch script as its argument
	// (e.g. "sbatch", "qsub"). Empty means scripts are only written, not
	// submitted — useful for inspection and dry runs.
	Command string `toml:"command,omitempty"`

	// Dir is where batch scripts are written, relative to the project
	// root. Defaults to ".flowspace/submit".
	Dir string `toml:"dir,omitempty"`
}

// LoadConfig reads the project configuration from path.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("loading project config: %w", err)
	}
	if cfg.Workspace == "" {
		cfg.Workspace = DefaultWorkspace
	}
	if cfg.Submit.Dir == "" {
		cfg.Submit.Dir = filepath.Join(ConfigDir, "submit")
	}
	return cfg, nil
}

// SaveConfig writes the project configuration to path.
func SaveConfig(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing project config: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding project config: %w", err)
	}
	return nil
}

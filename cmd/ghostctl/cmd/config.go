package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// fileConfig is the optional ~/.ghostctl.yaml.
type fileConfig struct {
	Server   string `yaml:"server"`
	AdminKey string `yaml:"admin_key"`
	Timeout  string `yaml:"timeout"`
	Output   string `yaml:"output"`
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ghostctl.yaml")
}

// loadFileConfig reads path, or the default location when path is empty.
// A missing default file is not an error; a missing explicit one is.
func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
		if path == "" {
			return fc, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return fc, nil
		}
		return fc, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return fc, nil
}

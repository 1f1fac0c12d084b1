package config

import (
	"os"
	"path/filepath"
)

// FindEnvFile resolves name against the working directory and its parents,
// returning the closest match. Absolute names are only checked for existence.
func FindEnvFile(name string) (string, error) {
	if name == "" {
		name = ".env"
	}
	if filepath.IsAbs(name) {
		_, err := os.Stat(name)
		return name, err
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

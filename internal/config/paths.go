package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ExecutableDir returns the directory holding the running binary.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// SidecarPath returns the default sidecar location inside dir.
func SidecarPath(dir string) string {
	return filepath.Join(dir, SidecarFileName)
}

// OutputDir returns the default conversion folder inside dir.
func OutputDir(dir string) string {
	return filepath.Join(dir, ConversionFolderName)
}

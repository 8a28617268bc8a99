package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExecutableDir returns the directory of the running binary, falling back to the working directory.
func ExecutableDir() string {
	if exe, err := os.Executable(); err == nil && exe != "" {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil && resolved != "" {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil && wd != "" {
		return wd
	}
	return "."
}

// ResolveRuntimePath resolves a configured directory against the executable directory.
// An empty raw value uses fallbackSubdir.
func ResolveRuntimePath(raw string, fallbackSubdir string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = strings.TrimSpace(fallbackSubdir)
	}
	switch {
	case target == "":
		return ExecutableDir()
	case filepath.IsAbs(target):
		return filepath.Clean(target)
	default:
		return filepath.Join(ExecutableDir(), target)
	}
}

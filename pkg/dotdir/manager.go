// Package dotdir resolves the .helpbot/ directory that holds config.toml and,
// unless index.dir points elsewhere, the persisted vector indexes.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirName = ".helpbot"

	// IndexDirName is the subdirectory used for index files when
	// index.dir is not configured.
	IndexDirName = "index"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path of the .helpbot/ directory to use.
// Order of precedence:
//  1. Provided override (created if missing)
//  2. Local ./.helpbot/ dir
//  3. Home ~/.helpbot/ dir, when it exists
//
// An empty path and nil error mean no directory was found; callers fall back
// to defaults.
func (m *Manager) Target(overrideDir string) (string, error) {
	if overrideDir != "" {
		if err := os.MkdirAll(overrideDir, 0o755); err != nil {
			return "", fmt.Errorf("creating helpbot directory %s: %w", overrideDir, err)
		}
		return filepath.Abs(overrideDir)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	if isDir(filepath.Join(cwd, dirName)) {
		return filepath.Join(cwd, dirName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	if isDir(filepath.Join(home, dirName)) {
		return filepath.Join(home, dirName), nil
	}

	return "", nil
}

// Ensure is Target, except that when nothing exists it creates
// ./.helpbot/ in the working directory.
func (m *Manager) Ensure(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil || dir != "" {
		return dir, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	dir = filepath.Join(cwd, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating helpbot directory %s: %w", dir, err)
	}
	return dir, nil
}

// IndexDir resolves where index files live. A configured directory wins;
// otherwise it is <.helpbot>/index. The directory is created.
func (m *Manager) IndexDir(configured, overrideDir string) (string, error) {
	dir := configured
	if dir == "" {
		base, err := m.Ensure(overrideDir)
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, IndexDirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating index directory %s: %w", dir, err)
	}
	return filepath.Abs(dir)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

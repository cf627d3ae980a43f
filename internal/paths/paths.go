// Package paths locates docaudit's per-project data directory and converts
// between absolute and project-relative paths.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// DataDirName is the per-project directory holding config and history.
	DataDirName = ".docaudit"
	// DataDirEnvVar overrides the data directory location.
	DataDirEnvVar = "DOCAUDIT_DATA_DIR"

	historyFile = "history.db"
)

// DataDir returns the data directory for the project at root. DOCAUDIT_DATA_DIR
// takes precedence when set.
func DataDir(root string) string {
	if dir := os.Getenv(DataDirEnvVar); dir != "" {
		return dir
	}
	return filepath.Join(root, DataDirName)
}

// EnsureDataDir creates the data directory if needed and returns it.
func EnsureDataDir(root string) (string, error) {
	dir := DataDir(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// ConfigDir returns the directory searched for config.yaml / config.json.
// Unlike the data directory it always lives under the project root.
func ConfigDir(root string) string {
	return filepath.Join(root, DataDirName)
}

// HistoryPath returns the scan history database path.
func HistoryPath(root string) string {
	return filepath.Join(DataDir(root), historyFile)
}

// Relative converts an absolute path to a project-relative, slash-separated
// path. Symlinks are resolved when the path exists.
func Relative(absolutePath string, root string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		resolved = absolutePath
		if dir, err := filepath.EvalSymlinks(filepath.Dir(absolutePath)); err == nil {
			resolved = filepath.Join(dir, filepath.Base(absolutePath))
		}
	}

	rootResolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		rootResolved = root
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// IsWithin reports whether path lies inside root.
func IsWithin(path string, root string) bool {
	rel, err := Relative(path, root)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, "../")
}

// Display returns path relative to root when it lies inside it, else path.
func Display(path string, root string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	if !IsWithin(abs, root) {
		return path
	}
	rel, err := Relative(abs, root)
	if err != nil {
		return path
	}
	return rel
}

// Join joins a project root with a slash-separated relative path.
func Join(root string, rel string) string {
	parts := strings.Split(strings.ReplaceAll(rel, "\\", "/"), "/")
	return filepath.Join(append([]string{root}, parts...)...)
}

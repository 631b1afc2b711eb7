package config

import (
	"os"
	"path/filepath"
)

// ProjectDirName is the per-project directory holding a local task database.
const ProjectDirName = ".tend"

// DatabaseFileName is the sqlite file name used inside ProjectDirName and
// the data directory.
const DatabaseFileName = "tasks.db"

// DetectCurrentProject attempts to find the current project by walking
// up from the current directory looking for .tend/.
func DetectCurrentProject() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return findProjectRoot(dir)
}

// findProjectRoot walks up from dir looking for a .tend/ directory.
func findProjectRoot(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		projectDir := filepath.Join(dir, ProjectDirName)
		if info, err := os.Stat(projectDir); err == nil && info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}

// ProjectDatabase returns the database path for a project root.
func ProjectDatabase(root string) string {
	return filepath.Join(root, ProjectDirName, DatabaseFileName)
}

// ResolveDatabase picks the task database to open, in order: the explicit
// override, the configured database (TEND_DB included), the nearest project
// .tend/ directory, then the data directory.
func ResolveDatabase(cfg Config, override string) string {
	if override != "" {
		return expandHome(override)
	}
	if cfg.Database != "" {
		return cfg.Database
	}
	if root, ok := DetectCurrentProject(); ok {
		return ProjectDatabase(root)
	}
	if dir := DataDir(); dir != "" {
		return filepath.Join(dir, DatabaseFileName)
	}
	return DatabaseFileName
}

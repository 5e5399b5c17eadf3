package paths

import (
	"os"
	"path/filepath"
)

// AppName names the per-user directories.
const AppName = "dicthub"

// DatabaseFile is the SQLite store inside DataDir.
const DatabaseFile = "dicthub.db"

// ConfigNames are the config file names looked up by FindConfig, in order.
var ConfigNames = []string{"dicthub.yaml", "dicthub.yml", "dicthub.toml"}

// ConfigDir returns the per-user config directory, or "." when the OS
// reports none.
func ConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, AppName)
}

// DataDir returns where the store lives. DICTHUB_HOME overrides it.
func DataDir() string {
	if home := os.Getenv("DICTHUB_HOME"); home != "" {
		return home
	}
	return ConfigDir()
}

// Database returns the default SQLite path.
func Database() string {
	return filepath.Join(DataDir(), DatabaseFile)
}

// FindConfig returns the first config file found in dirs, defaulting to
// the working directory and then ConfigDir.
func FindConfig(dirs ...string) (string, bool) {
	if len(dirs) == 0 {
		dirs = []string{".", ConfigDir()}
	}
	for _, dir := range dirs {
		for _, name := range ConfigNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, true
			}
		}
	}
	return "", false
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o700)
}

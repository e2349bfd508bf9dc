package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName = ".lexdesk"
	homeEnvVar = "LEXDESK_HOME"
)

// DataDir returns the base data directory. LEXDESK_HOME overrides ~/.lexdesk.
func DataDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(homeEnvVar)); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

func dataPath(elem ...string) (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{dataDir}, elem...)...), nil
}

// ConfigPath returns the path to config.toml.
func ConfigPath() (string, error) {
	return dataPath("config.toml")
}

// TokenPath returns the path to the API bearer token.
func TokenPath() (string, error) {
	return dataPath("token")
}

// DBPath returns the bbolt database path.
func DBPath() (string, error) {
	return dataPath("lexdesk.db")
}

// SQLitePath returns the SQLite database path.
func SQLitePath() (string, error) {
	return dataPath("lexdesk.sqlite")
}

// RecordsDir returns the directory used by the JSON file store.
func RecordsDir() (string, error) {
	return dataPath("records")
}

// BlobDir returns the root of the filesystem blob store.
func BlobDir() (string, error) {
	return dataPath("blobs")
}

// CalendarTokenPath returns where the Google OAuth token is persisted.
func CalendarTokenPath() (string, error) {
	return dataPath("calendar_token.json")
}

// LogPath returns the log file path for a process name such as "server" or "ui".
func LogPath(name string) (string, error) {
	return dataPath(strings.TrimSpace(name) + ".log")
}

// OpenLogFile opens the named process log for appending, creating the data
// directory if needed.
func OpenLogFile(name string) (*os.File, error) {
	path, err := LogPath(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}

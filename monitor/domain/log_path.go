package domain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LogPath is the validated location of the durable CSV log.
type LogPath string

// NewLogPath cleans path and rejects values that cannot name a log file:
// empty paths, paths ending in a separator and shell-hostile characters.
// ':' stays allowed so that Windows drive letters work.
func NewLogPath(path string) (LogPath, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("log path cannot be empty")
	}
	if strings.HasSuffix(path, string(os.PathSeparator)) || strings.HasSuffix(path, "/") {
		return "", fmt.Errorf("log path must name a file, not a directory: %s", path)
	}

	cleanPath := filepath.Clean(path)
	if strings.ContainsAny(cleanPath, "<>\"|?*") {
		return "", fmt.Errorf("log path contains invalid characters: %s", cleanPath)
	}

	return LogPath(cleanPath), nil
}

// Dir returns the directory that holds the log.
func (p LogPath) Dir() string {
	return filepath.Dir(string(p))
}

package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Normalize cleans a path as given on the command line or in a config file.
// A leading "~/" is expanded to the home directory. Relative paths stay
// relative so recorded state matches the paths the walk produces.
func Normalize(path string) string {
	if path == "" {
		return path
	}
	return filepath.Clean(Expand(path))
}

// Expand replaces a leading "~" or "~/" with the current user's home directory.
// The path is returned unchanged if the home directory is unknown.
func Expand(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

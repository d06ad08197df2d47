package config

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// ExpandTilde replaces ~ or ~/path with the user's home directory.
// ~username is left alone.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// ExpandPath expands ~, ${HOME} and ${USER} in a local path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.Contains(path, "${HOME}") {
		home, _ := os.UserHomeDir()
		path = strings.ReplaceAll(path, "${HOME}", home)
	}
	if strings.Contains(path, "${USER}") {
		path = strings.ReplaceAll(path, "${USER}", currentUser())
	}
	return ExpandTilde(path)
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}

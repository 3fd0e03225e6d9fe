package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandTilde resolves a leading ~ or ~/ against the home directory.
// ~user forms and paths without a tilde come back unchanged.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}

// Expand substitutes ${HOME} and ${USER} in a path, then resolves ~.
// Config paths such as display.port and --config go through it; other
// variables are left as written so device names with $ survive.
func Expand(path string) string {
	if path == "" {
		return path
	}
	path = os.Expand(path, func(name string) string {
		switch name {
		case "HOME":
			return homeDir()
		case "USER":
			return userName()
		default:
			return "${" + name + "}"
		}
	})
	return ExpandTilde(path)
}

func userName() string {
	for _, key := range []string{"USER", "LOGNAME", "USERNAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "user"
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "~"
}

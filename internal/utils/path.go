package utils

import (
	"fmt"
	"os"
	"path"
)

// GetConfigDir returns the path to the miniagent configuration directory.
// The directory is located inside the user's configuration directory
// as <UserConfigDir>/.miniagent, unless overridden by MINIAGENT_CONFIG_HOME.
func GetConfigDir() (string, error) {
	if home := os.Getenv("MINIAGENT_CONFIG_HOME"); home != "" {
		return home, nil
	}
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return path.Join(cfg, ".miniagent"), nil
}

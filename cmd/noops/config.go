package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// getConfigDir returns the noops CLI config directory (~/.noops),
// grounded on _teacherref/cli/config.go's getConfigDir, renamed from
// ~/.solvr.
func getConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".noops")
}

// getConfigPath returns the path to the noops session config file
// (~/.noops/config).
func getConfigPath() string {
	return filepath.Join(getConfigDir(), "config")
}

// loadConfig reads the key=value config file, returning an empty map if
// it does not yet exist.
func loadConfig() (map[string]string, error) {
	config := make(map[string]string)
	configPath := getConfigPath()

	file, err := os.Open(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			config[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return config, nil
}

// saveConfig writes the config map to ~/.noops/config, creating the
// directory if needed.
func saveConfig(config map[string]string) error {
	configDir := getConfigDir()
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	configPath := getConfigPath()
	file, err := os.OpenFile(configPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer file.Close()

	for key, value := range config {
		if _, err := fmt.Fprintf(file, "%s=%s\n", key, value); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
	}
	return nil
}

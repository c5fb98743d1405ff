// Package appinfo loads the application-info document that tells the engine
// where its resources, logs and settings live.
package appinfo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Required keys of the application-info document.
const (
	KeyResPath      = "res_path"
	KeyLogPath      = "log_path"
	KeySettingsPath = "settings_path"
)

type AppInfo struct {
	ResPath      string
	LogPath      string
	SettingsPath string
}

// Load reads and validates the application-info document at path.
func Load(path string) (*AppInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read app info: %w", err)
	}

	info, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return info, nil
}

// Parse decodes an application-info document. Every required key must be
// present and hold a JSON string; unknown keys are ignored.
func Parse(data []byte) (*AppInfo, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("malformed app info: %w", err)
	}

	info := &AppInfo{}
	targets := []struct {
		key string
		dst *string
	}{
		{KeyResPath, &info.ResPath},
		{KeyLogPath, &info.LogPath},
		{KeySettingsPath, &info.SettingsPath},
	}

	for _, t := range targets {
		raw, ok := fields[t.key]
		if !ok {
			return nil, fmt.Errorf("app info: missing required field %q", t.key)
		}
		if err := json.Unmarshal(raw, t.dst); err != nil {
			return nil, fmt.Errorf("app info: field %q must be a string", t.key)
		}
	}

	return info, nil
}

// ResourcePath joins elem onto the resource root.
func (a *AppInfo) ResourcePath(elem ...string) string {
	return filepath.Join(append([]string{a.ResPath}, elem...)...)
}

package appinfo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Settings is the user-editable part of the configuration.
type Settings struct {
	Title      string     `json:"title"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Resizable  bool       `json:"resizable"`
	Validation bool       `json:"validation"`
	ClearColor [4]float32 `json:"clear_color"`

	// FenceTimeoutMs bounds fence and acquire waits; 0 waits forever.
	FenceTimeoutMs uint64 `json:"fence_timeout_ms"`
}

func DefaultSettings() Settings {
	return Settings{
		Title:      "Tri Engine",
		Width:      1280,
		Height:     720,
		Resizable:  true,
		Validation: false,
		ClearColor: [4]float32{0, 0, 0, 1},
	}
}

// LoadSettings reads the settings document. A missing file yields the
// defaults; fields left out of the document keep their default values.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("malformed settings %s: %w", path, err)
	}

	defaults := DefaultSettings()
	if settings.Width <= 0 {
		settings.Width = defaults.Width
	}
	if settings.Height <= 0 {
		settings.Height = defaults.Height
	}
	if settings.Title == "" {
		settings.Title = defaults.Title
	}
	return settings, nil
}

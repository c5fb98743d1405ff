// Package engine owns the window and the rendering backend and drives one
// frame per Update.
package engine

import (
	"fmt"

	"tri-engine/appinfo"
	"tri-engine/core"
	"tri-engine/logger"
)

// backend is implemented by the Vulkan and OpenGL renderers.
type backend interface {
	DrawFrame() error
	Resize(width, height int)
	Destroy()
}

// window is the part of core.Window the frame loop uses.
type window interface {
	ShouldClose() bool
	PollEvents()
	WaitEvents()
	Resized() bool
	FramebufferSize() (int, int)
	IsKeyPressed(key int) bool
	SetShouldClose(value bool)
	Destroy()
}

type Engine struct {
	Info     *appinfo.AppInfo
	Settings appinfo.Settings
	Log      *logger.Logger

	window  window
	backend backend
	frames  uint64
}

// New loads the application info and settings, opens the log files and the
// window, then brings up the backend selected at build time. Anything
// created before a failure is released again.
func New(appInfoPath string) (*Engine, error) {
	info, settings, err := loadConfig(appInfoPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(info.LogPath, "engine")
	if err != nil {
		return nil, fmt.Errorf("failed to open logs: %w", err)
	}
	log.Infof("Starting %s (%s backend)", settings.Title, backendName)

	win, err := core.NewWindow(windowConfig(settings))
	if err != nil {
		log.Errorf("Window: %v", err)
		log.Close()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	b, err := newBackend(win, info, settings, log)
	if err != nil {
		log.Errorf("%s backend: %v", backendName, err)
		win.Destroy()
		log.Close()
		return nil, fmt.Errorf("failed to create %s backend: %w", backendName, err)
	}

	return &Engine{
		Info:     info,
		Settings: settings,
		Log:      log,
		window:   win,
		backend:  b,
	}, nil
}

func loadConfig(appInfoPath string) (*appinfo.AppInfo, appinfo.Settings, error) {
	info, err := appinfo.Load(appInfoPath)
	if err != nil {
		return nil, appinfo.Settings{}, err
	}
	settings, err := appinfo.LoadSettings(info.SettingsPath)
	if err != nil {
		return nil, appinfo.Settings{}, err
	}
	return info, settings, nil
}

func windowConfig(settings appinfo.Settings) core.WindowConfig {
	return core.WindowConfig{
		Width:     settings.Width,
		Height:    settings.Height,
		Title:     settings.Title,
		Resizable: settings.Resizable,
		ClientAPI: clientAPI,
	}
}

// Update processes window events and draws one frame. While the window is
// minimised it blocks on events instead of drawing. Escape closes the window.
func (e *Engine) Update() error {
	e.window.PollEvents()

	if e.window.IsKeyPressed(core.KeyEscape) {
		e.window.SetShouldClose(true)
		return nil
	}

	width, height := e.window.FramebufferSize()
	if width == 0 || height == 0 {
		e.window.WaitEvents()
		return nil
	}

	if e.window.Resized() {
		e.backend.Resize(width, height)
	}

	if err := e.backend.DrawFrame(); err != nil {
		return fmt.Errorf("frame %d: %w", e.frames, err)
	}
	e.frames++
	return nil
}

// Frames returns the number of frames drawn so far.
func (e *Engine) Frames() uint64 {
	return e.frames
}

func (e *Engine) ShouldClose() bool {
	return e.window.ShouldClose()
}

// Destroy tears down the backend, then the window, then the logs.
func (e *Engine) Destroy() {
	if e.backend != nil {
		e.backend.Destroy()
		e.backend = nil
	}
	if e.window != nil {
		e.window.Destroy()
		e.window = nil
	}
	if e.Log != nil {
		e.Log.Infof("Shut down after %d frames", e.frames)
		e.Log.Close()
		e.Log = nil
	}
}

package core

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

// ClientAPI selects what the window's surface is created for.
type ClientAPI int

const (
	// NoAPI leaves the window without a GL context, for Vulkan surfaces.
	NoAPI ClientAPI = iota
	OpenGLAPI
)

type Window struct {
	Handle *glfw.Window
	Width  int
	Height int
	Title  string

	api     ClientAPI
	resized bool
}

type WindowConfig struct {
	Width     int
	Height    int
	Title     string
	Resizable bool
	ClientAPI ClientAPI
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Width:     1280,
		Height:    720,
		Title:     "Tri Engine",
		Resizable: true,
		ClientAPI: NoAPI,
	}
}

func NewWindow(config WindowConfig) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	switch config.ClientAPI {
	case OpenGLAPI:
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 1)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	default:
		if !glfw.VulkanSupported() {
			glfw.Terminate()
			return nil, fmt.Errorf("failed to create window: no Vulkan loader found")
		}
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	}
	glfw.WindowHint(glfw.Resizable, boolToInt(config.Resizable))

	handle, err := glfw.CreateWindow(config.Width, config.Height, config.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	window := &Window{
		Handle: handle,
		Width:  config.Width,
		Height: config.Height,
		Title:  config.Title,
		api:    config.ClientAPI,
	}

	if config.ClientAPI == OpenGLAPI {
		handle.MakeContextCurrent()
		glfw.SwapInterval(1)
	}

	handle.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		window.Width = width
		window.Height = height
		window.resized = true
	})

	return window, nil
}

func (w *Window) ShouldClose() bool {
	return w.Handle.ShouldClose()
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// WaitEvents blocks until at least one event arrives. Used while the window
// is minimised.
func (w *Window) WaitEvents() {
	glfw.WaitEvents()
}

// Resized reports whether the framebuffer changed size since the last call.
func (w *Window) Resized() bool {
	r := w.resized
	w.resized = false
	return r
}

func (w *Window) SwapBuffers() {
	// Vulkan presents through its swapchain
	if w.api == OpenGLAPI {
		w.Handle.SwapBuffers()
	}
}

func (w *Window) FramebufferSize() (int, int) {
	return w.Handle.GetFramebufferSize()
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.Handle.GetRequiredInstanceExtensions()
}

// VulkanProcAddr returns the loader entry point GLFW resolved.
func (w *Window) VulkanProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// CreateWindowSurface creates a VkSurfaceKHR for instance, which must be a
// VkInstance handle.
func (w *Window) CreateWindowSurface(instance interface{}) (uintptr, error) {
	return w.Handle.CreateWindowSurface(instance, nil)
}

func (w *Window) Destroy() {
	w.Handle.Destroy()
	glfw.Terminate()
}

func (w *Window) IsKeyPressed(key int) bool {
	return w.Handle.GetKey(glfw.Key(key)) == glfw.Press
}

func (w *Window) SetShouldClose(value bool) {
	w.Handle.SetShouldClose(value)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

const KeyEscape = int(glfw.KeyEscape)

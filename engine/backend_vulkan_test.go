//go:build !opengl

package engine

import (
	"path/filepath"
	"testing"

	"tri-engine/appinfo"
	"tri-engine/vulkan"
)

func TestVulkanConfig(t *testing.T) {
	info := &appinfo.AppInfo{ResPath: "res"}
	settings := appinfo.DefaultSettings()
	settings.Title = "Triangle"
	settings.ClearColor = [4]float32{0.1, 0.2, 0.3, 1}

	config := vulkanConfig(info, settings)
	if config.VertexShaderPath != filepath.Join("res", "shaders", "triangle.vert.spv") {
		t.Errorf("unexpected vertex shader path %q", config.VertexShaderPath)
	}
	if config.FragmentShaderPath != filepath.Join("res", "shaders", "triangle.frag.spv") {
		t.Errorf("unexpected fragment shader path %q", config.FragmentShaderPath)
	}
	if config.Instance.AppName != "Triangle" {
		t.Errorf("expected app name Triangle, got %q", config.Instance.AppName)
	}
	if config.ClearColor != settings.ClearColor {
		t.Errorf("expected clear colour %v, got %v", settings.ClearColor, config.ClearColor)
	}
	if config.Instance.EnableValidation() {
		t.Error("validation is off in the default settings")
	}
	if config.FenceTimeout != vulkan.NoTimeout {
		t.Errorf("zero timeout setting should wait forever, got %d", config.FenceTimeout)
	}
}

func TestVulkanConfigValidationAndTimeout(t *testing.T) {
	settings := appinfo.DefaultSettings()
	settings.Validation = true
	settings.FenceTimeoutMs = 250

	config := vulkanConfig(&appinfo.AppInfo{ResPath: "res"}, settings)
	if !config.Instance.EnableValidation() {
		t.Error("expected validation layers")
	}
	if config.FenceTimeout != 250_000_000 {
		t.Errorf("expected 250ms in nanoseconds, got %d", config.FenceTimeout)
	}
	if defaults := vulkan.DefaultInstanceConfig(); defaults.EnableValidation() {
		t.Error("enabling validation must not change the defaults")
	}
}

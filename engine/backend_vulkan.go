//go:build !opengl

package engine

import (
	"time"

	"tri-engine/appinfo"
	"tri-engine/core"
	"tri-engine/logger"
	"tri-engine/vulkan"
)

const (
	backendName = "Vulkan"
	clientAPI   = core.NoAPI
)

func vulkanConfig(info *appinfo.AppInfo, settings appinfo.Settings) vulkan.Config {
	config := vulkan.DefaultConfig()
	config.Instance.AppName = settings.Title
	if settings.Validation {
		config.Instance = config.Instance.WithValidation()
	}
	config.VertexShaderPath = info.ResourcePath("shaders", "triangle.vert.spv")
	config.FragmentShaderPath = info.ResourcePath("shaders", "triangle.frag.spv")
	config.ClearColor = settings.ClearColor
	config.FenceTimeout = vulkan.TimeoutFromDuration(time.Duration(settings.FenceTimeoutMs) * time.Millisecond)
	return config
}

func newBackend(win *core.Window, info *appinfo.AppInfo, settings appinfo.Settings, log *logger.Logger) (backend, error) {
	r, err := vulkan.NewRenderer(win, vulkanConfig(info, settings), log)
	if err != nil {
		return nil, err
	}
	return r, nil
}

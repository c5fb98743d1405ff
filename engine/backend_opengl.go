//go:build opengl

package engine

import (
	"tri-engine/appinfo"
	"tri-engine/core"
	"tri-engine/logger"
	"tri-engine/opengl"
)

const (
	backendName = "OpenGL"
	clientAPI   = core.OpenGLAPI
)

func openglConfig(info *appinfo.AppInfo, settings appinfo.Settings) opengl.Config {
	config := opengl.DefaultConfig()
	config.VertexShaderPath = info.ResourcePath("shaders", "triangle.vert.glsl")
	config.FragmentShaderPath = info.ResourcePath("shaders", "triangle.frag.glsl")
	config.ClearColor = settings.ClearColor
	return config
}

func newBackend(win *core.Window, info *appinfo.AppInfo, settings appinfo.Settings, log *logger.Logger) (backend, error) {
	r, err := opengl.NewRenderer(win, openglConfig(info, settings), log)
	if err != nil {
		return nil, err
	}
	return r, nil
}

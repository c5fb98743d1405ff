// Command shaderc compiles the GLSL 450 sources in the shader directory to
// the SPIR-V binaries the Vulkan backend loads. It needs glslc or
// glslangValidator on PATH.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"tri-engine/core"
	"tri-engine/logger"
)

// stages are the source extensions compiled to SPIR-V.
var stages = []string{".vert", ".frag"}

func main() {
	dir := flag.String("dir", "res/shaders", "directory holding the shader sources")
	flag.Parse()

	log := logger.NewWriter(os.Stderr)
	sources, err := findSources(*dir)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	tool, err := findCompiler(exec.LookPath)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	failed := false
	for _, src := range sources {
		out := spirvPath(src)
		if err := compile(tool, src, out); err != nil {
			log.Errorf("%s: %v", src, err)
			failed = true
			continue
		}
		log.Infof("%s -> %s", src, out)
	}
	if failed {
		os.Exit(1)
	}
}

func findSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list shaders: %w", err)
	}

	var sources []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		for _, ext := range stages {
			if filepath.Ext(entry.Name()) == ext {
				sources = append(sources, filepath.Join(dir, entry.Name()))
			}
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no %s sources in %s", strings.Join(stages, "/"), dir)
	}
	return sources, nil
}

// spirvPath maps "triangle.vert" to "triangle.vert.spv".
func spirvPath(src string) string {
	return src + ".spv"
}

// findCompiler prefers glslc and falls back to glslangValidator.
func findCompiler(lookPath func(string) (string, error)) (string, error) {
	for _, name := range []string{"glslc", "glslangValidator"} {
		if path, err := lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no shader compiler found (glslc or glslangValidator)")
}

func compilerArgs(tool, src, out string) []string {
	if strings.HasPrefix(filepath.Base(tool), "glslangValidator") {
		return []string{"-V", src, "-o", out}
	}
	return []string{src, "-o", out, "-O"}
}

func compile(tool, src, out string) error {
	cmd := exec.Command(tool, compilerArgs(tool, src, out)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("shader compilation failed: %v\n%s", err, output)
	}

	data, err := core.ReadFile(out)
	if err != nil {
		return err
	}
	if len(data)%4 != 0 {
		return fmt.Errorf("%s is not a whole number of SPIR-V words (%d bytes)", out, len(data))
	}
	return nil
}

package main

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func TestSpirvPath(t *testing.T) {
	if got := spirvPath("res/shaders/triangle.vert"); got != "res/shaders/triangle.vert.spv" {
		t.Errorf("unexpected output path %q", got)
	}
}

func TestFindCompiler(t *testing.T) {
	tests := []struct {
		name      string
		available map[string]bool
		expected  string
		wantErr   bool
	}{
		{"both", map[string]bool{"glslc": true, "glslangValidator": true}, "/bin/glslc", false},
		{"validator only", map[string]bool{"glslangValidator": true}, "/bin/glslangValidator", false},
		{"none", map[string]bool{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := findCompiler(func(name string) (string, error) {
				if tt.available[name] {
					return "/bin/" + name, nil
				}
				return "", errors.New("not found")
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestCompilerArgs(t *testing.T) {
	if got := compilerArgs("/usr/bin/glslc", "a.vert", "a.vert.spv"); !reflect.DeepEqual(got, []string{"a.vert", "-o", "a.vert.spv", "-O"}) {
		t.Errorf("glslc args: %v", got)
	}
	if got := compilerArgs("/usr/bin/glslangValidator", "a.frag", "a.frag.spv"); !reflect.DeepEqual(got, []string{"-V", "a.frag", "-o", "a.frag.spv"}) {
		t.Errorf("glslangValidator args: %v", got)
	}
}

func TestFindSources(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"triangle.vert", "triangle.frag", "triangle.vert.glsl", "triangle.vert.spv", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	sources, err := findSources(dir)
	if err != nil {
		t.Fatalf("findSources: %v", err)
	}
	sort.Strings(sources)
	expected := []string{filepath.Join(dir, "triangle.frag"), filepath.Join(dir, "triangle.vert")}
	if !reflect.DeepEqual(sources, expected) {
		t.Errorf("expected %v, got %v", expected, sources)
	}

	if _, err := findSources(t.TempDir()); err == nil {
		t.Error("empty directory should be an error")
	}
}

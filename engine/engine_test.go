package engine

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"tri-engine/core"
	"tri-engine/logger"
)

type fakeWindow struct {
	calls         *[]string
	width, height int
	resized       bool
	closing       bool
	keys          map[int]bool
}

func (w *fakeWindow) ShouldClose() bool { return w.closing }
func (w *fakeWindow) PollEvents()       { *w.calls = append(*w.calls, "poll") }
func (w *fakeWindow) WaitEvents()       { *w.calls = append(*w.calls, "wait") }
func (w *fakeWindow) Destroy()          { *w.calls = append(*w.calls, "destroy window") }

func (w *fakeWindow) IsKeyPressed(key int) bool { return w.keys[key] }
func (w *fakeWindow) SetShouldClose(value bool) { w.closing = value }

func (w *fakeWindow) Resized() bool {
	r := w.resized
	w.resized = false
	return r
}

func (w *fakeWindow) FramebufferSize() (int, int) { return w.width, w.height }

type fakeBackend struct {
	calls *[]string
	err   error
	size  [2]int
}

func (b *fakeBackend) DrawFrame() error {
	*b.calls = append(*b.calls, "draw")
	return b.err
}

func (b *fakeBackend) Resize(width, height int) {
	*b.calls = append(*b.calls, "resize")
	b.size = [2]int{width, height}
}

func (b *fakeBackend) Destroy() { *b.calls = append(*b.calls, "destroy backend") }

func newTestEngine(width, height int) (*Engine, *fakeWindow, *fakeBackend, *[]string) {
	calls := &[]string{}
	w := &fakeWindow{calls: calls, width: width, height: height}
	b := &fakeBackend{calls: calls}
	return &Engine{Log: logger.Discard(), window: w, backend: b}, w, b, calls
}

func TestUpdateDrawsOneFrame(t *testing.T) {
	e, _, _, calls := newTestEngine(800, 600)

	for i := 0; i < 3; i++ {
		if err := e.Update(); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if e.Frames() != 3 {
		t.Errorf("expected 3 frames, got %d", e.Frames())
	}
	expected := []string{"poll", "draw", "poll", "draw", "poll", "draw"}
	if !reflect.DeepEqual(*calls, expected) {
		t.Errorf("expected %v, got %v", expected, *calls)
	}
}

func TestUpdateForwardsResize(t *testing.T) {
	e, w, b, calls := newTestEngine(1024, 768)
	w.resized = true

	if err := e.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if b.size != [2]int{1024, 768} {
		t.Errorf("expected resize to 1024x768, got %v", b.size)
	}
	if expected := []string{"poll", "resize", "draw"}; !reflect.DeepEqual(*calls, expected) {
		t.Errorf("expected %v, got %v", expected, *calls)
	}

	*calls = nil
	if err := e.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if expected := []string{"poll", "draw"}; !reflect.DeepEqual(*calls, expected) {
		t.Errorf("resize must be forwarded once, got %v", *calls)
	}
}

func TestUpdateMinimisedWaits(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"zero width", 0, 600},
		{"zero height", 800, 0},
		{"both zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, w, _, calls := newTestEngine(tt.width, tt.height)
			w.resized = true

			if err := e.Update(); err != nil {
				t.Fatalf("Update: %v", err)
			}
			if expected := []string{"poll", "wait"}; !reflect.DeepEqual(*calls, expected) {
				t.Errorf("expected %v, got %v", expected, *calls)
			}
			if e.Frames() != 0 {
				t.Errorf("no frame should be counted, got %d", e.Frames())
			}
			if !w.resized {
				t.Error("the pending resize should survive until the window is restored")
			}
		})
	}
}

func TestUpdateReturnsDrawError(t *testing.T) {
	e, _, b, _ := newTestEngine(800, 600)
	lost := errors.New("swapchain lost")
	b.err = lost

	err := e.Update()
	if !errors.Is(err, lost) {
		t.Fatalf("expected the backend error, got %v", err)
	}
	if e.Frames() != 0 {
		t.Errorf("failed frame should not be counted, got %d", e.Frames())
	}
}

func TestDestroyOrder(t *testing.T) {
	e, _, _, calls := newTestEngine(800, 600)
	e.Destroy()

	if expected := []string{"destroy backend", "destroy window"}; !reflect.DeepEqual(*calls, expected) {
		t.Errorf("expected %v, got %v", expected, *calls)
	}

	*calls = nil
	e.Destroy()
	if len(*calls) != 0 {
		t.Errorf("second Destroy should do nothing, got %v", *calls)
	}
}

func TestShouldClose(t *testing.T) {
	e, w, _, _ := newTestEngine(800, 600)
	if e.ShouldClose() {
		t.Error("expected open window")
	}
	w.closing = true
	if !e.ShouldClose() {
		t.Error("expected ShouldClose to follow the window")
	}
}

func TestUpdateEscapeCloses(t *testing.T) {
	e, w, _, calls := newTestEngine(800, 600)
	w.keys = map[int]bool{core.KeyEscape: true}

	if err := e.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !e.ShouldClose() {
		t.Error("Escape should close the window")
	}
	if expected := []string{"poll"}; !reflect.DeepEqual(*calls, expected) {
		t.Errorf("no frame should be drawn after Escape, got %v", *calls)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	settingsPath := writeFile(t, dir, "settings.json", `{"title": "Triangle", "width": 640, "height": 480, "fence_timeout_ms": 500}`)
	infoPath := writeFile(t, dir, "app_info.json",
		`{"res_path": "res", "log_path": "logs", "settings_path": "`+filepath.ToSlash(settingsPath)+`"}`)

	info, settings, err := loadConfig(infoPath)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if info.ResPath != "res" || info.LogPath != "logs" {
		t.Errorf("unexpected app info %+v", info)
	}
	if settings.Title != "Triangle" || settings.Width != 640 || settings.Height != 480 {
		t.Errorf("unexpected settings %+v", settings)
	}
	if settings.FenceTimeoutMs != 500 {
		t.Errorf("expected fence timeout 500, got %d", settings.FenceTimeoutMs)
	}

	cfg := windowConfig(settings)
	if cfg.Width != 640 || cfg.Height != 480 || cfg.Title != "Triangle" || cfg.ClientAPI != clientAPI {
		t.Errorf("unexpected window config %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
	}{
		{"missing app info", filepath.Join(dir, "absent.json")},
		{"malformed app info", writeFile(t, dir, "bad.json", `{"res_path": `)},
		{"missing field", writeFile(t, dir, "partial.json", `{"res_path": "res", "log_path": "logs"}`)},
		{"malformed settings", writeFile(t, dir, "info.json",
			`{"res_path": "res", "log_path": "logs", "settings_path": "`+
				filepath.ToSlash(writeFile(t, dir, "broken_settings.json", `{"width": "wide"}`))+`"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := loadConfig(tt.path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestNewFailsBeforeWindow(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected New to fail on a missing app info document")
	}
}

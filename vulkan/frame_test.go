package vulkan

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func TestImageTrackerStartsUntracked(t *testing.T) {
	tracker := newImageTracker(3)
	if tracker.Len() != 3 {
		t.Fatalf("expected 3 slots, got %d", tracker.Len())
	}
	for i := uint32(0); i < 3; i++ {
		prev, err := tracker.Claim(i, 0)
		if err != nil {
			t.Fatalf("Claim(%d): %v", i, err)
		}
		if prev != untracked {
			t.Errorf("image %d: first claim should have nothing to wait on, got %d", i, prev)
		}
	}
}

func TestImageTrackerReportsPreviousSlot(t *testing.T) {
	tracker := newImageTracker(2)

	// Frame slot 0 uses image 1, then slot 1 acquires the same image.
	if _, err := tracker.Claim(1, 0); err != nil {
		t.Fatal(err)
	}
	prev, err := tracker.Claim(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if prev != 0 {
		t.Errorf("expected to wait on slot 0, got %d", prev)
	}

	// The same slot coming back to the same image has already waited.
	prev, err = tracker.Claim(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if prev != untracked {
		t.Errorf("same slot should not wait on itself, got %d", prev)
	}
}

func TestImageTrackerOutOfRange(t *testing.T) {
	tracker := newImageTracker(2)
	if _, err := tracker.Claim(2, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestAfterAcquire(t *testing.T) {
	tests := []struct {
		res     vk.Result
		action  frameAction
		wantErr bool
	}{
		{vk.Success, actionContinue, false},
		{vk.Suboptimal, actionRebuildAfter, false},
		{vk.ErrorOutOfDate, actionRebuildNow, false},
		{vk.Timeout, actionRebuildNow, false},
		{vk.NotReady, actionRebuildNow, false},
		{vk.ErrorDeviceLost, actionContinue, true},
		{vk.ErrorSurfaceLost, actionContinue, true},
	}

	for _, tt := range tests {
		action, err := afterAcquire(tt.res)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: unexpected error state %v", resultName(tt.res), err)
			continue
		}
		if err == nil && action != tt.action {
			t.Errorf("%s: expected action %d, got %d", resultName(tt.res), tt.action, action)
		}
		if err != nil && !IsResult(err, tt.res) {
			t.Errorf("%s: error should carry the result, got %v", resultName(tt.res), err)
		}
	}
}

func TestAfterPresent(t *testing.T) {
	tests := []struct {
		res     vk.Result
		resized bool
		rebuild bool
		wantErr bool
	}{
		{vk.Success, false, false, false},
		{vk.Success, true, true, false},
		{vk.Suboptimal, false, true, false},
		{vk.ErrorOutOfDate, false, true, false},
		{vk.ErrorDeviceLost, false, false, true},
	}

	for _, tt := range tests {
		rebuild, err := afterPresent(tt.res, tt.resized)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s resized=%t: unexpected error state %v", resultName(tt.res), tt.resized, err)
			continue
		}
		if rebuild != tt.rebuild {
			t.Errorf("%s resized=%t: expected rebuild=%t", resultName(tt.res), tt.resized, tt.rebuild)
		}
	}
}

func TestTimeoutFromDuration(t *testing.T) {
	if got := TimeoutFromDuration(0); got != NoTimeout {
		t.Errorf("zero: expected NoTimeout, got %d", got)
	}
	if got := TimeoutFromDuration(-time.Second); got != NoTimeout {
		t.Errorf("negative: expected NoTimeout, got %d", got)
	}
	if NoTimeout != vk.MaxUint64 {
		t.Errorf("NoTimeout should be the largest uint64, got %d", NoTimeout)
	}
	if got := TimeoutFromDuration(250 * time.Millisecond); got != 250_000_000 {
		t.Errorf("250ms: expected 250000000ns, got %d", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.FenceTimeout != NoTimeout {
		t.Errorf("expected no timeout by default, got %d", config.FenceTimeout)
	}
	if len(config.Draws) != 1 || config.Draws[0] != (DrawCall{VertexCount: 3, InstanceCount: 1}) {
		t.Errorf("expected a single 3-vertex draw, got %+v", config.Draws)
	}
	if len(config.Vertices) != 3 {
		t.Errorf("expected the triangle's 3 vertices, got %d", len(config.Vertices))
	}
	if config.ClearColor != [4]float32{0, 0, 0, 1} {
		t.Errorf("expected opaque black, got %v", config.ClearColor)
	}
	if len(config.Instance.DeviceExtensions) != 1 || config.Instance.DeviceExtensions[0] != SwapchainExtension {
		t.Errorf("expected only the swapchain device extension, got %v", config.Instance.DeviceExtensions)
	}
}

package vulkan

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func TestChooseSurfaceFormat(t *testing.T) {
	tests := []struct {
		name     string
		formats  []vk.SurfaceFormat
		expected vk.SurfaceFormat
	}{
		{"preferred present", []vk.SurfaceFormat{rgbaUnorm, bgraSRGB}, bgraSRGB},
		{"fallback to first", []vk.SurfaceFormat{rgbaUnorm, {Format: vk.FormatB8g8r8a8Unorm}}, rgbaUnorm},
		{"srgb format wrong colour space", []vk.SurfaceFormat{
			{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceExtendedSrgbLinear},
			rgbaUnorm,
		}, vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceExtendedSrgbLinear}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ChooseSurfaceFormat(tt.formats)
			if err != nil {
				t.Fatalf("ChooseSurfaceFormat: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}

	if _, err := ChooseSurfaceFormat(nil); !errors.Is(err, ErrUnsupported) {
		t.Errorf("empty list: expected ErrUnsupported, got %v", err)
	}
}

func TestChoosePresentMode(t *testing.T) {
	tests := []struct {
		name     string
		modes    []vk.PresentMode
		expected vk.PresentMode
	}{
		{"mailbox offered", []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}, vk.PresentModeMailbox},
		{"no mailbox", []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo}, vk.PresentModeFifo},
		{"immediate only", []vk.PresentMode{vk.PresentModeImmediate}, vk.PresentModeFifo},
		{"empty", nil, vk.PresentModeFifo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChoosePresentMode(tt.modes); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func flexibleCaps(minW, minH, maxW, maxH uint32) vk.SurfaceCapabilities {
	return vk.SurfaceCapabilities{
		MinImageCount:  2,
		CurrentExtent:  vk.Extent2D{Width: undefinedExtent, Height: undefinedExtent},
		MinImageExtent: vk.Extent2D{Width: minW, Height: minH},
		MaxImageExtent: vk.Extent2D{Width: maxW, Height: maxH},
	}
}

func TestChooseExtentClamps(t *testing.T) {
	caps := flexibleCaps(100, 100, 1920, 1080)
	tests := []struct {
		name          string
		width, height uint32
		expected      vk.Extent2D
	}{
		{"inside", 800, 600, vk.Extent2D{Width: 800, Height: 600}},
		{"too large", 4000, 3000, vk.Extent2D{Width: 1920, Height: 1080}},
		{"too small", 10, 20, vk.Extent2D{Width: 100, Height: 100}},
		{"mixed", 50, 2000, vk.Extent2D{Width: 100, Height: 1080}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChooseExtent(caps, tt.width, tt.height); got != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestChooseExtentFixed(t *testing.T) {
	caps := flexibleCaps(100, 100, 1920, 1080)
	caps.CurrentExtent = vk.Extent2D{Width: 1024, Height: 768}

	for _, size := range [][2]uint32{{1, 1}, {800, 600}, {5000, 5000}} {
		if got := ChooseExtent(caps, size[0], size[1]); got != caps.CurrentExtent {
			t.Errorf("requested %v: expected current extent %+v, got %+v", size, caps.CurrentExtent, got)
		}
	}
}

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		name     string
		min, max uint32
		expected uint32
	}{
		{"unbounded", 2, 0, 3},
		{"clamped", 2, 2, 2},
		{"room above", 2, 8, 3},
		{"single", 1, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := vk.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}
			if got := ChooseImageCount(caps); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestSharingFor(t *testing.T) {
	mode, families := SharingFor(QueueFamilyIndices{Graphics: 0, Present: 0, HasGraphics: true, HasPresent: true})
	if mode != vk.SharingModeExclusive || families != nil {
		t.Errorf("same family: expected exclusive with no list, got %d %v", mode, families)
	}

	mode, families = SharingFor(QueueFamilyIndices{Graphics: 0, Present: 2, HasGraphics: true, HasPresent: true})
	if mode != vk.SharingModeConcurrent || !reflect.DeepEqual(families, []uint32{0, 2}) {
		t.Errorf("different families: expected concurrent [0 2], got %d %v", mode, families)
	}
}

func testSupport() SwapchainSupport {
	caps := flexibleCaps(1, 1, 4096, 4096)
	caps.CurrentTransform = vk.SurfaceTransformIdentityBit
	return SwapchainSupport{
		Capabilities: caps,
		Formats:      []vk.SurfaceFormat{rgbaUnorm, bgraSRGB},
		PresentModes: []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
	}
}

func TestPlanSwapchain(t *testing.T) {
	indices := QueueFamilyIndices{Graphics: 1, Present: 1, HasGraphics: true, HasPresent: true}
	plan, err := PlanSwapchain(testSupport(), 1280, 720, indices)
	if err != nil {
		t.Fatalf("PlanSwapchain: %v", err)
	}

	if plan.Format != bgraSRGB {
		t.Errorf("Format: expected %+v, got %+v", bgraSRGB, plan.Format)
	}
	if plan.PresentMode != vk.PresentModeMailbox {
		t.Errorf("PresentMode: expected mailbox, got %d", plan.PresentMode)
	}
	if plan.Extent != (vk.Extent2D{Width: 1280, Height: 720}) {
		t.Errorf("Extent: expected 1280x720, got %+v", plan.Extent)
	}
	if plan.ImageCount != 3 {
		t.Errorf("ImageCount: expected 3, got %d", plan.ImageCount)
	}
	if plan.SharingMode != vk.SharingModeExclusive {
		t.Errorf("SharingMode: expected exclusive, got %d", plan.SharingMode)
	}
	if plan.Transform != vk.SurfaceTransformIdentityBit {
		t.Errorf("Transform: expected identity, got %d", plan.Transform)
	}
}

func TestPlanSwapchainRepeatable(t *testing.T) {
	indices := QueueFamilyIndices{Graphics: 0, Present: 1, HasGraphics: true, HasPresent: true}
	first, err := PlanSwapchain(testSupport(), 800, 600, indices)
	if err != nil {
		t.Fatalf("PlanSwapchain: %v", err)
	}
	second, err := PlanSwapchain(testSupport(), 800, 600, indices)
	if err != nil {
		t.Fatalf("PlanSwapchain: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("plans differ for identical input:\n%+v\n%+v", first, second)
	}
	if first.ImageCount != second.ImageCount || first.Extent != second.Extent {
		t.Error("image count and extent must match across rebuilds")
	}
}

func TestPlanSwapchainErrors(t *testing.T) {
	complete := QueueFamilyIndices{HasGraphics: true, HasPresent: true}

	if _, err := PlanSwapchain(testSupport(), 800, 600, QueueFamilyIndices{HasGraphics: true}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("incomplete indices: expected ErrInvalidArgument, got %v", err)
	}

	noFormats := testSupport()
	noFormats.Formats = nil
	if _, err := PlanSwapchain(noFormats, 800, 600, complete); !errors.Is(err, ErrUnsupported) {
		t.Errorf("no formats: expected ErrUnsupported, got %v", err)
	}

	noModes := testSupport()
	noModes.PresentModes = nil
	if _, err := PlanSwapchain(noModes, 800, 600, complete); !errors.Is(err, ErrUnsupported) {
		t.Errorf("no present modes: expected ErrUnsupported, got %v", err)
	}
}

func TestSwapchainSupportAdequate(t *testing.T) {
	if !testSupport().Adequate() {
		t.Error("formats and modes present, expected adequate")
	}
	if (SwapchainSupport{Formats: []vk.SurfaceFormat{bgraSRGB}}).Adequate() {
		t.Error("no present modes, expected inadequate")
	}
}

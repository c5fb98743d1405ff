package vulkan

import (
	"math"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// SwapchainSupport is what a device/surface pair offers for presentation.
type SwapchainSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// Adequate reports whether the pair can present at all: it needs at least
// one format and one present mode.
func (s SwapchainSupport) Adequate() bool {
	return len(s.Formats) > 0 && len(s.PresentModes) > 0
}

// QuerySwapchainSupport reads capabilities, formats and present modes with
// the count-then-fill pattern. An empty format or present-mode list is
// reported as ErrUnsupported alongside whatever was read.
func QuerySwapchainSupport(device vk.PhysicalDevice, surface vk.Surface) (SwapchainSupport, error) {
	var support SwapchainSupport

	if err := check(vk.GetPhysicalDeviceSurfaceCapabilities(device, surface, &support.Capabilities), "get surface capabilities"); err != nil {
		return support, err
	}
	support.Capabilities.Deref()
	support.Capabilities.CurrentExtent.Deref()
	support.Capabilities.MinImageExtent.Deref()
	support.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if err := check(vk.GetPhysicalDeviceSurfaceFormats(device, surface, &formatCount, nil), "count surface formats"); err != nil {
		return support, err
	}
	if formatCount > 0 {
		formats := make([]vk.SurfaceFormat, formatCount)
		if err := check(vk.GetPhysicalDeviceSurfaceFormats(device, surface, &formatCount, formats), "get surface formats"); err != nil {
			return support, err
		}
		support.Formats = formats[:formatCount]
		for i := range support.Formats {
			support.Formats[i].Deref()
		}
	}

	var modeCount uint32
	if err := check(vk.GetPhysicalDeviceSurfacePresentModes(device, surface, &modeCount, nil), "count present modes"); err != nil {
		return support, err
	}
	if modeCount > 0 {
		modes := make([]vk.PresentMode, modeCount)
		if err := check(vk.GetPhysicalDeviceSurfacePresentModes(device, surface, &modeCount, modes), "get present modes"); err != nil {
			return support, err
		}
		support.PresentModes = modes[:modeCount]
	}

	if !support.Adequate() {
		return SwapchainSupport{Capabilities: support.Capabilities}, errors.Wrapf(ErrUnsupported,
			"surface offers %d formats and %d present modes", formatCount, modeCount)
	}
	return support, nil
}

// ChooseSurfaceFormat prefers 8-bit BGRA sRGB with the nonlinear sRGB colour
// space and otherwise takes the first offered format.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, errors.Wrap(ErrUnsupported, "no surface formats")
	}
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f, nil
		}
	}
	return formats[0], nil
}

// ChoosePresentMode prefers mailbox and falls back to FIFO, which every
// implementation must support.
func ChoosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return m
		}
	}
	return vk.PresentModeFifo
}

// undefinedExtent is the currentExtent value meaning "the swapchain decides".
const undefinedExtent = math.MaxUint32

// ChooseExtent returns the surface's current extent when it is fixed, and
// otherwise clamps the requested size into the supported range.
func ChooseExtent(caps vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != undefinedExtent {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum, capped by the
// maximum when the surface reports one (0 means unbounded).
func ChooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func clamp(val, lo, hi uint32) uint32 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

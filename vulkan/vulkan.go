// Package vulkan is the Vulkan rendering backend: device and queue discovery,
// swapchain construction and recreation, the fixed triangle pipeline and the
// per-frame acquire/submit/present loop.
//
// The decision logic (queue-family choice, device scoring, surface format,
// present mode, extent and image count) is kept in plain functions over
// Vulkan structs so it can be exercised without a GPU.
package vulkan

import (
	"math"
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// MaxFramesInFlight is the number of frames whose GPU work may be
// outstanding at once.
const MaxFramesInFlight = 2

// NoTimeout makes fence and acquire waits block indefinitely.
const NoTimeout = uint64(math.MaxUint64)

// SwapchainExtension is the only device extension the renderer needs.
const SwapchainExtension = "VK_KHR_swapchain"

// ValidationLayer is the Khronos validation layer enabled in debug builds.
const ValidationLayer = "VK_LAYER_KHRONOS_validation"

// Init loads the Vulkan entry points through procAddr, the
// vkGetInstanceProcAddr pointer the windowing layer resolved.
func Init(procAddr unsafe.Pointer) error {
	if procAddr == nil {
		return errors.Wrap(ErrInvalidArgument, "vulkan loader entry point is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "vulkan init")
	}
	return nil
}

// safeString terminates s for the C side.
func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != 0 {
		return s + "\x00"
	}
	return s
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}

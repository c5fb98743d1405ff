package vulkan

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Failure kinds. Builders wrap one of these (or a *ResultError) so callers
// can tell them apart with errors.Is / errors.As.
var (
	// ErrInvalidArgument: a required handle or input is missing.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrResourceExhausted: an output array could not be sized or filled.
	ErrResourceExhausted = errors.New("resource exhausted")
	// ErrUnsupported: the device or surface lacks a required capability.
	ErrUnsupported = errors.New("device or surface unsupported")
	// ErrNoSuitableDevice: no physical device passed selection.
	ErrNoSuitableDevice = errors.New("no suitable GPU found")
	// ErrSwapchainLost: a rebuild failed and the renderer cannot draw again.
	ErrSwapchainLost = errors.New("swapchain could not be rebuilt")
)

// ResultError is a Vulkan call that returned something other than success.
type ResultError struct {
	Op     string
	Result vk.Result
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s: %s (%d)", e.Op, resultName(e.Result), int32(e.Result))
}

func resultName(res vk.Result) string {
	switch res {
	case vk.Success:
		return "success"
	case vk.NotReady:
		return "not ready"
	case vk.Timeout:
		return "timeout"
	case vk.Suboptimal:
		return "suboptimal"
	case vk.ErrorOutOfHostMemory:
		return "out of host memory"
	case vk.ErrorOutOfDeviceMemory:
		return "out of device memory"
	case vk.ErrorInitializationFailed:
		return "initialization failed"
	case vk.ErrorDeviceLost:
		return "device lost"
	case vk.ErrorLayerNotPresent:
		return "layer not present"
	case vk.ErrorExtensionNotPresent:
		return "extension not present"
	case vk.ErrorFeatureNotPresent:
		return "feature not present"
	case vk.ErrorIncompatibleDriver:
		return "incompatible driver"
	case vk.ErrorSurfaceLost:
		return "surface lost"
	case vk.ErrorOutOfDate:
		return "out of date"
	default:
		return "vulkan error"
	}
}

// check turns a vk.Result into an error annotated with op.
func check(res vk.Result, op string) error {
	if res == vk.Success {
		return nil
	}
	return errors.WithStack(&ResultError{Op: op, Result: res})
}

// IsResult reports whether err carries the given Vulkan result.
func IsResult(err error, res vk.Result) bool {
	var re *ResultError
	if errors.As(err, &re) {
		return re.Result == res
	}
	return false
}

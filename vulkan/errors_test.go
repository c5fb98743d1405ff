package vulkan

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func TestCheck(t *testing.T) {
	if err := check(vk.Success, "noop"); err != nil {
		t.Errorf("Success should give nil, got %v", err)
	}

	err := check(vk.ErrorOutOfDeviceMemory, "allocate memory")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "allocate memory: out of device memory") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !IsResult(err, vk.ErrorOutOfDeviceMemory) {
		t.Error("IsResult should match the carried result")
	}
	if IsResult(err, vk.ErrorDeviceLost) {
		t.Error("IsResult should not match a different result")
	}
}

func TestIsResultThroughWrap(t *testing.T) {
	err := errors.Wrap(check(vk.Timeout, "wait for fence"), "frame 1")
	if !IsResult(err, vk.Timeout) {
		t.Errorf("expected wrapped timeout to be found in %v", err)
	}
	if IsResult(errors.New("plain"), vk.Timeout) {
		t.Error("plain error should not carry a result")
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := errors.Wrapf(errors.Wrap(ErrUnsupported, "no formats"), "device %q", "gpu")
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("errors.Is should find ErrUnsupported in %v", err)
	}
	if errors.Is(err, ErrInvalidArgument) {
		t.Error("errors.Is matched the wrong sentinel")
	}
}

func TestResultErrorMessage(t *testing.T) {
	err := &ResultError{Op: "queue present", Result: vk.ErrorOutOfDate}
	if got := err.Error(); !strings.HasPrefix(got, "queue present: out of date") {
		t.Errorf("unexpected message %q", got)
	}
}

package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type Semaphore struct {
	Handle vk.Semaphore
}

type Fence struct {
	Handle vk.Fence
}

func CreateSemaphore(device *Device) (*Semaphore, error) {
	semaphoreInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if err := check(vk.CreateSemaphore(device.Handle, &semaphoreInfo, nil, &semaphore), "create semaphore"); err != nil {
		return nil, err
	}
	return &Semaphore{Handle: semaphore}, nil
}

func (s *Semaphore) Destroy(device *Device) {
	if s != nil && s.Handle != vk.Semaphore(vk.NullHandle) {
		vk.DestroySemaphore(device.Handle, s.Handle, nil)
		s.Handle = vk.Semaphore(vk.NullHandle)
	}
}

// CreateFence creates a fence, optionally already signalled so the first
// wait on it returns at once.
func CreateFence(device *Device, signaled bool) (*Fence, error) {
	var flags vk.FenceCreateFlags
	if signaled {
		flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	fenceInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: flags,
	}
	var fence vk.Fence
	if err := check(vk.CreateFence(device.Handle, &fenceInfo, nil, &fence), "create fence"); err != nil {
		return nil, err
	}
	return &Fence{Handle: fence}, nil
}

func (f *Fence) Destroy(device *Device) {
	if f != nil && f.Handle != vk.Fence(vk.NullHandle) {
		vk.DestroyFence(device.Handle, f.Handle, nil)
		f.Handle = vk.Fence(vk.NullHandle)
	}
}

// Wait blocks until the fence is signalled or timeout nanoseconds pass. A
// timeout is returned as a *ResultError carrying vk.Timeout.
func (f *Fence) Wait(device *Device, timeout uint64) error {
	return check(vk.WaitForFences(device.Handle, 1, []vk.Fence{f.Handle}, vk.True, timeout), "wait for fence")
}

func (f *Fence) Reset(device *Device) error {
	return check(vk.ResetFences(device.Handle, 1, []vk.Fence{f.Handle}), "reset fence")
}

// frameSync holds the per-slot objects for MaxFramesInFlight frames.
type frameSync struct {
	imageAvailable []*Semaphore
	renderFinished []*Semaphore
	inFlight       []*Fence
}

func createFrameSync(device *Device, frames int) (*frameSync, error) {
	fs := &frameSync{
		imageAvailable: make([]*Semaphore, 0, frames),
		renderFinished: make([]*Semaphore, 0, frames),
		inFlight:       make([]*Fence, 0, frames),
	}
	for i := 0; i < frames; i++ {
		available, err := CreateSemaphore(device)
		if err != nil {
			fs.Destroy(device)
			return nil, errors.Wrapf(err, "frame %d image-available", i)
		}
		fs.imageAvailable = append(fs.imageAvailable, available)

		finished, err := CreateSemaphore(device)
		if err != nil {
			fs.Destroy(device)
			return nil, errors.Wrapf(err, "frame %d render-finished", i)
		}
		fs.renderFinished = append(fs.renderFinished, finished)

		fence, err := CreateFence(device, true)
		if err != nil {
			fs.Destroy(device)
			return nil, errors.Wrapf(err, "frame %d in-flight", i)
		}
		fs.inFlight = append(fs.inFlight, fence)
	}
	return fs, nil
}

func (fs *frameSync) Destroy(device *Device) {
	if fs == nil {
		return
	}
	for _, s := range fs.imageAvailable {
		s.Destroy(device)
	}
	for _, s := range fs.renderFinished {
		s.Destroy(device)
	}
	for _, f := range fs.inFlight {
		f.Destroy(device)
	}
	fs.imageAvailable, fs.renderFinished, fs.inFlight = nil, nil, nil
}

// untracked marks a swapchain image no frame slot is using.
const untracked = -1

// imageTracker remembers which frame slot last submitted work for each
// swapchain image, so a slot can wait for that work before reusing the
// image. Its length always equals the swapchain image count.
type imageTracker struct {
	slots []int
}

func newImageTracker(images int) *imageTracker {
	t := &imageTracker{slots: make([]int, images)}
	for i := range t.slots {
		t.slots[i] = untracked
	}
	return t
}

func (t *imageTracker) Len() int { return len(t.slots) }

// Claim tags image with frame and returns the slot that must be waited on
// first, or untracked when there is nothing to wait for.
func (t *imageTracker) Claim(image uint32, frame int) (int, error) {
	if int(image) >= len(t.slots) {
		return untracked, errors.Wrapf(ErrInvalidArgument, "image index %d out of range (%d images)", image, len(t.slots))
	}
	prev := t.slots[image]
	t.slots[image] = frame
	if prev == frame {
		// The caller already waited on this slot's fence.
		return untracked, nil
	}
	return prev, nil
}

// SubmitQueue submits one command buffer waiting on wait at the colour
// output stage and signalling signal and fence.
func SubmitQueue(queue vk.Queue, commandBuffer vk.CommandBuffer, wait, signal *Semaphore, fence *Fence) error {
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{wait.Handle},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{signal.Handle},
	}
	return check(vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, fence.Handle), "queue submit")
}

// PresentQueue queues image for presentation once wait is signalled. The
// raw result is returned so out-of-date and suboptimal can drive a rebuild.
func PresentQueue(queue vk.Queue, swapchain vk.Swapchain, image uint32, wait *Semaphore) vk.Result {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait.Handle},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{swapchain},
		PImageIndices:      []uint32{image},
	}
	return vk.QueuePresent(queue, &presentInfo)
}

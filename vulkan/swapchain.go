package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// SwapchainPlan is every choice made before the swapchain is created.
type SwapchainPlan struct {
	Format        vk.SurfaceFormat
	PresentMode   vk.PresentMode
	Extent        vk.Extent2D
	ImageCount    uint32
	SharingMode   vk.SharingMode
	QueueFamilies []uint32
	Transform     vk.SurfaceTransformFlagBits
}

// SharingFor picks concurrent sharing across both families when graphics
// and presentation use different families, exclusive otherwise.
func SharingFor(indices QueueFamilyIndices) (vk.SharingMode, []uint32) {
	if indices.Graphics != indices.Present {
		return vk.SharingModeConcurrent, []uint32{indices.Graphics, indices.Present}
	}
	return vk.SharingModeExclusive, nil
}

// PlanSwapchain turns surface support and a requested size into a plan. It
// is deterministic: the same inputs always give the same plan.
func PlanSwapchain(support SwapchainSupport, width, height uint32, indices QueueFamilyIndices) (SwapchainPlan, error) {
	if !indices.Complete() {
		return SwapchainPlan{}, errors.Wrap(ErrInvalidArgument, "queue family indices incomplete")
	}
	if !support.Adequate() {
		return SwapchainPlan{}, errors.Wrap(ErrUnsupported, "surface has no formats or present modes")
	}

	format, err := ChooseSurfaceFormat(support.Formats)
	if err != nil {
		return SwapchainPlan{}, err
	}

	sharing, families := SharingFor(indices)
	return SwapchainPlan{
		Format:        format,
		PresentMode:   ChoosePresentMode(support.PresentModes),
		Extent:        ChooseExtent(support.Capabilities, width, height),
		ImageCount:    ChooseImageCount(support.Capabilities),
		SharingMode:   sharing,
		QueueFamilies: families,
		Transform:     support.Capabilities.CurrentTransform,
	}, nil
}

// Swapchain is a created swapchain and its images.
type Swapchain struct {
	Handle vk.Swapchain
	Plan   SwapchainPlan
	Images []vk.Image
}

// CreateSwapchain creates a swapchain from plan. old, when not null, is the
// swapchain being replaced; the caller still owns and destroys it.
func CreateSwapchain(device *Device, surface vk.Surface, plan SwapchainPlan, old vk.Swapchain) (*Swapchain, error) {
	if device == nil || device.Handle == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "create swapchain: no device")
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               surface,
		MinImageCount:         plan.ImageCount,
		ImageFormat:           plan.Format.Format,
		ImageColorSpace:       plan.Format.ColorSpace,
		ImageExtent:           plan.Extent,
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      plan.SharingMode,
		QueueFamilyIndexCount: uint32(len(plan.QueueFamilies)),
		PQueueFamilyIndices:   plan.QueueFamilies,
		PreTransform:          plan.Transform,
		CompositeAlpha:        vk.CompositeAlphaOpaqueBit,
		PresentMode:           plan.PresentMode,
		Clipped:               vk.True,
		OldSwapchain:          old,
	}

	var handle vk.Swapchain
	if err := check(vk.CreateSwapchain(device.Handle, &createInfo, nil, &handle), "create swapchain"); err != nil {
		return nil, err
	}
	sc := &Swapchain{Handle: handle, Plan: plan}

	var count uint32
	if err := check(vk.GetSwapchainImages(device.Handle, handle, &count, nil), "count swapchain images"); err != nil {
		sc.Destroy(device)
		return nil, err
	}
	if count == 0 {
		sc.Destroy(device)
		return nil, errors.Wrap(ErrResourceExhausted, "swapchain has no images")
	}
	images := make([]vk.Image, count)
	if err := check(vk.GetSwapchainImages(device.Handle, handle, &count, images), "get swapchain images"); err != nil {
		sc.Destroy(device)
		return nil, err
	}
	sc.Images = images[:count]

	return sc, nil
}

func (sc *Swapchain) Destroy(device *Device) {
	if sc.Handle != vk.Swapchain(vk.NullHandle) {
		vk.DestroySwapchain(device.Handle, sc.Handle, nil)
		sc.Handle = vk.Swapchain(vk.NullHandle)
	}
	sc.Images = nil
}

// AcquireNextImage returns the index of the next presentable image. The
// raw result is returned so the caller can react to out-of-date, suboptimal
// and timeout.
func (sc *Swapchain) AcquireNextImage(device *Device, semaphore vk.Semaphore, timeout uint64) (uint32, vk.Result) {
	var index uint32
	res := vk.AcquireNextImage(device.Handle, sc.Handle, timeout, semaphore, vk.Fence(vk.NullHandle), &index)
	return index, res
}

// CreateImageViews creates one 2D colour view per image. On failure the
// views made so far are destroyed.
func CreateImageViews(device *Device, images []vk.Image, format vk.Format) ([]vk.ImageView, error) {
	views := make([]vk.ImageView, 0, len(images))
	for i, image := range images {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}

		var view vk.ImageView
		if err := check(vk.CreateImageView(device.Handle, &viewInfo, nil, &view), "create image view"); err != nil {
			DestroyImageViews(device, views)
			return nil, errors.Wrapf(err, "image %d", i)
		}
		views = append(views, view)
	}
	return views, nil
}

func DestroyImageViews(device *Device, views []vk.ImageView) {
	for _, view := range views {
		vk.DestroyImageView(device.Handle, view, nil)
	}
}

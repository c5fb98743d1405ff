package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// CreateFramebuffers makes one framebuffer per view, each with the view as
// its only attachment and sized to extent.
func CreateFramebuffers(device *Device, renderPass vk.RenderPass, views []vk.ImageView, extent vk.Extent2D) ([]vk.Framebuffer, error) {
	if renderPass == vk.RenderPass(vk.NullHandle) {
		return nil, errors.Wrap(ErrInvalidArgument, "create framebuffers: no render pass")
	}
	framebuffers := make([]vk.Framebuffer, 0, len(views))
	for i, view := range views {
		createInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      renderPass,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{view},
			Width:           extent.Width,
			Height:          extent.Height,
			Layers:          1,
		}
		var fb vk.Framebuffer
		if err := check(vk.CreateFramebuffer(device.Handle, &createInfo, nil, &fb), "create framebuffer"); err != nil {
			DestroyFramebuffers(device, framebuffers)
			return nil, errors.Wrapf(err, "framebuffer %d", i)
		}
		framebuffers = append(framebuffers, fb)
	}
	return framebuffers, nil
}

func DestroyFramebuffers(device *Device, framebuffers []vk.Framebuffer) {
	for _, fb := range framebuffers {
		vk.DestroyFramebuffer(device.Handle, fb, nil)
	}
}

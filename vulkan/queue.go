package vulkan

import (
	vk "github.com/vulkan-go/vulkan"
)

// QueueFamilyIndices records which queue families serve graphics and
// presentation. An index is meaningful only when its Has flag is set: 0 is a
// valid family.
type QueueFamilyIndices struct {
	Graphics    uint32
	Present     uint32
	HasGraphics bool
	HasPresent  bool
}

// Complete reports whether both families were found.
func (q QueueFamilyIndices) Complete() bool {
	return q.HasGraphics && q.HasPresent
}

// Shared reports whether one family serves both roles.
func (q QueueFamilyIndices) Shared() bool {
	return q.Complete() && q.Graphics == q.Present
}

// Unique lists the distinct family indices, graphics first.
func (q QueueFamilyIndices) Unique() []uint32 {
	var out []uint32
	if q.HasGraphics {
		out = append(out, q.Graphics)
	}
	if q.HasPresent && !(q.HasGraphics && q.Present == q.Graphics) {
		out = append(out, q.Present)
	}
	return out
}

// selectQueueFamilies scans families in order and records the first family
// with graphics capability and the first that canPresent accepts. The two
// may be the same family. Scanning stops once both are found.
func selectQueueFamilies(families []vk.QueueFamilyProperties, canPresent func(index uint32) bool) QueueFamilyIndices {
	var indices QueueFamilyIndices
	for i := range families {
		index := uint32(i)
		if !indices.HasGraphics && families[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			indices.Graphics = index
			indices.HasGraphics = true
		}
		if !indices.HasPresent && canPresent(index) {
			indices.Present = index
			indices.HasPresent = true
		}
		if indices.Complete() {
			break
		}
	}
	return indices
}

// FindQueueFamilies queries device's queue families against surface. A
// device exposing no families yields indices with neither flag set.
func FindQueueFamilies(device vk.PhysicalDevice, surface vk.Surface) QueueFamilyIndices {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, nil)
	if count == 0 {
		return QueueFamilyIndices{}
	}

	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, families)
	families = families[:count]
	for i := range families {
		families[i].Deref()
	}

	return selectQueueFamilies(families, func(index uint32) bool {
		var supported vk.Bool32
		if res := vk.GetPhysicalDeviceSurfaceSupport(device, index, surface, &supported); res != vk.Success {
			return false
		}
		return supported == vk.True
	})
}

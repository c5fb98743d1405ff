package vulkan

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type Buffer struct {
	Handle     vk.Buffer
	Memory     vk.DeviceMemory
	Size       uint64
	MappedData unsafe.Pointer
}

// CreateBuffer creates a buffer and binds freshly allocated memory with the
// requested properties to it.
func CreateBuffer(device *Device, size uint64, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (*Buffer, error) {
	if size == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "create buffer: zero size")
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	buffer := &Buffer{Size: size}
	var handle vk.Buffer
	if err := check(vk.CreateBuffer(device.Handle, &bufferInfo, nil, &handle), "create buffer"); err != nil {
		return nil, err
	}
	buffer.Handle = handle

	var memRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device.Handle, handle, &memRequirements)
	memRequirements.Deref()

	memType, err := device.FindMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		buffer.Destroy(device)
		return nil, err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memType,
	}
	var memory vk.DeviceMemory
	if err := check(vk.AllocateMemory(device.Handle, &allocInfo, nil, &memory), "allocate buffer memory"); err != nil {
		buffer.Destroy(device)
		return nil, err
	}
	buffer.Memory = memory

	if err := check(vk.BindBufferMemory(device.Handle, handle, memory, 0), "bind buffer memory"); err != nil {
		buffer.Destroy(device)
		return nil, err
	}
	return buffer, nil
}

// CreateVertexBuffer uploads data into a host-visible, coherent vertex
// buffer. The memory is left unmapped.
func CreateVertexBuffer(device *Device, data []byte) (*Buffer, error) {
	buffer, err := CreateBuffer(device, uint64(len(data)),
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, errors.Wrap(err, "vertex buffer")
	}
	if err := buffer.Map(device); err != nil {
		buffer.Destroy(device)
		return nil, err
	}
	buffer.CopyData(data)
	buffer.Unmap(device)
	return buffer, nil
}

func (b *Buffer) Map(device *Device) error {
	var data unsafe.Pointer
	if err := check(vk.MapMemory(device.Handle, b.Memory, 0, vk.DeviceSize(b.Size), 0, &data), "map buffer memory"); err != nil {
		return err
	}
	b.MappedData = data
	return nil
}

func (b *Buffer) Unmap(device *Device) {
	if b.MappedData != nil {
		vk.UnmapMemory(device.Handle, b.Memory)
		b.MappedData = nil
	}
}

// CopyData writes data to the start of the mapped range, truncated to the
// buffer size.
func (b *Buffer) CopyData(data []byte) {
	if b.MappedData == nil {
		return
	}
	if uint64(len(data)) > b.Size {
		data = data[:b.Size]
	}
	vk.Memcopy(b.MappedData, data)
}

func (b *Buffer) Destroy(device *Device) {
	b.Unmap(device)
	if b.Handle != vk.Buffer(vk.NullHandle) {
		vk.DestroyBuffer(device.Handle, b.Handle, nil)
		b.Handle = vk.Buffer(vk.NullHandle)
	}
	if b.Memory != vk.DeviceMemory(vk.NullHandle) {
		vk.FreeMemory(device.Handle, b.Memory, nil)
		b.Memory = vk.DeviceMemory(vk.NullHandle)
	}
}

package vulkan

import (
	"fmt"
	"strings"

	units "github.com/docker/go-units"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"tri-engine/logger"
)

// discreteBonus dominates the limit-based part of the score.
const discreteBonus = 1000

// DeviceProperties is the subset of a physical device's properties that
// selection looks at.
type DeviceProperties struct {
	Name                       string
	Type                       vk.PhysicalDeviceType
	MaxImageDimension2D        uint32
	MaxViewportDimensions      [2]uint32
	MaxMemoryAllocationCount   uint32
	MaxComputeSharedMemorySize uint32
}

// DeviceCandidate is everything selection needs to know about one device.
type DeviceCandidate struct {
	Handle              vk.PhysicalDevice
	Properties          DeviceProperties
	Queues              QueueFamilyIndices
	Support             SwapchainSupport
	HasDeviceExtensions bool
}

// Eligible reports whether the device can run the renderer at all.
func (c DeviceCandidate) Eligible() bool {
	return c.Queues.Complete() && c.HasDeviceExtensions && c.Support.Adequate()
}

// ScoreDevice rates a device: a large bonus for discrete GPUs plus the sum of
// a few capability limits.
func ScoreDevice(props DeviceProperties) uint64 {
	var score uint64
	if props.Type == vk.PhysicalDeviceTypeDiscreteGpu {
		score += discreteBonus
	}
	score += uint64(props.MaxImageDimension2D)
	score += uint64(props.MaxViewportDimensions[0]) + uint64(props.MaxViewportDimensions[1])
	score += uint64(props.MaxMemoryAllocationCount)
	score += uint64(props.MaxComputeSharedMemorySize)
	return score
}

// SelectDevice returns the index of the highest-scoring eligible candidate.
// Ties keep the earlier candidate. A candidate must score above zero.
func SelectDevice(candidates []DeviceCandidate) (int, error) {
	best := -1
	var bestScore uint64
	for i, c := range candidates {
		if !c.Eligible() {
			continue
		}
		if score := ScoreDevice(c.Properties); score > bestScore {
			bestScore = score
			best = i
		}
	}
	if best < 0 {
		return -1, errors.Wrapf(ErrNoSuitableDevice, "%d devices considered", len(candidates))
	}
	return best, nil
}

func devicePropertiesOf(device vk.PhysicalDevice) DeviceProperties {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(device, &props)
	props.Deref()
	props.Limits.Deref()

	return DeviceProperties{
		Name:                       vk.ToString(props.DeviceName[:]),
		Type:                       props.DeviceType,
		MaxImageDimension2D:        props.Limits.MaxImageDimension2D,
		MaxViewportDimensions:      props.Limits.MaxViewportDimensions,
		MaxMemoryAllocationCount:   props.Limits.MaxMemoryAllocationCount,
		MaxComputeSharedMemorySize: props.Limits.MaxComputeSharedMemorySize,
	}
}

func supportsExtensions(device vk.PhysicalDevice, required []string) bool {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, nil); res != vk.Success {
		return false
	}
	props := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, props); res != vk.Success {
		return false
	}
	supported := make(map[string]bool, count)
	for i := range props[:count] {
		props[i].Deref()
		supported[vk.ToString(props[i].ExtensionName[:])] = true
	}
	for _, ext := range required {
		if !supported[strings.TrimRight(ext, "\x00")] {
			return false
		}
	}
	return true
}

// InspectDevice gathers a DeviceCandidate for device against surface.
func InspectDevice(device vk.PhysicalDevice, surface vk.Surface, extensions []string) DeviceCandidate {
	c := DeviceCandidate{
		Handle:              device,
		Properties:          devicePropertiesOf(device),
		Queues:              FindQueueFamilies(device, surface),
		HasDeviceExtensions: supportsExtensions(device, extensions),
	}
	// An unsupported surface leaves Support empty, which makes the
	// candidate ineligible.
	c.Support, _ = QuerySwapchainSupport(device, surface)
	return c
}

// PickPhysicalDevice enumerates the instance's devices and returns the best
// eligible one.
func PickPhysicalDevice(instance vk.Instance, surface vk.Surface, extensions []string, log *logger.Logger) (DeviceCandidate, error) {
	var count uint32
	if err := check(vk.EnumeratePhysicalDevices(instance, &count, nil), "enumerate physical devices"); err != nil {
		return DeviceCandidate{}, err
	}
	if count == 0 {
		return DeviceCandidate{}, errors.Wrap(ErrNoSuitableDevice, "failed to find GPUs with Vulkan support")
	}

	devices := make([]vk.PhysicalDevice, count)
	if err := check(vk.EnumeratePhysicalDevices(instance, &count, devices), "enumerate physical devices"); err != nil {
		return DeviceCandidate{}, err
	}

	candidates := make([]DeviceCandidate, 0, count)
	for _, device := range devices[:count] {
		c := InspectDevice(device, surface, extensions)
		log.Debugf("Device %q (%s): score %d, eligible %t", c.Properties.Name, DeviceTypeName(c.Properties.Type),
			ScoreDevice(c.Properties), c.Eligible())
		candidates = append(candidates, c)
	}

	best, err := SelectDevice(candidates)
	if err != nil {
		return DeviceCandidate{}, err
	}
	return candidates[best], nil
}

// DeviceTypeName is the human-readable name of a physical device type.
func DeviceTypeName(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "Integrated GPU"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "Discrete GPU"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "Virtual GPU"
	case vk.PhysicalDeviceTypeCpu:
		return "CPU"
	default:
		return "Unknown"
	}
}

// Device is the logical device with its queues.
type Device struct {
	Physical      vk.PhysicalDevice
	Handle        vk.Device
	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue
	Queues        QueueFamilyIndices
	Properties    DeviceProperties
	MemoryProps   vk.PhysicalDeviceMemoryProperties
}

// CreateLogicalDevice creates the device with one queue per distinct family
// and fetches the graphics and present queues.
func CreateLogicalDevice(candidate DeviceCandidate, extensions, layers []string) (*Device, error) {
	if !candidate.Queues.Complete() {
		return nil, errors.Wrap(ErrInvalidArgument, "queue family indices incomplete")
	}
	if candidate.Handle == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "physical device is nil")
	}

	families := candidate.Queues.Unique()
	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(families))
	for _, family := range families {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
	}
	if len(layers) > 0 {
		createInfo.EnabledLayerCount = uint32(len(layers))
		createInfo.PpEnabledLayerNames = safeStrings(layers)
	}

	d := &Device{
		Physical:   candidate.Handle,
		Queues:     candidate.Queues,
		Properties: candidate.Properties,
	}
	var handle vk.Device
	if err := check(vk.CreateDevice(candidate.Handle, &createInfo, nil, &handle), "create logical device"); err != nil {
		return nil, err
	}
	d.Handle = handle

	var graphics, present vk.Queue
	vk.GetDeviceQueue(handle, d.Queues.Graphics, 0, &graphics)
	vk.GetDeviceQueue(handle, d.Queues.Present, 0, &present)
	d.GraphicsQueue = graphics
	d.PresentQueue = present

	vk.GetPhysicalDeviceMemoryProperties(candidate.Handle, &d.MemoryProps)
	d.MemoryProps.Deref()
	for i := uint32(0); i < d.MemoryProps.MemoryTypeCount; i++ {
		d.MemoryProps.MemoryTypes[i].Deref()
	}
	for i := uint32(0); i < d.MemoryProps.MemoryHeapCount; i++ {
		d.MemoryProps.MemoryHeaps[i].Deref()
	}

	return d, nil
}

func (d *Device) Destroy() {
	if d.Handle != nil {
		vk.DestroyDevice(d.Handle, nil)
		d.Handle = nil
	}
}

func (d *Device) WaitIdle() error {
	return check(vk.DeviceWaitIdle(d.Handle), "device wait idle")
}

// FindMemoryType returns the first memory type allowed by typeFilter that
// has every flag in properties.
func (d *Device) FindMemoryType(typeFilter uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	return findMemoryType(d.MemoryProps, typeFilter, properties)
}

func findMemoryType(memProps vk.PhysicalDeviceMemoryProperties, typeFilter uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	for i := uint32(0); i < memProps.MemoryTypeCount && i < vk.MaxMemoryTypes; i++ {
		if typeFilter&(1<<i) != 0 && memProps.MemoryTypes[i].PropertyFlags&properties == properties {
			return i, nil
		}
	}
	return 0, errors.Wrap(ErrUnsupported, "failed to find suitable memory type")
}

// HeapSummary describes the memory heaps in human units, for logs.
func (d *Device) HeapSummary() string {
	parts := make([]string, 0, d.MemoryProps.MemoryHeapCount)
	for i := uint32(0); i < d.MemoryProps.MemoryHeapCount && i < vk.MaxMemoryHeaps; i++ {
		heap := d.MemoryProps.MemoryHeaps[i]
		kind := "host"
		if heap.Flags&vk.MemoryHeapFlags(vk.MemoryHeapDeviceLocalBit) != 0 {
			kind = "device-local"
		}
		parts = append(parts, fmt.Sprintf("%s %s", units.BytesSize(float64(heap.Size)), kind))
	}
	return strings.Join(parts, ", ")
}

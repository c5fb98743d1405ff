package vulkan

import (
	"strings"
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"tri-engine/logger"
)

const debugReportExtension = "VK_EXT_debug_report"

// InstanceConfig is the fixed set of names the instance and device are
// built with. It is passed in by value and never modified.
type InstanceConfig struct {
	AppName          string
	EngineName       string
	AppVersion       uint32
	EngineVersion    uint32
	Extensions       []string
	ValidationLayers []string
	DeviceExtensions []string
}

func DefaultInstanceConfig() InstanceConfig {
	return InstanceConfig{
		AppName:          "Tri Engine App",
		EngineName:       "Tri Engine",
		AppVersion:       vk.MakeVersion(1, 0, 0),
		EngineVersion:    vk.MakeVersion(1, 0, 0),
		DeviceExtensions: []string{SwapchainExtension},
	}
}

// EnableValidation reports whether any validation layer was requested.
func (c InstanceConfig) EnableValidation() bool {
	return len(c.ValidationLayers) > 0
}

// WithValidation returns a copy of c that requests the Khronos validation
// layer.
func (c InstanceConfig) WithValidation() InstanceConfig {
	c.ValidationLayers = append([]string(nil), c.ValidationLayers...)
	c.ValidationLayers = append(c.ValidationLayers, ValidationLayer)
	return c
}

// instanceExtensions is the window's extensions plus what the config adds.
// Validation pulls in the debug report extension.
func (c InstanceConfig) instanceExtensions(window []string) []string {
	out := make([]string, 0, len(window)+len(c.Extensions)+1)
	seen := make(map[string]bool)
	add := func(name string) {
		name = strings.TrimRight(name, "\x00")
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, ext := range window {
		add(ext)
	}
	for _, ext := range c.Extensions {
		add(ext)
	}
	if c.EnableValidation() {
		add(debugReportExtension)
	}
	return out
}

type Instance struct {
	Handle        vk.Instance
	DebugCallback vk.DebugReportCallback
	Config        InstanceConfig
}

// NewInstance creates the instance with the window's required extensions
// and the configured layers, then loads instance-level entry points.
func NewInstance(config InstanceConfig, windowExtensions []string) (*Instance, error) {
	if config.EnableValidation() {
		if missing := missingLayers(config.ValidationLayers); len(missing) > 0 {
			return nil, errors.Wrapf(ErrUnsupported, "validation layers not available: %s", strings.Join(missing, ", "))
		}
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeString(config.AppName),
		ApplicationVersion: config.AppVersion,
		PEngineName:        safeString(config.EngineName),
		EngineVersion:      config.EngineVersion,
		ApiVersion:         vk.MakeVersion(1, 1, 0),
	}

	extensions := config.instanceExtensions(windowExtensions)
	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
	}
	if config.EnableValidation() {
		createInfo.EnabledLayerCount = uint32(len(config.ValidationLayers))
		createInfo.PpEnabledLayerNames = safeStrings(config.ValidationLayers)
	}

	var handle vk.Instance
	if err := check(vk.CreateInstance(&createInfo, nil, &handle), "create instance"); err != nil {
		return nil, err
	}
	if err := vk.InitInstance(handle); err != nil {
		vk.DestroyInstance(handle, nil)
		return nil, errors.Wrap(err, "init instance")
	}

	return &Instance{
		Handle:        handle,
		DebugCallback: vk.DebugReportCallback(vk.NullHandle),
		Config:        config,
	}, nil
}

// AttachDebugReport routes validation messages into log. It does nothing
// when validation is off.
func (i *Instance) AttachDebugReport(log *logger.Logger) error {
	if !i.Config.EnableValidation() {
		return nil
	}
	createInfo := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint,
			messageCode int32, layerPrefix string, message string, userData unsafe.Pointer) vk.Bool32 {
			logDebugReport(log, flags, messageCode, layerPrefix, message)
			return vk.False
		},
	}
	var callback vk.DebugReportCallback
	if err := check(vk.CreateDebugReportCallback(i.Handle, &createInfo, nil, &callback), "create debug report callback"); err != nil {
		return err
	}
	i.DebugCallback = callback
	return nil
}

func (i *Instance) DetachDebugReport() {
	if i.DebugCallback != vk.DebugReportCallback(vk.NullHandle) {
		vk.DestroyDebugReportCallback(i.Handle, i.DebugCallback, nil)
		i.DebugCallback = vk.DebugReportCallback(vk.NullHandle)
	}
}

func (i *Instance) Destroy() {
	i.DetachDebugReport()
	if i.Handle != nil {
		vk.DestroyInstance(i.Handle, nil)
		i.Handle = nil
	}
}

// logDebugReport routes one layer message into log. Layer messages have no
// Go source position, so the line is 0 and the message code goes in the text.
func logDebugReport(log *logger.Logger, flags vk.DebugReportFlags, code int32, layerPrefix, message string) {
	log.Log(debugSeverity(flags), "vulkan", 0, "[%s] code %d: %s", layerPrefix, code, message)
}

func debugSeverity(flags vk.DebugReportFlags) logger.Severity {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		return logger.Error
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		return logger.Warn
	default:
		return logger.Debug
	}
}

// missingLayers returns the names in wanted the loader does not offer.
func missingLayers(wanted []string) []string {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return wanted
	}
	props := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, props); res != vk.Success {
		return wanted
	}
	available := make([]string, 0, count)
	for i := range props[:count] {
		props[i].Deref()
		available = append(available, vk.ToString(props[i].LayerName[:]))
	}
	return missingNames(wanted, available)
}

func missingNames(wanted, available []string) []string {
	have := make(map[string]bool, len(available))
	for _, name := range available {
		have[name] = true
	}
	var missing []string
	for _, name := range wanted {
		if !have[strings.TrimRight(name, "\x00")] {
			missing = append(missing, name)
		}
	}
	return missing
}

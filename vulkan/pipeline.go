package vulkan

import (
	"encoding/binary"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"tri-engine/core"
)

type Pipeline struct {
	Handle vk.Pipeline
	Layout vk.PipelineLayout
}

type VertexInputDescription struct {
	Bindings   []vk.VertexInputBindingDescription
	Attributes []vk.VertexInputAttributeDescription
}

// TriangleVertexInput describes core.Vertex: one binding, a vec4 position
// at location 0 and a vec4 colour at location 1.
func TriangleVertexInput() VertexInputDescription {
	return VertexInputDescription{
		Bindings: []vk.VertexInputBindingDescription{{
			Binding:   0,
			Stride:    core.VertexStride,
			InputRate: vk.VertexInputRateVertex,
		}},
		Attributes: []vk.VertexInputAttributeDescription{
			{Location: 0, Binding: 0, Format: vk.FormatR32g32b32a32Sfloat, Offset: core.VertexPositionOffset},
			{Location: 1, Binding: 0, Format: vk.FormatR32g32b32a32Sfloat, Offset: core.VertexColorOffset},
		},
	}
}

type PipelineConfig struct {
	VertexShaderCode   []byte
	FragmentShaderCode []byte
	VertexDescription  VertexInputDescription
	Topology           vk.PrimitiveTopology
	PolygonMode        vk.PolygonMode
	CullMode           vk.CullModeFlags
	FrontFace          vk.FrontFace
	BlendEnable        bool
	Extent             vk.Extent2D
	RenderPass         vk.RenderPass
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		VertexDescription: TriangleVertexInput(),
		Topology:          vk.PrimitiveTopologyTriangleList,
		PolygonMode:       vk.PolygonModeFill,
		CullMode:          vk.CullModeFlags(vk.CullModeBackBit),
		FrontFace:         vk.FrontFaceClockwise,
		BlendEnable:       true,
	}
}

// spirvWords reinterprets a SPIR-V blob as 32-bit words.
func spirvWords(code []byte) ([]uint32, error) {
	if len(code) == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "empty shader code")
	}
	if len(code)%4 != 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "shader code length %d is not a multiple of 4", len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	return words, nil
}

func createShaderModule(device *Device, code []byte) (vk.ShaderModule, error) {
	words, err := spirvWords(code)
	if err != nil {
		return vk.ShaderModule(vk.NullHandle), err
	}
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    words,
	}
	var module vk.ShaderModule
	if err := check(vk.CreateShaderModule(device.Handle, &createInfo, nil, &module), "create shader module"); err != nil {
		return vk.ShaderModule(vk.NullHandle), err
	}
	return module, nil
}

// CreateGraphicsPipeline builds the pipeline and its empty layout. The
// shader modules only live for the duration of the call.
func CreateGraphicsPipeline(device *Device, config PipelineConfig) (*Pipeline, error) {
	if config.RenderPass == vk.RenderPass(vk.NullHandle) {
		return nil, errors.Wrap(ErrInvalidArgument, "create pipeline: no render pass")
	}
	if config.Extent.Width == 0 || config.Extent.Height == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "create pipeline: zero extent")
	}

	vertModule, err := createShaderModule(device, config.VertexShaderCode)
	if err != nil {
		return nil, errors.Wrap(err, "vertex shader")
	}
	defer vk.DestroyShaderModule(device.Handle, vertModule, nil)

	fragModule, err := createShaderModule(device, config.FragmentShaderCode)
	if err != nil {
		return nil, errors.Wrap(err, "fragment shader")
	}
	defer vk.DestroyShaderModule(device.Handle, fragModule, nil)

	shaderStages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: vertModule,
			PName:  safeString("main"),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: fragModule,
			PName:  safeString("main"),
		},
	}

	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(config.VertexDescription.Bindings)),
		PVertexBindingDescriptions:      config.VertexDescription.Bindings,
		VertexAttributeDescriptionCount: uint32(len(config.VertexDescription.Attributes)),
		PVertexAttributeDescriptions:    config.VertexDescription.Attributes,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               config.Topology,
		PrimitiveRestartEnable: vk.False,
	}

	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports: []vk.Viewport{{
			Width:    float32(config.Extent.Width),
			Height:   float32(config.Extent.Height),
			MinDepth: 0,
			MaxDepth: 1,
		}},
		ScissorCount: 1,
		PScissors: []vk.Rect2D{{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: config.Extent,
		}},
	}

	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             config.PolygonMode,
		LineWidth:               1.0,
		CullMode:                config.CullMode,
		FrontFace:               config.FrontFace,
		DepthBiasEnable:         vk.False,
	}

	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}

	blend := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
		BlendEnable:    vk.False,
	}
	if config.BlendEnable {
		blend.BlendEnable = vk.True
		blend.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		blend.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		blend.ColorBlendOp = vk.BlendOpAdd
		blend.SrcAlphaBlendFactor = vk.BlendFactorOne
		blend.DstAlphaBlendFactor = vk.BlendFactorZero
		blend.AlphaBlendOp = vk.BlendOpAdd
	}
	colorBlending := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{blend},
	}

	layoutInfo := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	var layout vk.PipelineLayout
	if err := check(vk.CreatePipelineLayout(device.Handle, &layoutInfo, nil, &layout), "create pipeline layout"); err != nil {
		return nil, err
	}

	pipelineInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(shaderStages)),
		PStages:             shaderStages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PColorBlendState:    &colorBlending,
		Layout:              layout,
		RenderPass:          config.RenderPass,
		Subpass:             0,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if err := check(vk.CreateGraphicsPipelines(device.Handle, vk.PipelineCache(vk.NullHandle), 1,
		[]vk.GraphicsPipelineCreateInfo{pipelineInfo}, nil, pipelines), "create graphics pipeline"); err != nil {
		vk.DestroyPipelineLayout(device.Handle, layout, nil)
		return nil, err
	}

	return &Pipeline{Handle: pipelines[0], Layout: layout}, nil
}

func (p *Pipeline) Destroy(device *Device) {
	if p.Handle != vk.Pipeline(vk.NullHandle) {
		vk.DestroyPipeline(device.Handle, p.Handle, nil)
		p.Handle = vk.Pipeline(vk.NullHandle)
	}
	if p.Layout != vk.PipelineLayout(vk.NullHandle) {
		vk.DestroyPipelineLayout(device.Handle, p.Layout, nil)
		p.Layout = vk.PipelineLayout(vk.NullHandle)
	}
}

// CreateRenderPass makes the single-subpass pass over one colour attachment
// in format. The external dependency keeps colour writes from starting
// before the acquired image is available.
func CreateRenderPass(device *Device, format vk.Format) (vk.RenderPass, error) {
	colorAttachment := vk.AttachmentDescription{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var renderPass vk.RenderPass
	if err := check(vk.CreateRenderPass(device.Handle, &createInfo, nil, &renderPass), "create render pass"); err != nil {
		return vk.RenderPass(vk.NullHandle), err
	}
	return renderPass, nil
}

func DestroyRenderPass(device *Device, renderPass vk.RenderPass) {
	if renderPass != vk.RenderPass(vk.NullHandle) {
		vk.DestroyRenderPass(device.Handle, renderPass, nil)
	}
}

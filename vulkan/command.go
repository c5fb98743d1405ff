package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DrawCall is one non-indexed draw.
type DrawCall struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

// TriangleDraws is the draw list for the single demo triangle.
func TriangleDraws() []DrawCall {
	return []DrawCall{{VertexCount: 3, InstanceCount: 1}}
}

type CommandPool struct {
	Handle vk.CommandPool
}

func CreateCommandPool(device *Device, family uint32) (*CommandPool, error) {
	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: family,
	}
	var pool vk.CommandPool
	if err := check(vk.CreateCommandPool(device.Handle, &poolInfo, nil, &pool), "create command pool"); err != nil {
		return nil, err
	}
	return &CommandPool{Handle: pool}, nil
}

// Destroy frees the pool and every buffer allocated from it.
func (p *CommandPool) Destroy(device *Device) {
	if p.Handle != vk.CommandPool(vk.NullHandle) {
		vk.DestroyCommandPool(device.Handle, p.Handle, nil)
		p.Handle = vk.CommandPool(vk.NullHandle)
	}
}

type CommandBuffer struct {
	Handle vk.CommandBuffer
}

func AllocateCommandBuffers(device *Device, pool *CommandPool, count uint32) ([]CommandBuffer, error) {
	if count == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "allocate zero command buffers")
	}
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool.Handle,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	}
	handles := make([]vk.CommandBuffer, count)
	if err := check(vk.AllocateCommandBuffers(device.Handle, &allocInfo, handles), "allocate command buffers"); err != nil {
		return nil, err
	}

	buffers := make([]CommandBuffer, count)
	for i := range buffers {
		buffers[i].Handle = handles[i]
	}
	return buffers, nil
}

// Begin starts recording a buffer that is resubmitted every frame.
func (cb *CommandBuffer) Begin() error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	return check(vk.BeginCommandBuffer(cb.Handle, &beginInfo), "begin command buffer")
}

func (cb *CommandBuffer) End() error {
	return check(vk.EndCommandBuffer(cb.Handle), "end command buffer")
}

func (cb *CommandBuffer) BeginRenderPass(renderPass vk.RenderPass, framebuffer vk.Framebuffer, extent vk.Extent2D, clear [4]float32) {
	renderPassInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  renderPass,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{vk.NewClearValue(clear[:])},
	}
	vk.CmdBeginRenderPass(cb.Handle, &renderPassInfo, vk.SubpassContentsInline)
}

func (cb *CommandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(cb.Handle)
}

func (cb *CommandBuffer) BindPipeline(pipeline vk.Pipeline) {
	vk.CmdBindPipeline(cb.Handle, vk.PipelineBindPointGraphics, pipeline)
}

func (cb *CommandBuffer) BindVertexBuffer(buffer vk.Buffer, offset uint64) {
	vk.CmdBindVertexBuffers(cb.Handle, 0, 1, []vk.Buffer{buffer}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

func (cb *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(cb.Handle, vertexCount, instanceCount, firstVertex, firstInstance)
}

// passRecording is everything one command buffer draws into one framebuffer.
type passRecording struct {
	renderPass   vk.RenderPass
	framebuffer  vk.Framebuffer
	extent       vk.Extent2D
	clear        [4]float32
	pipeline     vk.Pipeline
	vertexBuffer vk.Buffer
	draws        []DrawCall
}

// record writes the render pass, the pipeline bind and every draw in the
// list. Draws with no vertices or instances are skipped.
func (cb *CommandBuffer) record(rec passRecording) error {
	if err := cb.Begin(); err != nil {
		return err
	}
	cb.BeginRenderPass(rec.renderPass, rec.framebuffer, rec.extent, rec.clear)
	cb.BindPipeline(rec.pipeline)
	if rec.vertexBuffer != vk.Buffer(vk.NullHandle) {
		cb.BindVertexBuffer(rec.vertexBuffer, 0)
	}
	for _, d := range rec.draws {
		if d.VertexCount == 0 || d.InstanceCount == 0 {
			continue
		}
		cb.Draw(d.VertexCount, d.InstanceCount, d.FirstVertex, d.FirstInstance)
	}
	cb.EndRenderPass()
	return cb.End()
}

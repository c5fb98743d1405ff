package vulkan

import (
	"time"
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"tri-engine/core"
	"tri-engine/logger"
)

// Window is what the renderer needs from the windowing layer.
type Window interface {
	RequiredInstanceExtensions() []string
	CreateWindowSurface(instance interface{}) (uintptr, error)
	FramebufferSize() (int, int)
	VulkanProcAddr() unsafe.Pointer
}

type Config struct {
	Instance           InstanceConfig
	VertexShaderPath   string
	FragmentShaderPath string
	ClearColor         [4]float32
	Vertices           []core.Vertex
	Draws              []DrawCall

	// FenceTimeout bounds fence and acquire waits in nanoseconds. A wait
	// that times out rebuilds the swapchain.
	FenceTimeout uint64
}

func DefaultConfig() Config {
	return Config{
		Instance:           DefaultInstanceConfig(),
		VertexShaderPath:   "shaders/triangle.vert.spv",
		FragmentShaderPath: "shaders/triangle.frag.spv",
		ClearColor:         [4]float32{0, 0, 0, 1},
		Vertices:           core.TriangleVertices,
		Draws:              TriangleDraws(),
		FenceTimeout:       NoTimeout,
	}
}

// TimeoutFromDuration converts d to a fence timeout. Zero or negative means
// wait forever.
func TimeoutFromDuration(d time.Duration) uint64 {
	if d <= 0 {
		return NoTimeout
	}
	return uint64(d.Nanoseconds())
}

// Renderer owns every Vulkan object and draws one frame per DrawFrame.
//
// Objects live in two chains. The base chain (instance, surface, device,
// vertex buffer, frame sync objects) is built once. The swapchain chain
// (swapchain, image views, render pass, pipeline, framebuffers, command
// buffers, image tracking) is rebuilt whenever the surface changes.
type Renderer struct {
	config Config
	log    *logger.Logger
	window Window

	Instance     *Instance
	Surface      vk.Surface
	Device       *Device
	VertexBuffer *Buffer
	sync         *frameSync

	Swapchain      *Swapchain
	retired        vk.Swapchain
	ImageViews     []vk.ImageView
	RenderPass     vk.RenderPass
	Pipeline       *Pipeline
	Framebuffers   []vk.Framebuffer
	CommandPool    *CommandPool
	CommandBuffers []CommandBuffer
	images         *imageTracker

	base      *chain
	swapchain *chain

	CurrentFrame int
	resized      bool
	pending      bool
	pendingSync  bool
}

// NewRenderer initialises Vulkan for window and builds everything needed
// to draw. On failure nothing is left allocated.
func NewRenderer(window Window, config Config, log *logger.Logger) (*Renderer, error) {
	if window == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "renderer: nil window")
	}
	if config.FenceTimeout == 0 {
		config.FenceTimeout = NoTimeout
	}
	if err := Init(window.VulkanProcAddr()); err != nil {
		return nil, err
	}

	r := &Renderer{
		config:  config,
		log:     log,
		window:  window,
		Surface: vk.Surface(vk.NullHandle),
		retired: vk.Swapchain(vk.NullHandle),
	}
	r.base = r.baseChain()
	r.swapchain = r.swapchainChain()

	if err := r.base.Build(); err != nil {
		return nil, err
	}
	if err := r.swapchain.Build(); err != nil {
		r.destroyRetired()
		r.base.Release()
		return nil, err
	}
	r.logSwapchain("Swapchain created")
	return r, nil
}

func (r *Renderer) baseChain() *chain {
	return newChain("renderer").
		add("instance", func() error {
			instance, err := NewInstance(r.config.Instance, r.window.RequiredInstanceExtensions())
			if err != nil {
				return err
			}
			r.Instance = instance
			return nil
		}, func() {
			r.Instance.Destroy()
			r.Instance = nil
		}).
		add("debug report", func() error {
			return r.Instance.AttachDebugReport(r.log)
		}, func() {
			r.Instance.DetachDebugReport()
		}).
		add("surface", func() error {
			ptr, err := r.window.CreateWindowSurface(r.Instance.Handle)
			if err != nil {
				return errors.Wrap(err, "create window surface")
			}
			r.Surface = vk.SurfaceFromPointer(ptr)
			return nil
		}, func() {
			vk.DestroySurface(r.Instance.Handle, r.Surface, nil)
			r.Surface = vk.Surface(vk.NullHandle)
		}).
		add("device", func() error {
			extensions := r.config.Instance.DeviceExtensions
			candidate, err := PickPhysicalDevice(r.Instance.Handle, r.Surface, extensions, r.log)
			if err != nil {
				return err
			}
			device, err := CreateLogicalDevice(candidate, extensions, r.config.Instance.ValidationLayers)
			if err != nil {
				return err
			}
			r.Device = device
			r.log.Infof("Selected GPU: %s (%s)", device.Properties.Name, DeviceTypeName(device.Properties.Type))
			r.log.Infof("Memory heaps: %s", device.HeapSummary())
			return nil
		}, func() {
			r.Device.Destroy()
			r.Device = nil
		}).
		add("vertex buffer", func() error {
			if len(r.config.Vertices) == 0 {
				return nil
			}
			buffer, err := CreateVertexBuffer(r.Device, core.VertexBytes(r.config.Vertices))
			if err != nil {
				return err
			}
			r.VertexBuffer = buffer
			return nil
		}, func() {
			if r.VertexBuffer != nil {
				r.VertexBuffer.Destroy(r.Device)
				r.VertexBuffer = nil
			}
		}).
		add("sync objects", func() error {
			fs, err := createFrameSync(r.Device, MaxFramesInFlight)
			if err != nil {
				return err
			}
			r.sync = fs
			return nil
		}, func() {
			r.sync.Destroy(r.Device)
			r.sync = nil
		})
}

func (r *Renderer) swapchainChain() *chain {
	return newChain("swapchain").
		add("swapchain", func() error {
			support, err := QuerySwapchainSupport(r.Device.Physical, r.Surface)
			if err != nil {
				return err
			}
			width, height := r.window.FramebufferSize()
			plan, err := PlanSwapchain(support, uint32(width), uint32(height), r.Device.Queues)
			if err != nil {
				return err
			}
			sc, err := CreateSwapchain(r.Device, r.Surface, plan, r.retired)
			if err != nil {
				return err
			}
			r.destroyRetired()
			r.Swapchain = sc
			return nil
		}, func() {
			// Kept until the replacement exists so it can be handed over.
			r.retired = r.Swapchain.Handle
			r.Swapchain = nil
		}).
		add("image views", func() error {
			views, err := CreateImageViews(r.Device, r.Swapchain.Images, r.Swapchain.Plan.Format.Format)
			if err != nil {
				return err
			}
			r.ImageViews = views
			return nil
		}, func() {
			DestroyImageViews(r.Device, r.ImageViews)
			r.ImageViews = nil
		}).
		add("render pass", func() error {
			renderPass, err := CreateRenderPass(r.Device, r.Swapchain.Plan.Format.Format)
			if err != nil {
				return err
			}
			r.RenderPass = renderPass
			return nil
		}, func() {
			DestroyRenderPass(r.Device, r.RenderPass)
			r.RenderPass = vk.RenderPass(vk.NullHandle)
		}).
		add("pipeline", func() error {
			vertCode, err := core.ReadFile(r.config.VertexShaderPath)
			if err != nil {
				return errors.Wrap(err, "vertex shader")
			}
			fragCode, err := core.ReadFile(r.config.FragmentShaderPath)
			if err != nil {
				return errors.Wrap(err, "fragment shader")
			}
			config := DefaultPipelineConfig()
			config.VertexShaderCode = vertCode
			config.FragmentShaderCode = fragCode
			config.Extent = r.Swapchain.Plan.Extent
			config.RenderPass = r.RenderPass

			pipeline, err := CreateGraphicsPipeline(r.Device, config)
			if err != nil {
				return err
			}
			r.Pipeline = pipeline
			return nil
		}, func() {
			r.Pipeline.Destroy(r.Device)
			r.Pipeline = nil
		}).
		add("framebuffers", func() error {
			framebuffers, err := CreateFramebuffers(r.Device, r.RenderPass, r.ImageViews, r.Swapchain.Plan.Extent)
			if err != nil {
				return err
			}
			r.Framebuffers = framebuffers
			return nil
		}, func() {
			DestroyFramebuffers(r.Device, r.Framebuffers)
			r.Framebuffers = nil
		}).
		add("command buffers", r.buildCommandBuffers, func() {
			r.CommandPool.Destroy(r.Device)
			r.CommandPool = nil
			r.CommandBuffers = nil
		}).
		add("image tracking", func() error {
			r.images = newImageTracker(len(r.Swapchain.Images))
			return nil
		}, func() {
			r.images = nil
		})
}

// buildCommandBuffers allocates one buffer per framebuffer and records the
// draw list into each.
func (r *Renderer) buildCommandBuffers() error {
	pool, err := CreateCommandPool(r.Device, r.Device.Queues.Graphics)
	if err != nil {
		return err
	}
	buffers, err := AllocateCommandBuffers(r.Device, pool, uint32(len(r.Framebuffers)))
	if err != nil {
		pool.Destroy(r.Device)
		return err
	}

	vertexBuffer := vk.Buffer(vk.NullHandle)
	if r.VertexBuffer != nil {
		vertexBuffer = r.VertexBuffer.Handle
	}
	for i := range buffers {
		err := buffers[i].record(passRecording{
			renderPass:   r.RenderPass,
			framebuffer:  r.Framebuffers[i],
			extent:       r.Swapchain.Plan.Extent,
			clear:        r.config.ClearColor,
			pipeline:     r.Pipeline.Handle,
			vertexBuffer: vertexBuffer,
			draws:        r.config.Draws,
		})
		if err != nil {
			pool.Destroy(r.Device)
			return errors.Wrapf(err, "record command buffer %d", i)
		}
	}

	r.CommandPool = pool
	r.CommandBuffers = buffers
	return nil
}

func (r *Renderer) destroyRetired() {
	if r.retired != vk.Swapchain(vk.NullHandle) {
		vk.DestroySwapchain(r.Device.Handle, r.retired, nil)
		r.retired = vk.Swapchain(vk.NullHandle)
	}
}

// State reports the swapchain chain's state.
func (r *Renderer) State() ChainState {
	return r.swapchain.State()
}

// Resize asks for a rebuild before the next frame.
func (r *Renderer) Resize(width, height int) {
	r.log.Debugf("Framebuffer resized to %dx%d", width, height)
	r.resized = true
}

func (r *Renderer) consumeResize() bool {
	resized := r.resized
	r.resized = false
	return resized
}

// DrawFrame acquires an image, submits its command buffer and presents it.
// A stale surface, a resize or a timed-out wait rebuilds the swapchain; a
// failed rebuild returns ErrSwapchainLost from then on.
func (r *Renderer) DrawFrame() error {
	if r.swapchain.State() == ChainFailed || r.sync == nil {
		return errors.WithStack(ErrSwapchainLost)
	}
	if r.pending || r.consumeResize() {
		if err := r.rebuild(false); err != nil {
			return err
		}
		if r.pending {
			// Minimised; try again next frame.
			return nil
		}
	}

	frame := r.CurrentFrame
	inFlight := r.sync.inFlight[frame]
	if err := inFlight.Wait(r.Device, r.config.FenceTimeout); err != nil {
		return r.recoverTimeout(err, "in-flight fence")
	}

	image, res := r.Swapchain.AcquireNextImage(r.Device, r.sync.imageAvailable[frame].Handle, r.config.FenceTimeout)
	action, err := afterAcquire(res)
	if err != nil {
		return err
	}
	if action == actionRebuildNow {
		return r.rebuild(res == vk.Timeout || res == vk.NotReady)
	}

	prev, err := r.images.Claim(image, frame)
	if err != nil {
		return err
	}
	if prev != untracked {
		if err := r.sync.inFlight[prev].Wait(r.Device, r.config.FenceTimeout); err != nil {
			return r.recoverTimeout(err, "image fence")
		}
	}

	if err := inFlight.Reset(r.Device); err != nil {
		return err
	}
	err = SubmitQueue(r.Device.GraphicsQueue, r.CommandBuffers[image].Handle,
		r.sync.imageAvailable[frame], r.sync.renderFinished[frame], inFlight)
	if err != nil {
		return err
	}

	res = PresentQueue(r.Device.PresentQueue, r.Swapchain.Handle, image, r.sync.renderFinished[frame])
	r.CurrentFrame = (r.CurrentFrame + 1) % MaxFramesInFlight

	rebuild, err := afterPresent(res, r.consumeResize())
	if err != nil {
		return err
	}
	if rebuild || action == actionRebuildAfter {
		return r.rebuild(false)
	}
	return nil
}

// recoverTimeout rebuilds after a timed-out wait and passes other errors
// through.
func (r *Renderer) recoverTimeout(err error, what string) error {
	if !IsResult(err, vk.Timeout) {
		return err
	}
	r.log.Warnf("Timed out waiting for %s; rebuilding swapchain", what)
	return r.rebuild(true)
}

// rebuild recreates the swapchain chain for the current framebuffer size.
// A zero-sized framebuffer defers the rebuild. resetSync also recreates the
// frame sync objects, whose signal state is unknown after a timeout.
func (r *Renderer) rebuild(resetSync bool) error {
	ready, resetSync := r.takePending(resetSync)
	if !ready {
		return nil
	}

	if err := r.Device.WaitIdle(); err != nil {
		return err
	}
	if resetSync {
		r.sync.Destroy(r.Device)
		r.sync = nil
		fs, err := createFrameSync(r.Device, MaxFramesInFlight)
		if err != nil {
			return errors.Wrap(ErrSwapchainLost, err.Error())
		}
		r.sync = fs
		r.CurrentFrame = 0
	}

	if err := r.swapchain.Rebuild(); err != nil {
		r.log.Errorf("Swapchain rebuild failed: %v", err)
		return errors.Wrap(ErrSwapchainLost, err.Error())
	}
	r.logSwapchain("Swapchain rebuilt")
	return nil
}

// takePending merges a rebuild request with any deferred one. It reports
// false while the framebuffer is zero-sized, keeping the request (including
// a sync reset) for later.
func (r *Renderer) takePending(resetSync bool) (ready, reset bool) {
	resetSync = resetSync || r.pendingSync
	width, height := r.window.FramebufferSize()
	if width == 0 || height == 0 {
		r.pending = true
		r.pendingSync = resetSync
		return false, resetSync
	}
	r.pending = false
	r.pendingSync = false
	return true, resetSync
}

func (r *Renderer) logSwapchain(msg string) {
	plan := r.Swapchain.Plan
	r.log.Debugf("%s: %dx%d, %d images, present mode %d", msg,
		plan.Extent.Width, plan.Extent.Height, len(r.Swapchain.Images), int32(plan.PresentMode))
}

// Destroy waits for the GPU and releases everything in reverse order.
func (r *Renderer) Destroy() {
	if r.Device != nil {
		if err := r.Device.WaitIdle(); err != nil {
			r.log.Warnf("Device wait idle: %v", err)
		}
	}
	r.swapchain.Release()
	if r.Device != nil {
		r.destroyRetired()
	}
	r.base.Release()
}

type frameAction int

const (
	actionContinue frameAction = iota
	// actionRebuildNow drops the frame and rebuilds.
	actionRebuildNow
	// actionRebuildAfter draws and presents the frame, then rebuilds.
	actionRebuildAfter
)

// afterAcquire decides what to do with an acquire result. Suboptimal
// still signals the semaphore, so that frame must be finished.
func afterAcquire(res vk.Result) (frameAction, error) {
	switch res {
	case vk.Success:
		return actionContinue, nil
	case vk.Suboptimal:
		return actionRebuildAfter, nil
	case vk.ErrorOutOfDate, vk.Timeout, vk.NotReady:
		return actionRebuildNow, nil
	default:
		return actionContinue, check(res, "acquire next image")
	}
}

// afterPresent reports whether a presented frame calls for a rebuild.
func afterPresent(res vk.Result, resized bool) (bool, error) {
	switch res {
	case vk.Success:
		return resized, nil
	case vk.Suboptimal, vk.ErrorOutOfDate:
		return true, nil
	default:
		return false, check(res, "queue present")
	}
}

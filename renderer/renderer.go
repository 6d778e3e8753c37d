package renderer

import (
	"fmt"

	"github.com/InVisionApp/astral-renderer-sub000/astralerr"
	"github.com/InVisionApp/astral-renderer-sub000/backend"
	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/internal/alloc"
	"github.com/InVisionApp/astral-renderer-sub000/internal/atlas"
	"github.com/InVisionApp/astral-renderer-sub000/internal/vbuffer"
)

// userRenderTargetRef names the caller-supplied surface a RenderTargetBuffer
// draws into directly, as opposed to a scratch page used by intermediate
// ImageBuffer/SubImageBuffer content.
const userRenderTargetRef backend.RenderTargetRef = 0

// shadowMapRenderTargetRefBase offsets shadow-map render targets away from
// the scratch-page numbering space (layer+1) and the user target (0).
const shadowMapRenderTargetRefBase = 1 << 16

// Renderer is the frame-lifecycle scheduler: it owns the dependency graph
// of VirtualBuffers created between Begin and End, drives a backend.Backend
// to submit their draws in dependency order, and coordinates image-atlas
// locking and scratch render-target allocation across the cycle.
type Renderer struct {
	backend backend.Backend
	atlas *atlas.ImageAtlas
	scratch *alloc.LayeredRectAtlas
	cfg config.Config

	inFrame bool
	beginCount uint64
	colorspace atlas.Colorspace

	buffers map[vbuffer.Index]*vbuffer.VirtualBuffer
	order []vbuffer.Index
	nextIdx vbuffer.Index

	stats backend.FrameStats
}

// New creates a Renderer driving b, backed by imgAtlas for image storage and
// a scratch page allocator of scratchLayerSize x scratchLayerSize (defaults
// to vbuffer.ScratchSize, the largest size a single VirtualBuffer can ever
// require post-split).
func New(b backend.Backend, imgAtlas *atlas.ImageAtlas, cfg config.Config, scratchLayerSize int) *Renderer {
	if scratchLayerSize <= 0 {
		scratchLayerSize = vbuffer.ScratchSize
	}
	return &Renderer{
		backend: b,
		atlas: imgAtlas,
		cfg: cfg,
		scratch: alloc.NewLayeredRectAtlas(scratchLayerSize, scratchLayerSize),
	}
}

// BeginCount returns the number of Begin calls so far, used by Encoder
// handles to detect that their owning frame has ended.
func (r *Renderer) BeginCount() uint64 { return r.beginCount }

// Config returns the renderer-wide configuration this Renderer was built
// with.
func (r *Renderer) Config() config.Config { return r.cfg }

// Begin starts a new frame: locks the atlas against reclaim for the
// duration of the frame and resets the VirtualBuffer registry.
func (r *Renderer) Begin(colorspace atlas.Colorspace) error {
	if r.inFrame {
		return fmt.Errorf("astral: renderer: begin called while a frame is already active")
	}
	r.beginCount++
	r.colorspace = colorspace
	r.buffers = make(map[vbuffer.Index]*vbuffer.VirtualBuffer)
	r.order = nil
	r.nextIdx = 1
	r.stats = backend.FrameStats{}
	r.atlas.LockResources()
	r.backend.Begin()
	r.inFrame = true
	return nil
}

// InFrame reports whether a Begin/End cycle is currently active.
func (r *Renderer) InFrame() bool { return r.inFrame }

func (r *Renderer) allocIndex() vbuffer.Index {
	idx := r.nextIdx
	r.nextIdx++
	return idx
}

func (r *Renderer) register(vb *vbuffer.VirtualBuffer) {
	r.buffers[vb.Index()] = vb
	r.order = append(r.order, vb.Index())
}

// NewVirtualBuffer allocates and registers a VirtualBuffer of category cat
// against the current frame.
func (r *Renderer) NewVirtualBuffer(cat vbuffer.Category) (*vbuffer.VirtualBuffer, error) {
	if !r.inFrame {
		return nil, fmt.Errorf("astral: renderer: new_virtual_buffer called with no active frame")
	}
	vb := vbuffer.New(r.allocIndex(), cat)
	r.register(vb)
	return vb, nil
}

// Get looks up a registered VirtualBuffer by index.
func (r *Renderer) Get(idx vbuffer.Index) (*vbuffer.VirtualBuffer, bool) {
	vb, ok := r.buffers[idx]
	return vb, ok
}

// SplitIfNeeded splits vb into tiled sub-buffers if its region exceeds
// MaxRenderable, registering every child against the current frame. Returns
// nil, nil if no split was required.
func (r *Renderer) SplitIfNeeded(vb *vbuffer.VirtualBuffer) ([]*vbuffer.VirtualBuffer, error) {
	if !vb.RequiresSplit() {
		return nil, nil
	}
	children, err := vb.Split(r.allocIndex)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		r.register(c)
	}
	return children, nil
}

// GenerateChild produces a single child of vb per spec and registers it
// against the current frame. spec.NewIndex is overwritten with a freshly
// allocated index; callers don't need to source one themselves.
func (r *Renderer) GenerateChild(vb *vbuffer.VirtualBuffer, spec vbuffer.ChildBufferSpec) *vbuffer.VirtualBuffer {
	spec.NewIndex = r.allocIndex()
	child := vb.GenerateChildBuffer(spec)
	r.register(child)
	return child
}

// GenerateMips extends vb with a chain of up to maxLOD additional mip-level
// buffers, registering each against the current frame.
func (r *Renderer) GenerateMips(vb *vbuffer.VirtualBuffer, maxLOD int) []*vbuffer.VirtualBuffer {
	chain := vb.ImageWithMips(maxLOD, r.allocIndex)
	for _, c := range chain {
		r.register(c)
	}
	return chain
}

// EndAbort cancels the current frame: discards every registered
// VirtualBuffer without submitting any draws and unlocks the atlas. Used
// when frame construction fails partway through (e.g. the caller detects
// an unrecoverable resource exhaustion before calling End).
func (r *Renderer) EndAbort() error {
	if !r.inFrame {
		return fmt.Errorf("astral: renderer: end_abort called with no active frame")
	}
	r.inFrame = false
	r.buffers = nil
	r.order = nil
	r.stats.Add("frames_aborted", 1)
	return r.atlas.UnlockResources()
}

// End runs the frame's dependency-respecting render walk to completion,
// submitting every buffer's content to the backend in waves as their
// dependencies resolve, then unlocks the atlas. tracker, if non-nil,
// receives the frame's stat counters merged into its own.
//
// Buffers are drained in successive waves: a wave is every Finished buffer
// whose RemainingDependencies() has reached zero. Each wave is rendered
// (shadow maps directly, image/sub-image buffers via scratch-page
// batching, the render-target buffer against the user surface, structural
// buffers not at all) and then resolved, unblocking the next wave. A full
// pass over the remaining buffers that resolves none of them indicates a
// dependency cycle, an invariant violation rather than a recoverable
// condition.
func (r *Renderer) End(tracker *backend.FrameStats) (*backend.FrameStats, error) {
	if !r.inFrame {
		return nil, fmt.Errorf("astral: renderer: end called with no active frame")
	}
	defer func() { r.inFrame = false }()

	for _, idx := range r.order {
		if vb := r.buffers[idx]; vb.State() == vbuffer.Recording {
			vb.IssueFinish()
		}
	}

	remaining := r.pendingFinished()
	for len(remaining) > 0 {
		ready, stuck := r.collectReadyWave(remaining)
		if len(ready) == 0 {
			astralerr.Assert(false, "dependency cycle detected among %d virtual buffers awaiting render", len(stuck))
		}
		if err := r.renderWave(ready); err != nil {
			return nil, err
		}
		remaining = stuck
	}

	r.atlas.Flush()

	if err := r.atlas.UnlockResources(); err != nil {
		return nil, err
	}

	r.backend.End(&r.stats)
	if tracker != nil {
		for i, l := range r.stats.Labels {
			tracker.Add(l, r.stats.Values[i])
		}
	}
	return &r.stats, nil
}

func (r *Renderer) pendingFinished() []vbuffer.Index {
	var out []vbuffer.Index
	for _, idx := range r.order {
		if r.buffers[idx].State() == vbuffer.Finished {
			out = append(out, idx)
		}
	}
	return out
}

// collectReadyWave partitions remaining into buffers ready to render
// (RemainingDependencies() == 0, and atlas backing reserved successfully)
// and those still stuck behind an outstanding dependency. A buffer whose
// atlas allocation fails is dropped from both lists: its dependents are
// force-resolved so the graph still drains, and the failure is recorded as
// a stat rather than stalling the frame.
func (r *Renderer) collectReadyWave(remaining []vbuffer.Index) (ready, stuck []vbuffer.Index) {
	for _, idx := range remaining {
		vb := r.buffers[idx]
		if vb.RemainingDependencies() > 0 {
			stuck = append(stuck, idx)
			continue
		}
		if err := vb.AboutToRenderContent(r.atlas); err != nil {
			r.stats.Add("vbuffer_backing_allocation_failures", 1)
			r.resolveDependents(idx)
			continue
		}
		ready = append(ready, idx)
	}
	return ready, stuck
}

func (r *Renderer) resolveDependents(idx vbuffer.Index) {
	vb := r.buffers[idx]
	for dep := range vb.Dependents() {
		if d, ok := r.buffers[dep]; ok {
			d.ResolveDependency(idx)
		}
	}
}

func (r *Renderer) finishBuffer(vb *vbuffer.VirtualBuffer) {
	if err := vb.MarkRendered(); err != nil {
		astralerr.Assert(false, "%v", err)
	}
	r.resolveDependents(vb.Index())
}

func (r *Renderer) renderWave(ready []vbuffer.Index) error {
	var shadowIdx, scratchIdx, userIdx, structuralIdx []vbuffer.Index
	for _, idx := range ready {
		switch r.buffers[idx].Category() {
		case vbuffer.ShadowMapBuffer:
			shadowIdx = append(shadowIdx, idx)
		case vbuffer.ImageBuffer, vbuffer.SubImageBuffer:
			scratchIdx = append(scratchIdx, idx)
		case vbuffer.RenderTargetBuffer:
			userIdx = append(userIdx, idx)
		default:
			structuralIdx = append(structuralIdx, idx)
		}
	}

	for _, idx := range shadowIdx {
		vb := r.buffers[idx]
		r.renderShadowMapBuffer(vb)
		r.finishBuffer(vb)
	}

	if err := r.renderScratchBatches(scratchIdx); err != nil {
		return err
	}

	for _, idx := range userIdx {
		vb := r.buffers[idx]
		r.renderUserTargetBuffer(vb)
		r.finishBuffer(vb)
	}

	for _, idx := range structuralIdx {
		r.finishBuffer(r.buffers[idx])
	}

	return nil
}

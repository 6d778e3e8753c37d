package renderer

import (
	"fmt"

	"github.com/InVisionApp/astral-renderer-sub000/backend"
	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/internal/alloc"
	"github.com/InVisionApp/astral-renderer-sub000/internal/cmdlist"
	"github.com/InVisionApp/astral-renderer-sub000/internal/stc"
	"github.com/InVisionApp/astral-renderer-sub000/internal/vbuffer"
)

// backendSender adapts a Renderer's backend.Backend into a
// cmdlist.BackendSender, threading a shared uberShadingKey through every
// draw in the list it is sending.
type backendSender struct {
	r *Renderer
	uberKey *uberShadingKey
}

func (s *backendSender) Draw(cmd cmdlist.DrawCommand) {
	s.r.backend.DrawRenderData(cmd.Z, cmd, s.uberKey, backend.RenderValue[[4]float64]{}, cmd.Vertices)
}

func clampScratchDim(v int) int {
	if v <= 0 {
		return 1
	}
	if v > vbuffer.ScratchSize {
		return vbuffer.ScratchSize
	}
	return v
}

// commutativeOnly reports whether every command in cl uses a commutative
// blend mode, in which case emission order doesn't affect the result and
// the shader-sorted send path is safe.
func commutativeOnly(cl *cmdlist.DrawCommandList) bool {
	for _, c := range cl.Opaques() {
		if !c.Blend.IsCommutative() {
			return false
		}
	}
	for _, c := range cl.Typicals() {
		if !c.Blend.IsCommutative() {
			return false
		}
	}
	return true
}

// emitSTCAndCommands drives vb's four STC mask passes (if any were staged)
// then its draw command list, through the shared backend.
func (r *Renderer) emitSTCAndCommands(vb *vbuffer.VirtualBuffer) {
	key := newUberShadingKey()
	key.BeginAccumulate(r.cfg.ClipWindowStrategy, r.cfg.UberShaderMethod)

	if data := vb.STCData(); data != nil && !data.IsEmpty() {
		r.backend.SetStencilState(true)
		for _, pass := range []stc.Pass{stc.ContourStencil, stc.ConicTriangleStencil, stc.ConicTriangleFuzz, stc.ContourFuzz} {
			for _, se := range data.Pass(pass) {
				cmd := cmdlist.DrawCommand{
					Blend: config.BlendMaskMax,
					Vertices: cmdlist.VertexRange{Begin: se.Vertices.Begin, End: se.Vertices.End},
				}
				r.backend.DrawRenderData(0, cmd, key, backend.RenderValue[[4]float64]{}, cmd.Vertices)
			}
		}
		r.backend.SetStencilState(false)
	}

	cl := vb.Commands()
	if cl == nil {
		return
	}
	for _, s := range cl.AccumulateOpaqueShaders() {
		key.AccumulateShader(s)
	}
	for _, s := range cl.AccumulateTypicalShaders() {
		key.AccumulateShader(s)
	}
	key.EndAccumulate()

	sender := &backendSender{r: r, uberKey: key}
	if commutativeOnly(cl) {
		cl.SendCommandsSortedByShaderToBackend(sender)
	} else {
		cl.SendCommandsToBackend(sender)
	}
}

// renderShadowMapBuffer renders a ShadowMapBuffer directly into its own
// depth target: shadow-map accumulation uses BlendMaskMin (closest depth
// wins), which is commutative, so commands may be emitted in whatever
// order minimizes shader switches.
func (r *Renderer) renderShadowMapBuffer(vb *vbuffer.VirtualBuffer) {
	ref := backend.RenderTargetRef(shadowMapRenderTargetRefBase + uint32(vb.Index()))
	r.backend.BeginRenderTarget(backend.ClearParams{Clear: true, R: 1, G: 1, B: 1, A: 1}, ref)
	r.backend.DepthBufferModeSet(backend.DepthShadowMap)
	if cl := vb.Commands(); cl != nil {
		cl.Rebase(0)
		r.emitSTCAndCommands(vb)
	}
	r.backend.EndRenderTarget()
}

// renderUserTargetBuffer renders a RenderTargetBuffer directly into the
// caller-supplied surface: the final, user-visible compositing pass.
func (r *Renderer) renderUserTargetBuffer(vb *vbuffer.VirtualBuffer) {
	mode := backend.DepthOff
	if r.cfg.ClipWindowStrategy != config.ClipWindowShader {
		mode = backend.DepthOcclude
	}
	r.backend.BeginRenderTarget(backend.ClearParams{Clear: true}, userRenderTargetRef)
	r.backend.DepthBufferModeSet(mode)
	r.backend.SetFragmentShaderEmit(r.colorspace)
	if cl := vb.Commands(); cl != nil {
		cl.Rebase(0)
		r.emitSTCAndCommands(vb)
	}
	r.backend.EndRenderTarget()
}

type scratchPlacement struct {
	idx vbuffer.Index
	rect alloc.Rect
}

// renderScratchBatches allocates a scratch-page rectangle for every
// ImageBuffer/SubImageBuffer in idxs (FormatSorter/FirstShaderUsedSorter
// ordered for shelf-packing quality and shader-switch locality), groups
// them by the page (LayeredRectAtlas layer) they landed on, and issues one
// BeginRenderTarget/EndRenderTarget bracket per page with each member's
// z-slots rebased into a disjoint range within it.
func (r *Renderer) renderScratchBatches(idxs []vbuffer.Index) error {
	if len(idxs) == 0 {
		return nil
	}
	sorted := FormatSorter(r.buffers, idxs)
	sorted = FirstShaderUsedSorter(r.buffers, sorted)

	byLayer := make(map[int][]scratchPlacement)
	var layerOrder []int
	for _, idx := range sorted {
		vb := r.buffers[idx]
		w, h := vb.Clip().ImageSize()
		rect, err := r.scratch.Allocate(clampScratchDim(w), clampScratchDim(h))
		if err != nil {
			return fmt.Errorf("astral: renderer: scratch allocation for vbuffer %d: %w", idx, err)
		}
		if _, seen := byLayer[rect.Layer]; !seen {
			layerOrder = append(layerOrder, rect.Layer)
		}
		byLayer[rect.Layer] = append(byLayer[rect.Layer], scratchPlacement{idx: idx, rect: rect})
	}

	for _, layer := range layerOrder {
		ref := backend.RenderTargetRef(layer + 1)
		r.backend.BeginRenderTarget(backend.ClearParams{Clear: true}, ref)
		r.backend.DepthBufferModeSet(backend.DepthOcclude)

		var startZ uint32
		for _, p := range byLayer[layer] {
			vb := r.buffers[p.idx]
			if cl := vb.Commands(); cl != nil {
				n := cl.NumberZ()
				cl.Rebase(startZ)
				startZ += n
				r.emitSTCAndCommands(vb)
			}
		}
		r.backend.EndRenderTarget()
		r.atlas.Flush()

		for _, p := range byLayer[layer] {
			if err := r.scratch.Release(p.rect); err != nil {
				return fmt.Errorf("astral: renderer: releasing scratch rect for vbuffer %d: %w", p.idx, err)
			}
			r.finishBuffer(r.buffers[p.idx])
		}
	}
	return nil
}

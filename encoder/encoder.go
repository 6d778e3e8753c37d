package encoder

import (
	"fmt"

	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/geometry"
	"github.com/InVisionApp/astral-renderer-sub000/internal/clipgeom"
	"github.com/InVisionApp/astral-renderer-sub000/internal/cmdlist"
	"github.com/InVisionApp/astral-renderer-sub000/internal/filler"
	"github.com/InVisionApp/astral-renderer-sub000/internal/stc"
	"github.com/InVisionApp/astral-renderer-sub000/internal/vbuffer"
	"github.com/InVisionApp/astral-renderer-sub000/internal/xform"
	"github.com/InVisionApp/astral-renderer-sub000/renderer"
)

// Kind tags what an Encoder's backing VirtualBuffer is being used for.
type Kind uint8

const (
	// KindSurface encodes directly into the caller-visible render target.
	KindSurface Kind = iota
	// KindImage encodes an ordinary image (the result of a snapshot,
	// an offscreen draw, or an assembled composite).
	KindImage
	// KindMask encodes a coverage or distance-field mask sampled by
	// later draws via VirtualBuffer.ClipElement.
	KindMask
	// KindShadowMap encodes a depth-only shadow map.
	KindShadowMap
	// KindLayer encodes an intermediate compositing layer (a save/restore
	// group or a filter/opacity layer) later blended back into its parent.
	KindLayer
	// KindStrokeMask encodes a mask built specifically from STC stroke
	// expansion geometry rather than fill geometry.
	KindStrokeMask
)

func (k Kind) String() string {
	switch k {
	case KindSurface:
		return "Surface"
	case KindImage:
		return "Image"
	case KindMask:
		return "Mask"
	case KindShadowMap:
		return "ShadowMap"
	case KindLayer:
		return "Layer"
	case KindStrokeMask:
		return "StrokeMask"
	default:
		return "Unknown"
	}
}

// category maps a Kind to the vbuffer.Category its backing VirtualBuffer is
// created with. Every kind besides Surface and ShadowMap is just an
// ordinary atlas-backed image from the scheduler's point of view; what
// distinguishes them is how the Encoder's caller uses the result, not how
// the scheduler renders it.
func (k Kind) category() vbuffer.Category {
	switch k {
	case KindSurface:
		return vbuffer.RenderTargetBuffer
	case KindShadowMap:
		return vbuffer.ShadowMapBuffer
	default:
		return vbuffer.ImageBuffer
	}
}

// Encoder is a frame-scoped handle onto a *vbuffer.VirtualBuffer. It
// replaces a deep per-Kind subtype hierarchy with one concrete type plus a
// Kind tag, and a begin_cnt check that invalidates the handle once the
// Renderer that created it has moved on to a later frame.
type Encoder struct {
	r *renderer.Renderer
	vb *vbuffer.VirtualBuffer
	kind Kind
	beginCnt uint64
}

// New creates an Encoder of the given kind, backed by a freshly registered
// VirtualBuffer on r's current frame.
func New(r *renderer.Renderer, kind Kind) (Encoder, error) {
	if !r.InFrame() {
		return Encoder{}, fmt.Errorf("astral: encoder: new called with no active frame")
	}
	vb, err := r.NewVirtualBuffer(kind.category())
	if err != nil {
		return Encoder{}, err
	}
	return wrap(r, vb, kind), nil
}

func wrap(r *renderer.Renderer, vb *vbuffer.VirtualBuffer, kind Kind) Encoder {
	return Encoder{r: r, vb: vb, kind: kind, beginCnt: r.BeginCount()}
}

// Kind returns the tag this Encoder was created with.
func (e Encoder) Kind() Kind { return e.kind }

// Index returns the backing VirtualBuffer's graph index, valid as a lookup
// key for the lifetime of the owning frame.
func (e Encoder) Index() vbuffer.Index { return e.vb.Index() }

// Valid reports whether e still refers to the frame it was created in: a
// handle survives exactly as long as the Renderer.Begin call that minted
// it remains the most recent one and that frame has not yet ended.
func (e Encoder) Valid() bool {
	return e.r != nil && e.vb != nil && e.beginCnt == e.r.BeginCount() && e.r.InFrame()
}

var errStaleHandle = fmt.Errorf("astral: encoder: handle is stale (frame has ended)")

func (e Encoder) buffer() (*vbuffer.VirtualBuffer, error) {
	if !e.Valid() {
		return nil, errStaleHandle
	}
	return e.vb, nil
}

// SetClip installs the backing buffer's clip geometry.
func (e Encoder) SetClip(clip clipgeom.ClipGeometryGroup) error {
	vb, err := e.buffer()
	if err != nil {
		return err
	}
	return vb.SetClip(clip)
}

// Clip returns the backing buffer's clip geometry group.
func (e Encoder) Clip() (clipgeom.ClipGeometryGroup, error) {
	vb, err := e.buffer()
	if err != nil {
		return clipgeom.ClipGeometryGroup{}, err
	}
	return vb.Clip(), nil
}

// Transform returns the backing buffer's transformation stack node.
func (e Encoder) Transform() (*xform.CachedTransformation, error) {
	vb, err := e.buffer()
	if err != nil {
		return nil, err
	}
	return vb.Transform(), nil
}

// DrawGeneric appends a draw command to the backing buffer's command list.
func (e Encoder) DrawGeneric(spec cmdlist.AppendSpec, needsFramebuffer bool, dep vbuffer.Index) (cmdlist.DrawCommand, error) {
	vb, err := e.buffer()
	if err != nil {
		return cmdlist.DrawCommand{}, err
	}
	return vb.DrawGeneric(spec, needsFramebuffer, dep)
}

// AddOccluder appends a depth-only occluder rect to the backing buffer.
func (e Encoder) AddOccluder(vr cmdlist.VertexRange) error {
	vb, err := e.buffer()
	if err != nil {
		return err
	}
	return vb.AddOccluder(vr)
}

// DrawMaskItem stages mask-fill geometry for the given STC pass.
func (e Encoder) DrawMaskItem(pass stc.Pass, verts []stc.Vertex, bbox stc.BBox, rule config.FillRule) error {
	vb, err := e.buffer()
	if err != nil {
		return err
	}
	return vb.DrawMaskItem(pass, verts, bbox, rule)
}

// FillPath stages path's fill geometry against the backing buffer's
// STCData, choosing sparse versus full-contour tiling via strategy.
func (e Encoder) FillPath(strategy filler.Strategy, path []geometry.ContourCurve, rule config.FillRule, originX, originY float64, widthPx, heightPx int) error {
	vb, err := e.buffer()
	if err != nil {
		return err
	}
	return vb.FillPath(strategy, path, rule, originX, originY, widthPx, heightPx)
}

// DependOn records that e's content depends on dep's having rendered
// first — used when e samples dep's image or shadow map.
func (e Encoder) DependOn(dep Encoder) error {
	vb, err := e.buffer()
	if err != nil {
		return err
	}
	depVB, err := dep.buffer()
	if err != nil {
		return err
	}
	vb.AddDependency(depVB)
	return nil
}

// BeginPauseSnapshot increments the backing buffer's pause counter.
func (e Encoder) BeginPauseSnapshot() error {
	vb, err := e.buffer()
	if err != nil {
		return err
	}
	vb.BeginPauseSnapshot()
	return nil
}

// EndPauseSnapshot decrements the backing buffer's pause counter.
func (e Encoder) EndPauseSnapshot() error {
	vb, err := e.buffer()
	if err != nil {
		return err
	}
	vb.EndPauseSnapshot()
	return nil
}

// Finish marks the backing buffer ready to enter the scheduler's
// dependency drain once its frame ends.
func (e Encoder) Finish() error {
	vb, err := e.buffer()
	if err != nil {
		return err
	}
	vb.IssueFinish()
	return nil
}

// Child creates a new Encoder of childKind whose backing VirtualBuffer is
// generated from e's buffer per spec, registered against the same frame.
func (e Encoder) Child(childKind Kind, spec vbuffer.ChildBufferSpec) (Encoder, error) {
	vb, err := e.buffer()
	if err != nil {
		return Encoder{}, err
	}
	spec.Category = childKind.category()
	child := e.r.GenerateChild(vb, spec)
	return wrap(e.r, child, childKind), nil
}

// SplitIfNeeded splits the backing buffer into tiled sub-buffers if its
// region exceeds the renderer's scratch-target size, wrapping each child
// as a new Encoder of the same kind as e.
func (e Encoder) SplitIfNeeded() ([]Encoder, error) {
	vb, err := e.buffer()
	if err != nil {
		return nil, err
	}
	children, err := e.r.SplitIfNeeded(vb)
	if err != nil {
		return nil, err
	}
	out := make([]Encoder, len(children))
	for i, c := range children {
		out[i] = wrap(e.r, c, e.kind)
	}
	return out, nil
}

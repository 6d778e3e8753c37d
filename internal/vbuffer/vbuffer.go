// Package vbuffer implements VirtualBuffer: the unit of deferred
// rendering — owns commands, dependencies, target region, finish
// semantics and mip generation.
//
// Generalized from a stack-of-active-compositing-layers-each-owning-an-
// Encoding idiom, promoted from an in-frame recording helper into the
// renderer core's actual deferred-rendering unit, with an explicit state
// machine, dependency DAG, and tile-grid size policy that idiom has no
// equivalent of.
package vbuffer

import (
	"fmt"
	"runtime"

	"github.com/InVisionApp/astral-renderer-sub000/astralerr"
	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/geometry"
	"github.com/InVisionApp/astral-renderer-sub000/internal/atlas"
	"github.com/InVisionApp/astral-renderer-sub000/internal/clipgeom"
	"github.com/InVisionApp/astral-renderer-sub000/internal/cmdlist"
	"github.com/InVisionApp/astral-renderer-sub000/internal/filler"
	"github.com/InVisionApp/astral-renderer-sub000/internal/stc"
	"github.com/InVisionApp/astral-renderer-sub000/internal/xform"
)

// MaxRenderable is the maximum extent, in either dimension, a single
// VirtualBuffer may render directly before the size policy splits it
// into sub-buffers. Equal to the scratch render target size, so a split
// sub-buffer always fits a scratch target.
const MaxRenderable = 2048

// ScratchSize is the scratch render target size; by construction equal
// to MaxRenderable.
const ScratchSize = MaxRenderable

// Category is the VirtualBuffer tagged variant.
type Category uint8

const (
	RenderTargetBuffer Category = iota
	ImageBuffer
	SubImageBuffer
	ShadowMapBuffer
	AssembledBuffer
	DegenerateBuffer
)

func (c Category) String() string {
	switch c {
	case RenderTargetBuffer:
		return "RenderTarget"
	case ImageBuffer:
		return "Image"
	case SubImageBuffer:
		return "SubImage"
	case ShadowMapBuffer:
		return "ShadowMap"
	case AssembledBuffer:
		return "Assembled"
	case DegenerateBuffer:
		return "Degenerate"
	default:
		return "Unknown"
	}
}

// IsStructural reports whether this category owns no commands of its
// own (AssembledBuffer, and any buffer that has split into sub-buffers).
func (c Category) IsStructural() bool { return c == AssembledBuffer }

// State is a VirtualBuffer's position in its lifecycle state machine:
// Recording -> Finished -> Rendering -> Rendered -> Droppable.
type State uint8

const (
	Recording State = iota
	Finished
	Rendering
	Rendered
	Droppable
)

func (s State) String() string {
	switch s {
	case Recording:
		return "Recording"
	case Finished:
		return "Finished"
	case Rendering:
		return "Rendering"
	case Rendered:
		return "Rendered"
	case Droppable:
		return "Droppable"
	default:
		return "Unknown"
	}
}

// CreationTag records where a VirtualBuffer was constructed, for
// debugging/logging only.
type CreationTag struct {
	File string
	Line int
}

func captureCreationTag(skip int) CreationTag {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return CreationTag{File: "unknown", Line: 0}
	}
	return CreationTag{File: file, Line: line}
}

func (t CreationTag) String() string { return fmt.Sprintf("%s:%d", t.File, t.Line) }

// Index uniquely identifies a VirtualBuffer for the lifetime of a
// Renderer, used as a dependency-graph node id and as the RenderTag
// atlas images carry.
type Index uint64

// ClipWindowValue optionally supplies GPU clip-plane coefficients used
// when ClipWindowStrategy is shader-enforced.
type ClipWindowValue struct {
	A, B, C float64
	Valid bool
}

// RenderClipElement names a channel/mask-type interpretation of a
// VirtualBuffer's image, returned memoised by ClipElement.
type RenderClipElement struct {
	Source Index
	Type config.MaskType
	Channel config.MaskChannel
}

// VirtualBuffer is the unit of deferred rendering.
type VirtualBuffer struct {
	index Index
	category Category
	tag CreationTag

	state State

	commands *cmdlist.DrawCommandList // nil for structural categories
	stcData *stc.STCData // nil if no fill-rule staged
	stcSet *stc.BuilderSet
	fillRule config.FillRule
	hasFill bool

	transform *xform.CachedTransformation
	clip clipgeom.ClipGeometryGroup
	clipWindow ClipWindowValue
	startZ uint32

	pauseCounter int
	finishIssued bool

	parent *VirtualBuffer // non-nil for SubImageBuffer
	subBuffers []*VirtualBuffer

	dependsOn map[Index]bool // edges this buffer depends on
	dependents map[Index]bool // edges that depend on this buffer
	remainingDeps int

	image *atlas.Image

	clipElements map[RenderClipElement]RenderClipElement

	mipChild *VirtualBuffer // next buffer in an image_with_mips chain
}

// New creates a recording VirtualBuffer of the given category.
func New(idx Index, cat Category) *VirtualBuffer {
	vb := &VirtualBuffer{
		index: idx,
		category: cat,
		tag: captureCreationTag(1),
		state: Recording,
		transform: xform.New(),
		dependsOn: make(map[Index]bool),
		dependents: make(map[Index]bool),
		clipElements: make(map[RenderClipElement]RenderClipElement),
	}
	if !cat.IsStructural() {
		vb.commands = cmdlist.New()
	}
	return vb
}

// Index returns this buffer's graph index.
func (vb *VirtualBuffer) Index() Index { return vb.index }

// Category returns the tagged-variant category.
func (vb *VirtualBuffer) Category() Category { return vb.category }

// State returns the current lifecycle state.
func (vb *VirtualBuffer) State() State { return vb.state }

// CreationTag returns the debug creation site.
func (vb *VirtualBuffer) CreationTag() CreationTag { return vb.tag }

// Commands returns the owned DrawCommandList, or nil for structural
// categories.
func (vb *VirtualBuffer) Commands() *cmdlist.DrawCommandList { return vb.commands }

// Transform returns the transformation stack node for this buffer.
func (vb *VirtualBuffer) Transform() *xform.CachedTransformation { return vb.transform }

// SetClip installs the buffer's ClipGeometryGroup. For ImageBuffer
// category, the backing Image's tile-grid size must match
// clip.ImageSize() — enforced here.
func (vb *VirtualBuffer) SetClip(clip clipgeom.ClipGeometryGroup) error {
	if vb.category == ImageBuffer && vb.image != nil {
		w, h := clip.ImageSize()
		ts := atlas.TileSizeWithoutPadding
		wantW := max(1, (w+ts-1)/ts)
		wantH := max(1, (h+ts-1)/ts)
		mip := vb.image.MipElement(0)
		if mip.WidthInTiles() != wantW || mip.HeightInTiles() != wantH {
			return fmt.Errorf("astral: vbuffer %d: image tile grid %dx%d does not match clip image size %dx%d (%dx%d tiles)",
				vb.index, mip.WidthInTiles(), mip.HeightInTiles(), w, h, wantW, wantH)
		}
	}
	vb.clip = clip
	return nil
}

// Clip returns the buffer's clip geometry group.
func (vb *VirtualBuffer) Clip() clipgeom.ClipGeometryGroup { return vb.clip }

func (vb *VirtualBuffer) canMutate() error {
	if vb.finishIssued && vb.pauseCounter == 0 {
		return fmt.Errorf("astral: vbuffer %d: cannot mutate after finish (tag %v)", vb.index, vb.tag)
	}
	return nil
}

// DrawGeneric appends a draw command built from the given spec. If
// needsFramebuffer is true (the backend declared this blend mode needs
// source pixels), dep records the VirtualBuffer index the emulated
// framebuffer-fetch must depend on.
func (vb *VirtualBuffer) DrawGeneric(spec cmdlist.AppendSpec, needsFramebuffer bool, dep Index) (cmdlist.DrawCommand, error) {
	if err := vb.canMutate(); err != nil {
		return cmdlist.DrawCommand{}, err
	}
	astralerr.Assert(vb.commands != nil, "DrawGeneric on a structural VirtualBuffer")
	cmd := vb.commands.Append(spec)
	if needsFramebuffer {
		vb.addDependencyEdge(dep)
	}
	return cmd, nil
}

// DrawMaskItem appends a mask-item draw staged into this buffer's
// STCData for the given pass, creating the BuilderSet/STCData lazily.
func (vb *VirtualBuffer) DrawMaskItem(p stc.Pass, verts []stc.Vertex, bbox stc.BBox, rule config.FillRule) error {
	if err := vb.canMutate(); err != nil {
		return err
	}
	if vb.stcSet == nil {
		vb.stcSet = stc.NewBuilderSet()
		vb.stcData = vb.stcSet.NewData()
	}
	vb.stcSet.AddSubElement(vb.stcData, p, verts, bbox)
	vb.fillRule = rule
	vb.hasFill = true
	return nil
}

// FillPath realizes path (already flattened into line/quadratic curves)
// against this buffer's STCData by delegating the sparse-vs-full tiling
// decision to strategy, creating the BuilderSet/STCData lazily the same
// way DrawMaskItem does. originX/originY/widthPx/heightPx bound the
// region a sparse strategy tiles over; a NonSparse strategy ignores them
// beyond the full-buffer bbox they produce.
func (vb *VirtualBuffer) FillPath(strategy filler.Strategy, path []geometry.ContourCurve, rule config.FillRule, originX, originY float64, widthPx, heightPx int) error {
	if err := vb.canMutate(); err != nil {
		return err
	}
	if vb.stcSet == nil {
		vb.stcSet = stc.NewBuilderSet()
		vb.stcData = vb.stcSet.NewData()
	}
	if err := strategy.Fill(vb.stcSet, vb.stcData, path, rule, originX, originY, widthPx, heightPx); err != nil {
		return err
	}
	vb.fillRule = rule
	vb.hasFill = true
	return nil
}

// STCData returns the staged fill geometry, or nil if none has been
// recorded.
func (vb *VirtualBuffer) STCData() *stc.STCData { return vb.stcData }

// FillRule returns the buffer's fill rule and whether one has been set.
func (vb *VirtualBuffer) FillRule() (config.FillRule, bool) { return vb.fillRule, vb.hasFill }

// AddOccluder appends a depth-only occluder rect.
func (vb *VirtualBuffer) AddOccluder(vr cmdlist.VertexRange) error {
	if err := vb.canMutate(); err != nil {
		return err
	}
	astralerr.Assert(vb.commands != nil, "AddOccluder on a structural VirtualBuffer")
	vb.commands.AppendOccluder(vr)
	return nil
}

// BeginPauseSnapshot increments the pause counter: while it is > 0,
// snapshots may not steal commands from this buffer and finish_issued
// is ignored.
func (vb *VirtualBuffer) BeginPauseSnapshot() { vb.pauseCounter++ }

// EndPauseSnapshot decrements the pause counter, clamped at 0.
func (vb *VirtualBuffer) EndPauseSnapshot() {
	if vb.pauseCounter > 0 {
		vb.pauseCounter--
	}
}

// PauseSnapshotCounter sets the counter directly, clamped to >= 0.
func (vb *VirtualBuffer) PauseSnapshotCounter(v int) {
	if v < 0 {
		v = 0
	}
	vb.pauseCounter = v
}

// IsPaused reports whether the pause counter is currently > 0.
func (vb *VirtualBuffer) IsPaused() bool { return vb.pauseCounter > 0 }

// addDependencyEdge records that vb depends on dep; used both for
// explicit Image/ShadowMap/snapshot references and for framebuffer-
// fetch emulation dependencies.
func (vb *VirtualBuffer) addDependencyEdge(dep Index) {
	if dep == vb.index {
		return // self-edges are meaningless and would look like a cycle
	}
	if !vb.dependsOn[dep] {
		vb.dependsOn[dep] = true
		vb.remainingDeps++
	}
}

// AddDependency records an edge from vb to dep (vb depends on dep
// completing first): edges are added whenever a command references an
// Image, a ShadowMap, or another VirtualBuffer via snapshot/effects.
func (vb *VirtualBuffer) AddDependency(dep *VirtualBuffer) {
	vb.addDependencyEdge(dep.index)
	dep.dependents[vb.index] = true
}

// RemainingDependencies returns the outstanding dependency count; the
// scheduler requires this to reach 0 before rendering.
func (vb *VirtualBuffer) RemainingDependencies() int { return vb.remainingDeps }

// ResolveDependency is called by the scheduler once dep has rendered:
// decrements vb's remaining count. Returns the new count.
func (vb *VirtualBuffer) ResolveDependency(dep Index) int {
	if vb.dependsOn[dep] && vb.remainingDeps > 0 {
		vb.remainingDeps--
	}
	return vb.remainingDeps
}

// Dependents returns the set of buffer indices that depend on vb.
func (vb *VirtualBuffer) Dependents() map[Index]bool { return vb.dependents }

// CopyCommands copies from src into vb the STC sub-elements whose
// bounding box intersects bb padded by bbPad, optionally deleting from
// src those fully contained in bb. Both buffers must share an STCData
// BuilderSet (vb adopts src's set if it has none yet). Only STC data is
// copied: src's DrawCommandList commands carry no bounding box and are
// neither copied into vb nor deleted from src.
func (vb *VirtualBuffer) CopyCommands(src *VirtualBuffer, bb stc.BBox, bbPad float64, deleteContained bool) error {
	padded := stc.BBox{
		MinX: bb.MinX - bbPad, MinY: bb.MinY - bbPad,
		MaxX: bb.MaxX + bbPad, MaxY: bb.MaxY + bbPad,
		Valid: bb.Valid,
	}
	if src.stcData == nil {
		return nil
	}
	if vb.stcSet == nil {
		vb.stcSet = src.stcSet
		vb.stcData = vb.stcSet.NewData()
	}
	return stc.CopySTC(vb.stcData, src.stcData, padded, deleteContained)
}

// IssueFinish transitions Recording -> Finished, unless the pause
// counter is > 0 (in which case the call is ignored until a matching
// EndPauseSnapshot — the caller must balance pause/finish sequencing).
func (vb *VirtualBuffer) IssueFinish() {
	vb.finishIssued = true
	if vb.pauseCounter > 0 {
		return
	}
	if vb.state == Recording {
		vb.state = Finished
	}
}

// FinishIssued reports whether issue_finish has been called (regardless
// of whether the pause counter deferred the actual transition).
func (vb *VirtualBuffer) FinishIssued() bool { return vb.finishIssued }

// AboutToRenderContent transitions Finished -> Rendering once
// RemainingDependencies() == 0, reserving atlas tile storage for this
// buffer's output image. Returns an error (and leaves state unchanged)
// if atlas allocation cannot be satisfied, so the scheduler can skip
// this buffer and record the failure as a stat.
func (vb *VirtualBuffer) AboutToRenderContent(a *atlas.ImageAtlas) error {
	if vb.state != Finished {
		return fmt.Errorf("astral: vbuffer %d: about_to_render_content requires Finished, got %v", vb.index, vb.state)
	}
	if vb.remainingDeps != 0 {
		return fmt.Errorf("astral: vbuffer %d: %d dependencies still outstanding", vb.index, vb.remainingDeps)
	}
	if vb.image != nil {
		if err := vb.image.MarkInUse(a); err != nil {
			return err
		}
	}
	vb.state = Rendering
	return nil
}

// MarkRendered transitions Rendering -> Rendered, called by the
// scheduler once the backend has drawn this buffer's commands and the
// result has been blitted into the atlas.
func (vb *VirtualBuffer) MarkRendered() error {
	if vb.state != Rendering {
		return fmt.Errorf("astral: vbuffer %d: mark_rendered requires Rendering, got %v", vb.index, vb.state)
	}
	vb.state = Rendered
	return nil
}

// MarkDroppable transitions Rendered -> Droppable once every known user
// (Encoder, child VirtualBuffer, atlas reference) has released it.
func (vb *VirtualBuffer) MarkDroppable() error {
	if vb.state != Rendered {
		return fmt.Errorf("astral: vbuffer %d: mark_droppable requires Rendered, got %v", vb.index, vb.state)
	}
	vb.state = Droppable
	return nil
}

// SetImage attaches the backing Image this buffer renders into.
func (vb *VirtualBuffer) SetImage(img *atlas.Image) { vb.image = img }

// Image returns the backing Image, or nil for structural/degenerate
// buffers.
func (vb *VirtualBuffer) Image() *atlas.Image { return vb.image }

// ChildBufferSpec configures GenerateChildBuffer.
type ChildBufferSpec struct {
	RelativeBBox clipgeom.Rect
	PixelSlack int
	ScaleFactor float64
	NewIndex Index
	Category Category
}

// GenerateChildBuffer produces a new VirtualBuffer whose
// ClipGeometryGroup is vb's clipping further intersected with
// relativeBBox padded by pixel_slack, with an image size of the padded
// box's size scaled by scale_factor. relativeBBox is used as given, in
// vb's pixel space: it is not mapped through vb's transformation, and
// the result is not clipped to the tile grid. The child inherits vb's transformation so its pixel space aligns with
// the parent's at the requested scale.
func (vb *VirtualBuffer) GenerateChildBuffer(spec ChildBufferSpec) *VirtualBuffer {
	padded := clipgeom.Rect{
		MinX: spec.RelativeBBox.MinX - spec.PixelSlack,
		MinY: spec.RelativeBBox.MinY - spec.PixelSlack,
		MaxX: spec.RelativeBBox.MaxX + spec.PixelSlack,
		MaxY: spec.RelativeBBox.MaxY + spec.PixelSlack,
	}
	scale := spec.ScaleFactor
	if scale <= 0 {
		scale = 1
	}
	newW := int(float64(padded.Width()) * scale)
	newH := int(float64(padded.Height()) * scale)

	child := New(spec.NewIndex, spec.Category)
	child.transform.Transformation(ptr(vb.transform.Transformation(nil)))
	if scale != 1 {
		child.transform.Scale(scale, scale)
	}
	clip := vb.clip.Intersect(padded, newW, newH)
	child.clip = clip
	child.parent = vb
	vb.subBuffers = append(vb.subBuffers, child)
	child.AddDependency(vb)
	return child
}

func ptr(t xform.Transformation) *xform.Transformation { return &t }

// ImageWithMips requests additional mip levels: each level is generated
// by a chained child VirtualBuffer that samples the previous level and
// downsamples. Dangling unpaired levels are represented by a
// single-element mip chain buffer, so that mip-elements always hold two
// levels.
func (vb *VirtualBuffer) ImageWithMips(maxLOD int, nextIndex func() Index) []*VirtualBuffer {
	var chain []*VirtualBuffer
	cur := vb
	for lod := 1; lod <= maxLOD; lod++ {
		w, h := cur.clip.ImageSize()
		child := cur.GenerateChildBuffer(ChildBufferSpec{
			RelativeBBox: clipgeom.Rect{MinX: 0, MinY: 0, MaxX: w, MaxY: h},
			ScaleFactor: 0.5,
			NewIndex: nextIndex(),
			Category: ImageBuffer,
		})
		cur.mipChild = child
		chain = append(chain, child)
		cur = child
	}
	return chain
}

// ClipElement is a memoised factory returning a RenderClipElement naming
// a channel/mask-type interpretation of this buffer's image, so repeated
// calls with the same (maskType, channel) pair return the identical value.
func (vb *VirtualBuffer) ClipElement(maskType config.MaskType, channel config.MaskChannel) RenderClipElement {
	key := RenderClipElement{Source: vb.index, Type: maskType, Channel: channel}
	if existing, ok := vb.clipElements[key]; ok {
		return existing
	}
	vb.clipElements[key] = key
	return key
}

// RequiresSplit reports whether vb's render region exceeds MaxRenderable
// in either dimension.
func (vb *VirtualBuffer) RequiresSplit() bool {
	w, h := vb.clip.ImageSize()
	return w > MaxRenderable || h > MaxRenderable
}

// Split realises a too-large VirtualBuffer as N sub-buffers tiled over
// its region: each sub-buffer copies the intersecting commands from vb,
// and vb becomes structural (AssembledBuffer).
func (vb *VirtualBuffer) Split(nextIndex func() Index) ([]*VirtualBuffer, error) {
	if !vb.RequiresSplit() {
		return nil, fmt.Errorf("astral: vbuffer %d: split called but region fits MaxRenderable", vb.index)
	}
	w, h := vb.clip.ImageSize()
	var subs []*VirtualBuffer
	for y := 0; y < h; y += MaxRenderable {
		for x := 0; x < w; x += MaxRenderable {
			tileW := min(MaxRenderable, w-x)
			tileH := min(MaxRenderable, h-y)
			region := clipgeom.Rect{MinX: x, MinY: y, MaxX: x + tileW, MaxY: y + tileH}
			child := vb.GenerateChildBuffer(ChildBufferSpec{
				RelativeBBox: region,
				ScaleFactor: 1,
				NewIndex: nextIndex(),
				Category: SubImageBuffer,
			})
			bbox := stc.BBox{
				MinX: float64(region.MinX), MinY: float64(region.MinY),
				MaxX: float64(region.MaxX), MaxY: float64(region.MaxY),
				Valid: true,
			}
			if err := child.CopyCommands(vb, bbox, 0, true); err != nil {
				return nil, err
			}
			subs = append(subs, child)
		}
	}
	vb.category = AssembledBuffer
	vb.commands = nil
	return subs, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Package cmdlist implements DrawCommandList: a per-VirtualBuffer,
// append-only log of DrawCommand values partitioned into occluders,
// opaques and typicals, with shader-sorted emission in
// depth-buffer-friendly order.
//
// Generalized from a typed-command design (inspectable command structs,
// a CommandType enum with String(), and typed resource-ref handles) into
// the opaque/occluder/typical partition and z-slot emission order this
// package needs.
package cmdlist

import "github.com/InVisionApp/astral-renderer-sub000/config"

// ShaderHandle identifies a backend shader/material program. Opaque
// index type, matching PathRef/BrushRef/ImageRef idiom
// (recording/command.go).
type ShaderHandle uint32

// InvalidShaderHandle is the sentinel for "no shader assigned yet".
const InvalidShaderHandle ShaderHandle = ^ShaderHandle(0)

// IsValid reports whether h refers to a real shader.
func (h ShaderHandle) IsValid() bool { return h != InvalidShaderHandle }

// VertexRange is a half-open range into a buffer's VertexData.
type VertexRange struct {
	Begin, End uint32
}

// RenderValueBundle is the set of backend-uploaded handles a DrawCommand
// needs: transformation, material/brush, clip mask, and an optional
// framebuffer-fetch emulation value for blend modes that read
// destination pixels.
type RenderValueBundle struct {
	Transform uint32
	Material uint32
	Brush uint32
	ClipMask uint32
	HasClipMask bool
	FramebufferFetch uint32
	HasFramebuffer bool
}

// DrawCommand is one emitted draw: shader, render-value bundle, blend
// mode, a vertex range, a z-slot, and the flags the partitioner used to
// classify it.
type DrawCommand struct {
	Shader ShaderHandle
	Values RenderValueBundle
	Blend config.BlendMode
	Vertices VertexRange
	Z uint32
	IsOccluder bool
	IsOpaque bool
	Transparent bool // emits-transparent-fragments: shader writes alpha < 1 somewhere
}

// PartialCoverageMaterial reports, for a DrawCommand being appended,
// whether its material/brush samples with partial (non-binary) alpha
// coverage. Supplied by the caller since DrawCommandList has no
// visibility into material contents.
type PartialCoverageMaterial bool

// AppendSpec is the input to Append: everything needed to compute
// is_opaque and occluder classification without DrawCommandList having
// to reach into shader/material internals.
type AppendSpec struct {
	Shader ShaderHandle
	Values RenderValueBundle
	Blend config.BlendMode
	Vertices VertexRange
	PartialCoverage bool // the draw's own coverage is not all-or-nothing (e.g. anti-aliased edge)
	EmitsTransparentFragment bool
	PartialCoverageMaterial bool
	HasClipMask bool
}

// SubListMarker captures a contiguous [Begin,End) subrange of the
// typical partition for post-hoc uber-shader override of just those
// commands.
type SubListMarker struct {
	Begin, End int
}

// DrawCommandList is the append-only, partitioned command log owned by
// one VirtualBuffer.
type DrawCommandList struct {
	occluders []DrawCommand
	opaques []DrawCommand
	typicals []DrawCommand

	nextZ uint32
}

// New creates an empty DrawCommandList.
func New() *DrawCommandList {
	return &DrawCommandList{}
}

// isOpaque computes exact predicate: blend mode is Src
// or SrcOver, AND no partial coverage, AND no transparent-fragment-
// emitting shader, AND no partial-coverage material, AND no clip mask.
func isOpaque(s AppendSpec) bool {
	if s.Blend != config.BlendSrc && s.Blend != config.BlendSrcOver {
		return false
	}
	return !s.PartialCoverage && !s.EmitsTransparentFragment &&
		!s.PartialCoverageMaterial && !s.HasClipMask
}

// Append appends a draw, computing is_opaque and partitioning it. Opaque
// commands using SrcOver are downgraded to Src so the backend may use
// early-Z.
func (l *DrawCommandList) Append(s AppendSpec) DrawCommand {
	cmd := DrawCommand{
		Shader: s.Shader,
		Values: s.Values,
		Blend: s.Blend,
		Vertices: s.Vertices,
		Transparent: s.EmitsTransparentFragment,
	}
	cmd.IsOpaque = isOpaque(s)
	if cmd.IsOpaque && cmd.Blend == config.BlendSrcOver {
		cmd.Blend = config.BlendSrc
	}

	if cmd.IsOpaque {
		cmd.Z = l.nextZ
		l.nextZ++
		l.opaques = append(l.opaques, cmd)
	} else {
		l.typicals = append(l.typicals, cmd)
	}
	return cmd
}

// AppendOccluder appends a depth-only occluder rect: no color output,
// no shader evaluation beyond depth, always opaque-classified.
func (l *DrawCommandList) AppendOccluder(vertices VertexRange) DrawCommand {
	cmd := DrawCommand{
		Vertices: vertices,
		Blend: config.BlendSrc,
		IsOccluder: true,
		IsOpaque: true,
		Z: l.nextZ,
	}
	l.nextZ++
	l.occluders = append(l.occluders, cmd)
	return cmd
}

// NumberZ returns the number of distinct z-slots this list has
// allocated, so the scheduler can assign a disjoint start_z per buffer.
func (l *DrawCommandList) NumberZ() uint32 { return l.nextZ }

// Rebase adds startZ to the z-slot of every occluder and opaque (typicals
// carry no z-slot and are left as is), called once by the scheduler after
// NumberZ() has been used to reserve a disjoint range.
func (l *DrawCommandList) Rebase(startZ uint32) {
	for i := range l.occluders {
		l.occluders[i].Z += startZ
	}
	for i := range l.opaques {
		l.opaques[i].Z += startZ
	}
	l.nextZ += startZ
}

// Occluders returns the occluder partition in submission order.
func (l *DrawCommandList) Occluders() []DrawCommand { return l.occluders }

// Opaques returns the opaque partition in submission order (front-to-back
// by z-slot, since opaques were assigned increasing z as appended).
func (l *DrawCommandList) Opaques() []DrawCommand { return l.opaques }

// Typicals returns the typical partition in submission order
// (back-to-front is the caller's responsibility when issuing, since
// typicals share the z axis with opaques but were not assigned z-slots
// at append time).
func (l *DrawCommandList) Typicals() []DrawCommand { return l.typicals }

// BackendSender is the minimal external Backend slice DrawCommandList
// needs to issue commands.
type BackendSender interface {
	Draw(cmd DrawCommand)
}

// SendOccludersToBackend issues every occluder, depth-only, in
// submission order.
func (l *DrawCommandList) SendOccludersToBackend(b BackendSender) {
	for _, c := range l.occluders {
		b.Draw(c)
	}
}

// SendOpaqueCommandsToBackend issues opaques front-to-back by z-slot
// (ascending Z, which matches append order since z-slots were assigned
// monotonically).
func (l *DrawCommandList) SendOpaqueCommandsToBackend(b BackendSender) {
	for _, c := range l.opaques {
		b.Draw(c)
	}
}

// SendCommandsToBackend issues occluders, then opaques front-to-back,
// then typicals back-to-front along the shared z axis.
func (l *DrawCommandList) SendCommandsToBackend(b BackendSender) {
	l.SendOccludersToBackend(b)
	l.SendOpaqueCommandsToBackend(b)
	for i := len(l.typicals) - 1; i >= 0; i-- {
		b.Draw(l.typicals[i])
	}
}

// SendCommandsSortedByShaderToBackend issues every command (opaques and
// typicals; occluders have no shader to sort by and are sent first)
// grouped by ShaderHandle rather than by submission order. Only valid
// when every command's blend mode is commutative (max-blend or
// min-blend), which is the caller's responsibility to guarantee — used
// for masks and shadow maps.
func (l *DrawCommandList) SendCommandsSortedByShaderToBackend(b BackendSender) {
	l.SendOccludersToBackend(b)

	byShader := make(map[ShaderHandle][]DrawCommand)
	var order []ShaderHandle
	for _, c := range l.opaques {
		if _, seen := byShader[c.Shader]; !seen {
			order = append(order, c.Shader)
		}
		byShader[c.Shader] = append(byShader[c.Shader], c)
	}
	for _, c := range l.typicals {
		if _, seen := byShader[c.Shader]; !seen {
			order = append(order, c.Shader)
		}
		byShader[c.Shader] = append(byShader[c.Shader], c)
	}
	for _, sh := range order {
		for _, c := range byShader[sh] {
			b.Draw(c)
		}
	}
}

// AccumulateOpaqueShaders returns the distinct shader handles used by
// the opaque partition, feeding the uber-shader key builder.
func (l *DrawCommandList) AccumulateOpaqueShaders() []ShaderHandle {
	return accumulateShaders(l.opaques)
}

// AccumulateTypicalShaders returns the distinct shader handles used by
// the typical partition.
func (l *DrawCommandList) AccumulateTypicalShaders() []ShaderHandle {
	return accumulateShaders(l.typicals)
}

func accumulateShaders(cmds []DrawCommand) []ShaderHandle {
	seen := make(map[ShaderHandle]bool)
	var out []ShaderHandle
	for _, c := range cmds {
		if !seen[c.Shader] {
			seen[c.Shader] = true
			out = append(out, c.Shader)
		}
	}
	return out
}

// MarkSubList returns a SubListMarker spanning the typical partition's
// current range [begin, len) — call before and after a sequence of
// Append calls to capture the subrange recorded in between.
func (l *DrawCommandList) MarkSubList(begin int) SubListMarker {
	return SubListMarker{Begin: begin, End: len(l.typicals)}
}

// TypicalsLen returns the current length of the typical partition, used
// as the begin marker for MarkSubList.
func (l *DrawCommandList) TypicalsLen() int { return len(l.typicals) }

// SubList returns the typical commands within a marker's range.
func (l *DrawCommandList) SubList(m SubListMarker) []DrawCommand {
	if m.Begin < 0 || m.End > len(l.typicals) || m.Begin > m.End {
		return nil
	}
	return l.typicals[m.Begin:m.End]
}

// Package backend defines the external GPU-backend contract: the
// abstract Backend interface the renderer scheduler drives, RenderValue
// handles for uploaded per-draw state, and a pluggable registry of named
// backend implementations.
//
// The registry (Register/Get/Default, priority-ordered backend
// selection) follows the same shape as a pluggable-driver registry;
// the interface itself is generalized from "wraps a renderer for
// immediate/retained-mode drawing" to "the single draw_render_data
// submission surface the scheduler drives once per batch".
package backend

import (
	"errors"

	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/internal/atlas"
	"github.com/InVisionApp/astral-renderer-sub000/internal/cmdlist"
)

// Common backend errors.
var (
	ErrBackendNotAvailable = errors.New("backend: not available")
	ErrNotInitialized = errors.New("backend: not initialized")
)

// DepthBufferMode selects the depth-test/write configuration for the
// draws the scheduler is about to submit.
type DepthBufferMode uint8

const (
	DepthOff DepthBufferMode = iota
	DepthEqual
	DepthOcclude
	DepthAlways
	DepthShadowMap
)

func (m DepthBufferMode) String() string {
	switch m {
	case DepthOff:
		return "Off"
	case DepthEqual:
		return "Equal"
	case DepthOcclude:
		return "Occlude"
	case DepthAlways:
		return "Always"
	case DepthShadowMap:
		return "ShadowMap"
	default:
		return "Unknown"
	}
}

// RenderValue[T] is an opaque handle a Backend hands back from a
// CreateXValue call, naming an uploaded piece of per-draw state (a
// Transformation, Brush, ImageSampler, ClipWindow, framebuffer-fetch
// emulation flag, or scale/translate pair).
type RenderValue[T any] struct {
	index uint32
	valid bool
}

// Index returns the backend-assigned slot for this value.
func (v RenderValue[T]) Index() uint32 { return v.index }

// Valid reports whether this handle names a live uploaded value.
func (v RenderValue[T]) Valid() bool { return v.valid }

// NewRenderValue wraps a backend-assigned slot index into a typed
// handle — called by Backend implementations from their CreateXValue
// methods.
func NewRenderValue[T any](index uint32) RenderValue[T] {
	return RenderValue[T]{index: index, valid: true}
}

// ClearParams configures BeginRenderTarget's initial clear.
type ClearParams struct {
	Clear bool
	R, G, B, A float32
}

// RenderTargetRef names a render target a Backend manages internally
// (a scratch target, the shadow-map atlas, or a user-supplied surface).
type RenderTargetRef uint32

// FrameStats is the packed-integer-array-plus-label-array stats report:
// a label array parallel to a value array, so a new counter can be added
// without a schema change.
type FrameStats struct {
	Labels []string
	Values []int64
}

// Add accumulates a named counter, appending a new label/value pair the
// first time a label is seen.
func (s *FrameStats) Add(label string, delta int64) {
	for i, l := range s.Labels {
		if l == label {
			s.Values[i] += delta
			return
		}
	}
	s.Labels = append(s.Labels, label)
	s.Values = append(s.Values, delta)
}

// UberShadingKey accumulates the set of shaders folded into a single
// über-shader program across a batch.
type UberShadingKey interface {
	BeginAccumulate(clipKind config.ClipWindowStrategy, method config.UberShaderMethod)
	AccumulateShader(shader cmdlist.ShaderHandle)
	EndAccumulate()
	UberShaderOfAll() cmdlist.ShaderHandle
	Cookie() uint64
}

// Backend is the abstract GPU collaborator the scheduler drives: its
// only other actor. All methods execute synchronously; any GPU-side
// asynchrony is opaque to the caller.
type Backend interface {
	Name() string
	Init() error
	Close()

	Begin()
	End(stats *FrameStats)

	CreateTransformValue(v [6]float64) RenderValue[[6]float64]
	CreateBrushValue(v uint32) RenderValue[uint32]
	CreateSamplerValue(v uint32) RenderValue[uint32]
	CreateClipWindowValue(v [4]float64) RenderValue[[4]float64]
	CreateFramebufferFetchValue(v bool) RenderValue[bool]
	CreateScaleTranslateValue(v [4]float64) RenderValue[[4]float64]

	DrawRenderData(z uint32, cmd cmdlist.DrawCommand, uberKey UberShadingKey, clipWindow RenderValue[[4]float64], vertexRange cmdlist.VertexRange)

	BeginRenderTarget(clear ClearParams, rt RenderTargetRef)
	EndRenderTarget()

	SetStencilState(enabled bool)
	ColorWriteMask(r, g, b, a bool)
	DepthBufferModeSet(mode DepthBufferMode)
	SetFragmentShaderEmit(colorspace atlas.Colorspace)

	RequiresFramebufferPixels(mode config.BlendMode) config.FramebufferRequirement
}

package backend

import (
	"sync"

	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/internal/atlas"
	"github.com/InVisionApp/astral-renderer-sub000/internal/cmdlist"
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU-based reference backend —
	// records submitted draw calls rather than rasterizing them, so the
	// rest of the module is testable without a real GPU backend.
	BackendSoftware = "software"
	// BackendNative is the name of the Pure Go GPU backend (gogpu/wgpu).
	BackendNative = "native"
	// BackendRust is the name of the Rust GPU backend (go-webgpu/webgpu FFI).
	BackendRust = "rust"
)

func init() {
	Register(BackendSoftware, func() Backend {
		return NewSoftwareBackend()
	})
}

// RecordedDraw is one DrawRenderData invocation captured by
// SoftwareBackend, for tests to assert against.
type RecordedDraw struct {
	Z uint32
	Command cmdlist.DrawCommand
	VertexRange cmdlist.VertexRange
}

// SoftwareBackend is the CPU-side reference Backend implementation: it
// assigns sequential RenderValue slots and records every submitted draw
// rather than rasterizing it, generalized from "produces pixels" to
// "produces an auditable draw-call trace" since actual rasterization is
// this module's external GPU-backend boundary, not something the core
// renders.
type SoftwareBackend struct {
	mu sync.Mutex
	initialized bool
	nextSlot uint32
	draws []RecordedDraw
	inRenderTgt bool
}

// NewSoftwareBackend creates a new software reference backend.
func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{}
}

func (b *SoftwareBackend) Name() string { return BackendSoftware }

func (b *SoftwareBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = true
	return nil
}

func (b *SoftwareBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = false
	b.draws = nil
}

func (b *SoftwareBackend) Begin() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draws = b.draws[:0]
}

func (b *SoftwareBackend) End(stats *FrameStats) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if stats != nil {
		stats.Add("number_draws_submitted", int64(len(b.draws)))
	}
}

func (b *SoftwareBackend) allocSlot() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	slot := b.nextSlot
	b.nextSlot++
	return slot
}

func (b *SoftwareBackend) CreateTransformValue(v [6]float64) RenderValue[[6]float64] {
	return NewRenderValue[[6]float64](b.allocSlot())
}

func (b *SoftwareBackend) CreateBrushValue(v uint32) RenderValue[uint32] {
	return NewRenderValue[uint32](b.allocSlot())
}

func (b *SoftwareBackend) CreateSamplerValue(v uint32) RenderValue[uint32] {
	return NewRenderValue[uint32](b.allocSlot())
}

func (b *SoftwareBackend) CreateClipWindowValue(v [4]float64) RenderValue[[4]float64] {
	return NewRenderValue[[4]float64](b.allocSlot())
}

func (b *SoftwareBackend) CreateFramebufferFetchValue(v bool) RenderValue[bool] {
	return NewRenderValue[bool](b.allocSlot())
}

func (b *SoftwareBackend) CreateScaleTranslateValue(v [4]float64) RenderValue[[4]float64] {
	return NewRenderValue[[4]float64](b.allocSlot())
}

func (b *SoftwareBackend) DrawRenderData(z uint32, cmd cmdlist.DrawCommand, uberKey UberShadingKey, clipWindow RenderValue[[4]float64], vertexRange cmdlist.VertexRange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if uberKey != nil {
		uberKey.AccumulateShader(cmd.Shader)
	}
	b.draws = append(b.draws, RecordedDraw{Z: z, Command: cmd, VertexRange: vertexRange})
}

func (b *SoftwareBackend) BeginRenderTarget(clear ClearParams, rt RenderTargetRef) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inRenderTgt = true
}

func (b *SoftwareBackend) EndRenderTarget() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inRenderTgt = false
}

func (b *SoftwareBackend) SetStencilState(enabled bool) {}
func (b *SoftwareBackend) ColorWriteMask(r, g, bl, a bool) {}
func (b *SoftwareBackend) DepthBufferModeSet(mode DepthBufferMode) {}
func (b *SoftwareBackend) SetFragmentShaderEmit(cs atlas.Colorspace) {}

func (b *SoftwareBackend) RequiresFramebufferPixels(mode config.BlendMode) config.FramebufferRequirement {
	return mode.FramebufferRequirement()
}

// Draws returns the draw calls recorded since the last Begin, for tests.
func (b *SoftwareBackend) Draws() []RecordedDraw {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedDraw, len(b.draws))
	copy(out, b.draws)
	return out
}

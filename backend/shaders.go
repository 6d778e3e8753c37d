package backend

import (
	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/internal/cmdlist"
)

// Named shader programs a Backend implementation is expected to provide.
// The scheduler only ever names these; it never supplies a shader body
// itself. Consumers obtain one of these handles and combine it with the
// per-shader item-data packing helper below to build a cmdlist.AppendSpec.
const (
	// FillSTCShader renders the four-pass stencil-then-cover mask
	// geometry staged in a VirtualBuffer's STCData.
	FillSTCShader cmdlist.ShaderHandle = iota
	// DirectStrokeShader renders pre-expanded stroke outline geometry
	// directly, without a stencil pass.
	DirectStrokeShader
	// MaskStrokeShader renders stroke geometry through a coverage mask
	// rather than directly, for strokes needing anti-aliased joins that
	// direct rendering can't resolve in one pass.
	MaskStrokeShader
	// DynamicRectShader draws an axis-aligned rect whose extent is
	// supplied per-draw rather than baked into shared vertex data.
	DynamicRectShader
	// MaskedRectShader samples a coverage/color mask tile and modulates
	// a material rect by it; see internal/maskdraw.
	MaskedRectShader
	// ClipCombineShader composes two clip masks (intersection, union, or
	// difference) into a third.
	ClipCombineShader
	// ShadowMapGeneratorShader accumulates closest-depth fragments into
	// a shadow map via BlendMaskMin.
	ShadowMapGeneratorShader
	// GlyphShader renders one shaped glyph's outline or bitmap content.
	GlyphShader
	// ItemPathShader renders one flattened path item emitted by the
	// geometry package's curve approximation.
	ItemPathShader

	firstUnreservedShader
)

// GlyphItem packs the per-glyph state GlyphShader needs: which glyph
// within the currently bound font atlas, and the subpixel offset of its
// origin within its destination pixel (for subpixel-positioned text).
type GlyphItem struct {
	GlyphIndex uint32
	SubpixelX uint8
	SubpixelY uint8
}

// PackGlyphItem folds a GlyphItem into the uint32 a RenderValueBundle
// slot carries: the low 24 bits hold the glyph index (enough for any
// real font's glyph count), the high 8 bits hold the 4-bit-quantized
// subpixel offsets (X in bits 24-27, Y in bits 28-31).
func PackGlyphItem(item GlyphItem) uint32 {
	idx := item.GlyphIndex & 0x00FFFFFF
	sx := uint32(item.SubpixelX&0x0F) << 24
	sy := uint32(item.SubpixelY&0x0F) << 28
	return idx | sx | sy
}

// UnpackGlyphItem reverses PackGlyphItem, for tests and for backends
// that want to decode the packed value back into its fields.
func UnpackGlyphItem(v uint32) GlyphItem {
	return GlyphItem{
		GlyphIndex: v & 0x00FFFFFF,
		SubpixelX: uint8((v >> 24) & 0x0F),
		SubpixelY: uint8((v >> 28) & 0x0F),
	}
}

// StrokeItem packs the per-segment state MaskStrokeShader needs to
// expand a centerline segment into a coverage mask: the stroke's
// half-width, its cap and join style, and whether this segment sits at
// an open contour's unjoined end (and so needs a cap rather than a
// join) at either endpoint.
type StrokeItem struct {
	HalfWidth float64
	Cap config.LineCap
	Join config.LineJoin
	IsEndSegment bool
}

// strokeHalfWidthFixedBits is the fractional precision PackStrokeItem
// stores the half-width at: 8.8 fixed point, saturating above 255px.
const strokeHalfWidthFixedBits = 8

// PackStrokeItem folds a StrokeItem into the uint32 a RenderValueBundle
// slot carries: the low 16 bits hold the half-width as an 8.8 fixed-
// point value, the next 2 bits the cap, the next 2 the join, and the
// top bit whether this segment needs an end cap.
func PackStrokeItem(item StrokeItem) uint32 {
	fixed := item.HalfWidth * float64(uint32(1)<<strokeHalfWidthFixedBits)
	if fixed < 0 {
		fixed = 0
	}
	if fixed > 0xFFFF {
		fixed = 0xFFFF
	}
	v := uint32(fixed) & 0xFFFF
	v |= uint32(item.Cap&0x3) << 16
	v |= uint32(item.Join&0x3) << 18
	if item.IsEndSegment {
		v |= 1 << 31
	}
	return v
}

// UnpackStrokeItem reverses PackStrokeItem.
func UnpackStrokeItem(v uint32) StrokeItem {
	return StrokeItem{
		HalfWidth: float64(v&0xFFFF) / float64(uint32(1)<<strokeHalfWidthFixedBits),
		Cap: config.LineCap((v >> 16) & 0x3),
		Join: config.LineJoin((v >> 18) & 0x3),
		IsEndSegment: v&(1<<31) != 0,
	}
}

// shaderProperties records, per named shader handle, whether it may
// leave a covered fragment below full coverage and whether it may write
// a fragment with alpha strictly less than one. A ColorItem made up of
// several shaders is partially-covered/transparent if ANY of its
// shaders is; EmitsPartiallyCoveredFragments and
// EmitsTransparentFragments below answer that question for a single
// shader, and MaskDrawer folds them over a ColorItem's shaders.
var shaderProperties = map[cmdlist.ShaderHandle]struct{ partial, transparent bool }{
	FillSTCShader: {partial: true, transparent: true},
	DirectStrokeShader: {partial: true, transparent: true},
	MaskStrokeShader: {partial: true, transparent: true},
	DynamicRectShader: {partial: false, transparent: false},
	MaskedRectShader: {partial: true, transparent: true},
	ClipCombineShader: {partial: true, transparent: false},
	ShadowMapGeneratorShader: {partial: false, transparent: false},
	GlyphShader: {partial: true, transparent: true},
	ItemPathShader: {partial: true, transparent: true},
}

// EmitsPartiallyCoveredFragments reports whether shader may sample with
// non-binary (anti-aliased) coverage.
func EmitsPartiallyCoveredFragments(shader cmdlist.ShaderHandle) bool {
	return shaderProperties[shader].partial
}

// EmitsTransparentFragments reports whether shader may write a fragment
// with alpha strictly less than one.
func EmitsTransparentFragments(shader cmdlist.ShaderHandle) bool {
	return shaderProperties[shader].transparent
}

// Package config enumerates the renderer-core configuration knobs:
// clip-window strategy, uber-shader method, fill method, anti-aliasing,
// mask type/channel, blend mode, filter/mipmap and tile mode. Each knob
// follows small-int-enum-with-String style (see pipeline_mode.go,
// rasterizer_mode.go).
package config

// ClipWindowStrategy selects how a VirtualBuffer's pixel-rect clip
// window is enforced.
type ClipWindowStrategy uint8

const (
	// ClipWindowShader enforces the clip window via in-shader bound tests.
	ClipWindowShader ClipWindowStrategy = iota
	// ClipWindowDepthOcclude renders the user render target with the
	// depth-occlude depth mode (scratch pages use that mode under every
	// strategy). Each buffer's z range is exactly its NumberZ(): no extra
	// z-slot is reserved and no depth-rect is emitted around a buffer.
	ClipWindowDepthOcclude
	// ClipWindowDepthOccludeHinted is handled exactly like
	// ClipWindowDepthOcclude; the scheduler takes no action on the hint.
	ClipWindowDepthOccludeHinted
)

func (s ClipWindowStrategy) String() string {
	switch s {
	case ClipWindowShader:
		return "Shader"
	case ClipWindowDepthOcclude:
		return "DepthOcclude"
	case ClipWindowDepthOccludeHinted:
		return "DepthOccludeHinted"
	default:
		return "Unknown"
	}
}

// UberShaderMethod selects how aggressively draws are folded into a
// single über-shader program.
type UberShaderMethod uint8

const (
	// UberShaderNone disables über-shading; every draw uses its own shader.
	UberShaderNone UberShaderMethod = iota
	// UberShaderActive builds an über-shader from only the shaders
	// actually accumulated in the current batch.
	UberShaderActive
	// UberShaderAll builds the über-shader covering every shader variant
	// the backend knows about, trading compile time for zero shader
	// switches at draw time.
	UberShaderAll
)

func (m UberShaderMethod) String() string {
	switch m {
	case UberShaderNone:
		return "None"
	case UberShaderActive:
		return "Active"
	case UberShaderAll:
		return "All"
	default:
		return "Unknown"
	}
}

// FillMethod selects the sparse-filling strategy used by the Filler.
type FillMethod uint8

const (
	// FillNoSparse always renders fills as a single full backing.
	FillNoSparse FillMethod = iota
	// FillSparseLineClipping clips contours as line segments for tile
	// classification, re-adding curves as STC geometry.
	FillSparseLineClipping
	// FillSparseCurveClipping clips the curves themselves against tile
	// gridlines.
	FillSparseCurveClipping
)

func (m FillMethod) String() string {
	switch m {
	case FillNoSparse:
		return "NoSparse"
	case FillSparseLineClipping:
		return "SparseLineClipping"
	case FillSparseCurveClipping:
		return "SparseCurveClipping"
	default:
		return "Unknown"
	}
}

// AntiAlias toggles anti-alias fuzz geometry emission.
type AntiAlias uint8

const (
	AntiAliasNone AntiAlias = iota
	AntiAliasOn
)

func (a AntiAlias) String() string {
	if a == AntiAliasOn {
		return "WithAntiAliasing"
	}
	return "None"
}

// MaskType selects how mask samples are interpreted.
type MaskType uint8

const (
	MaskTypeCoverage MaskType = iota
	MaskTypeDistanceField
)

func (t MaskType) String() string {
	if t == MaskTypeDistanceField {
		return "DistanceField"
	}
	return "Coverage"
}

// MaskChannel selects which color channel of a mask image carries
// coverage data.
type MaskChannel uint8

const (
	MaskChannelR MaskChannel = iota
	MaskChannelG
	MaskChannelB
	MaskChannelA
)

func (c MaskChannel) String() string {
	switch c {
	case MaskChannelR:
		return "R"
	case MaskChannelG:
		return "G"
	case MaskChannelB:
		return "B"
	case MaskChannelA:
		return "A"
	default:
		return "Unknown"
	}
}

// BlendMode enumerates Porter-Duff compositing plus the named mask and
// shadow blend modes. Partial-coverage variants are derived, not listed;
// the backend synthesizes them automatically from the base mode.
type BlendMode uint8

const (
	BlendClear BlendMode = iota
	BlendSrc
	BlendSrcOver
	BlendDstOver
	BlendSrcIn
	BlendDstIn
	BlendSrcOut
	BlendDstOut
	BlendSrcAtop
	BlendDstAtop
	BlendXor
	BlendPlus
	// BlendMaskMax is the commutative max-blend used for STC stencil
	// cover passes writing coverage into a mask channel.
	BlendMaskMax
	// BlendMaskMin is the commutative min-blend used for shadow-map depth.
	BlendMaskMin
)

func (m BlendMode) String() string {
	names := [...]string{
		"Clear", "Src", "SrcOver", "DstOver", "SrcIn", "DstIn",
		"SrcOut", "DstOut", "SrcAtop", "DstAtop", "Xor", "Plus",
		"MaskMax", "MaskMin",
	}
	if int(m) < len(names) {
		return names[m]
	}
	return "Unknown"
}

// IsCommutative reports whether draws using this blend mode may be
// reordered freely — true for the mask/shadow modes the scheduler
// exploits for global shader sorting.
func (m BlendMode) IsCommutative() bool {
	return m == BlendMaskMax || m == BlendMaskMin
}

// FramebufferRequirement classifies how a draw using a given blend mode
// needs the destination framebuffer's current pixels, for the backend's
// blend interaction with pause-snapshot and snapshot_logical.
type FramebufferRequirement uint8

const (
	// DoesNotNeedFramebufferPixels draws write the destination without
	// reading it.
	DoesNotNeedFramebufferPixels FramebufferRequirement = iota
	// RequiresFramebufferPixelsOpaqueDraw reads the destination but the
	// read is fully overwritten (e.g. Dst-side Porter-Duff terms with an
	// opaque source): the scheduler brackets the draw with a pause-
	// snapshot increment so framebuffer snapshots never see pixels about
	// to be overwritten.
	RequiresFramebufferPixelsOpaqueDraw
	// RequiresFramebufferPixelsBlendDraw genuinely blends with existing
	// destination pixels: the scheduler must materialize the framebuffer
	// as an Image reference via snapshot_logical before the draw.
	RequiresFramebufferPixelsBlendDraw
)

func (r FramebufferRequirement) String() string {
	switch r {
	case DoesNotNeedFramebufferPixels:
		return "DoesNotNeedFramebufferPixels"
	case RequiresFramebufferPixelsOpaqueDraw:
		return "RequiresFramebufferPixelsOpaqueDraw"
	case RequiresFramebufferPixelsBlendDraw:
		return "RequiresFramebufferPixelsBlendDraw"
	default:
		return "Unknown"
	}
}

// FramebufferRequirement classifies m: Clear/Src/SrcOver/Plus and the
// commutative mask/shadow modes never need to read the destination;
// DstOver/DstIn/DstAtop (the Dst-weighted terms, excluding DstOut which
// only erases) read but fully overwrite; every remaining Porter-Duff
// mode genuinely blends.
func (m BlendMode) FramebufferRequirement() FramebufferRequirement {
	switch m {
	case BlendClear, BlendSrc, BlendSrcOver, BlendPlus, BlendMaskMax, BlendMaskMin:
		return DoesNotNeedFramebufferPixels
	case BlendDstOver, BlendDstIn, BlendDstAtop:
		return RequiresFramebufferPixelsOpaqueDraw
	default:
		return RequiresFramebufferPixelsBlendDraw
	}
}

// Filter selects the texture sampling filter.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
	FilterCubic
)

func (f Filter) String() string {
	switch f {
	case FilterNearest:
		return "Nearest"
	case FilterLinear:
		return "Linear"
	case FilterCubic:
		return "Cubic"
	default:
		return "Unknown"
	}
}

// Mipmap selects the mipmap sampling mode.
type Mipmap uint8

const (
	MipmapNone Mipmap = iota
	MipmapNearest
	MipmapLinear
)

func (m Mipmap) String() string {
	switch m {
	case MipmapNone:
		return "None"
	case MipmapNearest:
		return "Nearest"
	case MipmapLinear:
		return "Linear"
	default:
		return "Unknown"
	}
}

// TileMode selects the edge-repeat behavior when sampling outside [0,1].
type TileMode uint8

const (
	TileClamp TileMode = iota
	TileMirror
	TileRepeat
	TileDecal
)

func (t TileMode) String() string {
	switch t {
	case TileClamp:
		return "Clamp"
	case TileMirror:
		return "Mirror"
	case TileRepeat:
		return "Repeat"
	case TileDecal:
		return "Decal"
	default:
		return "Unknown"
	}
}

// FillRule selects the polygon-fill parity rule for STC generation.
type FillRule uint8

const (
	FillRuleNonZero FillRule = iota
	FillRuleOddEven
	FillRuleComplementNonZero
	FillRuleComplementOddEven
)

func (r FillRule) String() string {
	switch r {
	case FillRuleNonZero:
		return "NonZero"
	case FillRuleOddEven:
		return "OddEven"
	case FillRuleComplementNonZero:
		return "ComplementNonZero"
	case FillRuleComplementOddEven:
		return "ComplementOddEven"
	default:
		return "Unknown"
	}
}

// Complement returns the fill rule with the same parity test but
// inverted inside/outside sense.
func (r FillRule) Complement() FillRule {
	switch r {
	case FillRuleNonZero:
		return FillRuleComplementNonZero
	case FillRuleOddEven:
		return FillRuleComplementOddEven
	case FillRuleComplementNonZero:
		return FillRuleNonZero
	case FillRuleComplementOddEven:
		return FillRuleOddEven
	default:
		return r
	}
}

// IsOddEven reports whether the fill rule uses odd/even parity (as
// opposed to nonzero winding).
func (r FillRule) IsOddEven() bool {
	return r == FillRuleOddEven || r == FillRuleComplementOddEven
}

// IsComplement reports whether the fill rule inverts inside/outside.
func (r FillRule) IsComplement() bool {
	return r == FillRuleComplementNonZero || r == FillRuleComplementOddEven
}

// LineCap is the shape drawn at the unjoined end of a stroked subpath.
type LineCap uint8

const (
	LineCapButt LineCap = iota
	LineCapRound
	LineCapSquare
)

func (c LineCap) String() string {
	switch c {
	case LineCapButt:
		return "Butt"
	case LineCapRound:
		return "Round"
	case LineCapSquare:
		return "Square"
	default:
		return "Unknown"
	}
}

// LineJoin is the shape drawn where two stroked segments meet.
type LineJoin uint8

const (
	LineJoinMiter LineJoin = iota
	LineJoinRound
	LineJoinBevel
)

func (j LineJoin) String() string {
	switch j {
	case LineJoinMiter:
		return "Miter"
	case LineJoinRound:
		return "Round"
	case LineJoinBevel:
		return "Bevel"
	default:
		return "Unknown"
	}
}

// StrokeStyle bundles the parameters that turn a centerline contour into
// filled stroke outline geometry.
type StrokeStyle struct {
	Width float64
	Cap LineCap
	Join LineJoin
	MiterLimit float64
}

// DefaultStrokeStyle is a solid 1-pixel line with butt caps, miter joins
// and an SVG-matching miter limit.
func DefaultStrokeStyle() StrokeStyle {
	return StrokeStyle{Width: 1.0, Cap: LineCapButt, Join: LineJoinMiter, MiterLimit: 4.0}
}

// WithWidth returns a copy of s with the given width.
func (s StrokeStyle) WithWidth(w float64) StrokeStyle {
	s.Width = w
	return s
}

// WithCap returns a copy of s with the given cap style.
func (s StrokeStyle) WithCap(c LineCap) StrokeStyle {
	s.Cap = c
	return s
}

// WithJoin returns a copy of s with the given join style.
func (s StrokeStyle) WithJoin(j LineJoin) StrokeStyle {
	s.Join = j
	return s
}

// Config bundles every renderer-wide knob. New returns the renderer's
// default configuration; the zero value is not that default.
type Config struct {
	ClipWindowStrategy ClipWindowStrategy
	UberShaderMethod UberShaderMethod
	FillMethod FillMethod
	AntiAlias AntiAlias
}

// Option configures a Config.
type Option func(*Config)

// WithClipWindowStrategy sets the clip-window enforcement strategy.
func WithClipWindowStrategy(s ClipWindowStrategy) Option {
	return func(c *Config) { c.ClipWindowStrategy = s }
}

// WithUberShaderMethod sets the über-shader accumulation method.
func WithUberShaderMethod(m UberShaderMethod) Option {
	return func(c *Config) { c.UberShaderMethod = m }
}

// WithFillMethod sets the sparse-fill strategy.
func WithFillMethod(m FillMethod) Option {
	return func(c *Config) { c.FillMethod = m }
}

// WithAntiAlias toggles anti-alias fuzz emission.
func WithAntiAlias(a AntiAlias) Option {
	return func(c *Config) { c.AntiAlias = a }
}

// New builds a Config from options, defaulting to
// ClipWindowDepthOcclude / UberShaderActive / FillSparseLineClipping /
// AntiAliasOn, matching the prior design's shipped defaults.
func New(opts...Option) Config {
	c := Config{
		ClipWindowStrategy: ClipWindowDepthOcclude,
		UberShaderMethod: UberShaderActive,
		FillMethod: FillSparseLineClipping,
		AntiAlias: AntiAliasOn,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

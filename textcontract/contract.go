package textcontract

import "errors"

// Sentinel errors for the text contract.
var (
	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("textcontract: empty font data")
	// ErrShapingUnavailable names the condition of a Shaper with no font
	// parser to back it. GoTextShaper does not return it: a font that
	// fails to parse yields the parser's own error.
	ErrShapingUnavailable = errors.New("textcontract: shaping backend unavailable")
)

// GlyphID is a font-specific glyph index, assigned by the font file.
type GlyphID uint16

// Direction is the reading direction text is shaped in.
type Direction uint8

const (
	DirectionLTR Direction = iota
	DirectionRTL
	DirectionTTB
	DirectionBTT
)

func (d Direction) IsVertical() bool { return d == DirectionTTB || d == DirectionBTT }

// ShapedGlyph is one positioned glyph, the output of Shaper.Shape. X/Y
// are a running pen-relative offset (the fine positioning adjustment a
// shaper applies on top of the accumulated advance); XAdvance/YAdvance
// is how far the pen moves after this glyph.
type ShapedGlyph struct {
	GID GlyphID
	Cluster int
	X, Y float64
	XAdvance, YAdvance float64
}

// Face names a font at a specific size and direction: everything a
// Shaper needs to shape text against, without exposing the font parser
// itself.
type Face interface {
	Size() float64
	Direction() Direction
	// SourceBytes returns the raw font file bytes this Face was built
	// from, so a Shaper can parse/cache its own backend font object.
	SourceBytes() []byte
}

// Shaper converts text into positioned glyphs against a Face. This is
// the external contract: the renderer core calls Shape and packs the
// result into GlyphShader draws, never touching a font file itself.
type Shaper interface {
	Shape(text string, face Face) ([]ShapedGlyph, error)
}

// StaticFace is the reference Face implementation: a fixed byte slice,
// size and direction, with no caching of its own. A real deployment's
// Face wraps a heavier, cache-sharing font-source object instead.
type StaticFace struct {
	data []byte
	size float64
	dir Direction
}

// NewStaticFace builds a Face from raw font bytes.
func NewStaticFace(data []byte, size float64, dir Direction) (StaticFace, error) {
	if len(data) == 0 {
		return StaticFace{}, ErrEmptyFontData
	}
	return StaticFace{data: data, size: size, dir: dir}, nil
}

func (f StaticFace) Size() float64 { return f.size }
func (f StaticFace) Direction() Direction { return f.dir }
func (f StaticFace) SourceBytes() []byte { return f.data }

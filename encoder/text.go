package encoder

import (
	"github.com/InVisionApp/astral-renderer-sub000/backend"
	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/internal/cmdlist"
	"github.com/InVisionApp/astral-renderer-sub000/textcontract"
)

// DrawTextRun shapes text against face via shaper and appends one
// GlyphShader draw per resulting glyph to the backing buffer, packing
// each glyph's font index and subpixel origin via backend.PackGlyphItem.
// The glyph's pen-relative X/Y aren't encoded in the packed item value;
// a caller that needs per-glyph placement combines the returned
// textcontract.ShapedGlyph slice with its own transform stack before
// calling DrawGeneric directly, the way DrawTextRun does internally.
func (e Encoder) DrawTextRun(shaper textcontract.Shaper, text string, face textcontract.Face, blend config.BlendMode) ([]textcontract.ShapedGlyph, error) {
	vb, err := e.buffer()
	if err != nil {
		return nil, err
	}

	glyphs, err := shaper.Shape(text, face)
	if err != nil {
		return nil, err
	}

	for _, g := range glyphs {
		item := backend.GlyphItem{
			GlyphIndex: uint32(g.GID),
			SubpixelX: subpixelQuantize(g.X),
			SubpixelY: subpixelQuantize(g.Y),
		}
		spec := cmdlist.AppendSpec{
			Shader: backend.GlyphShader,
			Blend: blend,
			PartialCoverage: true,
			Values: cmdlist.RenderValueBundle{Material: backend.PackGlyphItem(item)},
		}
		if _, err := vb.DrawGeneric(spec, false, 0); err != nil {
			return nil, err
		}
	}
	return glyphs, nil
}

// subpixelQuantize folds a fractional pen offset into a 4-bit subpixel
// bucket (16 positions per pixel), the resolution PackGlyphItem carries.
func subpixelQuantize(v float64) uint8 {
	frac := v - float64(int64(v))
	if frac < 0 {
		frac += 1
	}
	return uint8(frac * 16)
}

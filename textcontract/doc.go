// Package textcontract models the font/text rasteriser contract the
// renderer core consumes but never implements itself: given already-
// parsed font data and a string, produce a sequence of positioned
// glyphs ready to pack into GlyphShader draws. A real deployment backs
// this with a full shaping stack (HarfBuzz-equivalent ligatures,
// kerning, complex scripts, RTL); GoTextShaper below is this module's
// reference implementation, built directly on go-text/typesetting the
// way a software rasterizer stands in for a GPU backend.
package textcontract

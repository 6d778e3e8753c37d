package textcontract

import (
	"bytes"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// GoTextShaper is the reference Shaper, backed by go-text/typesetting's
// HarfBuzz-equivalent shaping engine. It caches parsed *font.Font values
// by the byte slice they were parsed from (font.Font is read-only and
// safe for concurrent use) and pools shaping.HarfbuzzShaper instances
// (which hold mutable per-call state and are not).
type GoTextShaper struct {
	pool sync.Pool

	mu sync.RWMutex
	cache map[*byte]*font.Font
}

// NewGoTextShaper creates a GoTextShaper ready for concurrent use.
func NewGoTextShaper() *GoTextShaper {
	return &GoTextShaper{
		pool: sync.Pool{New: func() any { return &shaping.HarfbuzzShaper{} }},
		cache: make(map[*byte]*font.Font),
	}
}

// Shape implements Shaper by delegating to go-text/typesetting.
func (s *GoTextShaper) Shape(text string, face Face) ([]ShapedGlyph, error) {
	if text == "" || face == nil {
		return nil, nil
	}
	data := face.SourceBytes()
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}

	goFont, err := s.getOrParse(data)
	if err != nil {
		return nil, err
	}
	goFace := font.NewFace(goFont)

	runes := []rune(text)
	dir := mapDirection(face.Direction())
	script := detectScript(runes)

	input := shaping.Input{
		Text: runes,
		RunStart: 0,
		RunEnd: len(runes),
		Direction: dir,
		Face: goFace,
		Size: floatToFixed(face.Size()),
		Script: script,
		Language: language.NewLanguage("en"),
	}

	shaper := s.pool.Get().(*shaping.HarfbuzzShaper)
	output := shaper.Shape(input)
	s.pool.Put(shaper)

	return convertGlyphs(output.Glyphs, dir), nil
}

func (s *GoTextShaper) getOrParse(data []byte) (*font.Font, error) {
	key := &data[0]
	s.mu.RLock()
	if f, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return f, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.cache[key]; ok {
		return f, nil
	}
	parsed, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	s.cache[key] = parsed.Font
	return parsed.Font, nil
}

func mapDirection(d Direction) di.Direction {
	switch d {
	case DirectionRTL:
		return di.DirectionRTL
	case DirectionTTB:
		return di.DirectionTTB
	case DirectionBTT:
		return di.DirectionBTT
	default:
		return di.DirectionLTR
	}
}

func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func floatToFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(v * 64) }
func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64.0 }

func convertGlyphs(glyphs []shaping.Glyph, dir di.Direction) []ShapedGlyph {
	if len(glyphs) == 0 {
		return nil
	}
	out := make([]ShapedGlyph, len(glyphs))
	var x, y float64
	for i, g := range glyphs {
		xOff := fixedToFloat(g.XOffset)
		yOff := fixedToFloat(g.YOffset)
		out[i] = ShapedGlyph{
			GID: GlyphID(uint16(g.GlyphID)),
			Cluster: g.TextIndex(),
			X: x + xOff,
			Y: y + yOff,
		}
		if dir.IsVertical() {
			adv := fixedToFloat(g.Advance)
			out[i].YAdvance = adv
			y += adv
		} else {
			adv := fixedToFloat(g.Advance)
			out[i].XAdvance = adv
			x += adv
		}
	}
	return out
}

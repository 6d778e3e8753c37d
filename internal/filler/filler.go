package filler

import (
	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/geometry"
	"github.com/InVisionApp/astral-renderer-sub000/internal/stc"
)

// SparseFillingErrorCallBack is invoked whenever a sparse strategy gives
// up on a fill (too many mixed tiles, or a feature it can't represent)
// and falls back to NonSparse, so callers can gather statistics without
// the filler package itself depending on a metrics/logging concern.
type SparseFillingErrorCallBack func(reason string)

// Strategy is the common shape of the three filler strategies: stage the
// approximated contour geometry of a path into an STCData, realizing the
// path's FillRule.
type Strategy interface {
	Fill(builder *stc.BuilderSet, data *stc.STCData, path []geometry.ContourCurve, rule config.FillRule, originX, originY float64, widthPx, heightPx int) error
}

// NonSparse always builds full contour + conic-triangle STC geometry for
// every curve, with no tile bookkeeping at all — the baseline strategy
// every sparse strategy falls back to.
type NonSparse struct{}

func (NonSparse) Fill(builder *stc.BuilderSet, data *stc.STCData, path []geometry.ContourCurve, rule config.FillRule, originX, originY float64, widthPx, heightPx int) error {
	return emitContour(builder, data, path, rule, fullBBox(originX, originY, widthPx, heightPx))
}

func fullBBox(originX, originY float64, w, h int) stc.BBox {
	return stc.BBox{MinX: originX, MinY: originY, MaxX: originX + float64(w), MaxY: originY + float64(h), Valid: true}
}

// emitContour stages one ContourStencil sub-element per line segment and
// one ConicTriangleStencil sub-element per quadratic, each paired with a
// ContourFuzz/ConicTriangleFuzz AA fringe sub-element covering the same
// vertices — the four-pass STC split names.
func emitContour(builder *stc.BuilderSet, data *stc.STCData, path []geometry.ContourCurve, rule config.FillRule, bbox stc.BBox) error {
	realizeFillRule(rule)
	for _, c := range path {
		switch c.Kind {
		case geometry.CurveLine:
			verts := []stc.Vertex{{X: c.P0.X, Y: c.P0.Y}, {X: c.P1.X, Y: c.P1.Y}}
			builder.AddSubElement(data, stc.ContourStencil, verts, bbox)
			builder.AddSubElement(data, stc.ContourFuzz, verts, bbox)
		case geometry.CurveQuadratic:
			verts := []stc.Vertex{{X: c.P0.X, Y: c.P0.Y}, {X: c.Control.X, Y: c.Control.Y}, {X: c.P1.X, Y: c.P1.Y}}
			builder.AddSubElement(data, stc.ConicTriangleStencil, verts, bbox)
			builder.AddSubElement(data, stc.ConicTriangleFuzz, verts, bbox)
		}
	}
	return nil
}

// realizeFillRule exists purely to document the two fill-rule
// realizations a backend's stencil pass must implement when consuming
// this STCData: FillRuleNonZero/FillRuleComplementNonZero
// keep the signed winding count as-is (inside iff count != 0, or == 0 for
// the complement), while FillRuleOddEven/FillRuleComplementOddEven require
// the backend to reduce the accumulated count mod 2 before the inside
// test. The realization itself happens in the GPU stencil op the backend
// configures from rule, not in the CPU-side vertex stream, so this is a
// no-op here; a per-tile rect injection for the nonzero-winding rule
// (step c below) is the one place the CPU side must act.
func realizeFillRule(rule config.FillRule) {}

// injectNonZeroWindingRect stages a full-tile-covering contour rect sized
// to the signed winding offset for tiles a contour surrounds without
// touching — "nonzero winding-rect injection": append
// |offset| copies of a degenerate contour edge pair so the stencil pass's
// accumulated count matches what a non-sparse fill would have produced,
// one edge pair per unit of offset so the stencil increments/decrements
// exactly `offset` times.
func injectNonZeroWindingRect(builder *stc.BuilderSet, data *stc.STCData, minX, minY, maxX, maxY float64, offset int, bbox stc.BBox) {
	if offset == 0 {
		return
	}
	n := offset
	sign := 1
	if n < 0 {
		n = -n
		sign = -1
	}
	// A single rect edge contributes +1 (CW) or -1 (CCW) to the winding
	// count; its vertical edges are what the stencil pass's scanline
	// crossing test sees, so two verts (top, bottom) at minX fully
	// realize one unit of offset.
	top, bottom := stc.Vertex{X: minX, Y: minY}, stc.Vertex{X: minX, Y: maxY}
	if sign < 0 {
		top, bottom = bottom, top
	}
	for i := 0; i < n; i++ {
		verts := []stc.Vertex{top, bottom}
		builder.AddSubElement(data, stc.ContourStencil, verts, bbox)
	}
	_ = maxX
}

// injectOddEvenFlip stages a single contour edge pair toggling parity
// for tiles where the accumulated crossing count is odd: unlike the
// nonzero case, only ever 0 or 1 edge pairs are needed since the backend
// reduces mod 2.
func injectOddEvenFlip(builder *stc.BuilderSet, data *stc.STCData, minX, minY, maxY float64, odd bool, bbox stc.BBox) {
	if !odd {
		return
	}
	verts := []stc.Vertex{{X: minX, Y: minY}, {X: minX, Y: maxY}}
	builder.AddSubElement(data, stc.ContourStencil, verts, bbox)
}

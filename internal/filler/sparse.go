package filler

import (
	"math"

	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/geometry"
	"github.com/InVisionApp/astral-renderer-sub000/internal/stc"
)

// giveUpMixedFraction is the 75% mixed-tile threshold past which a
// sparse strategy abandons the sparse decomposition and falls back to
// NonSparse — past this point the tile bookkeeping costs more than it
// saves.
const giveUpMixedFraction = 0.75

// LineClipper tiles a fill's bounding box, classifies every tile as
// inside/outside/mixed by walking each contour edge's chord against the
// grid, accumulates winding-offset contributions for tiles the contour
// surrounds without touching via +x ray casting from tile centers, and
// emits clipped per-tile contour geometry only for mixed tiles. Falls
// back to NonSparse when mixed tiles exceed giveUpMixedFraction or the
// path contains curved segments it cannot faithfully clip (use
// CurveClipper for those).
type LineClipper struct {
	OnGiveUp SparseFillingErrorCallBack
}

func (l LineClipper) Fill(builder *stc.BuilderSet, data *stc.STCData, path []geometry.ContourCurve, rule config.FillRule, originX, originY float64, widthPx, heightPx int) error {
	for _, c := range path {
		if c.Kind != geometry.CurveLine {
			l.giveUp("path contains curved segments")
			return NonSparse{}.Fill(builder, data, path, rule, originX, originY, widthPx, heightPx)
		}
	}

	grid, _, _, _, _ := buildGridForPath(path, originX, originY, widthPx, heightPx)
	if grid.W == 0 || grid.H == 0 {
		return nil
	}

	mapped := make([]MappedCurve, len(path))
	for i, c := range path {
		mapped[i] = MapCurve(c)
	}

	classifyTiles(grid, mapped)

	if grid.MixedFraction() > giveUpMixedFraction {
		l.giveUp("mixed tile fraction exceeds give-up threshold")
		return NonSparse{}.Fill(builder, data, path, rule, originX, originY, widthPx, heightPx)
	}

	emitSparseGeometry(builder, data, grid, mapped, rule)
	return nil
}

func (l LineClipper) giveUp(reason string) {
	if l.OnGiveUp != nil {
		l.OnGiveUp(reason)
	}
}

// CurveClipper generalizes LineClipper to paths containing quadratic
// segments: tile classification and winding-offset ray casting use each
// curve's chord, but mixed-tile geometry re-adds the curve's true control
// point so the stencil pass still sees genuine curve geometry rather
// than its chord approximation.
type CurveClipper struct {
	OnGiveUp SparseFillingErrorCallBack
}

func (c CurveClipper) Fill(builder *stc.BuilderSet, data *stc.STCData, path []geometry.ContourCurve, rule config.FillRule, originX, originY float64, widthPx, heightPx int) error {
	grid, _, _, _, _ := buildGridForPath(path, originX, originY, widthPx, heightPx)
	if grid.W == 0 || grid.H == 0 {
		return nil
	}

	mapped := make([]MappedCurve, len(path))
	for i, cv := range path {
		mapped[i] = MapCurve(cv)
	}

	classifyTiles(grid, mapped)

	if grid.MixedFraction() > giveUpMixedFraction {
		if c.OnGiveUp != nil {
			c.OnGiveUp("mixed tile fraction exceeds give-up threshold")
		}
		return NonSparse{}.Fill(builder, data, path, rule, originX, originY, widthPx, heightPx)
	}

	emitSparseGeometry(builder, data, grid, mapped, rule)
	return nil
}

// buildGridForPath computes the tile grid covering path's bounding box,
// at the TileGrid's fixed tile size, clamped to the render target.
func buildGridForPath(path []geometry.ContourCurve, originX, originY float64, widthPx, heightPx int) (grid *TileGrid, minX, minY, maxX, maxY float64) {
	if len(path) == 0 {
		return NewTileGrid(originX, originY, 0, 0), 0, 0, 0, 0
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, c := range path {
		x0, y0, x1, y1 := c.Bounds()
		minX, minY = math.Min(minX, x0), math.Min(minY, y0)
		maxX, maxY = math.Max(maxX, x1), math.Max(maxY, y1)
	}
	minX = math.Max(minX, originX)
	minY = math.Max(minY, originY)
	maxX = math.Min(maxX, originX+float64(widthPx))
	maxY = math.Min(maxY, originY+float64(heightPx))
	if maxX <= minX || maxY <= minY {
		return NewTileGrid(originX, originY, 0, 0), minX, minY, maxX, maxY
	}

	tileOriginX := originX + math.Floor((minX-originX)/TileSize)*TileSize
	tileOriginY := originY + math.Floor((minY-originY)/TileSize)*TileSize
	w := int(math.Ceil((maxX-tileOriginX)/TileSize))
	h := int(math.Ceil((maxY-tileOriginY)/TileSize))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	grid = NewTileGrid(tileOriginX, tileOriginY, w, h)
	return grid, minX, minY, maxX, maxY
}

// classifyTiles walks every mapped curve's chord, marking tiles its
// bounding box overlaps as TileMixed, and accumulates winding-offset
// contributions into every other tile via a +x ray cast from the tile's
// center. Tiles never touched by any TileMixed-marking curve are
// resolved to TileInside/TileOutside from their winding offset by
// emitSparseGeometry, folded in there for locality with fill-rule
// realization.
func classifyTiles(grid *TileGrid, curves []MappedCurve) {
	for _, m := range curves {
		x0, y0, x1, y1 := m.chord()
		tx0, ty0, tx1, ty1 := grid.gridRangeForBBox(m.MinX, m.MinY, m.MaxX, m.MaxY)
		for ty := ty0; ty <= ty1; ty++ {
			for tx := tx0; tx <= tx1; tx++ {
				minX, minY, maxX, maxY := grid.TileRectPixels(tx, ty)
				if boundsOverlapTile(m.MinX, m.MinY, m.MaxX, m.MaxY, tileRect{minX, minY, maxX, maxY}) {
					if _, ok := clipSegmentToTile(x0, y0, x1, y1, tileRect{minX, minY, maxX, maxY}); ok {
						grid.SetState(tx, ty, TileMixed)
					}
				}
			}
		}
	}

	for ty := 0; ty < grid.H; ty++ {
		for tx := 0; tx < grid.W; tx++ {
			if grid.State(tx, ty) == TileMixed {
				continue
			}
			cx, cy := grid.TileCenter(tx, ty)
			offset := 0
			for _, m := range curves {
				x0, y0, x1, y1 := m.chord()
				offset += rayCrossing(cx, cy, x0, y0, x1, y1)
			}
			grid.AddWindingOffset(tx, ty, offset)
		}
	}
}

// emitSparseGeometry resolves every non-mixed tile's state from its
// winding offset against rule, stages a full-tile rect for TileInside
// tiles (the nonzero-winding-rect injection or odd-even flip), and
// stages clipped per-tile contour/conic geometry for every TileMixed
// tile.
func emitSparseGeometry(builder *stc.BuilderSet, data *stc.STCData, grid *TileGrid, curves []MappedCurve, rule config.FillRule) {
	for ty := 0; ty < grid.H; ty++ {
		for tx := 0; tx < grid.W; tx++ {
			minX, minY, maxX, maxY := grid.TileRectPixels(tx, ty)
			bbox := stc.BBox{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY, Valid: true}

			switch grid.State(tx, ty) {
			case TileMixed:
				emitMixedTile(builder, data, tileRect{minX, minY, maxX, maxY}, bbox, curves)
			default:
				offset := grid.WindingOffset(tx, ty)
				if rule.IsOddEven() {
					inside := offset%2 != 0
					if rule.IsComplement() {
						inside = !inside
					}
					injectOddEvenFlip(builder, data, minX, minY, maxY, inside, bbox)
				} else {
					effective := offset
					if rule.IsComplement() {
						effective = boolToOffset(offset == 0)
					}
					injectNonZeroWindingRect(builder, data, minX, minY, maxX, maxY, effective, bbox)
				}
				grid.SetState(tx, ty, stateForOffset(offset))
			}
		}
	}
}

func boolToOffset(b bool) int {
	if b {
		return 1
	}
	return 0
}

func stateForOffset(offset int) TileState {
	if offset != 0 {
		return TileInside
	}
	return TileOutside
}

// emitMixedTile clips every curve whose bounding box overlaps r to r and
// stages the clipped geometry (lines into ContourStencil/ContourFuzz,
// quadratics re-added whole with their true control point into
// ConicTriangleStencil/ConicTriangleFuzz, per CurveClipper's contract).
func emitMixedTile(builder *stc.BuilderSet, data *stc.STCData, r tileRect, bbox stc.BBox, curves []MappedCurve) {
	for _, m := range curves {
		if !boundsOverlapTile(m.MinX, m.MinY, m.MaxX, m.MaxY, r) {
			continue
		}
		switch m.Curve.Kind {
		case geometry.CurveLine:
			x0, y0, x1, y1 := m.chord()
			seg, ok := clipSegmentToTile(x0, y0, x1, y1, r)
			if !ok {
				continue
			}
			verts := []stc.Vertex{{X: seg.X0, Y: seg.Y0}, {X: seg.X1, Y: seg.Y1}}
			builder.AddSubElement(data, stc.ContourStencil, verts, bbox)
			builder.AddSubElement(data, stc.ContourFuzz, verts, bbox)
		case geometry.CurveQuadratic:
			verts := []stc.Vertex{
				{X: m.Curve.P0.X, Y: m.Curve.P0.Y},
				{X: m.Curve.Control.X, Y: m.Curve.Control.Y},
				{X: m.Curve.P1.X, Y: m.Curve.P1.Y},
			}
			builder.AddSubElement(data, stc.ConicTriangleStencil, verts, bbox)
			builder.AddSubElement(data, stc.ConicTriangleFuzz, verts, bbox)
		}
	}
}

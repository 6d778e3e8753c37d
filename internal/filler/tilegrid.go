// Package filler implements the three Filler strategies: NonSparse,
// LineClipper and CurveClipper. All three share one framing: determine a
// tile grid covering a fill's bounding box, classify tiles as {skip,
// inside, outside, mixed}, and stage STC geometry for the fill: a
// full-tile rect per inside tile and the contour geometry clipped to the
// tile per mixed tile. No mask image is assembled by this package.
//
// The tile classification is a Cohen-Sutherland line clip against an
// axis-aligned rect, generalized from "clip against the viewport" to
// "clip against a tile gridline", combined with curve/tile intersection
// bookkeeping generalized from scanline active-edge-table rows to 2-D
// tile classification.
package filler

import (
	"github.com/InVisionApp/astral-renderer-sub000/geometry"
	"github.com/InVisionApp/astral-renderer-sub000/internal/atlas"
)

// TileState is the classification of one tile in a fill's tile grid.
type TileState uint8

const (
	// TileSkip tiles are entirely outside the clip and need no work.
	TileSkip TileState = iota
	// TileInside tiles are entirely covered by the fill (become a
	// shared white tile).
	TileInside
	// TileOutside tiles are entirely uncovered (become a shared empty
	// tile).
	TileOutside
	// TileMixed tiles straddle a contour edge; the sparse fillers stage
	// the contour geometry clipped to the tile for them (no per-tile
	// VirtualBuffer is created).
	TileMixed
)

func (s TileState) String() string {
	switch s {
	case TileSkip:
		return "Skip"
	case TileInside:
		return "Inside"
	case TileOutside:
		return "Outside"
	case TileMixed:
		return "Mixed"
	default:
		return "Unknown"
	}
}

// TileSize is the tile footprint used by the fillers, taken from the
// atlas's own tile geometry so mixed-tile mask images align with atlas
// tile boundaries.
const TileSize = atlas.TileSizeWithoutPadding

// TileGrid is the W x H array of tile classifications plus per-tile
// winding-offset contributions covering a fill's logical bounding box,
// in pixel space at the chosen render scale.
type TileGrid struct {
	OriginX, OriginY float64 // pixel-space origin of tile (0,0)
	W, H int
	states []TileState
	windingOffset []int
}

// NewTileGrid allocates a W x H grid, all tiles starting TileOutside.
func NewTileGrid(originX, originY float64, w, h int) *TileGrid {
	g := &TileGrid{OriginX: originX, OriginY: originY, W: w, H: h}
	g.states = make([]TileState, w*h)
	g.windingOffset = make([]int, w*h)
	for i := range g.states {
		g.states[i] = TileOutside
	}
	return g
}

func (g *TileGrid) index(x, y int) int { return y*g.W + x }

// State returns the classification of tile (x,y).
func (g *TileGrid) State(x, y int) TileState { return g.states[g.index(x, y)] }

// SetState sets the classification of tile (x,y).
func (g *TileGrid) SetState(x, y int, s TileState) { g.states[g.index(x, y)] = s }

// WindingOffset returns the accumulated winding-offset contribution for
// a tile the contour surrounds but does not touch.
func (g *TileGrid) WindingOffset(x, y int) int { return g.windingOffset[g.index(x, y)] }

// AddWindingOffset accumulates a signed crossing contribution for tile
// (x,y).
func (g *TileGrid) AddWindingOffset(x, y, delta int) { g.windingOffset[g.index(x, y)] += delta }

// TileRectPixels returns tile (x,y)'s bounds in pixel space.
func (g *TileGrid) TileRectPixels(x, y int) (minX, minY, maxX, maxY float64) {
	minX = g.OriginX + float64(x*TileSize)
	minY = g.OriginY + float64(y*TileSize)
	return minX, minY, minX + TileSize, minY + TileSize
}

// TileCenter returns the pixel-space center of tile (x,y), used as the
// ray-casting origin for winding-offset computation.
func (g *TileGrid) TileCenter(x, y int) (float64, float64) {
	minX, minY, maxX, maxY := g.TileRectPixels(x, y)
	return (minX + maxX) / 2, (minY + maxY) / 2
}

// MixedFraction returns the proportion of tiles currently classified
// TileMixed, used by LineClipper/CurveClipper's 75% give-up check.
func (g *TileGrid) MixedFraction() float64 {
	if len(g.states) == 0 {
		return 0
	}
	n := 0
	for _, s := range g.states {
		if s == TileMixed {
			n++
		}
	}
	return float64(n) / float64(len(g.states))
}

// gridRangeForBBox returns the inclusive tile-coordinate range a pixel
// bounding box overlaps, clamped to the grid.
func (g *TileGrid) gridRangeForBBox(minX, minY, maxX, maxY float64) (x0, y0, x1, y1 int) {
	x0 = clampInt(int((minX-g.OriginX)/TileSize), 0, g.W-1)
	y0 = clampInt(int((minY-g.OriginY)/TileSize), 0, g.H-1)
	x1 = clampInt(int((maxX-g.OriginX)/TileSize), 0, g.W-1)
	y1 = clampInt(int((maxY-g.OriginY)/TileSize), 0, g.H-1)
	return
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MappedCurve is a contour curve mapped into pixel space, with its tight
// bounding box precomputed.
type MappedCurve struct {
	Curve geometry.ContourCurve
	MinX, MinY, MaxX, MaxY float64
}

// MapCurve maps a ContourCurve already expressed in pixel space
// (callers apply the logical-to-pixel transform before reaching the
// filler) and precomputes its bounding box.
func MapCurve(c geometry.ContourCurve) MappedCurve {
	minX, minY, maxX, maxY := c.Bounds()
	return MappedCurve{Curve: c, MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// chord returns the line segment between a curve's endpoints — used
// both by LineClipper (which clips the chord, not the curve) and by
// winding-offset ray casting (for which only the crossing parity of the
// contour matters, not true curvature).
func (m MappedCurve) chord() (x0, y0, x1, y1 float64) {
	return m.Curve.P0.X, m.Curve.P0.Y, m.Curve.P1.X, m.Curve.P1.Y
}

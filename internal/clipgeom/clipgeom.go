// Package clipgeom implements ClipGeometry/ClipGeometryGroup: a
// convex-polygon clip in pixel coordinates plus the scale/translate
// mapping from logical to image coordinates, the image size, and
// tile-aligned sub-rects for sparse fillers.
//
// Generalized from a scene clip's Shape/Rect representation to the
// specific convex-polygon-plus-subrects shape the sparse fillers need to
// walk tile-by-tile.
package clipgeom

import "github.com/InVisionApp/astral-renderer-sub000/internal/xform"

// Point is a 2-D point in pixel coordinates.
type Point struct{ X, Y float64 }

// ClipGeometry is a single convex polygon clip in pixel coordinates.
type ClipGeometry struct {
	Polygon []Point
}

// Rect is an axis-aligned tile-grid-aligned sub-rectangle, in tile
// coordinates, one of the sub-rects a sparse filler walks.
type Rect struct {
	MinX, MinY, MaxX, MaxY int
}

func (r Rect) Width() int { return r.MaxX - r.MinX }
func (r Rect) Height() int { return r.MaxY - r.MinY }
func (r Rect) IsEmpty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Intersect returns the intersection of r and o (empty if disjoint).
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		MinX: max(r.MinX, o.MinX), MinY: max(r.MinY, o.MinY),
		MaxX: min(r.MaxX, o.MaxX), MaxY: min(r.MaxY, o.MaxY),
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ClipGeometryGroup bundles one or more ClipGeometry polygons with the
// logical-to-image-space mapping and the tile-aligned sub-rects a
// sparse filler should walk.
type ClipGeometryGroup struct {
	Geometries []ClipGeometry
	// LogicalToImage maps logical coordinates to image pixel coordinates.
	LogicalToImage xform.Transformation
	ImgWidth int
	ImgHeight int
	SubRects []Rect
}

// ImageSize returns the backing image's pixel dimensions.
func (g ClipGeometryGroup) ImageSize() (int, int) { return g.ImgWidth, g.ImgHeight }

// FullImageRect returns the sub-rect covering the entire image at tile
// granularity, used when no finer sparse decomposition has been computed.
func (g ClipGeometryGroup) FullImageRect(tileSize int) Rect {
	return Rect{MinX: 0, MinY: 0, MaxX: ceilDiv(g.ImgWidth, tileSize), MaxY: ceilDiv(g.ImgHeight, tileSize)}
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Intersect returns a new group whose LogicalToImage is unchanged but
// whose sub-rects are restricted to those overlapping clip, and whose
// image size is clip's dimensions — used by VirtualBuffer's
// generate_child_buffer to derive a child's clip from relative_bbox.
func (g ClipGeometryGroup) Intersect(clip Rect, newWidth, newHeight int) ClipGeometryGroup {
	out := ClipGeometryGroup{
		Geometries: g.Geometries,
		LogicalToImage: g.LogicalToImage,
		ImgWidth: newWidth,
		ImgHeight: newHeight,
	}
	for _, r := range g.SubRects {
		ir := r.Intersect(clip)
		if !ir.IsEmpty() {
			out.SubRects = append(out.SubRects, ir)
		}
	}
	if len(out.SubRects) == 0 && !clip.IsEmpty() {
		out.SubRects = []Rect{clip}
	}
	return out
}

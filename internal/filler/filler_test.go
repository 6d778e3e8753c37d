package filler

import (
	"testing"

	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/geometry"
	"github.com/InVisionApp/astral-renderer-sub000/internal/stc"
)

func square(minX, minY, maxX, maxY float64) []geometry.ContourCurve {
	p := func(x, y float64) geometry.Point { return geometry.Point{X: x, Y: y} }
	return []geometry.ContourCurve{
		{Kind: geometry.CurveLine, P0: p(minX, minY), P1: p(maxX, minY)},
		{Kind: geometry.CurveLine, P0: p(maxX, minY), P1: p(maxX, maxY)},
		{Kind: geometry.CurveLine, P0: p(maxX, maxY), P1: p(minX, maxY)},
		{Kind: geometry.CurveLine, P0: p(minX, maxY), P1: p(minX, minY)},
	}
}

func TestNonSparseEmitsOneSubElementPerSegment(t *testing.T) {
	builder := stc.NewBuilderSet()
	data := builder.NewData()
	path := square(0, 0, 10, 10)

	if err := (NonSparse{}).Fill(builder, data, path, config.FillRuleNonZero, 0, 0, 64, 64); err != nil {
		t.Fatal(err)
	}
	if got := len(data.Pass(stc.ContourStencil)); got != 4 {
		t.Fatalf("expected 4 contour stencil sub-elements, got %d", got)
	}
	if got := len(data.Pass(stc.ContourFuzz)); got != 4 {
		t.Fatalf("expected 4 contour fuzz sub-elements, got %d", got)
	}
}

func TestLineClipperClassifiesTilesAroundSmallSquare(t *testing.T) {
	builder := stc.NewBuilderSet()
	data := builder.NewData()
	path := square(40, 40, 44, 44) // entirely within one tile (TileSize==32): a 1x1 grid whose only tile is mixed

	var gaveUp []string
	lc := LineClipper{OnGiveUp: func(reason string) { gaveUp = append(gaveUp, reason) }}
	if err := lc.Fill(builder, data, path, config.FillRuleNonZero, 0, 0, 256, 256); err != nil {
		t.Fatal(err)
	}
	if len(gaveUp) != 1 {
		t.Fatalf("expected exactly one give-up (fall back to NonSparse) for a one-tile square, got %v", gaveUp)
	}
	if data.IsEmpty() {
		t.Fatal("expected some STC geometry to have been staged")
	}
}

func TestLineClipperFallsBackOnCurvedPath(t *testing.T) {
	builder := stc.NewBuilderSet()
	data := builder.NewData()
	path := []geometry.ContourCurve{
		{Kind: geometry.CurveQuadratic, P0: geometry.Point{X: 0, Y: 0}, Control: geometry.Point{X: 5, Y: 10}, P1: geometry.Point{X: 10, Y: 0}},
	}

	var gaveUp []string
	lc := LineClipper{OnGiveUp: func(reason string) { gaveUp = append(gaveUp, reason) }}
	if err := lc.Fill(builder, data, path, config.FillRuleNonZero, 0, 0, 64, 64); err != nil {
		t.Fatal(err)
	}
	if len(gaveUp) != 1 {
		t.Fatalf("expected exactly one give-up reason for a curved path, got %v", gaveUp)
	}
	if got := len(data.Pass(stc.ConicTriangleStencil)); got != 1 {
		t.Fatalf("expected the NonSparse fallback to stage the quadratic, got %d sub-elements", got)
	}
}

func TestCurveClipperHandlesMixedLineAndCurvePath(t *testing.T) {
	builder := stc.NewBuilderSet()
	data := builder.NewData()
	path := append(square(0, 0, 20, 20), geometry.ContourCurve{
		Kind: geometry.CurveQuadratic,
		P0:   geometry.Point{X: 20, Y: 0},
		Control: geometry.Point{X: 30, Y: 10},
		P1:   geometry.Point{X: 20, Y: 20},
	})

	cc := CurveClipper{}
	if err := cc.Fill(builder, data, path, config.FillRuleOddEven, 0, 0, 128, 128); err != nil {
		t.Fatal(err)
	}
	if data.IsEmpty() {
		t.Fatal("expected staged geometry for a mixed line/curve path")
	}
}

func TestRayCrossingParity(t *testing.T) {
	// A downward edge directly to the right of the test point should
	// contribute +1 (CW, y-down convention).
	if got := rayCrossing(0, 5, 10, 0, 10, 10); got != 1 {
		t.Fatalf("expected +1 for a downward crossing edge, got %d", got)
	}
	// The same edge reversed should contribute -1.
	if got := rayCrossing(0, 5, 10, 10, 10, 0); got != -1 {
		t.Fatalf("expected -1 for an upward crossing edge, got %d", got)
	}
	// An edge to the left of the point never crosses the +x ray.
	if got := rayCrossing(20, 5, 10, 0, 10, 10); got != 0 {
		t.Fatalf("expected 0 for an edge left of the ray origin, got %d", got)
	}
}

func TestClipSegmentToTileCohenSutherland(t *testing.T) {
	r := tileRect{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	seg, ok := clipSegmentToTile(-5, 5, 15, 5, r)
	if !ok {
		t.Fatal("expected the horizontal line through the tile to clip successfully")
	}
	if seg.X0 != 0 || seg.X1 != 10 {
		t.Fatalf("expected clipped segment to span the tile's x range, got %+v", seg)
	}

	_, ok = clipSegmentToTile(20, 20, 30, 30, r)
	if ok {
		t.Fatal("expected a segment entirely outside the tile to be rejected")
	}
}

package stc

import "testing"

func TestAddSubElementStagesIntoCorrectPass(t *testing.T) {
	b := NewBuilderSet()
	d := b.NewData()

	se := b.AddSubElement(d, ContourStencil, []Vertex{{0, 0}, {1, 0}, {1, 1}}, BBox{})
	if se.Vertices.Len() != 3 {
		t.Fatalf("expected 3 vertices staged, got %d", se.Vertices.Len())
	}
	if len(d.Pass(ContourStencil)) != 1 {
		t.Fatalf("expected 1 sub-element in ContourStencil, got %d", len(d.Pass(ContourStencil)))
	}
	if len(d.Pass(ContourFuzz)) != 0 {
		t.Fatalf("expected ContourFuzz untouched, got %d", len(d.Pass(ContourFuzz)))
	}
}

func TestVertexAtResolvesRange(t *testing.T) {
	b := NewBuilderSet()
	d := b.NewData()
	b.AddSubElement(d, ConicTriangleFuzz, []Vertex{{0, 0}, {2, 2}}, BBox{})

	verts, err := b.VertexAt(ConicTriangleFuzz, VertexRange{0, 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(verts) != 2 || verts[1].X != 2 {
		t.Fatalf("unexpected resolved vertices: %+v", verts)
	}

	if _, err := b.VertexAt(ConicTriangleFuzz, VertexRange{0, 99}); err == nil {
		t.Fatal("expected out-of-bounds range to error")
	}
}

func TestCopySTCCopiesIntersectingAndDeletesContained(t *testing.T) {
	b := NewBuilderSet()
	src := b.NewData()
	dst := b.NewData()

	inside := BBox{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10, Valid: true}
	outside := BBox{MinX: 100, MinY: 100, MaxX: 110, MaxY: 110, Valid: true}
	straddling := BBox{MinX: 5, MinY: 5, MaxX: 50, MaxY: 50, Valid: true}

	b.AddSubElement(src, ContourStencil, []Vertex{{1, 1}}, inside)
	b.AddSubElement(src, ContourStencil, []Vertex{{101, 101}}, outside)
	b.AddSubElement(src, ContourStencil, []Vertex{{6, 6}}, straddling)

	region := BBox{MinX: 0, MinY: 0, MaxX: 20, MaxY: 20, Valid: true}
	if err := CopySTC(dst, src, region, true); err != nil {
		t.Fatal(err)
	}

	// dst should receive the fully-inside element and the straddling one
	// (it intersects region even though it isn't contained).
	if len(dst.Pass(ContourStencil)) != 2 {
		t.Fatalf("expected 2 sub-elements copied to dst, got %d", len(dst.Pass(ContourStencil)))
	}
	// src should have dropped only the fully-contained element.
	remaining := src.Pass(ContourStencil)
	if len(remaining) != 2 {
		t.Fatalf("expected 2 sub-elements to remain in src, got %d", len(remaining))
	}
	for _, se := range remaining {
		if region.Contains(se.BBox) {
			t.Fatalf("contained sub-element %+v should have been deleted from src", se)
		}
	}
}

func TestCopySTCRejectsMismatchedBuilderSets(t *testing.T) {
	b1, b2 := NewBuilderSet(), NewBuilderSet()
	src := b1.NewData()
	dst := b2.NewData()
	if err := CopySTC(dst, src, BBox{}, false); err == nil {
		t.Fatal("expected copy_stc across different BuilderSets to error")
	}
}

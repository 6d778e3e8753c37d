package encoder_test

import (
	"testing"

	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/encoder"
	"github.com/InVisionApp/astral-renderer-sub000/geometry"
	"github.com/InVisionApp/astral-renderer-sub000/internal/atlas"
	"github.com/InVisionApp/astral-renderer-sub000/internal/clipgeom"
)

func TestEncoderAddPathStrokes(t *testing.T) {
	r := newTestRenderer()
	if err := r.Begin(atlas.ColorspaceSRGB); err != nil {
		t.Fatalf("begin: %v", err)
	}
	enc, err := encoder.New(r, encoder.KindStrokeMask)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := enc.SetClip(clipgeom.ClipGeometryGroup{ImgWidth: 64, ImgHeight: 64}); err != nil {
		t.Fatalf("set_clip: %v", err)
	}

	contours := geometry.SplitPath([]geometry.PathElement{
		geometry.MoveTo{Point: geometry.Point{X: 0, Y: 0}},
		geometry.LineTo{Point: geometry.Point{X: 10, Y: 0}},
		geometry.LineTo{Point: geometry.Point{X: 10, Y: 10}},
	})
	asContours := make([]geometry.Contour, len(contours))
	for i, c := range contours {
		asContours[i] = c
	}

	style := config.DefaultStrokeStyle().WithWidth(2)
	if err := enc.AddPathStrokes(asContours, style, 0.1, config.BlendSrcOver); err != nil {
		t.Fatalf("add_path_strokes: %v", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := r.End(nil); err != nil {
		t.Fatalf("end: %v", err)
	}
}

func TestEncoderAddPathStrokesStaleHandle(t *testing.T) {
	r := newTestRenderer()
	if err := r.Begin(atlas.ColorspaceSRGB); err != nil {
		t.Fatalf("begin: %v", err)
	}
	enc, err := encoder.New(r, encoder.KindStrokeMask)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := r.End(nil); err != nil {
		t.Fatalf("end: %v", err)
	}

	contours := geometry.SplitPath([]geometry.PathElement{
		geometry.MoveTo{Point: geometry.Point{X: 0, Y: 0}},
		geometry.LineTo{Point: geometry.Point{X: 1, Y: 1}},
	})
	asContours := []geometry.Contour{contours[0]}
	if err := enc.AddPathStrokes(asContours, config.DefaultStrokeStyle(), 0.1, config.BlendSrcOver); err == nil {
		t.Fatal("expected stale encoder to reject add_path_strokes")
	}
}

package encoder_test

import (
	"testing"

	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/encoder"
	"github.com/InVisionApp/astral-renderer-sub000/geometry"
	"github.com/InVisionApp/astral-renderer-sub000/internal/atlas"
	"github.com/InVisionApp/astral-renderer-sub000/internal/clipgeom"
	"github.com/InVisionApp/astral-renderer-sub000/internal/filler"
)

func TestEncoderFillPathNonSparse(t *testing.T) {
	r := newTestRenderer()
	if err := r.Begin(atlas.ColorspaceSRGB); err != nil {
		t.Fatalf("begin: %v", err)
	}
	enc, err := encoder.New(r, encoder.KindMask)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := enc.SetClip(clipgeom.ClipGeometryGroup{ImgWidth: 32, ImgHeight: 32}); err != nil {
		t.Fatalf("set_clip: %v", err)
	}

	path := []geometry.ContourCurve{
		{Kind: geometry.CurveLine, P0: geometry.Point{X: 0, Y: 0}, P1: geometry.Point{X: 16, Y: 0}},
		{Kind: geometry.CurveLine, P0: geometry.Point{X: 16, Y: 0}, P1: geometry.Point{X: 16, Y: 16}},
		{Kind: geometry.CurveLine, P0: geometry.Point{X: 16, Y: 16}, P1: geometry.Point{X: 0, Y: 0}},
	}
	if err := enc.FillPath(filler.NonSparse{}, path, config.FillRuleNonZero, 0, 0, 32, 32); err != nil {
		t.Fatalf("fill_path: %v", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := r.End(nil); err != nil {
		t.Fatalf("end: %v", err)
	}
}

func TestEncoderFillPathSparseLineClipper(t *testing.T) {
	r := newTestRenderer()
	if err := r.Begin(atlas.ColorspaceSRGB); err != nil {
		t.Fatalf("begin: %v", err)
	}
	enc, err := encoder.New(r, encoder.KindMask)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := enc.SetClip(clipgeom.ClipGeometryGroup{ImgWidth: 64, ImgHeight: 64}); err != nil {
		t.Fatalf("set_clip: %v", err)
	}

	path := []geometry.ContourCurve{
		{Kind: geometry.CurveLine, P0: geometry.Point{X: 4, Y: 4}, P1: geometry.Point{X: 40, Y: 4}},
		{Kind: geometry.CurveLine, P0: geometry.Point{X: 40, Y: 4}, P1: geometry.Point{X: 40, Y: 40}},
		{Kind: geometry.CurveLine, P0: geometry.Point{X: 40, Y: 40}, P1: geometry.Point{X: 4, Y: 4}},
	}
	var gaveUp []string
	clipper := filler.LineClipper{OnGiveUp: func(reason string) { gaveUp = append(gaveUp, reason) }}
	if err := enc.FillPath(clipper, path, config.FillRuleNonZero, 0, 0, 64, 64); err != nil {
		t.Fatalf("fill_path: %v", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := r.End(nil); err != nil {
		t.Fatalf("end: %v", err)
	}
}

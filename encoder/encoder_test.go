package encoder_test

import (
	"testing"

	"github.com/InVisionApp/astral-renderer-sub000/backend"
	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/encoder"
	"github.com/InVisionApp/astral-renderer-sub000/internal/atlas"
	"github.com/InVisionApp/astral-renderer-sub000/internal/clipgeom"
	"github.com/InVisionApp/astral-renderer-sub000/internal/cmdlist"
	"github.com/InVisionApp/astral-renderer-sub000/renderer"
)

func newTestRenderer() *renderer.Renderer {
	be := backend.NewSoftwareBackend()
	imgAtlas := atlas.NewImageAtlas(4096, 4096)
	return renderer.New(be, imgAtlas, config.New(), 0)
}

func TestEncoderNewAndDraw(t *testing.T) {
	r := newTestRenderer()
	if err := r.Begin(atlas.ColorspaceSRGB); err != nil {
		t.Fatalf("begin: %v", err)
	}

	enc, err := encoder.New(r, encoder.KindSurface)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if enc.Kind() != encoder.KindSurface {
		t.Fatalf("expected KindSurface, got %v", enc.Kind())
	}
	if !enc.Valid() {
		t.Fatal("expected freshly created encoder to be valid")
	}
	if err := enc.SetClip(clipgeom.ClipGeometryGroup{ImgWidth: 64, ImgHeight: 64}); err != nil {
		t.Fatalf("set_clip: %v", err)
	}
	if _, err := enc.DrawGeneric(cmdlist.AppendSpec{Shader: 1, Blend: config.BlendSrcOver}, false, 0); err != nil {
		t.Fatalf("draw_generic: %v", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}

	if _, err := r.End(nil); err != nil {
		t.Fatalf("end: %v", err)
	}
}

func TestEncoderDependOn(t *testing.T) {
	r := newTestRenderer()
	if err := r.Begin(atlas.ColorspaceSRGB); err != nil {
		t.Fatalf("begin: %v", err)
	}

	img, err := encoder.New(r, encoder.KindImage)
	if err != nil {
		t.Fatalf("new(image): %v", err)
	}
	if err := img.SetClip(clipgeom.ClipGeometryGroup{ImgWidth: 32, ImgHeight: 32}); err != nil {
		t.Fatalf("set_clip(image): %v", err)
	}
	if _, err := img.DrawGeneric(cmdlist.AppendSpec{Shader: 2, Blend: config.BlendSrc}, false, 0); err != nil {
		t.Fatalf("draw_generic(image): %v", err)
	}
	if err := img.Finish(); err != nil {
		t.Fatalf("finish(image): %v", err)
	}

	target, err := encoder.New(r, encoder.KindSurface)
	if err != nil {
		t.Fatalf("new(target): %v", err)
	}
	if err := target.SetClip(clipgeom.ClipGeometryGroup{ImgWidth: 128, ImgHeight: 128}); err != nil {
		t.Fatalf("set_clip(target): %v", err)
	}
	if err := target.DependOn(img); err != nil {
		t.Fatalf("depend_on: %v", err)
	}
	if _, err := target.DrawGeneric(cmdlist.AppendSpec{Shader: 3, Blend: config.BlendSrcOver}, false, 0); err != nil {
		t.Fatalf("draw_generic(target): %v", err)
	}
	if err := target.Finish(); err != nil {
		t.Fatalf("finish(target): %v", err)
	}

	if _, err := r.End(nil); err != nil {
		t.Fatalf("end: %v", err)
	}
}

func TestEncoderStaleAfterNewBegin(t *testing.T) {
	r := newTestRenderer()
	if err := r.Begin(atlas.ColorspaceSRGB); err != nil {
		t.Fatalf("begin: %v", err)
	}
	enc, err := encoder.New(r, encoder.KindImage)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := enc.SetClip(clipgeom.ClipGeometryGroup{ImgWidth: 16, ImgHeight: 16}); err != nil {
		t.Fatalf("set_clip: %v", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := r.End(nil); err != nil {
		t.Fatalf("end: %v", err)
	}

	if enc.Valid() {
		t.Fatal("expected encoder to be invalid after its frame ended")
	}
	if err := r.Begin(atlas.ColorspaceSRGB); err != nil {
		t.Fatalf("begin(2): %v", err)
	}
	if enc.Valid() {
		t.Fatal("expected encoder from a prior frame to remain invalid once a new frame has begun")
	}
	if _, err := enc.Clip(); err == nil {
		t.Fatal("expected stale encoder to reject further calls")
	}
}

func TestEncoderAddOccluderAndPauseSnapshot(t *testing.T) {
	r := newTestRenderer()
	if err := r.Begin(atlas.ColorspaceSRGB); err != nil {
		t.Fatalf("begin: %v", err)
	}
	enc, err := encoder.New(r, encoder.KindSurface)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := enc.SetClip(clipgeom.ClipGeometryGroup{ImgWidth: 32, ImgHeight: 32}); err != nil {
		t.Fatalf("set_clip: %v", err)
	}
	if err := enc.BeginPauseSnapshot(); err != nil {
		t.Fatalf("begin_pause_snapshot: %v", err)
	}
	cmd, err := enc.DrawGeneric(cmdlist.AppendSpec{Shader: 5, Blend: config.BlendSrcOver}, false, 0)
	if err != nil {
		t.Fatalf("draw_generic: %v", err)
	}
	if err := enc.AddOccluder(cmd.Vertices); err != nil {
		t.Fatalf("add_occluder: %v", err)
	}
	if err := enc.EndPauseSnapshot(); err != nil {
		t.Fatalf("end_pause_snapshot: %v", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := r.End(nil); err != nil {
		t.Fatalf("end: %v", err)
	}
}

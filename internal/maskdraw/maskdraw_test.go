package maskdraw

import (
	"testing"

	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/internal/atlas"
	"github.com/InVisionApp/astral-renderer-sub000/internal/vbuffer"
	"github.com/InVisionApp/astral-renderer-sub000/internal/xform"
)

func twoByTwoMask(t *testing.T) *atlas.Image {
	t.Helper()
	a := atlas.NewImageAtlas(1024, 1024)
	assignments := map[[2]int]atlas.TileAssembly{
		{0, 0}: {FromBuffer: false, Image: atlas.TileSourceImage{SrcImage: 1, SrcTile: [2]int{0, 0}}},
	}
	return a.AssembleFromTiles(2*atlas.TileSizeWithoutPadding, 2*atlas.TileSizeWithoutPadding, assignments)
}

func TestDrawEmitsMaskedRectForColorTileOnly(t *testing.T) {
	mask := twoByTwoMask(t)
	dst := vbuffer.New(1, vbuffer.RenderTargetBuffer)
	mat := Material{Shader: 7, Blend: config.BlendSrcOver, LogicalToMaterial: xform.Identity()}

	draws, err := Draw(dst, mask, 0, config.MaskChannelA, PostSamplingDirect, mat, xform.Identity())
	if err != nil {
		t.Fatal(err)
	}
	var maskedRects int
	for _, d := range draws {
		if d.IsMaskedRect {
			maskedRects++
		}
	}
	if maskedRects != 1 {
		t.Fatalf("expected exactly 1 masked-rect draw for the single color tile, got %d", maskedRects)
	}
}

func TestDrawEmitsDirectMaterialForEmptyTilesWhenInverted(t *testing.T) {
	mask := twoByTwoMask(t)
	dst := vbuffer.New(1, vbuffer.RenderTargetBuffer)
	mat := Material{Shader: 7, Blend: config.BlendSrcOver, LogicalToMaterial: xform.Identity()}

	draws, err := Draw(dst, mask, 0, config.MaskChannelA, PostSamplingInverted, mat, xform.Identity())
	if err != nil {
		t.Fatal(err)
	}
	var direct int
	for _, d := range draws {
		if !d.IsMaskedRect {
			direct++
		}
	}
	// 2x2 grid with one color tile leaves 3 empty tiles.
	if direct != 3 {
		t.Fatalf("expected 3 direct material draws for the 3 empty tiles, got %d", direct)
	}
}

func TestDrawUnpausesEvenOnError(t *testing.T) {
	mask := twoByTwoMask(t)
	dst := vbuffer.New(1, vbuffer.RenderTargetBuffer)
	mat := Material{Shader: 7, Blend: config.BlendSrcOver, LogicalToMaterial: xform.Identity()}

	// A degenerate all-zero transform has no inverse.
	degenerate := xform.Transformation{}
	if _, err := Draw(dst, mask, 0, config.MaskChannelA, PostSamplingDirect, mat, degenerate); err == nil {
		t.Fatal("expected an error for a non-invertible mask placement transform")
	}
	if dst.IsPaused() {
		t.Fatal("expected pause-snapshot counter to be released even after an error")
	}
}

// Package maskdraw implements MaskDrawer: given a sub-image mask, a mask
// channel, a filter, a post-sampling mode and a material, it walks the
// mask's color/white/empty tile classification and emits per-tile draw
// calls against the material — one MaskedRectShader rect per color tile,
// and one ordinary material rect per white tile (direct mode) or per
// empty tile (inverted mode).
//
// The tile walk and its coverage==0/255 short-circuit are generalized
// from per-pixel coverage modulation to per-tile draw-call emission.
package maskdraw

import (
	"fmt"

	"github.com/InVisionApp/astral-renderer-sub000/backend"
	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/internal/atlas"
	"github.com/InVisionApp/astral-renderer-sub000/internal/cmdlist"
	"github.com/InVisionApp/astral-renderer-sub000/internal/vbuffer"
	"github.com/InVisionApp/astral-renderer-sub000/internal/xform"
)

// PostSamplingMode selects how non-color tiles are treated.
type PostSamplingMode uint8

const (
	// PostSamplingDirect draws the material directly for white (fully
	// covered) tiles and skips empty tiles.
	PostSamplingDirect PostSamplingMode = iota
	// PostSamplingInverted draws the material directly for empty tiles
	// and skips white tiles (the mask's coverage sense is inverted).
	PostSamplingInverted
)

// Material is the draw-command template MaskDrawer instantiates per
// tile: a shader/blend/vertex spec that AppendSpec can stage, plus the
// logical-to-material transform MaskDrawer composes with the mask's
// inverse placement transform.
type Material struct {
	Shader cmdlist.ShaderHandle
	Blend config.BlendMode
	Values cmdlist.RenderValueBundle
	LogicalToMaterial xform.Transformation
}

// EmitsPartiallyCoveredFragments reports whether mat's shader may
// sample with non-binary (anti-aliased) coverage. This scans the named
// shader's own recorded properties; it is not short-circuited to true
// regardless of which shader mat actually names.
func (mat Material) EmitsPartiallyCoveredFragments() bool {
	return backend.EmitsPartiallyCoveredFragments(mat.Shader)
}

// EmitsTransparentFragments reports whether mat's shader may write a
// fragment with alpha strictly less than one, scanned the same way.
func (mat Material) EmitsTransparentFragments() bool {
	return backend.EmitsTransparentFragments(mat.Shader)
}

// TileDraw is one emitted draw instruction: either a MaskedRectShader
// sample of the mask's color tile, or a direct material rect.
type TileDraw struct {
	TileX, TileY int
	IsMaskedRect bool // true: sample mask color tile; false: direct material rect
	Transform xform.Transformation
}

// Draw walks mask's tile classification and returns the ordered set of
// tile draws MaskDrawer emits, composing mat.LogicalToMaterial with the
// inverse of maskToLogical so the material samples consistently
// regardless of the mask's placement. dst is wrapped in
// a pause-snapshot so a concurrent snapshot never observes a partially
// emitted mask draw.
func Draw(dst *vbuffer.VirtualBuffer, mask *atlas.Image, mipLevel int, channel config.MaskChannel, mode PostSamplingMode, mat Material, maskToLogical xform.Transformation) ([]TileDraw, error) {
	dst.BeginPauseSnapshot()
	defer dst.EndPauseSnapshot()

	elem := mask.MipElement(mipLevel)
	if elem == nil {
		return nil, fmt.Errorf("astral: maskdraw: mip level %d not present", mipLevel)
	}

	logicalToMask, ok := maskToLogical.Invert()
	if !ok {
		return nil, fmt.Errorf("astral: maskdraw: mask placement transform is not invertible")
	}
	composed := mat.LogicalToMaterial.Concat(logicalToMask)

	var draws []TileDraw
	for ty := 0; ty < elem.HeightInTiles(); ty++ {
		for tx := 0; tx < elem.WidthInTiles(); tx++ {
			switch elem.TileClassificationAt(tx, ty) {
			case atlas.TileColor:
				spec := cmdlist.AppendSpec{
					Shader: mat.Shader,
					Values: mat.Values,
					Blend: mat.Blend,
					PartialCoverage: mat.EmitsPartiallyCoveredFragments(),
					EmitsTransparentFragment: mat.EmitsTransparentFragments(),
				}
				if _, err := dst.DrawGeneric(spec, true, 0); err != nil {
					return nil, err
				}
				draws = append(draws, TileDraw{TileX: tx, TileY: ty, IsMaskedRect: true, Transform: composed})
			case atlas.TileWhite:
				if mode != PostSamplingDirect {
					continue
				}
				draws = append(draws, directMaterialDraw(dst, mat, tx, ty, composed)...)
			case atlas.TileEmpty:
				if mode != PostSamplingInverted {
					continue
				}
				draws = append(draws, directMaterialDraw(dst, mat, tx, ty, composed)...)
			}
		}
	}

	_ = channel // channel selects which sampled component feeds coverage; consumed by the backend's MaskedRectShader invocation, not CPU-side bookkeeping.
	return draws, nil
}

func directMaterialDraw(dst *vbuffer.VirtualBuffer, mat Material, tx, ty int, composed xform.Transformation) []TileDraw {
	spec := cmdlist.AppendSpec{
		Shader: mat.Shader,
		Values: mat.Values,
		Blend: mat.Blend,
		PartialCoverage: mat.EmitsPartiallyCoveredFragments(),
		EmitsTransparentFragment: mat.EmitsTransparentFragments(),
	}
	if _, err := dst.DrawGeneric(spec, false, 0); err != nil {
		return nil
	}
	return []TileDraw{{TileX: tx, TileY: ty, IsMaskedRect: false, Transform: composed}}
}

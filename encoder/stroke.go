package encoder

import (
	"github.com/InVisionApp/astral-renderer-sub000/backend"
	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/geometry"
	"github.com/InVisionApp/astral-renderer-sub000/internal/cmdlist"
)

// AddPathStrokes expands each contour's stroke centerline into mask-
// stroke draw calls: one MaskStrokeShader draw per flattened segment,
// carrying the stroke's half-width and cap/join style as packed item
// data via backend.PackStrokeItem. A segment at an open contour's
// unjoined end is flagged so the shader caps it instead of joining it.
func (e Encoder) AddPathStrokes(contours []geometry.Contour, style config.StrokeStyle, tol float64, blend config.BlendMode) error {
	vb, err := e.buffer()
	if err != nil {
		return err
	}

	halfWidth := style.Width / 2
	for _, c := range contours {
		segs, err := c.StrokeApproximatedGeometry(tol)
		if err != nil {
			return err
		}
		closed := c.Closed()
		for i := range segs {
			isEndSegment := !closed && (i == 0 || i == len(segs)-1)
			item := backend.StrokeItem{
				HalfWidth: halfWidth,
				Cap: style.Cap,
				Join: style.Join,
				IsEndSegment: isEndSegment,
			}
			spec := cmdlist.AppendSpec{
				Shader: backend.MaskStrokeShader,
				Blend: blend,
				PartialCoverage: true,
				Values: cmdlist.RenderValueBundle{Material: backend.PackStrokeItem(item)},
			}
			if _, err := vb.DrawGeneric(spec, false, 0); err != nil {
				return err
			}
		}
	}
	return nil
}

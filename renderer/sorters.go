package renderer

import (
	"sort"

	"github.com/InVisionApp/astral-renderer-sub000/internal/cmdlist"
	"github.com/InVisionApp/astral-renderer-sub000/internal/vbuffer"
)

// FormatSorter orders idxs tallest-image-first, then widest, so the
// scratch-page shelf allocator sees buffers in a best-height-fit-friendly
// order: packing the tallest shelves first leaves the most usable
// leftover height for whatever is packed after them.
func FormatSorter(buffers map[vbuffer.Index]*vbuffer.VirtualBuffer, idxs []vbuffer.Index) []vbuffer.Index {
	out := append([]vbuffer.Index(nil), idxs...)
	size := func(idx vbuffer.Index) (int, int) { return buffers[idx].Clip().ImageSize() }
	sort.SliceStable(out, func(i, j int) bool {
		wi, hi := size(out[i])
		wj, hj := size(out[j])
		if hi != hj {
			return hi > hj
		}
		return wi > wj
	})
	return out
}

// FirstShaderUsedSorter stable-sorts idxs by the first shader handle each
// buffer's command list accumulates, clustering buffers that will bind the
// same shader first adjacently. Applied after FormatSorter, ties (buffers
// sharing a first shader) keep FormatSorter's relative order, so shelf
// packing quality isn't undone by the shader grouping pass.
func FirstShaderUsedSorter(buffers map[vbuffer.Index]*vbuffer.VirtualBuffer, idxs []vbuffer.Index) []vbuffer.Index {
	out := append([]vbuffer.Index(nil), idxs...)
	firstShader := func(idx vbuffer.Index) cmdlist.ShaderHandle {
		cl := buffers[idx].Commands()
		if cl == nil {
			return cmdlist.InvalidShaderHandle
		}
		if s := cl.AccumulateOpaqueShaders(); len(s) > 0 {
			return s[0]
		}
		if s := cl.AccumulateTypicalShaders(); len(s) > 0 {
			return s[0]
		}
		return cmdlist.InvalidShaderHandle
	}
	sort.SliceStable(out, func(i, j int) bool {
		return firstShader(out[i]) < firstShader(out[j])
	})
	return out
}

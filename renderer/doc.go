// Package renderer implements the Renderer: the frame-lifecycle
// scheduler that owns the dependency DAG of VirtualBuffers, drives a
// backend.Backend to actually submit draws, and coordinates the image
// atlas and scratch render targets across one begin/end cycle.
//
// The scheduler itself is single-threaded and cooperative: all mutation
// happens between Begin and End on whatever goroutine calls them, the
// same frame-cycle discipline scene.Renderer.Render uses around its own
// tile-parallel render pass. Where scene.Renderer parallelizes pixel
// work across a tile grid, this scheduler parallelizes nothing itself —
// its job is ordering draws and batches correctly, not rasterizing —
// but it borrows the same functional-options construction style and
// packed RenderStats/FrameStats reporting idiom.
package renderer

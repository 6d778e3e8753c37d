// Package encoder provides Encoder: a single handle type fronting a
// *vbuffer.VirtualBuffer, tagged with a Kind instead of being one of
// several deep subtype hierarchies. A handle is only valid for the
// Renderer frame it was created in — each Renderer.Begin bumps a
// monotone counter, and a handle created before the latest Begin, or
// used after its frame's End/EndAbort, reports itself invalid rather
// than letting a caller mutate a
// VirtualBuffer instance that has already moved on to another frame.
//
// Generalized from recording/recorder.go's Recorder/Recording split (a
// mutable in-progress stage vs. an immutable finished result) into a
// single handle type whose validity is frame-scoped rather than
// finish-scoped, and from surface/surface.go's Surface-as-drawing-target
// idiom, now fronting a VirtualBuffer rather than an image.Image.
package encoder

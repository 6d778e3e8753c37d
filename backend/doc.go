// Package backend provides a pluggable GPU-backend abstraction: the
// scheduler's only other actor during a frame.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// The software reference backend is automatically registered on import:
//
//	import _ "github.com/InVisionApp/astral-renderer-sub000/backend"
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	b := backend.Default()
//	b := backend.Get("software")
//
// # Frame Lifecycle
//
//	b := backend.Default()
//	if err := b.Init(); err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	b.Begin()
//	//... DrawRenderData calls driven by the scheduler...
//	var stats backend.FrameStats
//	b.End(&stats)
//
// # Available Backends
//
// - "software": records submitted draw calls for testing (always available)
// - "native"/"rust": reserved names; no backend is registered under them in this module
package backend

package vbuffer

import (
	"testing"

	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/internal/atlas"
	"github.com/InVisionApp/astral-renderer-sub000/internal/clipgeom"
	"github.com/InVisionApp/astral-renderer-sub000/internal/cmdlist"
)

func TestIssueFinishIgnoredWhilePaused(t *testing.T) {
	vb := New(1, RenderTargetBuffer)
	vb.BeginPauseSnapshot()
	vb.IssueFinish()
	if vb.State() != Recording {
		t.Fatalf("expected state to remain Recording while paused, got %v", vb.State())
	}
	if !vb.FinishIssued() {
		t.Fatal("finish_issued flag should still be set even though the transition was deferred")
	}
	vb.EndPauseSnapshot()
	vb.IssueFinish()
	if vb.State() != Finished {
		t.Fatalf("expected Finished after unpausing and reissuing finish, got %v", vb.State())
	}
}

func TestCannotMutateAfterFinish(t *testing.T) {
	vb := New(1, RenderTargetBuffer)
	vb.IssueFinish()
	_, err := vb.DrawGeneric(cmdlist.AppendSpec{Blend: config.BlendSrc}, false, 0)
	if err == nil {
		t.Fatal("expected DrawGeneric to fail after finish")
	}
}

func TestAboutToRenderContentRequiresZeroDependencies(t *testing.T) {
	parent := New(1, RenderTargetBuffer)
	child := New(2, RenderTargetBuffer)
	child.AddDependency(parent)
	child.IssueFinish()

	a := atlas.NewImageAtlas(1024, 1024)
	if err := child.AboutToRenderContent(a); err == nil {
		t.Fatal("expected about_to_render_content to fail with an outstanding dependency")
	}

	child.ResolveDependency(parent.Index())
	if child.RemainingDependencies() != 0 {
		t.Fatalf("expected 0 remaining deps, got %d", child.RemainingDependencies())
	}
	if err := child.AboutToRenderContent(a); err != nil {
		t.Fatalf("expected success once dependency resolved, got %v", err)
	}
	if child.State() != Rendering {
		t.Fatalf("expected Rendering state, got %v", child.State())
	}
}

func TestPauseSnapshotCounterClampsNonNegative(t *testing.T) {
	vb := New(1, RenderTargetBuffer)
	vb.PauseSnapshotCounter(-5)
	if vb.IsPaused() {
		t.Fatal("negative counter should clamp to 0 (not paused)")
	}
}

func TestSplitRealisesSubBuffersAndBecomesStructural(t *testing.T) {
	vb := New(1, RenderTargetBuffer)
	vb.clip = clipgeom.ClipGeometryGroup{ImgWidth: 3000, ImgHeight: 1000}

	idx := Index(2)
	next := func() Index {
		idx++
		return idx
	}

	if !vb.RequiresSplit() {
		t.Fatal("expected a 3000x1000 buffer to require splitting")
	}
	subs, err := vb.Split(next)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 sub-buffers tiling 3000 width at 2048 tiles, got %d", len(subs))
	}
	if vb.Category() != AssembledBuffer {
		t.Fatalf("expected parent to become AssembledBuffer, got %v", vb.Category())
	}
	if vb.Commands() != nil {
		t.Fatal("expected structural buffer to have no command list")
	}
	for _, s := range subs {
		if s.Category() != SubImageBuffer {
			t.Fatalf("expected sub-buffer category SubImageBuffer, got %v", s.Category())
		}
		if s.RemainingDependencies() != 1 {
			t.Fatalf("expected sub-buffer to depend on parent, got %d deps", s.RemainingDependencies())
		}
	}
}

func TestGenerateChildBufferInheritsTransform(t *testing.T) {
	vb := New(1, RenderTargetBuffer)
	vb.Transform().Translate(10, 20)
	vb.clip = clipgeom.ClipGeometryGroup{ImgWidth: 100, ImgHeight: 100}

	child := vb.GenerateChildBuffer(ChildBufferSpec{
		RelativeBBox: clipgeom.Rect{MinX: 0, MinY: 0, MaxX: 50, MaxY: 50},
		ScaleFactor:  1,
		NewIndex:     2,
		Category:     ImageBuffer,
	})
	x, y := child.Transform().Transformation(nil).Apply(0, 0)
	if x != 10 || y != 20 {
		t.Fatalf("expected child to inherit parent's translation, got (%v,%v)", x, y)
	}
	if child.RemainingDependencies() != 1 {
		t.Fatal("expected child to depend on its parent")
	}
}

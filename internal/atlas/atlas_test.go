package atlas

import "testing"

func TestCreateImageClassifiesAllTilesColorUntilBacked(t *testing.T) {
	a := NewImageAtlas(1024, 1024)
	img := a.CreateImage(2, 40, 40)

	if img.NumMipLevels() != 2 {
		t.Fatalf("NumMipLevels = %d, want 2", img.NumMipLevels())
	}
	m := img.MipElement(0)
	for y := 0; y < m.HeightInTiles(); y++ {
		for x := 0; x < m.WidthInTiles(); x++ {
			if m.TileClassificationAt(x, y) != TileColor {
				t.Fatalf("tile (%d,%d) should start Color, got %v", x, y, m.TileClassificationAt(x, y))
			}
		}
	}
}

func TestMarkInUseIsIdempotentAndBacksColorTiles(t *testing.T) {
	a := NewImageAtlas(1024, 1024)
	img := a.CreateImage(2, 40, 40)

	if err := img.MarkInUse(a); err != nil {
		t.Fatal(err)
	}
	m := img.MipElement(0)
	if m.TileRect(0, 0).Width == 0 {
		t.Fatal("expected tile (0,0) to receive a backing rect")
	}

	// idempotent: calling again must not re-allocate (and hence not error
	// from double-release semantics downstream).
	if err := img.MarkInUse(a); err != nil {
		t.Fatalf("second MarkInUse should be a no-op, got err=%v", err)
	}
}

func TestCreateMipElementPartialBacking(t *testing.T) {
	a := NewImageAtlas(1024, 1024)
	region := TileRegion{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}
	m := a.CreateMipElement(64, 64, 0, []TileRegion{region})

	if m.TileClassificationAt(0, 0) != TileColor {
		t.Fatalf("tile (0,0) inside region should be Color, got %v", m.TileClassificationAt(0, 0))
	}
	if m.WidthInTiles() > 1 {
		if m.TileClassificationAt(1, 0) != TileEmpty {
			t.Fatalf("tile (1,0) outside region should be Empty, got %v", m.TileClassificationAt(1, 0))
		}
	}
}

func TestLockResourcesBlocksRelease(t *testing.T) {
	a := NewImageAtlas(1024, 1024)
	img := a.CreateImage(2, 32, 32)
	if err := img.MarkInUse(a); err != nil {
		t.Fatal(err)
	}

	a.LockResources()
	if err := a.Release(img); err == nil {
		t.Fatal("expected Release to fail while locked")
	}
	if err := a.UnlockResources(); err != nil {
		t.Fatal(err)
	}
	if err := a.Release(img); err != nil {
		t.Fatalf("expected Release to succeed once unlocked, got %v", err)
	}
}

func TestUnlockWithoutLockErrors(t *testing.T) {
	a := NewImageAtlas(256, 256)
	if err := a.UnlockResources(); err == nil {
		t.Fatal("expected unlock without a matching lock to error")
	}
}

func TestRenderedImageCarriesRenderTag(t *testing.T) {
	a := NewImageAtlas(256, 256)
	tag := RenderTag{BufferIndex: 7}
	img := a.CreateRenderedImage(tag, 32, 32, 1, ColorspaceSRGB)

	if !img.IsRendered() {
		t.Fatal("expected rendered image")
	}
	if img.RenderTag() != tag {
		t.Fatalf("RenderTag = %+v, want %+v", img.RenderTag(), tag)
	}
}

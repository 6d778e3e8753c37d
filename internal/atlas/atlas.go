// Package atlas implements ImageAtlas, Image and ImageMipElement:
// tile-backed image objects with deferred, lazy tile allocation and mip
// chains.
//
// Generalized from the internal/image package (Pool, MipmapChain,
// ImageBuf) — reusable CPU pixel buffers — into atlas-backed,
// tile-sparse GPU images whose tiles are individually classified and
// whose color-tile storage is allocated lazily. Tile rectangle
// allocation itself is delegated to internal/alloc.LayeredRectAtlas.
package atlas

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/InVisionApp/astral-renderer-sub000/internal/alloc"
)

// Tile geometry constants, chosen to match common tile-atlas padding
// practice: one texel of bleed on each side for bilinear sampling at
// tile borders.
const (
	TileSizeWithoutPadding = 32
	TilePadding = 1
	TileSize = TileSizeWithoutPadding + 2*TilePadding
)

// TileClassification is the per-tile state of a mip-element's tile grid.
type TileClassification uint8

const (
	// TileColor tiles have real pixels allocated in the atlas.
	TileColor TileClassification = iota
	// TileWhite tiles are fully covered and sample a single shared
	// all-white tile instead of consuming atlas space.
	TileWhite
	// TileEmpty tiles are uncovered and sample a single shared
	// all-transparent tile.
	TileEmpty
)

func (c TileClassification) String() string {
	switch c {
	case TileColor:
		return "Color"
	case TileWhite:
		return "White"
	case TileEmpty:
		return "Empty"
	default:
		return "Unknown"
	}
}

// ID is a monotonically assigned image identity, invalidated when the
// backing is dropped.
type ID uint64

// RenderTag ties a rendered-image to the index of the VirtualBuffer
// rendering it.
type RenderTag struct {
	BufferIndex uint64
}

// TileSource identifies a tile borrowed from another, still-rendering
// VirtualBuffer's image, resolved once that buffer's render index is
// blitted.
type TileSource struct {
	SrcRenderIndex uint64
	SrcTile [2]int
}

// TileSourceImage identifies a tile borrowed from an already-resolved
// Image reference, mip level 0 only.
type TileSourceImage struct {
	SrcImage ID
	SrcTile [2]int
}

// TileAssembly is the tagged union of TileSource and TileSourceImage:
// exactly one of the two fields is populated, selected by FromBuffer.
type TileAssembly struct {
	FromBuffer bool
	Buffer TileSource
	Image TileSourceImage
}

// Colorspace names the color encoding of an image's pixels.
type Colorspace uint8

const (
	ColorspaceLinear Colorspace = iota
	ColorspaceSRGB
)

// ImageMipElement is a grid of fixed-size tiles covering exactly two
// consecutive mip levels of an Image.
type ImageMipElement struct {
	levelBase int // this element's lower mip level
	widthTiles int
	heightTiles int
	tiles []TileClassification
	rects []alloc.Rect // valid only where tiles[i] == TileColor; zero value otherwise
}

func newMipElement(levelBase, widthTiles, heightTiles int) *ImageMipElement {
	n := widthTiles * heightTiles
	e := &ImageMipElement{
		levelBase: levelBase,
		widthTiles: widthTiles,
		heightTiles: heightTiles,
		tiles: make([]TileClassification, n),
		rects: make([]alloc.Rect, n),
	}
	for i := range e.tiles {
		e.tiles[i] = TileEmpty
	}
	return e
}

func (e *ImageMipElement) index(x, y int) int { return y*e.widthTiles + x }

// TileClassificationAt returns the classification of tile (x,y).
func (e *ImageMipElement) TileClassificationAt(x, y int) TileClassification {
	return e.tiles[e.index(x, y)]
}

// WidthInTiles and HeightInTiles report the mip-element's tile-grid size.
func (e *ImageMipElement) WidthInTiles() int { return e.widthTiles }
func (e *ImageMipElement) HeightInTiles() int { return e.heightTiles }

// LevelBase is the lower of the two mip levels this element backs.
func (e *ImageMipElement) LevelBase() int { return e.levelBase }

// TileRect returns the atlas rectangle backing a color tile. Only valid
// when TileClassificationAt reports TileColor.
func (e *ImageMipElement) TileRect(x, y int) alloc.Rect { return e.rects[e.index(x, y)] }

// Image is a tile-sparse, lazily-backed image object created by an
// ImageAtlas.
type Image struct {
	id ID
	widthTiles int
	heightTiles int
	mips []*ImageMipElement // one per two mip levels

	rendered bool
	renderTag RenderTag
	colorspace Colorspace

	backed int32 // atomic: 0 = not yet backed, 1 = backed
}

// ID returns the image's identity.
func (img *Image) ID() ID { return img.id }

// NumMipLevels returns the number of mip levels this image provides:
// 2 * len(mip-elements).
func (img *Image) NumMipLevels() int { return 2 * len(img.mips) }

// MipElement returns the mip-element covering levels [2*idx, 2*idx+1].
func (img *Image) MipElement(idx int) *ImageMipElement { return img.mips[idx] }

// IsRendered reports whether the image is a rendered-image (backed by a
// VirtualBuffer render job) rather than an assembled-image.
func (img *Image) IsRendered() bool { return img.rendered }

// RenderTag returns the owning VirtualBuffer's render tag. Only
// meaningful if IsRendered().
func (img *Image) RenderTag() RenderTag { return img.renderTag }

// MarkInUse reserves color-tile storage for img the first time it is
// marked in use after its owning VirtualBuffer completes: GPU storage is
// allocated lazily rather than up front. Safe to call more than once;
// only the first call after creation actually reserves atlas space.
func (img *Image) MarkInUse(a *ImageAtlas) error {
	if !atomic.CompareAndSwapInt32(&img.backed, 0, 1) {
		return nil
	}
	for _, m := range img.mips {
		for y := 0; y < m.heightTiles; y++ {
			for x := 0; x < m.widthTiles; x++ {
				idx := m.index(x, y)
				if m.tiles[idx] != TileColor {
					continue
				}
				rect, err := a.rects.Allocate(TileSize, TileSize)
				if err != nil {
					return fmt.Errorf("astral: atlas: backing tile (%d,%d) of image %d: %w", x, y, img.id, err)
				}
				m.rects[idx] = rect
			}
		}
	}
	return nil
}

// ImageAtlas is the tile-backed storage manager for Image objects, built
// atop a LayeredRectAtlas for color-tile rectangles.
type ImageAtlas struct {
	mu sync.Mutex
	rects *alloc.LayeredRectAtlas
	nextID uint64
	locked int
	images map[ID]*Image
}

// NewImageAtlas creates an atlas whose backing pages are layerWidth x
// layerHeight tiles (in pixels, already including TileSize granularity
// expectations — callers pass page dimensions in pixels).
func NewImageAtlas(layerWidth, layerHeight int) *ImageAtlas {
	return &ImageAtlas{
		rects: alloc.NewLayeredRectAtlas(layerWidth, layerHeight),
		images: make(map[ID]*Image),
	}
}

func tileCount(sizePixels int) int {
	n := sizePixels / TileSizeWithoutPadding
	if sizePixels%TileSizeWithoutPadding != 0 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

// CreateImage creates a fully color-classified image of the given
// logical size, providing numMipLevels levels (rounded up to an even
// count, since every mip-element holds two levels).
func (a *ImageAtlas) CreateImage(numMipLevels int, width, height int) *Image {
	a.mu.Lock()
	defer a.mu.Unlock()

	numElements := (numMipLevels + 1) / 2
	if numElements < 1 {
		numElements = 1
	}
	img := &Image{id: a.allocID()}
	w, h := tileCount(width), tileCount(height)
	for i := 0; i < numElements; i++ {
		m := newMipElement(i*2, w, h)
		for j := range m.tiles {
			m.tiles[j] = TileColor
		}
		img.mips = append(img.mips, m)
		w = (w + 1) / 2
		h = (h + 1) / 2
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
	}
	a.images[img.id] = img
	return img
}

// TileRegion is a rectangular range of tile coordinates, inclusive of
// Min and exclusive of Max, identifying which tiles of a mip-element
// should become color tiles in CreateMipElement.
type TileRegion struct {
	MinX, MinY int
	MaxX, MaxY int
}

func (r TileRegion) contains(x, y int) bool {
	return x >= r.MinX && x < r.MaxX && y >= r.MinY && y < r.MaxY
}

// CreateMipElement creates a single partially-backed mip-element: tiles
// within tileRegions become color tiles, all others become empty tiles.
func (a *ImageAtlas) CreateMipElement(width, height int, levelBase int, tileRegions []TileRegion) *ImageMipElement {
	w, h := tileCount(width), tileCount(height)
	m := newMipElement(levelBase, w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for _, r := range tileRegions {
				if r.contains(x, y) {
					m.tiles[m.index(x, y)] = TileColor
					break
				}
			}
		}
	}
	return m
}

// CreateRenderedImage ties an image to a VirtualBuffer render job: the
// image is an assembled, fully color-classified image whose tiles are
// backed lazily once the render tag's buffer finishes and is blitted.
func (a *ImageAtlas) CreateRenderedImage(tag RenderTag, width, height, numMipLevels int, colorspace Colorspace) *Image {
	img := a.CreateImage(numMipLevels, width, height)
	img.rendered = true
	img.renderTag = tag
	img.colorspace = colorspace
	return img
}

// AssembleFromTiles creates an assembled-image (no rendering of its own)
// whose color tiles are populated by resolving an explicit per-tile
// TileAssembly map rather than reserving new atlas rectangles. Tiles not
// present in assignments remain TileEmpty.
func (a *ImageAtlas) AssembleFromTiles(width, height int, assignments map[[2]int]TileAssembly) *Image {
	a.mu.Lock()
	defer a.mu.Unlock()

	w, h := tileCount(width), tileCount(height)
	m := newMipElement(0, w, h)
	for coord := range assignments {
		if coord[0] >= 0 && coord[0] < w && coord[1] >= 0 && coord[1] < h {
			m.tiles[m.index(coord[0], coord[1])] = TileColor
		}
	}
	img := &Image{id: a.allocID(), mips: []*ImageMipElement{m}}
	a.images[img.id] = img
	return img
}

func (a *ImageAtlas) allocID() ID {
	a.nextID++
	return ID(a.nextID)
}

// LockResources marks every currently-live image resource as locked: for
// the duration of a frame, locked resources cannot be reclaimed by
// Release.
func (a *ImageAtlas) LockResources() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.locked++
}

// UnlockResources permits tile recycling once no references remain.
// Returns an error if called more times than LockResources.
func (a *ImageAtlas) UnlockResources() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.locked == 0 {
		return fmt.Errorf("astral: atlas: unlock_resources called without a matching lock")
	}
	a.locked--
	return nil
}

// Locked reports whether resources are currently locked against reclaim.
func (a *ImageAtlas) Locked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.locked > 0
}

// Release drops an image's identity and, if unlocked, returns its
// color-tile rectangles to the rect allocator.
func (a *ImageAtlas) Release(img *Image) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.locked > 0 {
		return fmt.Errorf("astral: atlas: cannot release image %d while resources are locked", img.id)
	}
	if _, ok := a.images[img.id]; !ok {
		return fmt.Errorf("astral: atlas: image %d is not owned by this atlas", img.id)
	}
	for _, m := range img.mips {
		for idx, cls := range m.tiles {
			if cls != TileColor {
				continue
			}
			if m.rects[idx] == (alloc.Rect{}) {
				continue // never backed (MarkInUse not yet called)
			}
			if err := a.rects.Release(m.rects[idx]); err != nil {
				return err
			}
		}
	}
	delete(a.images, img.id)
	return nil
}

// Flush makes blitted tiles visible to subsequent samples. Called by
// the scheduler after all blits of a scratch batch. The CPU-side atlas
// bookkeeping has no pending-visibility state of its own (that lives on
// the GPU backend), so Flush is a no-op synchronization point reserved
// for future backend hand-off.
func (a *ImageAtlas) Flush() {}

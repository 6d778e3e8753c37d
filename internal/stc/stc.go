// Package stc implements STCData and BuilderSet, the staging and backing
// for stencil-then-cover fill geometry, organized into four passes, plus
// the CopySTC operation used when a pause-snapshot moves commands from a
// source VirtualBuffer into a newly spawned child buffer.
//
// STCData itself is pure CPU-side bookkeeping of vertex ranges per
// pass (the actual stencil increment/decrement and coverage
// computation happens in the GPU backend, an external collaborator),
// generalized from a per-scanline winding buffer feeding run-length
// coverage into ranged vertex-data bookkeeping per STC pass.
package stc

import "fmt"

// Pass identifies one of the four STC fill passes.
type Pass uint8

const (
	// ContourStencil drives stencil increment/decrement for straight
	// contour edges, computing winding parity.
	ContourStencil Pass = iota
	// ConicTriangleStencil drives stencil increment/decrement for the
	// conic (curved) triangle fans approximating curved contour edges.
	ConicTriangleStencil
	// ConicTriangleFuzz emits anti-alias coverage fringes for conic
	// triangle edges.
	ConicTriangleFuzz
	// ContourFuzz emits anti-alias coverage fringes for straight
	// contour edges.
	ContourFuzz
)

const numPasses = int(ContourFuzz) + 1

func (p Pass) String() string {
	switch p {
	case ContourStencil:
		return "ContourStencil"
	case ConicTriangleStencil:
		return "ConicTriangleStencil"
	case ConicTriangleFuzz:
		return "ConicTriangleFuzz"
	case ContourFuzz:
		return "ContourFuzz"
	default:
		return "Unknown"
	}
}

// VertexRange is a half-open range into a pass's shared vertex backing.
type VertexRange struct {
	Begin, End uint32
}

func (r VertexRange) Len() uint32 { return r.End - r.Begin }

// BBox is an axis-aligned bounding box in pixel coordinates, optional on
// a SubElement (a zero-value BBox with Valid==false means "no bound
// known", so copy_stc must conservatively treat it as always
// intersecting).
type BBox struct {
	MinX, MinY, MaxX, MaxY float64
	Valid bool
}

// Intersects reports whether b and o overlap. An invalid BBox is
// treated as unbounded (always intersects), matching the "optional
// bounding box" semantics a SubElement carries.
func (b BBox) Intersects(o BBox) bool {
	if !b.Valid || !o.Valid {
		return true
	}
	return b.MinX < o.MaxX && o.MinX < b.MaxX && b.MinY < o.MaxY && o.MinY < b.MaxY
}

// Contains reports whether o lies fully within b. An invalid b can
// never fully contain anything (conservative: never delete what you
// can't prove is contained).
func (b BBox) Contains(o BBox) bool {
	if !b.Valid || !o.Valid {
		return false
	}
	return o.MinX >= b.MinX && o.MaxX <= b.MaxX && o.MinY >= b.MinY && o.MaxY <= b.MaxY
}

// SubElement is one (vertex-range, optional bbox) entry within a pass.
type SubElement struct {
	Vertices VertexRange
	BBox BBox
}

// STCData holds the staged fill geometry for one VirtualBuffer's STC
// passes: a shared vertex backing (owned by the BuilderSet this data
// was built from) plus, per pass, the ordered list of sub-elements
// referencing ranges of it.
type STCData struct {
	builder *BuilderSet
	subElements [numPasses][]SubElement
}

// Pass returns the sub-elements staged for pass p, in emission order.
func (d *STCData) Pass(p Pass) []SubElement { return d.subElements[p] }

// IsEmpty reports whether no pass has any staged geometry.
func (d *STCData) IsEmpty() bool {
	for _, s := range d.subElements {
		if len(s) > 0 {
			return false
		}
	}
	return true
}

// Vertex is a single STC vertex: its position only. Winding is not
// stored per vertex.
type Vertex struct {
	X, Y float64
}

// BuilderSet is the append-only backing shared by every STCData built
// from it: one growable vertex slice per pass. A VirtualBuffer owns
// exactly one BuilderSet for its lifetime; STCData values reference
// into it by range rather than copying vertices.
type BuilderSet struct {
	vertices [numPasses][]Vertex
}

// NewBuilderSet creates an empty BuilderSet.
func NewBuilderSet() *BuilderSet {
	return &BuilderSet{}
}

// NewData creates an STCData staged against this BuilderSet.
func (b *BuilderSet) NewData() *STCData {
	return &STCData{builder: b}
}

// AddSubElement appends verts to pass p's vertex backing and stages a
// SubElement referencing the new range on d, returning the SubElement.
func (b *BuilderSet) AddSubElement(d *STCData, p Pass, verts []Vertex, bbox BBox) SubElement {
	begin := uint32(len(b.vertices[p]))
	b.vertices[p] = append(b.vertices[p], verts...)
	end := uint32(len(b.vertices[p]))
	se := SubElement{Vertices: VertexRange{Begin: begin, End: end}, BBox: bbox}
	d.subElements[p] = append(d.subElements[p], se)
	return se
}

// Vertices returns the backing vertex slice for pass p, for a backend to
// upload wholesale.
func (b *BuilderSet) Vertices(p Pass) []Vertex { return b.vertices[p] }

// VertexAt resolves a VertexRange within pass p's backing.
func (b *BuilderSet) VertexAt(p Pass, r VertexRange) ([]Vertex, error) {
	n := uint32(len(b.vertices[p]))
	if r.Begin > r.End || r.End > n {
		return nil, fmt.Errorf("astral: stc: vertex range %+v out of bounds for pass %v (len %d)", r, p, n)
	}
	return b.vertices[p][r.Begin:r.End], nil
}

// CopySTC copies from
// src into dst only those sub-ranges (across all four passes) whose
// optional bounding box intersects bbox, and — when deleteContained is
// set — removes from src any sub-range fully contained in bbox. This is
// the primitive a pause-snapshot uses to move commands belonging to a
// spawned child buffer's region out of its parent's still-recording
// STCData.
//
// dst and src must share the same BuilderSet (copying is by reference
// to existing vertex ranges, not by value) — returns an error
// otherwise, since mixing backings would produce dangling ranges.
func CopySTC(dst, src *STCData, bbox BBox, deleteContained bool) error {
	if dst.builder != src.builder {
		return fmt.Errorf("astral: stc: copy_stc requires dst and src share a BuilderSet")
	}
	for p := Pass(0); int(p) < numPasses; p++ {
		var kept []SubElement
		for _, se := range src.subElements[p] {
			if se.BBox.Intersects(bbox) {
				dst.subElements[p] = append(dst.subElements[p], se)
			}
			if deleteContained && bbox.Contains(se.BBox) {
				continue // fully contained: drop from src
			}
			kept = append(kept, se)
		}
		src.subElements[p] = kept
	}
	return nil
}

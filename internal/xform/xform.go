// Package xform implements CachedTransformation: a transformation-stack
// node with lazily computed, dirty-bit tracked derived values (inverse,
// singular values, matrix type, and a cached backend RenderValue
// handle).
//
// The affine matrix shape and operations follow a Matrix type carrying
// row-major 2x2-plus-translation state; the dirty-bit scheme is this
// package's own addition, choosing lazy recompute behind dirty bits over
// eager-compute-on-set.
package xform

import "math"

// Transformation is a 2D affine transform: 2x2 linear part plus
// translation, matching row-major Matrix layout.
//
//	x' = A*x + B*y + Tx
//	y' = D*x + E*y + Ty
type Transformation struct {
	A, B, D, E float64
	Tx, Ty float64
}

// Identity returns the identity transformation.
func Identity() Transformation {
	return Transformation{A: 1, E: 1}
}

// Concat returns m followed by other (other ∘ m): applying the result to
// a point first applies m, then other.
func (m Transformation) Concat(other Transformation) Transformation {
	return Transformation{
		A: other.A*m.A + other.B*m.D,
		B: other.A*m.B + other.B*m.E,
		D: other.D*m.A + other.E*m.D,
		E: other.D*m.B + other.E*m.E,
		Tx: other.A*m.Tx + other.B*m.Ty + other.Tx,
		Ty: other.D*m.Tx + other.E*m.Ty + other.Ty,
	}
}

// Apply transforms a point.
func (m Transformation) Apply(x, y float64) (float64, float64) {
	return m.A*x + m.B*y + m.Tx, m.D*x + m.E*y + m.Ty
}

// ApplyVector transforms a vector (ignores translation).
func (m Transformation) ApplyVector(x, y float64) (float64, float64) {
	return m.A*x + m.B*y, m.D*x + m.E*y
}

func (m Transformation) determinant() float64 { return m.A*m.E - m.B*m.D }

// Invert returns the inverse transform and whether it exists.
func (m Transformation) Invert() (Transformation, bool) {
	det := m.determinant()
	if math.Abs(det) < 1e-12 {
		return Identity(), false
	}
	inv := 1.0 / det
	a, b, d, e := m.E*inv, -m.B*inv, -m.D*inv, m.A*inv
	return Transformation{
		A: a, B: b, D: d, E: e,
		Tx: -(a*m.Tx + b*m.Ty),
		Ty: -(d*m.Tx + e*m.Ty),
	}, true
}

// MatrixType classifies the linear part of a transform for fast-path
// selection in the backend (identity/translation draws skip matrix
// uniforms entirely).
type MatrixType uint8

const (
	MatrixIdentity MatrixType = iota
	MatrixTranslation
	MatrixScaleTranslation
	MatrixGeneral
)

func (m Transformation) matrixType() MatrixType {
	const eps = 1e-9
	if math.Abs(m.B) > eps || math.Abs(m.D) > eps {
		return MatrixGeneral
	}
	if math.Abs(m.A-1) < eps && math.Abs(m.E-1) < eps {
		if math.Abs(m.Tx) < eps && math.Abs(m.Ty) < eps {
			return MatrixIdentity
		}
		return MatrixTranslation
	}
	return MatrixScaleTranslation
}

// singularValues returns the two singular values (s0 >= s1 >= 0) of the
// 2x2 linear part via the closed-form for 2x2 SVD.
func (m Transformation) singularValues() (s0, s1 float64) {
	e := (m.A + m.E) / 2
	f := (m.A - m.E) / 2
	g := (m.D + m.B) / 2
	h := (m.D - m.B) / 2
	q := math.Hypot(e, h)
	r := math.Hypot(f, g)
	s0 = q + r
	s1 = math.Abs(q - r)
	return
}

// RenderValue is a cheap index/handle to a value the backend has
// uploaded: equality compares indices, Valid distinguishes the null
// handle. Defined here rather than in package backend to avoid an import
// cycle (CachedTransformation caches one).
type RenderValue struct {
	index uint32
	valid bool
}

// Valid reports whether the handle refers to an actual uploaded value.
func (r RenderValue) Valid() bool { return r.valid }

// Index returns the backend-assigned index. Only meaningful if Valid().
func (r RenderValue) Index() uint32 { return r.index }

// RenderValueUploader creates a backend RenderValue for a Transformation
// (already composed with any post-transform by the caller of the
// uploader). This is the minimal slice of `Backend.CreateTransformValue`
// this package needs, kept as its own function type to avoid importing
// package backend (which itself may depend on higher-level packages).
type RenderValueUploader func(t Transformation) RenderValue

// dirty bits
const (
	dirtyInverse = 1 << iota
	dirtySVD
	dirtyMatrixType
	dirtyRenderValue
)

const allDirty = dirtyInverse | dirtySVD | dirtyMatrixType | dirtyRenderValue

// CachedTransformation is one node of the transformation stack: the
// current Transformation plus lazily computed derived values,
// invalidated by the minimal set of mutating operations that affect
// each.
type CachedTransformation struct {
	current Transformation
	dirty uint32

	inverse Transformation
	inverseOK bool
	s0, s1 float64
	matrixType MatrixType
	renderValue RenderValue
	renderPost Transformation
	renderHasPost bool
}

// New creates a CachedTransformation at the identity transform.
func New() *CachedTransformation {
	return &CachedTransformation{current: Identity(), dirty: allDirty}
}

// Transformation returns the current transform. If t is non-nil the
// transform is replaced wholesale, which invalidates every derived
// value (inverse, SVD, matrix type, cached RenderValue).
func (c *CachedTransformation) Transformation(set *Transformation) Transformation {
	if set != nil {
		c.current = *set
		c.dirty = allDirty
	}
	return c.current
}

// Translate post-composes a translation. Translation does not invalidate
// SVD or matrix-type: the linear part is unchanged.
func (c *CachedTransformation) Translate(dx, dy float64) {
	c.current = c.current.Concat(Transformation{A: 1, E: 1, Tx: dx, Ty: dy})
	c.dirty |= dirtyInverse | dirtyRenderValue
}

// Scale post-composes a scale. Scale invalidates SVD (singular values
// change) but not matrix-type, keeping invalidation minimal per
// operation. A cached identity/translation classification is therefore
// kept as is after a non-unit scale; MatrixType reports the
// scale-translation bucket only once another operation (Rotate, Concat
// or a wholesale set) has invalidated it.
func (c *CachedTransformation) Scale(sx, sy float64) {
	c.current = c.current.Concat(Transformation{A: sx, E: sy})
	c.dirty |= dirtyInverse | dirtySVD | dirtyRenderValue
}

// Rotate post-composes a rotation. Rotate invalidates matrix-type but
// not SVD (singular values are rotation-invariant).
func (c *CachedTransformation) Rotate(radians float64) {
	cs, sn := math.Cos(radians), math.Sin(radians)
	c.current = c.current.Concat(Transformation{A: cs, B: -sn, D: sn, E: cs})
	c.dirty |= dirtyInverse | dirtyMatrixType | dirtyRenderValue
}

// Concat post-composes an arbitrary transform, invalidating everything.
func (c *CachedTransformation) Concat(t Transformation) {
	c.current = c.current.Concat(t)
	c.dirty = allDirty
}

// Inverse returns (and caches) the inverse of the current transform.
func (c *CachedTransformation) Inverse() Transformation {
	if c.dirty&dirtyInverse != 0 {
		c.inverse, c.inverseOK = c.current.Invert()
		c.dirty &^= dirtyInverse
	}
	return c.inverse
}

// SingularValues returns (and caches) the two singular values s0 >= s1
// of the current transform's linear part.
func (c *CachedTransformation) SingularValues() (s0, s1 float64) {
	if c.dirty&dirtySVD != 0 {
		c.s0, c.s1 = c.current.singularValues()
		c.dirty &^= dirtySVD
	}
	return c.s0, c.s1
}

// MatrixType returns (and caches) the matrix-type classification.
func (c *CachedTransformation) MatrixType() MatrixType {
	if c.dirty&dirtyMatrixType != 0 {
		c.matrixType = c.current.matrixType()
		c.dirty &^= dirtyMatrixType
	}
	return c.matrixType
}

// SurfacePixelSizeInLogicalCoordinates computes, for a render surface
// sampled at the given device scale, the size (in this transform's
// logical coordinates) of one surface pixel: 1/scale divided by the
// largest singular value, i.e. how much logical distance one device
// pixel covers along the most-stretched axis.
func (c *CachedTransformation) SurfacePixelSizeInLogicalCoordinates(scale float64) float64 {
	s0, _ := c.SingularValues()
	s0 = math.Max(s0, tiny)
	if scale <= 0 {
		scale = 1
	}
	return 1.0 / (scale * s0)
}

const tiny = 1e-6

// LogicalRenderingAccuracy converts a desired output-space tolerance
// into the logical-space tolerance a filler should flatten curves to:
// outputTol / max(svd[0], tiny).
func (c *CachedTransformation) LogicalRenderingAccuracy(outputTol float64) float64 {
	s0, _ := c.SingularValues()
	return outputTol / math.Max(s0, tiny)
}

// RenderValue returns (and caches) the backend RenderValue for the
// current transform, optionally composed with a post-transformation
// (e.g. a parent buffer's pixel-space remap). Changing postTransform
// forces a fresh upload since the cache only remembers the last
// (transform, post) pair it uploaded for.
func (c *CachedTransformation) RenderValue(upload RenderValueUploader, post *Transformation) RenderValue {
	samePost := (post == nil && !c.renderHasPost) ||
		(post != nil && c.renderHasPost && *post == c.renderPost)
	if c.dirty&dirtyRenderValue == 0 && c.renderValue.Valid() && samePost {
		return c.renderValue
	}
	t := c.current
	if post != nil {
		t = t.Concat(*post)
		c.renderPost = *post
	}
	c.renderHasPost = post != nil
	c.renderValue = upload(t)
	c.dirty &^= dirtyRenderValue
	return c.renderValue
}

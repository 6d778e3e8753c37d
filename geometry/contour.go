// Package geometry models the path-geometry approximation contract that
// the renderer core consumes but never implements itself: the named
// external collaborator `Contour.FillApproximatedGeometry` /
// `Contour.StrokeApproximatedGeometry`.
//
// A reference implementation is provided (PathContour) so the rest of
// the module is testable without a real font/geometry backend, the same
// way a software rasterizer can stand in alongside a GPU backend
// abstraction. It adapts a curve-flattening recursion to emit quadratic
// "conic" segments instead of flattening all the way to line segments,
// since fillers need genuine curve geometry for STC conic-triangle
// stencil passes.
package geometry

import "math"

// Point is a 2D point in the coordinate space the contour was built in.
type Point struct{ X, Y float64 }

// Sub, Add, Mul, Lerp, Dot and Length are the small vector helpers every
// consumer of ContourCurve needs.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Mul(s float64) Point { return Point{p.X * s, p.Y * s} }
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y }
func (p Point) Length() float64 { return math.Sqrt(p.Dot(p)) }
func (p Point) Lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// CurveKind distinguishes line segments from quadratic ("conic", weight
// 1) curves within a flattened ContourCurve stream.
type CurveKind uint8

const (
	CurveLine CurveKind = iota
	CurveQuadratic
)

// ContourCurve is one segment of an approximated contour: either a line
// from P0 to P1, or a quadratic Bezier from P0 through Control to P1.
type ContourCurve struct {
	Kind CurveKind
	P0 Point
	Control Point // unused when Kind == CurveLine
	P1 Point
}

// Bounds returns the tight axis-aligned bounding box of the curve,
// accounting for the control point on quadratics.
func (c ContourCurve) Bounds() (minX, minY, maxX, maxY float64) {
	minX, maxX = minmax(c.P0.X, c.P1.X)
	minY, maxY = minmax(c.P0.Y, c.P1.Y)
	if c.Kind == CurveQuadratic {
		if c.Control.X < minX {
			minX = c.Control.X
		}
		if c.Control.X > maxX {
			maxX = c.Control.X
		}
		if c.Control.Y < minY {
			minY = c.Control.Y
		}
		if c.Control.Y > maxY {
			maxY = c.Control.Y
		}
	}
	return
}

func minmax(a, b float64) (float64, float64) {
	if a < b {
		return a, b
	}
	return b, a
}

// Eval evaluates the curve at parameter t in [0, 1].
func (c ContourCurve) Eval(t float64) Point {
	if c.Kind == CurveLine {
		return c.P0.Lerp(c.P1, t)
	}
	q0 := c.P0.Lerp(c.Control, t)
	q1 := c.Control.Lerp(c.P1, t)
	return q0.Lerp(q1, t)
}

// ApproxKind selects how aggressively curves are reduced. It is a named
// parameter threaded straight through to FillApproximatedGeometry; this
// module only defines two concrete kinds since the font/text rasteriser
// and high-order approximators are external.
type ApproxKind uint8

const (
	// ApproxQuality subdivides cubics until flat to tolerance measured
	// against the resulting quadratic's control-point deviation.
	ApproxQuality ApproxKind = iota
	// ApproxFast uses one subdivision level regardless of tolerance,
	// trading accuracy for throughput on huge paths.
	ApproxFast
)

// Contour is the external geometry contract a filler consumes. A real
// deployment backs this with an existing font/vector geometry engine;
// PathContour below is this module's reference implementation.
type Contour interface {
	// FillApproximatedGeometry returns the contour as a closed loop of
	// line/quadratic curves, accurate to tol in the contour's own
	// coordinate space.
	FillApproximatedGeometry(tol float64, kind ApproxKind) ([]ContourCurve, error)
	// StrokeApproximatedGeometry returns the same contour geometry used
	// for stroking; for PathContour this is identical to the fill
	// geometry since stroking operates on the unstroked centerline.
	StrokeApproximatedGeometry(tol float64) ([]ContourCurve, error)
	// Closed reports whether the contour is a closed loop (affects
	// winding computations and join generation).
	Closed() bool
}

// AnimatedContour pairs a start and end Contour of matching topology so
// a filler can interpolate between them (morphing animation). Consumed,
// never produced, by this module.
type AnimatedContour interface {
	At(t float64) ([]ContourCurve, error)
}

// PathElement mirrors the small closed set of path commands every
// encoder façade builds a path from.
type PathElement interface{ isPathElement() }

type MoveTo struct{ Point Point }
type LineTo struct{ Point Point }
type QuadTo struct{ Control, Point Point }
type CubicTo struct{ Control1, Control2, Point Point }
type CloseOp struct{}

func (MoveTo) isPathElement() {}
func (LineTo) isPathElement() {}
func (QuadTo) isPathElement() {}
func (CubicTo) isPathElement() {}
func (CloseOp) isPathElement() {}

// PathContour is the reference Contour implementation: one subpath's
// worth of path elements, starting with a MoveTo.
type PathContour struct {
	elements []PathElement
	closed bool
}

// SplitPath splits a full path into one PathContour per subpath
// (delimited by MoveTo); a trailing Close marks that subpath closed.
func SplitPath(elements []PathElement) []*PathContour {
	var contours []*PathContour
	var cur *PathContour
	for _, e := range elements {
		switch e.(type) {
		case MoveTo:
			cur = &PathContour{}
			contours = append(contours, cur)
		case CloseOp:
			if cur != nil {
				cur.closed = true
			}
			continue
		}
		if cur != nil {
			cur.elements = append(cur.elements, e)
		}
	}
	return contours
}

func (c *PathContour) Closed() bool { return c.closed }

// FillApproximatedGeometry reduces every CubicTo into quadratics via
// recursive subdivision (de Casteljau) until the cubic's deviation from
// its best-fit quadratic is within tol; QuadTo/LineTo pass through
// unchanged since they need no approximation.
func (c *PathContour) FillApproximatedGeometry(tol float64, kind ApproxKind) ([]ContourCurve, error) {
	if tol <= 0 {
		tol = 0.1
	}
	var out []ContourCurve
	current := Point{}
	if len(c.elements) > 0 {
		if m, ok := c.elements[0].(MoveTo); ok {
			current = m.Point
		}
	}
	maxDepth := 16
	if kind == ApproxFast {
		maxDepth = 1
	}
	for _, e := range c.elements {
		switch el := e.(type) {
		case MoveTo:
			current = el.Point
		case LineTo:
			out = append(out, ContourCurve{Kind: CurveLine, P0: current, P1: el.Point})
			current = el.Point
		case QuadTo:
			out = append(out, ContourCurve{Kind: CurveQuadratic, P0: current, Control: el.Control, P1: el.Point})
			current = el.Point
		case CubicTo:
			out = append(out, subdivideCubic(current, el.Control1, el.Control2, el.Point, tol, maxDepth)...)
			current = el.Point
		}
	}
	return out, nil
}

// StrokeApproximatedGeometry returns the same unstroked centerline
// geometry; a real stroke expander consumes this to build the filled
// stroke outline.
func (c *PathContour) StrokeApproximatedGeometry(tol float64) ([]ContourCurve, error) {
	return c.FillApproximatedGeometry(tol, ApproxQuality)
}

// subdivideCubic approximates a cubic Bezier by one or more quadratics,
// splitting recursively (up to maxDepth) while the midpoint deviation
// between the cubic and its quadratic approximation exceeds tol.
func subdivideCubic(p0, p1, p2, p3 Point, tol float64, maxDepth int) []ContourCurve {
	// Candidate quadratic control point: intersection of the two end
	// tangents, approximated by the classic 3/2 scaling of the cubic's
	// own control polygon midpoint.
	ctrl := p1.Add(p2).Mul(0.75).Sub(p0.Add(p3).Mul(0.25))
	mid := evalCubic(p0, p1, p2, p3, 0.5)
	quadMid := p0.Lerp(ctrl, 0.5).Lerp(ctrl.Lerp(p3, 0.5), 0.5)
	if maxDepth <= 0 || mid.Sub(quadMid).Length() <= tol {
		return []ContourCurve{{Kind: CurveQuadratic, P0: p0, Control: ctrl, P1: p3}}
	}
	// de Casteljau split at t=0.5
	q0 := p0.Lerp(p1, 0.5)
	q1 := p1.Lerp(p2, 0.5)
	q2 := p2.Lerp(p3, 0.5)
	r0 := q0.Lerp(q1, 0.5)
	r1 := q1.Lerp(q2, 0.5)
	s := r0.Lerp(r1, 0.5)
	left := subdivideCubic(p0, q0, r0, s, tol, maxDepth-1)
	right := subdivideCubic(s, r1, q2, p3, tol, maxDepth-1)
	return append(left, right...)
}

func evalCubic(p0, p1, p2, p3 Point, t float64) Point {
	q0 := p0.Lerp(p1, t)
	q1 := p1.Lerp(p2, t)
	q2 := p2.Lerp(p3, t)
	r0 := q0.Lerp(q1, t)
	r1 := q1.Lerp(q2, t)
	return r0.Lerp(r1, t)
}

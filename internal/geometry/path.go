// Package geometry holds the renderer-neutral shapes produced by the form
// generators: paths built from line and cubic segments, and dot collections.
package geometry

import "math"

// Point is a 2D coordinate. Y grows upward, matching page coordinates.
type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(k float64) Point { return Point{p.X * k, p.Y * k} }
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }
func (p Point) Lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	Min, Max Point
}

func (r Rect) Width() float64 { return r.Max.X - r.Min.X }
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }
func (r Rect) Center() Point { return r.Min.Lerp(r.Max, 0.5) }

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Corners returns the four corners counter-clockwise from the lower left.
func (r Rect) Corners() []Point {
	return []Point{
		r.Min,
		{r.Max.X, r.Min.Y},
		r.Max,
		{r.Min.X, r.Max.Y},
	}
}

// SegmentKind identifies a path command.
type SegmentKind uint8

const (
	MoveTo SegmentKind = iota
	LineTo
	CubeTo
	ClosePath
)

// Segment is one path command. C1 and C2 are only meaningful for CubeTo.
type Segment struct {
	Kind   SegmentKind
	C1, C2 Point
	To     Point
}

// Path is a sequence of subpaths built from line and cubic segments.
type Path struct {
	Segments []Segment
}

func (p *Path) MoveTo(pt Point) {
	p.Segments = append(p.Segments, Segment{Kind: MoveTo, To: pt})
}

func (p *Path) LineTo(pt Point) {
	p.Segments = append(p.Segments, Segment{Kind: LineTo, To: pt})
}

func (p *Path) CubeTo(c1, c2, pt Point) {
	p.Segments = append(p.Segments, Segment{Kind: CubeTo, C1: c1, C2: c2, To: pt})
}

func (p *Path) Close() {
	p.Segments = append(p.Segments, Segment{Kind: ClosePath})
}

// Append adds every segment of other to p.
func (p *Path) Append(other Path) {
	p.Segments = append(p.Segments, other.Segments...)
}

// Empty reports whether the path draws nothing.
func (p Path) Empty() bool {
	for _, s := range p.Segments {
		if s.Kind == LineTo || s.Kind == CubeTo {
			return false
		}
	}
	return true
}

// Closed reports whether every subpath ends with a close command.
func (p Path) Closed() bool {
	if len(p.Segments) == 0 {
		return false
	}
	open := false
	for _, s := range p.Segments {
		switch s.Kind {
		case MoveTo:
			if open {
				return false
			}
			open = true
		case ClosePath:
			open = false
		}
	}
	return !open
}

// Vertices returns the on-curve end points of every drawing segment.
func (p Path) Vertices() []Point {
	out := make([]Point, 0, len(p.Segments))
	for _, s := range p.Segments {
		switch s.Kind {
		case MoveTo, LineTo, CubeTo:
			out = append(out, s.To)
		}
	}
	return out
}

// Transform returns a copy with every point mapped through fn.
func (p Path) Transform(fn func(Point) Point) Path {
	out := Path{Segments: make([]Segment, len(p.Segments))}
	for i, s := range p.Segments {
		if s.Kind != ClosePath {
			s.To = fn(s.To)
		}
		if s.Kind == CubeTo {
			s.C1 = fn(s.C1)
			s.C2 = fn(s.C2)
		}
		out.Segments[i] = s
	}
	return out
}

// ScaleAbout scales the path by k around center and then shifts it.
func (p Path) ScaleAbout(center Point, k float64, offset Point) Path {
	return p.Transform(func(pt Point) Point {
		return center.Add(pt.Sub(center).Scale(k)).Add(offset)
	})
}

// Bounds returns the bounding box of the on-curve and control points.
func (p Path) Bounds() Rect {
	first := true
	var r Rect
	grow := func(pt Point) {
		if first {
			r = Rect{Min: pt, Max: pt}
			first = false
			return
		}
		r.Min.X = math.Min(r.Min.X, pt.X)
		r.Min.Y = math.Min(r.Min.Y, pt.Y)
		r.Max.X = math.Max(r.Max.X, pt.X)
		r.Max.Y = math.Max(r.Max.Y, pt.Y)
	}
	for _, s := range p.Segments {
		switch s.Kind {
		case MoveTo, LineTo:
			grow(s.To)
		case CubeTo:
			grow(s.C1)
			grow(s.C2)
			grow(s.To)
		}
	}
	return r
}

// cubicSteps is the number of line pieces used per cubic when flattening.
const cubicSteps = 16

// Flatten approximates every subpath by a polyline. Closed subpaths repeat
// their start point at the end.
func (p Path) Flatten() [][]Point {
	var (
		out     [][]Point
		current []Point
		start   Point
		pen     Point
	)
	flush := func() {
		if len(current) > 1 {
			out = append(out, current)
		}
		current = nil
	}
	for _, s := range p.Segments {
		switch s.Kind {
		case MoveTo:
			flush()
			start, pen = s.To, s.To
			current = []Point{pen}
		case LineTo:
			if current == nil {
				current = []Point{pen}
			}
			current = append(current, s.To)
			pen = s.To
		case CubeTo:
			if current == nil {
				current = []Point{pen}
			}
			for i := 1; i <= cubicSteps; i++ {
				current = append(current, cubicAt(pen, s.C1, s.C2, s.To, float64(i)/cubicSteps))
			}
			pen = s.To
		case ClosePath:
			if current != nil {
				if current[len(current)-1] != start {
					current = append(current, start)
				}
				flush()
			}
			pen = start
		}
	}
	flush()
	return out
}

func cubicAt(p0, c1, c2, p1 Point, t float64) Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return Point{
		X: a*p0.X + b*c1.X + c*c2.X + d*p1.X,
		Y: a*p0.Y + b*c1.Y + c*c2.Y + d*p1.Y,
	}
}

// Contains reports whether pt is inside the path under the non-zero winding
// rule, so overlapping subpaths drawn in the same direction form a union.
func (p Path) Contains(pt Point) bool {
	return p.Region().Contains(pt)
}

// Region is a flattened path prepared for repeated containment tests.
type Region struct {
	polys [][]Point
}

// Region flattens the path once.
func (p Path) Region() Region {
	return Region{polys: p.Flatten()}
}

// Contains applies the non-zero winding rule.
func (r Region) Contains(pt Point) bool {
	winding := 0
	for _, poly := range r.polys {
		n := len(poly)
		for i := 0; i < n; i++ {
			a := poly[i]
			b := poly[(i+1)%n]
			if a.Y <= pt.Y {
				if b.Y > pt.Y && cross(a, b, pt) > 0 {
					winding++
				}
			} else if b.Y <= pt.Y && cross(a, b, pt) < 0 {
				winding--
			}
		}
	}
	return winding != 0
}

func cross(a, b, p Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (p.X-a.X)*(b.Y-a.Y)
}

// Length returns the flattened arc length of all subpaths.
func (p Path) Length() float64 {
	total := 0.0
	for _, poly := range p.Flatten() {
		for i := 1; i < len(poly); i++ {
			total += poly[i-1].Dist(poly[i])
		}
	}
	return total
}

// PointAt returns the point at fraction t in [0,1] of the total arc length.
// ok is false for paths with no length.
func (p Path) PointAt(t float64) (Point, bool) {
	polys := p.Flatten()
	total := 0.0
	for _, poly := range polys {
		for i := 1; i < len(poly); i++ {
			total += poly[i-1].Dist(poly[i])
		}
	}
	if total <= 0 {
		return Point{}, false
	}
	t = math.Mod(t, 1)
	if t < 0 {
		t++
	}
	target := t * total
	for _, poly := range polys {
		for i := 1; i < len(poly); i++ {
			seg := poly[i-1].Dist(poly[i])
			if seg <= 0 {
				continue
			}
			if target <= seg {
				return poly[i-1].Lerp(poly[i], target/seg), true
			}
			target -= seg
		}
	}
	last := polys[len(polys)-1]
	return last[len(last)-1], true
}

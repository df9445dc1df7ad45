package shapes

import (
	"math"
	"math/rand"

	"github.com/tanema/gween/ease"

	"formbreed/internal/geometry"
	"formbreed/internal/params"
)

// gridSpec controls the jittered dot scan of a bounding shape.
type gridSpec struct {
	density  int
	radius   float64
	gradient float64
	jitter   float64
	skip     float64
	cluster  float64
}

func gridSpecFrom(tr traits, size float64) gridSpec {
	return gridSpec{
		density:  max(tr.count(params.DotDensity), 2),
		radius:   size * tr.value(params.DotSize) / 100,
		gradient: tr.value(params.Gradient),
		jitter:   tr.value(params.GridJitter),
		skip:     tr.value(params.SkipChance),
		cluster:  tr.value(params.ClusterChance),
	}
}

// gradientRadius scales base by the distance from center. A positive gradient
// grows dots toward the edge, a negative one toward the center.
func gradientRadius(base, gradient, dist, reach float64) float64 {
	if reach <= 0 || gradient == 0 {
		return base
	}
	t := math.Min(dist/reach, 1)
	if gradient < 0 {
		t = 1 - t
	}
	eased := float64(ease.InOutQuad(float32(t), 0, 1, 1))
	r := base * (1 + math.Abs(gradient)*(2*eased-1))
	return math.Max(r, base*0.15)
}

// dotGrid scan-converts a jittered grid against region. Each cell may be
// skipped or grow a small cluster of half-sized dots around it.
func dotGrid(rng *rand.Rand, region geometry.Region, bounds geometry.Rect, g gridSpec) []geometry.Dot {
	if bounds.Empty() {
		return nil
	}
	side := math.Max(bounds.Width(), bounds.Height())
	step := side / float64(g.density)
	center := bounds.Center()
	reach := side / 2

	var dots []geometry.Dot
	for row := 0; row <= g.density; row++ {
		for col := 0; col <= g.density; col++ {
			pt := geometry.Point{
				X: center.X - side/2 + float64(col)*step + (rng.Float64()*2-1)*g.jitter*step,
				Y: center.Y - side/2 + float64(row)*step + (rng.Float64()*2-1)*g.jitter*step,
			}
			skip := rng.Float64() < g.skip
			spawn := rng.Float64() < g.cluster
			if skip || !region.Contains(pt) {
				continue
			}
			r := gradientRadius(g.radius, g.gradient, pt.Dist(center), reach)
			dots = append(dots, geometry.Dot{X: pt.X, Y: pt.Y, R: r})
			if !spawn {
				continue
			}
			extra := 2 + rng.Intn(3)
			for i := 0; i < extra; i++ {
				a := rng.Float64() * 2 * math.Pi
				d := r * (1.5 + rng.Float64()*1.5)
				q := geometry.Point{X: pt.X + math.Cos(a)*d, Y: pt.Y + math.Sin(a)*d}
				if region.Contains(q) {
					dots = append(dots, geometry.Dot{X: q.X, Y: q.Y, R: r / 2})
				}
			}
		}
	}
	return dots
}

// contourSamples returns count points at even parametric intervals along the
// path. Paths that cannot be sampled fall back to their bounding-box corners.
func contourSamples(path geometry.Path, count int) []geometry.Point {
	if count <= 0 {
		return nil
	}
	out := make([]geometry.Point, 0, count)
	for i := 0; i < count; i++ {
		pt, ok := path.PointAt(float64(i) / float64(count))
		if !ok {
			return cornerFallback(path, count)
		}
		out = append(out, pt)
	}
	return out
}

func cornerFallback(path geometry.Path, count int) []geometry.Point {
	corners := path.Bounds().Corners()
	if count < len(corners) {
		corners = corners[:count]
	}
	return corners
}

type accentPattern uint8

const (
	accentPerimeter accentPattern = iota
	accentRadial
	accentVertex
	accentScattered
	accentClustered
	accentPatternCount
)

var accentPatternNames = [...]string{
	accentPerimeter: "perimeter",
	accentRadial:    "radial",
	accentVertex:    "vertex",
	accentScattered: "scattered",
	accentClustered: "clustered",
}

func (p accentPattern) String() string { return accentPatternNames[p] }

// accentPositions distributes count accent nodes over the base outline.
func accentPositions(rng *rand.Rand, pattern accentPattern, base geometry.Path, region geometry.Region, center geometry.Point, count int) []geometry.Point {
	if count <= 0 {
		return nil
	}
	b := base.Bounds()
	reach := math.Min(b.Width(), b.Height()) / 2
	switch pattern {
	case accentRadial:
		pts := make([]geometry.Point, 0, count)
		phase := rng.Float64() * 2 * math.Pi
		for i := 0; i < count; i++ {
			a := phase + 2*math.Pi*float64(i)/float64(count)
			d := reach * (0.35 + 0.45*float64(i%2))
			pts = append(pts, geometry.Point{X: center.X + math.Cos(a)*d, Y: center.Y + math.Sin(a)*d})
		}
		return pts
	case accentVertex:
		verts := base.Vertices()
		if len(verts) == 0 {
			return cornerFallback(base, count)
		}
		pts := make([]geometry.Point, 0, count)
		stride := math.Max(1, float64(len(verts))/float64(count))
		for i := 0; i < count; i++ {
			pts = append(pts, verts[int(float64(i)*stride)%len(verts)])
		}
		return pts
	case accentScattered:
		return scatter(rng, region, b, center, count)
	case accentClustered:
		anchor := center.Add(geometry.Point{
			X: (rng.Float64()*2 - 1) * reach * 0.4,
			Y: (rng.Float64()*2 - 1) * reach * 0.4,
		})
		half := reach * 0.35
		area := geometry.Rect{
			Min: geometry.Point{X: anchor.X - half, Y: anchor.Y - half},
			Max: geometry.Point{X: anchor.X + half, Y: anchor.Y + half},
		}
		fallback := center
		if region.Contains(anchor) {
			fallback = anchor
		}
		return scatter(rng, region, area, fallback, count)
	default:
		return contourSamples(base, count)
	}
}

// scatter draws count points inside area that also fall inside region,
// placing any point that never lands on fallback.
func scatter(rng *rand.Rand, region geometry.Region, area geometry.Rect, fallback geometry.Point, count int) []geometry.Point {
	const attempts = 24
	pts := make([]geometry.Point, 0, count)
	for i := 0; i < count; i++ {
		pt := fallback
		for a := 0; a < attempts; a++ {
			q := geometry.Point{
				X: area.Min.X + rng.Float64()*area.Width(),
				Y: area.Min.Y + rng.Float64()*area.Height(),
			}
			if region.Contains(q) {
				pt = q
				break
			}
		}
		pts = append(pts, pt)
	}
	return pts
}

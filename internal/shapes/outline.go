package shapes

import (
	"math"
	"math/rand"

	"formbreed/internal/geometry"
	"formbreed/internal/params"
)

// kappa places cubic handles so four segments approximate an ellipse.
const kappa = 0.5522847498

// selectorEpsilon keeps a selector value of exactly 1 inside the last bucket.
const selectorEpsilon = 1e-3

// choose discretizes a normalized selector into [0, count).
func choose(norm float64, count int) int {
	if count <= 1 {
		return 0
	}
	idx := int(params.Clamp01(norm) * (float64(count) - selectorEpsilon))
	if idx >= count {
		idx = count - 1
	}
	return idx
}

type shapeType uint8

const (
	shapeCircle shapeType = iota
	shapePill
	shapeRoundedRect
	shapeBlob
	shapeClover
	shapeTwoCircle
	shapeTypeCount
)

// axes returns half-width and half-height for a size and aspect ratio so the
// shape always fits the size square.
func axes(size, aspect float64) (rx, ry float64) {
	half := size / 2
	if aspect <= 0 {
		aspect = 1
	}
	if aspect >= 1 {
		return half, half / aspect
	}
	return half * aspect, half
}

// blobSpec drives the peak/valley outline shared by the organic, clover,
// outline and layered forms.
type blobSpec struct {
	lobes       int
	rx, ry      float64
	valleyDepth float64
	asymmetry   float64
	wobble      float64
	handle      float64
	envelope    float64
}

func blobSpecFrom(tr traits, size float64) blobSpec {
	rx, ry := axes(size, tr.value(params.Aspect))
	return blobSpec{
		lobes:       tr.count(params.LobeCount),
		rx:          rx,
		ry:          ry,
		valleyDepth: tr.value(params.ValleyDepth),
		asymmetry:   tr.value(params.Asymmetry),
		wobble:      tr.value(params.Wobble),
		handle:      tr.value(params.Tension) * tr.value(params.Roundness),
	}
}

// blobPoints places 2*lobes points alternating peak and valley radius.
// Per-lobe radius, depth and angle jitter scale with asymmetry, a final
// multiplicative wobble applies to every point, and a positive envelope
// lifts the upper half.
func blobPoints(rng *rand.Rand, center geometry.Point, s blobSpec) []geometry.Point {
	n := s.lobes
	if n < 2 {
		n = 2
	}
	radius := make([]float64, n)
	depth := make([]float64, n)
	offset := make([]float64, n)
	for k := 0; k < n; k++ {
		radius[k] = 1 + (rng.Float64()*2-1)*0.25*s.asymmetry
		depth[k] = (rng.Float64()*2 - 1) * 0.5 * s.asymmetry
		offset[k] = (rng.Float64()*2 - 1) * (math.Pi / float64(n)) * 0.35 * s.asymmetry
	}

	rx, ry := s.rx, s.ry
	if s.envelope > 0 {
		rx /= 1 + s.envelope/2
		ry /= 1 + s.envelope/2
	}

	pts := make([]geometry.Point, 0, 2*n)
	for i := 0; i < 2*n; i++ {
		k := i / 2
		theta := math.Pi/2 + 2*math.Pi*float64(i)/float64(2*n) + offset[k]
		var r float64
		if i%2 == 0 {
			r = radius[k]
		} else {
			r = (1 - s.valleyDepth*(1+depth[k])) * (radius[k] + radius[(k+1)%n]) / 2
		}
		if r < 0.05 {
			r = 0.05
		}
		if s.envelope > 0 {
			if lift := math.Sin(theta); lift > 0 {
				r *= 1 + s.envelope*lift
			}
		}
		r *= 1 + (rng.Float64()*2-1)*s.wobble
		pts = append(pts, geometry.Point{
			X: center.X + math.Cos(theta)*rx*r,
			Y: center.Y + math.Sin(theta)*ry*r,
		})
	}
	return pts
}

// smoothClosed joins points with cubic segments whose handles follow a
// Catmull-Rom tangent scaled by handle.
func smoothClosed(pts []geometry.Point, handle float64) geometry.Path {
	var p geometry.Path
	n := len(pts)
	if n == 0 {
		return p
	}
	p.MoveTo(pts[0])
	for i := 0; i < n; i++ {
		p0 := pts[(i-1+n)%n]
		p1 := pts[i]
		p2 := pts[(i+1)%n]
		p3 := pts[(i+2)%n]
		c1 := p1.Add(p2.Sub(p0).Scale(handle / 3))
		c2 := p2.Sub(p3.Sub(p1).Scale(handle / 3))
		p.CubeTo(c1, c2, p2)
	}
	p.Close()
	return p
}

func blobPath(rng *rand.Rand, center geometry.Point, s blobSpec) geometry.Path {
	return smoothClosed(blobPoints(rng, center, s), s.handle)
}

func ellipsePath(c geometry.Point, rx, ry float64) geometry.Path {
	var p geometry.Path
	kx, ky := rx*kappa, ry*kappa
	p.MoveTo(geometry.Point{X: c.X + rx, Y: c.Y})
	p.CubeTo(geometry.Point{X: c.X + rx, Y: c.Y + ky}, geometry.Point{X: c.X + kx, Y: c.Y + ry}, geometry.Point{X: c.X, Y: c.Y + ry})
	p.CubeTo(geometry.Point{X: c.X - kx, Y: c.Y + ry}, geometry.Point{X: c.X - rx, Y: c.Y + ky}, geometry.Point{X: c.X - rx, Y: c.Y})
	p.CubeTo(geometry.Point{X: c.X - rx, Y: c.Y - ky}, geometry.Point{X: c.X - kx, Y: c.Y - ry}, geometry.Point{X: c.X, Y: c.Y - ry})
	p.CubeTo(geometry.Point{X: c.X + kx, Y: c.Y - ry}, geometry.Point{X: c.X + rx, Y: c.Y - ky}, geometry.Point{X: c.X + rx, Y: c.Y})
	p.Close()
	return p
}

// roundedRectPath traces a w x h rectangle counter-clockwise with corner
// radius r.
func roundedRectPath(c geometry.Point, w, h, r float64) geometry.Path {
	r = math.Max(0, math.Min(r, math.Min(w, h)/2))
	x0, y0 := c.X-w/2, c.Y-h/2
	x1, y1 := c.X+w/2, c.Y+h/2
	k := r * kappa

	var p geometry.Path
	p.MoveTo(geometry.Point{X: x0 + r, Y: y0})
	p.LineTo(geometry.Point{X: x1 - r, Y: y0})
	if r > 0 {
		p.CubeTo(geometry.Point{X: x1 - r + k, Y: y0}, geometry.Point{X: x1, Y: y0 + r - k}, geometry.Point{X: x1, Y: y0 + r})
	}
	p.LineTo(geometry.Point{X: x1, Y: y1 - r})
	if r > 0 {
		p.CubeTo(geometry.Point{X: x1, Y: y1 - r + k}, geometry.Point{X: x1 - r + k, Y: y1}, geometry.Point{X: x1 - r, Y: y1})
	}
	p.LineTo(geometry.Point{X: x0 + r, Y: y1})
	if r > 0 {
		p.CubeTo(geometry.Point{X: x0 + r - k, Y: y1}, geometry.Point{X: x0, Y: y1 - r + k}, geometry.Point{X: x0, Y: y1 - r})
	}
	p.LineTo(geometry.Point{X: x0, Y: y0 + r})
	if r > 0 {
		p.CubeTo(geometry.Point{X: x0, Y: y0 + r - k}, geometry.Point{X: x0 + r - k, Y: y0}, geometry.Point{X: x0 + r, Y: y0})
	}
	p.Close()
	return p
}

// shapeOutline builds the bounding shape picked by the shape_type trait.
func shapeOutline(rng *rand.Rand, tr traits, center geometry.Point, size float64) geometry.Path {
	kind := shapeType(choose(tr.norm(params.ShapeType), int(shapeTypeCount)))
	rx, ry := axes(size, tr.value(params.Aspect))
	switch kind {
	case shapeCircle:
		return ellipsePath(center, rx, ry)
	case shapePill:
		w, h := 2*rx, 2*ry*0.55
		if ry > rx {
			w, h = 2*rx*0.55, 2*ry
		}
		return roundedRectPath(center, w, h, math.Min(w, h)/2)
	case shapeRoundedRect:
		w, h := 2*rx*0.9, 2*ry*0.9
		return roundedRectPath(center, w, h, math.Min(w, h)/2*tr.value(params.Roundness))
	case shapeClover:
		s := blobSpecFrom(tr, size)
		s.valleyDepth = 0.45 + 0.4*tr.norm(params.ValleyDepth)
		s.asymmetry /= 2
		s.handle = math.Max(s.handle, 0.6)
		return blobPath(rng, center, s)
	case shapeTwoCircle:
		r := math.Min(rx, ry) * 0.62
		var p geometry.Path
		if rx >= ry {
			d := math.Max(rx-r, r*0.4)
			p = ellipsePath(geometry.Point{X: center.X - d, Y: center.Y}, r, r)
			p.Append(ellipsePath(geometry.Point{X: center.X + d, Y: center.Y}, r, r))
		} else {
			d := math.Max(ry-r, r*0.4)
			p = ellipsePath(geometry.Point{X: center.X, Y: center.Y - d}, r, r)
			p.Append(ellipsePath(geometry.Point{X: center.X, Y: center.Y + d}, r, r))
		}
		return p
	default:
		return blobPath(rng, center, blobSpecFrom(tr, size))
	}
}

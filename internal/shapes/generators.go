package shapes

import (
	"math"
	"math/rand"

	"formbreed/internal/geometry"
	"formbreed/internal/params"
)

// softBlob is the organic generator: a filled lobed outline with the
// envelope trait lifting its upper half.
func softBlob(rng *rand.Rand, tr traits, center geometry.Point, size float64) geometry.Form {
	s := blobSpecFrom(tr, size)
	s.envelope = tr.value(params.Envelope)
	return &geometry.Outline{
		Path:   blobPath(rng, center, s),
		Paint:  geometry.Fill,
		Weight: tr.value(params.StrokeWeight),
		Role:   geometry.RoleBody,
	}
}

// layered composes shadow, body, outline, interior dots and contour accents
// around one base shape.
func layered(rng *rand.Rand, tr traits, center geometry.Point, size float64) geometry.Form {
	// Leave room for the scaled and offset shadow.
	scale := tr.value(params.ShadowScale)
	shift := tr.value(params.ShadowOffset)
	offset := shift * size
	inner := size / (scale + 2*shift)

	base := shapeOutline(rng, tr, center, inner)
	region := base.Region()
	weight := tr.value(params.StrokeWeight)

	shadow := base.ScaleAbout(center, scale, geometry.Point{X: offset, Y: -offset})
	dots := dotGrid(rng, region, base.Bounds(), gridSpecFrom(tr, inner))

	accentR := size * tr.value(params.AccentSize) / 100
	var accents []geometry.Dot
	for _, pt := range contourSamples(base, tr.count(params.AccentCount)) {
		accents = append(accents, geometry.Dot{X: pt.X, Y: pt.Y, R: accentR})
	}

	return &geometry.Layered{Passes: []geometry.Pass{
		&geometry.PathPass{Name: "shadow", Role: geometry.RoleShadow, Path: shadow, Paint: geometry.Fill},
		&geometry.PathPass{Name: "body", Role: geometry.RoleBody, Path: base, Paint: geometry.Fill},
		&geometry.DotPass{Name: "dots", Role: geometry.RoleDots, Dots: dots},
		&geometry.PathPass{Name: "outline", Role: geometry.RoleLine, Path: base, Paint: geometry.Stroke, Weight: weight},
		&geometry.DotPass{Name: "accents", Role: geometry.RoleAccent, Dots: accents},
	}}
}

// gapThreshold is the smallest outline_gap that opens the outline.
const gapThreshold = 0.01

// outline strokes the lobed shape without fill. A non-trivial gap trait
// leaves the contour open as a smoothed polyline.
func outline(rng *rand.Rand, tr traits, center geometry.Point, size float64) geometry.Form {
	s := blobSpecFrom(tr, size)
	pts := blobPoints(rng, center, s)
	gap := tr.value(params.OutlineGap)
	out := &geometry.Outline{
		Paint:  geometry.Stroke,
		Weight: tr.value(params.StrokeWeight),
		Role:   geometry.RoleLine,
	}
	if gap <= gapThreshold {
		out.Path = smoothClosed(pts, s.handle)
		return out
	}

	closed := smoothClosed(pts, s.handle)
	polys := closed.Flatten()
	if len(polys) == 0 {
		out.Path = closed
		return out
	}
	poly := polys[0]
	keep := int(math.Round(float64(len(poly)) * (1 - gap)))
	if keep < 2 {
		keep = 2
	}
	start := rng.Intn(len(poly))
	var p geometry.Path
	p.MoveTo(poly[start])
	for i := 1; i < keep; i++ {
		p.LineTo(poly[(start+i)%len(poly)])
	}
	out.Path = p
	return out
}

// dotField fills the shape picked by shape_type with a jittered dot grid.
func dotField(rng *rand.Rand, tr traits, center geometry.Point, size float64) geometry.Form {
	base := shapeOutline(rng, tr, center, size)
	dots := dotGrid(rng, base.Region(), base.Bounds(), gridSpecFrom(tr, size))
	if len(dots) == 0 {
		r := size * tr.value(params.DotSize) / 100
		dots = append(dots, geometry.Dot{X: center.X, Y: center.Y, R: r})
	}
	return &geometry.Layered{Passes: []geometry.Pass{
		&geometry.DotPass{Name: "dots", Role: geometry.RoleDots, Dots: dots},
	}}
}

// minAccentNodes keeps the accent-node field readable for low accent counts.
const minAccentNodes = 3

// accentNodes draws a faint guide of the base shape with a small set of
// nodes distributed by the accent_pattern trait. Radial layouts add spokes.
func accentNodes(rng *rand.Rand, tr traits, center geometry.Point, size float64) geometry.Form {
	base := shapeOutline(rng, tr, center, size*0.9)
	region := base.Region()
	pattern := accentPattern(choose(tr.norm(params.AccentPattern), int(accentPatternCount)))
	count := max(tr.count(params.AccentCount), minAccentNodes)
	radius := size * tr.value(params.AccentSize) / 100
	weight := tr.value(params.StrokeWeight)

	passes := []geometry.Pass{
		&geometry.PathPass{Name: "guide", Role: geometry.RoleLine, Path: base, Paint: geometry.Stroke, Weight: weight * 0.5},
	}

	pts := accentPositions(rng, pattern, base, region, center, count)
	if pattern == accentRadial {
		var spokes geometry.Path
		for _, pt := range pts {
			spokes.MoveTo(center)
			spokes.LineTo(pt)
		}
		passes = append(passes, &geometry.PathPass{Name: "spokes", Role: geometry.RoleLine, Path: spokes, Paint: geometry.Stroke, Weight: weight * 0.5})
	}

	nodes := make([]geometry.Dot, 0, len(pts))
	for i, pt := range pts {
		// Alternate node sizes so neighbours read as distinct.
		r := radius
		if i%2 == 1 {
			r *= 0.7
		}
		nodes = append(nodes, geometry.Dot{X: pt.X, Y: pt.Y, R: r})
	}
	passes = append(passes, &geometry.DotPass{Name: "nodes:" + pattern.String(), Role: geometry.RoleAccent, Dots: nodes})
	return &geometry.Layered{Passes: passes}
}

package geometry

// Paint is the fill/stroke intent of a path.
type Paint uint8

const (
	Fill Paint = 1 << iota
	Stroke
)

func (p Paint) Fills() bool { return p&Fill != 0 }
func (p Paint) Strokes() bool { return p&Stroke != 0 }

// Role tells the renderer which style entry a pass is drawn with.
// Generators never pick colors.
type Role string

const (
	RoleBody   Role = "body"
	RoleShadow Role = "shadow"
	RoleLine   Role = "line"
	RoleDots   Role = "dots"
	RoleAccent Role = "accent"
)

// Form is the output of a shape generator: either an *Outline or a
// *Layered bundle of passes.
type Form interface {
	isForm()
}

// Outline is a single path with its paint intent.
type Outline struct {
	Path   Path
	Paint  Paint
	Weight float64
	Role   Role
}

// Layered is an ordered list of drawing passes, painted back to front.
type Layered struct {
	Passes []Pass
}

func (*Outline) isForm() {}
func (*Layered) isForm() {}

// Pass is one named drawing pass of a Layered form: *PathPass or *DotPass.
type Pass interface {
	PassName() string
	PassRole() Role
}

// PathPass draws a path with fill and/or stroke.
type PathPass struct {
	Name   string
	Role   Role
	Path   Path
	Paint  Paint
	Weight float64
}

// Dot is a filled circle.
type Dot struct {
	X, Y, R float64
}

// DotPass draws a collection of filled dots.
type DotPass struct {
	Name string
	Role Role
	Dots []Dot
}

func (p *PathPass) PassName() string { return p.Name }
func (p *PathPass) PassRole() Role { return p.Role }
func (p *DotPass) PassName() string { return p.Name }
func (p *DotPass) PassRole() Role { return p.Role }

// Bounds returns the extent of everything a form draws.
func Bounds(f Form) Rect {
	var (
		r     Rect
		first = true
	)
	merge := func(o Rect) {
		if first {
			r, first = o, false
			return
		}
		r.Min.X = min(r.Min.X, o.Min.X)
		r.Min.Y = min(r.Min.Y, o.Min.Y)
		r.Max.X = max(r.Max.X, o.Max.X)
		r.Max.Y = max(r.Max.Y, o.Max.Y)
	}
	switch f := f.(type) {
	case *Outline:
		if !f.Path.Empty() {
			merge(f.Path.Bounds())
		}
	case *Layered:
		for _, pass := range f.Passes {
			switch p := pass.(type) {
			case *PathPass:
				if !p.Path.Empty() {
					merge(p.Path.Bounds())
				}
			case *DotPass:
				for _, d := range p.Dots {
					merge(Rect{Min: Point{d.X - d.R, d.Y - d.R}, Max: Point{d.X + d.R, d.Y + d.R}})
				}
			}
		}
	}
	return r
}

// Package render draws generator output to PNG, SVG or PDF through the gonum
// vg canvases. It only sees geometry; genomes stay on the caller's side.
package render

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"

	"formbreed/internal/geometry"
)

// FormFunc builds the form to draw inside a cell of the given center and size.
type FormFunc func(center geometry.Point, size float64) (geometry.Form, error)

// Cell is one labelled contact-sheet entry.
type Cell struct {
	Index int
	Label string
	Form  FormFunc
}

// Renderer is the drawing capability consumed by the studio.
type Renderer interface {
	Format() string
	RenderCandidate(w io.Writer, form FormFunc) error
	RenderSheet(w io.Writer, cells []Cell) error
}

// Options controls layout.
type Options struct {
	Format    string
	Columns   int
	CellSize  float64
	Margin    float64
	LabelSize float64
}

// VGRenderer implements Renderer on gonum vg canvases.
type VGRenderer struct {
	opts    Options
	palette Palette
	face    font.Face
}

// formFill is the share of a cell a form is generated to occupy.
const formFill = 0.82

var labelFont = font.Font{Typeface: plot.DefaultFont.Typeface, Variant: "Sans"}

func NewVGRenderer(opts Options, palette Palette) (*VGRenderer, error) {
	switch opts.Format {
	case "png", "svg", "pdf":
	default:
		return nil, fmt.Errorf("unsupported render format: %q", opts.Format)
	}
	if opts.Columns <= 0 {
		opts.Columns = 4
	}
	if opts.CellSize <= 0 {
		opts.CellSize = 240
	}
	if opts.Margin < 0 {
		opts.Margin = 0
	}
	if opts.LabelSize <= 0 {
		opts.LabelSize = 12
	}
	return &VGRenderer{
		opts:    opts,
		palette: palette,
		face:    font.DefaultCache.Lookup(labelFont, vg.Points(opts.LabelSize)),
	}, nil
}

func (r *VGRenderer) Format() string {
	return r.opts.Format
}

// RenderCandidate draws one form on a square canvas of CellSize.
func (r *VGRenderer) RenderCandidate(w io.Writer, build FormFunc) error {
	side := r.opts.CellSize
	c, err := newCanvas(r.opts.Format, side, side)
	if err != nil {
		return err
	}
	r.background(c, side, side)
	form, err := build(geometry.Point{X: side / 2, Y: side / 2}, side*formFill)
	if err != nil {
		return err
	}
	r.drawForm(c, form)
	_, err = c.WriteTo(w)
	return err
}

// SheetSize returns the canvas size for n cells.
func (r *VGRenderer) SheetSize(n int) (width, height float64) {
	cols := min(r.opts.Columns, max(n, 1))
	rows := int(math.Ceil(float64(max(n, 1)) / float64(cols)))
	width = float64(cols)*r.opts.CellSize + float64(cols+1)*r.opts.Margin
	height = float64(rows)*r.cellHeight() + float64(rows+1)*r.opts.Margin
	return width, height
}

// cellHeight is the drawing square plus the label band.
func (r *VGRenderer) cellHeight() float64 {
	return r.opts.CellSize + r.opts.LabelSize*1.8
}

// CellCenter returns the form center of the i-th (0-based) cell on a sheet
// of height h. Rows run top to bottom.
func (r *VGRenderer) CellCenter(i int, h float64) geometry.Point {
	col := i % r.opts.Columns
	row := i / r.opts.Columns
	left := r.opts.Margin + float64(col)*(r.opts.CellSize+r.opts.Margin)
	top := h - r.opts.Margin - float64(row)*(r.cellHeight()+r.opts.Margin)
	return geometry.Point{X: left + r.opts.CellSize/2, Y: top - r.opts.CellSize/2}
}

// RenderSheet draws every cell in a grid with its label under the form.
func (r *VGRenderer) RenderSheet(w io.Writer, cells []Cell) error {
	width, height := r.SheetSize(len(cells))
	c, err := newCanvas(r.opts.Format, width, height)
	if err != nil {
		return err
	}
	r.background(c, width, height)
	for i, cell := range cells {
		center := r.CellCenter(i, height)
		form, err := cell.Form(center, r.opts.CellSize*formFill)
		if err != nil {
			return fmt.Errorf("cell %d: %w", cell.Index, err)
		}
		r.drawForm(c, form)

		label := cell.Label
		if label == "" {
			label = strconv.Itoa(cell.Index)
		}
		c.SetColor(r.palette.Label)
		base := vg.Point{
			X: vg.Length(center.X) - r.face.Width(label)/2,
			Y: vg.Length(center.Y - r.opts.CellSize/2 - r.opts.LabelSize*1.2),
		}
		c.FillString(r.face, base, label)
	}
	_, err = c.WriteTo(w)
	return err
}

func newCanvas(format string, w, h float64) (vg.CanvasWriterTo, error) {
	width, height := vg.Length(w), vg.Length(h)
	switch format {
	case "png":
		return vgimg.PngCanvas{Canvas: vgimg.New(width, height)}, nil
	case "svg":
		return vgsvg.New(width, height), nil
	case "pdf":
		return vgpdf.New(width, height), nil
	default:
		return nil, fmt.Errorf("unsupported render format: %q", format)
	}
}

func (r *VGRenderer) background(c vg.Canvas, w, h float64) {
	var p vg.Path
	p.Move(vg.Point{})
	p.Line(vg.Point{X: vg.Length(w)})
	p.Line(vg.Point{X: vg.Length(w), Y: vg.Length(h)})
	p.Line(vg.Point{Y: vg.Length(h)})
	p.Close()
	c.SetColor(r.palette.Background)
	c.Fill(p)
}

// drawForm dispatches on the form variant and paints passes back to front.
func (r *VGRenderer) drawForm(c vg.Canvas, form geometry.Form) {
	switch f := form.(type) {
	case *geometry.Outline:
		r.drawPath(c, f.Path, f.Paint, f.Weight, f.Role)
	case *geometry.Layered:
		for _, pass := range f.Passes {
			switch p := pass.(type) {
			case *geometry.PathPass:
				r.drawPath(c, p.Path, p.Paint, p.Weight, p.Role)
			case *geometry.DotPass:
				r.drawDots(c, p.Dots, p.Role)
			}
		}
	}
}

func (r *VGRenderer) drawPath(c vg.Canvas, path geometry.Path, paint geometry.Paint, weight float64, role geometry.Role) {
	if path.Empty() {
		return
	}
	p := toVGPath(path)
	if paint.Fills() {
		c.SetColor(r.palette.Color(role))
		c.Fill(p)
	}
	if paint.Strokes() {
		if weight <= 0 {
			weight = 1
		}
		c.SetLineWidth(vg.Length(weight * r.palette.LineScale))
		c.SetColor(r.palette.Color(role))
		c.Stroke(p)
	}
}

func (r *VGRenderer) drawDots(c vg.Canvas, dots []geometry.Dot, role geometry.Role) {
	if len(dots) == 0 {
		return
	}
	var p vg.Path
	for _, d := range dots {
		if d.R <= 0 {
			continue
		}
		center := vg.Point{X: vg.Length(d.X), Y: vg.Length(d.Y)}
		p.Move(vg.Point{X: center.X + vg.Length(d.R), Y: center.Y})
		p.Arc(center, vg.Length(d.R), 0, 2*math.Pi)
		p.Close()
	}
	c.SetColor(r.palette.Color(role))
	c.Fill(p)
}

func toVGPath(path geometry.Path) vg.Path {
	pt := func(q geometry.Point) vg.Point {
		return vg.Point{X: vg.Length(q.X), Y: vg.Length(q.Y)}
	}
	var p vg.Path
	for _, s := range path.Segments {
		switch s.Kind {
		case geometry.MoveTo:
			p.Move(pt(s.To))
		case geometry.LineTo:
			p.Line(pt(s.To))
		case geometry.CubeTo:
			p.CubeTo(pt(s.C1), pt(s.C2), pt(s.To))
		case geometry.ClosePath:
			p.Close()
		}
	}
	return p
}

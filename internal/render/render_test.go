package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"formbreed/internal/config"
	"formbreed/internal/genotype"
	"formbreed/internal/geometry"
	"formbreed/internal/params"
	"formbreed/internal/shapes"
)

func newTestRenderer(t *testing.T, format string) *VGRenderer {
	t.Helper()
	cfg := config.Default()
	palette, err := PaletteFrom(cfg.Style)
	if err != nil {
		t.Fatalf("palette: %v", err)
	}
	r, err := NewVGRenderer(Options{Format: format, Columns: 3, CellSize: 120, Margin: 8, LabelSize: 10}, palette)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func testCells(t *testing.T) []Cell {
	t.Helper()
	table := params.Defaults()
	var cells []Cell
	for i, kind := range shapes.Kinds() {
		g := genotype.NewDefaultGenome(0, i+1, kind.String(), table, int64(i+1))
		cells = append(cells, Cell{
			Index: i + 1,
			Form: func(center geometry.Point, size float64) (geometry.Form, error) {
				return shapes.Generate(g, center, size, table)
			},
		})
	}
	return cells
}

func TestRenderSheetFormats(t *testing.T) {
	signatures := map[string]string{
		"png": "\x89PNG",
		"svg": "<?xml",
		"pdf": "%PDF",
	}
	for format, sig := range signatures {
		t.Run(format, func(t *testing.T) {
			r := newTestRenderer(t, format)
			var buf bytes.Buffer
			if err := r.RenderSheet(&buf, testCells(t)); err != nil {
				t.Fatalf("render sheet: %v", err)
			}
			if !strings.HasPrefix(buf.String(), sig) {
				t.Fatalf("%s output starts with %q", format, buf.String()[:min(buf.Len(), 8)])
			}
		})
	}
}

func TestRenderCandidate(t *testing.T) {
	r := newTestRenderer(t, "svg")
	cells := testCells(t)
	var buf bytes.Buffer
	if err := r.RenderCandidate(&buf, cells[1].Form); err != nil {
		t.Fatalf("render candidate: %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Fatal("expected svg document")
	}
}

func TestRenderSheetPropagatesFormError(t *testing.T) {
	r := newTestRenderer(t, "png")
	boom := errors.New("boom")
	cells := []Cell{{Index: 7, Form: func(geometry.Point, float64) (geometry.Form, error) { return nil, boom }}}
	err := r.RenderSheet(&bytes.Buffer{}, cells)
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "cell 7") {
		t.Fatalf("expected wrapped cell error, got %v", err)
	}
}

func TestSheetLayout(t *testing.T) {
	r := newTestRenderer(t, "png")
	w, h := r.SheetSize(7)
	if w != 3*120+4*8 {
		t.Fatalf("sheet width = %f", w)
	}
	if h != 3*r.cellHeight()+4*8 {
		t.Fatalf("sheet height = %f", h)
	}
	first := r.CellCenter(0, h)
	fourth := r.CellCenter(3, h)
	if first.X != fourth.X || fourth.Y >= first.Y {
		t.Fatalf("row two should sit below row one: %+v %+v", first, fourth)
	}
	if first.Y+60 > h {
		t.Fatalf("first cell overflows the top: %+v", first)
	}
}

func TestNewVGRendererRejectsFormat(t *testing.T) {
	if _, err := NewVGRenderer(Options{Format: "gif"}, Palette{}); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestPaletteFromRejectsBadColor(t *testing.T) {
	style := config.Default().Style
	style.Dots = "#zzz"
	if _, err := PaletteFrom(style); err == nil || !strings.Contains(err.Error(), "dots") {
		t.Fatalf("expected dots color error, got %v", err)
	}
}

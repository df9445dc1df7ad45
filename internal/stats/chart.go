package stats

import (
	"fmt"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"formbreed/internal/model"
)

// WriteDiversityChart plots diversity and winner count per generation. The
// image format follows the path extension (png, svg or pdf).
func WriteDiversityChart(path string, rows []model.GenerationStatus) error {
	if len(rows) == 0 {
		return fmt.Errorf("no generations to chart")
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png", ".svg", ".pdf":
	default:
		return fmt.Errorf("unsupported chart format: %q", ext)
	}

	p := plot.New()
	p.Title.Text = "Population diversity"
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Mean pairwise distance"

	diversity := make(plotter.XYs, len(rows))
	share := make(plotter.XYs, len(rows))
	for i, row := range rows {
		diversity[i].X = float64(row.Generation)
		diversity[i].Y = row.Diversity
		share[i].X = float64(row.Generation)
		if row.PopulationSize > 0 {
			share[i].Y = float64(len(row.WinnerIndices)) / float64(row.PopulationSize)
		}
	}

	divLine, divPoints, err := plotter.NewLinePoints(diversity)
	if err != nil {
		return err
	}
	shareLine, err := plotter.NewLine(share)
	if err != nil {
		return err
	}
	shareLine.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}

	p.Add(plotter.NewGrid(), divLine, divPoints, shareLine)
	p.Legend.Add("diversity", divLine, divPoints)
	p.Legend.Add("winner share", shareLine)
	p.Legend.Top = true

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}

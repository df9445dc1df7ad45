package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"formbreed/internal/evo"
	"formbreed/internal/model"
)

// BuildStatus summarizes one generation. winners may be nil when no
// selection has been recorded yet.
func BuildStatus(generation int, population []model.Genome, winners *model.Winners, contactSheet bool) model.GenerationStatus {
	status := model.GenerationStatus{
		Generation:     generation,
		PopulationSize: len(population),
		Diversity:      evo.CalculateDiversity(population),
		ContactSheet:   contactSheet,
	}
	if winners != nil {
		status.WinnerIndices = append([]int(nil), winners.WinnerIndices...)
	}
	status.Winners = joinInts(status.WinnerIndices, " ")
	return status
}

// Summary aggregates status rows across generations.
type Summary struct {
	Generations      int     `json:"generations"`
	LatestGeneration int     `json:"latest_generation"`
	Candidates       int     `json:"candidates"`
	Selected         int     `json:"selected"`
	MeanDiversity    float64 `json:"mean_diversity"`
	StdDiversity     float64 `json:"std_diversity"`
	MinDiversity     float64 `json:"min_diversity"`
	MaxDiversity     float64 `json:"max_diversity"`
}

func Summarize(rows []model.GenerationStatus) Summary {
	var s Summary
	if len(rows) == 0 {
		return s
	}
	diversity := make([]float64, 0, len(rows))
	for _, row := range rows {
		s.Candidates += row.PopulationSize
		s.Selected += len(row.WinnerIndices)
		s.LatestGeneration = max(s.LatestGeneration, row.Generation)
		diversity = append(diversity, row.Diversity)
	}
	s.Generations = len(rows)
	s.MeanDiversity, s.StdDiversity = stat.MeanStdDev(diversity, nil)
	if len(diversity) < 2 {
		s.StdDiversity = 0
	}
	s.MinDiversity = floats.Min(diversity)
	s.MaxDiversity = floats.Max(diversity)
	return s
}

// WriteStatusCSV writes one header plus one row per generation.
func WriteStatusCSV(w io.Writer, rows []model.GenerationStatus) error {
	out := make([]model.GenerationStatus, len(rows))
	for i, row := range rows {
		row.Winners = joinInts(row.WinnerIndices, " ")
		out[i] = row
	}
	if err := gocsv.Marshal(out, w); err != nil {
		return fmt.Errorf("write status csv: %w", err)
	}
	return nil
}

// ReadStatusCSV parses a file written by WriteStatusCSV.
func ReadStatusCSV(r io.Reader) ([]model.GenerationStatus, error) {
	var rows []model.GenerationStatus
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("read status csv: %w", err)
	}
	for i := range rows {
		for _, field := range strings.Fields(rows[i].Winners) {
			n, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("row %d winners: %w", i+1, err)
			}
			rows[i].WinnerIndices = append(rows[i].WinnerIndices, n)
		}
	}
	return rows, nil
}

// WriteStatusJSON writes the rows and their summary as one document.
func WriteStatusJSON(path string, rows []model.GenerationStatus) error {
	return writeJSON(path, map[string]any{
		"generations": rows,
		"summary":     Summarize(rows),
	})
}

func joinInts(values []int, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, sep)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

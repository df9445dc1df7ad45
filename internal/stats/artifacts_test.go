package stats

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"formbreed/internal/genotype"
	"formbreed/internal/model"
)

func sampleRows() []model.GenerationStatus {
	return []model.GenerationStatus{
		{Generation: 0, PopulationSize: 16, Diversity: 1.2, WinnerIndices: []int{2, 5, 9}, ContactSheet: true},
		{Generation: 1, PopulationSize: 16, Diversity: 0.8, WinnerIndices: []int{1}},
		{Generation: 2, PopulationSize: 8, Diversity: 0.4},
	}
}

func TestBuildStatus(t *testing.T) {
	a := genotype.NewGenome(0, 1, "outline", map[string]float64{"x": 0}, 1)
	b := genotype.NewGenome(0, 2, "outline", map[string]float64{"x": 1}, 2)
	winners := &model.Winners{WinnerIndices: []int{2}}
	status := BuildStatus(0, []model.Genome{a, b}, winners, true)
	if status.PopulationSize != 2 || status.Diversity != 1 || !status.ContactSheet {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.Winners != "2" {
		t.Fatalf("winners = %q", status.Winners)
	}
	winners.WinnerIndices[0] = 7
	if status.WinnerIndices[0] != 2 {
		t.Fatal("status aliases winner indices")
	}
	if empty := BuildStatus(3, nil, nil, false); empty.PopulationSize != 0 || empty.Winners != "" {
		t.Fatalf("unexpected empty status: %+v", empty)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleRows())
	if s.Generations != 3 || s.LatestGeneration != 2 || s.Candidates != 40 || s.Selected != 4 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if math.Abs(s.MeanDiversity-0.8) > 1e-12 || s.MinDiversity != 0.4 || s.MaxDiversity != 1.2 {
		t.Fatalf("unexpected diversity summary: %+v", s)
	}
	if s.StdDiversity <= 0 {
		t.Fatalf("expected positive spread: %+v", s)
	}
	if got := Summarize(nil); got != (Summary{}) {
		t.Fatalf("expected zero summary, got %+v", got)
	}
	if got := Summarize(sampleRows()[:1]); got.StdDiversity != 0 {
		t.Fatalf("single row spread = %f", got.StdDiversity)
	}
}

func TestStatusCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteStatusCSV(&buf, sampleRows()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	header := strings.SplitN(buf.String(), "\n", 2)[0]
	if header != "generation,population_size,diversity,winners,contact_sheet" {
		t.Fatalf("unexpected header: %q", header)
	}
	rows, err := ReadStatusCSV(&buf)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 || len(rows[0].WinnerIndices) != 3 || rows[0].WinnerIndices[2] != 9 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if !rows[0].ContactSheet || rows[2].WinnerIndices != nil {
		t.Fatalf("unexpected row values: %+v", rows)
	}
}

func TestWriteStatusJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	if err := WriteStatusJSON(path, sampleRows()); err != nil {
		t.Fatalf("write json: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var doc struct {
		Generations []model.GenerationStatus `json:"generations"`
		Summary     Summary                  `json:"summary"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(doc.Generations) != 3 || doc.Summary.Selected != 4 {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestWriteDiversityChart(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"diversity.png", "diversity.svg"} {
		path := filepath.Join(dir, name)
		if err := WriteDiversityChart(path, sampleRows()); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			t.Fatalf("expected non-empty %s: %v", name, err)
		}
	}
	if err := WriteDiversityChart(filepath.Join(dir, "d.gif"), sampleRows()); err == nil {
		t.Fatal("expected unsupported format error")
	}
	if err := WriteDiversityChart(filepath.Join(dir, "d.png"), nil); err == nil {
		t.Fatal("expected error for empty rows")
	}
}

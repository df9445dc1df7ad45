package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"formbreed/internal/model"
)

func fixturePath(name string) string {
	return filepath.Join("..", "..", "testdata", "fixtures", name)
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(fixturePath(name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func sampleGenome(id string, parents []string, prompt string) model.Genome {
	return model.Genome{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              id,
		Generator:       "soft_blob",
		Params:          map[string]float64{"roundness": 0.1 + 0.2, "lobe_count": 1.0 / 3, "wobble": 0},
		Seed:            -1234567890123,
		Parents:         parents,
		Prompt:          prompt,
		CreatedAt:       1718000000.123456,
	}
}

func TestGenomeRoundTrip(t *testing.T) {
	for _, g := range []model.Genome{
		sampleGenome("gen000_0001", nil, ""),
		sampleGenome("gen001_0002", []string{"gen000_0001", "gen000_0003"}, "soft protective"),
	} {
		data, err := EncodeGenome(g)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		got, err := DecodeGenome(data)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !reflect.DeepEqual(got, g) {
			t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, g)
		}
	}
}

func TestPopulationLinesRoundTrip(t *testing.T) {
	population := []model.Genome{
		sampleGenome("gen000_0001", nil, ""),
		sampleGenome("gen000_0002", nil, "thin"),
		sampleGenome("gen000_0003", []string{"a", "b"}, ""),
	}
	var buf bytes.Buffer
	if err := WritePopulation(&buf, population); err != nil {
		t.Fatalf("write population: %v", err)
	}
	if n := bytes.Count(buf.Bytes(), []byte("\n")); n != len(population) {
		t.Fatalf("expected one line per genome, got %d", n)
	}
	got, err := ReadPopulation(&buf)
	if err != nil {
		t.Fatalf("read population: %v", err)
	}
	if !reflect.DeepEqual(got, population) {
		t.Fatalf("population mismatch: %+v", got)
	}
}

func TestReadPopulationFixture(t *testing.T) {
	got, err := DecodePopulation(readFixture(t, "population_v1.jsonl"))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 genomes, got %d", len(got))
	}
	if got[0].Parents != nil || got[0].Prompt != "" {
		t.Fatalf("founder should have no lineage: %+v", got[0])
	}
	if got[2].Seed != -9001 || len(got[2].Parents) != 2 || got[2].Parents[1] != "gen000_0002" {
		t.Fatalf("unexpected bred genome: %+v", got[2])
	}
}

func TestDecodeWinnersFixture(t *testing.T) {
	w, err := DecodeWinners(readFixture(t, "winners_v1.json"))
	if err != nil {
		t.Fatalf("decode winners: %v", err)
	}
	if w.PopulationSize != 16 || !reflect.DeepEqual(w.WinnerIndices, []int{2, 5, 9}) || w.WinnerIDs[2] != "gen000_0009" {
		t.Fatalf("unexpected winners: %+v", w)
	}
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	if _, err := DecodeWinners(readFixture(t, "winners_v0.json")); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
	g := sampleGenome("gen000_0001", nil, "")
	g.CodecVersion = 99
	data, err := EncodeGenome(g)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := ReadPopulation(bytes.NewReader(data)); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

package evo

import (
	"math"
	"math/rand"
	"testing"

	"formbreed/internal/genotype"
	"formbreed/internal/model"
	"formbreed/internal/params"
)

func TestBreedFromSelectedWinnersEndToEnd(t *testing.T) {
	table := params.Defaults()
	gen0 := newPopulation(t, 16, 100)
	if len(gen0) != 16 {
		t.Fatalf("expected 16 genomes, got %d", len(gen0))
	}

	sel, err := ResolveWinners(gen0, []int{2, 5, 9})
	if err != nil {
		t.Fatalf("resolve winners: %v", err)
	}
	winners := map[string]model.Genome{}
	for _, w := range sel.Winners {
		winners[w.ID] = w
	}

	rng := rand.New(rand.NewSource(101))
	gen1, err := GeneratePopulation(rng, PopulationConfig{
		Size:             16,
		Generation:       1,
		Table:            table,
		Parents:          sel.Winners,
		Crossover:        Uniform,
		MutationRate:     0.15,
		MutationStrength: 0.1,
	})
	if err != nil {
		t.Fatalf("breed generation 1: %v", err)
	}
	if len(gen1) != 16 {
		t.Fatalf("expected 16 offspring, got %d", len(gen1))
	}
	for i, g := range gen1 {
		if g.ID != genotype.FormatID(1, i+1) {
			t.Fatalf("unexpected id at %d: %s", i, g.ID)
		}
		if len(g.Parents) != 2 {
			t.Fatalf("%s: expected two parents, got %v", g.ID, g.Parents)
		}
		parentA, ok := winners[g.Parents[0]]
		if !ok {
			t.Fatalf("%s: parent a %s not a winner", g.ID, g.Parents[0])
		}
		if _, ok := winners[g.Parents[1]]; !ok {
			t.Fatalf("%s: parent b %s not a winner", g.ID, g.Parents[1])
		}
		if g.Generator != parentA.Generator {
			t.Fatalf("%s: generator %q, want %q", g.ID, g.Generator, parentA.Generator)
		}
	}
}

func TestGeneratePopulationHonorsConstraints(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	pop, err := GeneratePopulation(rng, PopulationConfig{
		Size:        30,
		Generator:   "dot_field",
		Table:       params.Defaults(),
		Constraints: params.Constraints{params.Roundness: {Min: 0.6, Max: 0.8}},
		Prompt:      "soft",
	})
	if err != nil {
		t.Fatalf("generate population: %v", err)
	}
	for _, g := range pop {
		if v := g.Params[params.Roundness]; v < 0.6 || v > 0.8 {
			t.Fatalf("%s roundness %f outside constraint", g.ID, v)
		}
		if g.Prompt != "soft" || g.Parents != nil {
			t.Fatalf("unexpected founder fields: %+v", g)
		}
	}
}

func TestGeneratePopulationRejectsBadInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := GeneratePopulation(nil, PopulationConfig{Size: 1, Generator: "soft_blob"}); err == nil {
		t.Fatal("expected error for missing random source")
	}
	if _, err := GeneratePopulation(rng, PopulationConfig{Size: -1, Generator: "soft_blob"}); err == nil {
		t.Fatal("expected error for negative size")
	}
	if _, err := GeneratePopulation(rng, PopulationConfig{Size: 2}); err == nil {
		t.Fatal("expected error for missing generator")
	}
}

func TestDiversityBoundaries(t *testing.T) {
	if got := CalculateDiversity(nil); got != 0 {
		t.Fatalf("empty diversity = %f", got)
	}
	pop := newPopulation(t, 3, 31)
	if got := CalculateDiversity(pop[:1]); got != 0 {
		t.Fatalf("singleton diversity = %f", got)
	}
	same := []model.Genome{pop[0], pop[0].Clone(), pop[0].Clone()}
	if got := CalculateDiversity(same); got != 0 {
		t.Fatalf("identical diversity = %f", got)
	}
	if got := CalculateDiversity(pop); got <= 0 {
		t.Fatalf("expected positive diversity, got %f", got)
	}
}

func TestDiversityIsMeanPairwiseDistance(t *testing.T) {
	a := genotype.NewGenome(0, 1, "outline", map[string]float64{"x": 0, "y": 0}, 1)
	b := genotype.NewGenome(0, 2, "outline", map[string]float64{"x": 1, "y": 0}, 1)
	c := genotype.NewGenome(0, 3, "outline", map[string]float64{"x": 0}, 1)
	// c reads y as 0.5: distances are 1, 0.5 and sqrt(1.25).
	want := (1 + 0.5 + math.Sqrt(1.25)) / 3
	if got := CalculateDiversity([]model.Genome{a, b, c}); math.Abs(got-want) > 1e-12 {
		t.Fatalf("diversity = %f, want %f", got, want)
	}
}

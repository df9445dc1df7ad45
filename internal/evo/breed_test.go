package evo

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"formbreed/internal/genotype"
	"formbreed/internal/model"
	"formbreed/internal/params"
)

func TestUniformCrossoverTraitProvenance(t *testing.T) {
	pop := newPopulation(t, 2, 11)
	a, b := pop[0], pop[1]
	a.Prompt = ""
	b.Prompt = "soft"
	rng := rand.New(rand.NewSource(5))
	for i := 1; i <= 50; i++ {
		child := Breed(rng, a, b, 1, i, Uniform)
		if child.ID != genotype.FormatID(1, i) {
			t.Fatalf("unexpected child id: %s", child.ID)
		}
		if child.Generator != a.Generator {
			t.Fatalf("child generator %q, want %q", child.Generator, a.Generator)
		}
		if len(child.Parents) != 2 || child.Parents[0] != a.ID || child.Parents[1] != b.ID {
			t.Fatalf("unexpected parents: %v", child.Parents)
		}
		if child.Prompt != "soft" {
			t.Fatalf("expected prompt inherited from b, got %q", child.Prompt)
		}
		for name, v := range child.Params {
			if v != a.Params[name] && v != b.Params[name] {
				t.Fatalf("trait %s=%f comes from neither parent", name, v)
			}
		}
	}
}

func TestSinglePointCrossoverHasOneSplit(t *testing.T) {
	pop := newPopulation(t, 2, 12)
	a, b := pop[0], pop[1]
	names := TraitNames(a, b)
	rng := rand.New(rand.NewSource(9))
	for i := 1; i <= 50; i++ {
		child := Breed(rng, a, b, 1, i, SinglePoint)
		// Find the first trait that differs from a; everything after must be b.
		split := len(names)
		for j, name := range names {
			if child.Params[name] != a.Params[name] {
				split = j
				break
			}
		}
		for j := split; j < len(names); j++ {
			if child.Params[names[j]] != b.Params[names[j]] {
				t.Fatalf("trait %s after split %d not from b", names[j], split)
			}
		}
	}
}

func TestBreedMissingTraitIsNeutral(t *testing.T) {
	a := genotype.NewGenome(0, 1, "outline", map[string]float64{"x": 1}, 1)
	b := genotype.NewGenome(0, 2, "outline", map[string]float64{"y": 0}, 2)
	rng := rand.New(rand.NewSource(3))
	for i := 1; i <= 20; i++ {
		child := Breed(rng, a, b, 1, i, Uniform)
		if x := child.Params["x"]; x != 1 && x != 0.5 {
			t.Fatalf("x=%f", x)
		}
		if y := child.Params["y"]; y != 0 && y != 0.5 {
			t.Fatalf("y=%f", y)
		}
	}
}

func TestBreedReseedsChild(t *testing.T) {
	pop := newPopulation(t, 2, 13)
	child := Breed(rand.New(rand.NewSource(1)), pop[0], pop[1], 1, 1, Uniform)
	if child.Seed == pop[0].Seed || child.Seed == pop[1].Seed {
		t.Fatal("expected a fresh child seed")
	}
}

func TestBreedWithoutRNGStillReseeds(t *testing.T) {
	pop := newPopulation(t, 2, 15)
	first := Breed(nil, pop[0], pop[1], 1, 1, Uniform)
	second := Breed(nil, pop[0], pop[1], 1, 2, Uniform)
	if first.Seed == second.Seed {
		t.Fatalf("nil rng children share seed %d", first.Seed)
	}
	mutated := Mutate(nil, first, 1, 0.5)
	if mutated.Seed != first.Seed {
		t.Fatal("mutation changed the seed")
	}
	for name, v := range mutated.Params {
		if v < 0 || v > 1 {
			t.Fatalf("%s out of range: %f", name, v)
		}
	}
}

func TestMutateKeepsSeedAndDoesNotAlias(t *testing.T) {
	g := newPopulation(t, 1, 14)[0]
	before := g.Clone()
	out := Mutate(rand.New(rand.NewSource(2)), g, 1, 0.3)
	if out.Seed != g.Seed || out.ID != g.ID {
		t.Fatal("mutation must keep id and seed")
	}
	for name, v := range before.Params {
		if g.Params[name] != v {
			t.Fatalf("mutate edited input trait %s", name)
		}
	}
	if zero := Mutate(rand.New(rand.NewSource(2)), g, 0, 0.3); CalculateDiversity([]model.Genome{zero, g}) != 0 {
		t.Fatal("rate 0 must leave traits unchanged")
	}
}

func TestMutationRateConverges(t *testing.T) {
	table := params.Defaults()
	rng := rand.New(rand.NewSource(21))
	const rate = 0.2
	changed, total := 0, 0
	for i := 0; i < 2000; i++ {
		values := make(map[string]float64, table.Len())
		for _, name := range table.Names() {
			values[name] = 0.5
		}
		g := genotype.NewGenome(0, 1, "soft_blob", values, int64(i))
		out := Mutate(rng, g, rate, 0.1)
		for name, v := range g.Params {
			total++
			if out.Params[name] != v {
				changed++
			}
		}
	}
	frac := float64(changed) / float64(total)
	if math.Abs(frac-rate) > 0.02 {
		t.Fatalf("changed fraction %.4f not close to %.2f", frac, rate)
	}
}

func TestClampInvariantUnderRepeatedOperators(t *testing.T) {
	pop := newPopulation(t, 4, 15)
	rng := rand.New(rand.NewSource(4))
	for gen := 1; gen <= 30; gen++ {
		next := make([]model.Genome, 0, len(pop))
		for i := range pop {
			child := Breed(rng, pop[rng.Intn(len(pop))], pop[rng.Intn(len(pop))], gen, i+1, Crossover(i%2))
			next = append(next, Mutate(rng, child, 0.9, 2))
		}
		pop = next
	}
	for _, g := range pop {
		for name, v := range g.Params {
			if v < 0 || v > 1 {
				t.Fatalf("%s trait %s out of range: %f", g.ID, name, v)
			}
		}
	}
}

func TestParseCrossover(t *testing.T) {
	if c, err := ParseCrossover("single_point"); err != nil || c != SinglePoint {
		t.Fatalf("parse single_point: %v %v", c, err)
	}
	if c, err := ParseCrossover(""); err != nil || c != Uniform {
		t.Fatalf("parse default: %v %v", c, err)
	}
	if _, err := ParseCrossover("blend"); !errors.Is(err, ErrUnknownCrossover) {
		t.Fatalf("expected ErrUnknownCrossover, got %v", err)
	}
}

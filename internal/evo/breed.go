package evo

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"formbreed/internal/genotype"
	"formbreed/internal/model"
	"formbreed/internal/params"
)

var ErrUnknownCrossover = errors.New("unknown crossover method")

// Crossover selects how parent traits are combined.
type Crossover uint8

const (
	Uniform Crossover = iota
	SinglePoint
)

func (c Crossover) String() string {
	switch c {
	case Uniform:
		return "uniform"
	case SinglePoint:
		return "single_point"
	default:
		return fmt.Sprintf("crossover(%d)", c)
	}
}

// ParseCrossover accepts the names used in configuration and on the CLI.
func ParseCrossover(name string) (Crossover, error) {
	switch name {
	case "uniform", "":
		return Uniform, nil
	case "single_point", "single-point", "singlepoint":
		return SinglePoint, nil
	default:
		return Uniform, fmt.Errorf("%w: %q", ErrUnknownCrossover, name)
	}
}

// TraitNames returns the sorted union of trait names over genomes. This is
// the fixed ordering used by single-point crossover and diversity. A genome
// missing a trait reads it as the neutral 0.5.
func TraitNames(genomes ...model.Genome) []string {
	seen := make(map[string]struct{})
	for _, g := range genomes {
		for name := range g.Params {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Breed produces generation/index's child of a and b. The child keeps a's
// generator, inherits the first available prompt, and draws a fresh seed.
func Breed(rng *rand.Rand, a, b model.Genome, generation, index int, method Crossover) model.Genome {
	rng = genotype.EnsureRNG(rng)
	names := TraitNames(a, b)
	values := make(map[string]float64, len(names))

	switch method {
	case SinglePoint:
		split := len(names)
		if len(names) > 1 {
			split = 1 + rng.Intn(len(names)-1)
		}
		for i, name := range names {
			if i < split {
				values[name] = a.Param(name)
			} else {
				values[name] = b.Param(name)
			}
		}
	default:
		for _, name := range names {
			if rng.Float64() < 0.5 {
				values[name] = a.Param(name)
			} else {
				values[name] = b.Param(name)
			}
		}
	}

	child := genotype.NewGenome(generation, index, a.Generator, values, rng.Int63())
	child.Parents = []string{a.ID, b.ID}
	child.Prompt = a.Prompt
	if child.Prompt == "" {
		child.Prompt = b.Prompt
	}
	return child
}

// Mutate returns a copy of g where each trait, with probability rate, moves
// by a uniform delta in [-strength, strength]. The seed is kept.
func Mutate(rng *rand.Rand, g model.Genome, rate, strength float64) model.Genome {
	rng = genotype.EnsureRNG(rng)
	out := g.Clone()
	if out.Params == nil {
		out.Params = map[string]float64{}
	}
	rate = params.Clamp01(rate)
	names := make([]string, 0, len(out.Params))
	for name := range out.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if rng.Float64() >= rate {
			continue
		}
		delta := (rng.Float64()*2 - 1) * strength
		out.Params[name] = params.Clamp01(out.Params[name] + delta)
	}
	return out
}

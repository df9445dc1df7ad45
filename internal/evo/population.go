package evo

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"formbreed/internal/genotype"
	"formbreed/internal/model"
	"formbreed/internal/params"
)

// PopulationConfig describes one generation to create. With no Parents the
// population is sampled at random from Table under Constraints; otherwise
// every offspring is bred from two parents picked by Selector and mutated.
type PopulationConfig struct {
	Size             int
	Generation       int
	Generator        string
	Table            params.Table
	Constraints      params.Constraints
	Prompt           string
	Parents          []model.Genome
	Selector         Selector
	Crossover        Crossover
	MutationRate     float64
	MutationStrength float64
}

// GeneratePopulation builds cfg.Size genomes with ids gen<Generation>_0001...
func GeneratePopulation(rng *rand.Rand, cfg PopulationConfig) ([]model.Genome, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if cfg.Size < 0 {
		return nil, fmt.Errorf("invalid population size: %d", cfg.Size)
	}
	if cfg.Generation < 0 {
		return nil, fmt.Errorf("invalid generation: %d", cfg.Generation)
	}

	population := make([]model.Genome, 0, cfg.Size)
	if len(cfg.Parents) == 0 {
		if cfg.Generator == "" {
			return nil, fmt.Errorf("generator is required for a random population")
		}
		for i := 1; i <= cfg.Size; i++ {
			g := genotype.NewRandomGenome(rng, cfg.Generation, i, cfg.Generator, cfg.Table, cfg.Constraints)
			g.Prompt = cfg.Prompt
			population = append(population, g)
		}
		return population, nil
	}

	selector := cfg.Selector
	if selector == nil {
		selector = UniformSelector{}
	}
	for i := 1; i <= cfg.Size; i++ {
		a, err := selector.PickParent(rng, cfg.Parents)
		if err != nil {
			return nil, fmt.Errorf("pick parent a for offspring %d: %w", i, err)
		}
		b, err := selector.PickParent(rng, cfg.Parents)
		if err != nil {
			return nil, fmt.Errorf("pick parent b for offspring %d: %w", i, err)
		}
		child := Breed(rng, a, b, cfg.Generation, i, cfg.Crossover)
		population = append(population, Mutate(rng, child, cfg.MutationRate, cfg.MutationStrength))
	}
	return population, nil
}

// CalculateDiversity is the mean pairwise Euclidean distance between genomes
// in normalized trait space. Populations smaller than two score 0.
func CalculateDiversity(population []model.Genome) float64 {
	if len(population) < 2 {
		return 0
	}
	names := TraitNames(population...)
	vectors := make([][]float64, len(population))
	for i, g := range population {
		v := make([]float64, len(names))
		for j, name := range names {
			v[j] = g.Param(name)
		}
		vectors[i] = v
	}

	total := 0.0
	pairs := 0
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			total += floats.Distance(vectors[i], vectors[j], 2)
			pairs++
		}
	}
	return total / float64(pairs)
}

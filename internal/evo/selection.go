package evo

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"formbreed/internal/genotype"
	"formbreed/internal/model"
)

var ErrNoValidWinners = errors.New("no valid winner indices")

// Selector chooses one breeding parent from the winner set.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, parents []model.Genome) (model.Genome, error)
}

// UniformSelector picks uniformly with replacement, so one winner may fill
// both parent slots and sire several offspring.
type UniformSelector struct{}

func (UniformSelector) Name() string {
	return "uniform"
}

func (UniformSelector) PickParent(rng *rand.Rand, parents []model.Genome) (model.Genome, error) {
	if rng == nil {
		return model.Genome{}, fmt.Errorf("random source is required")
	}
	if len(parents) == 0 {
		return model.Genome{}, fmt.Errorf("parent set is empty")
	}
	return parents[rng.Intn(len(parents))], nil
}

// SelectWinners looks up genomes by 1-based index. Out-of-range indices are
// skipped.
func SelectWinners(population []model.Genome, indices []int) []model.Genome {
	out := make([]model.Genome, 0, len(indices))
	for _, idx := range indices {
		if idx < 1 || idx > len(population) {
			continue
		}
		out = append(out, population[idx-1])
	}
	return out
}

// InvalidIndexError reports one rejected winner index.
type InvalidIndexError struct {
	Raw   string
	Index int
	Size  int
}

func (e InvalidIndexError) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("winner index %q is not a number", e.Raw)
	}
	return fmt.Sprintf("winner index %d out of range [1, %d]", e.Index, e.Size)
}

// Selection is the validated outcome of a human winner pick.
type Selection struct {
	Indices []int
	Winners []model.Genome
	Invalid []InvalidIndexError
}

// ParseIndices splits a comma-separated index list. Entries that are not
// integers are returned as InvalidIndexError values.
func ParseIndices(text string) ([]int, []InvalidIndexError) {
	var (
		indices []int
		invalid []InvalidIndexError
	)
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			invalid = append(invalid, InvalidIndexError{Raw: part})
			continue
		}
		indices = append(indices, n)
	}
	return indices, invalid
}

// ResolveWinners validates indices against the population. Every rejected
// index is reported and skipped; duplicates are kept once. It fails with
// ErrNoValidWinners when nothing survives.
func ResolveWinners(population []model.Genome, indices []int) (Selection, error) {
	var sel Selection
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < 1 || idx > len(population) {
			sel.Invalid = append(sel.Invalid, InvalidIndexError{Index: idx, Size: len(population)})
			continue
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		sel.Indices = append(sel.Indices, idx)
	}
	sel.Winners = SelectWinners(population, sel.Indices)
	if len(sel.Winners) == 0 {
		return sel, ErrNoValidWinners
	}
	return sel, nil
}

// Record converts the selection to its persisted form.
func (s Selection) Record(generation, populationSize int) model.Winners {
	ids := make([]string, 0, len(s.Winners))
	for _, g := range s.Winners {
		ids = append(ids, g.ID)
	}
	indices := make([]int, len(s.Indices))
	copy(indices, s.Indices)
	return model.Winners{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: genotype.CurrentSchemaVersion,
			CodecVersion:  genotype.CurrentCodecVersion,
		},
		Generation:     generation,
		PopulationSize: populationSize,
		WinnerIndices:  indices,
		WinnerIDs:      ids,
	}
}

package stats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"formbreed/internal/genotype"
	"formbreed/internal/model"
)

var ErrGenomeNotFound = errors.New("genome not found")

// PopulationSource is the read side of a population store.
type PopulationSource interface {
	GetPopulation(ctx context.Context, generation int) ([]model.Genome, bool, error)
}

// LineageEntry is one ancestor of a traced genome. Depth 0 is the genome
// itself. Missing marks a parent id no stored population contains.
type LineageEntry struct {
	Depth      int    `json:"depth" csv:"depth"`
	GenomeID   string `json:"genome_id" csv:"genome_id"`
	Generation int    `json:"generation" csv:"generation"`
	Generator  string `json:"generator,omitempty" csv:"generator"`
	Parents    string `json:"parents,omitempty" csv:"parents"`
	Prompt     string `json:"prompt,omitempty" csv:"prompt"`
	Missing    bool   `json:"missing,omitempty" csv:"missing"`
}

// Lineage walks parent links breadth first from id. Shared ancestors are
// listed once. maxDepth <= 0 walks to the founders.
func Lineage(ctx context.Context, src PopulationSource, id string, maxDepth int) ([]LineageEntry, error) {
	if src == nil {
		return nil, fmt.Errorf("population source is required")
	}
	cache := map[int][]model.Genome{}
	find := func(id string) (model.Genome, int, bool, error) {
		gen, _, err := genotype.ParseID(id)
		if err != nil {
			return model.Genome{}, 0, false, err
		}
		pop, ok := cache[gen]
		if !ok {
			pop, _, err = src.GetPopulation(ctx, gen)
			if err != nil {
				return model.Genome{}, gen, false, err
			}
			cache[gen] = pop
		}
		for _, g := range pop {
			if g.ID == id {
				return g, gen, true, nil
			}
		}
		return model.Genome{}, gen, false, nil
	}

	type item struct {
		id    string
		depth int
	}
	var (
		out   []LineageEntry
		queue = []item{{id: id}}
		seen  = map[string]bool{id: true}
	)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		g, gen, ok, err := find(cur.id)
		if err != nil {
			return nil, fmt.Errorf("trace %s: %w", cur.id, err)
		}
		if !ok {
			if cur.depth == 0 {
				return nil, fmt.Errorf("%w: %s", ErrGenomeNotFound, id)
			}
			out = append(out, LineageEntry{Depth: cur.depth, GenomeID: cur.id, Generation: gen, Missing: true})
			continue
		}
		out = append(out, LineageEntry{
			Depth:      cur.depth,
			GenomeID:   g.ID,
			Generation: gen,
			Generator:  g.Generator,
			Parents:    strings.Join(g.Parents, " "),
			Prompt:     g.Prompt,
		})
		if maxDepth > 0 && cur.depth >= maxDepth {
			continue
		}
		for _, parent := range g.Parents {
			if seen[parent] {
				continue
			}
			seen[parent] = true
			queue = append(queue, item{id: parent, depth: cur.depth + 1})
		}
	}
	return out, nil
}

func WriteLineageCSV(w io.Writer, entries []LineageEntry) error {
	if err := gocsv.Marshal(entries, w); err != nil {
		return fmt.Errorf("write lineage csv: %w", err)
	}
	return nil
}

// Package shapes turns genomes into renderable geometry. Every generator is a
// pure function of the genome, its placement and the parameter table: all
// randomness comes from a source seeded with the genome seed.
package shapes

import (
	"errors"
	"fmt"
	"math/rand"

	"formbreed/internal/geometry"
	"formbreed/internal/model"
	"formbreed/internal/params"
)

var ErrUnknownGenerator = errors.New("unknown generator")

// Kind is the closed set of shape generators.
type Kind uint8

const (
	SoftBlob Kind = iota
	Layered
	Outline
	DotField
	AccentNodes
)

var kindNames = [...]string{
	SoftBlob:    "soft_blob",
	Layered:     "layered",
	Outline:     "outline",
	DotField:    "dot_field",
	AccentNodes: "accent_nodes",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Kinds lists every generator in declaration order.
func Kinds() []Kind {
	return []Kind{SoftBlob, Layered, Outline, DotField, AccentNodes}
}

// Names lists every generator name.
func Names() []string {
	out := make([]string, 0, len(kindNames))
	for _, k := range Kinds() {
		out = append(out, k.String())
	}
	return out
}

// ParseKind resolves a generator name from configuration or the CLI.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds() {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (known: %v)", ErrUnknownGenerator, name, Names())
}

// Generate builds the form for a genome centered at center and fitting a
// square of side size.
func (k Kind) Generate(g model.Genome, center geometry.Point, size float64, table params.Table) geometry.Form {
	rng := rand.New(rand.NewSource(g.Seed))
	tr := traits{genome: g, table: table}
	switch k {
	case SoftBlob:
		return softBlob(rng, tr, center, size)
	case Layered:
		return layered(rng, tr, center, size)
	case Outline:
		return outline(rng, tr, center, size)
	case DotField:
		return dotField(rng, tr, center, size)
	case AccentNodes:
		return accentNodes(rng, tr, center, size)
	default:
		return softBlob(rng, tr, center, size)
	}
}

// Generate resolves the genome's generator name and builds its form.
func Generate(g model.Genome, center geometry.Point, size float64, table params.Table) (geometry.Form, error) {
	k, err := ParseKind(g.Generator)
	if err != nil {
		return nil, fmt.Errorf("genome %s: %w", g.ID, err)
	}
	return k.Generate(g, center, size, table), nil
}

// traits reads denormalized trait values for one genome.
type traits struct {
	genome model.Genome
	table  params.Table
}

func (t traits) norm(name string) float64 {
	return t.genome.Param(name)
}

func (t traits) value(name string) float64 {
	return t.table.Value(name, t.genome.Param(name))
}

func (t traits) count(name string) int {
	return t.table.Int(name, t.genome.Param(name))
}

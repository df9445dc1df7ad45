package genotype

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"formbreed/internal/model"
	"formbreed/internal/params"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrInvalidID = errors.New("invalid genome id")

// FormatID renders the id for a genome at generation and 1-based index.
func FormatID(generation, index int) string {
	return fmt.Sprintf("gen%03d_%04d", generation, index)
}

// ParseID recovers generation and 1-based index from a genome id.
func ParseID(id string) (generation, index int, err error) {
	rest, ok := strings.CutPrefix(id, "gen")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	genPart, idxPart, ok := strings.Cut(rest, "_")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	generation, err = strconv.Atoi(genPart)
	if err != nil || generation < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	index, err = strconv.Atoi(idxPart)
	if err != nil || index < 1 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return generation, index, nil
}

// Now is the clock used for created_at stamps. Tests may replace it.
var Now = time.Now

// Timestamp returns the current time as fractional unix seconds.
func Timestamp() float64 {
	return float64(Now().UnixNano()) / 1e9
}

// NewGenome builds a genome from explicit params. Every value is clamped
// into [0,1].
func NewGenome(generation, index int, generator string, values map[string]float64, seed int64) model.Genome {
	return model.Genome{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: CurrentSchemaVersion,
			CodecVersion:  CurrentCodecVersion,
		},
		ID:        FormatID(generation, index),
		Generator: generator,
		Params:    ClampParams(values),
		Seed:      seed,
		CreatedAt: Timestamp(),
	}
}

// NewRandomGenome samples every trait of table uniformly from [0,1], or from
// the constraint sub-interval when one is given for the trait.
func NewRandomGenome(rng *rand.Rand, generation, index int, generator string, table params.Table, constraints params.Constraints) model.Genome {
	rng = EnsureRNG(rng)
	values := make(map[string]float64, table.Len())
	for _, name := range table.Names() {
		values[name] = SampleTrait(rng, constraints, name)
	}
	return NewGenome(generation, index, generator, values, rng.Int63())
}

// NewDefaultGenome builds a genome holding every trait's normalized default.
func NewDefaultGenome(generation, index int, generator string, table params.Table, seed int64) model.Genome {
	return NewGenome(generation, index, generator, table.DefaultsNormalized(), seed)
}

// SampleTrait draws one normalized value. Constraint bounds are clamped into
// [0,1]; an inverted range samples its midpoint.
func SampleTrait(rng *rand.Rand, constraints params.Constraints, name string) float64 {
	r, ok := constraints[name]
	if !ok {
		return rng.Float64()
	}
	lo, hi := params.Clamp01(r.Min), params.Clamp01(r.Max)
	if lo >= hi {
		return (lo + hi) / 2
	}
	return lo + rng.Float64()*(hi-lo)
}

// ClampParams copies values with every entry clamped into [0,1].
func ClampParams(values map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(values))
	for name, v := range values {
		out[name] = params.Clamp01(v)
	}
	return out
}

// EnsureRNG returns rng, or a time-seeded generator when rng is nil.
func EnsureRNG(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

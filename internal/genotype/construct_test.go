package genotype

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"formbreed/internal/params"
)

func TestFormatAndParseID(t *testing.T) {
	id := FormatID(3, 17)
	if id != "gen003_0017" {
		t.Fatalf("unexpected id: %s", id)
	}
	gen, idx, err := ParseID(id)
	if err != nil {
		t.Fatalf("parse id: %v", err)
	}
	if gen != 3 || idx != 17 {
		t.Fatalf("unexpected parse result: gen=%d idx=%d", gen, idx)
	}
}

func TestParseIDRejectsMalformed(t *testing.T) {
	for _, id := range []string{"", "g003_0001", "gen003-0001", "genxx_0001", "gen001_0000", "gen001_x"} {
		if _, _, err := ParseID(id); !errors.Is(err, ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID for %q, got %v", id, err)
		}
	}
}

func TestNewGenomeClampsParams(t *testing.T) {
	g := NewGenome(0, 1, "soft_blob", map[string]float64{"a": -0.2, "b": 1.7, "c": 0.25}, 9)
	if g.Params["a"] != 0 || g.Params["b"] != 1 || g.Params["c"] != 0.25 {
		t.Fatalf("params not clamped: %v", g.Params)
	}
	if g.SchemaVersion != CurrentSchemaVersion || g.CodecVersion != CurrentCodecVersion {
		t.Fatalf("unexpected versions: %+v", g.VersionedRecord)
	}
	if g.Parents != nil {
		t.Fatalf("founding genome must have no parents: %v", g.Parents)
	}
}

func TestNewRandomGenomeHonorsConstraints(t *testing.T) {
	table := params.Defaults()
	rng := rand.New(rand.NewSource(5))
	constraints := params.Constraints{params.Roundness: {Min: 0.6, Max: 0.8}}
	for i := 1; i <= 200; i++ {
		g := NewRandomGenome(rng, 0, i, "soft_blob", table, constraints)
		if len(g.Params) != table.Len() {
			t.Fatalf("expected %d traits, got %d", table.Len(), len(g.Params))
		}
		r := g.Params[params.Roundness]
		if r < 0.6 || r > 0.8 {
			t.Fatalf("roundness %f outside constraint", r)
		}
		for name, v := range g.Params {
			if v < 0 || v > 1 {
				t.Fatalf("trait %s out of range: %f", name, v)
			}
		}
	}
}

func TestSampleTraitInvertedRangeUsesMidpoint(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	got := SampleTrait(rng, params.Constraints{"x": {Min: 0.8, Max: 0.4}}, "x")
	if math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("expected midpoint 0.6, got %v", got)
	}
}

func TestNewDefaultGenomeUsesNormalizedDefaults(t *testing.T) {
	table := params.Defaults()
	g := NewDefaultGenome(0, 1, "outline", table, 1)
	spec, _ := table.Spec(params.LobeCount)
	if g.Params[params.LobeCount] != spec.DefaultNormalized() {
		t.Fatalf("unexpected lobe default: %f", g.Params[params.LobeCount])
	}
}

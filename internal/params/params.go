// Package params declares the tunable traits of a form and maps them between
// real generator values and the normalized [0,1] genome representation.
package params

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
)

// Kind is the numeric kind of a trait.
type Kind string

const (
	KindInt   Kind = "int"
	KindFloat Kind = "float"
)

// Trait names used by the shape generators.
const (
	ShapeType     = "shape_type"
	LobeCount     = "lobe_count"
	Roundness     = "roundness"
	Tension       = "tension"
	Asymmetry     = "asymmetry"
	Wobble        = "wobble"
	Aspect        = "aspect"
	ValleyDepth   = "valley_depth"
	Envelope      = "envelope"
	StrokeWeight  = "stroke_weight"
	OutlineGap    = "outline_gap"
	DotDensity    = "dot_density"
	DotSize       = "dot_size"
	Gradient      = "gradient"
	GridJitter    = "grid_jitter"
	SkipChance    = "skip_chance"
	ClusterChance = "cluster_chance"
	AccentCount   = "accent_count"
	AccentPattern = "accent_pattern"
	AccentSize    = "accent_size"
	ShadowOffset  = "shadow_offset"
	ShadowScale   = "shadow_scale"
)

// Spec declares the range, default and kind of one trait.
type Spec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
	Kind    Kind
}

// Validate checks min <= default <= max and a known kind.
func (s Spec) Validate() error {
	if s.Kind != KindInt && s.Kind != KindFloat {
		return fmt.Errorf("trait %s: unknown kind %q", s.Name, s.Kind)
	}
	if s.Min > s.Max {
		return fmt.Errorf("trait %s: min %g > max %g", s.Name, s.Min, s.Max)
	}
	if s.Default < s.Min || s.Default > s.Max {
		return fmt.Errorf("trait %s: default %g outside [%g, %g]", s.Name, s.Default, s.Min, s.Max)
	}
	return nil
}

// Normalize maps a real value into [0,1]. A zero-width range maps to 0.5.
func (s Spec) Normalize(value float64) float64 {
	if s.Max == s.Min {
		return 0.5
	}
	return Clamp01((value - s.Min) / (s.Max - s.Min))
}

// Denormalize maps a normalized value back to the real range, rounding to
// the nearest integer for int traits.
func (s Spec) Denormalize(norm float64) float64 {
	v := s.Min + Clamp01(norm)*(s.Max-s.Min)
	if s.Kind == KindInt {
		return math.Round(v)
	}
	return v
}

// DefaultNormalized returns the normalized default.
func (s Spec) DefaultNormalized() float64 {
	return s.Normalize(s.Default)
}

// Clamp01 clamps v into [0,1]. NaN maps to 0.5.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0.5
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Table is an immutable set of trait specs keyed by name.
type Table struct {
	specs map[string]Spec
	names []string
}

// NewTable builds a table from specs. Later duplicates replace earlier ones.
func NewTable(specs ...Spec) Table {
	m := make(map[string]Spec, len(specs))
	for _, s := range specs {
		m[s.Name] = s
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return Table{specs: m, names: names}
}

// Names returns trait names in sorted order.
func (t Table) Names() []string {
	return append([]string(nil), t.names...)
}

// Len returns the number of traits.
func (t Table) Len() int {
	return len(t.names)
}

// Spec returns the spec for name.
func (t Table) Spec(name string) (Spec, bool) {
	s, ok := t.specs[name]
	return s, ok
}

// Value denormalizes the genome value for name. Unknown traits return the
// normalized value unchanged so generators can still operate on foreign
// tables.
func (t Table) Value(name string, norm float64) float64 {
	s, ok := t.specs[name]
	if !ok {
		return Clamp01(norm)
	}
	return s.Denormalize(norm)
}

// Int is Value rounded to an int.
func (t Table) Int(name string, norm float64) int {
	return int(math.Round(t.Value(name, norm)))
}

// DefaultsNormalized returns every trait's normalized default.
func (t Table) DefaultsNormalized() map[string]float64 {
	out := make(map[string]float64, len(t.names))
	for _, name := range t.names {
		out[name] = t.specs[name].DefaultNormalized()
	}
	return out
}

// Override carries user-supplied replacements for a trait spec. Nil fields
// keep the built-in value.
type Override struct {
	Min     *float64 `yaml:"min"`
	Max     *float64 `yaml:"max"`
	Default *float64 `yaml:"default"`
	Kind    *string  `yaml:"kind"`
}

// Merge applies overrides on top of the table. Unknown trait names are
// ignored and invalid overrides keep the existing spec; both are logged.
func (t Table) Merge(overrides map[string]Override, logger *slog.Logger) Table {
	if logger == nil {
		logger = slog.Default()
	}
	specs := make([]Spec, 0, len(t.names))
	for _, name := range t.names {
		spec := t.specs[name]
		o, ok := overrides[name]
		if !ok {
			specs = append(specs, spec)
			continue
		}
		merged := spec
		if o.Min != nil {
			merged.Min = *o.Min
		}
		if o.Max != nil {
			merged.Max = *o.Max
		}
		if o.Default != nil {
			merged.Default = *o.Default
		}
		if o.Kind != nil {
			merged.Kind = Kind(*o.Kind)
		}
		if err := merged.Validate(); err != nil {
			logger.Warn("parameter_override_rejected", "trait", name, "error", err)
			specs = append(specs, spec)
			continue
		}
		specs = append(specs, merged)
	}
	for name := range overrides {
		if _, ok := t.specs[name]; !ok {
			logger.Debug("parameter_override_unknown_trait", "trait", name)
		}
	}
	return NewTable(specs...)
}

// Range is a normalized sub-interval of [0,1] used to constrain sampling.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Valid reports whether the range is non-inverted.
func (r Range) Valid() bool {
	return r.Min <= r.Max
}

// Intersect narrows r by other. The result may be inverted when the two
// ranges are disjoint.
func (r Range) Intersect(other Range) Range {
	return Range{Min: math.Max(r.Min, other.Min), Max: math.Min(r.Max, other.Max)}
}

// Constraints maps trait names to sampling ranges.
type Constraints map[string]Range

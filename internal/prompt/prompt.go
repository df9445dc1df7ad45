// Package prompt maps descriptive keywords in free text to sampling
// constraints on normalized traits. It only feeds random initialization.
package prompt

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"formbreed/internal/params"
)

// Bound is one keyword's constraint on a trait.
type Bound struct {
	Trait string
	Range params.Range
}

// Keyword is an entry of the keyword table.
type Keyword struct {
	Word   string
	Bounds []Bound
}

func span(lo, hi float64) params.Range { return params.Range{Min: lo, Max: hi} }

var keywords = []Keyword{
	{"soft", []Bound{{params.Roundness, span(0.6, 1)}, {params.Tension, span(0.4, 1)}, {params.Wobble, span(0, 0.4)}}},
	{"round", []Bound{{params.Roundness, span(0.7, 1)}, {params.ValleyDepth, span(0, 0.4)}}},
	{"rounded", []Bound{{params.Roundness, span(0.6, 1)}}},
	{"protective", []Bound{{params.Envelope, span(0.6, 1)}, {params.ShadowOffset, span(0.4, 1)}}},
	{"sheltering", []Bound{{params.Envelope, span(0.7, 1)}}},
	{"angular", []Bound{{params.Roundness, span(0, 0.3)}, {params.Tension, span(0, 0.35)}}},
	{"sharp", []Bound{{params.Roundness, span(0, 0.25)}, {params.ValleyDepth, span(0.5, 1)}}},
	{"spiky", []Bound{{params.Roundness, span(0, 0.3)}, {params.ValleyDepth, span(0.65, 1)}}},
	{"symmetric", []Bound{{params.Asymmetry, span(0, 0.15)}, {params.Wobble, span(0, 0.3)}}},
	{"balanced", []Bound{{params.Asymmetry, span(0, 0.25)}}},
	{"asymmetric", []Bound{{params.Asymmetry, span(0.6, 1)}}},
	{"irregular", []Bound{{params.Asymmetry, span(0.5, 1)}, {params.Wobble, span(0.4, 1)}}},
	{"organic", []Bound{{params.Asymmetry, span(0.3, 0.8)}, {params.Roundness, span(0.5, 1)}}},
	{"dense", []Bound{{params.DotDensity, span(0.65, 1)}, {params.SkipChance, span(0, 0.3)}}},
	{"sparse", []Bound{{params.DotDensity, span(0, 0.35)}, {params.SkipChance, span(0.4, 1)}}},
	{"clustered", []Bound{{params.ClusterChance, span(0.6, 1)}}},
	{"thin", []Bound{{params.StrokeWeight, span(0, 0.25)}, {params.DotSize, span(0, 0.35)}}},
	{"delicate", []Bound{{params.StrokeWeight, span(0, 0.3)}, {params.DotSize, span(0, 0.3)}}},
	{"bold", []Bound{{params.StrokeWeight, span(0.6, 1)}, {params.DotSize, span(0.5, 1)}}},
	{"heavy", []Bound{{params.StrokeWeight, span(0.7, 1)}}},
	{"wide", []Bound{{params.Aspect, span(0.65, 1)}}},
	{"tall", []Bound{{params.Aspect, span(0, 0.35)}}},
	{"calm", []Bound{{params.Wobble, span(0, 0.2)}, {params.GridJitter, span(0, 0.3)}}},
	{"wobbly", []Bound{{params.Wobble, span(0.6, 1)}}},
	{"playful", []Bound{{params.Wobble, span(0.4, 0.9)}, {params.Asymmetry, span(0.3, 0.8)}}},
	{"simple", []Bound{{params.LobeCount, span(0, 0.35)}, {params.AccentCount, span(0, 0.3)}}},
	{"minimal", []Bound{{params.LobeCount, span(0, 0.3)}, {params.AccentCount, span(0, 0.2)}}},
	{"complex", []Bound{{params.LobeCount, span(0.6, 1)}, {params.AccentCount, span(0.5, 1)}}},
	{"petals", []Bound{{params.ValleyDepth, span(0.5, 1)}}},
	{"flower", []Bound{{params.ValleyDepth, span(0.5, 1)}, {params.LobeCount, span(0.3, 1)}}},
	{"shadowed", []Bound{{params.ShadowOffset, span(0.5, 1)}}},
	{"flat", []Bound{{params.ShadowOffset, span(0, 0.2)}, {params.ShadowScale, span(0, 0.3)}}},
}

// Keywords returns the keyword table in match order.
func Keywords() []Keyword {
	out := make([]Keyword, len(keywords))
	copy(out, keywords)
	return out
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

var lobeStems = []string{"lobe", "petal", "fold"}

// numberReach is how many tokens before a lobe word are searched for a count.
const numberReach = 2

// Conflict records a trait whose accumulated range became inverted. The
// range was collapsed to Resolved.
type Conflict struct {
	Trait    string
	Keyword  string
	Before   params.Range
	With     params.Range
	Resolved params.Range
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: %q range [%.3f, %.3f] disjoint from [%.3f, %.3f], using %.3f",
		c.Trait, c.Keyword, c.With.Min, c.With.Max, c.Before.Min, c.Before.Max, c.Resolved.Min)
}

// Result is the outcome of translating one prompt.
type Result struct {
	Prompt      string
	Matched     []string
	Constraints params.Constraints
	Conflicts   []Conflict
}

// Traits returns the constrained trait names in sorted order.
func (r Result) Traits() []string {
	names := make([]string, 0, len(r.Constraints))
	for name := range r.Constraints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Translate lower-cases text, matches whole keywords and intersects their
// ranges per trait. A count word close before lobe/petal/fold pins
// lobe_count to that count, expressed through table.
func Translate(text string, table params.Table) Result {
	res := Result{Prompt: text, Constraints: params.Constraints{}}
	tokens := tokenize(text)
	present := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		present[tok] = true
	}

	for _, kw := range keywords {
		if !present[kw.Word] {
			continue
		}
		res.Matched = append(res.Matched, kw.Word)
		for _, b := range kw.Bounds {
			res.apply(kw.Word, b.Trait, b.Range)
		}
	}

	if n, word, ok := lobeCount(tokens); ok {
		if rng, ok := countRange(table, params.LobeCount, n); ok {
			res.Matched = append(res.Matched, word)
			res.apply(word, params.LobeCount, rng)
		}
	}
	return res
}

func (r *Result) apply(keyword, trait string, next params.Range) {
	cur, ok := r.Constraints[trait]
	if !ok {
		r.Constraints[trait] = next
		return
	}
	merged := cur.Intersect(next)
	if !merged.Valid() {
		mid := (merged.Min + merged.Max) / 2
		resolved := params.Range{Min: mid, Max: mid}
		r.Conflicts = append(r.Conflicts, Conflict{
			Trait:    trait,
			Keyword:  keyword,
			Before:   cur,
			With:     next,
			Resolved: resolved,
		})
		merged = resolved
	}
	r.Constraints[trait] = merged
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	})
}

// lobeCount finds the first count word within numberReach tokens before a
// lobe-like word.
func lobeCount(tokens []string) (int, string, bool) {
	for i, tok := range tokens {
		if !hasLobeStem(tok) {
			continue
		}
		for j := i - 1; j >= 0 && j >= i-numberReach; j-- {
			if n, ok := parseCount(tokens[j]); ok {
				return n, tokens[j] + " " + tok, true
			}
		}
	}
	return 0, "", false
}

func hasLobeStem(tok string) bool {
	for _, stem := range lobeStems {
		if strings.HasPrefix(tok, stem) {
			return true
		}
	}
	return false
}

func parseCount(tok string) (int, bool) {
	if n, ok := numberWords[tok]; ok {
		return n, true
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// countRange is the normalized interval that denormalizes to exactly n,
// with n clamped to the trait's range.
func countRange(table params.Table, trait string, n int) (params.Range, bool) {
	spec, ok := table.Spec(trait)
	if !ok || spec.Max <= spec.Min {
		return params.Range{}, false
	}
	v := math.Max(spec.Min, math.Min(spec.Max, float64(n)))
	width := spec.Max - spec.Min
	half := 0.45 / width
	center := spec.Normalize(v)
	return params.Range{
		Min: params.Clamp01(center - half),
		Max: params.Clamp01(center + half),
	}, true
}

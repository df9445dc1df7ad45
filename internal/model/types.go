package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Genome is one candidate form: the generator it is drawn with, its
// normalized trait values, the seed that drives every random draw of its
// render, and its lineage. Genomes are treated as values; operators return
// new genomes instead of editing params in place.
type Genome struct {
	VersionedRecord
	ID        string             `json:"id"`
	Generator string             `json:"generator"`
	Params    map[string]float64 `json:"params"`
	Seed      int64              `json:"seed"`
	Parents   []string           `json:"parents,omitempty"`
	Prompt    string             `json:"prompt,omitempty"`
	CreatedAt float64            `json:"created_at"`
}

// Clone returns a deep copy so callers can derive a new genome without
// aliasing the params map or parent slice.
func (g Genome) Clone() Genome {
	out := g
	if g.Params != nil {
		out.Params = make(map[string]float64, len(g.Params))
		for k, v := range g.Params {
			out.Params[k] = v
		}
	}
	if g.Parents != nil {
		out.Parents = append([]string(nil), g.Parents...)
	}
	return out
}

// Param returns the normalized value for name, or 0.5 when the genome does
// not carry the trait.
func (g Genome) Param(name string) float64 {
	if v, ok := g.Params[name]; ok {
		return v
	}
	return 0.5
}

// Winners records the human selection for one generation.
type Winners struct {
	VersionedRecord
	Generation     int      `json:"generation"`
	PopulationSize int      `json:"population_size"`
	WinnerIndices  []int    `json:"winner_indices"`
	WinnerIDs      []string `json:"winner_ids"`
}

// GenerationStatus summarizes one persisted generation.
type GenerationStatus struct {
	Generation     int     `json:"generation" csv:"generation"`
	PopulationSize int     `json:"population_size" csv:"population_size"`
	Diversity      float64 `json:"diversity" csv:"diversity"`
	WinnerIndices  []int   `json:"winner_indices" csv:"-"`
	Winners        string  `json:"-" csv:"winners"`
	ContactSheet   bool    `json:"contact_sheet" csv:"contact_sheet"`
}

// Project is the manifest written by init.
type Project struct {
	VersionedRecord
	ID        string `json:"id"`
	Name      string `json:"name"`
	Store     string `json:"store"`
	CreatedAt string `json:"created_at"`
}

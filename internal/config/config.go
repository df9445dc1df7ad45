// Package config loads project configuration: evolution defaults, storage,
// render options, the style table and parameter table overrides.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"formbreed/internal/evo"
	"formbreed/internal/params"
	"formbreed/internal/shapes"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ProjectFile is the per-project configuration picked up from the project root.
const ProjectFile = "formbreed.yaml"

// Config holds all project configuration.
type Config struct {
	Evolution  EvolutionConfig            `yaml:"evolution"`
	Storage    StorageConfig              `yaml:"storage"`
	Render     RenderConfig               `yaml:"render"`
	Style      StyleConfig                `yaml:"style"`
	Parameters map[string]params.Override `yaml:"parameters"`
}

// EvolutionConfig holds population and breeding defaults.
type EvolutionConfig struct {
	PopulationSize   int     `yaml:"population_size"`
	MutationRate     float64 `yaml:"mutation_rate"`
	MutationStrength float64 `yaml:"mutation_strength"`
	Crossover        string  `yaml:"crossover"`
	Generator        string  `yaml:"generator"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	DBPath  string `yaml:"db_path"` // sqlite only, relative to the project root
}

// RenderConfig holds contact-sheet layout options.
type RenderConfig struct {
	Format     string  `yaml:"format"` // png, svg or pdf
	Columns    int     `yaml:"columns"`
	CellSize   float64 `yaml:"cell_size"` // points
	Margin     float64 `yaml:"margin"`
	LabelSize  float64 `yaml:"label_size"`
	Candidates bool    `yaml:"candidates"` // also write one file per genome
}

// StyleConfig maps drawing roles to colors. Generators never read it.
type StyleConfig struct {
	Background string  `yaml:"background"`
	Body       string  `yaml:"body"`
	Shadow     string  `yaml:"shadow"`
	Line       string  `yaml:"line"`
	Dots       string  `yaml:"dots"`
	Accent     string  `yaml:"accent"`
	Label      string  `yaml:"label"`
	LineWidth  float64 `yaml:"line_width"`
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load reads path on top of the embedded defaults. Keys missing from the
// file keep their defaults and unknown keys are ignored. An empty path
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is Load that never fails. An unreadable or malformed file
// yields the embedded defaults; an invalid section falls back to its default
// while the rest of the file, parameter overrides included, is kept. Every
// fallback is logged.
func LoadOrDefault(path string, logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := read(path)
	if err != nil {
		logger.Warn("config_fallback", "path", path, "error", err)
		return Default()
	}
	defaults := Default()
	for _, section := range sectionNames {
		err := errors.Join(cfg.sectionErrors()[section]...)
		if err == nil {
			continue
		}
		logger.Warn("config_fallback", "path", path, "section", section, "error", err)
		switch section {
		case "evolution":
			cfg.Evolution = defaults.Evolution
		case "render":
			cfg.Render = defaults.Render
		case "style":
			cfg.Style = defaults.Style
		}
	}
	return cfg
}

func read(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Discover returns explicit when set, else the project file under root if it
// exists, else "".
func Discover(root, explicit string) string {
	if explicit != "" {
		return explicit
	}
	path := filepath.Join(root, ProjectFile)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

var sectionNames = []string{"evolution", "render", "style"}

// Validate checks value ranges and style colors.
func (c *Config) Validate() error {
	var errs []error
	sections := c.sectionErrors()
	for _, section := range sectionNames {
		errs = append(errs, sections[section]...)
	}
	return errors.Join(errs...)
}

func (c *Config) sectionErrors() map[string][]error {
	out := map[string][]error{}
	e := c.Evolution
	if e.PopulationSize <= 0 {
		out["evolution"] = append(out["evolution"], fmt.Errorf("evolution.population_size must be positive, got %d", e.PopulationSize))
	}
	if e.MutationRate < 0 || e.MutationRate > 1 {
		out["evolution"] = append(out["evolution"], fmt.Errorf("evolution.mutation_rate must be in [0,1], got %g", e.MutationRate))
	}
	if e.MutationStrength < 0 {
		out["evolution"] = append(out["evolution"], fmt.Errorf("evolution.mutation_strength must be non-negative, got %g", e.MutationStrength))
	}
	if _, err := evo.ParseCrossover(e.Crossover); err != nil {
		out["evolution"] = append(out["evolution"], fmt.Errorf("evolution.crossover: %w", err))
	}
	if _, err := shapes.ParseKind(e.Generator); err != nil {
		out["evolution"] = append(out["evolution"], fmt.Errorf("evolution.generator: %w", err))
	}
	switch c.Render.Format {
	case "png", "svg", "pdf":
	default:
		out["render"] = append(out["render"], fmt.Errorf("render.format must be png, svg or pdf, got %q", c.Render.Format))
	}
	if c.Render.Columns <= 0 || c.Render.CellSize <= 0 {
		out["render"] = append(out["render"], fmt.Errorf("render.columns and render.cell_size must be positive"))
	}
	names := make([]string, 0, len(c.Style.colors()))
	for name := range c.Style.colors() {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := ParseHexColor(c.Style.colors()[name]); err != nil {
			out["style"] = append(out["style"], fmt.Errorf("style.%s: %w", name, err))
		}
	}
	return out
}

// Table returns the built-in parameter table with overrides applied.
func (c *Config) Table(logger *slog.Logger) params.Table {
	return params.Defaults().Merge(c.Parameters, logger)
}

// WriteYAML writes the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func (s StyleConfig) colors() map[string]string {
	return map[string]string{
		"background": s.Background,
		"body":       s.Body,
		"shadow":     s.Shadow,
		"line":       s.Line,
		"dots":       s.Dots,
		"accent":     s.Accent,
		"label":      s.Label,
	}
}

// ParseHexColor accepts #rgb, #rrggbb and #rrggbbaa.
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Package platform ties the breeding core to persistence and rendering. A
// Studio runs one project directory through the generate, render, select
// and breed cycle.
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"formbreed/internal/config"
	"formbreed/internal/evo"
	"formbreed/internal/genotype"
	"formbreed/internal/geometry"
	"formbreed/internal/model"
	"formbreed/internal/params"
	"formbreed/internal/prompt"
	"formbreed/internal/render"
	"formbreed/internal/shapes"
	"formbreed/internal/stats"
	"formbreed/internal/storage"
)

var (
	ErrPopulationNotFound = errors.New("population not found")
	ErrWinnersNotFound    = errors.New("winners not found")
	ErrGenerationExists   = errors.New("generation already exists")
)

type Config struct {
	Root     string
	Store    storage.Store
	Settings *config.Config
	// Renderer overrides the vg renderer built from Settings.
	Renderer render.Renderer
	Logger   *slog.Logger
}

type Studio struct {
	root     string
	layout   storage.Layout
	store    storage.Store
	settings *config.Config
	table    params.Table
	renderer render.Renderer
	logger   *slog.Logger

	mu sync.Mutex
}

func NewStudio(cfg Config) (*Studio, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Settings == nil {
		cfg.Settings = config.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	renderer := cfg.Renderer
	if renderer == nil {
		var err error
		renderer, err = NewRenderer(cfg.Settings, "")
		if err != nil {
			return nil, err
		}
	}
	return &Studio{
		root:     cfg.Root,
		layout:   storage.Layout{Root: cfg.Root},
		store:    cfg.Store,
		settings: cfg.Settings,
		table:    cfg.Settings.Table(cfg.Logger),
		renderer: renderer,
		logger:   cfg.Logger,
	}, nil
}

// NewRenderer builds the vg renderer from settings. A non-empty format
// overrides the configured one.
func NewRenderer(settings *config.Config, format string) (*render.VGRenderer, error) {
	palette, err := render.PaletteFrom(settings.Style)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = settings.Render.Format
	}
	return render.NewVGRenderer(render.Options{
		Format:    format,
		Columns:   settings.Render.Columns,
		CellSize:  settings.Render.CellSize,
		Margin:    settings.Render.Margin,
		LabelSize: settings.Render.LabelSize,
	}, palette)
}

func (s *Studio) Close() error {
	return storage.CloseIfSupported(s.store)
}

func (s *Studio) Layout() storage.Layout { return s.layout }

func (s *Studio) Table() params.Table { return s.table }

func (s *Studio) Settings() *config.Config { return s.settings }

// Init prepares the project directory: store, generations dir, the
// project manifest and a starter config file. Existing files are kept.
func (s *Studio) Init(ctx context.Context, name string) (model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Init(ctx); err != nil {
		return model.Project{}, err
	}
	if err := os.MkdirAll(s.layout.GenerationsDir(), 0o755); err != nil {
		return model.Project{}, err
	}
	if err := os.MkdirAll(s.layout.StateDir(), 0o755); err != nil {
		return model.Project{}, err
	}

	project, ok, err := s.readProject()
	if err != nil {
		return model.Project{}, err
	}
	if !ok {
		if name == "" {
			abs, err := filepath.Abs(s.root)
			if err != nil {
				return model.Project{}, err
			}
			name = filepath.Base(abs)
		}
		project = model.Project{
			VersionedRecord: model.VersionedRecord{
				SchemaVersion: genotype.CurrentSchemaVersion,
				CodecVersion:  genotype.CurrentCodecVersion,
			},
			ID:        uuid.NewString(),
			Name:      name,
			Store:     s.settings.Storage.Backend,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := writeJSON(s.layout.ProjectPath(), project); err != nil {
			return model.Project{}, err
		}
		s.logger.Info("project_created", "id", project.ID, "name", project.Name)
	}

	cfgPath := filepath.Join(s.root, config.ProjectFile)
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		if err := s.settings.WriteYAML(cfgPath); err != nil {
			return model.Project{}, err
		}
	}
	return project, nil
}

// Project reads the manifest written by Init.
func (s *Studio) Project() (model.Project, bool, error) {
	return s.readProject()
}

func (s *Studio) readProject() (model.Project, bool, error) {
	data, err := os.ReadFile(s.layout.ProjectPath())
	if errors.Is(err, os.ErrNotExist) {
		return model.Project{}, false, nil
	}
	if err != nil {
		return model.Project{}, false, err
	}
	var project model.Project
	if err := json.Unmarshal(data, &project); err != nil {
		return model.Project{}, false, fmt.Errorf("decode project manifest: %w", err)
	}
	return project, true, nil
}

type GenerateRequest struct {
	Size      int
	Prompt    string
	Generator string
	Seed      int64
	Force     bool
}

type GenerateResult struct {
	Generation  int
	Seed        int64
	Population  []model.Genome
	Translation prompt.Result
	Diversity   float64
}

// Generate creates generation 0 at random, constrained by the prompt.
func (s *Studio) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := req.Size
	if size == 0 {
		size = s.settings.Evolution.PopulationSize
	}
	if size <= 0 {
		return GenerateResult{}, fmt.Errorf("population size must be positive, got %d", size)
	}
	generator := req.Generator
	if generator == "" {
		generator = s.settings.Evolution.Generator
	}
	kind, err := shapes.ParseKind(generator)
	if err != nil {
		return GenerateResult{}, err
	}
	if err := s.ensureFree(ctx, 0, req.Force); err != nil {
		return GenerateResult{}, err
	}

	translation := s.translate(req.Prompt)
	rng, seed := newRand(req.Seed)
	pop, err := evo.GeneratePopulation(rng, evo.PopulationConfig{
		Size:        size,
		Generation:  0,
		Generator:   kind.String(),
		Table:       s.table,
		Constraints: translation.Constraints,
		Prompt:      req.Prompt,
	})
	if err != nil {
		return GenerateResult{}, err
	}
	if err := s.store.SavePopulation(ctx, 0, pop); err != nil {
		return GenerateResult{}, err
	}

	diversity := evo.CalculateDiversity(pop)
	s.logger.Info("population_generated",
		"generation", 0, "size", len(pop), "generator", kind.String(), "seed", seed, "diversity", diversity)
	return GenerateResult{Seed: seed, Population: pop, Translation: translation, Diversity: diversity}, nil
}

// Translate runs the prompt translator against the effective table.
func (s *Studio) Translate(text string) prompt.Result {
	return prompt.Translate(text, s.table)
}

func (s *Studio) translate(text string) prompt.Result {
	res := prompt.Translate(text, s.table)
	if len(res.Matched) > 0 {
		s.logger.Debug("prompt_translated", "prompt", text, "matched", res.Matched)
	}
	for _, c := range res.Conflicts {
		s.logger.Warn("prompt_conflict", "trait", c.Trait, "keyword", c.Keyword, "resolved", c.Resolved.Min)
	}
	return res
}

type RenderRequest struct {
	Generation int
	// Format overrides the renderer format for this call.
	Format       string
	NoCandidates bool
}

type RenderResult struct {
	Generation   int
	ContactSheet string
	Candidates   []string
}

// Render writes the contact sheet and, when enabled, one file per genome.
func (s *Studio) Render(ctx context.Context, req RenderRequest) (RenderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pop, err := s.population(ctx, req.Generation)
	if err != nil {
		return RenderResult{}, err
	}
	renderer := s.renderer
	if req.Format != "" && req.Format != renderer.Format() {
		if renderer, err = NewRenderer(s.settings, req.Format); err != nil {
			return RenderResult{}, err
		}
	}

	ext := renderer.Format()
	res := RenderResult{Generation: req.Generation}
	if err := os.MkdirAll(s.layout.GenerationDir(req.Generation), 0o755); err != nil {
		return RenderResult{}, err
	}

	cells := make([]render.Cell, len(pop))
	for i, g := range pop {
		cells[i] = render.Cell{Index: i + 1, Form: s.formFunc(g)}
	}
	res.ContactSheet = s.layout.ContactSheetPath(req.Generation, ext)
	if err := writeFile(res.ContactSheet, func(f *os.File) error {
		return renderer.RenderSheet(f, cells)
	}); err != nil {
		return RenderResult{}, fmt.Errorf("render contact sheet: %w", err)
	}

	if s.settings.Render.Candidates && !req.NoCandidates {
		if err := os.MkdirAll(s.layout.CandidatesDir(req.Generation), 0o755); err != nil {
			return RenderResult{}, err
		}
		for _, cell := range cells {
			g := pop[cell.Index-1]
			path := s.layout.CandidatePath(req.Generation, cell.Index, g.ID, ext)
			if err := writeFile(path, func(f *os.File) error {
				return renderer.RenderCandidate(f, cell.Form)
			}); err != nil {
				return RenderResult{}, fmt.Errorf("render %s: %w", g.ID, err)
			}
			res.Candidates = append(res.Candidates, path)
		}
	}
	s.logger.Info("generation_rendered",
		"generation", req.Generation, "sheet", res.ContactSheet, "candidates", len(res.Candidates))
	return res, nil
}

func (s *Studio) formFunc(g model.Genome) render.FormFunc {
	return func(center geometry.Point, size float64) (geometry.Form, error) {
		return shapes.Generate(g, center, size, s.table)
	}
}

type SelectResult struct {
	Winners model.Winners
	Invalid []evo.InvalidIndexError
}

// Select records the winners of a generation from a comma-separated list of
// 1-based indices. Invalid entries are reported and skipped.
func (s *Studio) Select(ctx context.Context, generation int, indices string) (SelectResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pop, err := s.population(ctx, generation)
	if err != nil {
		return SelectResult{}, err
	}
	parsed, invalid := evo.ParseIndices(indices)
	sel, err := evo.ResolveWinners(pop, parsed)
	res := SelectResult{Invalid: append(invalid, sel.Invalid...)}
	for _, bad := range res.Invalid {
		s.logger.Warn("invalid_winner_index", "generation", generation, "error", bad.Error())
	}
	if err != nil {
		return res, fmt.Errorf("generation %d: %w", generation, err)
	}

	res.Winners = sel.Record(generation, len(pop))
	if err := s.store.SaveWinners(ctx, res.Winners); err != nil {
		return res, err
	}
	s.logger.Info("winners_recorded", "generation", generation, "indices", res.Winners.WinnerIndices)
	return res, nil
}

type BreedRequest struct {
	Generation int
	Size       int
	Seed       int64
	Force      bool
}

type BreedResult struct {
	Generation int
	Seed       int64
	Parents    []string
	Population []model.Genome
	Diversity  float64
}

// Breed creates generation+1 from the recorded winners of generation.
func (s *Studio) Breed(ctx context.Context, req BreedRequest) (BreedResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pop, err := s.population(ctx, req.Generation)
	if err != nil {
		return BreedResult{}, err
	}
	winners, ok, err := s.store.GetWinners(ctx, req.Generation)
	if err != nil {
		return BreedResult{}, err
	}
	if !ok {
		return BreedResult{}, fmt.Errorf("%w for generation %d: run select first", ErrWinnersNotFound, req.Generation)
	}
	parents := s.resolveParents(pop, winners)
	if len(parents) == 0 {
		return BreedResult{}, fmt.Errorf("generation %d: %w", req.Generation, evo.ErrNoValidWinners)
	}

	next := req.Generation + 1
	if err := s.ensureFree(ctx, next, req.Force); err != nil {
		return BreedResult{}, err
	}
	size := req.Size
	if size == 0 {
		size = s.settings.Evolution.PopulationSize
	}
	if size <= 0 {
		return BreedResult{}, fmt.Errorf("population size must be positive, got %d", size)
	}
	crossover, err := evo.ParseCrossover(s.settings.Evolution.Crossover)
	if err != nil {
		return BreedResult{}, err
	}

	rng, seed := newRand(req.Seed)
	offspring, err := evo.GeneratePopulation(rng, evo.PopulationConfig{
		Size:             size,
		Generation:       next,
		Table:            s.table,
		Parents:          parents,
		Crossover:        crossover,
		MutationRate:     s.settings.Evolution.MutationRate,
		MutationStrength: s.settings.Evolution.MutationStrength,
	})
	if err != nil {
		return BreedResult{}, err
	}
	if err := s.store.SavePopulation(ctx, next, offspring); err != nil {
		return BreedResult{}, err
	}

	ids := make([]string, len(parents))
	for i, p := range parents {
		ids[i] = p.ID
	}
	diversity := evo.CalculateDiversity(offspring)
	s.logger.Info("generation_bred",
		"generation", next, "size", len(offspring), "parents", len(parents),
		"crossover", crossover.String(), "seed", seed, "diversity", diversity)
	return BreedResult{Generation: next, Seed: seed, Parents: ids, Population: offspring, Diversity: diversity}, nil
}

// resolveParents looks winners up by recorded id, falling back to the
// recorded index when an id is not in the population.
func (s *Studio) resolveParents(pop []model.Genome, winners model.Winners) []model.Genome {
	byID := make(map[string]model.Genome, len(pop))
	for _, g := range pop {
		byID[g.ID] = g
	}
	var parents []model.Genome
	for i, id := range winners.WinnerIDs {
		if g, ok := byID[id]; ok {
			parents = append(parents, g)
			continue
		}
		s.logger.Warn("winner_missing", "generation", winners.Generation, "id", id)
		if i < len(winners.WinnerIndices) {
			parents = append(parents, evo.SelectWinners(pop, winners.WinnerIndices[i:i+1])...)
		}
	}
	if len(winners.WinnerIDs) == 0 {
		parents = evo.SelectWinners(pop, winners.WinnerIndices)
	}
	return parents
}

// Status reports every persisted generation in ascending order.
func (s *Studio) Status(ctx context.Context) ([]model.GenerationStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gens, err := s.store.ListGenerations(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]model.GenerationStatus, 0, len(gens))
	for _, gen := range gens {
		pop, _, err := s.store.GetPopulation(ctx, gen)
		if err != nil {
			return nil, err
		}
		var winners *model.Winners
		if w, ok, err := s.store.GetWinners(ctx, gen); err != nil {
			return nil, err
		} else if ok {
			winners = &w
		}
		rows = append(rows, stats.BuildStatus(gen, pop, winners, s.layout.ContactSheetExists(gen)))
	}
	return rows, nil
}

// LatestGeneration returns the highest stored generation.
func (s *Studio) LatestGeneration(ctx context.Context) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gens, err := s.store.ListGenerations(ctx)
	if err != nil || len(gens) == 0 {
		return 0, false, err
	}
	return gens[len(gens)-1], true, nil
}

// Lineage traces a genome's ancestry through stored generations.
func (s *Studio) Lineage(ctx context.Context, id string, depth int) ([]stats.LineageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stats.Lineage(ctx, s.store, id, depth)
}

// Population returns a stored generation.
func (s *Studio) Population(ctx context.Context, generation int) ([]model.Genome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.population(ctx, generation)
}

func (s *Studio) population(ctx context.Context, generation int) ([]model.Genome, error) {
	pop, ok, err := s.store.GetPopulation(ctx, generation)
	if err != nil {
		return nil, err
	}
	if !ok {
		hint := "run generate first"
		if generation > 0 {
			hint = fmt.Sprintf("run breed --gen %d first", generation-1)
		}
		return nil, fmt.Errorf("%w for generation %d: %s", ErrPopulationNotFound, generation, hint)
	}
	return pop, nil
}

func (s *Studio) ensureFree(ctx context.Context, generation int, force bool) error {
	_, exists, err := s.store.GetPopulation(ctx, generation)
	if err != nil {
		return err
	}
	if exists && !force {
		return fmt.Errorf("%w: generation %d (use --force to overwrite)", ErrGenerationExists, generation)
	}
	if !exists {
		return nil
	}
	// The old selection and renders describe genomes that are about to be
	// replaced under the same ids.
	if err := s.store.DeleteWinners(ctx, generation); err != nil {
		return fmt.Errorf("clear generation %d winners: %w", generation, err)
	}
	if err := s.layout.RemoveRenders(generation); err != nil {
		return fmt.Errorf("clear generation %d renders: %w", generation, err)
	}
	s.logger.Warn("generation_overwritten", "generation", generation)
	return nil
}

// newRand seeds a generator; seed 0 picks a time-based seed.
func newRand(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)), seed
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

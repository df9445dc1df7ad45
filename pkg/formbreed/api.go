package formbreed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"formbreed/internal/config"
	"formbreed/internal/evo"
	"formbreed/internal/model"
	"formbreed/internal/platform"
	"formbreed/internal/stats"
	"formbreed/internal/storage"
)

// Re-exported sentinels so callers can branch without importing internals.
var (
	ErrPopulationNotFound = platform.ErrPopulationNotFound
	ErrWinnersNotFound    = platform.ErrWinnersNotFound
	ErrGenerationExists   = platform.ErrGenerationExists
	ErrNoValidWinners     = evo.ErrNoValidWinners
)

type Options struct {
	Root       string
	ConfigPath string
	StoreKind  string
	DBPath     string
	Logger     *slog.Logger
}

type Client struct {
	studio     *platform.Studio
	root       string
	configPath string
}

type InitSummary struct {
	ID         string
	Name       string
	Root       string
	Store      string
	ConfigPath string
}

type GenerateRequest struct {
	Size      int
	Prompt    string
	Generator string
	Seed      int64
	Force     bool
}

type GenerateSummary struct {
	Generation int
	Seed       int64
	Size       int
	Generator  string
	Diversity  float64
	Matched    []string
	Conflicts  []string
}

type RenderRequest struct {
	Generation   int
	Latest       bool
	Format       string
	NoCandidates bool
}

type RenderSummary struct {
	Generation   int
	ContactSheet string
	Candidates   int
}

type SelectRequest struct {
	Generation int
	Latest     bool
	Indices    string
}

type SelectSummary struct {
	Generation int
	Indices    []int
	WinnerIDs  []string
	Invalid    []string
}

type BreedRequest struct {
	Generation int
	Latest     bool
	Size       int
	Seed       int64
	Force      bool
}

type BreedSummary struct {
	Generation int
	Seed       int64
	Size       int
	Parents    []string
	Diversity  float64
}

type StatusRequest struct {
	CSVPath   string
	ChartPath string
	JSONPath  string
}

type StatusReport struct {
	Generations []model.GenerationStatus
	Summary     stats.Summary
}

type LineageRequest struct {
	GenomeID string
	Depth    int
	CSVPath  string
}

type ParamItem struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
	Kind    string
}

type ConstraintItem struct {
	Trait string
	Min   float64
	Max   float64
}

type TranslateSummary struct {
	Prompt      string
	Matched     []string
	Constraints []ConstraintItem
	Conflicts   []string
}

func New(opts Options) (*Client, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	configPath := config.Discover(root, opts.ConfigPath)
	settings := config.LoadOrDefault(configPath, logger)

	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = settings.Storage.Backend
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = settings.Storage.DBPath
	}
	store, err := storage.NewStore(storeKind, root, dbPath)
	if err != nil {
		return nil, err
	}
	settings.Storage.Backend = storeKind

	studio, err := platform.NewStudio(platform.Config{
		Root:     root,
		Store:    store,
		Settings: settings,
		Logger:   logger,
	})
	if err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, err
	}
	return &Client{studio: studio, root: root, configPath: configPath}, nil
}

func (c *Client) Close() error {
	return c.studio.Close()
}

func (c *Client) Init(ctx context.Context, name string) (InitSummary, error) {
	project, err := c.studio.Init(ctx, name)
	if err != nil {
		return InitSummary{}, err
	}
	return InitSummary{
		ID:         project.ID,
		Name:       project.Name,
		Root:       c.root,
		Store:      project.Store,
		ConfigPath: config.Discover(c.root, c.configPath),
	}, nil
}

func (c *Client) Generate(ctx context.Context, req GenerateRequest) (GenerateSummary, error) {
	res, err := c.studio.Generate(ctx, platform.GenerateRequest{
		Size:      req.Size,
		Prompt:    req.Prompt,
		Generator: req.Generator,
		Seed:      req.Seed,
		Force:     req.Force,
	})
	if err != nil {
		return GenerateSummary{}, err
	}
	summary := GenerateSummary{
		Generation: res.Generation,
		Seed:       res.Seed,
		Size:       len(res.Population),
		Diversity:  res.Diversity,
		Matched:    res.Translation.Matched,
	}
	if len(res.Population) > 0 {
		summary.Generator = res.Population[0].Generator
	}
	for _, conflict := range res.Translation.Conflicts {
		summary.Conflicts = append(summary.Conflicts, conflict.String())
	}
	return summary, nil
}

func (c *Client) Render(ctx context.Context, req RenderRequest) (RenderSummary, error) {
	gen, err := c.resolveGeneration(ctx, req.Generation, req.Latest)
	if err != nil {
		return RenderSummary{}, err
	}
	res, err := c.studio.Render(ctx, platform.RenderRequest{
		Generation:   gen,
		Format:       req.Format,
		NoCandidates: req.NoCandidates,
	})
	if err != nil {
		return RenderSummary{}, err
	}
	return RenderSummary{Generation: gen, ContactSheet: res.ContactSheet, Candidates: len(res.Candidates)}, nil
}

// Select records winners. On ErrNoValidWinners the summary still lists
// every rejected entry.
func (c *Client) Select(ctx context.Context, req SelectRequest) (SelectSummary, error) {
	gen, err := c.resolveGeneration(ctx, req.Generation, req.Latest)
	if err != nil {
		return SelectSummary{}, err
	}
	res, err := c.studio.Select(ctx, gen, req.Indices)
	summary := SelectSummary{
		Generation: gen,
		Indices:    res.Winners.WinnerIndices,
		WinnerIDs:  res.Winners.WinnerIDs,
	}
	for _, bad := range res.Invalid {
		summary.Invalid = append(summary.Invalid, bad.Error())
	}
	return summary, err
}

func (c *Client) Breed(ctx context.Context, req BreedRequest) (BreedSummary, error) {
	gen, err := c.resolveGeneration(ctx, req.Generation, req.Latest)
	if err != nil {
		return BreedSummary{}, err
	}
	res, err := c.studio.Breed(ctx, platform.BreedRequest{
		Generation: gen,
		Size:       req.Size,
		Seed:       req.Seed,
		Force:      req.Force,
	})
	if err != nil {
		return BreedSummary{}, err
	}
	return BreedSummary{
		Generation: res.Generation,
		Seed:       res.Seed,
		Size:       len(res.Population),
		Parents:    res.Parents,
		Diversity:  res.Diversity,
	}, nil
}

// Status reports every generation and optionally exports the rows.
func (c *Client) Status(ctx context.Context, req StatusRequest) (StatusReport, error) {
	rows, err := c.studio.Status(ctx)
	if err != nil {
		return StatusReport{}, err
	}
	if req.CSVPath != "" {
		if err := writeFile(req.CSVPath, func(f *os.File) error { return stats.WriteStatusCSV(f, rows) }); err != nil {
			return StatusReport{}, err
		}
	}
	if req.JSONPath != "" {
		if err := stats.WriteStatusJSON(req.JSONPath, rows); err != nil {
			return StatusReport{}, err
		}
	}
	if req.ChartPath != "" {
		if err := stats.WriteDiversityChart(req.ChartPath, rows); err != nil {
			return StatusReport{}, err
		}
	}
	return StatusReport{Generations: rows, Summary: stats.Summarize(rows)}, nil
}

func (c *Client) Lineage(ctx context.Context, req LineageRequest) ([]stats.LineageEntry, error) {
	if req.GenomeID == "" {
		return nil, errors.New("lineage requires a genome id")
	}
	if req.Depth < 0 {
		return nil, errors.New("depth must be >= 0")
	}
	entries, err := c.studio.Lineage(ctx, req.GenomeID, req.Depth)
	if err != nil {
		return nil, err
	}
	if req.CSVPath != "" {
		if err := writeFile(req.CSVPath, func(f *os.File) error { return stats.WriteLineageCSV(f, entries) }); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// Params lists the effective parameter table after config overrides.
func (c *Client) Params() []ParamItem {
	table := c.studio.Table()
	out := make([]ParamItem, 0, table.Len())
	for _, name := range table.Names() {
		spec, _ := table.Spec(name)
		out = append(out, ParamItem{
			Name:    name,
			Min:     spec.Min,
			Max:     spec.Max,
			Default: spec.Default,
			Kind:    string(spec.Kind),
		})
	}
	return out
}

func (c *Client) Translate(text string) TranslateSummary {
	res := c.studio.Translate(text)
	summary := TranslateSummary{Prompt: text, Matched: res.Matched}
	for _, trait := range res.Traits() {
		r := res.Constraints[trait]
		summary.Constraints = append(summary.Constraints, ConstraintItem{Trait: trait, Min: r.Min, Max: r.Max})
	}
	for _, conflict := range res.Conflicts {
		summary.Conflicts = append(summary.Conflicts, conflict.String())
	}
	return summary
}

func (c *Client) resolveGeneration(ctx context.Context, generation int, latest bool) (int, error) {
	if !latest {
		if generation < 0 {
			return 0, fmt.Errorf("invalid generation: %d", generation)
		}
		return generation, nil
	}
	gen, ok, err := c.studio.LatestGeneration(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: no generations yet, run generate first", ErrPopulationNotFound)
	}
	return gen, nil
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

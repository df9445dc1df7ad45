package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"formbreed/pkg/formbreed"
)

var stdout io.Writer = os.Stdout

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "generate":
		return runGenerate(ctx, args[1:])
	case "render":
		return runRender(ctx, args[1:])
	case "select":
		return runSelect(ctx, args[1:])
	case "breed":
		return runBreed(ctx, args[1:])
	case "status":
		return runStatus(ctx, args[1:])
	case "lineage":
		return runLineage(ctx, args[1:])
	case "params":
		return runParams(ctx, args[1:])
	case "translate":
		return runTranslate(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

// commonOptions are the flags every subcommand accepts.
type commonOptions struct {
	root      *string
	config    *string
	storeKind *string
	dbPath    *string
	logFormat *string
	verbose   *bool
}

func addCommonFlags(fs *flag.FlagSet) commonOptions {
	return commonOptions{
		root:      fs.String("root", ".", "project directory"),
		config:    fs.String("config", "", "config file (default <root>/formbreed.yaml when present)"),
		storeKind: fs.String("store", "", "store backend: file|memory|sqlite (default from config)"),
		dbPath:    fs.String("db-path", "", "sqlite database path, relative to --root"),
		logFormat: fs.String("log-format", "text", "log format: text|json"),
		verbose:   fs.Bool("verbose", false, "enable debug logging"),
	}
}

func (o commonOptions) open() (*formbreed.Client, error) {
	logger, err := newLogger(*o.logFormat, *o.verbose)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return formbreed.New(formbreed.Options{
		Root:       *o.root,
		ConfigPath: *o.config,
		StoreKind:  *o.storeKind,
		DBPath:     *o.dbPath,
		Logger:     logger,
	})
}

func newLogger(format string, verbose bool) (*slog.Logger, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	common := addCommonFlags(fs)
	name := fs.String("name", "", "project name (default directory name)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := common.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Init(ctx, *name)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "initialized project=%s id=%s root=%s store=%s config=%s\n",
		summary.Name, summary.ID, summary.Root, summary.Store, summary.ConfigPath)
	return nil
}

func runGenerate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	common := addCommonFlags(fs)
	size := fs.Int("size", 0, "population size (default from config)")
	promptText := fs.String("prompt", "", "free-text description constraining the random traits")
	generator := fs.String("generator", "", "shape generator: soft_blob|layered|outline|dot_field|accent_nodes")
	seed := fs.Int64("seed", 0, "random seed (0 = time based)")
	force := fs.Bool("force", false, "overwrite an existing generation 0")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *size < 0 {
		return errors.New("--size must be >= 0")
	}

	client, err := common.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Generate(ctx, formbreed.GenerateRequest{
		Size:      *size,
		Prompt:    *promptText,
		Generator: *generator,
		Seed:      *seed,
		Force:     *force,
	})
	if err != nil {
		return err
	}
	for _, c := range summary.Conflicts {
		fmt.Fprintf(stdout, "warning: prompt conflict %s\n", c)
	}
	fmt.Fprintf(stdout, "generated gen=%d size=%d generator=%s seed=%d diversity=%.4f matched=%s\n",
		summary.Generation, summary.Size, summary.Generator, summary.Seed, summary.Diversity, strings.Join(summary.Matched, ","))
	return nil
}

func runRender(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	common := addCommonFlags(fs)
	gen := fs.Int("gen", 0, "generation to render")
	latest := fs.Bool("latest", false, "render the most recent generation")
	format := fs.String("format", "", "output format: png|svg|pdf (default from config)")
	noCandidates := fs.Bool("no-candidates", false, "only write the contact sheet")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := common.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Render(ctx, formbreed.RenderRequest{
		Generation:   *gen,
		Latest:       *latest,
		Format:       *format,
		NoCandidates: *noCandidates,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "rendered gen=%d sheet=%s candidates=%d\n", summary.Generation, summary.ContactSheet, summary.Candidates)
	return nil
}

func runSelect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("select", flag.ContinueOnError)
	common := addCommonFlags(fs)
	gen := fs.Int("gen", 0, "generation the winners belong to")
	latest := fs.Bool("latest", false, "select from the most recent generation")
	winners := fs.String("winners", "", "comma-separated 1-based indices, e.g. 2,5,9")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *winners == "" && fs.NArg() > 0 {
		*winners = strings.Join(fs.Args(), ",")
	}
	if strings.TrimSpace(*winners) == "" {
		return errors.New("select requires --winners")
	}

	client, err := common.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Select(ctx, formbreed.SelectRequest{
		Generation: *gen,
		Latest:     *latest,
		Indices:    *winners,
	})
	for _, bad := range summary.Invalid {
		fmt.Fprintf(stdout, "skipped: %s\n", bad)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "selected gen=%d indices=%s ids=%s\n",
		summary.Generation, joinInts(summary.Indices), strings.Join(summary.WinnerIDs, ","))
	return nil
}

func runBreed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("breed", flag.ContinueOnError)
	common := addCommonFlags(fs)
	gen := fs.Int("gen", 0, "generation whose winners are bred")
	latest := fs.Bool("latest", false, "breed from the most recent generation")
	size := fs.Int("size", 0, "offspring count (default from config)")
	seed := fs.Int64("seed", 0, "random seed (0 = time based)")
	force := fs.Bool("force", false, "overwrite an existing next generation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *size < 0 {
		return errors.New("--size must be >= 0")
	}

	client, err := common.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Breed(ctx, formbreed.BreedRequest{
		Generation: *gen,
		Latest:     *latest,
		Size:       *size,
		Seed:       *seed,
		Force:      *force,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "bred gen=%d size=%d parents=%s seed=%d diversity=%.4f\n",
		summary.Generation, summary.Size, strings.Join(summary.Parents, ","), summary.Seed, summary.Diversity)
	return nil
}

func runStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	common := addCommonFlags(fs)
	csvPath := fs.String("csv", "", "also write the status rows as CSV")
	chartPath := fs.String("chart", "", "also write a diversity chart (.png, .svg or .pdf)")
	jsonOut := fs.Bool("json", false, "emit status as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := common.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	report, err := client.Status(ctx, formbreed.StatusRequest{CSVPath: *csvPath, ChartPath: *chartPath})
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	if len(report.Generations) == 0 {
		fmt.Fprintln(stdout, "no generations")
		return nil
	}
	for _, row := range report.Generations {
		winners := joinInts(row.WinnerIndices)
		if winners == "" {
			winners = "-"
		}
		fmt.Fprintf(stdout, "gen=%d size=%d diversity=%.4f winners=%s contact_sheet=%t\n",
			row.Generation, row.PopulationSize, row.Diversity, winners, row.ContactSheet)
	}
	s := report.Summary
	fmt.Fprintf(stdout, "generations=%d candidates=%d selected=%d diversity_mean=%.4f diversity_std=%.4f\n",
		s.Generations, s.Candidates, s.Selected, s.MeanDiversity, s.StdDiversity)
	return nil
}

func runLineage(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("lineage", flag.ContinueOnError)
	common := addCommonFlags(fs)
	id := fs.String("id", "", "genome id, e.g. gen002_0007")
	depth := fs.Int("depth", 0, "max ancestor depth (<=0 for all)")
	csvPath := fs.String("csv", "", "also write the lineage as CSV")
	jsonOut := fs.Bool("json", false, "emit lineage rows as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("lineage requires --id")
	}
	if *depth < 0 {
		*depth = 0
	}

	client, err := common.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	lineage, err := client.Lineage(ctx, formbreed.LineageRequest{GenomeID: *id, Depth: *depth, CSVPath: *csvPath})
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(lineage)
	}
	for _, rec := range lineage {
		if rec.Missing {
			fmt.Fprintf(stdout, "depth=%d genome_id=%s missing\n", rec.Depth, rec.GenomeID)
			continue
		}
		parents := rec.Parents
		if parents == "" {
			parents = "-"
		}
		fmt.Fprintf(stdout, "depth=%d gen=%d genome_id=%s generator=%s parents=%s\n",
			rec.Depth, rec.Generation, rec.GenomeID, rec.Generator, parents)
	}
	return nil
}

func runParams(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("params", flag.ContinueOnError)
	common := addCommonFlags(fs)
	jsonOut := fs.Bool("json", false, "emit the table as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := common.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items := client.Params()
	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	for _, p := range items {
		fmt.Fprintf(stdout, "%-16s kind=%-5s min=%g max=%g default=%g\n", p.Name, p.Kind, p.Min, p.Max, p.Default)
	}
	return nil
}

func runTranslate(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	common := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := strings.Join(fs.Args(), " ")
	if text == "" {
		return errors.New("translate requires prompt text")
	}

	client, err := common.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary := client.Translate(text)
	if len(summary.Matched) == 0 {
		fmt.Fprintln(stdout, "no keywords matched")
		return nil
	}
	fmt.Fprintf(stdout, "matched=%s\n", strings.Join(summary.Matched, ","))
	for _, c := range summary.Constraints {
		fmt.Fprintf(stdout, "%-16s [%.3f, %.3f]\n", c.Trait, c.Min, c.Max)
	}
	for _, c := range summary.Conflicts {
		fmt.Fprintf(stdout, "conflict: %s\n", c)
	}
	return nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: formbreedctl <init|generate|render|select|breed|status|lineage|params|translate> [flags]", msg)
}

package formbreed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, root string) *Client {
	t.Helper()
	client, err := New(Options{Root: root, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestClientBreedingLoop(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "formbreed.yaml"), []byte("render:\n  format: svg\n  cell_size: 50\n  candidates: false\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	client := newTestClient(t, root)

	initSummary, err := client.Init(ctx, "loop")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if initSummary.ID == "" || !strings.HasSuffix(initSummary.ConfigPath, "formbreed.yaml") {
		t.Fatalf("unexpected init summary: %+v", initSummary)
	}

	gen, err := client.Generate(ctx, GenerateRequest{Size: 6, Prompt: "dense dot", Generator: "dot_field", Seed: 3})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if gen.Size != 6 || gen.Generator != "dot_field" {
		t.Fatalf("unexpected generate summary: %+v", gen)
	}

	rendered, err := client.Render(ctx, RenderRequest{Latest: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if filepath.Ext(rendered.ContactSheet) != ".svg" || rendered.Candidates != 0 {
		t.Fatalf("unexpected render summary: %+v", rendered)
	}

	sel, err := client.Select(ctx, SelectRequest{Latest: true, Indices: "1,3,7"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(sel.WinnerIDs) != 2 || len(sel.Invalid) != 1 {
		t.Fatalf("unexpected select summary: %+v", sel)
	}

	bred, err := client.Breed(ctx, BreedRequest{Latest: true, Size: 4, Seed: 9})
	if err != nil {
		t.Fatalf("breed: %v", err)
	}
	if bred.Generation != 1 || bred.Size != 4 || len(bred.Parents) != 2 {
		t.Fatalf("unexpected breed summary: %+v", bred)
	}

	csvPath := filepath.Join(root, "status.csv")
	report, err := client.Status(ctx, StatusRequest{CSVPath: csvPath})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(report.Generations) != 2 || report.Summary.Candidates != 10 || report.Summary.Selected != 2 {
		t.Fatalf("unexpected status report: %+v", report)
	}
	if data, err := os.ReadFile(csvPath); err != nil || !strings.HasPrefix(string(data), "generation,") {
		t.Fatalf("expected status csv: %v", err)
	}

	lineage, err := client.Lineage(ctx, LineageRequest{GenomeID: "gen001_0001"})
	if err != nil {
		t.Fatalf("lineage: %v", err)
	}
	if lineage[0].GenomeID != "gen001_0001" || lineage[0].Generator != "dot_field" {
		t.Fatalf("unexpected lineage: %+v", lineage)
	}
}

func TestClientLatestWithoutGenerations(t *testing.T) {
	client := newTestClient(t, t.TempDir())
	if _, err := client.Render(context.Background(), RenderRequest{Latest: true}); !errors.Is(err, ErrPopulationNotFound) {
		t.Fatalf("expected ErrPopulationNotFound, got %v", err)
	}
	if _, err := client.Lineage(context.Background(), LineageRequest{}); err == nil {
		t.Fatal("expected error for empty genome id")
	}
}

func TestClientParamsAndTranslate(t *testing.T) {
	client := newTestClient(t, t.TempDir())
	items := client.Params()
	if len(items) == 0 {
		t.Fatal("expected parameter table")
	}
	for _, item := range items {
		if item.Min > item.Default || item.Default > item.Max {
			t.Fatalf("invalid spec %+v", item)
		}
	}

	summary := client.Translate("Soft, five petals")
	if len(summary.Matched) == 0 {
		t.Fatalf("expected matches: %+v", summary)
	}
	found := false
	for _, c := range summary.Constraints {
		if c.Trait == "lobe_count" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected lobe_count constraint: %+v", summary.Constraints)
	}
}

func TestClientMemoryStore(t *testing.T) {
	root := t.TempDir()
	client, err := New(Options{Root: root, StoreKind: "memory", Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()
	if _, err := client.Generate(context.Background(), GenerateRequest{Size: 2, Seed: 1}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "generations", "gen_000", "population.jsonl")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("memory store wrote population file: %v", err)
	}
	if _, err := New(Options{Root: root, StoreKind: "etcd"}); err == nil {
		t.Fatal("expected unsupported store error")
	}
}

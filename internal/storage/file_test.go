package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreContract(t *testing.T) {
	exerciseStore(t, NewFileStore(t.TempDir()))
}

func TestFileStoreLayout(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root)
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := store.SavePopulation(ctx, 3, nil); err != nil {
		t.Fatalf("save population: %v", err)
	}
	want := filepath.Join(root, "generations", "gen_003", "population.jsonl")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected population file at %s: %v", want, err)
	}

	layout := store.Layout()
	if got := layout.CandidatePath(3, 7, "gen003_0007", "png"); got != filepath.Join(root, "generations", "gen_003", "candidates", "0007_gen003_0007.png") {
		t.Fatalf("unexpected candidate path: %s", got)
	}
	if layout.ContactSheetExists(3) {
		t.Fatal("no contact sheet rendered yet")
	}
	if err := os.WriteFile(layout.ContactSheetPath(3, "svg"), []byte("<svg/>"), 0o644); err != nil {
		t.Fatalf("write sheet: %v", err)
	}
	if !layout.ContactSheetExists(3) {
		t.Fatal("expected contact sheet to be detected")
	}

	// Directories without a population file are not generations.
	if err := os.MkdirAll(layout.GenerationDir(9), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	gens, err := store.ListGenerations(ctx)
	if err != nil {
		t.Fatalf("list generations: %v", err)
	}
	if len(gens) != 1 || gens[0] != 3 {
		t.Fatalf("unexpected generations: %v", gens)
	}
}

func TestFileStoreReportsCorruptLine(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root)
	path := store.Layout().PopulationPath(0)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := store.GetPopulation(context.Background(), 0); err == nil {
		t.Fatal("expected decode error")
	}
}

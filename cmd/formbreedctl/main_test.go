package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func captureRun(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	orig := stdout
	stdout = &buf
	t.Cleanup(func() {
		stdout = orig
	})
	err := run(context.Background(), args)
	return buf.String(), err
}

func TestCommandCycle(t *testing.T) {
	root := t.TempDir()

	out, err := captureRun(t, "init", "--root", root, "--name", "demo")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "initialized project=demo") {
		t.Fatalf("unexpected init output: %q", out)
	}

	out, err = captureRun(t, "generate", "--root", root, "--size", "6", "--seed", "5", "--prompt", "angular sparse")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out, "generated gen=0 size=6") || !strings.Contains(out, "seed=5") {
		t.Fatalf("unexpected generate output: %q", out)
	}

	if _, err := captureRun(t, "render", "--root", root, "--gen", "0", "--format", "svg", "--no-candidates"); err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "generations", "gen_000", "contact_sheet.svg")); err != nil {
		t.Fatalf("expected contact sheet: %v", err)
	}

	out, err = captureRun(t, "select", "--root", root, "--gen", "0", "--winners", "2,5,0")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !strings.Contains(out, "skipped: winner index 0 out of range [1, 6]") || !strings.Contains(out, "indices=2,5") {
		t.Fatalf("unexpected select output: %q", out)
	}

	out, err = captureRun(t, "breed", "--root", root, "--latest", "--size", "4", "--seed", "8")
	if err != nil {
		t.Fatalf("breed: %v", err)
	}
	if !strings.Contains(out, "bred gen=1 size=4") {
		t.Fatalf("unexpected breed output: %q", out)
	}

	csvPath := filepath.Join(root, "status.csv")
	out, err = captureRun(t, "status", "--root", root, "--csv", csvPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "gen=0 size=6") || !strings.Contains(out, "winners=2,5 contact_sheet=true") {
		t.Fatalf("unexpected status output: %q", out)
	}
	if _, err := os.Stat(csvPath); err != nil {
		t.Fatalf("expected csv export: %v", err)
	}

	out, err = captureRun(t, "lineage", "--root", root, "--id", "gen001_0001", "--json")
	if err != nil {
		t.Fatalf("lineage: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode lineage json: %v", err)
	}
	if len(rows) < 2 || rows[0]["genome_id"] != "gen001_0001" {
		t.Fatalf("unexpected lineage rows: %v", rows)
	}
}

func TestBreedWithoutWinnersFails(t *testing.T) {
	root := t.TempDir()
	if _, err := captureRun(t, "generate", "--root", root, "--size", "3", "--seed", "1"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	_, err := captureRun(t, "breed", "--root", root, "--gen", "0")
	if err == nil || !strings.Contains(err.Error(), "run select first") {
		t.Fatalf("expected missing winners hint, got %v", err)
	}
}

func TestTranslateAndParams(t *testing.T) {
	root := t.TempDir()
	out, err := captureRun(t, "translate", "--root", root, "soft", "three", "lobes")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if !strings.Contains(out, "lobe_count") || !strings.Contains(out, "roundness") {
		t.Fatalf("unexpected translate output: %q", out)
	}

	out, err = captureRun(t, "params", "--root", root)
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if !strings.Contains(out, "lobe_count") || !strings.Contains(out, "kind=int") {
		t.Fatalf("unexpected params output: %q", out)
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	if err := run(context.Background(), nil); err == nil {
		t.Fatal("expected usage error")
	}
	if err := run(context.Background(), []string{"evolve"}); err == nil || !strings.Contains(err.Error(), "usage:") {
		t.Fatalf("expected usage error, got %v", err)
	}
	if _, err := captureRun(t, "status", "--log-format", "xml"); err == nil {
		t.Fatal("expected log format error")
	}
}

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Layout resolves the on-disk paths of a project. Render artifacts always
// live here, whichever backend holds the records.
type Layout struct {
	Root string
}

const (
	generationsDir = "generations"
	generationPfx  = "gen_"
	populationFile = "population.jsonl"
	winnersFile    = "winners.json"
	contactSheet   = "contact_sheet"
	candidatesDir  = "candidates"
	stateDir       = ".formbreed"
	projectFile    = "project.json"
)

func (l Layout) GenerationsDir() string {
	return filepath.Join(l.Root, generationsDir)
}

func (l Layout) GenerationDir(generation int) string {
	return filepath.Join(l.GenerationsDir(), fmt.Sprintf("%s%03d", generationPfx, generation))
}

func (l Layout) PopulationPath(generation int) string {
	return filepath.Join(l.GenerationDir(generation), populationFile)
}

func (l Layout) WinnersPath(generation int) string {
	return filepath.Join(l.GenerationDir(generation), winnersFile)
}

func (l Layout) ContactSheetPath(generation int, ext string) string {
	return filepath.Join(l.GenerationDir(generation), contactSheet+"."+ext)
}

func (l Layout) CandidatesDir(generation int) string {
	return filepath.Join(l.GenerationDir(generation), candidatesDir)
}

// CandidatePath names one rendered genome by its 1-based display index.
func (l Layout) CandidatePath(generation, index int, id, ext string) string {
	return filepath.Join(l.CandidatesDir(generation), fmt.Sprintf("%04d_%s.%s", index, id, ext))
}

func (l Layout) StateDir() string {
	return filepath.Join(l.Root, stateDir)
}

func (l Layout) ProjectPath() string {
	return filepath.Join(l.StateDir(), projectFile)
}

// ContactSheetExists reports whether any contact sheet format was rendered
// for generation.
func (l Layout) ContactSheetExists(generation int) bool {
	matches, err := filepath.Glob(filepath.Join(l.GenerationDir(generation), contactSheet+".*"))
	return err == nil && len(matches) > 0
}

// RemoveRenders deletes the contact sheets and candidate files rendered for
// generation.
func (l Layout) RemoveRenders(generation int) error {
	sheets, err := filepath.Glob(filepath.Join(l.GenerationDir(generation), contactSheet+".*"))
	if err != nil {
		return err
	}
	for _, path := range sheets {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return os.RemoveAll(l.CandidatesDir(generation))
}

// generationDirs lists generation numbers with a directory under root.
func (l Layout) generationDirs() ([]int, error) {
	entries, err := os.ReadDir(l.GenerationsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []int
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), generationPfx) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(e.Name(), generationPfx))
		if err != nil || n < 0 {
			continue
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

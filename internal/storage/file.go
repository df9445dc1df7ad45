package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"formbreed/internal/model"
)

// FileStore keeps each generation as line-oriented records under
// <root>/generations/gen_NNN. Files are always rewritten whole.
type FileStore struct {
	layout Layout
}

func NewFileStore(root string) *FileStore {
	return &FileStore{layout: Layout{Root: root}}
}

func (s *FileStore) Layout() Layout {
	return s.layout
}

func (s *FileStore) Init(_ context.Context) error {
	if s.layout.Root == "" {
		return errors.New("project root is required")
	}
	return os.MkdirAll(s.layout.GenerationsDir(), 0o755)
}

func (s *FileStore) SavePopulation(_ context.Context, generation int, population []model.Genome) error {
	path := s.layout.PopulationPath(generation)
	return writeFileAtomic(path, func(w io.Writer) error {
		return WritePopulation(w, population)
	})
}

func (s *FileStore) GetPopulation(_ context.Context, generation int) ([]model.Genome, bool, error) {
	f, err := os.Open(s.layout.PopulationPath(generation))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	population, err := ReadPopulation(f)
	if err != nil {
		return nil, false, fmt.Errorf("read generation %d population: %w", generation, err)
	}
	return population, true, nil
}

func (s *FileStore) SaveWinners(_ context.Context, winners model.Winners) error {
	payload, err := EncodeWinners(winners)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.layout.WinnersPath(winners.Generation), func(w io.Writer) error {
		_, err := w.Write(append(payload, '\n'))
		return err
	})
}

func (s *FileStore) GetWinners(_ context.Context, generation int) (model.Winners, bool, error) {
	data, err := os.ReadFile(s.layout.WinnersPath(generation))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Winners{}, false, nil
		}
		return model.Winners{}, false, err
	}
	winners, err := DecodeWinners(data)
	if err != nil {
		return model.Winners{}, false, fmt.Errorf("decode generation %d winners: %w", generation, err)
	}
	return winners, true, nil
}

func (s *FileStore) DeleteWinners(_ context.Context, generation int) error {
	err := os.Remove(s.layout.WinnersPath(generation))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) ListGenerations(_ context.Context) ([]int, error) {
	dirs, err := s.layout.generationDirs()
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(dirs))
	for _, gen := range dirs {
		if _, err := os.Stat(s.layout.PopulationPath(gen)); err == nil {
			out = append(out, gen)
		}
	}
	return out, nil
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

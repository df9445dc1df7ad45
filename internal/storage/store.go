package storage

import (
	"context"

	"formbreed/internal/model"
)

// Store persists generations: the ordered population of each generation and
// its optional winners record. Saving a population replaces it whole;
// DeleteWinners drops a generation's winners record and is a no-op when
// none exists.
type Store interface {
	Init(ctx context.Context) error
	SavePopulation(ctx context.Context, generation int, population []model.Genome) error
	GetPopulation(ctx context.Context, generation int) ([]model.Genome, bool, error)
	SaveWinners(ctx context.Context, winners model.Winners) error
	GetWinners(ctx context.Context, generation int) (model.Winners, bool, error)
	DeleteWinners(ctx context.Context, generation int) error
	ListGenerations(ctx context.Context) ([]int, error)
}

//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"formbreed/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SavePopulation(ctx context.Context, generation int, population []model.Genome) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodePopulation(population)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO populations (generation, schema_version, codec_version, size, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(generation) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			size = excluded.size,
			payload = excluded.payload
	`, generation, CurrentSchemaVersion, CurrentCodecVersion, len(population), payload)
	return err
}

func (s *SQLiteStore) GetPopulation(ctx context.Context, generation int) ([]model.Genome, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM populations WHERE generation = ?`, generation).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	population, err := DecodePopulation(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode generation %d population: %w", generation, err)
	}
	return population, true, nil
}

func (s *SQLiteStore) SaveWinners(ctx context.Context, winners model.Winners) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeWinners(winners)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO winners (generation, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(generation) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, winners.Generation, winners.SchemaVersion, winners.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetWinners(ctx context.Context, generation int) (model.Winners, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.Winners{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM winners WHERE generation = ?`, generation).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Winners{}, false, nil
		}
		return model.Winners{}, false, err
	}

	winners, err := DecodeWinners(payload)
	if err != nil {
		return model.Winners{}, false, fmt.Errorf("decode generation %d winners: %w", generation, err)
	}
	return winners, true, nil
}

func (s *SQLiteStore) DeleteWinners(ctx context.Context, generation int) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM winners WHERE generation = ?`, generation)
	return err
}

func (s *SQLiteStore) ListGenerations(ctx context.Context) ([]int, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT generation FROM populations ORDER BY generation`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var gen int
		if err := rows.Scan(&gen); err != nil {
			return nil, err
		}
		out = append(out, gen)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS populations (
			generation INTEGER PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			size INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS winners (
			generation INTEGER PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}

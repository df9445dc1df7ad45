package storage

import (
	"fmt"
	"path/filepath"
)

// DefaultStoreKind is the line-oriented file backend.
const DefaultStoreKind = "file"

// DefaultSQLiteFile is the database name used when no path is configured.
const DefaultSQLiteFile = "formbreed.db"

// NewStore builds a backend. root is the project directory; sqlitePath,
// when relative, is resolved against it.
func NewStore(kind, root, sqlitePath string) (Store, error) {
	switch kind {
	case "", "file":
		return NewFileStore(root), nil
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if sqlitePath == "" {
			sqlitePath = filepath.Join(Layout{Root: root}.StateDir(), DefaultSQLiteFile)
		} else if !filepath.IsAbs(sqlitePath) {
			sqlitePath = filepath.Join(root, sqlitePath)
		}
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}

/*
Package storage persists built similarity indexes.

Indexes are stored in a single SQLite file (default ~/.moviepicker/index.db)
using modernc.org/sqlite, a pure Go, CGo-free implementation. A build writes
the whole index in one transaction; serving loads it once at startup and
never touches the database again.
*/
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/khanglvm/movie-picker/internal/logging"
	"github.com/khanglvm/movie-picker/internal/similarity"

	_ "modernc.org/sqlite"
)

// ErrIndexNotFound is returned when no index is stored under a name.
var ErrIndexNotFound = errors.New("index not found")

// Store defines the index persistence operations.
type Store interface {
	// Init opens the database and runs migrations.
	Init() error

	// SaveIndex stores idx under meta.Name, replacing any previous index
	// of the same name.
	SaveIndex(ctx context.Context, idx *similarity.Index, meta Meta) (Meta, error)

	// LoadIndex reads and validates a stored index.
	LoadIndex(ctx context.Context, name string) (*similarity.Index, Meta, error)

	// ListIndexes returns metadata of every stored index, newest first.
	ListIndexes(ctx context.Context) ([]Meta, error)

	// DeleteIndex removes a stored index.
	DeleteIndex(ctx context.Context, name string) error

	// Close closes the database connection.
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db       *sql.DB
	dbPath   string
	mu       sync.Mutex
	initOnce sync.Once
	initErr  error
	logger   zerolog.Logger
}

// DefaultPath returns ~/.moviepicker/index.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".moviepicker", "index.db"), nil
}

// NewStore creates a store backed by the file at dbPath. The file and its
// directory are created on Init.
func NewStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		dbPath: dbPath,
		logger: logging.Component("storage"),
	}
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string { return s.dbPath }

// Init initializes the database and runs migrations. It is safe to call
// more than once; later calls return the first result.
func (s *SQLiteStore) Init() error {
	s.initOnce.Do(func() {
		if s.dbPath == "" {
			s.initErr = errors.New("database path is empty")
			return
		}

		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
			s.initErr = fmt.Errorf("failed to create db directory: %w", err)
			return
		}

		db, err := sql.Open("sqlite", s.dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
		if err != nil {
			s.initErr = fmt.Errorf("failed to open database: %w", err)
			return
		}

		if err := db.Ping(); err != nil {
			db.Close()
			s.initErr = fmt.Errorf("failed to ping database: %w", err)
			return
		}
		s.db = db

		if err := s.runMigrations(); err != nil {
			db.Close()
			s.db = nil
			s.initErr = fmt.Errorf("failed to run migrations: %w", err)
			return
		}

		s.logger.Debug().Str("path", s.dbPath).Msg("index store ready")
	})

	return s.initErr
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.db = nil
	return nil
}

// conn returns the open database or an error when Init has not succeeded.
func (s *SQLiteStore) conn() (*sql.DB, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	if s.db == nil {
		return nil, errors.New("store is closed")
	}
	return s.db, nil
}

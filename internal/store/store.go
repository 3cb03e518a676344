// Package store persists users, conversations and LLM request events
// through gorm, on SQLite (modernc, no CGO) or Postgres.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/abhisek/verba/internal/logger"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Config selects the database.
type Config struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	// DSN is a file path (or sqlite URI) for sqlite and a connection URL
	// for postgres.
	DSN string `yaml:"dsn"`
}

// Store holds the gorm handle and provides access to repositories.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects to the configured database, applies SQLite pragmas when
// relevant and runs auto-migration.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}

	gcfg := &gorm.Config{
		Logger:         newGormLogger(),
		TranslateError: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		db, err = openSQLite(cfg.DSN, gcfg)
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.DSN), gcfg)
		if err != nil {
			err = fmt.Errorf("connect to postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown database driver: %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, log: log.With("component", "store")}
	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return s, nil
}

func openSQLite(dsn string, gcfg *gorm.Config) (*gorm.DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps the pragmas
	// below in effect for every statement.
	sqlDB.SetMaxOpenConns(1)

	if err := applyPragmas(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	db, err := gorm.Open(sqlite.New(sqlite.Config{
		DriverName: "sqlite",
		Conn:       sqlDB,
	}), gcfg)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	return db, nil
}

func newGormLogger() gormLogger.Interface {
	return gormLogger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

func (s *Store) migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&User{},
		&Conversation{},
		&LLMRequestEvent{},
	)
}

// DB returns the underlying gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Users returns a UserRepo backed by this store.
func (s *Store) Users() UserRepo {
	return NewUserRepo(s.db, s.log)
}

// Conversations returns a ConversationRepo backed by this store.
func (s *Store) Conversations(opts ...ConversationOption) ConversationRepo {
	return NewConversationRepo(s.db, s.log, opts...)
}

// Events returns an EventRepo backed by this store.
func (s *Store) Events() EventRepo {
	return NewEventRepo(s.db, s.log)
}

// applyPragmas configures SQLite for a small concurrent web service.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the SQLite database file path in priority order:
// 1. VERBA_DB environment variable
// 2. $XDG_DATA_HOME/verba/verba.db
// 3. ~/.local/share/verba/verba.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("VERBA_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "verba", "verba.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

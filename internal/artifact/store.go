package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"vidpipe/internal/config"
	"vidpipe/internal/staging"
	"vidpipe/internal/textutil"
)

// Store is the artifact store rooted at one flat directory.
type Store struct {
	root     string
	baseURL  string
	db       *sql.DB
	dbPath   string
	lockPath string
}

const (
	registryFile = ".vidpipe-registry.db"
	lockFile     = ".vidpipe.lock"

	// PartialPrefix marks files still being written.
	PartialPrefix = staging.PartialPrefix
	// ScratchPrefix marks per-invocation working directories.
	ScratchPrefix = staging.ScratchPrefix

	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// isBusy reports SQLITE_BUSY and SQLITE_LOCKED, including extended codes.
func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// withBusyRetry re-runs op while another process holds the registry, pausing
// 10ms and doubling up to 200ms, for at most five attempts.
func withBusyRetry(ctx context.Context, op func() error) error {
	pause := 10 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || attempt == 5 || !isBusy(err) {
			return err
		}
		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		pause = min(pause*2, 200*time.Millisecond)
	}
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := withBusyRetry(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the store described by cfg.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("artifact store: config required")
	}
	return OpenDir(cfg.Paths.ArtifactDir, cfg.Paths.PublicBaseURL)
}

// OpenDir opens a store rooted at dir. URLs are formed as baseURL/<file name>.
func OpenDir(dir, baseURL string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("artifact store: directory required")
	}
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure artifact dir: %w", err)
	}

	dbPath := filepath.Join(dir, registryFile)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	for _, pragma := range [...]string{"journal_mode=WAL", "busy_timeout=5000"} {
		if _, err := db.Exec("PRAGMA " + pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("registry pragma %s: %w", pragma, err)
		}
	}

	store := &Store{
		root:     dir,
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		db:       db,
		dbPath:   dbPath,
		lockPath: filepath.Join(dir, lockFile),
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Root returns the store directory. Every artifact lives directly inside it.
func (s *Store) Root() string {
	return s.root
}

// ScratchDir creates a private working directory inside the store for an
// external processor that writes several files. Callers remove it when done;
// Prune collects any that are left behind.
func (s *Store) ScratchDir(purpose string) (string, error) {
	dir, err := os.MkdirTemp(s.root, ScratchPrefix+textutil.SanitizeToken(purpose)+"-*")
	if err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	return dir, nil
}

package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofrs/flock"

	"vidpipe/internal/logging"
	"vidpipe/internal/staging"
)

// ErrStoreBusy is returned when maintenance cannot take the exclusive lease.
var ErrStoreBusy = errors.New("artifact store in use by running pipelines")

const leaseRetryDelay = 50 * time.Millisecond

// Lease is a shared hold on the store taken for the duration of a pipeline run.
type Lease struct {
	lock *flock.Flock
}

// Release drops the lease.
func (l *Lease) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}

// Acquire takes a shared lease, waiting while maintenance holds the store.
func (s *Store) Acquire(ctx context.Context) (*Lease, error) {
	lock := flock.New(s.lockPath)
	ok, err := lock.TryRLockContext(ctx, leaseRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire store lease: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire store lease: %w", ErrStoreBusy)
	}
	return &Lease{lock: lock}, nil
}

// PruneResult reports what a maintenance pass removed.
type PruneResult struct {
	Removed      []Artifact
	StaleRemoved []string
	Errors       []staging.CleanupError
}

// Prune deletes artifacts created before cutoff together with abandoned
// partial files and scratch directories older than the same cutoff. It
// refuses to run while any pipeline holds a lease.
func (s *Store) Prune(ctx context.Context, cutoff time.Time, logger *slog.Logger) (PruneResult, error) {
	var result PruneResult

	lock := flock.New(s.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return result, fmt.Errorf("lock store: %w", err)
	}
	if !ok {
		return result, ErrStoreBusy
	}
	defer func() { _ = lock.Unlock() }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM artifacts WHERE created_at < ? ORDER BY created_at`,
		cutoff.UTC().Format(timeLayout))
	if err != nil {
		return result, fmt.Errorf("select expired artifacts: %w", err)
	}
	var expired []Artifact
	for rows.Next() {
		a, err := s.scan(rows)
		if err != nil {
			rows.Close()
			return result, fmt.Errorf("scan artifact: %w", err)
		}
		expired = append(expired, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return result, err
	}

	for _, a := range expired {
		if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			result.Errors = append(result.Errors, staging.CleanupError{Path: a.Path, Error: err})
			continue
		}
		if _, err := s.exec(ctx, `DELETE FROM artifacts WHERE id = ?`, a.ID); err != nil {
			result.Errors = append(result.Errors, staging.CleanupError{Path: a.Path, Error: err})
			continue
		}
		result.Removed = append(result.Removed, a)
		if logger != nil {
			logger.Info("pruned artifact",
				logging.String(logging.FieldArtifactID, a.ID),
				logging.String("file", a.FileName),
				logging.String(logging.FieldEventType, "artifact_pruned"),
			)
		}
	}

	stale := staging.CleanStale(ctx, s.root, time.Since(cutoff), logger)
	result.StaleRemoved = stale.Removed
	result.Errors = append(result.Errors, stale.Errors...)
	return result, nil
}

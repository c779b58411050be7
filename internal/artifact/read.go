package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"vidpipe/internal/services"
)

const selectColumns = `id, kind, file_name, parent_id, degraded, size_bytes, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scan(row rowScanner) (Artifact, error) {
	var (
		a         Artifact
		kind      string
		parentID  sql.NullString
		degraded  int
		createdAt string
	)
	if err := row.Scan(&a.ID, &kind, &a.FileName, &parentID, &degraded, &a.SizeBytes, &createdAt); err != nil {
		return Artifact{}, err
	}
	a.Kind = Kind(kind)
	a.ParentID = parentID.String
	a.Degraded = degraded != 0
	a.Path = filepath.Join(s.root, a.FileName)
	a.URL = s.urlFor(a.FileName)
	if ts, err := time.Parse(timeLayout, createdAt); err == nil {
		a.CreatedAt = ts
	}
	return a, nil
}

// Get returns the artifact registered under id.
func (s *Store) Get(ctx context.Context, id string) (Artifact, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Artifact{}, services.Wrap(services.ErrInputInvalid, "artifact", "get", "artifact id required", nil)
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM artifacts WHERE id = ?`, id)
	a, err := s.scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Artifact{}, services.Wrap(services.ErrNotFound, "artifact", "get", "unknown artifact "+id, nil)
		}
		return Artifact{}, fmt.Errorf("get artifact %s: %w", id, err)
	}
	return a, nil
}

// Resolve maps an artifact id to its file path.
func (s *Store) Resolve(ctx context.Context, id string) (string, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return a.Path, nil
}

// PublicURL returns the caller-facing URL of an artifact.
func (s *Store) PublicURL(ctx context.Context, id string) (string, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return a.URL, nil
}

func (s *Store) urlFor(fileName string) string {
	return s.baseURL + "/" + fileName
}

// ListOptions filters List results.
type ListOptions struct {
	Kind  Kind
	Limit int
}

// List returns registered artifacts, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Artifact, error) {
	query := `SELECT ` + selectColumns + ` FROM artifacts`
	var args []any
	if opts.Kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(opts.Kind))
	}
	query += ` ORDER BY created_at DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		a, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

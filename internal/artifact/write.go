package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidpipe/internal/services"
	"vidpipe/internal/textutil"
)

const defaultVideoExt = "mp4"

// Pending is a reserved artifact whose file is still being produced. The
// producer writes TempPath, then calls Commit or Discard.
type Pending struct {
	ID       string
	Kind     Kind
	FileName string
	// Path is where the artifact will live once committed.
	Path string
	// TempPath is the hidden file the producer writes to.
	TempPath string
	ParentID string
	// Degraded marks a result produced by a fallback path.
	Degraded bool

	store *Store
	done  bool
}

// TempName is TempPath relative to the store root.
func (p *Pending) TempName() string {
	return PartialPrefix + p.FileName
}

// Reserve allocates a fresh identifier and file name for a new artifact.
func (s *Store) Reserve(kind Kind, prefix, ext, parentID string) (*Pending, error) {
	ext = normalizeExt(ext)
	if ext == "" {
		return nil, services.Wrap(services.ErrInputInvalid, "artifact", "reserve", "file extension required", nil)
	}
	id := uuid.NewString()
	name := fmt.Sprintf("%s-%s.%s", textutil.SanitizeToken(prefix), id, ext)
	return &Pending{
		ID:       id,
		Kind:     kind,
		FileName: name,
		Path:     filepath.Join(s.root, name),
		TempPath: filepath.Join(s.root, PartialPrefix+name),
		ParentID: parentID,
		store:    s,
	}, nil
}

// Commit moves the produced file into place and registers it. The target is
// never overwritten.
func (p *Pending) Commit(ctx context.Context) (Artifact, error) {
	if p == nil || p.store == nil {
		return Artifact{}, errors.New("commit: nil pending artifact")
	}
	if p.done {
		return Artifact{}, fmt.Errorf("commit %s: already finalized", p.FileName)
	}
	info, err := os.Stat(p.TempPath)
	if err != nil {
		return Artifact{}, fmt.Errorf("commit %s: %w", p.FileName, err)
	}
	if info.Size() == 0 {
		p.Discard()
		return Artifact{}, services.Wrap(services.ErrExternalTool, "artifact", "commit", p.FileName+" is empty", nil)
	}
	if err := publish(p.TempPath, p.Path); err != nil {
		return Artifact{}, fmt.Errorf("commit %s: %w", p.FileName, err)
	}
	p.done = true

	a := Artifact{
		ID:        p.ID,
		Kind:      p.Kind,
		FileName:  p.FileName,
		Path:      p.Path,
		URL:       p.store.urlFor(p.FileName),
		ParentID:  p.ParentID,
		Degraded:  p.Degraded,
		SizeBytes: info.Size(),
		CreatedAt: time.Now().UTC(),
	}
	if err := p.store.insert(ctx, a); err != nil {
		_ = os.Remove(p.Path)
		return Artifact{}, err
	}
	return a, nil
}

// Discard removes any partial output. It is safe to call after Commit.
func (p *Pending) Discard() {
	if p == nil || p.done {
		return
	}
	p.done = true
	_ = os.Remove(p.TempPath)
}

// publish links src to dst, failing if dst exists, then drops src.
func publish(src, dst string) error {
	if err := os.Link(src, dst); err != nil {
		if errors.Is(err, os.ErrExist) {
			return err
		}
		// Filesystems without hard links: rename after an existence check.
		if _, statErr := os.Lstat(dst); statErr == nil {
			return fmt.Errorf("%s: %w", dst, os.ErrExist)
		}
		if renameErr := os.Rename(src, dst); renameErr != nil {
			return renameErr
		}
		return nil
	}
	return os.Remove(src)
}

// Stage copies caller-supplied bytes into the store as an original artifact.
// ext comes from the caller's file name; empty means mp4.
func (s *Store) Stage(ctx context.Context, r io.Reader, ext string) (Artifact, error) {
	if r == nil {
		return Artifact{}, services.Wrap(services.ErrInputInvalid, "artifact", "stage", "no source data", nil)
	}
	if normalizeExt(ext) == "" {
		ext = defaultVideoExt
	}
	pending, err := s.Reserve(KindOriginal, PrefixUpload, ext, "")
	if err != nil {
		return Artifact{}, err
	}
	defer pending.Discard()

	n, err := writeFile(pending.TempPath, r)
	if err != nil {
		return Artifact{}, fmt.Errorf("stage upload: %w", err)
	}
	if n == 0 {
		return Artifact{}, services.Wrap(services.ErrInputInvalid, "artifact", "stage", "source is empty", nil)
	}
	return pending.Commit(ctx)
}

// StageFile stages the file at path, keeping its extension.
func (s *Store) StageFile(ctx context.Context, path string) (Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Artifact{}, services.Wrap(services.ErrInputInvalid, "artifact", "stage", "source not found: "+path, err)
		}
		return Artifact{}, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()
	return s.Stage(ctx, f, filepath.Ext(path))
}

// Put writes data as a new artifact in one step.
func (s *Store) Put(ctx context.Context, kind Kind, prefix, ext, parentID string, data []byte) (Artifact, error) {
	pending, err := s.Reserve(kind, prefix, ext, parentID)
	if err != nil {
		return Artifact{}, err
	}
	defer pending.Discard()
	if _, err := writeFile(pending.TempPath, bytes.NewReader(data)); err != nil {
		return Artifact{}, fmt.Errorf("write %s: %w", pending.FileName, err)
	}
	return pending.Commit(ctx)
}

func writeFile(path string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		return n, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return n, err
	}
	return n, f.Close()
}

func normalizeExt(ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return ""
	}
	return textutil.SanitizeToken(ext)
}

func (s *Store) insert(ctx context.Context, a Artifact) error {
	_, err := s.exec(ctx,
		`INSERT INTO artifacts (id, kind, file_name, parent_id, degraded, size_bytes, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		string(a.Kind),
		a.FileName,
		nullableString(a.ParentID),
		boolToInt(a.Degraded),
		a.SizeBytes,
		a.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("register artifact %s: %w", a.ID, err)
	}
	return nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

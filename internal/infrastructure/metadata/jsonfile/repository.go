// Package jsonfile stores Material records as a single JSON array on disk.
//
// Every Append reads the whole array, appends in memory and writes the whole
// array back. The write goes to a temporary file that is renamed over the
// original, so readers see either the old or the new array. Appends within a
// process are serialised by a mutex; the file must not be shared by several
// processes.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/studyhub/materials-portal/internal/core/domain"
	"github.com/studyhub/materials-portal/internal/core/ports"
)

type Repository struct {
	path string
	mu   sync.RWMutex
}

var _ ports.MaterialRepository = (*Repository)(nil)

// New returns a repository backed by path. The file itself is created on the
// first Append; its parent directory is created now.
func New(path string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create metadata dir: %w", err)
	}
	return &Repository{path: path}, nil
}

func (r *Repository) Append(ctx context.Context, m *domain.Material) (*domain.Material, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	materials, err := r.load()
	if err != nil {
		return nil, err
	}

	var maxID uint64
	for _, existing := range materials {
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}

	record := *m
	record.ID = maxID + 1
	materials = append(materials, record)

	if err := r.save(materials); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *Repository) ListByBranch(ctx context.Context, branch string) ([]domain.Material, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	materials, err := r.load()
	if err != nil {
		return nil, err
	}

	out := make([]domain.Material, 0)
	for _, m := range materials {
		if m.Branch == branch {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *Repository) FindByFileName(ctx context.Context, branch, fileName string) (*domain.Material, error) {
	materials, err := r.ListByBranch(ctx, branch)
	if err != nil {
		return nil, err
	}
	for i := range materials {
		if materials[i].FileName == fileName {
			return &materials[i], nil
		}
	}
	return nil, domain.ErrFileNotFound
}

// Ping checks that the metadata directory is reachable.
func (r *Repository) Ping(context.Context) error {
	_, err := os.Stat(filepath.Dir(r.path))
	return err
}

func (r *Repository) load() ([]domain.Material, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Material{}, nil
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.Material{}, nil
	}

	var materials []domain.Material
	if err := json.Unmarshal(data, &materials); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return materials, nil
}

func (r *Repository) save(materials []domain.Material) error {
	data, err := json.MarshalIndent(materials, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".materials-*.json")
	if err != nil {
		return fmt.Errorf("create temp metadata: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close metadata: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		cleanup()
		return fmt.Errorf("replace metadata: %w", err)
	}
	return nil
}

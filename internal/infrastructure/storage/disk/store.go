// Package disk keeps uploaded files in a branch-partitioned directory tree:
//
//	<root>/temp/<staged>        in-flight uploads
//	<root>/<branch>/<stored>    committed uploads
//
// A file becomes visible to readers only through the rename in Commit, so a
// reader never observes a partially written file.
package disk

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/studyhub/materials-portal/internal/core/domain"
	"github.com/studyhub/materials-portal/internal/core/ports"
)

const (
	stagingDir = "temp"
	dirPerm    = 0o755
	filePerm   = 0o644
)

// Store implements ports.FileStore on the local filesystem.
type Store struct {
	root    string
	staging string
	now     func() time.Time
	log     zerolog.Logger
}

var _ ports.FileStore = (*Store)(nil)

// New creates the uploads root and its staging directory if needed.
func New(root string, log zerolog.Logger) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve uploads root: %w", err)
	}
	staging := filepath.Join(abs, stagingDir)
	if err := os.MkdirAll(staging, dirPerm); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Store{root: abs, staging: staging, now: time.Now, log: log}, nil
}

// Root returns the absolute uploads root.
func (s *Store) Root() string {
	return s.root
}

// Stage writes r into a uniquely named file in the staging area.
func (s *Store) Stage(ctx context.Context, originalName string, r io.Reader, limit int64) (*ports.StagedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !domain.ValidPathSegment(originalName) {
		return nil, domain.ErrInvalidPath
	}

	name := s.stagedName(originalName)
	path := filepath.Join(s.staging, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return nil, fmt.Errorf("%w: create staged file: %w", domain.ErrStorage, err)
	}

	n, copyErr := io.Copy(f, io.LimitReader(r, limit+1))
	closeErr := f.Close()

	staged := &ports.StagedFile{Name: name, Path: path, Size: n}
	switch {
	case copyErr != nil:
		s.discardQuietly(staged)
		return nil, fmt.Errorf("%w: write staged file: %w", domain.ErrStorage, copyErr)
	case closeErr != nil:
		s.discardQuietly(staged)
		return nil, fmt.Errorf("%w: close staged file: %w", domain.ErrStorage, closeErr)
	case n > limit:
		s.discardQuietly(staged)
		return nil, domain.ErrFileTooLarge
	}

	return staged, nil
}

// Commit moves a staged file into <root>/<branch>, creating the branch
// directory on first use.
func (s *Store) Commit(ctx context.Context, staged *ports.StagedFile, branch string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if branch == stagingDir {
		return "", domain.ErrInvalidPath
	}
	dir, err := s.contained(branch)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("%w: create branch dir: %w", domain.ErrStorage, err)
	}

	dst := filepath.Join(dir, staged.Name)
	if _, err := os.Lstat(dst); err == nil {
		return "", fmt.Errorf("%w: %s already exists", domain.ErrStorage, staged.Name)
	}
	if err := os.Rename(staged.Path, dst); err != nil {
		return "", fmt.Errorf("%w: move staged file: %w", domain.ErrStorage, err)
	}
	return dst, nil
}

func (s *Store) Discard(staged *ports.StagedFile) error {
	if staged == nil {
		return nil
	}
	if err := os.Remove(staged.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) Remove(path string) error {
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return domain.ErrInvalidPath
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Resolve returns the path of <root>/<branch>/<fileName> after checking both
// segments and that the result is a regular file inside the root.
func (s *Store) Resolve(branch, fileName string) (string, error) {
	if branch == stagingDir {
		return "", domain.ErrFileNotFound
	}
	path, err := s.contained(branch, fileName)
	if err != nil {
		return "", err
	}

	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.ErrFileNotFound
		}
		return "", fmt.Errorf("%w: stat: %w", domain.ErrStorage, err)
	}
	if !info.Mode().IsRegular() {
		return "", domain.ErrFileNotFound
	}
	return path, nil
}

// PurgeStaging removes staged files older than maxAge, which are left behind
// only when the process died mid-upload. It returns the number removed.
func (s *Store) PurgeStaging(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.staging)
	if err != nil {
		return 0, fmt.Errorf("read staging dir: %w", err)
	}

	cutoff := s.now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.staging, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn().Err(err).Str("file", e.Name()).Msg("failed to purge staged file")
			continue
		}
		removed++
	}
	return removed, nil
}

// contained joins segments below the root and rejects anything that would
// resolve outside of it.
func (s *Store) contained(segments ...string) (string, error) {
	for _, seg := range segments {
		if !domain.ValidPathSegment(seg) {
			return "", domain.ErrInvalidPath
		}
	}

	path := filepath.Join(append([]string{s.root}, segments...)...)
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", domain.ErrInvalidPath
	}
	return path, nil
}

// stagedName is <unix millis>-<random>-<original name>.
func (s *Store) stagedName(originalName string) string {
	var b [8]byte
	var suffix uint64
	if _, err := rand.Read(b[:]); err == nil {
		suffix = binary.BigEndian.Uint64(b[:]) % 1_000_000_000
	} else {
		suffix = uint64(time.Now().UnixNano()) % 1_000_000_000
	}
	return fmt.Sprintf("%d-%09d-%s", s.now().UnixMilli(), suffix, originalName)
}

func (s *Store) discardQuietly(staged *ports.StagedFile) {
	if err := s.Discard(staged); err != nil {
		s.log.Warn().Err(err).Str("staged", staged.Path).Msg("failed to discard staged upload")
	}
}

package disk

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/studyhub/materials-portal/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return s
}

func stagingEntries(t *testing.T, s *Store) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(s.staging)
	require.NoError(t, err)
	return entries
}

func TestNew_CreatesStagingDir(t *testing.T) {
	s := newTestStore(t)

	fi, err := os.Stat(filepath.Join(s.Root(), "temp"))
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestStage_WritesUniqueFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.Stage(ctx, "notes.pdf", strings.NewReader("hello"), 1024)
	require.NoError(t, err)
	b, err := s.Stage(ctx, "notes.pdf", strings.NewReader("hello"), 1024)
	require.NoError(t, err)

	require.NotEqual(t, a.Name, b.Name, "concurrent uploads of the same name must not collide")
	require.True(t, strings.HasSuffix(a.Name, "-notes.pdf"))
	require.Equal(t, int64(5), a.Size)

	data, err := os.ReadFile(a.Path)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestStage_RejectsOversizedStream(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Stage(context.Background(), "big.bin", bytes.NewReader(make([]byte, 11)), 10)
	require.ErrorIs(t, err, domain.ErrFileTooLarge)
	require.Empty(t, stagingEntries(t, s), "partial staged file must be purged")
}

func TestStage_AcceptsExactLimit(t *testing.T) {
	s := newTestStore(t)

	staged, err := s.Stage(context.Background(), "ok.bin", bytes.NewReader(make([]byte, 10)), 10)
	require.NoError(t, err)
	require.Equal(t, int64(10), staged.Size)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestStage_ReadFailureCleansUp(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Stage(context.Background(), "notes.pdf", failingReader{}, 10)
	require.ErrorIs(t, err, domain.ErrStorage)
	require.Empty(t, stagingEntries(t, s))
}

func TestCommit_MovesIntoBranchDir(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	staged, err := s.Stage(ctx, "notes.pdf", strings.NewReader("content"), 1024)
	require.NoError(t, err)

	path, err := s.Commit(ctx, staged, "CSE")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(s.Root(), "CSE", staged.Name), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "content", string(data))

	_, err = os.Stat(staged.Path)
	require.True(t, os.IsNotExist(err), "staged file should be gone after commit")

	// Second commit into the existing branch dir.
	again, err := s.Stage(ctx, "more.pdf", strings.NewReader("x"), 1024)
	require.NoError(t, err)
	_, err = s.Commit(ctx, again, "CSE")
	require.NoError(t, err)
}

func TestCommit_RejectsUnsafeBranch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, branch := range []string{"..", "a/b", "", "temp", "/etc"} {
		staged, err := s.Stage(ctx, "notes.pdf", strings.NewReader("x"), 1024)
		require.NoError(t, err)

		_, err = s.Commit(ctx, staged, branch)
		require.ErrorIs(t, err, domain.ErrInvalidPath, "branch %q", branch)
		require.NoError(t, s.Discard(staged))
	}
}

func TestDiscard_MissingIsNotAnError(t *testing.T) {
	s := newTestStore(t)

	staged, err := s.Stage(context.Background(), "notes.pdf", strings.NewReader("x"), 1024)
	require.NoError(t, err)
	require.NoError(t, s.Discard(staged))
	require.NoError(t, s.Discard(staged))
	require.NoError(t, s.Discard(nil))
}

func TestRemove_StaysInsideRoot(t *testing.T) {
	s := newTestStore(t)

	outside := filepath.Join(t.TempDir(), "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	require.ErrorIs(t, s.Remove(outside), domain.ErrInvalidPath)
	_, err := os.Stat(outside)
	require.NoError(t, err)
}

func TestResolve(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	staged, err := s.Stage(ctx, "notes.pdf", strings.NewReader("content"), 1024)
	require.NoError(t, err)
	path, err := s.Commit(ctx, staged, "CSE")
	require.NoError(t, err)

	got, err := s.Resolve("CSE", staged.Name)
	require.NoError(t, err)
	require.Equal(t, path, got)

	_, err = s.Resolve("CSE", "missing.pdf")
	require.ErrorIs(t, err, domain.ErrFileNotFound)

	_, err = s.Resolve("IoT", staged.Name)
	require.ErrorIs(t, err, domain.ErrFileNotFound)
}

func TestResolve_RejectsTraversal(t *testing.T) {
	s := newTestStore(t)

	secret := filepath.Join(filepath.Dir(s.Root()), "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("x"), 0o644))

	cases := [][2]string{
		{"..", "secret.txt"},
		{"CSE", "../../secret.txt"},
		{"CSE", ".."},
		{".", "secret.txt"},
		{"CSE", "/etc/passwd"},
		{"CSE", "a\x00b"},
	}
	for _, tc := range cases {
		_, err := s.Resolve(tc[0], tc[1])
		require.ErrorIs(t, err, domain.ErrInvalidPath, "branch=%q file=%q", tc[0], tc[1])
	}
}

func TestResolve_HidesStagingArea(t *testing.T) {
	s := newTestStore(t)

	staged, err := s.Stage(context.Background(), "notes.pdf", strings.NewReader("x"), 1024)
	require.NoError(t, err)

	_, err = s.Resolve("temp", staged.Name)
	require.ErrorIs(t, err, domain.ErrFileNotFound)
}

func TestResolve_DirectoryIsNotAFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Join(s.Root(), "CSE", "sub"), 0o755))

	_, err := s.Resolve("CSE", "sub")
	require.ErrorIs(t, err, domain.ErrFileNotFound)
}

func TestPurgeStaging_RemovesOnlyStaleFiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stale, err := s.Stage(ctx, "old.pdf", strings.NewReader("x"), 1024)
	require.NoError(t, err)
	fresh, err := s.Stage(ctx, "new.pdf", strings.NewReader("x"), 1024)
	require.NoError(t, err)

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale.Path, old, old))

	removed, err := s.PurgeStaging(time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = os.Stat(stale.Path)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh.Path)
	require.NoError(t, err)
}

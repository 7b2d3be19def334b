package ports

import (
	"context"
	"io"
)

// StagedFile is an upload held in the staging area, not yet visible to readers.
type StagedFile struct {
	Name string // unique staged name, reused as the stored file name
	Path string
	Size int64
}

// FileStore places uploaded bytes on disk in a branch-partitioned tree.
type FileStore interface {
	// Stage copies at most limit bytes from r into the staging area.
	// Returns domain.ErrFileTooLarge (after removing the partial file) when r
	// holds more than limit bytes.
	Stage(ctx context.Context, originalName string, r io.Reader, limit int64) (*StagedFile, error)
	// Commit renames the staged file into the branch directory and returns
	// its final path.
	Commit(ctx context.Context, staged *StagedFile, branch string) (string, error)
	// Discard removes a staged file. Missing files are not an error.
	Discard(staged *StagedFile) error
	// Remove deletes a committed file. Missing files are not an error.
	Remove(path string) error
	// Resolve returns the contained path of an existing committed file.
	Resolve(branch, fileName string) (string, error)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/studyhub/materials-portal/internal/core/domain"
	"github.com/studyhub/materials-portal/internal/core/ports"
)

// DefaultMaxUploadSize is the upload cap applied when none is configured.
const DefaultMaxUploadSize int64 = 25 << 20

// MaterialService runs the upload and retrieval pipelines.
type MaterialService struct {
	repo    ports.MaterialRepository
	files   ports.FileStore
	cache   ports.MaterialCache // optional
	maxSize int64
	now     func() time.Time
	log     zerolog.Logger
}

func NewMaterialService(
	repo ports.MaterialRepository,
	files ports.FileStore,
	cache ports.MaterialCache,
	maxSize int64,
	log zerolog.Logger,
) *MaterialService {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &MaterialService{
		repo:    repo,
		files:   files,
		cache:   cache,
		maxSize: maxSize,
		now:     time.Now,
		log:     log,
	}
}

// MaxUploadSize is the largest file Upload accepts, in bytes.
func (s *MaterialService) MaxUploadSize() int64 {
	return s.maxSize
}

// Upload stages, commits and records a single file. Commit order:
//  1. validation (no side effects)
//  2. stage into the temp area
//  3. rename into the branch directory
//  4. append the metadata record
//
// Failures before 3 discard the staged file; a failure at 4 removes the
// committed file so no record or file is left without its counterpart.
func (s *MaterialService) Upload(ctx context.Context, in ports.UploadInput) (*domain.Material, error) {
	if in.File == nil {
		return nil, domain.ErrNoFileProvided
	}

	branch := strings.TrimSpace(in.Branch)
	semester := strings.TrimSpace(in.Semester)
	if branch == "" || semester == "" {
		return nil, domain.ErrMissingFields
	}
	if !domain.ValidPathSegment(branch) {
		return nil, fmt.Errorf("branch: %w", domain.ErrInvalidPath)
	}

	originalName := domain.SanitizeFileName(in.OriginalName)
	if !domain.ValidPathSegment(originalName) {
		return nil, fmt.Errorf("file name: %w", domain.ErrInvalidPath)
	}

	if in.Size > s.maxSize {
		return nil, domain.ErrFileTooLarge
	}

	staged, err := s.files.Stage(ctx, originalName, in.File, s.maxSize)
	if err != nil {
		return nil, err
	}

	storagePath, err := s.files.Commit(ctx, staged, branch)
	if err != nil {
		if discardErr := s.files.Discard(staged); discardErr != nil {
			s.log.Warn().Err(discardErr).Str("staged", staged.Path).Msg("failed to discard staged upload")
		}
		return nil, err
	}

	material := &domain.Material{
		Branch:       branch,
		Semester:     semester,
		OriginalName: originalName,
		FileName:     staged.Name,
		StoragePath:  storagePath,
		DownloadURL:  "/api/download/" + url.PathEscape(branch) + "/" + url.PathEscape(staged.Name),
		FileType:     detectMimeType(in.MimeType, originalName),
		Size:         staged.Size,
		UploadedBy: domain.Uploader{
			UserID: in.Identity.UserID,
			Name:   in.Identity.Name,
			Role:   in.Identity.Role,
		},
		UploadDate: s.now().UTC(),
	}

	created, err := s.repo.Append(ctx, material)
	if err != nil {
		if rmErr := s.files.Remove(storagePath); rmErr != nil {
			s.log.Error().Err(rmErr).Str("path", storagePath).Msg("failed to remove unrecorded upload")
		}
		return nil, fmt.Errorf("%w: record metadata: %w", domain.ErrStorage, err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, branch)
	}

	s.log.Info().
		Uint64("material_id", created.ID).
		Str("branch", branch).
		Str("file", created.FileName).
		Int64("size", created.Size).
		Str("user_id", in.Identity.UserID).
		Msg("material uploaded")

	return created, nil
}

// ListByBranch returns the branch's materials in upload order, never nil.
func (s *MaterialService) ListByBranch(ctx context.Context, branch string) ([]domain.Material, error) {
	branch = strings.TrimSpace(branch)

	gen := int64(-1)
	if s.cache != nil {
		cached, g, ok := s.cache.Get(ctx, branch)
		if ok {
			return cached, nil
		}
		gen = g
	}

	materials, err := s.repo.ListByBranch(ctx, branch)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	if materials == nil {
		materials = []domain.Material{}
	}

	if s.cache != nil {
		s.cache.Set(ctx, branch, gen, materials)
	}
	return materials, nil
}

// ResolveDownload maps a branch/file pair onto a committed, recorded file.
func (s *MaterialService) ResolveDownload(ctx context.Context, branch, fileName string) (*ports.DownloadTarget, error) {
	if !domain.ValidPathSegment(branch) || !domain.ValidPathSegment(fileName) {
		return nil, domain.ErrInvalidPath
	}

	record, err := s.repo.FindByFileName(ctx, branch, fileName)
	if err != nil {
		return nil, err
	}

	path, err := s.files.Resolve(branch, fileName)
	if err != nil {
		if errors.Is(err, domain.ErrFileNotFound) {
			s.log.Warn().Str("branch", branch).Str("file", fileName).Msg("material recorded but missing on disk")
		}
		return nil, err
	}

	return &ports.DownloadTarget{
		Path:         path,
		OriginalName: record.OriginalName,
		MimeType:     record.FileType,
	}, nil
}

func detectMimeType(declared, name string) string {
	if declared = strings.TrimSpace(declared); declared != "" {
		return declared
	}
	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

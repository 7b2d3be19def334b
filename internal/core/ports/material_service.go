package ports

import (
	"context"
	"io"

	"github.com/studyhub/materials-portal/internal/core/domain"
)

// UploadInput is the DTO passed from the transport layer to MaterialService.
type UploadInput struct {
	Branch       string
	Semester     string
	Identity     domain.Identity
	File         io.Reader // nil when the request carried no file
	OriginalName string
	MimeType     string
	Size         int64 // declared size; -1 when unknown
}

// DownloadTarget is everything the transport needs to stream a file back.
type DownloadTarget struct {
	Path         string
	OriginalName string
	MimeType     string
}

// MaterialService defines the upload and retrieval use cases.
type MaterialService interface {
	Upload(ctx context.Context, input UploadInput) (*domain.Material, error)
	ListByBranch(ctx context.Context, branch string) ([]domain.Material, error)
	ResolveDownload(ctx context.Context, branch, fileName string) (*DownloadTarget, error)
}

package ports

import (
	"context"

	"github.com/studyhub/materials-portal/internal/core/domain"
)

// MaterialRepository is the append-only metadata store.
type MaterialRepository interface {
	// Append assigns the next ID to m and persists it after all existing records.
	Append(ctx context.Context, m *domain.Material) (*domain.Material, error)
	// ListByBranch returns the branch's records in insertion order. A missing
	// store yields an empty slice.
	ListByBranch(ctx context.Context, branch string) ([]domain.Material, error)
	// FindByFileName returns domain.ErrFileNotFound when no record matches.
	FindByFileName(ctx context.Context, branch, fileName string) (*domain.Material, error)
	Ping(ctx context.Context) error
}

// MaterialCache caches branch listings. Implementations must fail safe:
// an unavailable cache behaves like a miss.
//
// Listings are versioned per branch. A miss reports the branch's current
// generation and Set files the listing under that generation only, so a
// listing read before an Invalidate is never served after it. A negative
// generation means unknown; Set ignores it.
type MaterialCache interface {
	Get(ctx context.Context, branch string) (materials []domain.Material, gen int64, ok bool)
	Set(ctx context.Context, branch string, gen int64, materials []domain.Material)
	Invalidate(ctx context.Context, branch string)
}

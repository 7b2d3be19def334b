package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/studyhub/materials-portal/internal/core/domain"
	"github.com/studyhub/materials-portal/internal/core/ports"
)

// ErrWriterStopped is returned by Append once the writer goroutine has exited.
var ErrWriterStopped = errors.New("metadata writer stopped")

type appendRequest struct {
	ctx      context.Context
	material *domain.Material
	reply    chan appendResult
}

type appendResult struct {
	material *domain.Material
	err      error
}

// SerialWriter funnels every metadata append through one goroutine, so the
// underlying store never sees two writes at once. Reads bypass the queue and
// go straight to the store.
type SerialWriter struct {
	repo     ports.MaterialRepository
	requests chan appendRequest
	done     chan struct{}
	started  sync.Once
	log      zerolog.Logger
}

var _ ports.MaterialRepository = (*SerialWriter)(nil)

func NewSerialWriter(repo ports.MaterialRepository, log zerolog.Logger) *SerialWriter {
	return &SerialWriter{
		repo:     repo,
		requests: make(chan appendRequest),
		done:     make(chan struct{}),
		log:      log,
	}
}

// Start launches the writer goroutine. It stops when ctx is cancelled.
// Calling Start more than once has no effect.
func (w *SerialWriter) Start(ctx context.Context) {
	w.started.Do(func() {
		go w.run(ctx)
	})
}

// Done is closed after the writer goroutine has returned.
func (w *SerialWriter) Done() <-chan struct{} {
	return w.done
}

// Append blocks until the writer has handled m. Once the request is accepted
// the caller waits for the outcome even if ctx is cancelled, so the returned
// error always reflects whether the record was stored.
func (w *SerialWriter) Append(ctx context.Context, m *domain.Material) (*domain.Material, error) {
	req := appendRequest{ctx: ctx, material: m, reply: make(chan appendResult, 1)}

	select {
	case w.requests <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.done:
		return nil, ErrWriterStopped
	}

	res := <-req.reply
	return res.material, res.err
}

func (w *SerialWriter) ListByBranch(ctx context.Context, branch string) ([]domain.Material, error) {
	return w.repo.ListByBranch(ctx, branch)
}

func (w *SerialWriter) FindByFileName(ctx context.Context, branch, fileName string) (*domain.Material, error) {
	return w.repo.FindByFileName(ctx, branch, fileName)
}

func (w *SerialWriter) Ping(ctx context.Context) error {
	select {
	case <-w.done:
		return ErrWriterStopped
	default:
	}
	return w.repo.Ping(ctx)
}

func (w *SerialWriter) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-w.requests:
			w.handle(req)
		}
	}
}

func (w *SerialWriter) handle(req appendRequest) {
	if err := req.ctx.Err(); err != nil {
		req.reply <- appendResult{err: err}
		return
	}

	m, err := w.repo.Append(req.ctx, req.material)
	if err != nil {
		w.log.Error().Err(err).
			Str("branch", req.material.Branch).
			Str("file_name", req.material.FileName).
			Msg("metadata append failed")
	}
	req.reply <- appendResult{material: m, err: err}
}

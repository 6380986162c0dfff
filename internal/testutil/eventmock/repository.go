package eventmock

import (
	"context"
	"sync"

	domain "loan-escrow/internal/domain/event"
)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	AppendFn       func(ctx context.Context, e *domain.Event) error
	ListByLoanIDFn func(ctx context.Context, loanID uint64) ([]domain.Event, error)
	ListAfterFn    func(ctx context.Context, afterSeq uint64, limit int) ([]domain.Event, error)
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) Append(ctx context.Context, e *domain.Event) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, e)
	}
	return nil
}

func (m *Repo) ListByLoanID(ctx context.Context, loanID uint64) ([]domain.Event, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListAfter(ctx context.Context, afterSeq uint64, limit int) ([]domain.Event, error) {
	if m.ListAfterFn != nil {
		return m.ListAfterFn(ctx, afterSeq, limit)
	}
	return nil, context.Canceled
}

// Publisher records published events; Err, when set, is returned from every Publish.
type Publisher struct {
	mu     sync.Mutex
	Err    error
	events []domain.Event
}

func (p *Publisher) Publish(_ context.Context, e domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.Err
}

func (p *Publisher) Events() []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Event(nil), p.events...)
}

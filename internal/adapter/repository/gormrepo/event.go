package gormrepo

import (
	"context"

	eventDomain "loan-escrow/internal/domain/event"

	"gorm.io/gorm"
)

type EventRepository struct{ db *gorm.DB }

func NewEventRepository(db *gorm.DB) *EventRepository { return &EventRepository{db: db} }

// Append inserts e and fills in its sequence number. Rows are never updated.
func (r *EventRepository) Append(ctx context.Context, e *eventDomain.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EventRepository) ListByLoanID(ctx context.Context, loanID uint64) ([]eventDomain.Event, error) {
	var out []eventDomain.Event
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("seq ASC").
		Find(&out).Error
	return out, err
}

func (r *EventRepository) ListAfter(ctx context.Context, afterSeq uint64, limit int) ([]eventDomain.Event, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	var out []eventDomain.Event
	err := r.db.WithContext(ctx).
		Where("seq > ?", afterSeq).
		Order("seq ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

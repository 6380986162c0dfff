package event

import (
	"context"
	"time"
)

const (
	NameLoanRequested         = "LoanRequested"
	NameLoanFunded            = "LoanFunded"
	NameLoanRepaid            = "LoanRepaid"
	NameLoanCollateralClaimed = "LoanCollateralClaimed"
)

// Event is an immutable log entry. Args keeps the positional argument tuple of the
// named event, each value rendered as a string.
type Event struct {
	Seq       uint64    `gorm:"primaryKey;autoIncrement;column:seq" json:"seq"`
	Name      string    `gorm:"size:64;not null;index" json:"name"`
	LoanID    uint64    `gorm:"not null;index" json:"loan_id"`
	Args      []string  `gorm:"serializer:json;type:text;not null" json:"args"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Event) TableName() string { return "loan_events" }

type Repository interface {
	Append(ctx context.Context, e *Event) error
	ListByLoanID(ctx context.Context, loanID uint64) ([]Event, error)
	ListAfter(ctx context.Context, afterSeq uint64, limit int) ([]Event, error)
}

// Publisher forwards committed events to an external sink.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

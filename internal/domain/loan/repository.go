package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	// GetByIDForUpdate locks the loan row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uint64) (*Loan, error)
	List(ctx context.Context, f Filter) ([]Loan, error)
}

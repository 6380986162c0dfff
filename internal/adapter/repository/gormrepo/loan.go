package gormrepo

import (
	"context"
	"errors"

	loanDomain "loan-escrow/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxListLimit = 500

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByID(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return notFound(&out, res.Error)
}

// GetByIDForUpdate takes a row lock (SELECT ... FOR UPDATE); sqlite ignores the clause.
func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&out)
	return notFound(&out, res.Error)
}

func (r *LoanRepository) List(ctx context.Context, f loanDomain.Filter) ([]loanDomain.Loan, error) {
	q := r.db.WithContext(ctx).Model(&loanDomain.Loan{})
	if f.Borrower != "" {
		q = q.Where("borrower = ?", f.Borrower)
	}
	if f.Lender != "" {
		q = q.Where("lender = ?", f.Lender)
	}
	switch f.Status {
	case loanDomain.StatusRequested:
		q = q.Where("is_funded = ?", false)
	case loanDomain.StatusFunded:
		q = q.Where("is_funded = ? AND is_repaid = ? AND is_claimed = ?", true, false, false)
	case loanDomain.StatusRepaid:
		q = q.Where("is_repaid = ?", true)
	case loanDomain.StatusClaimed:
		q = q.Where("is_claimed = ?", true)
	}
	limit := f.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	var out []loanDomain.Loan
	err := q.Order("id ASC").Limit(limit).Offset(f.Offset).Find(&out).Error
	return out, err
}

func notFound(l *loanDomain.Loan, err error) (*loanDomain.Loan, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loanDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

package uowmock

import (
	"context"
	"errors"

	"loan-escrow/internal/domain/loan"
	"loan-escrow/internal/domain/uow"
)

var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed uow.UnitOfWork. Unset funcs return errUnimplemented.
// Calls counts transactions opened through either method.
type UoW struct {
	WithinTxFn     func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinLoanTxFn func(ctx context.Context, loanID uint64, fn func(r uow.Repos, l *loan.Loan) error) error

	Calls int
}

// Passthrough runs every callback directly against r, locking loans through
// r.Loans.GetByIDForUpdate. No rollback is simulated.
func Passthrough(r uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error { return fn(r) },
		WithinLoanTxFn: func(ctx context.Context, loanID uint64, fn func(uow.Repos, *loan.Loan) error) error {
			l, err := r.Loans.GetByIDForUpdate(ctx, loanID)
			if err != nil {
				return err
			}
			return fn(r, l)
		},
	}
}

// Failing never runs the callback and returns err, as when BEGIN fails.
func Failing(err error) *UoW {
	return &UoW{
		WithinTxFn: func(context.Context, func(uow.Repos) error) error { return err },
		WithinLoanTxFn: func(context.Context, uint64, func(uow.Repos, *loan.Loan) error) error {
			return err
		},
	}
}

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	m.Calls++
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinLoanTx(ctx context.Context, loanID uint64, fn func(r uow.Repos, l *loan.Loan) error) error {
	m.Calls++
	if m.WithinLoanTxFn != nil {
		return m.WithinLoanTxFn(ctx, loanID, fn)
	}
	return errUnimplemented
}

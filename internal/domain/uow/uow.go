package uow

import (
	"context"

	"loan-escrow/internal/domain/custody"
	"loan-escrow/internal/domain/event"
	"loan-escrow/internal/domain/loan"
)

// Repos are bound to one transaction.
type Repos struct {
	Loans    loan.Repository
	Events   event.Repository
	Accounts custody.Repository
	Custody  custody.Custody
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID uint64, fn func(r Repos, l *loan.Loan) error) error
}

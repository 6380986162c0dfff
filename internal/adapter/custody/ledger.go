package custody

import (
	"context"
	"fmt"

	domain "loan-escrow/internal/domain/custody"
	"loan-escrow/pkg/id"

	"github.com/shopspring/decimal"
)

// Ledger implements domain.Custody over account balances. Bind it to a transactional
// repository so a later failure in the same unit of work undoes the transfer.
type Ledger struct{ repo domain.Repository }

func NewLedger(r domain.Repository) *Ledger { return &Ledger{repo: r} }

var _ domain.Custody = (*Ledger)(nil)

func (l *Ledger) TransferIn(ctx context.Context, from string, amount decimal.Decimal) (domain.Receipt, error) {
	if !amount.IsPositive() {
		return domain.Receipt{}, domain.ErrInvalidAmount
	}
	if from == "" || from == domain.Address {
		return domain.Receipt{}, fmt.Errorf("custody: invalid sender %q", from)
	}
	src, err := l.repo.GetForUpdate(ctx, from)
	if err != nil {
		return domain.Receipt{}, err
	}
	if src.Balance.LessThan(amount) {
		return domain.Receipt{}, fmt.Errorf("%w: %s holds %s, needs %s", domain.ErrInsufficientFunds, from, src.Balance, amount)
	}
	vault, err := l.repo.GetForUpdate(ctx, domain.Address)
	if err != nil {
		return domain.Receipt{}, err
	}
	src.Balance = src.Balance.Sub(amount)
	vault.Balance = vault.Balance.Add(amount)
	return l.commit(ctx, src, vault, domain.DirectionIn, from, amount)
}

func (l *Ledger) TransferOut(ctx context.Context, to string, amount decimal.Decimal) (domain.Receipt, error) {
	if !amount.IsPositive() {
		return domain.Receipt{}, domain.ErrInvalidAmount
	}
	if to == "" || to == domain.Address {
		return domain.Receipt{}, fmt.Errorf("custody: invalid recipient %q", to)
	}
	vault, err := l.repo.GetForUpdate(ctx, domain.Address)
	if err != nil {
		return domain.Receipt{}, err
	}
	if vault.Balance.LessThan(amount) {
		return domain.Receipt{}, fmt.Errorf("%w: holds %s, needs %s", domain.ErrInsufficientCustody, vault.Balance, amount)
	}
	dst, err := l.repo.GetForUpdate(ctx, to)
	if err != nil {
		return domain.Receipt{}, err
	}
	vault.Balance = vault.Balance.Sub(amount)
	dst.Balance = dst.Balance.Add(amount)
	return l.commit(ctx, vault, dst, domain.DirectionOut, to, amount)
}

func (l *Ledger) commit(ctx context.Context, debit, credit *domain.Account, dir domain.Direction, counterparty string, amount decimal.Decimal) (domain.Receipt, error) {
	if err := l.repo.Save(ctx, debit); err != nil {
		return domain.Receipt{}, err
	}
	if err := l.repo.Save(ctx, credit); err != nil {
		return domain.Receipt{}, err
	}
	rid, err := id.NewReceiptID()
	if err != nil {
		return domain.Receipt{}, err
	}
	t := &domain.Transfer{
		ID:           rid,
		Direction:    dir,
		Counterparty: counterparty,
		Amount:       amount,
	}
	if err := l.repo.RecordTransfer(ctx, t); err != nil {
		return domain.Receipt{}, err
	}
	return domain.Receipt{ID: t.ID, Direction: dir, Counterparty: counterparty, Amount: amount}, nil
}

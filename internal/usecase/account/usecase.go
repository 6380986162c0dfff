package account

import (
	"context"
	"errors"
	"fmt"

	"loan-escrow/internal/domain/custody"
	"loan-escrow/internal/domain/loan"
	"loan-escrow/internal/domain/uow"

	"go.uber.org/zap"
)

// Usecase exposes account balances and the development faucet.
type Usecase struct {
	accounts custody.Repository
	uow      uow.UnitOfWork
	log      *zap.Logger
}

func NewUsecase(accounts custody.Repository, tx uow.UnitOfWork, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{accounts: accounts, uow: tx, log: log}
}

// Credit mints amount into address. Only wired when the faucet is enabled.
func (u *Usecase) Credit(ctx context.Context, in CreditInput) (*AccountDTO, error) {
	if in.Address == "" || in.Address == custody.Address {
		return nil, fmt.Errorf("%w: address %q cannot be credited", loan.ErrInvalidParameters, in.Address)
	}
	if err := loan.ValidateAmount(in.Amount); err != nil {
		return nil, fmt.Errorf("%w: amount %v", loan.ErrInvalidParameters, err)
	}
	if u.uow == nil {
		return nil, errors.New("account: unit of work not configured")
	}

	var out *custody.Account
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Accounts.GetForUpdate(ctx, in.Address)
		if err != nil {
			return err
		}
		a.Balance = a.Balance.Add(in.Amount)
		if err := r.Accounts.Save(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		u.log.Error("credit failed", zap.String("address", in.Address), zap.Error(err))
		return nil, err
	}
	u.log.Info("account credited", zap.String("address", in.Address), zap.String("amount", in.Amount.String()))
	return toDTO(out), nil
}

func (u *Usecase) Balance(ctx context.Context, address string) (*AccountDTO, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: address required", loan.ErrInvalidParameters)
	}
	a, err := u.accounts.Get(ctx, address)
	if err != nil {
		u.log.Error("balance lookup failed", zap.String("address", address), zap.Error(err))
		return nil, err
	}
	return toDTO(a), nil
}

// CustodyBalance is the value currently held in escrow across all loans.
func (u *Usecase) CustodyBalance(ctx context.Context) (*AccountDTO, error) {
	return u.Balance(ctx, custody.Address)
}

package gormrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"loan-escrow/internal/domain/custody"
	"loan-escrow/internal/domain/event"
	loanDomain "loan-escrow/internal/domain/loan"
	"loan-escrow/internal/domain/uow"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func fund(t *testing.T, db *gorm.DB, address string, amount int64) {
	t.Helper()
	if err := NewAccountRepository(db).Save(context.Background(), &custody.Account{Address: address, Balance: decimal.NewFromInt(amount)}); err != nil {
		t.Fatalf("seed account %s: %v", address, err)
	}
}

func balance(t *testing.T, db *gorm.DB, address string) decimal.Decimal {
	t.Helper()
	a, err := NewAccountRepository(db).Get(context.Background(), address)
	if err != nil {
		t.Fatalf("balance %s: %v", address, err)
	}
	return a.Balance
}

// ----------------------------- Tests -----------------------------

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fund(t, db, "alice", 10)

	guow := NewGormUoW(db)
	var loanID uint64
	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := r.Custody.TransferIn(ctx, "alice", decimal.NewFromInt(4)); err != nil {
			return err
		}
		l := makeLoan("alice", 4)
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		loanID = l.ID
		return r.Events.Append(ctx, &event.Event{Name: event.NameLoanRequested, LoanID: l.ID, Args: []string{"alice"}, CreatedAt: time.Now().UTC()})
	})
	if err != nil {
		t.Fatalf("WithinTx commit error: %v", err)
	}

	if _, err := NewLoanRepository(db).GetByID(ctx, loanID); err != nil {
		t.Fatalf("loan not persisted: %v", err)
	}
	evs, err := NewEventRepository(db).ListByLoanID(ctx, loanID)
	if err != nil || len(evs) != 1 {
		t.Fatalf("events = %v, %v", evs, err)
	}
	if got := balance(t, db, "alice"); !got.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("alice = %s, want 6", got)
	}
	if got := balance(t, db, custody.Address); !got.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("custody = %s, want 4", got)
	}
}

func TestGormUoW_WithinTx_RollbackUndoesTransfers(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fund(t, db, "alice", 10)

	guow := NewGormUoW(db)
	wantErr := errors.New("boom")
	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := r.Custody.TransferIn(ctx, "alice", decimal.NewFromInt(4)); err != nil {
			return err
		}
		if err := r.Loans.Create(ctx, makeLoan("alice", 4)); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}

	if got := balance(t, db, "alice"); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("alice = %s, want 10 after rollback", got)
	}
	if got := balance(t, db, custody.Address); !got.IsZero() {
		t.Fatalf("custody = %s, want 0 after rollback", got)
	}
	var transfers int64
	db.Model(&custody.Transfer{}).Count(&transfers)
	if transfers != 0 {
		t.Fatalf("transfers = %d, want 0", transfers)
	}
	// the rolled-back insert does not consume the next id in sqlite
	l := makeLoan("alice", 1)
	if err := NewLoanRepository(db).Create(ctx, l); err != nil {
		t.Fatal(err)
	}
	if l.ID != 1 {
		t.Fatalf("next id = %d, want 1", l.ID)
	}
}

func TestGormUoW_WithinLoanTx_LocksAndSaves(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	l := makeLoan("alice", 5)
	if err := NewLoanRepository(db).Create(ctx, l); err != nil {
		t.Fatal(err)
	}

	guow := NewGormUoW(db)
	err := guow.WithinLoanTx(ctx, l.ID, func(r uow.Repos, locked *loanDomain.Loan) error {
		if locked.ID != l.ID {
			t.Fatalf("locked wrong loan: %+v", locked)
		}
		locked.Lender = "bob"
		locked.IsFunded = true
		return r.Loans.Save(ctx, locked)
	})
	if err != nil {
		t.Fatalf("WithinLoanTx: %v", err)
	}

	got, err := NewLoanRepository(db).GetByID(ctx, l.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsFunded || got.Lender != "bob" {
		t.Fatalf("update not committed: %+v", got)
	}
}

func TestGormUoW_WithinLoanTx_NotFound(t *testing.T) {
	db := openTestDB(t)
	guow := NewGormUoW(db)

	called := false
	err := guow.WithinLoanTx(context.Background(), 99, func(uow.Repos, *loanDomain.Loan) error {
		called = true
		return nil
	})
	if !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if called {
		t.Fatal("callback must not run for a missing loan")
	}
}

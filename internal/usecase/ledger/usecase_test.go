package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"loan-escrow/internal/domain/custody"
	"loan-escrow/internal/domain/event"
	"loan-escrow/internal/domain/loan"
	"loan-escrow/internal/domain/uow"
	"loan-escrow/internal/infrastructure/clock"
	"loan-escrow/internal/testutil/custodymock"
	"loan-escrow/internal/testutil/eventmock"
	"loan-escrow/internal/testutil/loanmock"
	"loan-escrow/internal/testutil/uowmock"

	"github.com/shopspring/decimal"
)

type fixture struct {
	loans   *loanmock.Repo
	events  *eventmock.Repo
	custody *custodymock.Custody
	saved   *loan.Loan
	uc      *Usecase
}

// newFixture serves current through GetByIDForUpdate and records what the ledger saves.
func newFixture(t *testing.T, now time.Time, current *loan.Loan) *fixture {
	t.Helper()
	f := &fixture{custody: &custodymock.Custody{}}
	f.loans = &loanmock.Repo{
		GetByIDForUpdateFn: func(_ context.Context, id uint64) (*loan.Loan, error) {
			if current == nil || current.ID != id {
				return nil, loan.ErrNotFound
			}
			cp := *current
			return &cp, nil
		},
		CreateFn: func(_ context.Context, l *loan.Loan) error {
			l.ID = 1
			f.saved = l
			return nil
		},
		SaveFn: func(_ context.Context, l *loan.Loan) error {
			f.saved = l
			return nil
		},
	}
	f.events = &eventmock.Repo{AppendFn: func(context.Context, *event.Event) error { return nil }}
	tx := uowmock.Passthrough(uow.Repos{Loans: f.loans, Events: f.events, Custody: f.custody})
	f.uc = NewUsecase(f.loans, f.events, tx, WithClock(clock.NewFake(now)))
	return f
}

func fundedLoan(due time.Time) *loan.Loan {
	return &loan.Loan{
		ID:               5,
		Borrower:         "alice",
		Lender:           "bob",
		CollateralAmount: decimal.NewFromInt(50),
		LoanAmount:       decimal.NewFromInt(100),
		InterestRate:     7,
		DueTime:          due,
		IsFunded:         true,
	}
}

func requireCalls(t *testing.T, got []custodymock.Call, want ...custodymock.Call) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("custody calls = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i].Direction != want[i].Direction || got[i].Counterparty != want[i].Counterparty || !got[i].Amount.Equal(want[i].Amount) {
			t.Fatalf("custody call %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func callIn(who string, v int64) custodymock.Call {
	return custodymock.Call{Direction: custody.DirectionIn, Counterparty: who, Amount: decimal.NewFromInt(v)}
}

func callOut(who string, v int64) custodymock.Call {
	return custodymock.Call{Direction: custody.DirectionOut, Counterparty: who, Amount: decimal.NewFromInt(v)}
}

func TestUsecase_RequestLoan(t *testing.T) {
	now := time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)
	f := newFixture(t, now, nil)

	dto, err := f.uc.RequestLoan(context.Background(), RequestLoanInput{
		Borrower: "alice", InterestRate: 3, Duration: 90 * time.Second, CollateralValue: decimal.NewFromInt(50),
	})
	if err != nil {
		t.Fatalf("RequestLoan: %v", err)
	}
	if dto.LoanID != 1 || !dto.LoanAmount.Equal(decimal.NewFromInt(100)) || !dto.DueTime.Equal(now.Add(90*time.Second)) {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	requireCalls(t, f.custody.Calls(), callIn("alice", 50))
}

func TestUsecase_RequestLoan_CustodyError(t *testing.T) {
	f := newFixture(t, time.Now(), nil)
	f.custody.TransferInFn = func(context.Context, string, decimal.Decimal) (custody.Receipt, error) {
		return custody.Receipt{}, custody.ErrInsufficientFunds
	}
	f.loans.CreateFn = func(context.Context, *loan.Loan) error {
		t.Fatal("Create must not run after a failed transfer")
		return nil
	}

	_, err := f.uc.RequestLoan(context.Background(), RequestLoanInput{
		Borrower: "alice", InterestRate: 3, Duration: time.Hour, CollateralValue: decimal.NewFromInt(50),
	})
	if !errors.Is(err, loan.ErrCustodyTransferFailed) || !errors.Is(err, custody.ErrInsufficientFunds) {
		t.Fatalf("want custody failure, got %v", err)
	}
	if loan.Code(err) != "CustodyTransferFailed" {
		t.Fatalf("code = %q", loan.Code(err))
	}
}

func TestUsecase_FundLoan(t *testing.T) {
	requested := &loan.Loan{ID: 5, Borrower: "alice", CollateralAmount: decimal.NewFromInt(50), LoanAmount: decimal.NewFromInt(100)}
	funded := fundedLoan(time.Now().Add(time.Hour))

	tests := []struct {
		name    string
		current *loan.Loan
		in      FundLoanInput
		wantErr error
		calls   []custodymock.Call
	}{
		{"happy path", requested, FundLoanInput{Lender: "bob", LoanID: 5, FundingValue: decimal.NewFromInt(100)}, nil,
			[]custodymock.Call{callIn("bob", 100), callOut("alice", 100)}},
		{"not found", requested, FundLoanInput{Lender: "bob", LoanID: 6, FundingValue: decimal.NewFromInt(100)}, loan.ErrNotFound, nil},
		{"already funded before amount", funded, FundLoanInput{Lender: "carol", LoanID: 5, FundingValue: decimal.NewFromInt(1)}, loan.ErrAlreadyFunded, nil},
		{"too little", requested, FundLoanInput{Lender: "bob", LoanID: 5, FundingValue: decimal.NewFromInt(99)}, loan.ErrIncorrectFundingAmount, nil},
		{"too much", requested, FundLoanInput{Lender: "bob", LoanID: 5, FundingValue: decimal.RequireFromString("100.000000000000000001")}, loan.ErrIncorrectFundingAmount, nil},
		{"no lender", requested, FundLoanInput{LoanID: 5, FundingValue: decimal.NewFromInt(100)}, loan.ErrInvalidParameters, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, time.Now(), tc.current)
			dto, err := f.uc.FundLoan(context.Background(), tc.in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
			requireCalls(t, f.custody.Calls(), tc.calls...)
			if tc.wantErr != nil {
				if f.saved != nil {
					t.Fatalf("loan saved on error: %+v", f.saved)
				}
				return
			}
			if dto.Lender != "bob" || !dto.IsFunded || dto.FundedAt == nil {
				t.Fatalf("unexpected dto: %+v", dto)
			}
		})
	}
}

func TestUsecase_RepayLoan(t *testing.T) {
	due := time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)
	repaid := fundedLoan(due)
	repaid.IsRepaid = true
	claimed := fundedLoan(due)
	claimed.IsClaimed = true
	unfunded := fundedLoan(due)
	unfunded.IsFunded, unfunded.Lender = false, ""

	tests := []struct {
		name    string
		current *loan.Loan
		value   int64
		wantErr error
		calls   []custodymock.Call
	}{
		// 100 + 7% = 107
		{"happy path", fundedLoan(due), 107, nil, []custodymock.Call{callIn("carol", 107), callOut("bob", 107), callOut("alice", 50)}},
		{"not funded", unfunded, 107, loan.ErrNotFunded, nil},
		{"already repaid", repaid, 107, loan.ErrAlreadyRepaid, nil},
		{"already claimed", claimed, 107, loan.ErrAlreadyClaimed, nil},
		{"principal only", fundedLoan(due), 100, loan.ErrIncorrectRepaymentAmount, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, due.Add(time.Hour), tc.current)
			dto, err := f.uc.RepayLoan(context.Background(), RepayLoanInput{Payer: "carol", LoanID: 5, RepaymentValue: decimal.NewFromInt(tc.value)})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
			requireCalls(t, f.custody.Calls(), tc.calls...)
			if tc.wantErr == nil && (!dto.IsRepaid || dto.SettledAt == nil) {
				t.Fatalf("unexpected dto: %+v", dto)
			}
		})
	}
}

func TestUsecase_ClaimCollateral(t *testing.T) {
	due := time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)
	repaid := fundedLoan(due)
	repaid.IsRepaid = true

	tests := []struct {
		name    string
		now     time.Time
		current *loan.Loan
		caller  string
		wantErr error
	}{
		{"after due", due.Add(time.Second), fundedLoan(due), "bob", nil},
		{"exactly at due", due, fundedLoan(due), "bob", loan.ErrNotYetDue},
		{"sub-second after due still at due", due.Add(900 * time.Millisecond), fundedLoan(due), "bob", loan.ErrNotYetDue},
		{"not the lender", due.Add(time.Hour), fundedLoan(due), "mallory", loan.ErrUnauthorized},
		{"unauthorized before not yet due", due.Add(-time.Hour), fundedLoan(due), "mallory", loan.ErrUnauthorized},
		{"repaid wins over unauthorized", due.Add(time.Hour), repaid, "mallory", loan.ErrAlreadyRepaid},
		{"unknown loan", due.Add(time.Hour), nil, "bob", loan.ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.now, tc.current)
			_, err := f.uc.ClaimCollateral(context.Background(), ClaimCollateralInput{Lender: tc.caller, LoanID: 5})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
			if tc.wantErr == nil {
				requireCalls(t, f.custody.Calls(), callOut("bob", 50))
				if !f.saved.IsClaimed {
					t.Fatalf("loan not marked claimed: %+v", f.saved)
				}
			} else if len(f.custody.Calls()) != 0 {
				t.Fatalf("custody touched on error: %+v", f.custody.Calls())
			}
		})
	}
}

func TestUsecase_NoUnitOfWork(t *testing.T) {
	u := NewUsecase(&loanmock.Repo{}, &eventmock.Repo{}, nil)
	_, err := u.FundLoan(context.Background(), FundLoanInput{Lender: "bob", LoanID: 1, FundingValue: decimal.NewFromInt(1)})
	if !errors.Is(err, errNoUoW) {
		t.Fatalf("want errNoUoW, got %v", err)
	}
}

func TestUsecase_QuoteRepayment(t *testing.T) {
	due := time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)
	l := fundedLoan(due)
	loans := &loanmock.Repo{GetByIDFn: func(context.Context, uint64) (*loan.Loan, error) { return l, nil }}
	u := NewUsecase(loans, &eventmock.Repo{}, nil, WithClock(clock.NewFake(due.Add(time.Minute))))

	q, err := u.QuoteRepayment(context.Background(), 5)
	if err != nil {
		t.Fatalf("QuoteRepayment: %v", err)
	}
	if !q.Interest.Equal(decimal.NewFromInt(7)) || !q.TotalDue.Equal(decimal.NewFromInt(107)) {
		t.Fatalf("unexpected amounts: %+v", q)
	}
	if !q.Overdue || !q.Claimable || q.Status != string(loan.StatusFunded) {
		t.Fatalf("unexpected flags: %+v", q)
	}
}

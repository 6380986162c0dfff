package ledger

import (
	"time"

	"loan-escrow/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type RequestLoanInput struct {
	Borrower        string
	InterestRate    int64
	Duration        time.Duration
	CollateralValue decimal.Decimal
}

type FundLoanInput struct {
	Lender       string
	LoanID       uint64
	FundingValue decimal.Decimal
}

type RepayLoanInput struct {
	Payer          string
	LoanID         uint64
	RepaymentValue decimal.Decimal
}

type ClaimCollateralInput struct {
	Lender string
	LoanID uint64
}

type LoanDTO struct {
	LoanID           uint64          `json:"loan_id"`
	Borrower         string          `json:"borrower"`
	Lender           string          `json:"lender,omitempty"`
	CollateralAmount decimal.Decimal `json:"collateral_amount"`
	LoanAmount       decimal.Decimal `json:"loan_amount"`
	InterestRate     int64           `json:"interest_rate"`
	DueTime          time.Time       `json:"due_time"`
	DueTimestamp     int64           `json:"due_timestamp"`
	IsFunded         bool            `json:"is_funded"`
	IsRepaid         bool            `json:"is_repaid"`
	IsClaimed        bool            `json:"is_claimed"`
	Status           string          `json:"status"`
	FundedAt         *time.Time      `json:"funded_at,omitempty"`
	SettledAt        *time.Time      `json:"settled_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

type QuoteDTO struct {
	LoanID       uint64          `json:"loan_id"`
	Principal    decimal.Decimal `json:"principal"`
	Interest     decimal.Decimal `json:"interest"`
	TotalDue     decimal.Decimal `json:"total_due"`
	DueTime      time.Time       `json:"due_time"`
	Overdue      bool            `json:"overdue"`
	Claimable    bool            `json:"claimable"`
	Status       string          `json:"status"`
	InterestRate int64           `json:"interest_rate"`
}

func toDTO(l *loan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:           l.ID,
		Borrower:         l.Borrower,
		Lender:           l.Lender,
		CollateralAmount: l.CollateralAmount,
		LoanAmount:       l.LoanAmount,
		InterestRate:     l.InterestRate,
		DueTime:          l.DueTime.UTC(),
		DueTimestamp:     l.DueTime.Unix(),
		IsFunded:         l.IsFunded,
		IsRepaid:         l.IsRepaid,
		IsClaimed:        l.IsClaimed,
		Status:           string(l.Status()),
		FundedAt:         l.FundedAt,
		SettledAt:        l.SettledAt,
		CreatedAt:        l.CreatedAt,
	}
}

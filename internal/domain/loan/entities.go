package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusRequested Status = "requested"
	StatusFunded    Status = "funded"
	StatusRepaid    Status = "repaid"
	StatusClaimed   Status = "claimed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusRequested, StatusFunded, StatusRepaid, StatusClaimed:
		return true
	}
	return false
}

// Loan is one escrowed loan. ID is assigned by the store on insert and starts at 1.
// Borrower, CollateralAmount, LoanAmount, InterestRate and DueTime never change after
// creation; Lender is written exactly once, together with IsFunded.
type Loan struct {
	ID               uint64          `gorm:"primaryKey;autoIncrement;column:id" json:"loan_id"`
	Borrower         string          `gorm:"size:128;not null;index:idx_loans_borrower" json:"borrower"`
	Lender           string          `gorm:"size:128;index:idx_loans_lender" json:"lender"`
	CollateralAmount decimal.Decimal `gorm:"type:decimal(65,18);not null" json:"collateral_amount"`
	LoanAmount       decimal.Decimal `gorm:"type:decimal(65,18);not null" json:"loan_amount"`
	InterestRate     int64           `gorm:"not null" json:"interest_rate"`
	DueTime          time.Time       `gorm:"not null" json:"due_time"`
	IsFunded         bool            `gorm:"not null;default:false" json:"is_funded"`
	IsRepaid         bool            `gorm:"not null;default:false" json:"is_repaid"`
	IsClaimed        bool            `gorm:"not null;default:false" json:"is_claimed"`
	FundedAt         *time.Time      `json:"funded_at,omitempty"`
	SettledAt        *time.Time      `json:"settled_at,omitempty"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// Status derives the lifecycle state from the monotonic flags.
func (l *Loan) Status() Status {
	switch {
	case l.IsClaimed:
		return StatusClaimed
	case l.IsRepaid:
		return StatusRepaid
	case l.IsFunded:
		return StatusFunded
	default:
		return StatusRequested
	}
}

// Settled reports whether the collateral has already left custody.
func (l *Loan) Settled() bool { return l.IsRepaid || l.IsClaimed }

// Filter narrows List queries. Zero values match everything.
type Filter struct {
	Borrower string
	Lender   string
	Status   Status
	Limit    int
	Offset   int
}

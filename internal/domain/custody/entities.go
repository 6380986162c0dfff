package custody

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Address of the account that holds escrowed value. It is not a valid caller address.
const Address = "escrow:custody"

var (
	ErrInvalidAmount       = errors.New("custody: invalid amount")
	ErrInsufficientFunds   = errors.New("custody: insufficient funds")
	ErrInsufficientCustody = errors.New("custody: insufficient custody balance")
)

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Account is a balance holder. Custody itself is the account stored under Address.
type Account struct {
	Address   string          `gorm:"primaryKey;size:128;column:address" json:"address"`
	Balance   decimal.Decimal `gorm:"type:decimal(65,18);not null" json:"balance"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

// Transfer journals one movement into or out of custody.
type Transfer struct {
	ID           string          `gorm:"primaryKey;type:char(32);column:id" json:"id"`
	Direction    Direction       `gorm:"size:8;not null" json:"direction"`
	Counterparty string          `gorm:"size:128;not null;index" json:"counterparty"`
	Amount       decimal.Decimal `gorm:"type:decimal(65,18);not null" json:"amount"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Transfer) TableName() string { return "custody_transfers" }

// Receipt acknowledges a completed transfer.
type Receipt struct {
	ID           string          `json:"id"`
	Direction    Direction       `json:"direction"`
	Counterparty string          `json:"counterparty"`
	Amount       decimal.Decimal `json:"amount"`
}

package account

import (
	"time"

	"loan-escrow/internal/domain/custody"

	"github.com/shopspring/decimal"
)

type CreditInput struct {
	Address string
	Amount  decimal.Decimal
}

type AccountDTO struct {
	Address   string          `json:"address"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

func toDTO(a *custody.Account) *AccountDTO {
	dto := &AccountDTO{Address: a.Address, Balance: a.Balance}
	if !a.UpdatedAt.IsZero() {
		t := a.UpdatedAt.UTC()
		dto.UpdatedAt = &t
	}
	return dto
}

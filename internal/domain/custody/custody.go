package custody

import (
	"context"

	"github.com/shopspring/decimal"
)

// Custody moves value between callers and the escrow. Each call is all-or-nothing and
// conserves the total balance.
type Custody interface {
	// TransferIn moves amount from the caller into custody.
	TransferIn(ctx context.Context, from string, amount decimal.Decimal) (Receipt, error)
	// TransferOut moves amount out of custody to recipient.
	TransferOut(ctx context.Context, to string, amount decimal.Decimal) (Receipt, error)
}

type Repository interface {
	// GetForUpdate returns the account locked for the rest of the transaction.
	// Unknown addresses yield a zero-balance account.
	GetForUpdate(ctx context.Context, address string) (*Account, error)
	Get(ctx context.Context, address string) (*Account, error)
	Save(ctx context.Context, a *Account) error
	RecordTransfer(ctx context.Context, t *Transfer) error
}

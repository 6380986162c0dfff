package custodymock

import (
	"context"
	"sync"

	domain "loan-escrow/internal/domain/custody"

	"github.com/shopspring/decimal"
)

// Call is one recorded transfer request.
type Call struct {
	Direction    domain.Direction
	Counterparty string
	Amount       decimal.Decimal
}

// Custody is a function-backed mock of domain.Custody that records every call.
// Unset functions succeed.
type Custody struct {
	TransferInFn  func(ctx context.Context, from string, amount decimal.Decimal) (domain.Receipt, error)
	TransferOutFn func(ctx context.Context, to string, amount decimal.Decimal) (domain.Receipt, error)

	mu    sync.Mutex
	calls []Call
}

var _ domain.Custody = (*Custody)(nil)

func (m *Custody) TransferIn(ctx context.Context, from string, amount decimal.Decimal) (domain.Receipt, error) {
	m.record(domain.DirectionIn, from, amount)
	if m.TransferInFn != nil {
		return m.TransferInFn(ctx, from, amount)
	}
	return domain.Receipt{Direction: domain.DirectionIn, Counterparty: from, Amount: amount}, nil
}

func (m *Custody) TransferOut(ctx context.Context, to string, amount decimal.Decimal) (domain.Receipt, error) {
	m.record(domain.DirectionOut, to, amount)
	if m.TransferOutFn != nil {
		return m.TransferOutFn(ctx, to, amount)
	}
	return domain.Receipt{Direction: domain.DirectionOut, Counterparty: to, Amount: amount}, nil
}

func (m *Custody) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

func (m *Custody) record(dir domain.Direction, who string, amount decimal.Decimal) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Direction: dir, Counterparty: who, Amount: amount})
	m.mu.Unlock()
}

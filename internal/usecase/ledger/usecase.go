package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"loan-escrow/internal/domain/event"
	"loan-escrow/internal/domain/loan"
	"loan-escrow/internal/domain/uow"
	"loan-escrow/internal/infrastructure/clock"
	"loan-escrow/internal/infrastructure/metrics"

	"go.uber.org/zap"
)

// Usecase is the loan ledger. Mutations are serialized by mu and each runs in a single
// unit of work, so a failure leaves no loan, custody or event change behind.
type Usecase struct {
	loans   loan.Repository
	events  event.Repository
	uow     uow.UnitOfWork
	clock   clock.Clock
	policy  loan.Policy
	pub     event.Publisher
	log     *zap.Logger
	metrics *metrics.Metrics

	mu sync.Mutex
}

type Option func(*Usecase)

func WithClock(c clock.Clock) Option { return func(u *Usecase) { u.clock = c } }
func WithPolicy(p loan.Policy) Option { return func(u *Usecase) { u.policy = p } }
func WithPublisher(p event.Publisher) Option { return func(u *Usecase) { u.pub = p } }
func WithLogger(l *zap.Logger) Option { return func(u *Usecase) { u.log = l } }
func WithMetrics(m *metrics.Metrics) Option { return func(u *Usecase) { u.metrics = m } }

// NewUsecase: pass both repos and a UoW for tx flows.
func NewUsecase(loans loan.Repository, events event.Repository, tx uow.UnitOfWork, opts ...Option) *Usecase {
	u := &Usecase{
		loans:  loans,
		events: events,
		uow:    tx,
		clock:  clock.System{},
		policy: loan.DefaultPolicy(),
		pub:    event.NoopPublisher{},
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// now is read once per operation; block-style timestamps have second resolution.
func (u *Usecase) now() time.Time { return u.clock.Now().UTC().Truncate(time.Second) }

func (u *Usecase) RequestLoan(ctx context.Context, in RequestLoanInput) (dto *LoanDTO, err error) {
	started := time.Now()
	defer func() { u.finish("request_loan", started, err, zap.String("borrower", in.Borrower)) }()

	if in.Borrower == "" {
		return nil, fmt.Errorf("%w: borrower required", loan.ErrInvalidParameters)
	}
	if err := u.policy.ValidateRequest(in.InterestRate, in.Duration, in.CollateralValue); err != nil {
		return nil, err
	}
	if u.uow == nil {
		return nil, errNoUoW
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	now := u.now()

	var (
		l  *loan.Loan
		ev *event.Event
	)
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := r.Custody.TransferIn(ctx, in.Borrower, in.CollateralValue); err != nil {
			return custodyFailed(err)
		}
		l = &loan.Loan{
			Borrower:         in.Borrower,
			CollateralAmount: in.CollateralValue,
			LoanAmount:       loan.LoanAmountFor(in.CollateralValue),
			InterestRate:     in.InterestRate,
			DueTime:          now.Add(in.Duration),
			CreatedAt:        now,
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		ev = newEvent(event.NameLoanRequested, l.ID, now,
			l.Borrower, idArg(l.ID), l.CollateralAmount.String(), l.LoanAmount.String(),
			strconv.FormatInt(l.InterestRate, 10), strconv.FormatInt(l.DueTime.Unix(), 10))
		return r.Events.Append(ctx, ev)
	})
	if err != nil {
		return nil, err
	}
	u.metrics.AddValue("in", in.CollateralValue.InexactFloat64())
	u.publish(ctx, ev)
	return toDTO(l), nil
}

func (u *Usecase) FundLoan(ctx context.Context, in FundLoanInput) (dto *LoanDTO, err error) {
	started := time.Now()
	defer func() {
		u.finish("fund_loan", started, err, zap.Uint64("loan_id", in.LoanID), zap.String("lender", in.Lender))
	}()

	if in.Lender == "" {
		return nil, fmt.Errorf("%w: lender required", loan.ErrInvalidParameters)
	}
	if u.uow == nil {
		return nil, errNoUoW
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	now := u.now()

	var (
		out *loan.Loan
		ev  *event.Event
	)
	err = u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if l.IsFunded {
			return loan.ErrAlreadyFunded
		}
		if !in.FundingValue.Equal(l.LoanAmount) {
			return fmt.Errorf("%w: expected %s, got %s", loan.ErrIncorrectFundingAmount, l.LoanAmount, in.FundingValue)
		}
		// the loan value passes through custody straight to the borrower
		if _, err := r.Custody.TransferIn(ctx, in.Lender, in.FundingValue); err != nil {
			return custodyFailed(err)
		}
		if _, err := r.Custody.TransferOut(ctx, l.Borrower, in.FundingValue); err != nil {
			return custodyFailed(err)
		}
		l.Lender = in.Lender
		l.IsFunded = true
		l.FundedAt = &now
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		ev = newEvent(event.NameLoanFunded, l.ID, now, l.Lender, idArg(l.ID), in.FundingValue.String())
		out = l
		return r.Events.Append(ctx, ev)
	})
	if err != nil {
		return nil, err
	}
	u.metrics.AddValue("in", in.FundingValue.InexactFloat64())
	u.metrics.AddValue("out", in.FundingValue.InexactFloat64())
	u.publish(ctx, ev)
	return toDTO(out), nil
}

// RepayLoan accepts the exact principal plus interest from payer, forwards it to the
// lender and releases the collateral to the borrower. Late repayment is allowed until
// the collateral has been claimed.
func (u *Usecase) RepayLoan(ctx context.Context, in RepayLoanInput) (dto *LoanDTO, err error) {
	started := time.Now()
	defer func() {
		u.finish("repay_loan", started, err, zap.Uint64("loan_id", in.LoanID), zap.String("payer", in.Payer))
	}()

	if in.Payer == "" {
		return nil, fmt.Errorf("%w: payer required", loan.ErrInvalidParameters)
	}
	if u.uow == nil {
		return nil, errNoUoW
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	now := u.now()

	var (
		out *loan.Loan
		ev  *event.Event
	)
	err = u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		switch {
		case !l.IsFunded:
			return loan.ErrNotFunded
		case l.IsRepaid:
			return loan.ErrAlreadyRepaid
		case l.IsClaimed:
			return loan.ErrAlreadyClaimed
		}
		due := l.RepaymentAmount()
		if !in.RepaymentValue.Equal(due) {
			return fmt.Errorf("%w: expected %s, got %s", loan.ErrIncorrectRepaymentAmount, due, in.RepaymentValue)
		}
		if _, err := r.Custody.TransferIn(ctx, in.Payer, in.RepaymentValue); err != nil {
			return custodyFailed(err)
		}
		if _, err := r.Custody.TransferOut(ctx, l.Lender, in.RepaymentValue); err != nil {
			return custodyFailed(err)
		}
		if _, err := r.Custody.TransferOut(ctx, l.Borrower, l.CollateralAmount); err != nil {
			return custodyFailed(err)
		}
		l.IsRepaid = true
		l.SettledAt = &now
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		ev = newEvent(event.NameLoanRepaid, l.ID, now, l.Borrower, idArg(l.ID), in.RepaymentValue.String())
		out = l
		return r.Events.Append(ctx, ev)
	})
	if err != nil {
		return nil, err
	}
	u.metrics.AddValue("in", in.RepaymentValue.InexactFloat64())
	u.metrics.AddValue("out", in.RepaymentValue.Add(out.CollateralAmount).InexactFloat64())
	u.publish(ctx, ev)
	return toDTO(out), nil
}

// ClaimCollateral hands the collateral of a defaulted loan to its lender. Only strictly
// after the due time.
func (u *Usecase) ClaimCollateral(ctx context.Context, in ClaimCollateralInput) (dto *LoanDTO, err error) {
	started := time.Now()
	defer func() {
		u.finish("claim_collateral", started, err, zap.Uint64("loan_id", in.LoanID), zap.String("lender", in.Lender))
	}()

	if in.Lender == "" {
		return nil, fmt.Errorf("%w: lender required", loan.ErrInvalidParameters)
	}
	if u.uow == nil {
		return nil, errNoUoW
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	now := u.now()

	var (
		out *loan.Loan
		ev  *event.Event
	)
	err = u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		switch {
		case !l.IsFunded:
			return loan.ErrNotFunded
		case l.IsRepaid:
			return loan.ErrAlreadyRepaid
		case l.IsClaimed:
			return loan.ErrAlreadyClaimed
		case l.Lender != in.Lender:
			return loan.ErrUnauthorized
		case !now.After(l.DueTime):
			return fmt.Errorf("%w: due at %s", loan.ErrNotYetDue, l.DueTime.UTC().Format(time.RFC3339))
		}
		if _, err := r.Custody.TransferOut(ctx, l.Lender, l.CollateralAmount); err != nil {
			return custodyFailed(err)
		}
		l.IsClaimed = true
		l.SettledAt = &now
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		ev = newEvent(event.NameLoanCollateralClaimed, l.ID, now, l.Lender, idArg(l.ID), l.CollateralAmount.String())
		out = l
		return r.Events.Append(ctx, ev)
	})
	if err != nil {
		return nil, err
	}
	u.metrics.AddValue("out", out.CollateralAmount.InexactFloat64())
	u.publish(ctx, ev)
	return toDTO(out), nil
}

func (u *Usecase) GetLoan(ctx context.Context, loanID uint64) (*LoanDTO, error) {
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return toDTO(l), nil
}

func (u *Usecase) ListLoans(ctx context.Context, f loan.Filter) ([]LoanDTO, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", loan.ErrInvalidParameters, f.Status)
	}
	ls, err := u.loans.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]LoanDTO, 0, len(ls))
	for i := range ls {
		out = append(out, *toDTO(&ls[i]))
	}
	return out, nil
}

// QuoteRepayment reports what the borrower owes right now.
func (u *Usecase) QuoteRepayment(ctx context.Context, loanID uint64) (*QuoteDTO, error) {
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	now := u.now()
	return &QuoteDTO{
		LoanID:       l.ID,
		Principal:    l.LoanAmount,
		Interest:     loan.Interest(l.LoanAmount, l.InterestRate),
		TotalDue:     l.RepaymentAmount(),
		DueTime:      l.DueTime.UTC(),
		Overdue:      !l.Settled() && now.After(l.DueTime),
		Claimable:    l.Claimable(now),
		Status:       string(l.Status()),
		InterestRate: l.InterestRate,
	}, nil
}

func (u *Usecase) LoanEvents(ctx context.Context, loanID uint64) ([]event.Event, error) {
	if _, err := u.loans.GetByID(ctx, loanID); err != nil {
		return nil, err
	}
	return u.events.ListByLoanID(ctx, loanID)
}

func (u *Usecase) Events(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	return u.events.ListAfter(ctx, afterSeq, limit)
}

// ---- helpers ----

var errNoUoW = errors.New("ledger: unit of work not configured")

func custodyFailed(err error) error {
	return fmt.Errorf("%w: %w", loan.ErrCustodyTransferFailed, err)
}

func idArg(id uint64) string { return strconv.FormatUint(id, 10) }

func newEvent(name string, loanID uint64, at time.Time, args ...string) *event.Event {
	return &event.Event{Name: name, LoanID: loanID, Args: args, CreatedAt: at}
}

// publish runs after commit; the event is already durable in the log, so a sink
// failure is only logged.
func (u *Usecase) publish(ctx context.Context, ev *event.Event) {
	if ev == nil {
		return
	}
	if err := u.pub.Publish(ctx, *ev); err != nil {
		u.log.Warn("publish event failed", zap.String("event", ev.Name), zap.Uint64("seq", ev.Seq), zap.Error(err))
	}
}

func (u *Usecase) finish(op string, started time.Time, err error, fields ...zap.Field) {
	outcome := "ok"
	if err != nil {
		outcome = loan.Code(err)
		if outcome == "" {
			outcome = "internal"
			u.log.Error(op+" failed", append(fields, zap.Error(err))...)
		} else {
			u.log.Info(op+" rejected", append(fields, zap.String("code", outcome), zap.Error(err))...)
		}
	} else {
		u.log.Info(op, fields...)
	}
	u.metrics.Observe(op, outcome, started)
}

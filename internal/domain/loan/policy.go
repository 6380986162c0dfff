package loan

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// CollateralMultiplier fixes loan_amount = collateral * CollateralMultiplier.
	CollateralMultiplier = 2
	// AmountScale is the number of fractional digits a value unit may carry.
	AmountScale int32 = 18

	DefaultMaxInterestRatePercent int64 = 100
	DefaultMaxDuration                  = 10 * 365 * 24 * time.Hour

	// MaxDurationSeconds is the largest second count a time.Duration can hold.
	MaxDurationSeconds = int64(math.MaxInt64 / int64(time.Second))
)

// DurationFromSeconds converts a caller-supplied second count without wrapping.
func DurationFromSeconds(secs int64) (time.Duration, error) {
	if secs <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive", ErrInvalidParameters)
	}
	if secs > MaxDurationSeconds {
		return 0, fmt.Errorf("%w: duration of %d seconds is out of range", ErrInvalidParameters, secs)
	}
	return time.Duration(secs) * time.Second, nil
}

// Policy holds the tunable bounds applied when a loan is requested.
type Policy struct {
	MaxInterestRatePercent int64
	MaxDuration            time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxInterestRatePercent: DefaultMaxInterestRatePercent,
		MaxDuration:            DefaultMaxDuration,
	}
}

// ValidateRequest checks the request parameters; every failure wraps ErrInvalidParameters.
func (p Policy) ValidateRequest(rate int64, duration time.Duration, collateral decimal.Decimal) error {
	if err := ValidateAmount(collateral); err != nil {
		return fmt.Errorf("%w: collateral %v", ErrInvalidParameters, err)
	}
	if duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidParameters)
	}
	if duration%time.Second != 0 {
		return fmt.Errorf("%w: duration must be whole seconds", ErrInvalidParameters)
	}
	if p.MaxDuration > 0 && duration > p.MaxDuration {
		return fmt.Errorf("%w: duration exceeds %s", ErrInvalidParameters, p.MaxDuration)
	}
	if rate < 0 {
		return fmt.Errorf("%w: interest rate must not be negative", ErrInvalidParameters)
	}
	if rate > p.MaxInterestRatePercent {
		return fmt.Errorf("%w: interest rate exceeds %d%%", ErrInvalidParameters, p.MaxInterestRatePercent)
	}
	return nil
}

// ValidateAmount accepts strictly positive values with at most AmountScale fractional digits.
func ValidateAmount(v decimal.Decimal) error {
	if !v.IsPositive() {
		return fmt.Errorf("must be positive")
	}
	if !v.Equal(v.Truncate(AmountScale)) {
		return fmt.Errorf("has more than %d fractional digits", AmountScale)
	}
	return nil
}

// LoanAmountFor derives the loan value from the collateral.
func LoanAmountFor(collateral decimal.Decimal) decimal.Decimal {
	return collateral.Mul(decimal.NewFromInt(CollateralMultiplier))
}

// Interest is simple interest in whole percent, floored to AmountScale digits.
func Interest(principal decimal.Decimal, ratePercent int64) decimal.Decimal {
	return principal.Mul(decimal.NewFromInt(ratePercent)).Shift(-2).Truncate(AmountScale)
}

// RepaymentAmount is the exact value the borrower must return.
func (l *Loan) RepaymentAmount() decimal.Decimal {
	return l.LoanAmount.Add(Interest(l.LoanAmount, l.InterestRate))
}

// Claimable reports whether the lender may seize the collateral at now.
func (l *Loan) Claimable(now time.Time) bool {
	return l.IsFunded && !l.Settled() && now.After(l.DueTime)
}

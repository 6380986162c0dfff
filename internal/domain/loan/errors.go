package loan

import "errors"

var (
	ErrInvalidParameters        = errors.New("loan: invalid parameters")
	ErrCustodyTransferFailed    = errors.New("loan: custody transfer failed")
	ErrNotFound                 = errors.New("loan: not found")
	ErrAlreadyFunded            = errors.New("loan: already funded")
	ErrNotFunded                = errors.New("loan: not funded")
	ErrIncorrectFundingAmount   = errors.New("loan: incorrect funding amount")
	ErrIncorrectRepaymentAmount = errors.New("loan: incorrect repayment amount")
	ErrAlreadyRepaid            = errors.New("loan: already repaid")
	ErrAlreadyClaimed           = errors.New("loan: already claimed")
	ErrNotYetDue                = errors.New("loan: not yet due")
	ErrUnauthorized             = errors.New("loan: unauthorized")
)

// Code returns the stable error name exposed to API clients, or "" for errors outside the taxonomy.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidParameters):
		return "InvalidParameters"
	case errors.Is(err, ErrCustodyTransferFailed):
		return "CustodyTransferFailed"
	case errors.Is(err, ErrNotFound):
		return "LoanNotFound"
	case errors.Is(err, ErrAlreadyFunded):
		return "AlreadyFunded"
	case errors.Is(err, ErrNotFunded):
		return "NotFunded"
	case errors.Is(err, ErrIncorrectFundingAmount):
		return "IncorrectFundingAmount"
	case errors.Is(err, ErrIncorrectRepaymentAmount):
		return "IncorrectRepaymentAmount"
	case errors.Is(err, ErrAlreadyRepaid):
		return "AlreadyRepaid"
	case errors.Is(err, ErrAlreadyClaimed):
		return "AlreadyClaimed"
	case errors.Is(err, ErrNotYetDue):
		return "NotYetDue"
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	}
	return ""
}

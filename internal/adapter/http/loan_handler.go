package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"loan-escrow/internal/domain/event"
	"loan-escrow/internal/domain/loan"
	"loan-escrow/internal/usecase/ledger"
	"loan-escrow/pkg/address"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *ledger.Usecase }

func NewLoanHandler(uc *ledger.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type requestLoanReq struct {
	InterestRate *int64      `json:"interest_rate" validate:"required,gte=0"`
	Duration     int64       `json:"duration"      validate:"required,gt=0"`
	Value        json.Number `json:"value"         validate:"required,amount"`
}

type valueReq struct {
	Value json.Number `json:"value" validate:"required,amount"`
}

type eventsResp struct {
	Events []event.Event `json:"events"`
	Next   uint64        `json:"next,omitempty"`
}

func (h *LoanHandler) RequestLoan(c echo.Context) error {
	caller, ok := callerAddress(c)
	if !ok {
		return badRequest(c, "missing or invalid "+HeaderCallerAddress)
	}
	var req requestLoanReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	value, _ := parseAmount(req.Value.String())
	duration, err := loan.DurationFromSeconds(req.Duration)
	if err != nil {
		return writeError(c, err)
	}

	dto, err := h.uc.RequestLoan(c.Request().Context(), ledger.RequestLoanInput{
		Borrower:        caller,
		InterestRate:    *req.InterestRate,
		Duration:        duration,
		CollateralValue: value,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) FundLoan(c echo.Context) error {
	caller, id, req, err := h.valueCall(c)
	if err != nil || req == nil {
		return err
	}
	value, _ := parseAmount(req.Value.String())
	dto, err := h.uc.FundLoan(c.Request().Context(), ledger.FundLoanInput{Lender: caller, LoanID: id, FundingValue: value})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) RepayLoan(c echo.Context) error {
	caller, id, req, err := h.valueCall(c)
	if err != nil || req == nil {
		return err
	}
	value, _ := parseAmount(req.Value.String())
	dto, err := h.uc.RepayLoan(c.Request().Context(), ledger.RepayLoanInput{Payer: caller, LoanID: id, RepaymentValue: value})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ClaimCollateral(c echo.Context) error {
	caller, ok := callerAddress(c)
	if !ok {
		return badRequest(c, "missing or invalid "+HeaderCallerAddress)
	}
	id, ok := loanIDParam(c)
	if !ok {
		return badRequest(c, "invalid loan_id path param")
	}
	dto, err := h.uc.ClaimCollateral(c.Request().Context(), ledger.ClaimCollateralInput{Lender: caller, LoanID: id})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// valueCall parses the caller, path id and {value} body shared by fund and repay.
// A nil request with a nil error means a response was already written.
func (h *LoanHandler) valueCall(c echo.Context) (string, uint64, *valueReq, error) {
	caller, ok := callerAddress(c)
	if !ok {
		return "", 0, nil, badRequest(c, "missing or invalid "+HeaderCallerAddress)
	}
	id, ok := loanIDParam(c)
	if !ok {
		return "", 0, nil, badRequest(c, "invalid loan_id path param")
	}
	var req valueReq
	if err := c.Bind(&req); err != nil {
		return "", 0, nil, badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return "", 0, nil, validationFailed(c, err)
	}
	return caller, id, &req, nil
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, ok := loanIDParam(c)
	if !ok {
		return badRequest(c, "invalid loan_id path param")
	}
	dto, err := h.uc.GetLoan(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ListLoans(c echo.Context) error {
	f := loan.Filter{Status: loan.Status(c.QueryParam("status"))}
	for _, p := range []struct {
		name string
		dst  *string
	}{{"borrower", &f.Borrower}, {"lender", &f.Lender}} {
		raw := c.QueryParam(p.name)
		if raw == "" {
			continue
		}
		a, err := address.Normalize(raw)
		if err != nil {
			return badRequest(c, "invalid "+p.name)
		}
		*p.dst = a
	}
	var ok bool
	if f.Limit, ok = intQuery(c, "limit"); !ok {
		return badRequest(c, "invalid limit")
	}
	if f.Offset, ok = intQuery(c, "offset"); !ok {
		return badRequest(c, "invalid offset")
	}

	loans, err := h.uc.ListLoans(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loans": loans})
}

func (h *LoanHandler) QuoteRepayment(c echo.Context) error {
	id, ok := loanIDParam(c)
	if !ok {
		return badRequest(c, "invalid loan_id path param")
	}
	q, err := h.uc.QuoteRepayment(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *LoanHandler) LoanEvents(c echo.Context) error {
	id, ok := loanIDParam(c)
	if !ok {
		return badRequest(c, "invalid loan_id path param")
	}
	evs, err := h.uc.LoanEvents(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, eventsResp{Events: nonNil(evs)})
}

// Events pages through the whole log by sequence number.
func (h *LoanHandler) Events(c echo.Context) error {
	var after uint64
	if raw := c.QueryParam("after"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return badRequest(c, "invalid after")
		}
		after = n
	}
	limit, ok := intQuery(c, "limit")
	if !ok {
		return badRequest(c, "invalid limit")
	}
	evs, err := h.uc.Events(c.Request().Context(), after, limit)
	if err != nil {
		return writeError(c, err)
	}
	resp := eventsResp{Events: nonNil(evs)}
	if n := len(evs); n > 0 {
		resp.Next = evs[n-1].Seq
	}
	return c.JSON(http.StatusOK, resp)
}

func intQuery(c echo.Context, name string) (int, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func nonNil(evs []event.Event) []event.Event {
	if evs == nil {
		return []event.Event{}
	}
	return evs
}

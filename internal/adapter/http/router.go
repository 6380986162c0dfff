package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Routes bundles the handlers mounted by Register. Nil handlers are skipped.
type Routes struct {
	Health   *Handler
	Loans    *LoanHandler
	Accounts *AccountHandler
	// Faucet routes POST /accounts/:address/credit.
	Faucet bool
	// Mutating wraps every state-changing route, e.g. with idempotency.
	Mutating []echo.MiddlewareFunc
	Metrics  http.Handler
}

func Register(e *echo.Echo, r Routes) {
	if r.Health != nil {
		e.GET("/health", r.Health.Health)
	}
	if r.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(r.Metrics))
	}

	if h := r.Loans; h != nil {
		e.POST("/loans", h.RequestLoan, r.Mutating...)
		e.POST("/loans/:loan_id/fund", h.FundLoan, r.Mutating...)
		e.POST("/loans/:loan_id/repay", h.RepayLoan, r.Mutating...)
		e.POST("/loans/:loan_id/claim", h.ClaimCollateral, r.Mutating...)

		e.GET("/loans", h.ListLoans)
		e.GET("/loans/:loan_id", h.GetLoan)
		e.GET("/loans/:loan_id/quote", h.QuoteRepayment)
		e.GET("/loans/:loan_id/events", h.LoanEvents)
		e.GET("/events", h.Events)
	}

	if h := r.Accounts; h != nil {
		e.GET("/accounts/:address", h.Balance)
		e.GET("/custody", h.Custody)
		if r.Faucet {
			e.POST("/accounts/:address/credit", h.Credit, r.Mutating...)
		}
	}
}

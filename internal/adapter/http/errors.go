package http

import (
	"errors"
	"net/http"

	"loan-escrow/internal/domain/loan"

	"github.com/labstack/echo/v4"
)

// statusFor maps ledger errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, loan.ErrInvalidParameters):
		return http.StatusBadRequest
	case errors.Is(err, loan.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, loan.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, loan.ErrAlreadyFunded),
		errors.Is(err, loan.ErrNotFunded),
		errors.Is(err, loan.ErrAlreadyRepaid),
		errors.Is(err, loan.ErrAlreadyClaimed),
		errors.Is(err, loan.ErrNotYetDue):
		return http.StatusConflict
	case errors.Is(err, loan.ErrIncorrectFundingAmount),
		errors.Is(err, loan.ErrIncorrectRepaymentAmount),
		errors.Is(err, loan.ErrCustodyTransferFailed):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError renders err as an ErrorResponse. Errors outside the ledger taxonomy
// are not echoed to the client; the use cases log them with their context.
func writeError(c echo.Context, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		return c.JSON(status, ErrorResponse{Error: "internal error", Code: "Internal"})
	}
	return c.JSON(status, ErrorResponse{Error: err.Error(), Code: loan.Code(err)})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "InvalidParameters"})
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation failed",
		Code:    "InvalidParameters",
		Details: ToFieldErrors(err),
	})
}

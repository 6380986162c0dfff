package http

import (
	"strconv"

	"loan-escrow/pkg/address"

	"github.com/labstack/echo/v4"
)

// HeaderCallerAddress carries the authenticated caller identity set by the gateway.
const HeaderCallerAddress = "X-Caller-Address"

func callerAddress(c echo.Context) (string, bool) {
	a, err := address.Normalize(c.Request().Header.Get(HeaderCallerAddress))
	if err != nil {
		return "", false
	}
	return a, true
}

func loanIDParam(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("loan_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

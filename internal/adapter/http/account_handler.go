package http

import (
	"encoding/json"
	"net/http"

	"loan-escrow/internal/usecase/account"
	"loan-escrow/pkg/address"

	"github.com/labstack/echo/v4"
)

type AccountHandler struct{ uc *account.Usecase }

func NewAccountHandler(uc *account.Usecase) *AccountHandler { return &AccountHandler{uc: uc} }

type accountParam struct {
	Address string `param:"address" json:"-" validate:"required,address"`
}

type creditReq struct {
	Address string      `param:"address" json:"-" validate:"required,address"`
	Amount  json.Number `json:"amount" validate:"required,amount"`
}

func (h *AccountHandler) Balance(c echo.Context) error {
	var req accountParam
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid address")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	a, _ := address.Normalize(req.Address)
	dto, err := h.uc.Balance(c.Request().Context(), a)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// Credit is the development faucet; it is only routed when enabled in config.
func (h *AccountHandler) Credit(c echo.Context) error {
	var req creditReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	a, _ := address.Normalize(req.Address)
	amount, _ := parseAmount(req.Amount.String())
	dto, err := h.uc.Credit(c.Request().Context(), account.CreditInput{Address: a, Amount: amount})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AccountHandler) Custody(c echo.Context) error {
	dto, err := h.uc.CustodyBalance(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

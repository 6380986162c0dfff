package http

import (
	"errors"

	"loan-escrow/internal/domain/loan"
	"loan-escrow/pkg/address"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Reusable error payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
type ErrorResponse struct {
	Error   string       `json:"error"`
	Code    string       `json:"code,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()

	// value units: positive decimal, at most 18 fractional digits
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		_, err := parseAmount(fl.Field().String())
		return err == nil
	})
	// caller identifiers: hex account address or opaque id
	_ = v.RegisterValidation("address", func(fl validator.FieldLevel) bool {
		_, err := address.Normalize(fl.Field().String())
		return err == nil
	})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, errors.New("empty amount")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if err := loan.ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// Map validator.ValidationErrors → []FieldError with readable messages.
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "amount":
			out = append(out, FieldError{Field: field, Message: "must be a positive amount with at most 18 decimal places"})
		case "address":
			out = append(out, FieldError{Field: field, Message: "must be a hex address or an alphanumeric identifier"})
		case "gt":
			out = append(out, FieldError{Field: field, Message: "must be greater than " + e.Param()})
		case "gte":
			out = append(out, FieldError{Field: field, Message: "must be greater than or equal to " + e.Param()})
		case "lte":
			out = append(out, FieldError{Field: field, Message: "must be less than or equal to " + e.Param()})
		case "oneof":
			out = append(out, FieldError{Field: field, Message: "must be one of " + e.Param()})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}

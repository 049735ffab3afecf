package domain

import "errors"

var (
	// Row errors
	ErrMalformedAmount = errors.New("amount is not a valid decimal number")
	ErrMalformedDate   = errors.New("date is not a valid timestamp")

	// Valuation errors
	ErrRateUnavailable = errors.New("exchange rate unavailable")
	ErrStrictValuation = errors.New("fiat valuation failed in strict mode")
)

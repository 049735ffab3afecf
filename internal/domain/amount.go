package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Amount is a parsed export amount. Cake marks outflows with a leading
// minus; the magnitude and the direction are separated once here so no
// later step needs to strip signs off strings again.
type Amount struct {
	Magnitude decimal.Decimal
	Outflow   bool
}

// ParseAmount parses a raw amount field into magnitude and direction.
func ParseAmount(raw string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return Amount{}, ErrMalformedAmount
	}

	return Amount{Magnitude: d.Abs(), Outflow: d.IsNegative()}, nil
}

// ParseOptionalAmount parses a fiat value field that may be empty.
func ParseOptionalAmount(raw string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.NullDecimal{}, nil
	}

	a, err := ParseAmount(raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}

	return decimal.NullDecimal{Decimal: a.Magnitude, Valid: true}, nil
}

// rowDateLayouts are the timestamp layouts seen in Cake exports.
var rowDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseRowDate parses a row timestamp into UTC.
func ParseRowDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range rowDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, ErrMalformedDate
}

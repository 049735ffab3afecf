package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cake2ct/internal/domain"
)

// Valuation turns a row's fiat value field into the account-currency
// value of an entry leg. It is the only place a conversion run touches
// the network, through the injected RateSource.
type Valuation struct {
	opts  Options
	rates RateSource
	log   zerolog.Logger
}

// NewValuation creates a Valuation.
func NewValuation(opts Options, rates RateSource, log zerolog.Logger) *Valuation {
	return &Valuation{opts: opts, rates: rates, log: log}
}

// LegValue resolves the account-currency value for one leg.
//
// The result is invalid when Cake valuation is disabled, the field is
// empty, or the lookup failed in non-strict mode. A malformed field
// returns domain.ErrMalformedAmount so the caller can fail the row; a
// failed lookup in strict mode returns domain.ErrStrictValuation and
// aborts the run.
func (v *Valuation) LegValue(ctx context.Context, date time.Time, raw, currency string) (decimal.NullDecimal, error) {
	if !v.opts.UseCakeFiatValuation {
		return decimal.NullDecimal{}, nil
	}

	amount, err := domain.ParseOptionalAmount(raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	if !amount.Valid {
		return decimal.NullDecimal{}, nil
	}

	value := amount.Decimal

	if currency != "" && !strings.EqualFold(currency, v.opts.AccountCurrency) {
		rate, err := v.rates.Rate(ctx, date, currency, v.opts.AccountCurrency)
		if err != nil {
			if v.opts.StrictFiat {
				return decimal.NullDecimal{}, fmt.Errorf("%w: %s/%s on %s: %v",
					domain.ErrStrictValuation, currency, v.opts.AccountCurrency, date.Format("2006-01-02"), err)
			}
			v.log.Warn().
				Err(err).
				Str("currency", currency).
				Str("date", date.Format("2006-01-02")).
				Msg("fiat valuation left empty, rate lookup failed")
			return decimal.NullDecimal{}, nil
		}
		value = value.Mul(rate)
	}

	return decimal.NullDecimal{Decimal: value, Valid: true}, nil
}

package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cake2ct/internal/domain"
)

// RowSource streams source rows. Next returns io.EOF when the stream
// is exhausted.
type RowSource interface {
	Next() (domain.Row, error)
}

// RateSource resolves the exchange rate between two fiat currencies
// for one calendar day. Implementations are expected to cache per day
// so the engine never triggers more than one lookup per (day, pair).
type RateSource interface {
	Rate(ctx context.Context, day time.Time, base, quote string) (decimal.Decimal, error)
}

// IDGenerator generates transaction identifiers for rows that were
// exported without a reference.
type IDGenerator interface {
	Generate() string
}

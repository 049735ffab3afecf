package usecase

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iho/cake2ct/internal/domain"
)

const consolidatedSuffix = " (Consolidated)"

// consolidationNamespace is the fixed UUIDv5 namespace for merged
// entry ids. It must never change: repeated runs have to derive the
// same id for the same logical group so re-imports stay idempotent.
var consolidationNamespace = uuid.MustParse("82f84ac6-c3c4-4de5-8d70-a7ce0aacde4f")

// Consolidator merges same-day staking income per asset into one
// entry. Amounts are summed with exact decimal arithmetic.
type Consolidator struct{}

// Consolidate replaces every group of staking entries sharing an asset
// and a consolidation day by one merged entry. Non-eligible entries
// pass through unchanged and keep their relative order; merged entries
// are appended after them. Running Consolidate on its own output is a
// no-op.
func (Consolidator) Consolidate(entries []domain.Entry) []domain.Entry {
	type bucket struct {
		entry   domain.Entry
		fiatOK  bool
		fiatSum decimal.Decimal
	}

	merged := map[string]*bucket{}
	var mergedOrder []string
	out := make([]domain.Entry, 0, len(entries))

	for _, e := range entries {
		if e.Type != domain.TypeStaking || e.Buy == nil {
			out = append(out, e)
			continue
		}

		day := ConsolidationDay(e.Date)
		txID := consolidationTxID(e.Buy.Asset, day)

		b, ok := merged[txID]
		if !ok {
			b = &bucket{
				entry: domain.Entry{
					Type:  domain.TypeStaking,
					Buy:   &domain.Leg{Asset: e.Buy.Asset},
					Group: e.Group,
					Comment: strings.TrimSuffix(e.Comment, consolidatedSuffix) +
						consolidatedSuffix,
					Date: day,
					TxID: txID,
				},
				fiatOK: true,
			}
			merged[txID] = b
			mergedOrder = append(mergedOrder, txID)
		}

		b.entry.Buy.Amount = b.entry.Buy.Amount.Add(e.Buy.Amount)
		if e.Buy.FiatValue.Valid {
			b.fiatSum = b.fiatSum.Add(e.Buy.FiatValue.Decimal)
		} else {
			// A single constituent without a valuation makes the
			// merged value meaningless; leave it empty.
			b.fiatOK = false
		}
	}

	for _, txID := range mergedOrder {
		b := merged[txID]
		if b.fiatOK {
			b.entry.Buy.FiatValue = decimal.NullDecimal{Decimal: b.fiatSum, Valid: true}
		}
		out = append(out, b.entry)
	}

	return out
}

// ConsolidationDay pins a timestamp to its consolidation boundary: the
// next midnight UTC, meaning "accrued up to and including this day".
// Timestamps already exactly at midnight stay put, which keeps the
// consolidation idempotent.
func ConsolidationDay(t time.Time) time.Time {
	t = t.UTC()
	day := t.Truncate(24 * time.Hour)
	if day.Equal(t) {
		return day
	}
	return day.Add(24 * time.Hour)
}

func consolidationTxID(asset string, day time.Time) string {
	name := string(domain.TypeStaking) + "-" + asset + "-" + day.Format(time.RFC3339)
	return uuid.NewSHA1(consolidationNamespace, []byte(name)).String()
}

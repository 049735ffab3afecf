package usecase

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cake2ct/internal/domain"
)

// incomeTypes are the entry types counted as produced income in the
// monthly overview.
var incomeTypes = map[domain.EntryType]bool{
	domain.TypeLendingIncome:  true,
	domain.TypeInterestIncome: true,
	domain.TypeStaking:        true,
	domain.TypeAirdrop:        true,
	domain.TypeIncome:         true,
}

// IncomeLine is one month of income for one asset.
type IncomeLine struct {
	Year      int
	Month     time.Month
	Asset     string
	Amount    decimal.Decimal
	FiatValue decimal.NullDecimal
}

// IncomeOverview sums produced income per (asset, year, month) with
// exact decimal arithmetic. Lines are sorted by year, month, asset.
func IncomeOverview(entries []domain.Entry) []IncomeLine {
	type key struct {
		year  int
		month time.Month
		asset string
	}

	sums := map[key]*IncomeLine{}
	for _, e := range entries {
		if !incomeTypes[e.Type] || e.Buy == nil {
			continue
		}

		k := key{year: e.Date.UTC().Year(), month: e.Date.UTC().Month(), asset: e.Buy.Asset}
		line, ok := sums[k]
		if !ok {
			line = &IncomeLine{Year: k.year, Month: k.month, Asset: k.asset}
			sums[k] = line
		}

		line.Amount = line.Amount.Add(e.Buy.Amount)
		if e.Buy.FiatValue.Valid {
			line.FiatValue = decimal.NullDecimal{
				Decimal: line.FiatValue.Decimal.Add(e.Buy.FiatValue.Decimal),
				Valid:   true,
			}
		}
	}

	lines := make([]IncomeLine, 0, len(sums))
	for _, line := range sums {
		lines = append(lines, *line)
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Year != lines[j].Year {
			return lines[i].Year < lines[j].Year
		}
		if lines[i].Month != lines[j].Month {
			return lines[i].Month < lines[j].Month
		}
		return lines[i].Asset < lines[j].Asset
	})

	return lines
}

// HoldingLine is the net position of one asset across all entries.
type HoldingLine struct {
	Asset  string
	Amount decimal.Decimal
}

// HoldingsOverview nets buys against sells per asset. It is only
// meaningful over an export covering the account's full lifetime.
func HoldingsOverview(entries []domain.Entry) []HoldingLine {
	sums := map[string]decimal.Decimal{}
	for _, e := range entries {
		if e.Buy != nil {
			sums[e.Buy.Asset] = sums[e.Buy.Asset].Add(e.Buy.Amount)
		}
		if e.Sell != nil {
			sums[e.Sell.Asset] = sums[e.Sell.Asset].Sub(e.Sell.Amount)
		}
	}

	lines := make([]HoldingLine, 0, len(sums))
	for asset, amount := range sums {
		lines = append(lines, HoldingLine{Asset: asset, Amount: amount})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Asset < lines[j].Asset })

	return lines
}

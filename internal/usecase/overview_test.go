package usecase_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cake2ct/internal/domain"
	"github.com/iho/cake2ct/internal/usecase"
)

func incomeEntry(typ domain.EntryType, date, asset, amount string) domain.Entry {
	t, err := time.Parse(time.RFC3339, date)
	if err != nil {
		panic(err)
	}
	return domain.Entry{
		Type: typ,
		Buy:  &domain.Leg{Amount: decimal.RequireFromString(amount), Asset: asset},
		Date: t,
	}
}

func TestIncomeOverviewGroupsByAssetAndMonth(t *testing.T) {
	entries := []domain.Entry{
		incomeEntry(domain.TypeStaking, "2021-05-01T06:00:00Z", "DFI", "1"),
		incomeEntry(domain.TypeStaking, "2021-05-20T06:00:00Z", "DFI", "2"),
		incomeEntry(domain.TypeLendingIncome, "2021-05-10T06:00:00Z", "BTC", "0.5"),
		incomeEntry(domain.TypeStaking, "2021-06-01T06:00:00Z", "DFI", "4"),
		// Deposits are not produced income.
		incomeEntry(domain.TypeDeposit, "2021-05-02T06:00:00Z", "DFI", "100"),
	}

	lines := usecase.IncomeOverview(entries)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %+v", len(lines), lines)
	}

	want := []struct {
		year   int
		month  time.Month
		asset  string
		amount string
	}{
		{2021, time.May, "BTC", "0.5"},
		{2021, time.May, "DFI", "3"},
		{2021, time.June, "DFI", "4"},
	}
	for i, w := range want {
		l := lines[i]
		if l.Year != w.year || l.Month != w.month || l.Asset != w.asset ||
			!l.Amount.Equal(decimal.RequireFromString(w.amount)) {
			t.Errorf("line %d = %+v, want %+v", i, l, w)
		}
	}
}

func TestIncomeOverviewFiatSums(t *testing.T) {
	withFiat := incomeEntry(domain.TypeStaking, "2021-05-01T06:00:00Z", "DFI", "1")
	withFiat.Buy.FiatValue = decimal.NullDecimal{Decimal: decimal.RequireFromString("2.5"), Valid: true}
	alsoFiat := incomeEntry(domain.TypeStaking, "2021-05-02T06:00:00Z", "DFI", "1")
	alsoFiat.Buy.FiatValue = decimal.NullDecimal{Decimal: decimal.RequireFromString("3"), Valid: true}

	lines := usecase.IncomeOverview([]domain.Entry{withFiat, alsoFiat})
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if !lines[0].FiatValue.Valid || !lines[0].FiatValue.Decimal.Equal(decimal.RequireFromString("5.5")) {
		t.Errorf("fiat sum = %v, want 5.5", lines[0].FiatValue)
	}
}

func TestHoldingsOverviewNetsBuysAgainstSells(t *testing.T) {
	trade := domain.Entry{
		Type: domain.TypeTrade,
		Buy:  &domain.Leg{Amount: decimal.NewFromInt(5), Asset: "BTC-DFI"},
		Sell: &domain.Leg{Amount: decimal.NewFromInt(2), Asset: "BTC"},
	}
	entries := []domain.Entry{
		incomeEntry(domain.TypeDeposit, "2021-05-01T06:00:00Z", "BTC", "3"),
		incomeEntry(domain.TypeStaking, "2021-05-01T07:00:00Z", "DFI", "10"),
		trade,
	}

	lines := usecase.HoldingsOverview(entries)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %+v", len(lines), lines)
	}

	want := map[string]string{"BTC": "1", "BTC-DFI": "5", "DFI": "10"}
	for i, asset := range []string{"BTC", "BTC-DFI", "DFI"} {
		if lines[i].Asset != asset {
			t.Fatalf("line %d asset = %s, want %s (lines must sort by asset)", i, lines[i].Asset, asset)
		}
		if !lines[i].Amount.Equal(decimal.RequireFromString(want[asset])) {
			t.Errorf("%s net = %s, want %s", asset, lines[i].Amount, want[asset])
		}
	}
}

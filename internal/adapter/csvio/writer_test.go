package csvio_test

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cake2ct/internal/adapter/csvio"
	"github.com/iho/cake2ct/internal/domain"
)

func sampleEntries() []domain.Entry {
	date := time.Date(2021, 3, 14, 8, 26, 53, 0, time.UTC)
	return []domain.Entry{
		{
			Type: domain.TypeDeposit,
			Buy: &domain.Leg{
				Amount:    decimal.RequireFromString("1.5"),
				Asset:     "DFI",
				FiatValue: decimal.NullDecimal{Decimal: decimal.RequireFromString("10.25"), Valid: true},
			},
			Group:   "Deposit",
			Comment: "Deposit",
			Date:    date,
			TxID:    "ref-1",
		},
		{
			Type:    domain.TypeTrade,
			Buy:     &domain.Leg{Amount: decimal.NewFromInt(5), Asset: "BTC-DFI"},
			Sell:    &domain.Leg{Amount: decimal.NewFromInt(2), Asset: "BTC"},
			Group:   "Liquidity Mining",
			Comment: "Liquidity mining pool trade",
			Date:    date,
			TxID:    "ref-2",
		},
	}
}

func TestWriterProducesImportCSV(t *testing.T) {
	var buf bytes.Buffer
	w := csvio.NewWriter(&buf, "en")

	if err := w.WriteAll(sampleEntries()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not parseable CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}

	header := records[0]
	if header[0] != "Type" || header[7] != "Exchange" || header[11] != "Tx-ID" {
		t.Errorf("unexpected header: %v", header)
	}

	deposit := records[1]
	if deposit[0] != "Deposit" || deposit[1] != "1.5" || deposit[2] != "DFI" {
		t.Errorf("unexpected deposit row: %v", deposit)
	}
	if deposit[7] != "Cake" {
		t.Errorf("exchange = %q, want Cake", deposit[7])
	}
	if deposit[10] != "2021-03-14T08:26:53.000Z" {
		t.Errorf("date = %q", deposit[10])
	}
	if deposit[12] != "10.25" || deposit[13] != "" {
		t.Errorf("fiat values = %q/%q", deposit[12], deposit[13])
	}

	trade := records[2]
	if trade[0] != "Trade" || trade[3] != "2" || trade[4] != "BTC" {
		t.Errorf("unexpected trade row: %v", trade)
	}
	// No valuation carried means the value columns stay empty.
	if trade[12] != "" || trade[13] != "" {
		t.Errorf("fiat values = %q/%q, want empty", trade[12], trade[13])
	}
}

func TestWriterQuotesEveryField(t *testing.T) {
	var buf bytes.Buffer
	w := csvio.NewWriter(&buf, "en")

	if err := w.WriteAll(sampleEntries()[:1]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		if !strings.HasPrefix(line, `"`) || !strings.HasSuffix(line, `"`) {
			t.Errorf("line is not fully quoted: %s", line)
		}
		if strings.Contains(line, `,,`) {
			t.Errorf("unquoted empty field in line: %s", line)
		}
	}
}

func TestWriterTranslatesVocabulary(t *testing.T) {
	var buf bytes.Buffer
	w := csvio.NewWriter(&buf, "de")

	entries := sampleEntries()[:1]
	if err := w.WriteAll(entries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not parseable CSV: %v", err)
	}
	if records[1][0] != "Einzahlung" {
		t.Errorf("type = %q, want Einzahlung", records[1][0])
	}
}

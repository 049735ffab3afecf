package csvio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/cake2ct/internal/domain"
)

// ctTimeLayout matches the timestamp format CoinTracking accepts on
// import, millisecond precision in UTC.
const ctTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// ctHeader is the CoinTracking import column set, in order.
var ctHeader = []string{
	"Type",
	"Buy Amount",
	"Buy Currency",
	"Sell Amount",
	"Sell Currency",
	"Fee",
	"Fee Currency",
	"Exchange",
	"Trade-Group",
	"Comment",
	"Date",
	"Tx-ID",
	"Buy Value in your Account Currency",
	"Sell Value in your Account Currency",
}

// Writer serializes entries as a CoinTracking import CSV. Every field
// is quoted, matching what the CoinTracking importer is tested against.
type Writer struct {
	out   *bufio.Writer
	vocab domain.Vocabulary
}

// NewWriter creates a Writer translating entry types for language.
func NewWriter(w io.Writer, language string) *Writer {
	return &Writer{out: bufio.NewWriter(w), vocab: domain.VocabularyFor(language)}
}

// WriteAll writes the header plus one line per entry and flushes.
func (w *Writer) WriteAll(entries []domain.Entry) error {
	if err := w.writeLine(ctHeader); err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.writeLine(w.record(e)); err != nil {
			return err
		}
	}
	return w.out.Flush()
}

func (w *Writer) record(e domain.Entry) []string {
	var buyAmount, buyAsset, buyValue string
	if e.Buy != nil {
		buyAmount = e.Buy.Amount.String()
		buyAsset = e.Buy.Asset
		buyValue = fiatField(e.Buy.FiatValue)
	}

	var sellAmount, sellAsset, sellValue string
	if e.Sell != nil {
		sellAmount = e.Sell.Amount.String()
		sellAsset = e.Sell.Asset
		sellValue = fiatField(e.Sell.FiatValue)
	}

	return []string{
		w.vocab[e.Type],
		buyAmount,
		buyAsset,
		sellAmount,
		sellAsset,
		"", // Fee
		"", // Fee Currency
		"Cake",
		e.Group,
		e.Comment,
		e.Date.UTC().Format(ctTimeLayout),
		e.TxID,
		buyValue,
		sellValue,
	}
}

// writeLine emits one fully quoted CSV line. encoding/csv only quotes
// fields that need it, so the quoting is done by hand here.
func (w *Writer) writeLine(fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.out.WriteByte(','); err != nil {
				return fmt.Errorf("writing import row: %w", err)
			}
		}
		quoted := `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
		if _, err := w.out.WriteString(quoted); err != nil {
			return fmt.Errorf("writing import row: %w", err)
		}
	}
	if err := w.out.WriteByte('\n'); err != nil {
		return fmt.Errorf("writing import row: %w", err)
	}
	return nil
}

func fiatField(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}

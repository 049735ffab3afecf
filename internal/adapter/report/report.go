package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/iho/cake2ct/internal/domain"
	"github.com/iho/cake2ct/internal/usecase"
)

// Printer renders the console overviews for one conversion run.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// importLine is one aggregated line of the import result table. Lines
// group entries sharing type, trade group, comment and leg assets.
type importLine struct {
	label     string
	buySum    decimal.Decimal
	sellSum   decimal.Decimal
	buyValue  decimal.NullDecimal
	sellValue decimal.NullDecimal
	count     int
}

// ImportResult prints what was written to the import file, grouped by
// entry shape with summed amounts.
func (p *Printer) ImportResult(result *usecase.Result, language string) error {
	vocab := domain.VocabularyFor(language)

	lines := map[string]*importLine{}
	var order []string

	for _, e := range result.Entries {
		var buyAsset, sellAsset string
		if e.Buy != nil {
			buyAsset = e.Buy.Asset
		}
		if e.Sell != nil {
			sellAsset = e.Sell.Asset
		}

		key := string(e.Type) + "-" + e.Group + "-" + e.Comment + "-" + buyAsset + "-" + sellAsset
		line, ok := lines[key]
		if !ok {
			line = &importLine{
				label: fmt.Sprintf("%s - %s [%s%s]", vocab[e.Type], e.Comment, buyAsset, sellAsset),
			}
			lines[key] = line
			order = append(order, key)
		}

		line.count++
		if e.Buy != nil {
			line.buySum = line.buySum.Add(e.Buy.Amount)
			line.buyValue = addNullable(line.buyValue, e.Buy.FiatValue)
		}
		if e.Sell != nil {
			line.sellSum = line.sellSum.Add(e.Sell.Amount)
			line.sellValue = addNullable(line.sellValue, e.Sell.FiatValue)
		}
	}

	w := newTable(p.out)
	fmt.Fprintln(w, "Type\tEntries\tBuy Amount\tSell Amount\tBuy Value\tSell Value")
	for _, key := range order {
		l := lines[key]
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
			l.label, l.count,
			zeroAsEmpty(l.buySum), zeroAsEmpty(l.sellSum),
			nullableField(l.buyValue), nullableField(l.sellValue))
	}
	fmt.Fprintf(w, "\nRows read: %d\tEntries: %d\tFailures: %d\tSkipped: %d\n",
		result.RowsRead, len(result.Entries), len(result.Failures), result.Skipped)
	return w.Flush()
}

// Income prints the produced income per asset and month.
func (p *Printer) Income(entries []domain.Entry, accountCurrency string) error {
	lines := usecase.IncomeOverview(entries)

	w := newTable(p.out)
	fmt.Fprintf(w, "Year\tMonth\tAsset\tAmount\tValue (%s)\n", accountCurrency)
	for _, l := range lines {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n",
			l.Year, int(l.Month), l.Asset, l.Amount.String(), nullableField(l.FiatValue))
	}
	return w.Flush()
}

// Holdings prints the net position per asset.
func (p *Printer) Holdings(entries []domain.Entry) error {
	lines := usecase.HoldingsOverview(entries)

	w := newTable(p.out)
	fmt.Fprintln(w, "Asset\tAmount")
	for _, l := range lines {
		fmt.Fprintf(w, "%s\t%s\n", l.Asset, l.Amount.String())
	}
	return w.Flush()
}

// Failures prints every row the run could not translate, with the
// original row preserved for diagnostics.
func (p *Printer) Failures(failures []domain.Failure) error {
	if len(failures) == 0 {
		return nil
	}

	w := newTable(p.out)
	fmt.Fprintln(w, "Reason\tOperation\tDate\tAmount\tAsset\tReference")
	for _, f := range failures {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			f.Reason, f.Row.Operation, f.Row.Date, f.Row.Amount, f.Row.Asset, f.Row.Reference)
	}
	return w.Flush()
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func addNullable(sum, v decimal.NullDecimal) decimal.NullDecimal {
	if !v.Valid {
		return sum
	}
	return decimal.NullDecimal{Decimal: sum.Decimal.Add(v.Decimal), Valid: true}
}

func nullableField(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}

func zeroAsEmpty(v decimal.Decimal) string {
	if v.IsZero() {
		return ""
	}
	return v.String()
}

package csvio

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/iho/cake2ct/internal/domain"
)

// Cake export column names.
const (
	colOperation        = "Operation"
	colDate             = "Date"
	colAmount           = "Amount"
	colAsset            = "Coin/Asset"
	colFiatValue        = "FIAT value"
	colFiatCurrency     = "FIAT currency"
	colReference        = "Reference"
	colRelatedReference = "Related reference ID"
	colTransactionID    = "Transaction ID"
)

// Reader streams ledger rows from a Cake CSV export. Columns are
// resolved by header name, not position; columns missing from older
// exports simply read as empty.
type Reader struct {
	csv     *csv.Reader
	columns map[string]int
}

// NewReader wraps r and consumes its header line.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading export header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	if _, ok := columns[colOperation]; !ok {
		return nil, fmt.Errorf("export header has no %q column", colOperation)
	}

	return &Reader{csv: cr, columns: columns}, nil
}

// Next returns the next row, or io.EOF once the export is exhausted.
func (r *Reader) Next() (domain.Row, error) {
	record, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return domain.Row{}, io.EOF
		}
		return domain.Row{}, fmt.Errorf("reading export row: %w", err)
	}

	field := func(name string) string {
		i, ok := r.columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	return domain.Row{
		Operation:        field(colOperation),
		Date:             field(colDate),
		Amount:           field(colAmount),
		Asset:            field(colAsset),
		FiatValue:        field(colFiatValue),
		FiatCurrency:     field(colFiatCurrency),
		Reference:        field(colReference),
		RelatedReference: field(colRelatedReference),
		TransactionID:    field(colTransactionID),
	}, nil
}

package domain

// Row is one line of a Cake export. All fields are kept as the raw
// strings the export carries; numeric and date parsing happens at
// classification time so a malformed field fails one row, not the run.
type Row struct {
	Operation        string
	Date             string
	Amount           string
	Asset            string
	FiatValue        string
	FiatCurrency     string
	Reference        string
	RelatedReference string
	TransactionID    string

	// Leg fields are only populated on rows synthesized by an
	// aggregator. A row carrying both legs maps to a trade entry.
	BuyAmount     string
	BuyAsset      string
	BuyFiatValue  string
	SellAmount    string
	SellAsset     string
	SellFiatValue string
}

// IsAnchor reports whether the row is the correlation anchor of its
// group. Anchors carry no related reference; members point at one.
func (r Row) IsAnchor() bool {
	return r.RelatedReference == ""
}

// CorrelationKey is the reference the row's correlation group is keyed
// by: the anchor's own reference, or the member's related reference.
func (r Row) CorrelationKey() string {
	if r.IsAnchor() {
		return r.Reference
	}
	return r.RelatedReference
}

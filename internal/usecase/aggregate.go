package usecase

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/cake2ct/internal/domain"
)

// Synthesized operation names fed back into the mapper exactly once.
const (
	opPoolTrade  = "Liquidity mining pool trade"
	opSwapTrade  = "Swap trade"
	opDexTrade   = "Swap trade (DeFiChain DEX)"
	opDexFee     = "Swap trade fee (DeFiChain DEX)"
	opDiscTrade  = "Discount trade"
	opDexDeposit = "Deposit"
	opDexOut     = "Withdrew for swap"
	opDexPaidFee = "Paid swap fee"
)

// correlationGroup is one bucket: the rows sharing a correlating
// reference. Anchors carry no related reference, members point at the
// anchor. Swap-style families have no anchor at all.
type correlationGroup struct {
	anchor  *domain.Row
	members []domain.Row
}

func (g *correlationGroup) addAnchor(row domain.Row) {
	r := row
	g.anchor = &r
}

func (g *correlationGroup) addMember(row domain.Row) {
	g.members = append(g.members, row)
}

func (g *correlationGroup) rows() []domain.Row {
	var out []domain.Row
	if g.anchor != nil {
		out = append(out, *g.anchor)
	}
	return append(out, g.members...)
}

// buckets holds all deferred rows of one run, one family at a time.
// Grouping is order independent: anchors and members may arrive in any
// order and arbitrarily far apart.
type buckets struct {
	families  map[Family]map[string]*correlationGroup
	keyOrder  map[Family][]string
	unclaimed []domain.Row
}

func newBuckets() *buckets {
	return &buckets{
		families: map[Family]map[string]*correlationGroup{
			FamilyLiquidity: {},
			FamilySwap:      {},
			FamilyDiscount:  {},
			FamilyDexSwap:   {},
		},
		keyOrder: map[Family][]string{},
	}
}

func (b *buckets) add(d Deferred) {
	if d.Family == FamilyUnclaimed {
		b.unclaimed = append(b.unclaimed, d.Row)
		return
	}

	g := b.group(d.Family, d.Row.CorrelationKey())
	if d.Row.IsAnchor() {
		g.addAnchor(d.Row)
	} else {
		g.addMember(d.Row)
	}
}

func (b *buckets) group(family Family, key string) *correlationGroup {
	m := b.families[family]
	g, ok := m[key]
	if !ok {
		g = &correlationGroup{}
		m[key] = g
		b.keyOrder[family] = append(b.keyOrder[family], key)
	}
	return g
}

// adoptUnclaimed attaches rows with unrecognized operations to the
// bucket owning their related reference. Only the liquidity and DEX
// swap families consume members regardless of operation name; a row
// pointing at any other group would be dropped by its aggregator, so
// it surfaces as a failure instead of being adopted.
func (b *buckets) adoptUnclaimed() []domain.Failure {
	var failures []domain.Failure

	for _, row := range b.unclaimed {
		adopted := false
		for _, family := range []Family{FamilyLiquidity, FamilyDexSwap} {
			if g, ok := b.families[family][row.RelatedReference]; ok {
				g.addMember(row)
				adopted = true
				break
			}
		}
		if !adopted {
			failures = append(failures, domain.Failure{
				Row:    row,
				Reason: fmt.Sprintf("unable to handle operation %q", row.Operation),
			})
		}
	}
	b.unclaimed = nil

	return failures
}

// aggregate resolves every family in a fixed order and returns the
// synthesized rows, to be re-classified once, plus the orphan failures.
func (b *buckets) aggregate() ([]domain.Row, []domain.Failure) {
	var rows []domain.Row
	failures := b.adoptUnclaimed()

	resolve := func(family Family, fn func(key string, g *correlationGroup) ([]domain.Row, []domain.Failure)) {
		for _, key := range b.keyOrder[family] {
			r, f := fn(key, b.families[family][key])
			rows = append(rows, r...)
			failures = append(failures, f...)
		}
	}

	resolve(FamilyLiquidity, aggregateLiquidity)
	resolve(FamilySwap, aggregateSwap)
	resolve(FamilyDiscount, aggregateDiscount)
	resolve(FamilyDexSwap, aggregateDexSwap)

	return rows, failures
}

// aggregateLiquidity reconstructs pool entry/exit trades. The anchor's
// pool-lot amount is halved: the operation is single-asset-denominated
// but economically a balanced two-asset trade.
func aggregateLiquidity(key string, g *correlationGroup) ([]domain.Row, []domain.Failure) {
	if g.anchor == nil {
		return nil, orphanFailures(g.members, fmt.Sprintf("no pool liquidity anchor found for reference %q", key))
	}
	if len(g.members) == 0 {
		return nil, orphanFailures(g.rows(), fmt.Sprintf("no pool liquidity counterpart found for reference %q", key))
	}

	anchor := *g.anchor
	anchorAmount, err := domain.ParseAmount(anchor.Amount)
	if err != nil {
		return nil, orphanFailures(g.rows(), fmt.Sprintf("malformed anchor amount %q", anchor.Amount))
	}
	half := anchorAmount.Magnitude.Div(decimal.NewFromInt(2)).String()

	var rows []domain.Row
	for _, member := range g.members {
		row := domain.Row{
			Operation:    opPoolTrade,
			Date:         anchor.Date,
			Reference:    member.Reference,
			FiatCurrency: fiatCurrency(member, anchor),
		}

		switch anchor.Operation {
		case "Added liquidity":
			row.BuyAmount = half
			row.BuyAsset = anchor.Asset
			row.BuyFiatValue = member.FiatValue
			row.SellAmount = member.Amount
			row.SellAsset = member.Asset
			row.SellFiatValue = member.FiatValue
		case "Removed liquidity":
			row.BuyAmount = member.Amount
			row.BuyAsset = member.Asset
			row.BuyFiatValue = member.FiatValue
			row.SellAmount = half
			row.SellAsset = anchor.Asset
			row.SellFiatValue = member.FiatValue
		default:
			return nil, orphanFailures(g.rows(), fmt.Sprintf("unexpected pool liquidity anchor operation %q", anchor.Operation))
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// aggregateSwap combines a "Swapped in"/"Swapped out" pair into one
// trade row. Both sides are members; there is no anchor.
func aggregateSwap(key string, g *correlationGroup) ([]domain.Row, []domain.Failure) {
	var in, out *domain.Row
	var extras []domain.Row
	for i := range g.members {
		switch g.members[i].Operation {
		case "Swapped in":
			in = &g.members[i]
		case "Swapped out":
			out = &g.members[i]
		default:
			extras = append(extras, g.members[i])
		}
	}

	if in == nil || out == nil {
		return nil, orphanFailures(g.rows(), fmt.Sprintf("unmatched swap correlation group %q", key))
	}

	// A complete pair never absorbs additional rows; anything else in
	// the group is a movement of its own and must not vanish.
	failures := orphanFailures(extras, fmt.Sprintf("row not consumed by swap correlation group %q", key))

	return []domain.Row{{
		Operation:     opSwapTrade,
		Date:          in.Date,
		Reference:     key,
		FiatCurrency:  fiatCurrency(*in, *out),
		BuyAmount:     in.Amount,
		BuyAsset:      in.Asset,
		BuyFiatValue:  in.FiatValue,
		SellAmount:    out.Amount,
		SellAsset:     out.Asset,
		SellFiatValue: out.FiatValue,
	}}, failures
}

// aggregateDiscount folds a discount claim/use group onto one trade
// row dated from the anchor. All members attach to the single entry.
func aggregateDiscount(key string, g *correlationGroup) ([]domain.Row, []domain.Failure) {
	if g.anchor == nil {
		return nil, orphanFailures(g.members, fmt.Sprintf("no discount anchor found for reference %q", key))
	}

	row := domain.Row{
		Operation: opDiscTrade,
		Date:      g.anchor.Date,
		Reference: g.anchor.Reference,
	}

	var extras []domain.Row
	for _, r := range g.rows() {
		switch r.Operation {
		case "Claimed for 50% discount":
			row.BuyAmount = r.Amount
			row.BuyAsset = r.Asset
			row.BuyFiatValue = r.FiatValue
			if row.FiatCurrency == "" {
				row.FiatCurrency = r.FiatCurrency
			}
		case "Used for 50% discount":
			row.SellAmount = r.Amount
			row.SellAsset = r.Asset
			row.SellFiatValue = r.FiatValue
			if row.FiatCurrency == "" {
				row.FiatCurrency = r.FiatCurrency
			}
		default:
			extras = append(extras, r)
		}
	}

	if row.BuyAmount == "" || row.SellAmount == "" {
		return nil, orphanFailures(g.rows(), fmt.Sprintf("unmatched discount correlation group %q", key))
	}

	failures := orphanFailures(extras, fmt.Sprintf("row not consumed by discount correlation group %q", key))

	return []domain.Row{row}, failures
}

// aggregateDexSwap reconstructs a DeFiChain DEX swap. The export
// splits it into a deposit (the bought side), a withdrawal (the sold
// side) and an optional fee row; rows exported with an "Unknown"
// operation are told apart by the presence of a transaction id.
func aggregateDexSwap(key string, g *correlationGroup) ([]domain.Row, []domain.Failure) {
	var buy, sell, fee *domain.Row
	for i := range g.members {
		r := &g.members[i]
		switch r.Operation {
		case opDexDeposit:
			buy = r
		case opDexOut:
			sell = r
		case opDexPaidFee:
			fee = r
		default:
			if r.TransactionID != "" {
				sell = r
			} else {
				fee = r
			}
		}
	}

	if buy == nil || sell == nil {
		return nil, orphanFailures(g.rows(), fmt.Sprintf("unmatched DEX swap correlation group %q", key))
	}

	rows := []domain.Row{{
		Operation:     opDexTrade,
		Date:          buy.Date,
		Reference:     key,
		FiatCurrency:  fiatCurrency(*buy, *sell),
		BuyAmount:     buy.Amount,
		BuyAsset:      buy.Asset,
		BuyFiatValue:  buy.FiatValue,
		SellAmount:    sell.Amount,
		SellAsset:     sell.Asset,
		SellFiatValue: sell.FiatValue,
	}}

	if fee != nil {
		rows = append(rows, domain.Row{
			Operation:    opDexFee,
			Date:         fee.Date,
			Reference:    fee.Reference,
			FiatCurrency: fee.FiatCurrency,
			Amount:       fee.Amount,
			Asset:        fee.Asset,
			FiatValue:    fee.FiatValue,
		})
	}

	return rows, nil
}

func fiatCurrency(rows ...domain.Row) string {
	for _, r := range rows {
		if r.FiatCurrency != "" {
			return r.FiatCurrency
		}
	}
	return ""
}

func orphanFailures(rows []domain.Row, reason string) []domain.Failure {
	failures := make([]domain.Failure, 0, len(rows))
	for _, r := range rows {
		failures = append(failures, domain.Failure{Row: r, Reason: reason})
	}
	return failures
}

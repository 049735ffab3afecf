package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/iho/cake2ct/internal/domain"
)

// Family identifies the correlation bucket family a deferred row
// belongs to.
type Family int

const (
	// FamilyLiquidity groups pool entry/exit rows.
	FamilyLiquidity Family = iota
	// FamilySwap groups "Swapped in"/"Swapped out" pairs.
	FamilySwap
	// FamilyDiscount groups discount claim/use pairs.
	FamilyDiscount
	// FamilyDexSwap groups DeFiChain DEX swap triples.
	FamilyDexSwap
	// FamilyUnclaimed holds rows with an unrecognized operation but a
	// related reference; a liquidity or DEX swap bucket owning that
	// reference adopts them once the stream is complete.
	FamilyUnclaimed
)

func (f Family) String() string {
	switch f {
	case FamilyLiquidity:
		return "liquidity"
	case FamilySwap:
		return "swap"
	case FamilyDiscount:
		return "discount"
	case FamilyDexSwap:
		return "dex-swap"
	default:
		return "unclaimed"
	}
}

// Deferred is a row claimed by a correlation family instead of being
// mapped immediately.
type Deferred struct {
	Family Family
	Row    domain.Row
}

// Outcome is the result of classifying one row. At most one of the
// three slices is populated; Skipped marks rows that are deliberately
// neither mapped nor failed.
type Outcome struct {
	Entries  []domain.Entry
	Failures []domain.Failure
	Deferred []Deferred
	Skipped  bool
}

type mapKind int

const (
	mapBuy mapKind = iota
	mapSell
	mapTrade
	mapDefer
	mapSkip
)

// descriptor binds one operation name to its handling.
type descriptor struct {
	kind   mapKind
	typ    domain.EntryType
	group  string
	family Family

	// deferWhenRelated reroutes the row into family when it carries a
	// related reference ("Deposit" rows doubling as DEX swap legs).
	deferWhenRelated bool
	// stakeable marks reward income that AutoStakeRewards may turn
	// into staking income for the designated staking asset.
	stakeable bool
	// poolTrade marks the synthesized pool trade, the one mapping
	// PoolTransfersNonTaxable applies to.
	poolTrade bool
}

// operations is the closed dispatch table, operation name to handler.
// Alias spellings map to the same canonical descriptor.
var operations = map[string]descriptor{
	// Synthesized operations, the only two-legged (trade) paths.
	"Liquidity mining pool trade":    {kind: mapTrade, typ: domain.TypeTrade, group: "Liquidity Mining", poolTrade: true},
	"Swap trade":                     {kind: mapTrade, typ: domain.TypeTrade, group: "Swap"},
	"Swap trade (DeFiChain DEX)":     {kind: mapTrade, typ: domain.TypeTrade, group: "Swap"},
	"Discount trade":                 {kind: mapTrade, typ: domain.TypeTrade, group: "Discount"},
	"Swap trade fee (DeFiChain DEX)": {kind: mapSell, typ: domain.TypeOtherFee, group: "Swap"},

	"Deposit":        {kind: mapBuy, typ: domain.TypeDeposit, group: "Deposit", deferWhenRelated: true, family: FamilyDexSwap},
	"Withdrawal":     {kind: mapSell, typ: domain.TypeWithdrawal, group: "Withdrawal"},
	"Withdrawal fee": {kind: mapSell, typ: domain.TypeOtherFee, group: "Withdrawal"},

	"Lapis reward":   {kind: mapBuy, typ: domain.TypeLendingIncome, group: "Lending"},
	"Lending reward": {kind: mapBuy, typ: domain.TypeLendingIncome, group: "Lending"},

	"Lapis DFI Bonus":                         {kind: mapBuy, typ: domain.TypeInterestIncome, group: "Lending"},
	"Lending DFI Bonus":                       {kind: mapBuy, typ: domain.TypeInterestIncome, group: "Lending"},
	"Confectionery Lending DFI Bonus":         {kind: mapBuy, typ: domain.TypeInterestIncome, group: "Lending"},
	"Entry staking wallet: Lending DFI Bonus": {kind: mapBuy, typ: domain.TypeInterestIncome, group: "Lending"},

	"Staking reward":          {kind: mapBuy, typ: domain.TypeStaking, group: "Staking"},
	"5 years freezer reward":  {kind: mapBuy, typ: domain.TypeStaking, group: "Staking"},
	"10 years freezer reward": {kind: mapBuy, typ: domain.TypeStaking, group: "Staking"},
	"Freezer staking bonus":   {kind: mapBuy, typ: domain.TypeStaking, group: "Staking"},

	"Unstake fee":             {kind: mapSell, typ: domain.TypeOtherFee, group: "Staking"},
	"Exit staking wallet fee": {kind: mapSell, typ: domain.TypeOtherFee, group: "Staking"},

	"Bonus/Airdrop":                       {kind: mapBuy, typ: domain.TypeAirdrop, group: "Bonus/Airdrop"},
	"Entry staking wallet: Bonus/Airdrop": {kind: mapBuy, typ: domain.TypeAirdrop, group: "Bonus/Airdrop"},

	"Referral reward":                               {kind: mapBuy, typ: domain.TypeIncome, group: "Referral"},
	"Referral signup bonus":                         {kind: mapBuy, typ: domain.TypeIncome, group: "Referral"},
	"Signup bonus":                                  {kind: mapBuy, typ: domain.TypeIncome, group: "Referral"},
	"Promotion bonus":                               {kind: mapBuy, typ: domain.TypeIncome, group: "Referral"},
	"Freezer promotion bonus":                       {kind: mapBuy, typ: domain.TypeIncome, group: "Referral"},
	"Entry staking wallet: Referral signup bonus":   {kind: mapBuy, typ: domain.TypeIncome, group: "Referral"},
	"Entry staking wallet: Signup bonus":            {kind: mapBuy, typ: domain.TypeIncome, group: "Referral"},
	"Entry staking wallet: Promotion bonus":         {kind: mapBuy, typ: domain.TypeIncome, group: "Referral"},
	"Entry staking wallet: Freezer promotion bonus": {kind: mapBuy, typ: domain.TypeIncome, group: "Referral"},

	"Freezer liquidity mining bonus": {kind: mapBuy, typ: domain.TypeIncome, group: "Liquidity Mining", stakeable: true},

	// Negative counterpart of the staking income operations. Excluded
	// on purpose, netting against income entries is not implied by the
	// export. See DESIGN.md.
	"Entry staking wallet": {kind: mapSkip},
	"Exit staking wallet":  {kind: mapSkip},

	"Added liquidity":   {kind: mapDefer, family: FamilyLiquidity},
	"Removed liquidity": {kind: mapDefer, family: FamilyLiquidity},

	"Swapped in":  {kind: mapDefer, family: FamilySwap},
	"Swapped out": {kind: mapDefer, family: FamilySwap},

	"Withdrew for swap": {kind: mapDefer, family: FamilyDexSwap},
	"Paid swap fee":     {kind: mapDefer, family: FamilyDexSwap},

	"Claimed for 50% discount": {kind: mapDefer, family: FamilyDiscount},
	"Used for 50% discount":    {kind: mapDefer, family: FamilyDiscount},
}

// patternRule is an ordered fallback for operation names that embed a
// pool pair, e.g. "Add liquidity dBTC-DFI".
type patternRule struct {
	re   *regexp.Regexp
	desc descriptor
}

var patterns = []patternRule{
	{
		re:   regexp.MustCompile(`^(?:Add|Remove) liquidity (?:d)?[A-Z]+-[A-Z]{3,4}$`),
		desc: descriptor{kind: mapDefer, family: FamilyLiquidity},
	},
	{
		re:   regexp.MustCompile(`^Liquidity mining reward (?:d)?[A-Z]+-[A-Z]{3,4}$`),
		desc: descriptor{kind: mapBuy, typ: domain.TypeIncome, group: "Liquidity Mining", stakeable: true},
	},
}

// Mapper classifies one source row into target entries, a deferred
// correlation marker, or a failure.
type Mapper struct {
	opts      Options
	valuation *Valuation
	idGen     IDGenerator
	log       zerolog.Logger
}

// NewMapper creates a Mapper.
func NewMapper(opts Options, valuation *Valuation, idGen IDGenerator, log zerolog.Logger) *Mapper {
	return &Mapper{opts: opts, valuation: valuation, idGen: idGen, log: log}
}

// Map classifies a single row. The returned error is non-nil only for
// run-fatal conditions (strict fiat valuation); every per-row problem
// is reported through the outcome's failure list.
func (m *Mapper) Map(ctx context.Context, row domain.Row) (Outcome, error) {
	desc, ok := operations[row.Operation]
	if !ok {
		for _, rule := range patterns {
			if rule.re.MatchString(row.Operation) {
				desc, ok = rule.desc, true
				break
			}
		}
	}

	if !ok {
		if !row.IsAnchor() {
			// The row references another one; its bucket decides what
			// it is once the stream is complete.
			return Outcome{Deferred: []Deferred{{Family: FamilyUnclaimed, Row: row}}}, nil
		}
		return failureOutcome(row, fmt.Sprintf("unable to handle operation %q", row.Operation)), nil
	}

	switch desc.kind {
	case mapSkip:
		m.log.Debug().Str("operation", row.Operation).Str("reference", row.Reference).
			Msg("operation deliberately excluded")
		return Outcome{Skipped: true}, nil
	case mapDefer:
		return Outcome{Deferred: []Deferred{{Family: desc.family, Row: row}}}, nil
	case mapTrade:
		return m.mapTrade(ctx, row, desc)
	default:
		if desc.deferWhenRelated && !row.IsAnchor() {
			return Outcome{Deferred: []Deferred{{Family: desc.family, Row: row}}}, nil
		}
		return m.mapOneSided(ctx, row, desc)
	}
}

// mapOneSided maps a direct 1:1 operation onto a single-leg entry.
func (m *Mapper) mapOneSided(ctx context.Context, row domain.Row, desc descriptor) (Outcome, error) {
	typ := desc.typ
	if desc.stakeable && m.opts.AutoStakeRewards && row.Asset == m.opts.StakingAsset {
		typ = domain.TypeStaking
	}

	date, err := domain.ParseRowDate(row.Date)
	if err != nil {
		return failureOutcome(row, fmt.Sprintf("malformed date %q", row.Date)), nil
	}

	amount, err := domain.ParseAmount(row.Amount)
	if err != nil {
		return failureOutcome(row, fmt.Sprintf("malformed amount %q", row.Amount)), nil
	}

	fiat, err := m.valuation.LegValue(ctx, date, row.FiatValue, row.FiatCurrency)
	if err != nil {
		if errors.Is(err, domain.ErrStrictValuation) {
			return Outcome{}, err
		}
		return failureOutcome(row, fmt.Sprintf("malformed fiat value %q", row.FiatValue)), nil
	}

	leg := &domain.Leg{Amount: amount.Magnitude, Asset: row.Asset, FiatValue: fiat}
	entry := domain.Entry{
		Type:    typ,
		Group:   desc.group,
		Comment: row.Operation,
		Date:    date,
		TxID:    m.txID(row),
	}

	if desc.kind == mapBuy {
		entry.Buy = leg
	} else {
		entry.Sell = leg
	}

	return Outcome{Entries: []domain.Entry{entry}}, nil
}

// mapTrade maps a pre-correlated (synthesized) row carrying both legs.
func (m *Mapper) mapTrade(ctx context.Context, row domain.Row, desc descriptor) (Outcome, error) {
	date, err := domain.ParseRowDate(row.Date)
	if err != nil {
		return failureOutcome(row, fmt.Sprintf("malformed date %q", row.Date)), nil
	}

	buyAmount, err := domain.ParseAmount(row.BuyAmount)
	if err != nil {
		return failureOutcome(row, fmt.Sprintf("malformed buy amount %q", row.BuyAmount)), nil
	}
	sellAmount, err := domain.ParseAmount(row.SellAmount)
	if err != nil {
		return failureOutcome(row, fmt.Sprintf("malformed sell amount %q", row.SellAmount)), nil
	}

	buyFiat, err := m.valuation.LegValue(ctx, date, row.BuyFiatValue, row.FiatCurrency)
	if err != nil {
		if errors.Is(err, domain.ErrStrictValuation) {
			return Outcome{}, err
		}
		return failureOutcome(row, fmt.Sprintf("malformed buy fiat value %q", row.BuyFiatValue)), nil
	}
	sellFiat, err := m.valuation.LegValue(ctx, date, row.SellFiatValue, row.FiatCurrency)
	if err != nil {
		if errors.Is(err, domain.ErrStrictValuation) {
			return Outcome{}, err
		}
		return failureOutcome(row, fmt.Sprintf("malformed sell fiat value %q", row.SellFiatValue)), nil
	}

	buy := &domain.Leg{Amount: buyAmount.Magnitude, Asset: row.BuyAsset, FiatValue: buyFiat}
	sell := &domain.Leg{Amount: sellAmount.Magnitude, Asset: row.SellAsset, FiatValue: sellFiat}
	txID := m.txID(row)

	if desc.poolTrade && m.opts.PoolTransfersNonTaxable {
		// Pool entry/exit as a neutral transfer: a non-taxable pair
		// instead of a sale.
		in := domain.Entry{
			Type: domain.TypeIncomeNonTaxable, Buy: buy,
			Group: desc.group, Comment: row.Operation, Date: date, TxID: txID,
		}
		out := domain.Entry{
			Type: domain.TypeExpenseNonTaxable, Sell: sell,
			Group: desc.group, Comment: row.Operation, Date: date, TxID: txID + "-out",
		}
		return Outcome{Entries: []domain.Entry{in, out}}, nil
	}

	entry := domain.Entry{
		Type: desc.typ, Buy: buy, Sell: sell,
		Group: desc.group, Comment: row.Operation, Date: date, TxID: txID,
	}
	return Outcome{Entries: []domain.Entry{entry}}, nil
}

func (m *Mapper) txID(row domain.Row) string {
	if row.Reference != "" {
		return row.Reference
	}
	if row.TransactionID != "" {
		return row.TransactionID
	}
	return m.idGen.Generate()
}

func failureOutcome(row domain.Row, reason string) Outcome {
	return Outcome{Failures: []domain.Failure{{Row: row, Reason: reason}}}
}

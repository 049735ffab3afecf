package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType is the canonical, language independent entry type. The
// CoinTracking vocabulary for a configured language is applied only at
// serialization time.
type EntryType string

const (
	TypeTrade             EntryType = "trade"
	TypeDeposit           EntryType = "deposit"
	TypeWithdrawal        EntryType = "withdrawal"
	TypeLendingIncome     EntryType = "lending_income"
	TypeInterestIncome    EntryType = "interest_income"
	TypeStaking           EntryType = "staking"
	TypeAirdrop           EntryType = "airdrop"
	TypeOtherFee          EntryType = "other_fee"
	TypeIncome            EntryType = "income"
	TypeExpense           EntryType = "expense"
	TypeIncomeNonTaxable  EntryType = "income_non_taxable"
	TypeExpenseNonTaxable EntryType = "expense_non_taxable"
)

// Leg is one side of an entry. FiatValue is the value in the account
// currency and stays invalid when the downstream ledger is expected to
// compute its own valuation.
type Leg struct {
	Amount    decimal.Decimal
	Asset     string
	FiatValue decimal.NullDecimal
}

// Entry is one normalized CoinTracking import record.
type Entry struct {
	Type    EntryType
	Buy     *Leg
	Sell    *Leg
	Group   string
	Comment string
	Date    time.Time
	TxID    string
}

// HasLeg reports whether the entry carries at least one leg. Entries
// without any leg are discarded, never written.
func (e Entry) HasLeg() bool {
	return e.Buy != nil || e.Sell != nil
}

// Vocabulary translates canonical entry types into the wording the
// CoinTracking import expects for one language.
type Vocabulary map[EntryType]string

var vocabularies = map[string]Vocabulary{
	"en": {
		TypeTrade:             "Trade",
		TypeDeposit:           "Deposit",
		TypeWithdrawal:        "Withdrawal",
		TypeLendingIncome:     "Lending Income",
		TypeInterestIncome:    "Interest Income",
		TypeStaking:           "Staking",
		TypeAirdrop:           "Airdrop",
		TypeOtherFee:          "Other Fee",
		TypeIncome:            "Income",
		TypeExpense:           "Expense",
		TypeIncomeNonTaxable:  "Income (non taxable)",
		TypeExpenseNonTaxable: "Expense (non taxable)",
	},
	"de": {
		TypeTrade:             "Trade",
		TypeDeposit:           "Einzahlung",
		TypeWithdrawal:        "Auszahlung",
		TypeLendingIncome:     "Lending Einnahme",
		TypeInterestIncome:    "Zinsen",
		TypeStaking:           "Staking",
		TypeAirdrop:           "Airdrop",
		TypeOtherFee:          "Sonstige Gebühr",
		TypeIncome:            "Einnahme",
		TypeExpense:           "Ausgabe",
		TypeIncomeNonTaxable:  "Steuerfreie Einnahme",
		TypeExpenseNonTaxable: "Steuerfreie Ausgabe",
	},
}

// VocabularyFor returns the vocabulary for a language code. Unsupported
// codes fall back to English.
func VocabularyFor(language string) Vocabulary {
	if v, ok := vocabularies[language]; ok {
		return v
	}
	return vocabularies["en"]
}

package usecase

// Options is the pure configuration surface of the conversion engine.
// It is assembled by the CLI; the engine itself does no flag parsing.
type Options struct {
	// Language selects the CoinTracking vocabulary ("de" or "en").
	// Unsupported codes fall back to "en".
	Language string

	// UseCakeFiatValuation copies Cake's fiat valuation into the
	// import. When false the fiat columns stay empty and CoinTracking
	// computes its own valuation.
	UseCakeFiatValuation bool

	// ConsolidateStakingRewards merges same-day staking income per
	// asset into one daily entry.
	ConsolidateStakingRewards bool

	// PoolTransfersNonTaxable emits pool entry/exit as a non-taxable
	// income/expense pair instead of a trade.
	PoolTransfersNonTaxable bool

	// AutoStakeRewards maps reward income for StakingAsset to the
	// staking type, making it eligible for consolidation.
	AutoStakeRewards bool

	// StakingAsset is the asset AutoStakeRewards applies to.
	StakingAsset string

	// AccountCurrency is the fiat currency of the CoinTracking
	// account. Row valuations in other currencies are converted.
	AccountCurrency string

	// StrictFiat aborts the run when a fiat valuation cannot be
	// resolved instead of leaving the value empty.
	StrictFiat bool
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iho/cake2ct/internal/adapter/csvio"
	"github.com/iho/cake2ct/internal/adapter/fiat"
	"github.com/iho/cake2ct/internal/adapter/idgen"
	"github.com/iho/cake2ct/internal/adapter/report"
	"github.com/iho/cake2ct/internal/infrastructure/config"
	"github.com/iho/cake2ct/internal/infrastructure/logger"
	"github.com/iho/cake2ct/internal/usecase"
)

var (
	cakeCsvPath string
	ctCsvPath   string
	language    string

	consolidateStaking      bool
	useCtFiatValuation      bool
	noAutoStakeRewards      bool
	poolTransfersNonTaxable bool
	strictFiat              bool

	displayIncomeOverview   bool
	displayHoldingsOverview bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cake2ct",
		Short: "Convert a Cake CSV export into a CoinTracking import file",
		Long: `Reads a transaction export from Cake, translates every operation
into CoinTracking import records, reassembles multi-row operations
(liquidity mining, swaps, discounts) and optionally consolidates daily
staking rewards.`,
		RunE: run,
	}

	rootCmd.Flags().StringVar(&cakeCsvPath, "cake-csv", "", "Path of the Cake CSV export (required)")
	rootCmd.Flags().StringVar(&ctCsvPath, "ct-csv", "", "Path of the CoinTracking CSV file to write (required)")
	rootCmd.Flags().StringVar(&language, "language", "", "CoinTracking import language, en or de")
	rootCmd.Flags().BoolVar(&consolidateStaking, "consolidate-staking-data", false,
		"Merge same-day staking rewards into one record per asset and day")
	rootCmd.Flags().BoolVar(&useCtFiatValuation, "use-cointracking-fiat-valuation", false,
		"Leave fiat values empty so CoinTracking computes its own valuation")
	rootCmd.Flags().BoolVar(&noAutoStakeRewards, "no-auto-stake-rewards", false,
		"Keep liquidity mining rewards of the staking asset as ordinary income")
	rootCmd.Flags().BoolVar(&poolTransfersNonTaxable, "pool-transfers-non-taxable", false,
		"Record pool entry and exit as non-taxable transfers instead of trades")
	rootCmd.Flags().BoolVar(&strictFiat, "strict-fiat", false,
		"Abort the run when a fiat rate lookup fails instead of leaving the value empty")
	rootCmd.Flags().BoolVar(&displayIncomeOverview, "display-income-overview", false,
		"Print the produced income per asset and month")
	rootCmd.Flags().BoolVar(&displayHoldingsOverview, "display-holdings-overview", false,
		"Print the net holdings per asset")

	_ = rootCmd.MarkFlagRequired("cake-csv")
	_ = rootCmd.MarkFlagRequired("ct-csv")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if language == "" {
		language = cfg.Language
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	opts := usecase.Options{
		Language:                  language,
		UseCakeFiatValuation:      !useCtFiatValuation,
		ConsolidateStakingRewards: consolidateStaking,
		PoolTransfersNonTaxable:   poolTransfersNonTaxable,
		AutoStakeRewards:          !noAutoStakeRewards,
		StakingAsset:              cfg.StakingAsset,
		AccountCurrency:           cfg.AccountCurrency,
		StrictFiat:                strictFiat,
	}

	rates := fiat.NewClient(fiat.Config{
		BaseURL:           cfg.FiatRateURL,
		Timeout:           cfg.FiatRateTimeout,
		MaxRetries:        cfg.FiatRateMaxRetries,
		RequestsPerSecond: cfg.FiatRateRateLimit,
		CacheExpiry:       cfg.FiatRateCacheExpiry,
	}, log)

	converter := usecase.NewConverter(opts, rates, idgen.NewULIDGenerator(), log)

	in, err := os.Open(cakeCsvPath)
	if err != nil {
		return fmt.Errorf("opening export: %w", err)
	}
	defer in.Close()

	reader, err := csvio.NewReader(in)
	if err != nil {
		return err
	}

	result, err := converter.Run(context.Background(), reader)
	if err != nil {
		return err
	}

	out, err := os.Create(ctCsvPath)
	if err != nil {
		return fmt.Errorf("creating import file: %w", err)
	}
	defer out.Close()

	if err := csvio.NewWriter(out, language).WriteAll(result.Entries); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("writing import file: %w", err)
	}
	log.Info().Str("path", ctCsvPath).Int("entries", len(result.Entries)).Msg("import file written")

	printer := report.NewPrinter(cmd.OutOrStdout())
	if err := printer.ImportResult(result, language); err != nil {
		return err
	}
	if displayIncomeOverview {
		if err := printer.Income(result.Entries, cfg.AccountCurrency); err != nil {
			return err
		}
	}
	if displayHoldingsOverview {
		if err := printer.Holdings(result.Entries); err != nil {
			return err
		}
	}
	if err := printer.Failures(result.Failures); err != nil {
		return err
	}

	if len(result.Failures) > 0 {
		return fmt.Errorf("%d rows could not be translated", len(result.Failures))
	}
	return nil
}

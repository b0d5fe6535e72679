package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/backtest"
	"github.com/aristath/advisor/internal/utils"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <glob>...",
		Short: "Import transaction CSV files (doublestar globs, e.g. 'exports/**/*.csv')",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, _, err := openContainer()
			if err != nil {
				return err
			}
			defer container.Close()

			total := 0
			for _, pattern := range args {
				result, err := container.Importer.ImportFiles(cmd.Context(), pattern)
				if err != nil {
					return fmt.Errorf("import %s: %w", pattern, err)
				}
				for _, f := range result.Files {
					fmt.Printf("  %s\n", f)
				}
				total += result.Imported
			}
			fmt.Printf("Imported %d transactions\n", total)
			return nil
		},
	}
}

func pnlCmd() *cobra.Command {
	var exchange, asset string
	var price, amount float64

	cmd := &cobra.Command{
		Use:   "pnl",
		Short: "Show realized and unrealized PNL for one holding",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, _, err := openContainer()
			if err != nil {
				return err
			}
			defer container.Close()

			report := container.PNLService.ReportPNL(cmd.Context(), exchange, asset, price, amount)
			if jsonOut {
				return printJSON(os.Stdout, report)
			}
			if report.Status != domain.StatusSuccess {
				return fmt.Errorf("%s: %s", report.Status, report.Message)
			}

			p := report.PNL
			fmt.Printf("%s on %s (%s)\n", p.Asset, p.Exchange, p.Status)
			fmt.Printf("  Invested:    %s\n", usd(p.Invested))
			fmt.Printf("  Realized:    %s\n", signedUSD(p.RealizedPNL))
			fmt.Printf("  Unrealized:  %s\n", signedUSD(p.UnrealizedPNL))
			fmt.Printf("  Total:       %s (%.2f%%)\n", signedUSD(p.PNL), p.PNLPercent)
			return nil
		},
	}

	cmd.Flags().StringVar(&exchange, "exchange", "", "Exchange name")
	cmd.Flags().StringVar(&asset, "asset", "", "Asset symbol")
	cmd.Flags().Float64Var(&price, "price", 0, "Current price in USD")
	cmd.Flags().Float64Var(&amount, "amount", 0, "Current amount held")
	_ = cmd.MarkFlagRequired("exchange")
	_ = cmd.MarkFlagRequired("asset")
	return cmd
}

func realizedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "realized",
		Short: "Show realized PNL across the whole ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, _, err := openContainer()
			if err != nil {
				return err
			}
			defer container.Close()

			report := container.PNLService.ReportRealized(cmd.Context())
			if jsonOut {
				return printJSON(os.Stdout, report)
			}
			if report.Status != domain.StatusSuccess {
				return fmt.Errorf("%s: %s", report.Status, report.Message)
			}

			for _, pair := range report.Realized.Pairs {
				fmt.Printf("  %-12s %-8s %14s\n", pair.Exchange, pair.Asset, signedUSD(pair.RealizedPNL))
			}
			fmt.Printf("Total realized: %s\n", signedUSD(report.Realized.Total))
			return nil
		},
	}
}

func recommendCmd() *cobra.Command {
	var holdings, targets string
	var threshold float64

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend rebalance actions for the given holdings",
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := parseWeights(holdings)
			if err != nil {
				return fmt.Errorf("holdings: %w", err)
			}

			container, cfg, err := openContainer()
			if err != nil {
				return err
			}
			defer container.Close()

			target := cfg.Targets
			if targets != "" {
				if target, err = parseWeights(targets); err != nil {
					return fmt.Errorf("targets: %w", err)
				}
			}
			if threshold == 0 {
				threshold = cfg.RebalanceThreshold
			}

			report := container.RecommendationService.RecommendRebalance(cmd.Context(), current, target, threshold)
			if jsonOut {
				return printJSON(os.Stdout, report)
			}
			if report.Status != domain.StatusSuccess {
				return fmt.Errorf("%s: %s", report.Status, report.Message)
			}

			for _, rec := range report.Recommendations {
				fmt.Printf("%-8s %-5s %-6s signal %+6.1f  confidence %.2f  %s\n",
					rec.Asset, strings.ToUpper(string(rec.Action)), rec.Priority,
					rec.SignalStrength, rec.Confidence, rec.Timeframe)
				if rec.Reason != "" {
					fmt.Printf("         %s\n", rec.Reason)
				}
			}
			fmt.Printf("%d buy, %d sell, %d hold\n", report.Summary.Buy, report.Summary.Sell, report.Summary.Hold)
			return nil
		},
	}

	cmd.Flags().StringVar(&holdings, "holdings", "", "Current weights, e.g. BTC=0.6,ETH=0.4")
	cmd.Flags().StringVar(&targets, "targets", "", "Target weights (defaults to the configured targets)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Drift threshold (defaults to REBALANCE_THRESHOLD)")
	_ = cmd.MarkFlagRequired("holdings")
	return cmd
}

func backtestCmd() *cobra.Command {
	var start, end, symbols, strategy string
	var capital, threshold float64

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay a strategy over historical weekly prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := domain.ParseDate(start)
			if err != nil {
				return fmt.Errorf("start: %w", err)
			}
			endDate, err := domain.ParseDate(end)
			if err != nil {
				return fmt.Errorf("end: %w", err)
			}

			container, _, err := openContainer()
			if err != nil {
				return err
			}
			defer container.Close()

			result := container.BacktestEngine.Run(cmd.Context(), backtest.Request{
				StartDate:       startDate,
				EndDate:         endDate,
				InitialCapital:  capital,
				Symbols:         utils.ParseSymbols(symbols),
				Strategy:        strategy,
				SignalThreshold: threshold,
			})
			if jsonOut {
				return printJSON(os.Stdout, result)
			}
			if result.Status != domain.StatusSuccess {
				return fmt.Errorf("%s: %s", result.Status, result.Message)
			}

			m := result.Metrics
			fmt.Printf("%s %s → %s, %s\n", result.Strategy,
				result.StartDate.Format("2006-01-02"), result.EndDate.Format("2006-01-02"),
				strings.Join(result.Symbols, ","))
			if len(result.DroppedSymbols) > 0 {
				fmt.Printf("  Dropped:      %s\n", strings.Join(result.DroppedSymbols, ","))
			}
			fmt.Printf("  Final value:  %s (from %s)\n", usd(m.FinalValue), usd(result.InitialCapital))
			fmt.Printf("  Return:       %s\n", percent(m.TotalReturn))
			fmt.Printf("  CAGR:         %s\n", percent(m.CAGR))
			fmt.Printf("  Max drawdown: %s\n", percent(m.MaxDrawdown))
			fmt.Printf("  Sharpe:       %.3f (annualised %.3f)\n", m.Sharpe, m.AnnualizedSharpe)
			fmt.Printf("  Win rate:     %s over %d trades\n", percent(m.WinRate), m.TotalTrades)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&symbols, "symbols", "", "Comma separated symbols")
	cmd.Flags().StringVar(&strategy, "strategy", backtest.StrategyBuyAndHold,
		"buy_and_hold, follow_ai, high_confidence or weighted_allocation")
	cmd.Flags().Float64Var(&capital, "capital", 10000, "Initial capital in USD")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Signal threshold for follow_ai")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	_ = cmd.MarkFlagRequired("symbols")
	return cmd
}

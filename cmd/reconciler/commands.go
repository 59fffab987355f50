package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fillReconciler/internal/common/dto"
	"fillReconciler/internal/metrics"
	"fillReconciler/internal/repository"
	"fillReconciler/pkg/database"
	"fillReconciler/pkg/utils"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "reconciler",
		Short:         "Reconcile filled orders into buy/sell matches",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (yaml, json or toml)")

	withApp := func(run func(cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return run(cmd, a)
		}
	}

	root.AddCommand(
		newMigrateCmd(withApp),
		newImportCmd(withApp),
		newOrderCmd(withApp),
		newMatchCmd(withApp),
		newProxyMatchCmd(withApp),
		newLockableCmd(withApp),
		newStatusCmd(withApp),
		newPoolCmd(withApp),
		newWatchCmd(withApp),
	)
	return root
}

type appRunner func(run func(cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error

func newMigrateCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the orders and order_matches tables",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			return database.Migrate(a.db)
		}),
	}
}

func newImportCmd(withApp appRunner) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load filled orders from a JSON array (file or stdin)",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			var fills []dto.FillDto
			if err := json.NewDecoder(in).Decode(&fills); err != nil {
				return fmt.Errorf("decode fills: %w", err)
			}
			n, err := a.creator.ImportFills(cmd.Context(), fills)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]int{"imported": n})
		}),
	}
	cmd.Flags().StringVar(&file, "file", "-", "JSON file with fills, - for stdin")
	return cmd
}

func newOrderCmd(withApp appRunner) *cobra.Command {
	var orderID string
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Show one order and the matches that reference it",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			order, err := a.creator.FindOrder(cmd.Context(), orderID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), order)
		}),
	}
	cmd.Flags().StringVar(&orderID, "id", "", "order id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newMatchCmd(withApp appRunner) *cobra.Command {
	var symbol, bucket string
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match the unmatched sells of one bucket against its buys",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			stats, err := a.service.Match(cmd.Context(), symbol, bucket)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), stats)
		}),
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "trading symbol")
	cmd.Flags().StringVar(&bucket, "bucket", "", "timeframe bucket")
	_ = cmd.MarkFlagRequired("symbol")
	_ = cmd.MarkFlagRequired("bucket")
	return cmd
}

func newProxyMatchCmd(withApp appRunner) *cobra.Command {
	var symbol, bucket string
	cmd := &cobra.Command{
		Use:   "proxy-match",
		Short: "Match the pooling bucket's sells against buys of every bucket",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			stats, err := a.service.ProxyMatch(cmd.Context(), symbol, bucket)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), stats)
		}),
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "trading symbol")
	cmd.Flags().StringVar(&bucket, "bucket", "", "pooling bucket (default matching.proxy_bucket)")
	_ = cmd.MarkFlagRequired("symbol")
	return cmd
}

func newLockableCmd(withApp appRunner) *cobra.Command {
	var symbol, available, price, ratio string
	cmd := &cobra.Command{
		Use:   "lockable",
		Short: "Quantity sellable now without breaching the profit floor",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			availableQty, err := utils.ParseDecimal("available", available)
			if err != nil {
				return err
			}
			currentPrice, err := utils.ParseDecimal("price", price)
			if err != nil {
				return err
			}
			minRatio, err := utils.ParseDecimal("ratio", ratio)
			if err != nil {
				return err
			}
			qty, err := a.service.LockableQuantity(cmd.Context(), symbol, availableQty, currentPrice, minRatio)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]string{
				"symbol":   symbol,
				"lockable": qty.String(),
			})
		}),
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "trading symbol")
	cmd.Flags().StringVar(&available, "available", "", "quantity currently held")
	cmd.Flags().StringVar(&price, "price", "", "current price")
	cmd.Flags().StringVar(&ratio, "ratio", "0", "minimum profit ratio, e.g. 0.01 for 1%")
	_ = cmd.MarkFlagRequired("symbol")
	_ = cmd.MarkFlagRequired("available")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newStatusCmd(withApp appRunner) *cobra.Command {
	var symbol, bucket string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the safe-window status of the pooling bucket",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			status, err := a.service.SafeWindowStatus(cmd.Context(), symbol, bucket)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), status)
		}),
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "trading symbol")
	cmd.Flags().StringVar(&bucket, "bucket", "", "pooling bucket (default matching.proxy_bucket)")
	_ = cmd.MarkFlagRequired("symbol")
	return cmd
}

func newPoolCmd(withApp appRunner) *cobra.Command {
	var symbol, bucket string
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "List unmatched buy inventory in consumption order",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			entries, err := a.service.BuyPool(cmd.Context(), symbol, bucket)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), entries)
		}),
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "trading symbol")
	cmd.Flags().StringVar(&bucket, "bucket", repository.AllBuckets, "bucket (default: all buckets)")
	_ = cmd.MarkFlagRequired("symbol")
	return cmd
}

func newWatchCmd(withApp appRunner) *cobra.Command {
	var (
		symbols  []string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reconcile every bucket and the pooling bucket on a fixed interval",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			ctx := cmd.Context()
			if len(symbols) == 0 {
				symbols = a.cfg.Watch.Symbols
			}
			if interval <= 0 {
				interval = a.cfg.Watch.Interval
			}

			if a.cfg.MetricsAddr != "" {
				srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.logger.Error().Err(err).Msg("metrics listener")
					}
				}()
				defer srv.Close()
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			a.logger.Info().Strs("symbols", symbols).Dur("interval", interval).Msg("watch started")
			for {
				select {
				case <-ctx.Done():
					a.logger.Info().Msg("watch stopped")
					return nil
				case <-ticker.C:
					if err := a.service.ProcessTransactions(ctx, symbols); err != nil {
						a.logger.Error().Err(err).Msg("error processing transactions")
					}
				}
			}
		}),
	}
	cmd.Flags().StringSliceVar(&symbols, "symbols", nil, "symbols to reconcile (default: watch.symbols, then every symbol)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "tick interval (default watch.interval)")
	return cmd
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

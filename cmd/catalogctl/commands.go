package main

import (
	"fmt"
	"os"
	"strconv"

	"collectibles-vault/internal/catalog"
	"collectibles-vault/internal/refresh"
	"collectibles-vault/internal/snapshot"
	"collectibles-vault/internal/valuation"

	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	var (
		category string
		name     string
		params   []string
		admin    bool
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve an item to its catalog entry, creating it if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			mp, err := parseParams(params)
			if err != nil {
				return err
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Catalog.EnsureEntry(cmd.Context(), catalog.Actor{Username: "catalogctl", Privileged: admin}, catalog.EnsureRequest{
				Category:     category,
				MarketParams: mp,
				HintName:     name,
			})
			if err != nil {
				return err
			}
			return printOutput(os.Stdout, res,
				[]string{"id", "catalog_key", "created"},
				[][]string{{strconv.FormatUint(uint64(res.ID), 10), res.CatalogKey, strconv.FormatBool(res.Created)}})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Item category (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name hint")
	cmd.Flags().StringArrayVar(&params, "param", nil, "Market param as key=value (repeatable)")
	cmd.Flags().BoolVar(&admin, "admin", false, "Act as a privileged caller (backfills existing entries)")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newEstimateCmd() *cobra.Command {
	var (
		item     valuation.Item
		params   []string
		sale     float64
		purchase float64
		policy   string
	)
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate fair value and price band for an item",
		RunE: func(cmd *cobra.Command, args []string) error {
			mp, err := parseParams(params)
			if err != nil {
				return err
			}
			item.MarketParams = mp
			if cmd.Flags().Changed("sale") {
				item.SalePrice = &sale
			}
			if cmd.Flags().Changed("purchase") {
				item.PurchasePrice = &purchase
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			est := a.Estimator.WithPolicy(valuation.ParsePolicy(policy)).Estimate(cmd.Context(), item)
			date := "-"
			if est.ValuationDate != nil {
				date = *est.ValuationDate
			}
			return printOutput(os.Stdout, est,
				[]string{"fair_value", "low", "high", "currency", "source", "date"},
				[][]string{{formatPrice(est.FairValue), formatPrice(est.PriceLow), formatPrice(est.PriceHigh), est.Currency, est.Source, date}})
		},
	}
	cmd.Flags().StringVar(&item.Category, "category", "", "Item category (required)")
	cmd.Flags().StringVar(&item.Name, "name", "", "Item name used for free-text search")
	cmd.Flags().StringVar(&item.Currency, "currency", "", "Item currency")
	cmd.Flags().StringArrayVar(&params, "param", nil, "Market param as key=value (repeatable)")
	cmd.Flags().Float64Var(&sale, "sale", 0, "Recorded sale price")
	cmd.Flags().Float64Var(&purchase, "purchase", 0, "Recorded purchase price")
	cmd.Flags().StringVar(&policy, "policy", "first_success", "Source policy: first_success or aggregate_all")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <catalog-entry-id>",
		Short: "Query every routed source for one entry and store today's snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Aggregator.Refresh(cmd.Context(), id)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(report.Sources))
			for _, s := range report.Sources {
				rows = append(rows, []string{s.Source, string(s.Status), strconv.Itoa(s.Samples), s.Error})
			}
			return printOutput(os.Stdout, report, []string{"source", "status", "samples", "error"}, rows)
		},
	}
}

func newSweepCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Refresh every entry that has no snapshot for today",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			batch := limit
			if batch <= 0 {
				batch = a.Cfg.RefreshBatch
			}
			sampler := refresh.NewSampler(a.Catalog, a.Aggregator, refresh.Options{
				Workers: a.Cfg.QuoteWorkers,
				Batch:   batch,
			}, a.Log).WithToday(a.Snapshots.Today)
			res, err := sampler.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			return printOutput(os.Stdout, res,
				[]string{"processed", "succeeded", "failed", "snapshots", "duration"},
				[][]string{{strconv.Itoa(res.Processed), strconv.Itoa(res.Succeeded), strconv.Itoa(res.Failed), strconv.Itoa(res.Snapshots), res.Duration.String()}})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries to refresh (default REFRESH_BATCH)")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var filter snapshot.HistoryFilter
	cmd := &cobra.Command{
		Use:   "history <catalog-entry-id>",
		Short: "Print an entry's daily price snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.Catalog.Entry(cmd.Context(), id); err != nil {
				return err
			}
			rows, err := a.Snapshots.History(cmd.Context(), id, filter)
			if err != nil {
				return err
			}
			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				table = append(table, []string{r.RefDate, r.Source, strconv.Itoa(r.SamplesCount), formatPrice(r.Median), formatPrice(r.Min), formatPrice(r.Max), r.Currency})
			}
			return printOutput(os.Stdout, rows, []string{"date", "source", "samples", "median", "min", "max", "currency"}, table)
		},
	}
	cmd.Flags().StringVar(&filter.Source, "source", "", "Only this source")
	cmd.Flags().StringVar(&filter.Since, "since", "", "Only days on or after YYYY-MM-DD")
	return cmd
}

func parseEntryID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid catalog entry id %q", s)
	}
	return uint(id), nil
}

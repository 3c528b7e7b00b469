package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	var maxMarkets int

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Refresh the market catalog and embeddings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if maxMarkets > 0 {
				a.ingester = a.ingesterWithCap(maxMarkets)
			}

			stats, err := a.ingester.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("fetched %d, upserted %d, embedded %d, skipped %d, pruned %d\n",
				stats.Fetched, stats.Upserted, stats.Embedded, stats.Skipped, stats.Pruned)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxMarkets, "max-markets", 0, "stop after roughly this many markets (0 = all)")
	return cmd
}

func newPopularCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "popular",
		Short: "List the highest-volume open markets in the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			markets, err := a.store.PopularMarkets(cmd.Context(), limit, offset, time.Now())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VOLUME\tENDS\tTITLE")
			for _, m := range markets {
				volume := "-"
				if m.Volume != nil {
					volume = fmt.Sprintf("%.0f", *m.Volume)
				}
				ends := "-"
				if m.EndDate != nil {
					ends = time.UnixMilli(*m.EndDate).UTC().Format("2006-01-02")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", volume, ends, m.Title)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of markets")
	cmd.Flags().IntVar(&offset, "offset", 0, "pagination offset")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"carbon-offset/offset-portal/offset-portal-backend/internal/db"
	"carbon-offset/offset-portal/offset-portal-backend/internal/emissions"
	"carbon-offset/offset-portal/offset-portal-backend/internal/hotspots"
)

func newHotspotsCmd(a *app) *cobra.Command {
	var (
		store bool
		top   int
	)
	cmd := &cobra.Command{
		Use:   "hotspots",
		Short: "Classify emission hotspots from the emissions dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tables, err := a.tables(ctx)
			if err != nil {
				return err
			}

			var result *hotspots.Classification
			if store {
				database, err := db.Open(a.cfg.Database)
				if err != nil {
					return err
				}
				defer database.Close()
				if err := database.MigrateUp(a.logger); err != nil {
					return err
				}
				svc := hotspots.NewService(hotspots.NewRepository(database.DB), a.logger, hotspots.ServiceOptions{})
				if result, err = svc.Refresh(ctx, tables.Emissions.Rows); err != nil {
					return err
				}
			} else if result, err = hotspots.Classify(tables.Emissions.Rows, time.Now().UTC()); err != nil {
				return err
			}

			printClassification(cmd.OutOrStdout(), result, top)
			if store {
				fmt.Fprintf(cmd.ErrOrStderr(), "stored %d hotspots\n", len(result.Hotspots))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&store, "store", false, "replace the hotspots stored in the database")
	cmd.Flags().IntVar(&top, "top", 10, "number of highest scoring rows to print")
	return cmd
}

func printClassification(w io.Writer, result *hotspots.Classification, top int) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "thresholds: mean %.2f, std %.2f, orange > %.2f, red > %.2f\n",
		result.Thresholds.Mean, result.Thresholds.StdDev, result.Thresholds.Low, result.Thresholds.High)
	for _, level := range hotspots.Levels {
		p.Fprintf(w, "%-7s %d\n", level, result.Counts[level])
	}
	if result.Dropped > 0 {
		p.Fprintf(w, "dropped %d rows with missing readings\n", result.Dropped)
	}

	ranked := append([]hotspots.Hotspot(nil), result.Hotspots...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if top > len(ranked) {
		top = len(ranked)
	}
	if top <= 0 {
		return
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SITE\tSTATE\tDISTRICT\tSCORE\tLEVEL")
	for _, h := range ranked[:top] {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n", h.MineName, h.State, h.District, h.Score, h.Level)
	}
	tw.Flush()
}

func newSummariesCmd(a *app) *cobra.Command {
	var store bool
	cmd := &cobra.Command{
		Use:   "summaries",
		Short: "Compute monthly and overall gas averages from the emissions dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tables, err := a.tables(ctx)
			if err != nil {
				return err
			}

			var summaries *emissions.Summaries
			if store {
				client, mdb, err := db.OpenMongo(ctx, a.cfg.DocumentStore)
				if err != nil {
					return err
				}
				defer client.Disconnect(ctx)
				svc := emissions.NewService(emissions.NewMongoRepository(mdb), nil, a.logger)
				if summaries, err = svc.RebuildSummaries(ctx, tables.Emissions.Rows); err != nil {
					return err
				}
			} else {
				summaries = emissions.BuildSummaries(tables.Emissions.Rows, time.Now().UTC())
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Monthly []emissions.MonthlySummary `json:"monthly"`
				Overall *emissions.OverallSummary  `json:"overall"`
				Used    int                        `json:"rows_used"`
				Dropped int                        `json:"rows_dropped"`
			}{summaries.Monthly, summaries.Overall, summaries.Used, summaries.Dropped})
		},
	}
	cmd.Flags().BoolVar(&store, "store", false, "replace the summaries in the document store")
	return cmd
}

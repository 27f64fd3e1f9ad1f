package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"carbon-offset/offset-portal/offset-portal-backend/internal/bootstrap"
	"carbon-offset/offset-portal/offset-portal-backend/internal/offsets"
	"carbon-offset/offset-portal/offset-portal-backend/internal/reports/export"
)

func newPlanCmd(a *app) *cobra.Command {
	var (
		format string
		lang   string
		output string
	)
	cmd := &cobra.Command{
		Use:   "plan <site>",
		Short: "Compute the offset plan for a mine site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			var engine offsets.Engine
			p, err := a.planner(ctx)
			switch {
			case err == nil:
				engine = p
			case bootstrap.IsMissingData(err) && a.cfg.Planner.AllowDegradedStart:
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; plan will be simulated\n", err)
			default:
				return err
			}

			svc := offsets.NewService(engine, nil, a.logger, offsets.ServiceOptions{})
			svc.MarkReady()
			outcome, err := svc.GetOffsetPlan(ctx, args[0])
			if err != nil {
				return err
			}
			if outcome.Simulated() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: simulated plan (%v)\n", outcome.Cause)
			}

			doc, err := export.NewService(nil, "").Render(outcome.Plan, f, export.RenderOptions{
				Language:    export.ParseLanguage(lang),
				GeneratedAt: outcome.GeneratedAt,
			})
			if err != nil {
				return err
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(doc.Body)
				return err
			}
			if output == "." {
				output = doc.Filename
			}
			if err := os.WriteFile(output, doc.Body, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: json, text, csv, excel or pdf")
	cmd.Flags().StringVar(&lang, "lang", "en", "summary language for text output: en or hi")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout; '.' uses the default file name")
	return cmd
}

func newSitesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List the mine sites known to the emissions dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := a.tables(cmd.Context())
			if err != nil {
				return err
			}
			for _, site := range tables.Sites() {
				fmt.Fprintln(cmd.OutOrStdout(), site)
			}
			return nil
		},
	}
}

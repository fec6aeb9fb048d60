package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/rallylog/internal/adapters/export"
	service "github.com/okian/rallylog/internal/app"
)

func newMatchesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "matches",
		Short: "List stored matches, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), g, func(svc *service.Service) error {
				list, err := svc.ListMatches(cmd.Context())
				if err != nil {
					return fmt.Errorf("list matches: %w", err)
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No matches recorded yet.")
					return nil
				}
				return export.WriteMatchList(cmd.OutOrStdout(), list)
			})
		},
	}
}

func newShowCmd(g *globalFlags) *cobra.Command {
	var summaryOnly bool
	cmd := &cobra.Command{
		Use:   "show <match-id>",
		Short: "Print a match summary and its rallies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), g, func(svc *service.Service) error {
				d, err := svc.MatchDetail(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s  vs %s\n\n", d.Match.Title, d.Match.DisplayOpponent())
				if err := export.WriteSummaryTable(out, d.Summary); err != nil {
					return err
				}
				if summaryOnly {
					return nil
				}
				fmt.Fprintln(out)
				return export.WriteRallyTable(out, d.Rallies)
			})
		},
	}
	cmd.Flags().BoolVar(&summaryOnly, "summary", false, "omit the rally table")
	return cmd
}

func newReplayCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <match-id>",
		Short: "Recompute sequence numbers and scores of a match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), g, func(svc *service.Service) error {
				res, err := svc.ReplayMatch(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d rallies, %d rewritten\n", len(res.Rallies), res.Written)
				return nil
			})
		},
	}
}

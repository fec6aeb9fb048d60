package main

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/okian/rallylog/internal/adapters/export"
	"github.com/okian/rallylog/internal/adapters/http/api"
	service "github.com/okian/rallylog/internal/app"
)

type analysisFlags struct {
	opponentID   string
	tournamentID string
	startDate    string
	endDate      string
	officialOnly bool
	limit        int
}

// query maps the flags onto the same parameters GET /api/analysis takes.
func (f analysisFlags) query() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("opponent_id", f.opponentID)
	set("tournament_id", f.tournamentID)
	set("start_date", f.startDate)
	set("end_date", f.endDate)
	if f.officialOnly {
		q.Set("official_only", "true")
	}
	if f.limit != 0 {
		q.Set("limit", strconv.Itoa(f.limit))
	}
	return q
}

func newAnalysisCmd(g *globalFlags) *cobra.Command {
	var f analysisFlags
	cmd := &cobra.Command{
		Use:   "analysis",
		Short: "Aggregate reason shares and abilities across matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := api.ParseAnalysisFilter(f.query())
			if err != nil {
				return err
			}
			return withService(cmd.Context(), g, func(svc *service.Service) error {
				stats, err := svc.Analysis(cmd.Context(), filter)
				if err != nil {
					return fmt.Errorf("analysis: %w", err)
				}
				return export.WriteAnalysisTable(cmd.OutOrStdout(), stats)
			})
		},
	}
	cmd.Flags().StringVar(&f.opponentID, "opponent", "", "only matches against this opponent id")
	cmd.Flags().StringVar(&f.tournamentID, "tournament", "", "only matches of this tournament id")
	cmd.Flags().StringVar(&f.startDate, "from", "", "first match date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.endDate, "to", "", "last match date, YYYY-MM-DD (inclusive)")
	cmd.Flags().BoolVar(&f.officialOnly, "official", false, "only tournament matches")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum number of matches")
	return cmd
}

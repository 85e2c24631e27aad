package main

import (
	"github.com/spf13/cobra"

	app "github.com/okian/courtside/internal/app"
	"github.com/okian/courtside/internal/adapters/source"
	"github.com/okian/courtside/internal/domain/model"
)

type reportOptions struct {
	at int64
}

func newReportCommand(root *rootOptions) *cobra.Command {
	opts := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "report <game-file>",
		Short: "Reconstruct the games of one file and print their quality reports",
		Long: `Reconstruct the games of one file and print their quality reports. With
--at, print instead the lineup each team had on the court at that event order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			games, err := source.LoadFile(args[0])
			if err != nil {
				return err
			}

			pipeline := app.NewPipeline(app.WithResolverThreshold(root.cfg.FuzzyThreshold))
			results := make([]model.Result, 0, len(games))
			for i := range games {
				results = append(results, pipeline.Reconstruct(cmd.Context(), games[i]))
			}
			if cmd.Flags().Changed("at") {
				return writeLineupsAt(cmd.OutOrStdout(), root.format, games, results, opts.at)
			}
			return writeReports(cmd.OutOrStdout(), root.format, results)
		},
	}

	cmd.Flags().Int64Var(&opts.at, "at", 0, "print the lineups on the court at this event order")
	return cmd
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/okian/courtside/internal/adapters/source"
	"github.com/okian/courtside/internal/testgames"
	"github.com/okian/courtside/pkg/logger"
)

// Default generator settings.
const (
	defaultGames       = 10
	defaultPossessions = 24
	defaultSubRate     = 0.15
)

type generateOptions struct {
	games       int
	seed        uint64
	periods     int
	possessions int
	subRate     float64
}

func newGenerateCommand(_ *rootOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate <out-dir>",
		Short: "Write simulated games for load and regression testing",
		Long: `Write one YAML file per simulated game. The same seed always produces
the same games, so the output can be replayed against earlier results.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return generateGames(cmd, opts, args[0])
		},
	}

	cmd.Flags().IntVarP(&opts.games, "games", "n", defaultGames, "number of games")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 1, "seed of the first game")
	cmd.Flags().IntVar(&opts.periods, "periods", 4, "periods per game")
	cmd.Flags().IntVar(&opts.possessions, "possessions", defaultPossessions, "possession attempts per period")
	cmd.Flags().Float64Var(&opts.subRate, "sub-rate", defaultSubRate, "chance of a substitution before each possession")
	return cmd
}

func generateGames(cmd *cobra.Command, opts *generateOptions, dir string) error {
	if opts.games < 1 {
		return fmt.Errorf("--games must be positive")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ctx := cmd.Context()
	for i := 0; i < opts.games; i++ {
		seed := opts.seed + uint64(i)
		id := fmt.Sprintf("sim-%06d", seed)
		game := testgames.Generate(id, seed,
			testgames.WithPeriods(opts.periods),
			testgames.WithPossessions(opts.possessions),
			testgames.WithSubstitutionRate(opts.subRate),
		)
		if err := source.WriteFile(filepath.Join(dir, id+".yaml"), game); err != nil {
			return err
		}
	}

	logger.Named("generate").Info(ctx, "generated games",
		logger.String("dir", dir), logger.Int("games", opts.games), logger.Int64("first_seed", int64(opts.seed)))
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d games to %s\n", opts.games, dir)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/courtside/internal/config"
	"github.com/okian/courtside/pkg/logger"
)

// Exit codes.
const (
	exitSuccess      = 0
	exitFailure      = 1 // at least one game failed
	exitCommandError = 2 // bad flags, unreadable input, store errors
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
)

// errGamesFailed marks a batch in which some games could not be replayed.
var errGamesFailed = errors.New("games failed")

// rootOptions holds the global flags and the state resolved from them.
type rootOptions struct {
	configPath string
	format     string

	cfg *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	if syncErr := logger.Sync(); syncErr != nil {
		os.Stderr.WriteString("courtside: failed to sync logs: " + syncErr.Error() + "\n")
	}
	if err != nil {
		os.Stderr.WriteString("courtside: " + err.Error() + "\n")
		stop()
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, errGamesFailed):
		return exitFailure
	default:
		return exitCommandError
	}
}

// newRootCommand builds the courtside command tree.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "courtside",
		Short: "Reconstruct lineups and possessions from basketball play-by-play logs",
		Long: `courtside replays play-by-play event logs and derives, per game, the
five players each team had on the court, the possession sequence with
outcomes and points, a link from every event to its possession and a
quality report of the derived records.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (default $"+config.FileEnv+")")
	cmd.PersistentFlags().StringVar(&opts.format, "format", formatText, "output format (text|json)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newReportCommand(opts))
	cmd.AddCommand(newGenerateCommand(opts))
	return cmd
}

// setup loads configuration (defaults -> optional file -> env) and
// initializes logging on stderr so stdout carries only command output.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	if o.format != formatText && o.format != formatJSON {
		return fmt.Errorf("invalid format %q: must be text or json", o.format)
	}

	ctx := cmd.Context()
	path := o.configPath
	if path == "" {
		path = os.Getenv(config.FileEnv)
	}
	cfg, err := config.LoadFile(ctx, path)
	if err != nil {
		return err
	}
	o.cfg = cfg

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}
